package chroma

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fretwise/chordloop/algorithms/harmonic"
)

func TestPeakFoldMapsFrequenciesToClasses(t *testing.T) {
	pf := NewPeakFold()

	cases := []struct {
		freq  float64
		class int
	}{
		{440.0, 9},   // A4
		{110.0, 9},   // A2
		{523.25, 0},  // C5
		{82.41, 4},   // E2
		{196.0, 7},   // G3
		{369.99, 6},  // F#4
	}

	for _, c := range cases {
		profile := pf.Compute([]harmonic.SpectralPeak{{Frequency: c.freq, Magnitude: 1.0}})
		assert.Equal(t, c.class, profile.DominantClass(), "frequency %.2f", c.freq)
	}
}

func TestPeakFoldRejectsOffPitchPeaks(t *testing.T) {
	pf := NewPeakFoldWithParams(PeakFoldParams{
		ReferenceFreq:  440.0,
		CentsTolerance: 30.0,
	})

	// ~47 cents above A4: between semitones, outside the tolerance
	profile := pf.Compute([]harmonic.SpectralPeak{{Frequency: 452.0, Magnitude: 1.0}})
	assert.True(t, profile.IsZero())
}

func TestPeakFoldAccumulatesEnergy(t *testing.T) {
	pf := NewPeakFold()

	// Two A peaks in different octaves, one weaker E
	profile := pf.Compute([]harmonic.SpectralPeak{
		{Frequency: 110.0, Magnitude: 1.0},
		{Frequency: 220.0, Magnitude: 1.0},
		{Frequency: 164.81, Magnitude: 0.5},
	})

	assert := assert.New(t)
	assert.Equal(9, profile.DominantClass())
	assert.InDelta(1.0, profile.Values[9], 1e-9)
	assert.Greater(profile.Values[9], profile.Values[4])
}

func TestProfileSimilarity(t *testing.T) {
	a := NewPitchClassProfile([]float64{1, 0, 0, 0, 0.5, 0, 0, 0.7, 0, 0, 0, 0})
	b := NewPitchClassProfile([]float64{1, 0, 0, 0, 0.5, 0, 0, 0.7, 0, 0, 0, 0})
	c := NewPitchClassProfile([]float64{0, 1, 0, 0, 0, 0.5, 0, 0, 0.7, 0, 0, 0})

	assert := assert.New(t)
	assert.InDelta(1.0, a.Similarity(b), 1e-9)
	assert.InDelta(0.0, a.Similarity(c), 1e-9)
}

func TestZeroProfile(t *testing.T) {
	assert := assert.New(t)
	assert.True(NewPitchClassProfile(nil).IsZero())
	assert.Equal(-1, NewPitchClassProfile(nil).DominantClass())
	assert.False(NewPitchClassProfile([]float64{0, 0, 1}).IsZero())
}

func TestProfileWindowSmoothing(t *testing.T) {
	w := NewProfileWindow(3, 0.5)

	a := NewPitchClassProfile([]float64{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	g := NewPitchClassProfile([]float64{0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0})

	assert := assert.New(t)

	w.Add(a)
	assert.False(w.Full())
	w.Add(g)
	w.Add(g)
	assert.True(w.Full())

	// Two recent G frames outweigh the decayed A frame
	smoothed := w.Smoothed()
	assert.Equal(7, smoothed.DominantClass())
	assert.Greater(smoothed.Values[0], 0.0)

	w.Reset()
	assert.False(w.Full())
	assert.Equal(0, w.Len())
}

func TestProfileWindowEvictsOldest(t *testing.T) {
	w := NewProfileWindow(2, 0.5)

	a := NewPitchClassProfile([]float64{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	g := NewPitchClassProfile([]float64{0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0})

	w.Add(a)
	w.Add(g)
	w.Add(g)

	// The A frame has been evicted entirely
	smoothed := w.Smoothed()
	assert.Equal(t, 0.0, smoothed.Values[0])
	assert.Equal(t, 2, w.Len())
}
