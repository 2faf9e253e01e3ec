package temporal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const trimTestRate = 8000

// toneWithSilence builds silence + 220Hz tone + silence, each of the
// given durations in samples
func toneWithSilence(lead, tone, tail int) []float64 {
	signal := make([]float64, lead+tone+tail)
	for i := 0; i < tone; i++ {
		signal[lead+i] = 0.5 * math.Sin(2.0*math.Pi*220.0*float64(i)/float64(trimTestRate))
	}
	return signal
}

func TestTrimRemovesLeadAndTail(t *testing.T) {
	trimmer := NewSilenceTrimmer(trimTestRate, 0.01, 10)

	// 500ms silence, 500ms tone, 500ms silence
	signal := toneWithSilence(4000, 4000, 4000)
	result := trimmer.Trim(signal, trimTestRate)

	assert := assert.New(t)
	assert.NotEmpty(result.Samples)
	assert.InDelta(4000, result.StartSample, 200)
	assert.InDelta(8000, result.EndSample, 300)
	assert.InDelta(490, result.LeadTrimmedMs, 30)
	assert.InDelta(490, result.TailTrimmedMs, 40)
	assert.Equal(result.EndSample-result.StartSample, len(result.Samples))
}

func TestTrimAllSilence(t *testing.T) {
	trimmer := NewSilenceTrimmer(trimTestRate, 0.01, 10)

	result := trimmer.Trim(make([]float64, 8000), trimTestRate)

	assert := assert.New(t)
	assert.Empty(result.Samples)
	assert.InDelta(1000, result.LeadTrimmedMs, 1)
}

func TestTrimShortSignalUnchanged(t *testing.T) {
	trimmer := NewSilenceTrimmer(trimTestRate, 0.01, 10)

	signal := []float64{0.1, 0.2, 0.3}
	result := trimmer.Trim(signal, trimTestRate)

	assert := assert.New(t)
	assert.Equal(signal, result.Samples)
	assert.Equal(0, result.StartSample)
	assert.Equal(len(signal), result.EndSample)
}

func TestTrimKeepsAttackPadding(t *testing.T) {
	trimmer := NewSilenceTrimmer(trimTestRate, 0.01, 50)

	signal := toneWithSilence(4000, 4000, 4000)
	result := trimmer.Trim(signal, trimTestRate)

	// 50ms padding = 400 samples of context before the first audible frame
	assert.Less(t, result.StartSample, 3900)
}
