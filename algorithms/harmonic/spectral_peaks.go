package harmonic

import (
	"math"
	"sort"
)

// SpectralPeak represents a detected spectral peak
type SpectralPeak struct {
	Frequency float64 // Peak frequency in Hz
	Magnitude float64 // Peak magnitude
	BinIndex  int     // Original FFT bin index
}

// SpectralPeaks picks the strongest local maxima of a magnitude spectrum
// inside a fixed frequency band. For guitar work the band is restricted to
// the instrument's fundamental range so string noise and hiss above the
// fretboard never reach the pitch-class fold.
type SpectralPeaks struct {
	sampleRate      int
	minFreq         float64
	maxFreq         float64
	noiseFloorRatio float64 // peaks below this fraction of the strongest bin are dropped
	maxPeaks        int
}

// NewSpectralPeaks creates a new spectral peak picker
func NewSpectralPeaks(sampleRate int, minFreq, maxFreq, noiseFloorRatio float64, maxPeaks int) *SpectralPeaks {
	return &SpectralPeaks{
		sampleRate:      sampleRate,
		minFreq:         minFreq,
		maxFreq:         maxFreq,
		noiseFloorRatio: noiseFloorRatio,
		maxPeaks:        maxPeaks,
	}
}

// DetectPeaks detects spectral peaks in a magnitude spectrum. windowSize is
// the FFT size the spectrum came from; it fixes the bin -> Hz mapping.
// Returned peaks are magnitude-ranked, capped at maxPeaks, and refined to
// sub-bin accuracy with parabolic interpolation.
func (sp *SpectralPeaks) DetectPeaks(magnitudeSpectrum []float64, windowSize int) []SpectralPeak {
	if len(magnitudeSpectrum) < 3 || windowSize <= 0 {
		return []SpectralPeak{}
	}

	freqResolution := float64(sp.sampleRate) / float64(windowSize)

	loBin := int(math.Ceil(sp.minFreq / freqResolution))
	hiBin := int(math.Floor(sp.maxFreq / freqResolution))
	if loBin < 1 {
		loBin = 1
	}
	if hiBin > len(magnitudeSpectrum)-2 {
		hiBin = len(magnitudeSpectrum) - 2
	}
	if hiBin <= loBin {
		return []SpectralPeak{}
	}

	// Noise floor relative to the strongest in-band bin
	maxMag := 0.0
	for i := loBin; i <= hiBin; i++ {
		if magnitudeSpectrum[i] > maxMag {
			maxMag = magnitudeSpectrum[i]
		}
	}
	if maxMag < 1e-12 {
		return []SpectralPeak{}
	}
	floor := maxMag * sp.noiseFloorRatio

	var peaks []SpectralPeak
	for i := loBin; i <= hiBin; i++ {
		if magnitudeSpectrum[i] > magnitudeSpectrum[i-1] &&
			magnitudeSpectrum[i] > magnitudeSpectrum[i+1] &&
			magnitudeSpectrum[i] >= floor {

			freq, mag := refinePeak(magnitudeSpectrum, i, freqResolution)
			peaks = append(peaks, SpectralPeak{
				Frequency: freq,
				Magnitude: mag,
				BinIndex:  i,
			})
		}
	}

	// Sort peaks by magnitude (descending)
	sort.Slice(peaks, func(i, j int) bool {
		return peaks[i].Magnitude > peaks[j].Magnitude
	})

	if len(peaks) > sp.maxPeaks {
		peaks = peaks[:sp.maxPeaks]
	}

	return peaks
}

// refinePeak applies parabolic interpolation around a local maximum for
// sub-bin frequency accuracy.
func refinePeak(magnitudeSpectrum []float64, binIdx int, freqResolution float64) (freq, mag float64) {
	y1 := magnitudeSpectrum[binIdx-1]
	y2 := magnitudeSpectrum[binIdx]
	y3 := magnitudeSpectrum[binIdx+1]

	freq = float64(binIdx) * freqResolution
	mag = y2

	denom := 2.0 * (2.0*y2 - y1 - y3)
	if math.Abs(denom) > 1e-10 {
		offset := (y3 - y1) / denom
		freq = (float64(binIdx) + offset) * freqResolution

		a := 0.5 * (y1 - 2.0*y2 + y3)
		b := 0.5 * (y3 - y1)
		mag = y2 + a*offset*offset + b*offset
	}

	return freq, mag
}
