package chroma

import (
	"math"

	"github.com/fretwise/chordloop/algorithms/harmonic"
)

// HPCPParams holds parameters for HPCP computation
type HPCPParams struct {
	ReferenceFreq float64 `json:"reference_freq"` // Reference frequency for A4 (440 Hz)
	WindowSize    float64 `json:"window_size"`    // Contribution window in semitones
	MinFreq       float64 `json:"min_freq"`       // Minimum frequency to consider
	MaxFreq       float64 `json:"max_freq"`       // Maximum frequency to consider
	SplitFreq     float64 `json:"split_freq"`     // Frequencies below this get a low-band boost
	LowBandBoost  float64 `json:"low_band_boost"` // Weight multiplier below SplitFreq
	MaxHarmonics  int     `json:"max_harmonics"`  // Harmonics folded per peak (0 disables)
}

// HPCP computes a Harmonic Pitch-Class Profile from spectral peaks. Each
// peak contributes to its neighborhood of bins through a squared-cosine
// window instead of a hard nearest-semitone assignment, and a peak's
// upper harmonics can be folded back with 1/h weighting. Slower than
// PeakFold but noticeably steadier on distorted or detuned input.
type HPCP struct {
	params HPCPParams
}

// NewHPCP creates an HPCP profiler with default parameters
func NewHPCP() *HPCP {
	return NewHPCPWithParams(HPCPParams{
		ReferenceFreq: 440.0,
		WindowSize:    1.0,
		MinFreq:       40.0,
		MaxFreq:       5000.0,
		SplitFreq:     500.0,
		LowBandBoost:  2.0,
		MaxHarmonics:  3,
	})
}

// NewHPCPWithParams creates an HPCP profiler with custom parameters
func NewHPCPWithParams(params HPCPParams) *HPCP {
	return &HPCP{params: params}
}

// Name identifies the profiler
func (h *HPCP) Name() string {
	return "hpcp"
}

// Compute folds peaks and their harmonics into a 12-bin profile
func (h *HPCP) Compute(peaks []harmonic.SpectralPeak) PitchClassProfile {
	energies := make([]float64, NumPitchClasses)

	for _, peak := range peaks {
		if peak.Frequency < h.params.MinFreq || peak.Frequency > h.params.MaxFreq {
			continue
		}

		weight := peak.Magnitude
		if peak.Frequency < h.params.SplitFreq {
			weight *= h.params.LowBandBoost
		}

		h.addContribution(energies, peak.Frequency, weight)

		for harm := 2; harm <= h.params.MaxHarmonics; harm++ {
			harmonicFreq := peak.Frequency * float64(harm)
			if harmonicFreq > h.params.MaxFreq {
				break
			}
			h.addContribution(energies, harmonicFreq, peak.Magnitude/float64(harm))
		}
	}

	return NewPitchClassProfile(energies)
}

// addContribution spreads a weighted frequency across neighboring bins
// with a squared-cosine window centered on its exact pitch class.
func (h *HPCP) addContribution(energies []float64, freq, weight float64) {
	pitchClass := h.frequencyToPitchClass(freq)

	halfWindow := h.params.WindowSize / 2
	startBin := int(math.Floor(pitchClass - halfWindow))
	endBin := int(math.Ceil(pitchClass + halfWindow))

	for bin := startBin; bin <= endBin; bin++ {
		distance := math.Abs(float64(bin) - pitchClass)
		if distance > float64(NumPitchClasses)/2 {
			distance = float64(NumPitchClasses) - distance
		}
		if distance > halfWindow {
			continue
		}

		wrapped := ((bin % NumPitchClasses) + NumPitchClasses) % NumPitchClasses

		cosVal := math.Max(0, math.Cos(math.Pi*distance/h.params.WindowSize))
		energies[wrapped] += weight * cosVal * cosVal
	}
}

// frequencyToPitchClass converts frequency to a fractional pitch class
// (0 = C, 11.999… just below C again).
func (h *HPCP) frequencyToPitchClass(freq float64) float64 {
	midiNote := 69 + 12*math.Log2(freq/h.params.ReferenceFreq)

	pitchClass := math.Mod(midiNote, NumPitchClasses)
	if pitchClass < 0 {
		pitchClass += NumPitchClasses
	}

	return pitchClass
}
