package chroma

import (
	"math"

	"github.com/fretwise/chordloop/algorithms/harmonic"
)

// PeakFoldParams holds parameters for the nearest-semitone fold
type PeakFoldParams struct {
	ReferenceFreq  float64 `json:"reference_freq"`  // A4 reference, 440 Hz
	CentsTolerance float64 `json:"cents_tolerance"` // Reject peaks further than this from any semitone
}

// PeakFold maps each spectral peak to its nearest semitone class via
// round(12 * log2(f / A4)) and accumulates peak energy into that bin.
// Peaks that sit between semitones beyond the cents tolerance are
// rejected as noise rather than smeared across two bins.
type PeakFold struct {
	params PeakFoldParams
}

// NewPeakFold creates a fold profiler with default parameters
func NewPeakFold() *PeakFold {
	return NewPeakFoldWithParams(PeakFoldParams{
		ReferenceFreq:  440.0,
		CentsTolerance: 60.0,
	})
}

// NewPeakFoldWithParams creates a fold profiler with custom parameters
func NewPeakFoldWithParams(params PeakFoldParams) *PeakFold {
	return &PeakFold{params: params}
}

// Name identifies the profiler
func (pf *PeakFold) Name() string {
	return "peak_fold"
}

// Compute folds peaks into a 12-bin profile
func (pf *PeakFold) Compute(peaks []harmonic.SpectralPeak) PitchClassProfile {
	energies := make([]float64, NumPitchClasses)

	for _, peak := range peaks {
		if peak.Frequency <= 0 || peak.Magnitude <= 0 {
			continue
		}

		semitones := 12.0 * math.Log2(peak.Frequency/pf.params.ReferenceFreq)
		nearest := math.Round(semitones)
		centsDeviation := 100.0 * (semitones - nearest)

		if math.Abs(centsDeviation) > pf.params.CentsTolerance {
			continue
		}

		// A4 is pitch class 9 (A); offset and wrap into C-based classes
		class := (int(nearest)%NumPitchClasses + 9 + NumPitchClasses*2) % NumPitchClasses
		energies[class] += peak.Magnitude * peak.Magnitude
	}

	return NewPitchClassProfile(energies)
}
