package chroma

import (
	"github.com/fretwise/chordloop/algorithms/harmonic"
)

// Profiler folds spectral peaks into a pitch-class profile. Two
// implementations exist: PeakFold, a cheap nearest-semitone fold, and
// HPCP, a higher-fidelity harmonic pitch-class profile. The detector
// depends only on this interface and picks one at construction time.
type Profiler interface {
	// Name identifies the profiler in logs and configuration
	Name() string

	// Compute folds the given peaks into a 12-bin profile
	Compute(peaks []harmonic.SpectralPeak) PitchClassProfile
}
