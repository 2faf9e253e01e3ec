package chroma

import (
	"github.com/fretwise/chordloop/algorithms/common"
)

// NumPitchClasses is the number of semitone classes in an octave
const NumPitchClasses = 12

// NoteNames lists pitch class names in chromatic order starting from C
var NoteNames = [NumPitchClasses]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchClassProfile is a 12-bin energy vector summarizing which pitch
// classes are sounding, independent of octave. Values are normalized
// against the peak bin so they sit in [0, 1]; Energy keeps the
// pre-normalization total so callers can still judge overall level.
type PitchClassProfile struct {
	Values []float64 `json:"values"` // One bin per semitone class, C through B
	Energy float64   `json:"energy"` // Total energy before normalization
}

// NewPitchClassProfile builds a profile from raw per-class energies,
// normalizing against the peak bin.
func NewPitchClassProfile(energies []float64) PitchClassProfile {
	values := make([]float64, NumPitchClasses)
	total := 0.0
	for i := 0; i < NumPitchClasses && i < len(energies); i++ {
		values[i] = energies[i]
		total += energies[i]
	}

	normalizer := common.NewNormalizer(common.Peak)
	return PitchClassProfile{
		Values: normalizer.Normalize(values),
		Energy: total,
	}
}

// IsZero reports whether the profile carries no usable energy. A zero
// profile never produces a chord candidate.
func (p PitchClassProfile) IsZero() bool {
	if len(p.Values) != NumPitchClasses {
		return true
	}
	for _, v := range p.Values {
		if v > 1e-10 {
			return false
		}
	}
	return true
}

// Similarity computes the cosine similarity with another profile
func (p PitchClassProfile) Similarity(other PitchClassProfile) float64 {
	return common.CosineSimilarity(p.Values, other.Values)
}

// DominantClass returns the index of the strongest pitch class, or -1
// for a zero profile.
func (p PitchClassProfile) DominantClass() int {
	if p.IsZero() {
		return -1
	}

	best := 0
	for i, v := range p.Values {
		if v > p.Values[best] {
			best = i
		}
	}
	return best
}
