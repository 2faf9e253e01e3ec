package chroma

import (
	"math"
)

// ProfileWindow keeps a short rolling buffer of recent profiles and
// combines them with exponentially decaying weights so a single noisy
// analysis frame cannot flip the detected chord. Matching should not
// start until the window is full.
type ProfileWindow struct {
	size     int
	decay    float64
	profiles []PitchClassProfile
}

// NewProfileWindow creates a rolling profile window. size is the number
// of frames retained; decay is the per-frame weight falloff (older
// frames count less).
func NewProfileWindow(size int, decay float64) *ProfileWindow {
	if size < 1 {
		size = 1
	}
	return &ProfileWindow{
		size:  size,
		decay: decay,
	}
}

// Add appends a profile, evicting the oldest once the window is full
func (w *ProfileWindow) Add(p PitchClassProfile) {
	w.profiles = append(w.profiles, p)
	if len(w.profiles) > w.size {
		w.profiles = w.profiles[1:]
	}
}

// Full reports whether enough frames have accumulated for matching
func (w *ProfileWindow) Full() bool {
	return len(w.profiles) >= w.size
}

// Len returns the number of buffered profiles
func (w *ProfileWindow) Len() int {
	return len(w.profiles)
}

// Reset discards all buffered profiles
func (w *ProfileWindow) Reset() {
	w.profiles = w.profiles[:0]
}

// Smoothed combines the buffered profiles into one, weighting frame age
// exponentially: the newest frame gets weight 1, the one before decay,
// then decay², and so on. The combined vector is re-normalized against
// its peak bin.
func (w *ProfileWindow) Smoothed() PitchClassProfile {
	if len(w.profiles) == 0 {
		return NewPitchClassProfile(nil)
	}

	combined := make([]float64, NumPitchClasses)
	totalEnergy := 0.0

	newest := len(w.profiles) - 1
	for i, profile := range w.profiles {
		weight := math.Pow(w.decay, float64(newest-i))
		for bin, v := range profile.Values {
			combined[bin] += v * weight
		}
		totalEnergy += profile.Energy * weight
	}

	smoothed := NewPitchClassProfile(combined)
	smoothed.Energy = totalEnergy
	return smoothed
}
