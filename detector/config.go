package detector

import (
	"time"

	"github.com/fretwise/chordloop/chord"
)

// Config holds detector tuning. Every threshold here is a calibration
// default observed to work for acoustic and clean electric guitar, not a
// fixed requirement; hosts can expose them for adjustment.
type Config struct {
	SampleRate int `json:"sample_rate"`
	WindowSize int `json:"window_size"` // FFT window in samples

	// Analysis cadence
	TickInterval time.Duration `json:"tick_interval"`

	// Silence gate: frame RMS below this is treated as idle, resetting
	// the debounce state
	SilenceRMS float64 `json:"silence_rms"`

	// Peak picking band, matched to the guitar's fundamental range
	MinFreq         float64 `json:"min_freq"`
	MaxFreq         float64 `json:"max_freq"`
	NoiseFloorRatio float64 `json:"noise_floor_ratio"`
	MaxPeaks        int     `json:"max_peaks"`

	// Profiler selection: "peak_fold" (default) or "hpcp"
	Profiler string `json:"profiler"`

	// Temporal smoothing over recent profiles
	SmoothingFrames int     `json:"smoothing_frames"`
	SmoothingDecay  float64 `json:"smoothing_decay"`

	// Match gating: skip the full catalog while the smoothed profile
	// stays this similar to the one that last triggered matching, unless
	// the timeout has elapsed
	SimilarityGate float64       `json:"similarity_gate"`
	MatchTimeout   time.Duration `json:"match_timeout"`

	// Catalog matching thresholds
	Matcher chord.MatcherParams `json:"matcher"`
}

// DefaultConfig returns the default detector configuration
func DefaultConfig() *Config {
	return &Config{
		SampleRate:      44100,
		WindowSize:      8192,
		TickInterval:    250 * time.Millisecond,
		SilenceRMS:      8e-4,
		MinFreq:         80.0,
		MaxFreq:         1200.0,
		NoiseFloorRatio: 0.05,
		MaxPeaks:        12,
		Profiler:        "peak_fold",
		SmoothingFrames: 5,
		SmoothingDecay:  0.55,
		SimilarityGate:  0.85,
		MatchTimeout:    1200 * time.Millisecond,
		Matcher:         chord.DefaultMatcherParams(),
	}
}

// valid reports whether the configuration can drive an analysis session
func (c *Config) valid() bool {
	return c.SampleRate > 0 &&
		c.WindowSize > 0 &&
		c.TickInterval > 0 &&
		c.MaxFreq > c.MinFreq &&
		c.SmoothingFrames >= 1
}
