package looper

import (
	"errors"
)

// Playback errors
var (
	// ErrPlaybackUnavailable means the output device could not be created
	// or the buffer could not be scheduled; Play becomes a no-op.
	ErrPlaybackUnavailable = errors.New("audio output unavailable")

	// ErrInvalidWindow means the loop window is empty, inverted, or
	// outside the buffer
	ErrInvalidWindow = errors.New("invalid loop window")

	// ErrEmptyBuffer means the loop buffer holds no samples
	ErrEmptyBuffer = errors.New("empty loop buffer")

	// ErrNotPaused means Resume was called without a preceding Pause
	ErrNotPaused = errors.New("scheduler is not paused")
)

// LoopBuffer is an immutable decoded mono PCM buffer: the trimmed
// recording that the scheduler repeats. It is never mutated once built.
type LoopBuffer struct {
	samples    []float64
	sampleRate int
}

// NewLoopBuffer copies the given samples into an immutable buffer
func NewLoopBuffer(samples []float64, sampleRate int) (*LoopBuffer, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyBuffer
	}
	if sampleRate <= 0 {
		return nil, errors.New("invalid sample rate")
	}

	owned := make([]float64, len(samples))
	copy(owned, samples)

	return &LoopBuffer{
		samples:    owned,
		sampleRate: sampleRate,
	}, nil
}

// Len returns the number of samples
func (b *LoopBuffer) Len() int {
	return len(b.samples)
}

// SampleRate returns the buffer's sample rate
func (b *LoopBuffer) SampleRate() int {
	return b.sampleRate
}

// DurationMs returns the buffer duration in milliseconds
func (b *LoopBuffer) DurationMs() float64 {
	return float64(len(b.samples)) * 1000.0 / float64(b.sampleRate)
}

// LoopWindow is the region of the buffer that repeats
type LoopWindow struct {
	StartMs float64 `json:"start_ms"`
	EndMs   float64 `json:"end_ms"`
}

// DurationMs returns the window length in milliseconds
func (w LoopWindow) DurationMs() float64 {
	return w.EndMs - w.StartMs
}
