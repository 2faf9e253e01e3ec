package audio

import (
	"errors"
)

// Capture errors
var (
	ErrNotCapturing     = errors.New("audio capture not started")
	ErrAlreadyCapturing = errors.New("audio capture already started")
	ErrShortBuffer      = errors.New("not enough captured audio yet")
)

// Capturer defines the microphone capability the detector consumes. The
// real implementation is PortAudioCapturer; tests substitute a scripted
// fake.
type Capturer interface {
	// Start opens the input device and begins capturing
	Start() error

	// Stop tears the input device down fully. Idempotent.
	Stop() error

	// ReadFrame copies the most recent n captured samples. Returns
	// ErrShortBuffer until n samples have accumulated.
	ReadFrame(n int) ([]float64, error)

	// Recording returns a copy of everything captured since Start
	Recording() []float64

	// SampleRate returns the capture sample rate
	SampleRate() int

	// IsCapturing reports whether the device is open and running
	IsCapturing() bool
}
