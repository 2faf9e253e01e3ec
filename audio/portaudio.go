package audio

import (
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/fretwise/chordloop/logging"
)

// PortAudioCapturer captures microphone audio through PortAudio. The
// device callback appends into a bounded ring of recent samples (for
// per-tick analysis frames) and into the full session recording (for the
// loop pipeline). Echo cancellation and AGC are host-OS concerns;
// PortAudio delivers the raw signal the pitch analysis needs.
type PortAudioCapturer struct {
	sampleRate      int
	framesPerBuffer int
	ringCapacity    int

	mu        sync.Mutex
	capturing bool
	stream    *portaudio.Stream
	ring      []float64
	recording []float64

	logger logging.Logger
}

// NewPortAudioCapturer creates a capturer. ringCapacity bounds how much
// recent audio is kept for analysis frames; it must cover the largest
// analysis window in use.
func NewPortAudioCapturer(sampleRate, framesPerBuffer, ringCapacity int) *PortAudioCapturer {
	return &PortAudioCapturer{
		sampleRate:      sampleRate,
		framesPerBuffer: framesPerBuffer,
		ringCapacity:    ringCapacity,
		logger:          logging.WithFields(logging.Fields{"component": "capture"}),
	}
}

// Start initializes PortAudio and opens the default mono input stream
func (c *PortAudioCapturer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capturing {
		return ErrAlreadyCapturing
	}

	if err := portaudio.Initialize(); err != nil {
		return err
	}

	stream, err := portaudio.OpenDefaultStream(
		1, // mono input
		0, // no output
		float64(c.sampleRate),
		c.framesPerBuffer,
		c.onInput,
	)
	if err != nil {
		portaudio.Terminate()
		return err
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return err
	}

	c.stream = stream
	c.ring = c.ring[:0]
	c.recording = c.recording[:0]
	c.capturing = true

	c.logger.Debug("microphone capture started", logging.Fields{
		"sample_rate":       c.sampleRate,
		"frames_per_buffer": c.framesPerBuffer,
	})

	return nil
}

// Stop tears the input stream down fully so a later Start opens a fresh
// device. Safe to call when not capturing.
func (c *PortAudioCapturer) Stop() error {
	// Clear the flag and take the stream handle under the lock, then tear
	// down outside it. Pa_StopStream waits for the in-flight callback, and
	// onInput needs this mutex, so holding it here would deadlock.
	c.mu.Lock()
	if !c.capturing {
		c.mu.Unlock()
		return nil
	}
	c.capturing = false
	stream := c.stream
	c.stream = nil
	c.mu.Unlock()

	var firstErr error
	if stream != nil {
		if err := stream.Stop(); err != nil {
			firstErr = err
		}
		if err := stream.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := portaudio.Terminate(); err != nil && firstErr == nil {
		firstErr = err
	}

	if firstErr != nil {
		c.logger.Warn("capture teardown reported an error", logging.Fields{"error": firstErr.Error()})
	} else {
		c.logger.Debug("microphone capture stopped")
	}

	return firstErr
}

// onInput runs on the PortAudio callback goroutine
func (c *PortAudioCapturer) onInput(in []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.capturing {
		return
	}

	for _, s := range in {
		c.ring = append(c.ring, float64(s))
		c.recording = append(c.recording, float64(s))
	}

	if overflow := len(c.ring) - c.ringCapacity; overflow > 0 {
		c.ring = c.ring[overflow:]
	}
}

// ReadFrame copies the most recent n captured samples
func (c *PortAudioCapturer) ReadFrame(n int) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.capturing {
		return nil, ErrNotCapturing
	}
	if len(c.ring) < n {
		return nil, ErrShortBuffer
	}

	frame := make([]float64, n)
	copy(frame, c.ring[len(c.ring)-n:])
	return frame, nil
}

// Recording returns a copy of everything captured since Start
func (c *PortAudioCapturer) Recording() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]float64, len(c.recording))
	copy(out, c.recording)
	return out
}

// SampleRate returns the capture sample rate
func (c *PortAudioCapturer) SampleRate() int {
	return c.sampleRate
}

// IsCapturing reports whether the device is open and running
func (c *PortAudioCapturer) IsCapturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capturing
}
