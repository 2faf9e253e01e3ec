package looper

import (
	"fmt"
	"math"
	"sync"

	"github.com/fretwise/chordloop/logging"
)

type schedulerState int

const (
	stateStopped schedulerState = iota
	statePlaying
	statePaused
)

// Scheduler plays a window of a LoopBuffer on repeat without accumulating
// timing drift. Each iteration is chained on the device clock: when the
// render cursor wraps, the next iteration's start time is anchored to the
// exact device time of the wrap sample, never to an application timer.
// Position is always derived from the device clock and that anchor, so
// iteration 1000 starts within the same tolerance of its ideal time as
// iteration 1.
type Scheduler struct {
	device OutputDevice
	logger logging.Logger

	mu    sync.Mutex
	state schedulerState

	buffer *LoopBuffer
	window LoopWindow

	// Active window in samples; cursor is the next sample to render
	startSample int
	endSample   int
	cursor      int

	// Window change staged by SetWindow, applied at the next wrap so the
	// running iteration finishes uncut
	pending *LoopWindow

	// Device-clock time, seconds, when the current iteration began
	segmentStart float64

	pausedOffsetMs float64
	opened         bool
}

// NewScheduler creates a loop scheduler over the given output device
func NewScheduler(device OutputDevice) *Scheduler {
	return &Scheduler{
		device: device,
		logger: logging.WithFields(logging.Fields{"component": "looper"}),
	}
}

// Play starts looping the [loopStartMs, loopEndMs) window of the buffer.
// If something is already playing it is stopped first. On device failure
// the scheduler stays stopped and the error wraps ErrPlaybackUnavailable.
func (s *Scheduler) Play(buffer *LoopBuffer, loopStartMs, loopEndMs float64) error {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	if buffer == nil || buffer.Len() == 0 {
		return ErrEmptyBuffer
	}

	start, end, window, err := s.windowSamples(buffer, LoopWindow{StartMs: loopStartMs, EndMs: loopEndMs})
	if err != nil {
		return err
	}

	if err := s.device.Open(buffer.sampleRate, s.render); err != nil {
		return fmt.Errorf("%w: %v", ErrPlaybackUnavailable, err)
	}
	s.opened = true

	s.buffer = buffer
	s.window = window
	s.startSample = start
	s.endSample = end
	s.cursor = start
	s.pending = nil
	s.pausedOffsetMs = 0

	if err := s.device.Start(); err != nil {
		s.device.Close()
		s.opened = false
		return fmt.Errorf("%w: %v", ErrPlaybackUnavailable, err)
	}

	s.segmentStart = s.device.Now()
	s.state = statePlaying

	s.logger.Info("loop playback started", logging.Fields{
		"start_ms": window.StartMs,
		"end_ms":   window.EndMs,
	})

	return nil
}

// Pause freezes playback, remembering the position within the loop.
// No-op unless playing.
func (s *Scheduler) Pause() {
	// Flip the state under the lock, then stop the device outside it.
	// Stopping a stream waits for the in-flight render callback, and
	// render needs this mutex.
	s.mu.Lock()
	if s.state != statePlaying {
		s.mu.Unlock()
		return
	}

	s.pausedOffsetMs = s.positionLocked()
	s.state = statePaused
	s.mu.Unlock()

	if err := s.device.Stop(); err != nil {
		s.logger.Warn("device stop reported an error", logging.Fields{"error": err.Error()})
	}
}

// Resume continues playback from the paused position
func (s *Scheduler) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != statePaused {
		return ErrNotPaused
	}

	offsetSamples := int(math.Round(s.pausedOffsetMs / 1000.0 * float64(s.buffer.sampleRate)))
	if offsetSamples >= s.endSample-s.startSample {
		offsetSamples = 0
	}
	s.cursor = s.startSample + offsetSamples
	s.state = statePlaying

	if err := s.device.Start(); err != nil {
		s.state = statePaused
		return fmt.Errorf("%w: %v", ErrPlaybackUnavailable, err)
	}

	// Re-anchor so Position picks up where it left off
	s.segmentStart = s.device.Now() - s.pausedOffsetMs/1000.0

	return nil
}

// Stop halts playback and releases the output stream. Idempotent and safe
// when nothing was ever played.
func (s *Scheduler) Stop() {
	// Same locking shape as Pause: the render callback takes s.mu, and
	// the device's Stop blocks until the in-flight callback returns, so
	// the stream must be torn down with the mutex released. Clearing the
	// state first makes any callback that still fires render silence.
	s.mu.Lock()
	if s.state == stateStopped && !s.opened {
		s.mu.Unlock()
		return
	}

	opened := s.opened
	s.opened = false
	s.state = stateStopped
	s.buffer = nil
	s.pending = nil
	s.pausedOffsetMs = 0
	s.mu.Unlock()

	if opened {
		if err := s.device.Stop(); err != nil {
			s.logger.Warn("device stop reported an error", logging.Fields{"error": err.Error()})
		}
		if err := s.device.Close(); err != nil {
			s.logger.Warn("device close reported an error", logging.Fields{"error": err.Error()})
		}
	}
}

// IsPlaying reports whether the loop is currently sounding
func (s *Scheduler) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == statePlaying
}

// Window returns the active loop window
func (s *Scheduler) Window() LoopWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window
}

// SetWindow stages a new loop window. While playing, the change takes
// effect at the next iteration boundary so the current pass finishes
// without an audible cut; otherwise it applies immediately.
func (s *Scheduler) SetWindow(startMs, endMs float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buffer == nil {
		return ErrEmptyBuffer
	}

	start, end, window, err := s.windowSamples(s.buffer, LoopWindow{StartMs: startMs, EndMs: endMs})
	if err != nil {
		return err
	}

	if s.state == statePlaying {
		w := window
		s.pending = &w
		return nil
	}

	s.window = window
	s.startSample = start
	s.endSample = end
	s.cursor = start
	s.pausedOffsetMs = 0

	return nil
}

// Position returns the playback position within the current loop
// iteration, in milliseconds. Paused playback reports the frozen
// position; stopped playback reports 0.
func (s *Scheduler) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case statePaused:
		return s.pausedOffsetMs
	case statePlaying:
		return s.positionLocked()
	default:
		return 0
	}
}

// positionLocked derives position from the device clock and the current
// iteration anchor. A result just below the loop duration means the wrap
// sample has been scheduled but not yet played. Caller holds mu.
func (s *Scheduler) positionLocked() float64 {
	durMs := s.window.DurationMs()
	if durMs <= 0 {
		return 0
	}

	elapsed := (s.device.Now() - s.segmentStart) * 1000.0
	pos := math.Mod(elapsed, durMs)
	if pos < 0 {
		pos += durMs
	}

	return pos
}

// render is the device pull callback. at is the device-clock time out[0]
// will play, so a wrap at block offset i anchors the new iteration at
// exactly at + i/rate.
func (s *Scheduler) render(out []float64, at float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != statePlaying || s.buffer == nil {
		for i := range out {
			out[i] = 0
		}
		return
	}

	rate := float64(s.buffer.sampleRate)
	for i := range out {
		if s.cursor >= s.endSample {
			s.applyPendingLocked()
			s.cursor = s.startSample
			s.segmentStart = at + float64(i)/rate
		}
		out[i] = s.buffer.samples[s.cursor]
		s.cursor++
	}
}

// applyPendingLocked installs a staged window change. Caller holds mu;
// only called at an iteration boundary.
func (s *Scheduler) applyPendingLocked() {
	if s.pending == nil {
		return
	}

	start, end, window, err := s.windowSamples(s.buffer, *s.pending)
	if err == nil {
		s.window = window
		s.startSample = start
		s.endSample = end
	}
	s.pending = nil
}

// windowSamples validates a window against the buffer and converts it to
// sample offsets. A window end past the buffer is clamped, in both the
// sample offsets and the returned window, so Position's modulo duration
// always matches what actually plays.
func (s *Scheduler) windowSamples(buffer *LoopBuffer, window LoopWindow) (int, int, LoopWindow, error) {
	if window.StartMs < 0 || window.EndMs <= window.StartMs {
		return 0, 0, window, ErrInvalidWindow
	}

	rate := float64(buffer.sampleRate)
	start := int(window.StartMs / 1000.0 * rate)
	end := int(window.EndMs / 1000.0 * rate)
	if end > buffer.Len() {
		end = buffer.Len()
		window.EndMs = buffer.DurationMs()
	}
	if start >= end {
		return 0, 0, window, ErrInvalidWindow
	}

	return start, end, window, nil
}
