package detector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fretwise/chordloop/algorithms/chroma"
	"github.com/fretwise/chordloop/algorithms/common"
	"github.com/fretwise/chordloop/algorithms/harmonic"
	"github.com/fretwise/chordloop/algorithms/spectral"
	"github.com/fretwise/chordloop/algorithms/windowing"
	"github.com/fretwise/chordloop/audio"
	"github.com/fretwise/chordloop/chord"
	"github.com/fretwise/chordloop/logging"
)

// ChordDetectionEvent is emitted whenever the displayed chord changes.
// Events are delivered synchronously, one at a time, in timestamp order.
type ChordDetectionEvent struct {
	Chord      string  `json:"chord"`               // Canonical symbol, e.g. "A7"
	Confidence float64 `json:"confidence"`          // (0, 1], from energy and match score
	Timestamp  int64   `json:"timestamp"`           // Epoch milliseconds of the confirming tick
	RawChord   string  `json:"raw_chord,omitempty"` // Pre-refinement label
}

// Callback receives detection events
type Callback func(ChordDetectionEvent)

// Detector turns a continuous microphone stream into a stabilized stream
// of chord-change events. One instance owns its entire analysis state, so
// independent instances never interfere.
type Detector struct {
	config *Config
	logger logging.Logger

	capturer audio.Capturer
	fft      *spectral.FFT
	window   *windowing.Hann
	peaks    *harmonic.SpectralPeaks
	profiler chroma.Profiler
	matcher  *chord.Matcher

	mu        sync.Mutex
	ready     bool
	recording bool
	cancel    context.CancelFunc
	done      chan struct{}
	callback  Callback

	// Analysis state, reset on Start/Stop and on silence
	profiles      *chroma.ProfileWindow
	lastMatched   *chroma.PitchClassProfile
	lastMatchTime time.Time
	displayed     *chord.Candidate
	candidate     *chord.Candidate
	hits          int

	// callbackDepth > 0 while the run goroutine is inside the callback;
	// lets Stop avoid deadlocking when called from within it
	callbackDepth int

	now func() time.Time
}

// New creates a detector over the given capture device with default
// configuration.
func New(capturer audio.Capturer) *Detector {
	return NewWithConfig(capturer, DefaultConfig())
}

// NewWithConfig creates a detector with custom configuration. An invalid
// configuration leaves the detector unready; Start will then fail with
// ErrInitialization.
func NewWithConfig(capturer audio.Capturer, config *Config) *Detector {
	d := &Detector{
		config:   config,
		capturer: capturer,
		logger:   logging.WithFields(logging.Fields{"component": "detector"}),
		now:      time.Now,
	}

	if capturer == nil || config == nil || !config.valid() {
		return d
	}

	d.fft = spectral.NewFFT()
	d.window = windowing.NewHann(config.WindowSize, true)
	d.peaks = harmonic.NewSpectralPeaks(
		config.SampleRate,
		config.MinFreq,
		config.MaxFreq,
		config.NoiseFloorRatio,
		config.MaxPeaks,
	)
	d.matcher = chord.NewMatcherWithParams(config.Matcher)

	switch config.Profiler {
	case "", "peak_fold":
		d.profiler = chroma.NewPeakFold()
	case "hpcp":
		d.profiler = chroma.NewHPCP()
	default:
		d.logger.Warn("unknown profiler, detector unready", logging.Fields{"profiler": config.Profiler})
		return d
	}

	d.profiles = chroma.NewProfileWindow(config.SmoothingFrames, config.SmoothingDecay)
	d.ready = true

	return d
}

// IsReady reports whether the analysis runtime initialized successfully
func (d *Detector) IsReady() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ready
}

// IsRecording reports whether a detection session is live
func (d *Detector) IsRecording() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.recording
}

// Start opens the microphone and begins periodic analysis, delivering an
// event to onChordDetected whenever the displayed chord changes. It is
// safe to call again after Stop.
func (d *Detector) Start(onChordDetected Callback) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.recording {
		return ErrAlreadyRecording
	}
	if !d.ready {
		return ErrInitialization
	}
	if onChordDetected == nil {
		return fmt.Errorf("%w: nil callback", ErrInitialization)
	}

	if err := d.capturer.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrPermission, err)
	}

	d.resetAnalysisState()
	d.callback = onChordDetected
	d.recording = true
	d.done = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	go d.run(ctx, d.done)

	d.logger.Info("detection session started", logging.Fields{
		"profiler":      d.profiler.Name(),
		"tick_interval": d.config.TickInterval.String(),
	})

	return nil
}

// Stop ends the session: the microphone is fully released, the analysis
// job cancelled, and all debounce/history state cleared. Idempotent, safe
// when never started, and safe to call from within the event callback; no
// new events are delivered after it returns.
func (d *Detector) Stop() {
	d.mu.Lock()

	if !d.recording {
		d.mu.Unlock()
		return
	}

	d.recording = false
	d.cancel()
	d.cancel = nil
	if err := d.capturer.Stop(); err != nil {
		d.logger.Warn("capture stop reported an error", logging.Fields{"error": err.Error()})
	}
	d.resetAnalysisState()
	d.callback = nil

	inCallback := d.callbackDepth > 0
	done := d.done
	d.mu.Unlock()

	// Wait for the analysis goroutine unless Stop came from inside the
	// callback, which runs on that same goroutine
	if !inCallback {
		<-done
	}

	d.logger.Info("detection session stopped")
}

// Recording returns the audio captured so far in the current session
func (d *Detector) Recording() []float64 {
	return d.capturer.Recording()
}

// resetAnalysisState clears smoothing and debounce state. Caller holds mu.
func (d *Detector) resetAnalysisState() {
	if d.profiles != nil {
		d.profiles.Reset()
	}
	d.lastMatched = nil
	d.lastMatchTime = time.Time{}
	d.displayed = nil
	d.candidate = nil
	d.hits = 0
}

// run drives the periodic analysis tick until cancelled
func (d *Detector) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(d.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			d.tick()
		}
	}
}

// tick runs one analysis pass. Any failure here is logged and the frame
// skipped; a bad frame must never end the session.
func (d *Detector) tick() {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("analysis tick failed, frame skipped", logging.Fields{"panic": fmt.Sprint(r)})
		}
	}()

	frame, err := d.capturer.ReadFrame(d.config.WindowSize)
	if err != nil {
		if !errors.Is(err, audio.ErrShortBuffer) {
			d.logger.Debug("frame read failed, tick skipped", logging.Fields{"error": err.Error()})
		}
		return
	}

	rms := common.RMS(frame)
	if rms < d.config.SilenceRMS {
		// Expected idle state, not an error. Full debounce reset so the
		// next chord after silence shows after a single hit.
		d.mu.Lock()
		d.resetAnalysisState()
		d.mu.Unlock()
		return
	}

	event, emit := d.analyze(frame, rms)
	if emit {
		d.emit(event)
	}
}

// analyze runs feature extraction, matching, and debouncing for one frame
func (d *Detector) analyze(samples []float64, rms float64) (ChordDetectionEvent, bool) {
	windowed := d.window.Apply(samples)
	if windowed == nil {
		return ChordDetectionEvent{}, false
	}
	magnitude := d.fft.MagnitudeSpectrum(windowed)
	peaks := d.peaks.DetectPeaks(magnitude, d.config.WindowSize)
	profile := d.profiler.Compute(peaks)

	if profile.IsZero() {
		// Degenerate profile: no candidate this tick, smoothing untouched
		return ChordDetectionEvent{}, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.recording {
		return ChordDetectionEvent{}, false
	}

	d.profiles.Add(profile)
	if !d.profiles.Full() {
		return ChordDetectionEvent{}, false
	}

	smoothed := d.profiles.Smoothed()
	now := d.now()

	// Skip the full catalog while the displayed chord keeps sounding
	// unchanged. Never skip while a candidate awaits confirmation: its
	// repeat frames are near-identical by definition.
	if d.displayed != nil && d.candidate == nil &&
		d.lastMatched != nil &&
		smoothed.Similarity(*d.lastMatched) >= d.config.SimilarityGate &&
		now.Sub(d.lastMatchTime) < d.config.MatchTimeout {
		return ChordDetectionEvent{}, false
	}

	cand, ok := d.matcher.Match(smoothed, d.displayed)
	d.lastMatched = &smoothed
	d.lastMatchTime = now
	if !ok {
		return ChordDetectionEvent{}, false
	}

	return d.debounce(cand, rms, now)
}

// debounce requires repeated consistent detections before accepting a
// chord change: 1 hit when nothing is displayed yet, 2 consecutive hits
// once something is. A match equal to the displayed chord clears any
// pending candidate without emitting. Caller holds mu.
func (d *Detector) debounce(cand chord.Candidate, rms float64, now time.Time) (ChordDetectionEvent, bool) {
	if d.displayed != nil && cand.Symbol == d.displayed.Symbol {
		d.candidate = nil
		d.hits = 0
		// Refresh quality state (extensions may have been re-confirmed)
		held := cand
		d.displayed = &held
		return ChordDetectionEvent{}, false
	}

	required := 2
	if d.displayed == nil {
		required = 1
	}

	if d.candidate != nil && d.candidate.Symbol == cand.Symbol {
		d.hits++
	} else {
		c := cand
		d.candidate = &c
		d.hits = 1
	}

	if d.hits < required {
		return ChordDetectionEvent{}, false
	}

	accepted := cand
	d.displayed = &accepted
	d.candidate = nil
	d.hits = 0

	return ChordDetectionEvent{
		Chord:      accepted.Symbol,
		Confidence: d.confidence(accepted.Score, rms),
		Timestamp:  now.UnixMilli(),
		RawChord:   accepted.Raw,
	}, true
}

// confidence derives event confidence from the match score scaled by how
// far the signal sits above the silence floor
func (d *Detector) confidence(score, rms float64) float64 {
	energyFactor := common.Clamp(rms/(10.0*d.config.SilenceRMS), 0.25, 1.0)
	return common.Clamp(score*energyFactor, 0.01, 1.0)
}

// emit invokes the callback outside the state lock so the callback may
// call Stop without deadlocking
func (d *Detector) emit(event ChordDetectionEvent) {
	d.mu.Lock()
	if !d.recording || d.callback == nil {
		d.mu.Unlock()
		return
	}
	cb := d.callback
	d.callbackDepth++
	d.mu.Unlock()

	cb(event)

	d.mu.Lock()
	d.callbackDepth--
	d.mu.Unlock()
}
