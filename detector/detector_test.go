package detector

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fretwise/chordloop/algorithms/chroma"
	"github.com/fretwise/chordloop/algorithms/harmonic"
	"github.com/fretwise/chordloop/audio"
)

// scriptedCapturer feeds pre-built frames instead of a microphone
type scriptedCapturer struct {
	mu        sync.Mutex
	frames    [][]float64
	idx       int
	capturing bool
	startErr  error
	recorded  []float64
}

func (c *scriptedCapturer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startErr != nil {
		return c.startErr
	}
	c.capturing = true
	return nil
}

func (c *scriptedCapturer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capturing = false
	return nil
}

func (c *scriptedCapturer) ReadFrame(n int) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.capturing {
		return nil, audio.ErrNotCapturing
	}
	if c.idx >= len(c.frames) {
		return nil, audio.ErrShortBuffer
	}
	frame := c.frames[c.idx]
	c.idx++
	return frame, nil
}

func (c *scriptedCapturer) Recording() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recorded
}

func (c *scriptedCapturer) SampleRate() int { return 44100 }

func (c *scriptedCapturer) IsCapturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capturing
}

// scriptedProfiler returns pre-built profiles, repeating the last one
// once the script runs out
type scriptedProfiler struct {
	profiles []chroma.PitchClassProfile
	idx      int
}

func (p *scriptedProfiler) Name() string { return "scripted" }

func (p *scriptedProfiler) Compute(peaks []harmonic.SpectralPeak) chroma.PitchClassProfile {
	if p.idx >= len(p.profiles) {
		return p.profiles[len(p.profiles)-1]
	}
	profile := p.profiles[p.idx]
	p.idx++
	return profile
}

func profileOf(bins map[int]float64) chroma.PitchClassProfile {
	energies := make([]float64, chroma.NumPitchClasses)
	for class, v := range bins {
		energies[class] = v
	}
	return chroma.NewPitchClassProfile(energies)
}

var (
	profileA      = map[int]float64{9: 1.0, 1: 0.85, 4: 0.9}
	profileD      = map[int]float64{2: 1.0, 6: 0.85, 9: 0.9}
	profileEm     = map[int]float64{4: 1.0, 7: 0.85, 11: 0.9}
	profileA7     = map[int]float64{9: 1.0, 1: 0.85, 4: 0.9, 7: 0.5}
	profileA7Weak = map[int]float64{9: 1.0, 1: 0.85, 4: 0.9, 7: 0.35}
)

func loudFrame(n int) []float64 {
	frame := make([]float64, n)
	for i := range frame {
		frame[i] = 0.1
	}
	return frame
}

func testConfig() *Config {
	config := DefaultConfig()
	config.WindowSize = 1024
	config.TickInterval = time.Hour // ticks are driven manually
	config.SmoothingFrames = 1
	return config
}

// newScriptedDetector builds a started detector whose ticks consume the
// given profiles, one loud frame per profile (nil profile means a silent
// frame). Events land in the returned slice.
func newScriptedDetector(t *testing.T, config *Config, script []map[int]float64) (*Detector, *[]ChordDetectionEvent) {
	var frames [][]float64
	var profiles []chroma.PitchClassProfile
	for _, bins := range script {
		if bins == nil {
			frames = append(frames, make([]float64, config.WindowSize))
		} else {
			frames = append(frames, loudFrame(config.WindowSize))
			profiles = append(profiles, profileOf(bins))
		}
	}

	capturer := &scriptedCapturer{frames: frames}
	d := NewWithConfig(capturer, config)
	require.True(t, d.IsReady())
	d.profiler = &scriptedProfiler{profiles: profiles}

	events := &[]ChordDetectionEvent{}
	require.NoError(t, d.Start(func(event ChordDetectionEvent) {
		*events = append(*events, event)
	}))
	t.Cleanup(d.Stop)

	return d, events
}

func symbols(events []ChordDetectionEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Chord
	}
	return out
}

func TestFirstChordShowsAfterOneHit(t *testing.T) {
	d, events := newScriptedDetector(t, testConfig(), []map[int]float64{profileA})

	d.tick()
	assert.Equal(t, []string{"A"}, symbols(*events))
}

func TestDebounceRequiresSecondHitForChange(t *testing.T) {
	d, events := newScriptedDetector(t, testConfig(), []map[int]float64{
		profileA, profileA, profileD, profileD,
	})

	assert := assert.New(t)

	d.tick() // A displayed immediately
	d.tick() // repeated A: no new event
	assert.Equal([]string{"A"}, symbols(*events))

	d.tick() // first D: candidate only
	assert.Equal([]string{"A"}, symbols(*events))

	d.tick() // second consecutive D confirms
	assert.Equal([]string{"A", "D"}, symbols(*events))
}

func TestInterruptedCandidateStartsOver(t *testing.T) {
	d, events := newScriptedDetector(t, testConfig(), []map[int]float64{
		profileA, profileD, profileEm, profileEm,
	})

	d.tick() // A
	d.tick() // D candidate
	d.tick() // Em interrupts: candidate restarts at 1 hit
	assert.Equal(t, []string{"A"}, symbols(*events))

	d.tick() // second Em confirms
	assert.Equal(t, []string{"A", "Em"}, symbols(*events))
}

func TestSilenceResetsDebounce(t *testing.T) {
	d, events := newScriptedDetector(t, testConfig(), []map[int]float64{
		profileA, nil, profileEm,
	})

	d.tick() // A
	d.tick() // silence: full reset
	d.tick() // Em shows after a single hit, as if fresh
	assert.Equal(t, []string{"A", "Em"}, symbols(*events))
}

func TestSeventhHeldThroughDecay(t *testing.T) {
	config := testConfig()
	config.MatchTimeout = 0 // re-match every tick

	d, events := newScriptedDetector(t, config, []map[int]float64{
		profileA7, profileA7Weak, profileA7Weak,
	})

	d.tick()
	assert.Equal(t, []string{"A7"}, symbols(*events))

	// The seventh decays below the declare threshold but stays above the
	// sustain threshold: the display must not flicker to "A"
	d.tick()
	d.tick()
	assert.Equal(t, []string{"A7"}, symbols(*events))
}

func TestSmoothingDelaysFirstMatch(t *testing.T) {
	config := testConfig()
	config.SmoothingFrames = 3

	d, events := newScriptedDetector(t, config, []map[int]float64{
		profileA, profileA, profileA,
	})

	d.tick()
	d.tick()
	assert.Empty(t, *events, "no events until the smoothing window fills")

	d.tick()
	assert.Equal(t, []string{"A"}, symbols(*events))
}

func TestEventCarriesTimestampAndConfidence(t *testing.T) {
	d, events := newScriptedDetector(t, testConfig(), []map[int]float64{profileA})

	at := time.Date(2026, 3, 14, 15, 9, 26, 500e6, time.UTC)
	d.now = func() time.Time { return at }

	d.tick()

	require.Len(t, *events, 1)
	event := (*events)[0]

	assert := assert.New(t)
	assert.Equal(at.UnixMilli(), event.Timestamp)
	assert.Greater(event.Confidence, 0.0)
	assert.LessOrEqual(event.Confidence, 1.0)
	assert.Equal("A", event.RawChord)
}

// sineMixFrame sums equal-amplitude sines, one per frequency
func sineMixFrame(n, sampleRate int, freqs []float64) []float64 {
	frame := make([]float64, n)
	for i := range frame {
		for _, f := range freqs {
			frame[i] += 0.2 * math.Sin(2.0*math.Pi*f*float64(i)/float64(sampleRate))
		}
	}
	return frame
}

func TestFullPipelineNamesDominantSeventh(t *testing.T) {
	// A2, C#4, E4, G4: the tones of A7, fed through the real window, FFT,
	// peak picking, pitch-class fold, and matcher rather than a scripted
	// profile
	config := DefaultConfig()
	config.TickInterval = time.Hour
	config.SmoothingFrames = 3

	frame := sineMixFrame(config.WindowSize, config.SampleRate, []float64{110.0, 277.18, 329.63, 392.0})
	frames := [][]float64{frame, frame, frame, frame}

	capturer := &scriptedCapturer{frames: frames}
	d := NewWithConfig(capturer, config)
	require.True(t, d.IsReady())

	clock := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	d.now = func() time.Time { return clock }

	events := []ChordDetectionEvent{}
	require.NoError(t, d.Start(func(event ChordDetectionEvent) {
		events = append(events, event)
	}))
	t.Cleanup(d.Stop)

	d.tick()
	clock = clock.Add(250 * time.Millisecond)
	d.tick()
	assert.Empty(t, events, "no events until the smoothing window fills")

	clock = clock.Add(250 * time.Millisecond)
	d.tick()
	require.Len(t, events, 1)

	assert := assert.New(t)
	assert.Equal("A7", events[0].Chord)
	assert.Equal(clock.UnixMilli(), events[0].Timestamp)
	assert.Greater(events[0].Confidence, 0.0)

	// The sustained chord must not re-fire
	clock = clock.Add(250 * time.Millisecond)
	d.tick()
	assert.Len(events, 1)
}

func TestChangeEventTimestampIsConfirmingTick(t *testing.T) {
	d, events := newScriptedDetector(t, testConfig(), []map[int]float64{
		profileA, profileD, profileD,
	})

	base := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	calls := 0
	d.now = func() time.Time {
		at := base.Add(time.Duration(calls) * time.Second)
		calls++
		return at
	}

	d.tick() // A displayed
	d.tick() // first D: candidate only
	d.tick() // second D confirms the change

	require.Len(t, *events, 2)
	assert := assert.New(t)
	assert.Equal("D", (*events)[1].Chord)
	assert.Equal(base.UnixMilli(), (*events)[0].Timestamp)
	assert.Equal(base.Add(2*time.Second).UnixMilli(), (*events)[1].Timestamp,
		"timestamp must be the tick that confirmed the change, not the one that proposed it")
}

func TestStartStopLifecycle(t *testing.T) {
	capturer := &scriptedCapturer{}
	d := New(capturer)

	assert := assert.New(t)
	require.NoError(t, d.Start(func(ChordDetectionEvent) {}))
	assert.True(d.IsRecording())
	assert.True(capturer.IsCapturing())

	assert.ErrorIs(d.Start(func(ChordDetectionEvent) {}), ErrAlreadyRecording)

	d.Stop()
	assert.False(d.IsRecording())
	assert.False(capturer.IsCapturing())

	d.Stop() // idempotent

	require.NoError(t, d.Start(func(ChordDetectionEvent) {}))
	d.Stop()
}

func TestStartFailsWithoutMicrophone(t *testing.T) {
	capturer := &scriptedCapturer{startErr: errors.New("device busy")}
	d := New(capturer)

	err := d.Start(func(ChordDetectionEvent) {})

	assert := assert.New(t)
	assert.ErrorIs(err, ErrPermission)
	assert.False(d.IsRecording())
}

func TestUnreadyDetector(t *testing.T) {
	assert := assert.New(t)

	d := New(nil)
	assert.False(d.IsReady())
	assert.ErrorIs(d.Start(func(ChordDetectionEvent) {}), ErrInitialization)

	bad := DefaultConfig()
	bad.WindowSize = 0
	d = NewWithConfig(&scriptedCapturer{}, bad)
	assert.False(d.IsReady())
}

func TestStopFromCallback(t *testing.T) {
	d, events := newScriptedDetector(t, testConfig(), []map[int]float64{
		profileA, profileD, profileD,
	})

	// Wrap the callback so the first event stops the detector from inside
	// its own delivery
	d.mu.Lock()
	original := d.callback
	d.callback = func(event ChordDetectionEvent) {
		original(event)
		d.Stop()
	}
	d.mu.Unlock()

	d.tick() // emits A, callback stops the detector

	assert := assert.New(t)
	assert.Equal([]string{"A"}, symbols(*events))
	assert.False(d.IsRecording())

	// Further ticks are inert
	d.tick()
	d.tick()
	assert.Equal([]string{"A"}, symbols(*events))
}

func TestRecordingPassesThrough(t *testing.T) {
	capturer := &scriptedCapturer{recorded: []float64{0.1, 0.2, 0.3}}
	d := New(capturer)

	assert.Equal(t, []float64{0.1, 0.2, 0.3}, d.Recording())
}
