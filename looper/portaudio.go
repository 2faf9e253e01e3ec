package looper

import (
	"errors"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const defaultFramesPerBuffer = 1024

// PortAudioOutput implements OutputDevice over the default PortAudio
// output stream. Now and the render timestamps come from the stream's own
// clock, which tracks the DAC rather than the process scheduler.
type PortAudioOutput struct {
	mu              sync.Mutex
	stream          *portaudio.Stream
	render          RenderFunc
	scratch         []float64
	framesPerBuffer int
	opened          bool
}

// NewPortAudioOutput creates an unopened output device
func NewPortAudioOutput() *PortAudioOutput {
	return &PortAudioOutput{
		framesPerBuffer: defaultFramesPerBuffer,
	}
}

// Open initializes PortAudio and opens a mono output stream
func (o *PortAudioOutput) Open(sampleRate int, render RenderFunc) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.opened {
		return errors.New("output stream already open")
	}
	if render == nil {
		return errors.New("nil render callback")
	}

	if err := portaudio.Initialize(); err != nil {
		return err
	}

	stream, err := portaudio.OpenDefaultStream(
		0, // input channels
		1, // output channels
		float64(sampleRate),
		o.framesPerBuffer,
		o.processAudio,
	)
	if err != nil {
		portaudio.Terminate()
		return err
	}

	o.stream = stream
	o.render = render
	o.scratch = make([]float64, o.framesPerBuffer)
	o.opened = true

	return nil
}

// Start begins playback
func (o *PortAudioOutput) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.opened {
		return errors.New("output stream not open")
	}
	return o.stream.Start()
}

// Stop halts playback, leaving the stream open for Start to resume
func (o *PortAudioOutput) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.opened {
		return nil
	}
	return o.stream.Stop()
}

// Close releases the stream and terminates PortAudio. Idempotent.
func (o *PortAudioOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.opened {
		return nil
	}

	err := o.stream.Close()
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}

	o.stream = nil
	o.render = nil
	o.opened = false

	return err
}

// Now returns the stream clock in seconds
func (o *PortAudioOutput) Now() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.opened {
		return 0
	}
	return o.stream.Time().Seconds()
}

// processAudio is the stream callback. OutputBufferDacTime is the stream
// clock time at which out[0] reaches the DAC.
func (o *PortAudioOutput) processAudio(out []float32, timeInfo portaudio.StreamCallbackTimeInfo) {
	if len(o.scratch) < len(out) {
		o.scratch = make([]float64, len(out))
	}
	scratch := o.scratch[:len(out)]

	o.render(scratch, timeInfo.OutputBufferDacTime.Seconds())

	for i, v := range scratch {
		out[i] = float32(v)
	}
}
