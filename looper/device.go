package looper

// RenderFunc fills out with the next samples to play. at is the
// device-clock time, in seconds, at which out[0] will reach the output,
// letting the renderer anchor loop-iteration boundaries to the hardware
// clock rather than to when the callback happened to run.
type RenderFunc func(out []float64, at float64)

// OutputDevice is the playback capability the scheduler drives. The real
// implementation is PortAudioOutput; tests use a scripted device whose
// clock advances with the samples it pulls. The device clock is the audio
// subsystem's own hardware-synced time reference: application timers
// jitter by tens of milliseconds, which is audible as a loop hitch, while
// the device clock is sample-accurate.
type OutputDevice interface {
	// Open prepares an output stream at the given sample rate. The render
	// callback will be invoked from the device's own scheduling context.
	Open(sampleRate int, render RenderFunc) error

	// Start begins pulling audio through the render callback
	Start() error

	// Stop halts pulling without closing the stream
	Stop() error

	// Close releases the output stream
	Close() error

	// Now returns the device clock in seconds
	Now() float64
}
