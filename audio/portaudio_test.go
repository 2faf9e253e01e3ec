package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Exercises the ring and recording bookkeeping directly; the device
// callback path is identical whether PortAudio or a test feeds it.

func TestRingKeepsOnlyRecentSamples(t *testing.T) {
	c := NewPortAudioCapturer(44100, 256, 1024)
	c.capturing = true

	in := make([]float32, 1500)
	for i := range in {
		in[i] = float32(i)
	}
	c.onInput(in)

	assert := assert.New(t)

	frame, err := c.ReadFrame(512)
	assert.NoError(err)
	assert.Len(frame, 512)
	assert.Equal(1499.0, frame[511])
	assert.Equal(988.0, frame[0]) // ring holds samples 476..1499

	_, err = c.ReadFrame(2048)
	assert.ErrorIs(err, ErrShortBuffer)
}

func TestRecordingKeepsEverything(t *testing.T) {
	c := NewPortAudioCapturer(44100, 256, 64)
	c.capturing = true

	c.onInput(make([]float32, 100))
	c.onInput(make([]float32, 100))

	assert := assert.New(t)
	assert.Len(c.Recording(), 200)

	// Ring stays bounded even as the recording grows
	_, err := c.ReadFrame(65)
	assert.ErrorIs(err, ErrShortBuffer)
}

func TestStopClearsFlagBeforeStreamTeardown(t *testing.T) {
	c := NewPortAudioCapturer(44100, 256, 1024)
	c.capturing = true
	c.onInput(make([]float32, 100))

	// With no stream handle, Stop exercises exactly the ordering that
	// matters against a live device: the capture flag and the handle are
	// cleared under the lock, the stream is torn down after it is
	// released. A device callback racing the teardown is dropped.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			c.onInput(make([]float32, 64))
		}
		close(done)
	}()

	c.Stop()
	<-done

	assert := assert.New(t)
	assert.False(c.IsCapturing())
	assert.Nil(c.stream)

	before := len(c.Recording())
	c.onInput(make([]float32, 100))
	assert.Equal(before, len(c.Recording()), "callbacks after Stop are dropped")

	assert.NoError(c.Stop(), "second Stop is a no-op")
}

func TestReadFrameRequiresCapture(t *testing.T) {
	c := NewPortAudioCapturer(44100, 256, 1024)

	_, err := c.ReadFrame(512)
	assert.ErrorIs(t, err, ErrNotCapturing)

	// Late device callbacks after stop are dropped
	c.onInput(make([]float32, 100))
	assert.Empty(t, c.Recording())
}
