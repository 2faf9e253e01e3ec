package transcode

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/fretwise/chordloop/logging"
)

// Encoder writes PCM data out through FFmpeg so a captured practice take
// can be saved and reopened later
type Encoder struct {
	config *DecoderConfig
}

// NewEncoder creates an encoder sharing the decoder's configuration
func NewEncoder(config *DecoderConfig) *Encoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Encoder{config: config}
}

// EncodeFile writes mono PCM samples to the given path. The container and
// codec follow the file extension (ffmpeg's default mapping), so "take.wav"
// and "take.flac" both work.
func (e *Encoder) EncodeFile(filename string, samples []float64, sampleRate int) error {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_encoder",
		"function":  "EncodeFile",
		"filename":  filename,
	})

	if len(samples) == 0 {
		return fmt.Errorf("no samples to encode")
	}
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	args := []string{
		"-f", "f64le", // Input raw float64 little-endian
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "1",
		"-i", "pipe:0",
		"-y", // Overwrite existing output
		"-v", "error",
		filename,
	}

	cmd := exec.Command(e.config.FFmpegPath, args...)
	if e.config.Timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), e.config.Timeout)
		defer cancel()
		cmd = exec.CommandContext(ctx, e.config.FFmpegPath, args...)
	}
	cmd.Stdin = bytes.NewReader(float64ToBytes(samples))

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			logger.Error(err, "Ffmpeg encode failed", logging.Fields{
				"stderr": string(exitError.Stderr),
			})
			return fmt.Errorf("ffmpeg encode failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return fmt.Errorf("ffmpeg encode failed: %w", err)
	}

	logger.Debug("Encode completed", logging.Fields{
		"samples":     len(samples),
		"sample_rate": sampleRate,
		"encode_time": time.Since(start).Seconds(),
	})

	return nil
}
