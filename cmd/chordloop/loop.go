package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fretwise/chordloop/algorithms/temporal"
	"github.com/fretwise/chordloop/logging"
	"github.com/fretwise/chordloop/looper"
	"github.com/fretwise/chordloop/transcode"
)

var (
	loopStartMs float64
	loopEndMs   float64
	loopNoTrim  bool
)

func init() {
	loopCmd.Flags().Float64Var(&loopStartMs, "start", 0, "loop window start in milliseconds")
	loopCmd.Flags().Float64Var(&loopEndMs, "end", 0, "loop window end in milliseconds (0 = end of file)")
	loopCmd.Flags().BoolVar(&loopNoTrim, "no-trim", false, "keep leading and trailing silence")
	rootCmd.AddCommand(loopCmd)
}

var loopCmd = &cobra.Command{
	Use:   "loop <file>",
	Short: "Play an audio file on repeat without loop-point drift",
	Long: `Decodes the file (any format ffmpeg understands), trims the
silent lead-in and tail, and plays the chosen window on repeat. Each pass
is anchored to the audio device clock, so the thousandth repeat starts as
precisely as the first. Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return loop(args[0])
	},
}

func loop(filename string) error {
	decoder := transcode.NewDecoder(nil)
	decoded, err := decoder.DecodeFile(filename)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", filename, err)
	}

	samples := decoded.PCM
	if !loopNoTrim {
		trimmer := temporal.NewSilenceTrimmer(decoded.SampleRate, 1e-3, 20)
		result := trimmer.Trim(samples, decoded.SampleRate)
		if len(result.Samples) > 0 {
			samples = result.Samples
			logging.Debug("silence trimmed", logging.Fields{
				"lead_ms": result.LeadTrimmedMs,
				"tail_ms": result.TailTrimmedMs,
			})
		}
	}

	buffer, err := looper.NewLoopBuffer(samples, decoded.SampleRate)
	if err != nil {
		return err
	}

	end := loopEndMs
	if end <= 0 {
		end = buffer.DurationMs()
	}

	scheduler := looper.NewScheduler(looper.NewPortAudioOutput())
	if err := scheduler.Play(buffer, loopStartMs, end); err != nil {
		return err
	}
	defer scheduler.Stop()

	window := scheduler.Window()
	fmt.Printf("Looping %s [%.0fms - %.0fms]. Ctrl+C to stop.\n",
		filename, window.StartMs, window.EndMs)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	return nil
}
