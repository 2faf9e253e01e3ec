package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fretwise/chordloop/audio"
	"github.com/fretwise/chordloop/detector"
	"github.com/fretwise/chordloop/logging"
	"github.com/fretwise/chordloop/transcode"
)

var (
	listenSampleRate int
	listenWindowSize int
	listenTickMs     int
	listenSaveFile   string
)

func init() {
	listenCmd.Flags().IntVar(&listenSampleRate, "rate", 44100, "capture sample rate in Hz")
	listenCmd.Flags().IntVar(&listenWindowSize, "window", 8192, "analysis window size in samples (power of two)")
	listenCmd.Flags().IntVar(&listenTickMs, "tick", 250, "analysis interval in milliseconds")
	listenCmd.Flags().StringVar(&listenSaveFile, "save", "", "write the captured session to this file on exit")
	rootCmd.AddCommand(listenCmd)
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Detect chords from the microphone in real time",
	Long: `Opens the default microphone and prints each chord as it is
recognized. Press Ctrl+C to stop. With --save, the whole take is written
out so it can be looped later with "chordloop loop".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listen()
	},
}

func listen() error {
	config := detector.DefaultConfig()
	config.SampleRate = listenSampleRate
	config.WindowSize = listenWindowSize
	config.TickInterval = time.Duration(listenTickMs) * time.Millisecond

	capturer := audio.NewPortAudioCapturer(config.SampleRate, 1024, config.WindowSize*2)

	d := detector.NewWithConfig(capturer, config)
	if !d.IsReady() {
		return detector.ErrInitialization
	}

	err := d.Start(func(event detector.ChordDetectionEvent) {
		at := time.UnixMilli(event.Timestamp).Format("15:04:05.000")
		fmt.Printf("%s  %-6s (confidence %.2f)\n", at, event.Chord, event.Confidence)
	})
	if err != nil {
		return err
	}

	fmt.Println("Listening... play something. Ctrl+C to stop.")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	recording := d.Recording()
	d.Stop()

	if listenSaveFile != "" && len(recording) > 0 {
		encoder := transcode.NewEncoder(nil)
		if err := encoder.EncodeFile(listenSaveFile, recording, config.SampleRate); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		logging.Info("session saved", logging.Fields{
			"file":        listenSaveFile,
			"duration_s":  float64(len(recording)) / float64(config.SampleRate),
			"sample_rate": config.SampleRate,
		})
	}

	return nil
}
