package main

import (
	"github.com/spf13/cobra"

	"github.com/fretwise/chordloop/logging"
)

var (
	debugLogging bool
	jsonLogging  bool
)

var rootCmd = &cobra.Command{
	Use:   "chordloop",
	Short: "Guitar practice companion: live chord detection and drift-free looping",
	Long: `chordloop listens to your guitar through the default microphone,
names the chords you play as you play them, and loops any recording or
audio file without the loop point drifting over time.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if jsonLogging {
			logging.SetGlobalLogger(logging.NewZapLogger(nil))
		}
		if debugLogging {
			logging.SetLevel(logging.DebugLevel)
		} else {
			logging.SetLevel(logging.InfoLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogging, "json", false, "emit structured JSON logs")
}

func main() {
	cobra.CheckErr(rootCmd.Execute())
}
