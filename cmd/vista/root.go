package main

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "vista",
	Short: "Screen capture to text, via cloud or on-device OCR",
	Long: `Vista extracts text from screen captures and puts it on the
clipboard. It runs as a resident agent with a tray icon and a global
hotkey; one-shot invocations either delegate to the resident instance
or run standalone.

Backends:
  - Gemini vision models (structured extraction with format control)
  - local OCR engine (no network, plain text only)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAgent(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.vista/config.yaml)",
	)

	rootCmd.AddCommand(ocrCmd)
	rootCmd.AddCommand(runOnceCmd)
	rootCmd.AddCommand(configCmd)
}
