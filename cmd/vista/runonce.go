package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"vista-ocr/backend"
	"vista-ocr/capture"
	"vista-ocr/clipboard"
	"vista-ocr/config"
	"vista-ocr/coordinator"
	"vista-ocr/gemini"
	"vista-ocr/localocr"
	"vista-ocr/logutil"
	"vista-ocr/runonce"
	"vista-ocr/status"
)

var runOnceStdout bool

var runOnceCmd = &cobra.Command{
	Use:   "run-once",
	Short: "Trigger a single capture, delegating to a resident instance when one is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd.Context(), runOnceStdout)
	},
}

func init() {
	runOnceCmd.Flags().BoolVar(&runOnceStdout, "stdout", false, "print the text instead of writing the clipboard")
}

func runOnce(ctx context.Context, toStdout bool) error {
	delegated, text, err := runonce.TryDelegate(ctx, toStdout)
	if err != nil {
		return err
	}
	if delegated {
		if toStdout {
			fmt.Print(text)
		}
		return nil
	}
	return runStandalone(ctx, toStdout)
}

// logSink is the status surface for headless one-shot runs: failures go
// to the log, nothing is displayed.
type logSink struct{}

func (logSink) Publish(s status.Status, cancel func()) {
	if s.Kind == status.KindFailed {
		log.Printf("vista: %s (%s: %s)", s.Label(), s.ErrKind, s.Detail)
	}
}

// runStandalone performs the capture in-process when no resident
// instance answers.
func runStandalone(ctx context.Context, toStdout bool) error {
	store, err := config.NewStore(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	snap := store.Snapshot()
	logutil.Setup(snap.EnableFileLogging)

	if !toStdout {
		if err := clipboard.Init(); err != nil {
			return fmt.Errorf("clipboard unavailable: %w", err)
		}
	}

	cloud := gemini.New(snap.APIKey)
	local := localocr.New()
	local.ApplySettings(snap.LocalSettings())
	selector := backend.NewSelector(cloud, local)
	if err := selector.SetBackend(snap.Backend); err != nil {
		return err
	}

	coord := coordinator.New(store, selector, capture.NewInteractive(), capture.AlwaysGranted(), logSink{}, clipboard.System{})
	defer coord.Close()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	coord.InitiateCaptureDelegated(func(text string, err error) {
		done <- result{text: text, err: err}
	}, toStdout)

	select {
	case r := <-done:
		if r.err != nil {
			return r.err
		}
		if toStdout {
			fmt.Print(r.text)
		}
		return nil
	case <-ctx.Done():
		coord.CancelProcessing()
		return ctx.Err()
	}
}
