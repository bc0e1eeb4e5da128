//go:build darwin

package capture

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const screencaptureBin = "/usr/sbin/screencapture"

// Interactive drives the macOS screencapture utility in interactive
// mode: the user drags a selection, the utility writes a PNG to the
// target temp file. No file after a clean exit means the user pressed
// Escape.
type Interactive struct {
	// Bin overrides the screencapture binary path (tests).
	Bin string
}

// NewInteractive returns the interactive region capturer.
func NewInteractive() *Interactive {
	return &Interactive{Bin: screencaptureBin}
}

func (i *Interactive) Capture(ctx context.Context) ([]byte, error) {
	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("vista_capture_%d.png", time.Now().UnixNano()))
	defer os.Remove(tmp)

	cmd := exec.CommandContext(ctx, i.Bin, "-i", tmp)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, fmt.Errorf("screencapture failed: %w", err)
	}

	if _, err := os.Stat(tmp); err != nil {
		// Clean exit without a file: user dismissed the selection.
		log.Printf("capture: interactive selection dismissed")
		return nil, ErrCancelled
	}

	data, err := os.ReadFile(tmp)
	if err != nil {
		return nil, fmt.Errorf("failed to read captured image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("captured image is empty")
	}
	return data, nil
}
