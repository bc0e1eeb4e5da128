// Package capture adapts the OS screen-capture collaborators: the
// interactive capture utility on macOS, and direct display grabs used
// by the one-shot CLI paths and non-darwin builds.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/kbinani/screenshot"
)

// ErrCancelled reports that the user dismissed the interactive capture
// without producing an image.
var ErrCancelled = errors.New("capture cancelled by user")

// Capturer produces image bytes for one capture invocation.
type Capturer interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Permission is the screen-recording permission boundary. The real
// check lives with the OS; denial is surfaced before any capture is
// attempted.
type Permission interface {
	Granted() bool
	Request()
}

type grantedPermission struct{}

func (grantedPermission) Granted() bool { return true }
func (grantedPermission) Request()      {}

// AlwaysGranted is the permission boundary for platforms and test
// setups without a preflight check.
func AlwaysGranted() Permission { return grantedPermission{} }

// Region is a screen rectangle to capture.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// CaptureRegion grabs a specific region of the screen as PNG bytes.
func CaptureRegion(region Region) ([]byte, error) {
	if region.Width <= 0 || region.Height <= 0 {
		return nil, fmt.Errorf("invalid region dimensions: width=%d, height=%d", region.Width, region.Height)
	}

	bounds := image.Rect(region.X, region.Y, region.X+region.Width, region.Y+region.Height)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to capture region: %v", err)
	}

	return encodePNG(img)
}

// CaptureScreen grabs the primary display as PNG bytes.
func CaptureScreen() ([]byte, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, fmt.Errorf("no active displays found")
	}
	img, err := screenshot.CaptureDisplay(0)
	if err != nil {
		return nil, fmt.Errorf("failed to capture display: %v", err)
	}
	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %v", err)
	}
	return buf.Bytes(), nil
}

// Screen is a Capturer that grabs the whole primary display, used where
// no interactive selection utility exists.
type Screen struct{}

func (Screen) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return CaptureScreen()
}
