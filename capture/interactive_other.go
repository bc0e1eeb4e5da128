//go:build !darwin

package capture

import "context"

// Interactive falls back to a full-display grab on platforms without an
// interactive selection utility.
type Interactive struct{}

func NewInteractive() *Interactive { return &Interactive{} }

func (i *Interactive) Capture(ctx context.Context) ([]byte, error) {
	return Screen{}.Capture(ctx)
}
