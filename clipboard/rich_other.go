//go:build !darwin

package clipboard

import "errors"

var errRichUnsupported = errors.New("rich clipboard types are not supported on this platform")

func writeRich(class, text string) error {
	return errRichUnsupported
}
