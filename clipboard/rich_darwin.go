//go:build darwin

package clipboard

import (
	"encoding/hex"
	"fmt"
	"os/exec"
)

// writeRich commits a pasteboard record holding both the plain string
// and the rich-typed data in a single write, so plain-only paste
// targets still get usable text. Content goes through hex-encoded
// AppleScript data literals to avoid quoting issues.
func writeRich(class, text string) error {
	encoded := hex.EncodeToString([]byte(text))
	script := fmt.Sprintf(
		"set the clipboard to {«class utf8»:«data utf8%s», «class %s»:«data %s%s»}",
		encoded, class, class, encoded,
	)

	out, err := exec.Command("osascript", "-e", script).CombinedOutput()
	if err != nil {
		if len(out) > 0 {
			return fmt.Errorf("osascript failed: %v: %s", err, out)
		}
		return fmt.Errorf("osascript failed: %v", err)
	}
	return nil
}
