// Package runonce lets a second invocation delegate its capture to the
// resident instance over loopback TCP, so the resident keeps sole
// ownership of the hotkey, tray and clipboard.
//
// Protocol, line-oriented: a client either sends "PING\n" and expects
// "PONG\n", or sends a mode line ("STDOUT\n" or "CLIPBOARD\n") and
// waits for "SUCCESS\n" followed by the recognized text, or "ERROR\n"
// followed by a message.
package runonce

import (
	"os"
	"strconv"
)

const (
	residentHost = "127.0.0.1"
	pingRequest  = "PING\n"
	pongResponse = "PONG\n"

	modeStdout    = "STDOUT\n"
	modeClipboard = "CLIPBOARD\n"

	replySuccess = "SUCCESS\n"
	replyError   = "ERROR\n"
)

const (
	defaultPortStart = 49500
	defaultPortEnd   = 49550
)

// portRange returns the loopback port range scanned for a resident.
// VISTA_PORT_START and VISTA_PORT_END override the defaults; values are
// clamped to [1024, 65535].
func portRange() (int, int) {
	start := defaultPortStart
	end := defaultPortEnd
	if v := os.Getenv("VISTA_PORT_START"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			start = n
		}
	}
	if v := os.Getenv("VISTA_PORT_END"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			end = n
		}
	}
	start = clampPort(start)
	end = clampPort(end)
	if end < start {
		start, end = end, start
	}
	return start, end
}

func clampPort(p int) int {
	if p < 1024 {
		return 1024
	}
	if p > 65535 {
		return 65535
	}
	return p
}

// Request is one delegated capture request.
type Request struct {
	// OutputToStdout asks for the text in the response body instead of
	// a clipboard write on the resident.
	OutputToStdout bool
}
