package runonce

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"time"
)

// TryDelegate scans the configured port range for a resident and hands
// the capture to it. Returns delegated=false with a nil error when no
// resident responds; the caller then runs standalone.
func TryDelegate(ctx context.Context, outputToStdout bool) (delegated bool, text string, err error) {
	timeout := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			timeout = d
		}
	}

	start, end := portRange()
	for port := start; port <= end; port++ {
		addr := net.JoinHostPort(residentHost, strconv.Itoa(port))
		if !ping(addr, timeout) {
			continue
		}
		return delegate(addr, outputToStdout, timeout)
	}
	return false, "", nil
}

func ping(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(pingRequest); err != nil {
		return false
	}
	if err := w.Flush(); err != nil {
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && resp == pongResponse
}

func delegate(addr string, outputToStdout bool, timeout time.Duration) (bool, string, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false, "", nil
	}
	defer conn.Close()

	mode := modeClipboard
	if outputToStdout {
		mode = modeStdout
	}
	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(mode); err != nil {
		return true, "", err
	}
	if err := w.Flush(); err != nil {
		return true, "", err
	}

	// The resident replies only after the interactive capture finishes;
	// no read deadline here.
	br := bufio.NewReader(conn)
	reply, err := br.ReadString('\n')
	if err != nil {
		return true, "", err
	}
	body, _ := io.ReadAll(br)
	switch reply {
	case replySuccess:
		return true, string(body), nil
	case replyError:
		return true, "", errors.New(string(body))
	}
	return true, "", errors.New("malformed response from resident instance")
}
