package runonce

import (
	"bufio"
	"context"
	"log"
	"net"
	"strconv"
	"sync"
	"time"
)

// Conn is one accepted delegation request awaiting a response.
type Conn struct {
	c net.Conn
	r Request
	w *bufio.Writer
}

// Request returns the parsed client request.
func (c *Conn) Request() Request { return c.r }

// RespondSuccess reports success. In stdout mode the recognized text
// travels in the body; in clipboard mode text is empty.
func (c *Conn) RespondSuccess(text string) error {
	if _, err := c.w.WriteString(replySuccess); err != nil {
		return err
	}
	if text != "" {
		if _, err := c.w.WriteString(text); err != nil {
			return err
		}
	}
	return c.w.Flush()
}

// RespondError reports failure with a human-readable message.
func (c *Conn) RespondError(msg string) error {
	if _, err := c.w.WriteString(replyError + msg); err != nil {
		return err
	}
	return c.w.Flush()
}

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.c.Close() }

// Server owns the resident loopback endpoint. It answers PINGs inline
// and hands delegation requests to Next. The accept loop is the sole
// writer of the incoming channel; Close only signals it to stop, so a
// shutdown can never race a pending delegation send.
type Server struct {
	mu       sync.Mutex
	lis      net.Listener
	port     int
	incoming chan *Conn
	done     chan struct{}
	closed   bool
}

// NewServer returns an unstarted server.
func NewServer() *Server {
	return &Server{
		incoming: make(chan *Conn, 8),
		done:     make(chan struct{}),
	}
}

// Start binds the first port of the configured range. A bind failure
// means another resident already owns it.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis != nil {
		return nil
	}
	start, _ := portRange()
	addr := net.JoinHostPort(residentHost, strconv.Itoa(start))
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = lis
	s.port = start
	log.Printf("runonce: listening on %s", addr)
	go s.acceptLoop(ctx, lis)
	return nil
}

// Port returns the bound port, or 0 before Start.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *Server) acceptLoop(ctx context.Context, lis net.Listener) {
	for {
		c, err := lis.Accept()
		if err != nil {
			return
		}
		_ = c.SetDeadline(time.Now().Add(3 * time.Second))
		line, _ := bufio.NewReader(c).ReadString('\n')
		bw := bufio.NewWriter(c)

		if line == pingRequest {
			_, _ = bw.WriteString(pongResponse)
			_ = bw.Flush()
			_ = c.Close()
			continue
		}

		// The response waits on a full capture; lift the deadline.
		_ = c.SetDeadline(time.Time{})
		req := Request{OutputToStdout: line == modeStdout}
		log.Printf("runonce: delegated request from %s (stdout=%v)", c.RemoteAddr(), req.OutputToStdout)
		select {
		case s.incoming <- &Conn{c: c, r: req, w: bw}:
		case <-s.done:
			_ = c.Close()
			return
		case <-ctx.Done():
			_ = c.Close()
			return
		}
	}
}

// Next blocks for the next delegation request. After Close it fails
// even when requests are still queued; they were accepted but never
// served.
func (s *Server) Next(ctx context.Context) (*Conn, error) {
	select {
	case <-s.done:
		return nil, net.ErrClosed
	default:
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, net.ErrClosed
	case conn := <-s.incoming:
		return conn, nil
	}
}

// Close stops accepting requests. Safe to call more than once.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	if s.lis != nil {
		_ = s.lis.Close()
		s.lis = nil
	}
	return nil
}
