// Package coordinator sequences the capture-to-clipboard pipeline:
// screenshot acquisition, optional downscale, prompt construction,
// backend dispatch with cooperative cancellation, and clipboard
// delivery, emitting one ordered status sequence per run.
package coordinator

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"vista-ocr/backend"
	"vista-ocr/capture"
	"vista-ocr/config"
	"vista-ocr/imaging"
	"vista-ocr/prompt"
	"vista-ocr/status"
	"vista-ocr/worker"
)

// Clipboard is the sink for recognized text. The format hint selects an
// additional rich-typed clipboard entry where supported.
type Clipboard interface {
	Write(text, format string) error
}

// ResultFunc receives the terminal outcome of a delegated capture.
type ResultFunc func(text string, err error)

// Request is the immutable per-invocation value owned by the single
// in-flight pipeline run.
type Request struct {
	ID      string
	Image   []byte
	Prompt  string
	Backend backend.ID
}

// Coordinator is the single authoritative owner of "is a capture in
// progress". At most one request is in flight; new requests are
// rejected no-ops until it finishes or is cancelled.
type Coordinator struct {
	store    *config.Store
	selector *backend.Selector
	capturer capture.Capturer
	perm     capture.Permission
	sink     status.Sink
	clip     Clipboard
	pool     *worker.Pool

	mu       sync.Mutex
	inFlight bool
	activeID string
	cancel   context.CancelFunc
}

// New wires a coordinator. The pool is sized to one worker so pipeline
// runs are strictly serial.
func New(store *config.Store, selector *backend.Selector, capturer capture.Capturer, perm capture.Permission, sink status.Sink, clip Clipboard) *Coordinator {
	return &Coordinator{
		store:    store,
		selector: selector,
		capturer: capturer,
		perm:     perm,
		sink:     sink,
		clip:     clip,
		pool:     worker.New(1),
	}
}

// Close drains the worker pool.
func (c *Coordinator) Close() {
	c.pool.Close()
}

// IsProcessing reports whether a capture request is in flight.
func (c *Coordinator) IsProcessing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// InitiateCapture runs the interactive capture utility and, when an
// image is produced, hands it to processing. Rejected as a no-op while
// a request is in flight. Blocks its caller until the capture utility
// exits; callers on UI-adjacent goroutines should invoke it from a
// trigger goroutine (hotkey, tray menu).
func (c *Coordinator) InitiateCapture() {
	c.initiate(nil, false)
}

// InitiateCaptureDelegated is InitiateCapture for remote triggers: the
// terminal outcome is also delivered to deliver, and the clipboard
// write is skipped when toStdout is set.
func (c *Coordinator) InitiateCaptureDelegated(deliver ResultFunc, toStdout bool) {
	c.initiate(deliver, toStdout)
}

func (c *Coordinator) initiate(deliver ResultFunc, toStdout bool) {
	// The slot is claimed before the capture utility launches: a second
	// trigger while the interactive selection is still open must not
	// start an overlapping session.
	if !c.claim() {
		log.Printf("coordinator: capture request ignored, one already in flight")
		if deliver != nil {
			deliver("", backend.NewError(backend.Unexpected, "busy, please retry"))
		}
		return
	}

	if !c.perm.Granted() {
		c.perm.Request()
		c.release()
		s := status.Failure(backend.PermissionDenied, "screen recording permission is required")
		c.sink.Publish(s, nil)
		if deliver != nil {
			deliver("", backend.NewError(backend.PermissionDenied, s.Detail))
		}
		return
	}

	data, err := c.capturer.Capture(context.Background())
	if errors.Is(err, capture.ErrCancelled) {
		log.Printf("coordinator: capture cancelled by user")
		c.release()
		c.sink.Publish(status.Cancelled(), nil)
		if deliver != nil {
			deliver("", backend.NewError(backend.CaptureCancelled, "selection cancelled"))
		}
		return
	}
	if err != nil {
		log.Printf("coordinator: capture failed: %v", err)
		c.release()
		c.sink.Publish(status.Failure(backend.CaptureError, err.Error()), nil)
		if deliver != nil {
			deliver("", backend.NewError(backend.CaptureError, err.Error()))
		}
		return
	}

	c.beginPipeline(data, deliver, toStdout)
}

// claim takes the single in-flight slot. Returns false when a capture
// or pipeline run already owns it.
func (c *Coordinator) claim() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return false
	}
	c.inFlight = true
	return true
}

// release frees a claimed slot that never reached the pipeline.
func (c *Coordinator) release() {
	c.mu.Lock()
	c.inFlight = false
	c.activeID = ""
	c.cancel = nil
	c.mu.Unlock()
}

// ProcessCapturedImage runs the processing pipeline on image bytes that
// were captured out of band (file input, tests).
func (c *Coordinator) ProcessCapturedImage(data []byte) {
	c.process(data, nil, false)
}

func (c *Coordinator) process(data []byte, deliver ResultFunc, toStdout bool) {
	if !c.claim() {
		log.Printf("coordinator: processing request ignored, one already in flight")
		if deliver != nil {
			deliver("", backend.NewError(backend.Unexpected, "busy, please retry"))
		}
		return
	}
	c.beginPipeline(data, deliver, toStdout)
}

// beginPipeline transitions an already claimed slot into the processing
// phase and hands the run to the worker pool.
func (c *Coordinator) beginPipeline(data []byte, deliver ResultFunc, toStdout bool) {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	c.mu.Lock()
	c.activeID = id
	c.cancel = cancel
	c.mu.Unlock()

	c.sink.Publish(status.Processing(), c.CancelProcessing)

	snap := c.store.Snapshot()
	req := Request{
		ID:      id,
		Image:   data,
		Prompt:  resolvePrompt(snap),
		Backend: snap.Backend,
	}

	submitted := c.pool.Submit(ctx, func(ctx context.Context) {
		c.runPipeline(ctx, req, snap, deliver, toStdout)
	})
	if !submitted {
		// Cannot happen while the in-flight guard holds, but never
		// leave the system stuck processing.
		err := backend.NewError(backend.Unexpected, "processing queue rejected the request")
		c.finish(id, status.Failure(err.Kind, err.Detail))
		if deliver != nil {
			deliver("", err)
		}
	}
}

func (c *Coordinator) runPipeline(ctx context.Context, req Request, snap config.Snapshot, deliver ResultFunc, toStdout bool) {
	img := req.Image
	if snap.ResolutionLimitEnabled {
		scaled, err := imaging.Downscale(img, snap.MaxImageWidth, snap.MaxImageHeight)
		if err != nil {
			log.Printf("coordinator: resize skipped: %v", err)
		}
		img = scaled
	}

	// Checkpoint: cancellation observed before the backend dispatch.
	if ctx.Err() != nil {
		c.finish(req.ID, status.Cancelled())
		return
	}

	log.Printf("coordinator: dispatching request %s to %s (%d bytes)", req.ID, req.Backend, len(img))
	text, err := c.selector.Dispatch(ctx, img, req.Prompt)
	if err != nil {
		kind := backend.KindOf(err)
		if kind == backend.ProcessingCancelled || ctx.Err() != nil {
			c.finish(req.ID, status.Cancelled())
		} else {
			log.Printf("coordinator: request %s failed: %v", req.ID, err)
			c.finish(req.ID, status.Failure(kind, backend.Detail(err)))
		}
		if deliver != nil {
			deliver("", err)
		}
		return
	}

	// Checkpoint: cancellation observed again before committing the
	// clipboard write.
	if ctx.Err() != nil {
		c.finish(req.ID, status.Cancelled())
		if deliver != nil {
			deliver("", backend.NewError(backend.ProcessingCancelled, "cancelled before delivery"))
		}
		return
	}

	if !toStdout {
		if err := c.clip.Write(text, snap.OutputFormat); err != nil {
			log.Printf("coordinator: clipboard write failed: %v", err)
			c.finish(req.ID, status.Failure(backend.Unexpected, "clipboard error: "+err.Error()))
			if deliver != nil {
				deliver("", err)
			}
			return
		}
	}

	log.Printf("coordinator: request %s succeeded (%d chars)", req.ID, len(text))
	c.finish(req.ID, status.Success())
	if deliver != nil {
		deliver(text, nil)
	}
}

// finish clears the in-flight state and publishes the terminal status.
// Completions for a request that is no longer active (cancelled from
// the outside) emit nothing, so a deliberate Cancelled status is never
// overwritten by a late success or failure.
func (c *Coordinator) finish(id string, s status.Status) {
	c.mu.Lock()
	if c.activeID != id {
		c.mu.Unlock()
		log.Printf("coordinator: dropping stale completion for request %s", id)
		return
	}
	c.inFlight = false
	c.activeID = ""
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.sink.Publish(s, nil)
}

// CancelProcessing aborts the in-flight request, if any. The status
// transition to Cancelled happens synchronously; the underlying backend
// call is aborted through its context so no network resource lingers.
// Safe no-op when nothing is in flight.
func (c *Coordinator) CancelProcessing() {
	c.mu.Lock()
	// No cancel func means either idle or the capture phase, where the
	// selection utility is the user's own cancel surface.
	if !c.inFlight || c.cancel == nil {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.inFlight = false
	c.activeID = ""
	c.cancel = nil
	c.mu.Unlock()

	cancel()
	log.Printf("coordinator: processing cancelled")
	c.sink.Publish(status.Cancelled(), nil)
}

// resolvePrompt prefers an explicitly enabled custom prompt override;
// otherwise the instruction string is built from the current settings.
func resolvePrompt(snap config.Snapshot) string {
	if snap.CustomPromptEnabled && snap.CustomPrompt != "" {
		return snap.CustomPrompt
	}
	return prompt.Build(snap.PromptOptions())
}
