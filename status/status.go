// Package status defines the processing-status lifecycle emitted by the
// capture coordinator and consumed by display sinks. Transitions are
// strictly ordered Idle -> Processing -> {Success|Cancelled|Failed};
// reverting a terminal status back to Idle after a display interval is a
// sink-local concern.
package status

import "vista-ocr/backend"

// Kind is the status variant tag.
type Kind int

const (
	KindIdle Kind = iota
	KindProcessing
	KindSuccess
	KindCancelled
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindProcessing:
		return "processing"
	case KindSuccess:
		return "success"
	case KindCancelled:
		return "cancelled"
	case KindFailed:
		return "failed"
	}
	return "idle"
}

// Status is one point in the processing lifecycle. ErrKind and Detail
// are meaningful only when Kind is KindFailed.
type Status struct {
	Kind    Kind
	ErrKind backend.ErrorKind
	Detail  string
}

func Idle() Status       { return Status{Kind: KindIdle} }
func Processing() Status { return Status{Kind: KindProcessing} }
func Success() Status    { return Status{Kind: KindSuccess} }
func Cancelled() Status  { return Status{Kind: KindCancelled} }

// Failure builds a failed status carrying the error taxonomy entry and
// the full diagnostic detail (logged, not necessarily displayed).
func Failure(kind backend.ErrorKind, detail string) Status {
	return Status{Kind: KindFailed, ErrKind: kind, Detail: detail}
}

// Label is the short human-readable text a sink displays for s.
func (s Status) Label() string {
	switch s.Kind {
	case KindProcessing:
		return "Processing..."
	case KindSuccess:
		return "Copied to clipboard"
	case KindCancelled:
		return "Cancelled"
	case KindFailed:
		return failureLabel(s.ErrKind)
	}
	return ""
}

func failureLabel(k backend.ErrorKind) string {
	switch k {
	case backend.PermissionDenied:
		return "Screen Recording permission is required"
	case backend.CaptureError:
		return "Failed to capture screenshot"
	case backend.CaptureCancelled, backend.ProcessingCancelled:
		return "Cancelled"
	case backend.InvalidImageData:
		return "Could not read image data"
	case backend.NoTextDetected:
		return "No text detected in image"
	case backend.UploadFailed:
		return "Upload failed"
	case backend.GenerationFailed:
		return "Content generation failed"
	case backend.InvalidResponseShape:
		return "Unexpected response from OCR backend"
	case backend.RecognitionFailed:
		return "Text recognition failed"
	}
	return "Processing failed"
}

// Sink receives status transitions. The cancel callback is non-nil only
// for KindProcessing and aborts the in-flight capture when invoked.
type Sink interface {
	Publish(s Status, cancel func())
}
