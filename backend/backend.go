package backend

import (
	"context"
	"errors"
	"fmt"
)

// ID identifies a configured OCR backend.
type ID string

const (
	GeminiFlash     ID = "gemini-2.0-flash"
	GeminiFlashLite ID = "gemini-2.0-flash-lite"
	GeminiPro       ID = "gemini-2.0-pro-exp-02-05"
	Local           ID = "local"
)

// IsCloud reports whether the backend belongs to the cloud model family.
func (id ID) IsCloud() bool {
	switch id {
	case GeminiFlash, GeminiFlashLite, GeminiPro:
		return true
	}
	return false
}

// ParseID validates a backend identity read from configuration.
func ParseID(s string) (ID, error) {
	id := ID(s)
	switch id {
	case GeminiFlash, GeminiFlashLite, GeminiPro, Local:
		return id, nil
	}
	return "", fmt.Errorf("unknown backend %q", s)
}

// Backend extracts text from image bytes. The prompt is an optional
// instruction string; backends without instruction-following capability
// accept it and ignore it.
type Backend interface {
	Process(ctx context.Context, image []byte, prompt string) (string, error)
}

// CloudBackend is a Backend whose model selection can be changed at runtime.
type CloudBackend interface {
	Backend
	SetModel(model string)
}

// LocalBackend is an on-device Backend with tunable recognition settings.
type LocalBackend interface {
	Backend
	ApplySettings(s LocalSettings)
}

// RecognitionLevel is the local recognizer's speed/quality trade-off.
type RecognitionLevel string

const (
	RecognitionFast     RecognitionLevel = "fast"
	RecognitionAccurate RecognitionLevel = "accurate"
)

// LocalSettings is a partial update for the local backend. Nil fields
// leave the corresponding setting unchanged.
type LocalSettings struct {
	Level              *RecognitionLevel
	Languages          *[]string
	LanguageCorrection *bool
	CustomWords        *[]string
}

// ErrorKind classifies every failure the pipeline can surface.
type ErrorKind int

const (
	Unexpected ErrorKind = iota
	PermissionDenied
	CaptureError
	CaptureCancelled
	InvalidImageData
	NoTextDetected
	UploadFailed
	GenerationFailed
	InvalidResponseShape
	RecognitionFailed
	ProcessingCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case PermissionDenied:
		return "permission_denied"
	case CaptureError:
		return "capture_error"
	case CaptureCancelled:
		return "capture_cancelled"
	case InvalidImageData:
		return "invalid_image_data"
	case NoTextDetected:
		return "no_text_detected"
	case UploadFailed:
		return "upload_failed"
	case GenerationFailed:
		return "generation_failed"
	case InvalidResponseShape:
		return "invalid_response_shape"
	case RecognitionFailed:
		return "recognition_failed"
	case ProcessingCancelled:
		return "processing_cancelled"
	}
	return "unexpected"
}

// Error is a typed pipeline failure.
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// NewError builds a typed failure.
func NewError(kind ErrorKind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// KindOf extracts the ErrorKind from err. Context cancellation maps to
// ProcessingCancelled; anything untyped maps to Unexpected so an
// unrecognized error never crashes the pipeline.
func KindOf(err error) ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	if errors.Is(err, context.Canceled) {
		return ProcessingCancelled
	}
	return Unexpected
}

// Detail returns the diagnostic string carried by err.
func Detail(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Detail
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
