// Package domain holds the error taxonomy shared across the shop's components.
package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure at a component boundary.
type ErrorKind string

const (
	// KindInvalidArgument marks a caller-supplied parameter out of contract.
	KindInvalidArgument ErrorKind = "invalid_argument"
	// KindNotFound marks a referenced input resource that does not exist.
	KindNotFound ErrorKind = "not_found"
	// KindBackend marks a generative backend failure (transport, quota, empty output).
	KindBackend ErrorKind = "backend"
	// KindExtraction marks backend text that could not be interpreted as metadata.
	KindExtraction ErrorKind = "extraction"
	// KindConversion marks a raster decode/re-encode failure.
	KindConversion ErrorKind = "conversion"
	// KindAIGeneration is the orchestrator umbrella over backend and extraction failures.
	KindAIGeneration ErrorKind = "ai_generation"
	// KindImageConversion is the orchestrator umbrella over conversion failures.
	KindImageConversion ErrorKind = "image_conversion"
	// KindRetrieval marks a failed read query against the record store.
	KindRetrieval ErrorKind = "retrieval"
	// KindUnclassified marks any other failure caught at the orchestrator boundary.
	KindUnclassified ErrorKind = "unclassified"
)

// Error is a classified error with an optional underlying cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified error.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Constructors, one per kind.

func InvalidArgumentError(message string, err error) *Error {
	return NewError(KindInvalidArgument, message, err)
}

func NotFoundError(message string, err error) *Error {
	return NewError(KindNotFound, message, err)
}

func BackendError(message string, err error) *Error {
	return NewError(KindBackend, message, err)
}

func ExtractionError(message string, err error) *Error {
	return NewError(KindExtraction, message, err)
}

func ConversionError(message string, err error) *Error {
	return NewError(KindConversion, message, err)
}

func AIGenerationError(message string, err error) *Error {
	return NewError(KindAIGeneration, message, err)
}

func ImageConversionError(message string, err error) *Error {
	return NewError(KindImageConversion, message, err)
}

func RetrievalError(message string, err error) *Error {
	return NewError(KindRetrieval, message, err)
}

func UnclassifiedError(message string, err error) *Error {
	return NewError(KindUnclassified, message, err)
}

// KindOf returns the kind of err, or an empty kind when err carries none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
