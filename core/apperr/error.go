package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the fixed outcome categories.
type Kind string

const (
	// KindValidation means the input was rejected before any store I/O.
	KindValidation Kind = "validation"
	// KindConflict means the operation collides with existing state and
	// requires explicit resolution (duplicate load name, ambiguous match).
	KindConflict Kind = "conflict"
	// KindInvalidTransition means a state machine rule was violated.
	KindInvalidTransition Kind = "invalid_transition"
	// KindNotFound means the referenced row does not exist.
	KindNotFound Kind = "not_found"
	// KindTransient means a store timeout or connection failure; the caller
	// may retry.
	KindTransient Kind = "transient"
	// KindPartial means a bulk operation succeeded for some rows and failed
	// for others. The error carries both subsets, never a single boolean.
	KindPartial Kind = "partial"
	// KindInternal is the fallback for unexpected failures.
	KindInternal Kind = "internal"
)

// Error is the structured error returned across every engine boundary.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation creates a validation error (rejected before I/O).
func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// Conflict creates a conflict error requiring explicit resolution.
func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// InvalidTransition creates a state machine violation error.
func InvalidTransition(code, message string) *Error {
	return &Error{Kind: KindInvalidTransition, Code: code, Message: message}
}

// NotFound creates a not-found error.
func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// Transient wraps a store timeout or connection failure.
func Transient(message string, err error) *Error {
	return &Error{Kind: KindTransient, Code: "TRANSIENT_STORE", Message: message, Err: err}
}

// Partial creates a partial-failure error for bulk operations.
func Partial(message string) *Error {
	return &Error{Kind: KindPartial, Code: "PARTIAL_FAILURE", Message: message}
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: "INTERNAL", Message: message, Err: err}
}

// KindOf extracts the Kind from any error. Plain errors classify as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error kind to the HTTP status used by handlers.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindInvalidTransition:
		return http.StatusConflict
	case KindTransient:
		return http.StatusServiceUnavailable
	case KindPartial:
		// Bulk calls still return their envelope; the status signals mixed
		// results without hiding the succeeded subset.
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}
