package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies engine failures so callers can decide how to react
// without string matching
type ErrorCode string

const (
	// ErrCodeValidation means the operator's input was malformed; rejected
	// before any network call
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodePrecondition means the command's local guard failed against the
	// last known snapshot; rejected before any network call
	ErrCodePrecondition ErrorCode = "PRECONDITION"

	// ErrCodeConflict means the backend rejected a write because its state
	// diverged from the last known snapshot
	ErrCodeConflict ErrorCode = "CONFLICT"

	// ErrCodeNotFound means the ticket is not present in the snapshot or on
	// the backend
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeUnauthorized means no usable credential is available
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// ErrCodeFetch means a backend request failed for transport or server
	// reasons
	ErrCodeFetch ErrorCode = "FETCH"

	// ErrCodeBusy means another command against the same ticket is still in
	// flight
	ErrCodeBusy ErrorCode = "BUSY"
)

// EngineError is a classified failure surfaced by the ticket engine
type EngineError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// NewEngineError creates a classified error from a format string
func NewEngineError(code ErrorCode, format string, args ...interface{}) *EngineError {
	return &EngineError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapEngineError classifies an underlying error
func WrapEngineError(code ErrorCode, cause error, message string) *EngineError {
	return &EngineError{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the error code, or empty string for unclassified errors
func CodeOf(err error) ErrorCode {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Code
	}
	return ""
}

// IsValidation reports whether the error is a local input rejection
func IsValidation(err error) bool { return CodeOf(err) == ErrCodeValidation }

// IsPrecondition reports whether the error is a local guard rejection
func IsPrecondition(err error) bool { return CodeOf(err) == ErrCodePrecondition }

// IsConflict reports whether the error is a backend write rejection
func IsConflict(err error) bool { return CodeOf(err) == ErrCodeConflict }

// IsNotFound reports whether the error is a missing-ticket rejection
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsUnauthorized reports whether the error is a credential failure
func IsUnauthorized(err error) bool { return CodeOf(err) == ErrCodeUnauthorized }

// IsBusy reports whether the error is a command single-flight rejection
func IsBusy(err error) bool { return CodeOf(err) == ErrCodeBusy }

// ErrNotAuthenticated is returned when the session holds no credential;
// the engine must not start polling in this state
var ErrNotAuthenticated = &EngineError{
	Code:    ErrCodeUnauthorized,
	Message: "no credential in session",
}
