package errors

import (
	"errors"
	"fmt"
)

// Error kinds of the offline-resilience subsystem. Callers branch on these to
// pick a recovery path: a timeout may warrant a retry, an unreachable network
// should go straight to cache fallback.
var (
	ErrNetwork           = errors.New("network unreachable")
	ErrTimeout           = errors.New("request timeout")
	ErrNotFound          = errors.New("not found")
	ErrInvalidResponse   = errors.New("invalid response shape")
	ErrDuplicateBookmark = errors.New("bookmark already exists")
	ErrStorage           = errors.New("local storage failure")
	ErrUnauthorized      = errors.New("unauthorized")
)

// Error represents a custom error type
type Error struct {
	Code    string
	Message string
	Err     error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// ApiError reports a reachable server answering with a non-success status.
// Distinct from ErrNetwork and ErrTimeout: the server was talked to.
type ApiError struct {
	Status  int
	Message string
}

func (e *ApiError) Error() string {
	return e.Message
}

// NewApiError builds an ApiError from the server-supplied message, falling
// back to a generic one when the body carried none.
func NewApiError(status int, message string) error {
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}
	return &ApiError{Status: status, Message: message}
}

// New creates a new error with a message
func New(message string) error {
	return &Error{
		Message: message,
	}
}

// Wrap wraps an error with additional message
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: message,
		Err:     err,
	}
}

// WrapWithCode wraps an error with a code and message
func WrapWithCode(err error, code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetMessage returns the human-readable message for an error. UI layers
// receive exactly one message per failure.
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsTimeout returns true if the error is a deadline-exceeded error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsNetwork returns true if the error is a network-unreachable error
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsNotFound returns true if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateBookmark returns true if the error is a bookmark uniqueness violation
func IsDuplicateBookmark(err error) bool {
	return errors.Is(err, ErrDuplicateBookmark)
}

// IsStorage returns true if the error is a local persistence failure
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}
