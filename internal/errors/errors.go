// Package errors provides unified error handling for the voice gateway.
// Codes follow the session error taxonomy: collaborator trouble degrades to
// "no response", transport closure ends the session cleanly, and invariant
// violations are fatal to one session only.
package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// Code classifies an error for session handling.
type Code int

const (
	Unknown Code = iota
	// Transient marks a collaborator call that failed or returned nothing.
	// The session degrades to no response and continues.
	Transient
	// MalformedFrame marks odd-length or undersized audio input. Upstream
	// treats it as silence; it is never surfaced to the client.
	MalformedFrame
	// ConnectionClosed marks transport closure; the session loop ends cleanly.
	ConnectionClosed
	// InvariantViolation marks a broken internal invariant (e.g. a released
	// idle flight latch). Fatal to the session, never to the process.
	InvariantViolation
	// ConfigInvalid marks bad configuration or missing credentials.
	// These are startup errors, never per-request retry paths.
	ConfigInvalid
)

func (c Code) String() string {
	switch c {
	case Transient:
		return "transient"
	case MalformedFrame:
		return "malformed_frame"
	case ConnectionClosed:
		return "connection_closed"
	case InvariantViolation:
		return "invariant_violation"
	case ConfigInvalid:
		return "config_invalid"
	default:
		return "unknown"
	}
}

// AppError is the base error type with a structured code and optional cause.
type AppError struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Cause != nil {
		s += fmt.Sprintf(": %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// New creates a new AppError with the given code and message.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with a formatted message.
func Newf(code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// IsCode checks whether err carries a specific code.
func IsCode(err error, code Code) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsTransient reports whether err should degrade to "no response" rather
// than end the session. All collaborator-side failures qualify, including
// AWS API errors and cancelled or timed-out calls.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsCode(err, Transient) {
		return true
	}
	var apiErr smithy.APIError
	return stderrors.As(err, &apiErr)
}
