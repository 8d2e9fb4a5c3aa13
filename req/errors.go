package req

import (
	"errors"
	"fmt"
)

// ErrorCode classifies client errors.
type ErrorCode int

const (
	// ErrCodeConnection indicates a transport-level failure (connection
	// refused, DNS, TLS handshake). Never produced for a non-2xx status.
	ErrCodeConnection ErrorCode = iota
	// ErrCodeTimeout indicates a connect or read deadline was exceeded.
	ErrCodeTimeout
	// ErrCodeProtocol indicates a malformed status line or frame.
	ErrCodeProtocol
	// ErrCodeIncompleteBody indicates a body stream or file write
	// terminated before the full payload arrived.
	ErrCodeIncompleteBody
	// ErrCodeDecode indicates a map/codec function failed on an
	// already-fetched body.
	ErrCodeDecode
	// ErrCodeClosed indicates use of a stream or session after close.
	ErrCodeClosed
	// ErrCodeValidation indicates a client-side validation error
	// (bad method, unreadable body file, nil backend).
	ErrCodeValidation
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeConnection:
		return "connection"
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeProtocol:
		return "protocol"
	case ErrCodeIncompleteBody:
		return "incomplete_body"
	case ErrCodeDecode:
		return "decode"
	case ErrCodeClosed:
		return "closed"
	case ErrCodeValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is a structured client error with classification.
//
// A non-2xx HTTP status is not an Error: it is business-level information
// handed to the response description, which by default turns it into a
// Left value.
type Error struct {
	// Code classifies the error.
	Code ErrorCode
	// Message describes the error.
	Message string
	// Retryable indicates whether the operation can be retried.
	Retryable bool
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("reqkit: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewConnectionError creates a transport-level error.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Retryable: true, Err: err}
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: err.Error(), Retryable: true, Err: err}
}

// NewProtocolError creates a protocol error.
func NewProtocolError(err error) *Error {
	return &Error{Code: ErrCodeProtocol, Message: err.Error(), Retryable: false, Err: err}
}

// NewIncompleteBodyError creates an incomplete-body error. Never
// retryable: the exchange already executed past the headers, so a
// blind replay could repeat a non-idempotent request.
func NewIncompleteBodyError(err error) *Error {
	return &Error{Code: ErrCodeIncompleteBody, Message: err.Error(), Retryable: false, Err: err}
}

// NewDecodeError creates a decode error.
func NewDecodeError(err error) *Error {
	return &Error{Code: ErrCodeDecode, Message: err.Error(), Retryable: false, Err: err}
}

// NewClosedError creates a closed-resource error.
func NewClosedError(what string) *Error {
	return &Error{Code: ErrCodeClosed, Message: what + " is closed", Retryable: false}
}

// NewValidationError creates a client-side validation error.
func NewValidationError(msg string) *Error {
	return &Error{Code: ErrCodeValidation, Message: msg, Retryable: false}
}

// IsConnection checks if an error is a connection error.
func IsConnection(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeConnection
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeTimeout
}

// IsProtocol checks if an error is a protocol error.
func IsProtocol(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeProtocol
}

// IsIncompleteBody checks if an error is an incomplete-body error.
func IsIncompleteBody(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeIncompleteBody
}

// IsDecode checks if an error is a decode error.
func IsDecode(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeDecode
}

// IsClosed checks if an error is a closed-resource error.
func IsClosed(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeClosed
}

// IsValidation checks if an error is a request validation error.
func IsValidation(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeValidation
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// asError wraps err as a decode error unless it is already a typed *Error.
func asError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewDecodeError(err)
}
