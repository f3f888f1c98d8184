// Package errors defines the coded error type shared by every objstore
// package. Callers branch on codes with IsErrorCode or errors.Is.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown        ErrorCode = "UNKNOWN"
	ErrInternal       ErrorCode = "INTERNAL"
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrAlreadyExists  ErrorCode = "ALREADY_EXISTS"
	ErrNotImplemented ErrorCode = "NOT_IMPLEMENTED"

	// Store access errors
	ErrUnknownKey    ErrorCode = "UNKNOWN_KEY"
	ErrTypeMismatch  ErrorCode = "TYPE_MISMATCH"
	ErrNullHandle    ErrorCode = "NULL_HANDLE"
	ErrTimeout       ErrorCode = "TIMEOUT"
	ErrReadOnly      ErrorCode = "READ_ONLY"
	ErrClosed        ErrorCode = "CLOSED"
	ErrStoreNotFound ErrorCode = "STORE_NOT_FOUND"
	ErrStoreExists   ErrorCode = "STORE_EXISTS"

	// Medium and serialization errors
	ErrBackendFailure ErrorCode = "BACKEND_FAILURE"
	ErrCodec          ErrorCode = "CODEC"
	ErrUnknownType    ErrorCode = "UNKNOWN_TYPE"

	// Drawable errors
	ErrUnsupportedAction ErrorCode = "UNSUPPORTED_ACTION"
	ErrAlreadyFrozen     ErrorCode = "ALREADY_FROZEN"

	// Configuration errors
	ErrConfigLoad ErrorCode = "CONFIG_LOAD"
)

// StoreError represents a structured error with code and details
type StoreError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *StoreError) Unwrap() error {
	return e.Wrapped
}

// Is matches any StoreError carrying the same code.
func (e *StoreError) Is(target error) bool {
	var targetErr *StoreError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new StoreError with the given code and message
func New(code ErrorCode, message string) *StoreError {
	return &StoreError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new StoreError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *StoreError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a StoreError. A nil err yields nil.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	e := New(code, message)
	e.Wrapped = err
	return e
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WithDetail adds a detail to the error
func (e *StoreError) WithDetail(key string, value interface{}) *StoreError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if any error in err's chain has the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	return errors.Is(err, &StoreError{Code: code})
}

// GetErrorCode returns the outermost code in err's chain, or ErrUnknown.
func GetErrorCode(err error) ErrorCode {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a StoreError
func GetErrorDetails(err error) map[string]interface{} {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Details
	}
	return nil
}
