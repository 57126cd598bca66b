package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unified error code across the project.
type ErrorCode string

// Workflow error codes
const (
	ErrValidation            ErrorCode = "VALIDATION"
	ErrNotFound              ErrorCode = "NOT_FOUND"
	ErrAlreadyExecuting      ErrorCode = "ALREADY_EXECUTING"
	ErrCancelled             ErrorCode = "CANCELLED"
	ErrExecutorNotRegistered ErrorCode = "EXECUTOR_NOT_REGISTERED"
	ErrExecutorFailed        ErrorCode = "EXECUTOR_FAILED"
)

// Storage error codes
const (
	ErrStorage ErrorCode = "STORAGE"
)

// Generation error codes
const (
	ErrInvalidRequest        ErrorCode = "INVALID_REQUEST"
	ErrPromptTooLong         ErrorCode = "PROMPT_TOO_LONG"
	ErrInvalidJSON           ErrorCode = "INVALID_JSON"
	ErrGenerationUnavailable ErrorCode = "GENERATION_UNAVAILABLE"
	ErrUpstreamError         ErrorCode = "UPSTREAM_ERROR"
	ErrInternalError         ErrorCode = "INTERNAL_ERROR"
)

// ErrorKind 是错误码的粗粒度分组，调用方据此区分 validation / executor / storage / not-found。
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindExecutor   ErrorKind = "executor"
	KindStorage    ErrorKind = "storage"
	KindNotFound   ErrorKind = "not-found"
	KindGeneration ErrorKind = "generation"
	KindInternal   ErrorKind = "internal"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Details    []string  `json:"details,omitempty"`
	Raw        string    `json:"raw,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Kind returns the coarse kind of the error code.
func (e *Error) Kind() ErrorKind {
	return KindOf(e.Code)
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithDetails attaches human-readable detail messages.
func (e *Error) WithDetails(details ...string) *Error {
	e.Details = append(e.Details, details...)
	return e
}

// WithRaw attaches the raw upstream text (used for invalid JSON responses).
func (e *Error) WithRaw(raw string) *Error {
	e.Raw = raw
	return e
}

// NewValidationError 汇总多条校验信息为一个 VALIDATION 错误。
func NewValidationError(messages ...string) *Error {
	msg := "validation failed"
	if len(messages) > 0 {
		msg = strings.Join(messages, "; ")
	}
	return NewError(ErrValidation, msg).WithDetails(messages...)
}

// NewNotFoundError creates a NOT_FOUND error for the given resource.
func NewNotFoundError(resource, id string) *Error {
	return NewError(ErrNotFound, fmt.Sprintf("%s %s not found", resource, id))
}

// NewStorageError wraps a substrate failure.
func NewStorageError(message string, cause error) *Error {
	return NewError(ErrStorage, message).WithCause(cause)
}

// AsError extracts *Error from the chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsErrorCode reports whether any *Error in the chain carries code.
func IsErrorCode(err error, code ErrorCode) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// KindOf maps an error code to its coarse kind.
func KindOf(code ErrorCode) ErrorKind {
	switch code {
	case ErrValidation, ErrInvalidRequest, ErrPromptTooLong:
		return KindValidation
	case ErrNotFound:
		return KindNotFound
	case ErrStorage:
		return KindStorage
	case ErrExecutorNotRegistered, ErrExecutorFailed, ErrAlreadyExecuting, ErrCancelled:
		return KindExecutor
	case ErrInvalidJSON, ErrGenerationUnavailable, ErrUpstreamError:
		return KindGeneration
	default:
		return KindInternal
	}
}

// ErrorKindOf returns the kind of err, or KindInternal for untyped errors.
func ErrorKindOf(err error) ErrorKind {
	if e, ok := AsError(err); ok {
		return e.Kind()
	}
	return KindInternal
}
