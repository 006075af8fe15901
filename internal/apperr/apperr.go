package apperr

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure across the pipeline stages.
type Code string

const (
	CodeAuth               Code = "AUTH"
	CodeNotFound           Code = "NOT_FOUND"
	CodeTransport          Code = "TRANSPORT"
	CodeValidation         Code = "VALIDATION"
	CodeRemoteJobFailed    Code = "REMOTE_JOB_FAILED"
	CodeRemoteJobCancelled Code = "REMOTE_JOB_CANCELLED"
	CodePartialParse       Code = "PARTIAL_PARSE"
	CodeMissingOutput      Code = "MISSING_OUTPUT"
	CodeUnknownKey         Code = "UNKNOWN_CORRELATION_KEY"
	CodeTimedOut           Code = "TIMED_OUT"
)

// Error is a structured error carrying a code and an optional remediation hint
// that the CLI prints before exiting.
type Error struct {
	Code      Code
	Message   string
	Hint      string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// CodeOf returns the code of the outermost *Error in the chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether any *Error in the chain has the given code.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// HintOf returns the first non-empty hint found in the chain.
func HintOf(err error) string {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return ""
		}
		if e.Hint != "" {
			return e.Hint
		}
		err = e.Cause
	}
	return ""
}

// IsRetryable reports whether the outermost *Error is marked retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
