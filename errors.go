package webextract

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Application error codes.
const (
	EINVALID      = "invalid"
	EFETCH        = "fetch"
	ETIMEOUT      = "timeout"
	ETOOLARGE     = "too_large"
	EINSUFFICIENT = "insufficient"
	EAUTH         = "auth"
	ERATELIMIT    = "rate_limit"
	EUNAVAILABLE  = "unavailable"
	ECONNECT      = "connect"
	EBACKEND      = "backend"
	ECANCELED     = "canceled"
	EINTERNAL     = "internal"
)

// Error represents an application-specific error. Code is one of the
// constants above and Message is safe to show to end users.
type Error struct {
	Code    string
	Message string

	// RetryAfter is the server-provided backoff hint for ERATELIMIT errors.
	RetryAfter time.Duration

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap returns an Error with the given code that keeps err as its cause.
func Wrap(code string, err error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors return EINTERNAL, except context errors which map
// to ECANCELED and ETIMEOUT.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	} else if errors.Is(err, context.Canceled) {
		return ECANCELED
	} else if errors.Is(err, context.DeadlineExceeded) {
		return ETIMEOUT
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors return their own text.
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}

// ErrorRetryAfter returns the retry-after hint carried by a rate limit error.
func ErrorRetryAfter(err error) time.Duration {
	var e *Error
	if errors.As(err, &e) {
		return e.RetryAfter
	}
	return 0
}

// Retryable reports whether another attempt may succeed without operator
// action. Authentication, rate limit, availability and connectivity failures
// are not retried.
func Retryable(err error) bool {
	switch ErrorCode(err) {
	case EBACKEND, ETIMEOUT:
		return true
	}
	return false
}
