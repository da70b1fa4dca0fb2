package service

import (
	"fmt"
	"time"
)

// ValidationError is a client error. Index is the offending file, or -1 for request-level problems.
type ValidationError struct {
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return e.Reason
	}
	return fmt.Sprintf("file[%d]: %s", e.Index, e.Reason)
}

func fileError(index int, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Index: index, Reason: fmt.Sprintf(format, args...)}
}

// RequestError builds a request-level ValidationError.
func RequestError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Index: -1, Reason: fmt.Sprintf(format, args...)}
}

// RateLimitedError reports an active upload cooldown.
type RateLimitedError struct {
	Remaining time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("ratelimited - try again in %d ms", e.Remaining.Milliseconds())
}
