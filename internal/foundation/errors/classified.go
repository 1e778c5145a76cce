// Package errors provides classified errors with category, severity, and
// retry strategy, covering the error taxonomy of the state-sync layer:
// NotConnected (retry), Timeout (surface after retry budget), Backend
// (stored verbatim, auto-expires), and Validation (persists until corrected).
package errors

import (
	stderrors "errors"
	"fmt"
)

// ClassifiedError is a structured error with category, severity, retry
// strategy, and key/value context.
type ClassifiedError struct {
	category Category
	severity Severity
	retry    RetryStrategy
	message  string
	cause    error
	context  Context
}

func (e *ClassifiedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.category, e.severity, e.message, e.cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() Category           { return e.category }
func (e *ClassifiedError) Severity() Severity           { return e.severity }
func (e *ClassifiedError) RetryStrategy() RetryStrategy { return e.retry }
func (e *ClassifiedError) Message() string              { return e.message }
func (e *ClassifiedError) Context() Context             { return e.context }

// WithContext returns a copy of the error with an added context value.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	cp := *e
	cp.context = e.context.Merge(Context{key: value})
	return &cp
}

// Is matches on category and message, allowing errors.Is against sentinels.
func (e *ClassifiedError) Is(target error) bool {
	other, ok := target.(*ClassifiedError)
	if !ok {
		return false
	}
	return e.category == other.category && e.message == other.message
}

// CanRetry reports whether retry loops may re-attempt the failed operation.
func (e *ClassifiedError) CanRetry() bool {
	return e.retry != RetryNever && e.retry != RetryUserAction
}

// AsClassified finds the first ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var ce *ClassifiedError
	ok := stderrors.As(err, &ce)
	return ce, ok
}

// GetCategory extracts the category, defaulting to CategoryInternal.
func GetCategory(err error) Category {
	if ce, ok := AsClassified(err); ok {
		return ce.Category()
	}
	return CategoryInternal
}

// HasCategory reports whether err is classified with the given category.
func HasCategory(err error, category Category) bool {
	ce, ok := AsClassified(err)
	return ok && ce.category == category
}

// IsNotConnected reports whether err means the channel is not established.
func IsNotConnected(err error) bool { return HasCategory(err, CategoryNotConnected) }

// IsTimeout reports whether err is a request deadline failure.
func IsTimeout(err error) bool { return HasCategory(err, CategoryTimeout) }
