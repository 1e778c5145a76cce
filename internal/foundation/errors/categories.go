package errors

import "maps"

// Category classifies an error for routing and retry decisions.
type Category string

const (
	// CategoryValidation covers invalid user or caller input. These persist
	// until corrected and are never retried automatically.
	CategoryValidation Category = "validation"
	CategoryConfig     Category = "config"

	// CategoryNotConnected means the backend channel is not established yet.
	// Callers retry with the transport's bounded retry policy.
	CategoryNotConnected Category = "not_connected"
	// CategoryTimeout means a correlated request exceeded its deadline.
	CategoryTimeout   Category = "timeout"
	CategoryTransport Category = "transport"

	// CategoryBackend carries a structured error payload from the backend.
	// The payload is stored verbatim in the relevant transient error field.
	CategoryBackend Category = "backend"

	CategoryState    Category = "state"
	CategoryJournal  Category = "journal"
	CategoryRuntime  Category = "runtime"
	CategoryInternal Category = "internal"
)

// Severity indicates the impact level of an error.
type Severity string

const (
	SeverityFatal   Severity = "fatal"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// RetryStrategy indicates how an error should be handled by retry loops.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryImmediate  RetryStrategy = "immediate"
	RetryBackoff    RetryStrategy = "backoff"
	RetryUserAction RetryStrategy = "user"
)

// Context carries structured key/value context on an error.
type Context map[string]any

// Set adds or updates a context value.
func (c Context) Set(key string, value any) Context {
	if c == nil {
		c = make(Context)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c Context) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c[key]
	return v, ok
}

// Merge combines two contexts, with other taking precedence.
func (c Context) Merge(other Context) Context {
	if c == nil {
		return other
	}
	if other == nil {
		return c
	}
	out := make(Context, len(c)+len(other))
	maps.Copy(out, c)
	maps.Copy(out, other)
	return out
}
