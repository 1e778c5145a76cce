package errors

// Builder provides a fluent API for creating ClassifiedError values.
type Builder struct {
	category Category
	severity Severity
	retry    RetryStrategy
	message  string
	cause    error
	context  Context
}

// New creates a Builder with the given category and message.
func New(category Category, message string) *Builder {
	return &Builder{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
		context:  make(Context),
	}
}

// Wrap creates a Builder wrapping an existing error.
func Wrap(err error, category Category, message string) *Builder {
	b := New(category, message)
	b.cause = err
	return b
}

// WithSeverity sets the severity.
func (b *Builder) WithSeverity(s Severity) *Builder {
	b.severity = s
	return b
}

// WithRetry sets the retry strategy.
func (b *Builder) WithRetry(r RetryStrategy) *Builder {
	b.retry = r
	return b
}

// WithCause sets the wrapped cause.
func (b *Builder) WithCause(err error) *Builder {
	b.cause = err
	return b
}

// WithContext adds a context key/value pair.
func (b *Builder) WithContext(key string, value any) *Builder {
	b.context = b.context.Set(key, value)
	return b
}

// Warning sets the severity to warning.
func (b *Builder) Warning() *Builder { return b.WithSeverity(SeverityWarning) }

// Fatal sets the severity to fatal.
func (b *Builder) Fatal() *Builder { return b.WithSeverity(SeverityFatal) }

// Retryable sets the retry strategy to backoff.
func (b *Builder) Retryable() *Builder { return b.WithRetry(RetryBackoff) }

// Build creates the final ClassifiedError.
func (b *Builder) Build() *ClassifiedError {
	return &ClassifiedError{
		category: b.category,
		severity: b.severity,
		retry:    b.retry,
		message:  b.message,
		cause:    b.cause,
		context:  b.context,
	}
}

// Convenience constructors for the common error kinds.

// ValidationError creates a validation error. It persists until the input is
// corrected and is never retried.
func ValidationError(message string) *Builder {
	return New(CategoryValidation, message).WithRetry(RetryUserAction)
}

// ConfigError creates a configuration error.
func ConfigError(message string) *Builder {
	return New(CategoryConfig, message).Fatal()
}

// NotConnectedError creates an error meaning the channel is not established.
func NotConnectedError(message string) *Builder {
	return New(CategoryNotConnected, message).Retryable()
}

// TimeoutError creates a request deadline error.
func TimeoutError(message string) *Builder {
	return New(CategoryTimeout, message).Retryable()
}

// TransportError creates a channel I/O error.
func TransportError(message string) *Builder {
	return New(CategoryTransport, message).Retryable()
}

// BackendError creates an error carrying a backend payload. It is stored in
// the matching transient error field and auto-expires.
func BackendError(message string) *Builder {
	return New(CategoryBackend, message)
}

// StateError creates a store-level error.
func StateError(message string) *Builder {
	return New(CategoryState, message)
}

// JournalError creates a journal persistence error.
func JournalError(message string) *Builder {
	return New(CategoryJournal, message).Warning()
}

// RuntimeError creates a runtime error.
func RuntimeError(message string) *Builder {
	return New(CategoryRuntime, message).Fatal()
}

// InternalError creates an internal invariant violation error.
func InternalError(message string) *Builder {
	return New(CategoryInternal, message).Fatal()
}
