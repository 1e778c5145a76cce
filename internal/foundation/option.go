// Package foundation provides generic utilities shared across dashsync.
package foundation

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Option represents a value that may or may not be present.
// It replaces nullable pointers in the state models and marshals to JSON
// as the value itself, or null when absent, matching the backend wire format.
type Option[T any] struct {
	value   T
	present bool
}

// Some creates an Option holding a value.
func Some[T any](value T) Option[T] {
	return Option[T]{value: value, present: true}
}

// None creates an empty Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// IsSome reports whether the Option holds a value.
func (o Option[T]) IsSome() bool { return o.present }

// IsNone reports whether the Option is empty.
func (o Option[T]) IsNone() bool { return !o.present }

// Unwrap returns the value, panicking if the Option is empty.
// Use only when presence has already been checked.
func (o Option[T]) Unwrap() T {
	if !o.present {
		panic("called Unwrap on None option")
	}
	return o.value
}

// UnwrapOr returns the value if present, otherwise the fallback.
func (o Option[T]) UnwrapOr(fallback T) T {
	if o.present {
		return o.value
	}
	return fallback
}

// Get returns the value and a presence flag.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.present
}

// ToPointer returns a pointer to a copy of the value, or nil when empty.
func (o Option[T]) ToPointer() *T {
	if o.present {
		v := o.value
		return &v
	}
	return nil
}

// FromPointer creates an Option from a pointer, treating nil as None.
func FromPointer[T any](ptr *T) Option[T] {
	if ptr != nil {
		return Some(*ptr)
	}
	return None[T]()
}

// MapOption transforms Option[T] into Option[U].
func MapOption[T, U any](o Option[T], fn func(T) U) Option[U] {
	if o.present {
		return Some(fn(o.value))
	}
	return None[U]()
}

var jsonNull = []byte("null")

// MarshalJSON encodes the value, or null when empty.
func (o Option[T]) MarshalJSON() ([]byte, error) {
	if !o.present {
		return jsonNull, nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON decodes null as None and anything else as Some.
func (o *Option[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, jsonNull) {
		*o = None[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

func (o Option[T]) String() string {
	if o.present {
		return fmt.Sprintf("Some(%v)", o.value)
	}
	return "None"
}
