package store

import (
	"sync"
	"time"
)

// ExpiringField manages the expiry timer for one transient error field of the
// document. The value itself lives in the document; the field only knows how
// to read and clear it, so there is exactly one source of truth.
//
// Rules (shared by every transient field):
//   - Arm cancels any prior pending timer for the field and schedules a new
//     one when the value is non-zero.
//   - When the timer fires, the field is cleared only if its current value
//     still equals the value that armed the timer. An old timer therefore
//     never clears a newer error that replaced it in the meantime.
//   - Cancel invalidates any pending timer without touching the value.
//
// Arm and Cancel must be called with the store's write lock held; the expiry
// callback acquires it itself.
type ExpiringField[T comparable] struct {
	name  string
	ttl   time.Duration
	lock  sync.Locker
	get   func() T
	clear func()
	fired func(name string)
	timer *time.Timer
	gen   uint64
}

func newExpiringField[T comparable](name string, ttl time.Duration, lock sync.Locker, get func() T, clear func(), fired func(string)) *ExpiringField[T] {
	return &ExpiringField[T]{name: name, ttl: ttl, lock: lock, get: get, clear: clear, fired: fired}
}

// Arm replaces any pending expiry with one for v. A zero value only cancels.
func (f *ExpiringField[T]) Arm(v T) {
	f.Cancel()

	var zero T
	if v == zero {
		return
	}

	f.gen++
	gen := f.gen
	armed := v

	f.timer = time.AfterFunc(f.ttl, func() {
		f.lock.Lock()
		defer f.lock.Unlock()

		if f.gen != gen {
			// Re-armed or canceled after this timer was scheduled.
			return
		}
		f.timer = nil
		if f.get() != armed {
			// A newer value took the field; leave it alone.
			return
		}
		f.clear()
		if f.fired != nil {
			f.fired(f.name)
		}
	})
}

// Rearm re-reads the current value and arms an expiry for it. Used after a
// bulk merge so every field still carrying an error gets a fresh deadline.
func (f *ExpiringField[T]) Rearm() {
	f.Arm(f.get())
}

// Cancel invalidates any pending expiry without clearing the value.
func (f *ExpiringField[T]) Cancel() {
	f.gen++
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}
