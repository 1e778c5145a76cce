// Package events provides a small typed in-process event bus used for
// control-flow between the dispatcher, the store, and downstream consumers
// (mirror, journal, CLI output). It is intentionally not durable.
package events

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"

	ferrors "github.com/atopile/dashsync/internal/foundation/errors"
)

// Bus delivers published events to typed subscribers.
//
// Publish blocks until every matching subscriber has accepted the event or
// the context is canceled; Close closes all subscription channels.
type Bus struct {
	mu     sync.RWMutex
	subs   map[reflect.Type]map[uint64]*subscription
	nextID atomic.Uint64
	closed atomic.Bool
	once   sync.Once
}

type subscription struct {
	deliver func(ctx context.Context, evt any) error
	stop    func()
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[reflect.Type]map[uint64]*subscription)}
}

// Subscribe registers a subscription for events of type T with the given
// channel buffer. If T is an interface, events whose concrete type implements
// it are delivered. The returned func unsubscribes and closes the channel.
func Subscribe[T any](b *Bus, buffer int) (<-chan T, func()) {
	evtType := reflect.TypeFor[T]()
	ch := make(chan T, buffer)

	if b.closed.Load() {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID.Add(1)

	var stopOnce sync.Once
	stop := func() { stopOnce.Do(func() { close(ch) }) }

	var unsubOnce sync.Once
	unsubscribe := func() {
		unsubOnce.Do(func() {
			b.mu.Lock()
			if byType, ok := b.subs[evtType]; ok {
				delete(byType, id)
				if len(byType) == 0 {
					delete(b.subs, evtType)
				}
			}
			b.mu.Unlock()
			stop()
		})
	}

	sub := &subscription{
		deliver: func(ctx context.Context, evt any) error {
			v, ok := evt.(T)
			if !ok {
				return ferrors.InternalError("event type mismatch").
					WithContext("expected", evtType.String()).
					Build()
			}
			select {
			case ch <- v:
				return nil
			case <-ctx.Done():
				return ferrors.Wrap(ctx.Err(), ferrors.CategoryRuntime, "event publish canceled").
					WithContext("event_type", evtType.String()).
					Build()
			}
		},
		stop: stop,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed.Load() {
		stop()
		return ch, func() {}
	}
	if b.subs[evtType] == nil {
		b.subs[evtType] = make(map[uint64]*subscription)
	}
	b.subs[evtType][id] = sub

	return ch, unsubscribe
}

// SubscriberCount returns the number of active subscribers for T.
// Primarily for tests and diagnostics.
func SubscriberCount[T any](b *Bus) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[reflect.TypeFor[T]()])
}

// Publish delivers evt to all matching subscribers, blocking per subscriber
// until accepted or ctx is canceled.
func (b *Bus) Publish(ctx context.Context, evt any) error {
	if evt == nil {
		return ferrors.ValidationError("event cannot be nil").Build()
	}
	if b.closed.Load() {
		return ferrors.RuntimeError("event bus is closed").Build()
	}

	evtType := reflect.TypeOf(evt)

	b.mu.RLock()
	var targets []*subscription
	for subType, byID := range b.subs {
		match := subType == evtType
		if !match && subType.Kind() == reflect.Interface {
			match = evtType.Implements(subType)
		}
		if !match {
			continue
		}
		for _, s := range byID {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		if err := s.deliver(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the bus and all subscription channels.
func (b *Bus) Close() {
	b.once.Do(func() {
		b.closed.Store(true)

		b.mu.Lock()
		var stops []func()
		for _, byID := range b.subs {
			for _, s := range byID {
				stops = append(stops, s.stop)
			}
		}
		b.subs = make(map[reflect.Type]map[uint64]*subscription)
		b.mu.Unlock()

		for _, stop := range stops {
			stop()
		}
	})
}
