package transport

import (
	"context"
	"time"
)

// DefaultRequestTimeout bounds correlated requests that do not specify one.
const DefaultRequestTimeout = 15 * time.Second

// Transport is the channel to the backend.
//
// Send is best-effort: errors from fire-and-forget actions are not surfaced
// to users. Request fails immediately with a NotConnected error when the
// channel is not established and with a Timeout error when no correlated
// reply arrives within the deadline; only one of the reply and the deadline
// may resolve a pending request.
type Transport interface {
	// Run establishes the channel and keeps it alive, reconnecting with the
	// configured bounded retry policy. It returns when ctx is canceled or
	// the retry budget is exhausted.
	Run(ctx context.Context) error

	// Connected reports whether the channel is currently established.
	Connected() bool

	// Send fires an action at the backend without waiting for a reply.
	Send(action string, payload map[string]any) error

	// Request sends an action and waits for its correlated reply.
	Request(ctx context.Context, action string, payload map[string]any, timeout time.Duration) (*Response, error)

	// Inbound is the single stream of uncorrelated backend messages (state
	// broadcasts and narrow events). It is closed when Run returns.
	Inbound() <-chan Inbound

	// Close tears the channel down.
	Close() error
}
