package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/atopile/dashsync/internal/events"
	ferrors "github.com/atopile/dashsync/internal/foundation/errors"
	"github.com/atopile/dashsync/internal/metrics"
	"github.com/atopile/dashsync/internal/retry"
)

// WSConfig configures the WebSocket transport.
type WSConfig struct {
	// URL is the backend WebSocket endpoint, e.g. ws://127.0.0.1:8501/ws.
	URL string
	// Origin is sent in the handshake; defaults to http://localhost.
	Origin string
	// Retry bounds reconnect attempts. Defaults to retry.DefaultPolicy
	// (fixed 500ms, 30 attempts).
	Retry retry.Policy
	// DialTimeout bounds a single dial attempt. Defaults to 5s.
	DialTimeout time.Duration
	// PingInterval is the keepalive period. Defaults to 30s.
	PingInterval time.Duration
	// InboundBuffer is the inbound channel capacity. Defaults to 64.
	InboundBuffer int
	// Bus, when set, receives ConnectionChanged events.
	Bus *events.Bus
	// Recorder receives transport metrics. Defaults to NoopRecorder.
	Recorder metrics.Recorder
}

// WS is the WebSocket Transport implementation.
type WS struct {
	cfg WSConfig

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[string]chan *Response

	inbound chan Inbound
	closed  atomic.Bool
}

var _ Transport = (*WS)(nil)

// NewWS creates a WebSocket transport. The channel is not established until
// Run is called.
func NewWS(cfg WSConfig) (*WS, error) {
	if cfg.URL == "" {
		return nil, ferrors.ValidationError("websocket URL is required").Build()
	}
	if cfg.Origin == "" {
		cfg.Origin = "http://localhost"
	}
	if cfg.Retry == (retry.Policy{}) {
		cfg.Retry = retry.DefaultPolicy()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.InboundBuffer <= 0 {
		cfg.InboundBuffer = 64
	}
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.NoopRecorder{}
	}
	return &WS{
		cfg:     cfg,
		pending: make(map[string]chan *Response),
		inbound: make(chan Inbound, cfg.InboundBuffer),
	}, nil
}

// Inbound returns the single stream of uncorrelated backend messages.
func (t *WS) Inbound() <-chan Inbound { return t.inbound }

// Connected reports whether the channel is currently established.
func (t *WS) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Run dials the backend and pumps inbound messages, reconnecting with the
// bounded retry policy on connection loss. It returns nil once ctx is
// canceled, or a transport error once the retry budget is exhausted.
func (t *WS) Run(ctx context.Context) error {
	defer close(t.inbound)

	attempt := 0
	for {
		if ctx.Err() != nil || t.closed.Load() {
			return nil
		}

		conn, err := t.dial()
		if err != nil {
			attempt++
			t.cfg.Recorder.IncReconnect()
			if t.cfg.Retry.Exhausted(attempt) {
				return ferrors.Wrap(err, ferrors.CategoryTransport, "reconnect budget exhausted").
					WithContext("attempts", attempt).
					Build()
			}
			t.publish(ctx, events.ConnectionChanged{Connected: false, Attempt: attempt})
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(t.cfg.Retry.Delay(attempt)):
			}
			continue
		}

		attempt = 0
		t.mu.Lock()
		t.conn = conn
		t.mu.Unlock()
		t.publish(ctx, events.ConnectionChanged{Connected: true})
		slog.Info("backend channel established", "url", t.cfg.URL)

		readErr := t.readLoop(ctx, conn)

		t.mu.Lock()
		t.conn = nil
		t.mu.Unlock()
		_ = conn.Close()
		t.failPending()

		if ctx.Err() != nil || t.closed.Load() {
			return nil
		}
		slog.Warn("backend channel lost", "error", readErr)
		t.publish(ctx, events.ConnectionChanged{Connected: false})
	}
}

func (t *WS) dial() (*websocket.Conn, error) {
	wsCfg, err := websocket.NewConfig(t.cfg.URL, t.cfg.Origin)
	if err != nil {
		return nil, ferrors.Wrap(err, ferrors.CategoryValidation, "invalid websocket URL").
			WithContext("url", t.cfg.URL).
			Build()
	}
	wsCfg.Dialer = &net.Dialer{Timeout: t.cfg.DialTimeout}
	conn, err := websocket.DialConfig(wsCfg)
	if err != nil {
		return nil, ferrors.Wrap(err, ferrors.CategoryTransport, "dial failed").
			WithContext("url", t.cfg.URL).
			Build()
	}
	return conn, nil
}

// readLoop receives messages until ctx is canceled or the connection errors.
// It also runs the ping keepalive.
func (t *WS) readLoop(ctx context.Context, conn *websocket.Conn) error {
	pingCtx, stopPing := context.WithCancel(ctx)
	defer stopPing()
	go t.pingLoop(pingCtx, conn)

	for {
		var raw json.RawMessage
		if err := websocket.JSON.Receive(conn, &raw); err != nil {
			return err
		}

		var msg Inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			slog.Warn("undecodable backend message dropped", "error", err)
			continue
		}
		msg.Raw = raw

		switch {
		case msg.Type == TypePong:
			// keepalive reply, nothing to do
		case msg.RequestID != "" && t.resolve(msg):
			// correlated reply consumed by a pending request
		default:
			select {
			case t.inbound <- msg:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (t *WS) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(t.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := websocket.JSON.Send(conn, Outbound{Type: TypePing}); err != nil {
				return
			}
		}
	}
}

// resolve hands a correlated reply to its waiting request. It reports false
// when no request is pending under that id (already resolved or timed out).
func (t *WS) resolve(msg Inbound) bool {
	t.mu.Lock()
	ch, ok := t.pending[msg.RequestID]
	if ok {
		delete(t.pending, msg.RequestID)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}

	resp, err := DecodeResponse(msg.Raw)
	if err != nil {
		slog.Warn("undecodable correlated reply", "requestId", msg.RequestID, "error", err)
		resp = &Response{Success: false}
	}
	ch <- resp
	return true
}

// failPending resolves every pending request with nil, which the waiters
// translate into a transport error.
func (t *WS) failPending() {
	t.mu.Lock()
	pending := t.pending
	t.pending = make(map[string]chan *Response)
	t.mu.Unlock()
	for _, ch := range pending {
		ch <- nil
	}
}

// Send fires an action at the backend without waiting for a reply.
func (t *WS) Send(action string, payload map[string]any) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return ferrors.NotConnectedError("channel not established").
			WithContext("action", action).
			Build()
	}

	t.cfg.Recorder.IncActionSent(action)
	if err := websocket.JSON.Send(conn, Outbound{Type: TypeAction, Action: action, Payload: payload}); err != nil {
		return ferrors.Wrap(err, ferrors.CategoryTransport, "send failed").
			WithContext("action", action).
			Build()
	}
	return nil
}

// Request sends an action and waits for its correlated reply. The deadline
// timer and the reply race; whichever fires first resolves the request and
// the other becomes a no-op.
func (t *WS) Request(ctx context.Context, action string, payload map[string]any, timeout time.Duration) (*Response, error) {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	t.mu.Lock()
	conn := t.conn
	if conn == nil {
		t.mu.Unlock()
		return nil, ferrors.NotConnectedError("channel not established").
			WithContext("action", action).
			Build()
	}
	id := uuid.NewString()
	ch := make(chan *Response, 1)
	t.pending[id] = ch
	t.mu.Unlock()

	t.cfg.Recorder.IncActionSent(action)
	if err := websocket.JSON.Send(conn, Outbound{Type: TypeAction, Action: action, Payload: payload, RequestID: id}); err != nil {
		t.abandon(id)
		return nil, ferrors.Wrap(err, ferrors.CategoryTransport, "request send failed").
			WithContext("action", action).
			Build()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		if resp == nil {
			return nil, ferrors.TransportError("connection lost awaiting reply").
				WithContext("action", action).
				Build()
		}
		return resp, nil
	case <-timer.C:
		t.abandon(id)
		t.cfg.Recorder.IncRequestTimeout(action)
		return nil, ferrors.TimeoutError("no reply within deadline").
			WithContext("action", action).
			WithContext("timeout", timeout.String()).
			Build()
	case <-ctx.Done():
		t.abandon(id)
		return nil, ferrors.Wrap(ctx.Err(), ferrors.CategoryRuntime, "request canceled").
			WithContext("action", action).
			Build()
	}
}

// abandon removes a pending request so a late reply becomes a no-op.
func (t *WS) abandon(id string) {
	t.mu.Lock()
	delete(t.pending, id)
	t.mu.Unlock()
}

// Close tears the channel down and stops reconnecting.
func (t *WS) Close() error {
	t.closed.Store(true)
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (t *WS) publish(ctx context.Context, evt any) {
	if t.cfg.Bus == nil {
		return
	}
	if err := t.cfg.Bus.Publish(ctx, evt); err != nil {
		slog.Debug("transport event dropped", "error", err)
	}
}
