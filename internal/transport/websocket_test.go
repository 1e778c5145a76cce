package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/atopile/dashsync/internal/events"
	ferrors "github.com/atopile/dashsync/internal/foundation/errors"
	"github.com/atopile/dashsync/internal/retry"
)

// startBackend runs a websocket server for one test and returns its ws:// URL.
func startBackend(t *testing.T, handler func(*websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(websocket.Handler(handler))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func startTransport(t *testing.T, url string, bus *events.Bus) *WS {
	t.Helper()
	tr, err := NewWS(WSConfig{
		URL:   url,
		Bus:   bus,
		Retry: retry.NewPolicy(retry.BackoffFixed, 10*time.Millisecond, 10*time.Millisecond, 3),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = tr.Run(ctx)
	}()
	t.Cleanup(func() {
		_ = tr.Close()
		cancel()
		<-done
	})

	waitConnected(t, tr)
	return tr
}

func waitConnected(t *testing.T, tr *WS) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !tr.Connected() {
		require.True(t, time.Now().Before(deadline), "transport never connected")
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRequestCorrelatesReply(t *testing.T) {
	url := startBackend(t, func(ws *websocket.Conn) {
		for {
			var out Outbound
			if err := websocket.JSON.Receive(ws, &out); err != nil {
				return
			}
			if out.Type != TypeAction {
				continue
			}
			reply := map[string]any{
				"type":      TypeActionResult,
				"requestId": out.RequestID,
				"success":   true,
				"build_id":  "build-7",
			}
			if err := websocket.JSON.Send(ws, reply); err != nil {
				return
			}
		}
	})

	tr := startTransport(t, url, nil)

	resp, err := tr.Request(context.Background(), "selectBuild", map[string]any{"buildId": "b"}, time.Second)
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, "build-7", resp.BuildID.UnwrapOr(""))
}

func TestRequestTimesOutWithoutReply(t *testing.T) {
	url := startBackend(t, func(ws *websocket.Conn) {
		_, _ = io.Copy(io.Discard, ws)
	})

	tr := startTransport(t, url, nil)

	_, err := tr.Request(context.Background(), "refreshProjects", nil, 30*time.Millisecond)
	require.True(t, ferrors.IsTimeout(err))
}

func TestRequestCanceledByContext(t *testing.T) {
	url := startBackend(t, func(ws *websocket.Conn) {
		_, _ = io.Copy(io.Discard, ws)
	})

	tr := startTransport(t, url, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := tr.Request(ctx, "refreshProjects", nil, time.Minute)
	require.Error(t, err)
	require.False(t, ferrors.IsTimeout(err))
}

func TestBroadcastsReachInbound(t *testing.T) {
	url := startBackend(t, func(ws *websocket.Conn) {
		broadcast := map[string]any{
			"type": TypeState,
			"data": map[string]any{"seq": 4},
		}
		if err := websocket.JSON.Send(ws, broadcast); err != nil {
			return
		}
		_, _ = io.Copy(io.Discard, ws)
	})

	tr := startTransport(t, url, nil)

	select {
	case msg := <-tr.Inbound():
		require.Equal(t, TypeState, msg.Type)
		var data struct {
			Seq uint64 `json:"seq"`
		}
		require.NoError(t, json.Unmarshal(msg.Data, &data))
		require.Equal(t, uint64(4), data.Seq)
	case <-time.After(2 * time.Second):
		t.Fatal("state broadcast never arrived")
	}
}

func TestSendRequiresConnection(t *testing.T) {
	tr, err := NewWS(WSConfig{URL: "ws://127.0.0.1:1/ws"})
	require.NoError(t, err)

	err = tr.Send("refreshProjects", nil)
	require.True(t, ferrors.IsNotConnected(err))

	_, err = tr.Request(context.Background(), "refreshProjects", nil, time.Second)
	require.True(t, ferrors.IsNotConnected(err))
}

func TestRunGivesUpAfterRetryBudget(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	changes, unsubscribe := events.Subscribe[events.ConnectionChanged](bus, 8)
	defer unsubscribe()

	// A server that is already gone forces every dial to fail.
	srv := httptest.NewServer(websocket.Handler(func(ws *websocket.Conn) {}))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	tr, err := NewWS(WSConfig{
		URL:   url,
		Bus:   bus,
		Retry: retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, 2),
	})
	require.NoError(t, err)

	err = tr.Run(context.Background())
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryTransport))

	// Every failed attempt below the budget is announced as disconnected.
	for i := 1; i <= 2; i++ {
		select {
		case evt := <-changes:
			require.False(t, evt.Connected)
			require.Equal(t, i, evt.Attempt)
		case <-time.After(time.Second):
			t.Fatal("missing connection change event")
		}
	}

	// Run closes the inbound stream on exit.
	_, ok := <-tr.Inbound()
	require.False(t, ok)
}

func TestConnectionChangesAnnounced(t *testing.T) {
	url := startBackend(t, func(ws *websocket.Conn) {
		_, _ = io.Copy(io.Discard, ws)
	})

	bus := events.NewBus()
	defer bus.Close()
	changes, unsubscribe := events.Subscribe[events.ConnectionChanged](bus, 8)
	defer unsubscribe()

	startTransport(t, url, bus)

	select {
	case evt := <-changes:
		require.True(t, evt.Connected)
	case <-time.After(2 * time.Second):
		t.Fatal("missing connected event")
	}
}

func TestDecodeResponse(t *testing.T) {
	resp, err := DecodeResponse(json.RawMessage(`{"success":false,"error":"no such build"}`))
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.Equal(t, "no such build", resp.Error.UnwrapOr(""))
	require.True(t, resp.BuildID.IsNone())

	_, err = DecodeResponse(json.RawMessage(`{"success":`))
	require.Error(t, err)
}
