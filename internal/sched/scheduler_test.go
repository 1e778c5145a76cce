package sched

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atopile/dashsync/internal/transport"
)

type stubTransport struct {
	mu        sync.Mutex
	connected bool
	actions   []string
}

func (s *stubTransport) Run(ctx context.Context) error { <-ctx.Done(); return nil }

func (s *stubTransport) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *stubTransport) Send(action string, _ map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, action)
	return nil
}

func (s *stubTransport) Request(context.Context, string, map[string]any, time.Duration) (*transport.Response, error) {
	return &transport.Response{Success: true}, nil
}

func (s *stubTransport) Inbound() <-chan transport.Inbound { return nil }
func (s *stubTransport) Close() error                      { return nil }

func (s *stubTransport) sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.actions...)
}

func TestNewRequiresTransport(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestScheduleRefreshRejectsNonPositiveIntervals(t *testing.T) {
	s, err := New(&stubTransport{})
	require.NoError(t, err)
	defer func() { _ = s.Stop(context.Background()) }()

	require.Error(t, s.ScheduleRefresh(0, time.Minute))
	require.Error(t, s.ScheduleRefresh(time.Minute, -time.Second))
}

func TestScheduledRefreshFires(t *testing.T) {
	tr := &stubTransport{connected: true}
	s, err := New(tr)
	require.NoError(t, err)
	defer func() { _ = s.Stop(context.Background()) }()

	require.NoError(t, s.ScheduleRefresh(20*time.Millisecond, 20*time.Millisecond))
	s.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for {
		sent := tr.sent()
		var projects, packages bool
		for _, a := range sent {
			switch a {
			case actionRefreshProjects:
				projects = true
			case actionRefreshPackages:
				packages = true
			}
		}
		if projects && packages {
			return
		}
		require.True(t, time.Now().Before(deadline), "refresh actions never fired: %v", sent)
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRefreshSkippedWhileDisconnected(t *testing.T) {
	tr := &stubTransport{connected: false}
	s, err := New(tr)
	require.NoError(t, err)
	defer func() { _ = s.Stop(context.Background()) }()

	require.NoError(t, s.ScheduleRefresh(10*time.Millisecond, 10*time.Millisecond))
	s.Start(context.Background())

	time.Sleep(100 * time.Millisecond)
	require.Empty(t, tr.sent())
}

func TestFireSendsExactlyOnce(t *testing.T) {
	tr := &stubTransport{connected: true}
	s, err := New(tr)
	require.NoError(t, err)
	defer func() { _ = s.Stop(context.Background()) }()

	// One fire, one Send; the action counter lives in the transport alone.
	s.fire(actionRefreshProjects)
	require.Equal(t, []string{actionRefreshProjects}, tr.sent())
}
