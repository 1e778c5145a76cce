package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atopile/dashsync/internal/appstate"
	"github.com/atopile/dashsync/internal/events"
	"github.com/atopile/dashsync/internal/foundation"
)

func somePtr[T any](v T) *foundation.Option[T] {
	o := foundation.Some(v)
	return &o
}

func TestApplyIsIdempotent(t *testing.T) {
	s := New(Config{})
	defer s.Close()

	projects := []appstate.Project{{Root: "/p", Name: "demo"}}
	p := &appstate.Patch{Seq: 1, Projects: &projects}

	require.NoError(t, s.Apply(context.Background(), p))
	first := s.Snapshot()

	require.NoError(t, s.Apply(context.Background(), p))
	second := s.Snapshot()

	require.Equal(t, first, second)
	require.Equal(t, projects, second.Projects)
}

func TestApplyNullBroadcastClearsError(t *testing.T) {
	s := New(Config{})
	defer s.Close()

	require.NoError(t, s.Apply(context.Background(), &appstate.Patch{PackagesError: somePtr("registry down")}))
	require.Equal(t, "registry down", s.Snapshot().PackagesError.UnwrapOr(""))

	var p appstate.Patch
	require.NoError(t, json.Unmarshal([]byte(`{"packagesError": null}`), &p))
	require.NoError(t, s.Apply(context.Background(), &p))
	require.True(t, s.Snapshot().PackagesError.IsNone())
}

func TestApplyNilPatchRejected(t *testing.T) {
	s := New(Config{})
	defer s.Close()
	require.Error(t, s.Apply(context.Background(), nil))
}

func TestApplyDropsStalePatch(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	dropped, unsub := events.Subscribe[events.StalePatchDropped](bus, 4)
	defer unsub()

	s := New(Config{Bus: bus})
	defer s.Close()

	fresh := []appstate.Project{{Root: "/fresh"}}
	require.NoError(t, s.Apply(context.Background(), &appstate.Patch{Seq: 5, Projects: &fresh}))

	stale := []appstate.Project{{Root: "/stale"}}
	require.NoError(t, s.Apply(context.Background(), &appstate.Patch{Seq: 3, Projects: &stale}))

	snap := s.Snapshot()
	require.Equal(t, fresh, snap.Projects)
	require.Equal(t, uint64(5), s.LastSeq())

	select {
	case evt := <-dropped:
		require.Equal(t, uint64(3), evt.Seq)
		require.Equal(t, uint64(5), evt.LastSeq)
	case <-time.After(time.Second):
		t.Fatal("expected StalePatchDropped event")
	}
}

func TestApplyAcceptsEqualSeq(t *testing.T) {
	s := New(Config{})
	defer s.Close()

	require.NoError(t, s.Apply(context.Background(), &appstate.Patch{Seq: 7}))

	projects := []appstate.Project{{Root: "/p"}}
	require.NoError(t, s.Apply(context.Background(), &appstate.Patch{Seq: 7, Projects: &projects}))
	require.Equal(t, projects, s.Snapshot().Projects)
}

func TestApplyUnstampedPatchAlwaysMerges(t *testing.T) {
	s := New(Config{})
	defer s.Close()

	require.NoError(t, s.Apply(context.Background(), &appstate.Patch{Seq: 9}))

	v := "1.2.3"
	require.NoError(t, s.Apply(context.Background(), &appstate.Patch{Version: &v}))
	require.Equal(t, "1.2.3", s.Snapshot().Version)
	require.Equal(t, uint64(9), s.LastSeq())
}

func TestApplyImpliesConnected(t *testing.T) {
	s := New(Config{})
	defer s.Close()

	require.False(t, s.Snapshot().IsConnected)
	require.NoError(t, s.Apply(context.Background(), &appstate.Patch{Seq: 1}))
	require.True(t, s.Snapshot().IsConnected)

	s.SetConnected(false)
	require.False(t, s.Snapshot().IsConnected)
}

func TestTransientErrorExpires(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	expired, unsub := events.Subscribe[events.TransientErrorExpired](bus, 4)
	defer unsub()

	s := New(Config{Bus: bus, ErrorTTL: 50 * time.Millisecond})
	defer s.Close()

	s.SetPackagesError(foundation.Some("registry unreachable"))
	require.True(t, s.Snapshot().PackagesError.IsSome())

	select {
	case evt := <-expired:
		require.Equal(t, appstate.FieldPackagesError, evt.Field)
	case <-time.After(time.Second):
		t.Fatal("expected TransientErrorExpired event")
	}
	require.True(t, s.Snapshot().PackagesError.IsNone())
}

func TestNewerErrorOutlivesOldTimer(t *testing.T) {
	s := New(Config{ErrorTTL: 100 * time.Millisecond})
	defer s.Close()

	s.SetPackagesError(foundation.Some("first"))
	time.Sleep(60 * time.Millisecond)
	s.SetPackagesError(foundation.Some("second"))

	// The first error's deadline has passed, but setting the second error
	// replaced the timer.
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, "second", s.Snapshot().PackagesError.UnwrapOr(""))

	time.Sleep(100 * time.Millisecond)
	require.True(t, s.Snapshot().PackagesError.IsNone())
}

func TestBulkApplyReplacesErrorDeadline(t *testing.T) {
	s := New(Config{ErrorTTL: 200 * time.Millisecond})
	defer s.Close()

	s.SetPackagesError(foundation.Some("boom"))
	time.Sleep(100 * time.Millisecond)

	// An unrelated patch re-arms every error still present after the merge.
	v := "next"
	require.NoError(t, s.Apply(context.Background(), &appstate.Patch{Seq: 1, Version: &v}))

	time.Sleep(150 * time.Millisecond)
	require.True(t, s.Snapshot().PackagesError.IsSome(),
		"error should survive its original deadline after a bulk merge re-armed it")

	time.Sleep(200 * time.Millisecond)
	require.True(t, s.Snapshot().PackagesError.IsNone())
}

func TestBulkApplyArmsPatchCarriedError(t *testing.T) {
	s := New(Config{ErrorTTL: 50 * time.Millisecond})
	defer s.Close()

	require.NoError(t, s.Apply(context.Background(), &appstate.Patch{
		Seq:           1,
		ProjectsError: somePtr("scan failed"),
	}))
	require.True(t, s.Snapshot().ProjectsError.IsSome())

	require.Eventually(t, func() bool {
		return s.Snapshot().ProjectsError.IsNone()
	}, time.Second, 10*time.Millisecond)
}

func TestOpenSignalIsOneShot(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	signals, unsub := events.Subscribe[events.OpenSignal](bus, 4)
	defer unsub()

	s := New(Config{Bus: bus})
	defer s.Close()

	require.NoError(t, s.Apply(context.Background(), &appstate.Patch{
		Seq:          1,
		OpenFile:     somePtr("/p/main.ato"),
		OpenFileLine: somePtr(12),
	}))

	select {
	case sig := <-signals:
		require.Equal(t, events.OpenFile, sig.Kind)
		require.Equal(t, "/p/main.ato", sig.Path)
		require.Equal(t, 12, sig.Line.UnwrapOr(0))
	case <-time.After(time.Second):
		t.Fatal("expected OpenSignal event")
	}

	snap := s.Snapshot()
	require.True(t, snap.OpenFile.IsNone())
	require.True(t, snap.OpenFileLine.IsNone())
}

func TestApplyPublishesProblemCounts(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	changed, unsub := events.Subscribe[events.ProblemsChanged](bus, 4)
	defer unsub()

	s := New(Config{Bus: bus})
	defer s.Close()

	problems := []appstate.Problem{
		{ID: "1", Level: appstate.ProblemError},
		{ID: "2", Level: appstate.ProblemError},
		{ID: "3", Level: appstate.ProblemWarning},
	}
	require.NoError(t, s.Apply(context.Background(), &appstate.Patch{Seq: 1, Problems: &problems}))

	select {
	case evt := <-changed:
		require.Equal(t, 2, evt.Errors)
		require.Equal(t, 1, evt.Warnings)
	case <-time.After(time.Second):
		t.Fatal("expected ProblemsChanged event")
	}
}

func TestSnapshotIsIsolatedFromLaterWrites(t *testing.T) {
	s := New(Config{})
	defer s.Close()

	s.SetDeveloperMode(true)
	snap := s.Snapshot()
	s.SetDeveloperMode(false)

	require.True(t, snap.DeveloperMode)
	require.False(t, s.Snapshot().DeveloperMode)
}
