// Package store owns the AppState document: a single-writer state container
// receiving bulk patches from the backend and fine-grained setters from the
// CLI/UI side, with transient auto-expiring error fields and pure derived
// view selectors.
package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/atopile/dashsync/internal/appstate"
	"github.com/atopile/dashsync/internal/events"
	"github.com/atopile/dashsync/internal/foundation"
	ferrors "github.com/atopile/dashsync/internal/foundation/errors"
	"github.com/atopile/dashsync/internal/metrics"
)

// DefaultErrorTTL is how long a transient error stays set absent further
// updates before it self-clears.
const DefaultErrorTTL = 8 * time.Second

// Config configures a Store. Zero values fall back to sensible defaults.
type Config struct {
	// Bus receives StateApplied, ProblemsChanged, OpenSignal,
	// TransientErrorExpired and StalePatchDropped events. Optional.
	Bus *events.Bus
	// Recorder receives store metrics. Defaults to NoopRecorder.
	Recorder metrics.Recorder
	// ErrorTTL overrides DefaultErrorTTL.
	ErrorTTL time.Duration
}

// Store is the process-wide state container. It is constructed explicitly and
// injected where needed; there is no package-level instance. All mutation is
// synchronous and atomic: a setter never observes a partially-applied update
// from another setter.
type Store struct {
	mu      sync.RWMutex
	doc     *appstate.AppState
	lastSeq uint64

	bus    *events.Bus
	rec    metrics.Recorder
	errTTL time.Duration

	transients map[string]*ExpiringField[foundation.Option[string]]
}

// New creates a Store holding a fresh AppState document.
func New(cfg Config) *Store {
	s := &Store{
		doc:    appstate.New(),
		bus:    cfg.Bus,
		rec:    cfg.Recorder,
		errTTL: cfg.ErrorTTL,
	}
	if s.rec == nil {
		s.rec = metrics.NoopRecorder{}
	}
	if s.errTTL <= 0 {
		s.errTTL = DefaultErrorTTL
	}

	fired := s.onTransientExpired
	lock := &s.mu
	s.transients = map[string]*ExpiringField[foundation.Option[string]]{}
	register := func(name string, get func() foundation.Option[string], clear func()) {
		s.transients[name] = newExpiringField(name, s.errTTL, lock, get, clear, fired)
	}
	register(appstate.FieldProjectsError,
		func() foundation.Option[string] { return s.doc.ProjectsError },
		func() { s.doc.ProjectsError = foundation.None[string]() })
	register(appstate.FieldPackagesError,
		func() foundation.Option[string] { return s.doc.PackagesError },
		func() { s.doc.PackagesError = foundation.None[string]() })
	register(appstate.FieldInstallError,
		func() foundation.Option[string] { return s.doc.InstallError },
		func() { s.doc.InstallError = foundation.None[string]() })
	register(appstate.FieldBOMError,
		func() foundation.Option[string] { return s.doc.BOMError },
		func() { s.doc.BOMError = foundation.None[string]() })
	register(appstate.FieldPackageDetailsError,
		func() foundation.Option[string] { return s.doc.PackageDetailsError },
		func() { s.doc.PackageDetailsError = foundation.None[string]() })
	register(appstate.FieldVariablesError,
		func() foundation.Option[string] { return s.doc.VariablesError },
		func() { s.doc.VariablesError = foundation.None[string]() })
	register(appstate.FieldAtopileError,
		func() foundation.Option[string] { return s.doc.Atopile.Error },
		func() { s.doc.Atopile.Error = foundation.None[string]() })

	return s
}

// onTransientExpired runs with the write lock held, from the timer goroutine.
func (s *Store) onTransientExpired(field string) {
	s.rec.IncTransientExpired(field)
	go s.publish(events.TransientErrorExpired{Field: field})
}

// publish delivers an event to the bus, best effort. Deliveries that cannot
// be accepted within a second are dropped and logged.
func (s *Store) publish(evt any) {
	if s.bus == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.bus.Publish(ctx, evt); err != nil {
		slog.Debug("store event dropped", "error", err)
	}
}

// Snapshot returns a copy of the current document. Slices and maps within are
// shared with the live document and must be treated as read-only.
func (s *Store) Snapshot() appstate.AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.doc
}

// LastSeq returns the version stamp of the last applied stamped patch.
func (s *Store) LastSeq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeq
}

// Apply merges a bulk patch from a backend broadcast into the document.
//
// Receiving any state implies liveness, so isConnected is set as a side
// effect. Every pending transient error timer is canceled first, then every
// transient field carrying an error after the merge is re-armed, so a stale
// timer can never clear a field a newer broadcast just set. A stamped patch
// older than the last applied one is dropped and counted, never merged.
//
// Apply is idempotent: merging the same patch twice yields the same document.
func (s *Store) Apply(ctx context.Context, p *appstate.Patch) error {
	if p == nil {
		return ferrors.ValidationError("patch cannot be nil").Build()
	}

	start := time.Now()

	s.mu.Lock()
	if p.Seq != 0 && p.Seq < s.lastSeq {
		last := s.lastSeq
		s.mu.Unlock()
		s.rec.IncStalePatchDropped()
		s.publishCtx(ctx, events.StalePatchDropped{Seq: p.Seq, LastSeq: last})
		return nil
	}
	if p.Seq != 0 {
		s.lastSeq = p.Seq
	}

	for _, f := range s.transients {
		f.Cancel()
	}

	p.Apply(s.doc)
	s.doc.IsConnected = true

	for _, f := range s.transients {
		f.Rearm()
	}

	evts := s.collectPatchEvents(p)
	s.mu.Unlock()

	s.rec.IncPatchApplied()
	s.rec.ObserveApplyDuration(time.Since(start))
	s.rec.SetConnected(true)

	for _, evt := range evts {
		s.publishCtx(ctx, evt)
	}
	return nil
}

// collectPatchEvents gathers the bus events a merged patch implies and clears
// one-shot open signals. Caller holds the write lock.
func (s *Store) collectPatchEvents(p *appstate.Patch) []any {
	evts := []any{events.StateApplied{Seq: p.Seq, AppliedAt: time.Now()}}

	if p.Problems != nil {
		evts = append(evts, problemsChanged(s.doc.Problems))
	}

	if path, ok := s.doc.OpenFile.Get(); ok && p.OpenFile != nil {
		evts = append(evts, events.OpenSignal{
			Kind:   events.OpenFile,
			Path:   path,
			Line:   s.doc.OpenFileLine,
			Column: s.doc.OpenFileColumn,
		})
		s.doc.OpenFile = foundation.None[string]()
		s.doc.OpenFileLine = foundation.None[int]()
		s.doc.OpenFileColumn = foundation.None[int]()
	}
	if path, ok := s.doc.OpenLayout.Get(); ok && p.OpenLayout != nil {
		evts = append(evts, events.OpenSignal{Kind: events.OpenLayout, Path: path})
		s.doc.OpenLayout = foundation.None[string]()
	}
	if path, ok := s.doc.OpenKicad.Get(); ok && p.OpenKicad != nil {
		evts = append(evts, events.OpenSignal{Kind: events.OpenKicad, Path: path})
		s.doc.OpenKicad = foundation.None[string]()
	}
	if path, ok := s.doc.Open3D.Get(); ok && p.Open3D != nil {
		evts = append(evts, events.OpenSignal{Kind: events.Open3D, Path: path})
		s.doc.Open3D = foundation.None[string]()
	}
	return evts
}

func problemsChanged(problems []appstate.Problem) events.ProblemsChanged {
	var evt events.ProblemsChanged
	for _, p := range problems {
		switch p.Level {
		case appstate.ProblemError:
			evt.Errors++
		case appstate.ProblemWarning:
			evt.Warnings++
		}
	}
	return evt
}

func (s *Store) publishCtx(ctx context.Context, evt any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, evt); err != nil {
		slog.Debug("store event dropped", "error", err)
	}
}

// SetConnected records channel liveness directly, used by the transport on
// disconnect. Connecting is implied by Apply.
func (s *Store) SetConnected(connected bool) {
	s.mu.Lock()
	s.doc.IsConnected = connected
	s.mu.Unlock()
	s.rec.SetConnected(connected)
}

// Close cancels all pending transient error timers.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.transients {
		f.Cancel()
	}
}

// armTransient arms (or cancels, for None) the expiry timer of one transient
// field. Caller holds the write lock and has already stored the value.
func (s *Store) armTransient(field string, value foundation.Option[string]) {
	if f, ok := s.transients[field]; ok {
		f.Arm(value)
	}
}
