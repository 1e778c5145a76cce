// Package sched fires the periodic backend refresh actions. The backend only
// pushes state when something changes on its side, so the client nudges it to
// rescan projects and the package registry on an interval.
package sched

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	ferrors "github.com/atopile/dashsync/internal/foundation/errors"
	"github.com/atopile/dashsync/internal/logfields"
	"github.com/atopile/dashsync/internal/transport"
)

const (
	actionRefreshProjects = "refreshProjects"
	actionRefreshPackages = "refreshPackages"
)

// Scheduler wraps gocron for the periodic refresh actions.
type Scheduler struct {
	scheduler gocron.Scheduler
	transport transport.Transport
}

// New creates a Scheduler.
func New(tr transport.Transport) (*Scheduler, error) {
	if tr == nil {
		return nil, ferrors.ValidationError("transport is required").Build()
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.RuntimeError("create scheduler").WithCause(err).Build()
	}

	return &Scheduler{scheduler: s, transport: tr}, nil
}

// ScheduleRefresh registers the periodic refresh jobs. Intervals must be
// positive.
func (s *Scheduler) ScheduleRefresh(projects, packages time.Duration) error {
	if projects <= 0 || packages <= 0 {
		return ferrors.ValidationError("refresh intervals must be positive").Build()
	}

	if _, err := s.scheduler.NewJob(
		gocron.DurationJob(projects),
		gocron.NewTask(s.fire, actionRefreshProjects),
		gocron.WithName("refresh-projects"),
	); err != nil {
		return ferrors.RuntimeError("schedule project refresh").WithCause(err).Build()
	}

	if _, err := s.scheduler.NewJob(
		gocron.DurationJob(packages),
		gocron.NewTask(s.fire, actionRefreshPackages),
		gocron.WithName("refresh-packages"),
	); err != nil {
		return ferrors.RuntimeError("schedule package refresh").WithCause(err).Build()
	}

	return nil
}

// Start begins the scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	slog.Info("starting refresh scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	slog.Info("stopping refresh scheduler")
	return s.scheduler.Shutdown()
}

// fire sends one refresh action. A channel that is down is normal here; the
// next tick retries.
func (s *Scheduler) fire(action string) {
	if !s.transport.Connected() {
		slog.Debug("skipping refresh, channel down", logfields.Action(action))
		return
	}
	// Send records the action metric; no extra accounting here.
	if err := s.transport.Send(action, map[string]any{}); err != nil {
		slog.Warn("scheduled refresh failed", logfields.Action(action), logfields.Error(err))
		return
	}
	slog.Debug("scheduled refresh sent", logfields.Action(action))
}
