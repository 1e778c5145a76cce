// Package migration drives the project migration wizard: it fetches the step
// list from the backend, runs steps one at a time, and reports per-step
// results as they arrive.
package migration

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/atopile/dashsync/internal/events"
	"github.com/atopile/dashsync/internal/foundation"
	ferrors "github.com/atopile/dashsync/internal/foundation/errors"
	"github.com/atopile/dashsync/internal/retry"
	"github.com/atopile/dashsync/internal/transport"
)

const (
	actionGetSteps = "getMigrationSteps"
	actionRunStep  = "runMigrationStep"

	// DefaultStepTimeout bounds how long RunStep waits for the backend's
	// per-step result event.
	DefaultStepTimeout = 2 * time.Minute
)

// Step is one entry in the wizard's step list.
type Step struct {
	ID          string                    `json:"id"`
	Title       string                    `json:"title"`
	Description foundation.Option[string] `json:"description"`
	Completed   bool                      `json:"completed"`
}

// StepOutcome is the terminal result of running one step.
type StepOutcome struct {
	Step    string
	Success bool
	Error   foundation.Option[string]
}

// Wizard is a migration client for one project.
type Wizard struct {
	transport   transport.Transport
	bus         *events.Bus
	projectRoot string
	policy      retry.Policy
	stepTimeout time.Duration
}

// Config configures a Wizard.
type Config struct {
	Transport   transport.Transport
	Bus         *events.Bus
	ProjectRoot string

	// Retry governs re-fetching the step list while the channel is still
	// connecting. Zero value means retry.DefaultPolicy.
	Retry retry.Policy

	// StepTimeout bounds RunStep. Zero means DefaultStepTimeout.
	StepTimeout time.Duration
}

// New creates a Wizard.
func New(cfg Config) (*Wizard, error) {
	if cfg.Transport == nil {
		return nil, ferrors.ValidationError("transport is required").Build()
	}
	if cfg.Bus == nil {
		return nil, ferrors.ValidationError("event bus is required").Build()
	}
	if cfg.ProjectRoot == "" {
		return nil, ferrors.ValidationError("project root is required").Build()
	}
	if cfg.Retry == (retry.Policy{}) {
		cfg.Retry = retry.DefaultPolicy()
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = DefaultStepTimeout
	}
	return &Wizard{
		transport:   cfg.Transport,
		bus:         cfg.Bus,
		projectRoot: cfg.ProjectRoot,
		policy:      cfg.Retry,
		stepTimeout: cfg.StepTimeout,
	}, nil
}

// FetchSteps requests the step list, retrying while the channel is not yet
// connected. Cancel ctx to abandon the fetch.
func (w *Wizard) FetchSteps(ctx context.Context) ([]Step, error) {
	payload := map[string]any{"projectRoot": w.projectRoot}

	for attempt := 0; ; attempt++ {
		resp, err := w.transport.Request(ctx, actionGetSteps, payload, transport.DefaultRequestTimeout)
		if err == nil {
			return decodeSteps(resp)
		}
		if !ferrors.IsNotConnected(err) {
			return nil, err
		}
		if w.policy.Exhausted(attempt + 1) {
			return nil, ferrors.NotConnectedError("migration step fetch gave up waiting for connection").
				WithContext("attempts", attempt+1).
				Build()
		}
		select {
		case <-ctx.Done():
			return nil, ferrors.Wrap(ctx.Err(), ferrors.CategoryRuntime, "migration step fetch canceled").Build()
		case <-time.After(w.policy.Delay(attempt)):
		}
	}
}

func decodeSteps(resp *transport.Response) ([]Step, error) {
	if !resp.Success {
		return nil, ferrors.BackendError("migration step fetch rejected").
			WithContext("error", resp.Error.UnwrapOr("")).
			Build()
	}
	var steps []Step
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &steps); err != nil {
			return nil, ferrors.BackendError("undecodable migration step list").WithCause(err).Build()
		}
	}
	return steps, nil
}

// RunStep triggers one step and waits for its result event. The subscription
// is established before the action is sent so the result cannot be missed.
func (w *Wizard) RunStep(ctx context.Context, stepID string) (StepOutcome, error) {
	if stepID == "" {
		return StepOutcome{}, ferrors.ValidationError("step id is required").Build()
	}

	results, unsubscribe := events.Subscribe[events.MigrationStepResult](w.bus, 8)
	defer unsubscribe()

	payload := map[string]any{
		"projectRoot": w.projectRoot,
		"step":        stepID,
		"runId":       uuid.NewString(),
	}
	if err := w.transport.Send(actionRunStep, payload); err != nil {
		return StepOutcome{}, err
	}

	timer := time.NewTimer(w.stepTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return StepOutcome{}, ferrors.Wrap(ctx.Err(), ferrors.CategoryRuntime, "migration step canceled").
				WithContext("step", stepID).
				Build()
		case <-timer.C:
			return StepOutcome{}, ferrors.TimeoutError("migration step result never arrived").
				WithContext("step", stepID).
				WithContext("timeout", w.stepTimeout.String()).
				Build()
		case evt, ok := <-results:
			if !ok {
				return StepOutcome{}, ferrors.RuntimeError("event bus closed during migration step").Build()
			}
			if evt.ProjectRoot != w.projectRoot || evt.Step != stepID {
				continue
			}
			return StepOutcome{Step: evt.Step, Success: evt.Success, Error: evt.Error}, nil
		}
	}
}

// Run fetches the step list and runs every incomplete step in order. It stops
// at the first failed step and returns the outcomes collected so far.
func (w *Wizard) Run(ctx context.Context) ([]StepOutcome, error) {
	steps, err := w.FetchSteps(ctx)
	if err != nil {
		return nil, err
	}

	var outcomes []StepOutcome
	for _, step := range steps {
		if step.Completed {
			continue
		}
		outcome, err := w.RunStep(ctx, step.ID)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, outcome)
		if !outcome.Success {
			return outcomes, ferrors.BackendError("migration step failed").
				WithContext("step", outcome.Step).
				WithContext("error", outcome.Error.UnwrapOr("")).
				Build()
		}
	}
	return outcomes, nil
}
