// Package dispatch consumes the transport's inbound stream and routes each
// message: state broadcasts become typed patches applied to the store, narrow
// events become bus events. Running all inbound sources through one channel
// and one goroutine makes application order explicit.
package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/atopile/dashsync/internal/appstate"
	"github.com/atopile/dashsync/internal/events"
	"github.com/atopile/dashsync/internal/foundation"
	ferrors "github.com/atopile/dashsync/internal/foundation/errors"
	"github.com/atopile/dashsync/internal/metrics"
	"github.com/atopile/dashsync/internal/store"
	"github.com/atopile/dashsync/internal/transport"
)

// Journal persists applied messages for diagnostics. Implementations must
// tolerate being nil-checked by the dispatcher; journaling is optional.
type Journal interface {
	Append(ctx context.Context, kind string, seq uint64, payload []byte) error
}

// Config configures a Dispatcher.
type Config struct {
	Store    *store.Store
	Bus      *events.Bus
	Journal  Journal // optional
	Recorder metrics.Recorder
}

// Dispatcher routes inbound backend messages. It is the only writer feeding
// the store from the transport side.
type Dispatcher struct {
	store   *store.Store
	bus     *events.Bus
	journal Journal
	rec     metrics.Recorder
}

// New creates a Dispatcher.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Store == nil {
		return nil, ferrors.ValidationError("store is required").Build()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.NoopRecorder{}
	}
	return &Dispatcher{
		store:   cfg.Store,
		bus:     cfg.Bus,
		journal: cfg.Journal,
		rec:     cfg.Recorder,
	}, nil
}

// Run consumes inbound until the channel closes or ctx is canceled.
func (d *Dispatcher) Run(ctx context.Context, inbound <-chan transport.Inbound) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-inbound:
			if !ok {
				return nil
			}
			d.handle(ctx, msg)
		}
	}
}

// handle routes one message. Unknown or malformed messages are logged and
// dropped, never fatal.
func (d *Dispatcher) handle(ctx context.Context, msg transport.Inbound) {
	switch msg.Type {
	case transport.TypeState:
		d.handleState(ctx, msg)
	case transport.TypeActionResult:
		d.handleActionResult(ctx, msg)
	case transport.TypeMigrationStepResult:
		d.handleMigrationStepResult(ctx, msg)
	default:
		slog.Debug("unknown backend message dropped", "type", msg.Type)
	}
}

func (d *Dispatcher) handleState(ctx context.Context, msg transport.Inbound) {
	var patch appstate.Patch
	if err := json.Unmarshal(msg.Data, &patch); err != nil {
		slog.Warn("undecodable state broadcast dropped", "error", err)
		return
	}

	if err := d.store.Apply(ctx, &patch); err != nil {
		slog.Error("state patch apply failed", "error", err)
		return
	}

	if d.journal != nil {
		if err := d.journal.Append(ctx, transport.TypeState, patch.Seq, msg.Data); err != nil {
			d.rec.IncJournalAppend(false)
			slog.Warn("journal append failed", "error", err)
		} else {
			d.rec.IncJournalAppend(true)
		}
	}
}

// actionResultWire is the backend's acknowledgement shape.
type actionResultWire struct {
	Action  string                    `json:"action"`
	Success bool                      `json:"success"`
	Error   foundation.Option[string] `json:"error"`
	BuildID foundation.Option[string] `json:"build_id"`
}

func (d *Dispatcher) handleActionResult(ctx context.Context, msg transport.Inbound) {
	var wire actionResultWire
	if err := json.Unmarshal(msg.Raw, &wire); err != nil {
		slog.Warn("undecodable action result dropped", "error", err)
		return
	}
	d.publish(ctx, events.ActionResult{
		Action:  wire.Action,
		Success: wire.Success,
		Error:   wire.Error,
		BuildID: wire.BuildID,
	})
}

// migrationStepResultWire is the backend's migration event shape.
type migrationStepResultWire struct {
	ProjectRoot string                    `json:"project_root"`
	Step        string                    `json:"step"`
	Success     bool                      `json:"success"`
	Error       foundation.Option[string] `json:"error"`
}

func (d *Dispatcher) handleMigrationStepResult(ctx context.Context, msg transport.Inbound) {
	var wire migrationStepResultWire
	if err := json.Unmarshal(msg.Raw, &wire); err != nil {
		slog.Warn("undecodable migration step result dropped", "error", err)
		return
	}
	d.publish(ctx, events.MigrationStepResult{
		ProjectRoot: wire.ProjectRoot,
		Step:        wire.Step,
		Success:     wire.Success,
		Error:       wire.Error,
	})
}

func (d *Dispatcher) publish(ctx context.Context, evt any) {
	if d.bus == nil {
		return
	}
	if err := d.bus.Publish(ctx, evt); err != nil {
		slog.Debug("dispatcher event dropped", "error", err)
	}
}
