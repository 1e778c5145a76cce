// Package mirror republishes selected bus events onto NATS subjects so that
// tooling outside the process (dashboards, notification hooks) can observe a
// session without attaching to the websocket.
package mirror

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/atopile/dashsync/internal/events"
	ferrors "github.com/atopile/dashsync/internal/foundation/errors"
	"github.com/atopile/dashsync/internal/metrics"
)

// SubjectPrefix is prepended to every mirrored subject.
const SubjectPrefix = "dashsync"

// Config configures a Mirror.
type Config struct {
	URL      string
	Bus      *events.Bus
	Recorder metrics.Recorder

	// Buffer sizes the per-event subscription channels. Zero means 16.
	Buffer int
}

// Mirror forwards bus events to NATS.
type Mirror struct {
	conn   *nats.Conn
	bus    *events.Bus
	rec    metrics.Recorder
	buffer int
}

// New connects to NATS and prepares the mirror. Run starts forwarding.
func New(cfg Config) (*Mirror, error) {
	if cfg.URL == "" {
		return nil, ferrors.ValidationError("nats url is required").Build()
	}
	if cfg.Bus == nil {
		return nil, ferrors.ValidationError("event bus is required").Build()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.NoopRecorder{}
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 16
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("dashsync-mirror"),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, ferrors.TransportError("connect to nats").WithCause(err).Build()
	}

	slog.Info("event mirror connected", "url", cfg.URL)

	return &Mirror{
		conn:   conn,
		bus:    cfg.Bus,
		rec:    cfg.Recorder,
		buffer: cfg.Buffer,
	}, nil
}

// Run forwards events until ctx is canceled or the bus closes.
func (m *Mirror) Run(ctx context.Context) error {
	problems, unsubProblems := events.Subscribe[events.ProblemsChanged](m.bus, m.buffer)
	defer unsubProblems()
	conn, unsubConn := events.Subscribe[events.ConnectionChanged](m.bus, m.buffer)
	defer unsubConn()
	results, unsubResults := events.Subscribe[events.ActionResult](m.bus, m.buffer)
	defer unsubResults()
	migrations, unsubMigrations := events.Subscribe[events.MigrationStepResult](m.bus, m.buffer)
	defer unsubMigrations()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-problems:
			if !ok {
				return nil
			}
			m.forward(SubjectPrefix+".problems", evt)
		case evt, ok := <-conn:
			if !ok {
				return nil
			}
			m.forward(SubjectPrefix+".connection", evt)
		case evt, ok := <-results:
			if !ok {
				return nil
			}
			m.forward(SubjectPrefix+".actions", evt)
		case evt, ok := <-migrations:
			if !ok {
				return nil
			}
			m.forward(SubjectPrefix+".migrations", evt)
		}
	}
}

func (m *Mirror) forward(subject string, evt any) {
	data, err := json.Marshal(evt)
	if err != nil {
		m.rec.IncMirrorPublish(false)
		slog.Warn("mirror marshal failed", "subject", subject, "error", err)
		return
	}
	if err := m.conn.Publish(subject, data); err != nil {
		m.rec.IncMirrorPublish(false)
		slog.Warn("mirror publish failed", "subject", subject, "error", err)
		return
	}
	m.rec.IncMirrorPublish(true)
}

// Close drains and closes the NATS connection.
func (m *Mirror) Close() error {
	if m.conn != nil {
		if err := m.conn.Drain(); err != nil {
			m.conn.Close()
			return ferrors.TransportError("drain nats connection").WithCause(err).Build()
		}
	}
	return nil
}
