// Package journal persists every applied backend message to a local SQLite
// database so a session can be replayed when debugging state drift.
package journal

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "github.com/atopile/dashsync/internal/foundation/errors"
)

// Entry is one journaled message.
type Entry struct {
	ID         int64
	Kind       string
	Seq        uint64
	ReceivedAt time.Time
	Payload    []byte
}

// SQLite is an append-only message journal backed by SQLite.
type SQLite struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the journal database. Use ":memory:" for an
// in-memory journal.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, ferrors.JournalError("open journal database").WithCause(err).Build()
	}

	j := &SQLite{db: db}
	if err := j.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.JournalError("initialize journal schema").WithCause(err).Build()
	}
	return j, nil
}

func (j *SQLite) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		seq INTEGER NOT NULL,
		received_at INTEGER NOT NULL,
		payload BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_kind ON messages(kind);
	CREATE INDEX IF NOT EXISTS idx_messages_seq ON messages(seq);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Append records one message.
func (j *SQLite) Append(ctx context.Context, kind string, seq uint64, payload []byte) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx,
		"INSERT INTO messages (kind, seq, received_at, payload) VALUES (?, ?, ?, ?)",
		kind, int64(seq), time.Now().Unix(), payload,
	)
	if err != nil {
		return ferrors.JournalError("insert journal entry").WithCause(err).Build()
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *SQLite) Recent(ctx context.Context, limit int) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx,
		"SELECT id, kind, seq, received_at, payload FROM messages ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, ferrors.JournalError("query journal entries").WithCause(err).Build()
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ByKind returns all entries with the given kind, oldest first.
func (j *SQLite) ByKind(ctx context.Context, kind string) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx,
		"SELECT id, kind, seq, received_at, payload FROM messages WHERE kind = ? ORDER BY id",
		kind,
	)
	if err != nil {
		return nil, ferrors.JournalError("query journal entries").WithCause(err).Build()
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var seq, receivedUnix int64
		if err := rows.Scan(&e.ID, &e.Kind, &seq, &receivedUnix, &e.Payload); err != nil {
			return nil, ferrors.JournalError("scan journal entry").WithCause(err).Build()
		}
		e.Seq = uint64(seq)
		e.ReceivedAt = time.Unix(receivedUnix, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.JournalError("iterate journal rows").WithCause(err).Build()
	}
	return entries, nil
}

// Close closes the underlying database.
func (j *SQLite) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}
