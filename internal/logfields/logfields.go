package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyAction      = "action"
	KeyProjectRoot = "project_root"
	KeyRequestID   = "request_id"
	KeySeq         = "seq"
	KeyField       = "field"
	KeySubject     = "subject"
	KeyAttempt     = "attempt"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Action(a string) slog.Attr       { return slog.String(KeyAction, a) }
func ProjectRoot(p string) slog.Attr  { return slog.String(KeyProjectRoot, p) }
func RequestID(id string) slog.Attr   { return slog.String(KeyRequestID, id) }
func Seq(s uint64) slog.Attr          { return slog.Uint64(KeySeq, s) }
func Field(f string) slog.Attr        { return slog.String(KeyField, f) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
