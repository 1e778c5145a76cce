// Package metrics defines observability hooks for the state-sync layer.
package metrics

import "time"

// Recorder defines observability hooks for transport and store activity.
// Implementations may forward to Prometheus or drop everything (NoopRecorder).
// All methods must be safe on the zero NoopRecorder so injection is optional.
type Recorder interface {
	IncPatchApplied()
	IncStalePatchDropped()
	ObserveApplyDuration(d time.Duration)
	IncReconnect()
	IncRequestTimeout(action string)
	IncActionSent(action string)
	IncTransientExpired(field string)
	SetConnected(connected bool)
	IncJournalAppend(ok bool)
	IncMirrorPublish(ok bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) IncPatchApplied()                   {}
func (NoopRecorder) IncStalePatchDropped()              {}
func (NoopRecorder) ObserveApplyDuration(time.Duration) {}
func (NoopRecorder) IncReconnect()                      {}
func (NoopRecorder) IncRequestTimeout(string)           {}
func (NoopRecorder) IncActionSent(string)               {}
func (NoopRecorder) IncTransientExpired(string)         {}
func (NoopRecorder) SetConnected(bool)                  {}
func (NoopRecorder) IncJournalAppend(bool)              {}
func (NoopRecorder) IncMirrorPublish(bool)              {}
