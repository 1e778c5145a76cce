package events

import (
	"time"

	"github.com/atopile/dashsync/internal/foundation"
)

// StateApplied is emitted after a bulk patch has been merged into the
// document. Fields lists the transient error fields the patch carried.
type StateApplied struct {
	Seq       uint64
	AppliedAt time.Time
}

// StalePatchDropped is emitted when a stamped patch arrives with a sequence
// older than the last applied one and is discarded.
type StalePatchDropped struct {
	Seq     uint64
	LastSeq uint64
}

// ConnectionChanged is emitted when the backend channel connects or drops.
type ConnectionChanged struct {
	Connected bool
	Attempt   int
}

// ProblemsChanged is emitted when the problems slice is replaced.
type ProblemsChanged struct {
	Errors   int
	Warnings int
}

// TransientErrorExpired is emitted when a transient error field self-clears.
type TransientErrorExpired struct {
	Field string
}

// OpenSignalKind identifies a one-shot editor open request.
type OpenSignalKind string

const (
	OpenFile   OpenSignalKind = "file"
	OpenLayout OpenSignalKind = "layout"
	OpenKicad  OpenSignalKind = "kicad"
	Open3D     OpenSignalKind = "3d"
)

// OpenSignal is a one-shot request to open a file or viewer. The store
// clears the underlying document field once this is published.
type OpenSignal struct {
	Kind   OpenSignalKind
	Path   string
	Line   foundation.Option[int]
	Column foundation.Option[int]
}

// MigrationStepResult is the backend's report for a single migration step.
type MigrationStepResult struct {
	ProjectRoot string
	Step        string
	Success     bool
	Error       foundation.Option[string]
}

// ActionResult is the backend's acknowledgement of a fire-and-forget action.
type ActionResult struct {
	Action  string
	Success bool
	Error   foundation.Option[string]
	BuildID foundation.Option[string]
}
