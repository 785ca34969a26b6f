package core

import "time"

// Event is the interface for all processor events.
type Event interface {
	eventMarker()
}

// ChangeProcessed is emitted after a change has run through the pipeline,
// whether or not a save was needed.
type ChangeProcessed struct {
	Change    Change
	Saved     bool
	Timestamp time.Time
}

func (*ChangeProcessed) eventMarker() {}

// TransitionFailed is emitted when a transition returns an error. The
// pipeline continues; this is an observability signal only.
type TransitionFailed struct {
	Name      string
	DocID     string
	Seq       int64
	Error     error
	Timestamp time.Time
}

func (*TransitionFailed) eventMarker() {}

// DocumentSaved is emitted after the audit writer persisted a document.
type DocumentSaved struct {
	DocID     string
	Rev       Revision
	Timestamp time.Time
}

func (*DocumentSaved) eventMarker() {}

// CheckpointSaved is emitted after the processed sequence was advanced.
type CheckpointSaved struct {
	Seq       int64
	Timestamp time.Time
}

func (*CheckpointSaved) eventMarker() {}

// TasksSent is emitted when the dispatcher hands due tasks to the gateway.
type TasksSent struct {
	DocID     string
	Count     int
	Timestamp time.Time
}

func (*TasksSent) eventMarker() {}

// TasksCleared is emitted when the silencing engine cancelled tasks.
type TasksCleared struct {
	DocID     string
	Count     int
	Timestamp time.Time
}

func (*TasksCleared) eventMarker() {}
