package core

import (
	"context"
	"time"
)

// Starter is the interface for long-running loops (feed worker, dispatcher).
type Starter interface {
	Start(ctx context.Context) error
}

// DocumentStore provides document fetch and persistence. Save bumps the
// revision token and appends a change-feed entry; the caller's in-memory
// document is updated with the new revision.
type DocumentStore interface {
	Get(ctx context.Context, id string) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}

// ChangeFeed exposes the store's append-only write log.
type ChangeFeed interface {
	// ChangesSince returns up to limit changes with Seq > since, in feed
	// order.
	ChangesSince(ctx context.Context, since int64, limit int) ([]Change, error)
}

// CheckpointStore persists the last processed feed position.
type CheckpointStore interface {
	// Checkpoint returns the recorded position, or 0 when none exists yet.
	Checkpoint(ctx context.Context) (int64, error)
	SetCheckpoint(ctx context.Context, seq int64) error
}

// AuditWriter records who changed what before persisting. The versioning
// detail is out of scope here; implementations must write the audit entry
// and then the document.
type AuditWriter interface {
	SaveDoc(ctx context.Context, doc *Document) error
}

// RegistrationFinder locates registration documents for a patient id.
// Used by the report-matching transition.
type RegistrationFinder interface {
	Registrations(ctx context.Context, patientID string) ([]*Document, error)
}

// DueTaskFinder returns documents holding scheduled tasks due by the given
// time. Backed by the NextDue cache column in the gorm store.
type DueTaskFinder interface {
	DueTaskDocs(ctx context.Context, by time.Time, limit int) ([]*Document, error)
}

// Gateway is the outbound message hand-off. Delivery itself (SMS gateway,
// retries, DLRs) is an external collaborator.
type Gateway interface {
	Send(ctx context.Context, messages []Message) error
}
