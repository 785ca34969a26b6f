package core

// Change is a single event from the store's change feed. Changes are
// ephemeral: the feed worker consumes them, they are never written back.
type Change struct {
	// ID is the identifier of the document the change refers to.
	ID string `gorm:"index;size:64"`

	// Seq is the monotonic feed position. Consumers must treat it as
	// comparable but otherwise opaque.
	Seq int64 `gorm:"primaryKey;autoIncrement"`

	// Deleted marks a deletion event. Deleted changes never enter the
	// transition pipeline.
	Deleted bool
}
