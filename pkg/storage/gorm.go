// Package storage provides the GORM-backed document store.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldworks/sentinel/pkg/core"
)

// metaDocID is the fixed id of the row holding the feed checkpoint.
const metaDocID = "sentinel-meta-data"

// Meta is the single-row table holding processor bookkeeping.
type Meta struct {
	ID           string `gorm:"primaryKey;size:64"`
	ProcessedSeq int64
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// AuditEntry is one row of the audit log: a snapshot of the document taken
// just before the write that carried it.
type AuditEntry struct {
	ID        string    `gorm:"primaryKey;size:36"`
	DocID     string    `gorm:"index;size:64"`
	Rev       string    `gorm:"size:255"`
	Snapshot  []byte    `gorm:"type:blob"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// GormStore implements the document store, change feed, checkpoint store,
// audit writer and lookup interfaces over a GORM database.
type GormStore struct {
	db                *gorm.DB
	registrationForms []string
}

// StoreOption configures a GormStore.
type StoreOption func(*GormStore)

// WithRegistrationForms restricts the registration lookup to the given form
// codes. Without it any data record carrying the patient id matches,
// including the report being processed.
func WithRegistrationForms(forms ...string) StoreOption {
	return func(s *GormStore) { s.registrationForms = forms }
}

// NewGormStore creates a GORM-backed store.
func NewGormStore(db *gorm.DB, opts ...StoreOption) *GormStore {
	s := &GormStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the necessary tables.
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&core.Document{},
		&core.Change{},
		&Meta{},
		&AuditEntry{},
	)
}

// Get retrieves a document by id.
func (s *GormStore) Get(ctx context.Context, id string) (*core.Document, error) {
	var doc core.Document
	err := s.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Save persists a document, bumping its revision token and appending a
// change-feed entry in the same transaction. The write is guarded by the
// caller's revision: a stale token returns ErrRevConflict.
func (s *GormStore) Save(ctx context.Context, doc *core.Document) error {
	oldRev := doc.Rev
	doc.RefreshNextDue()
	doc.Rev = nextRevision(doc)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if oldRev == "" {
			if err := tx.Create(doc).Error; err != nil {
				return err
			}
		} else {
			result := tx.Model(&core.Document{}).
				Where("id = ? AND rev = ?", doc.ID, oldRev).
				Select("*").
				Omit("created_at").
				Updates(doc)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return core.ErrRevConflict
			}
		}
		return tx.Create(&core.Change{ID: doc.ID}).Error
	})
	if err != nil {
		doc.Rev = oldRev
		return err
	}
	return nil
}

// Delete removes a document and appends a deletion change.
func (s *GormStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&core.Document{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return core.ErrNotFound
		}
		return tx.Create(&core.Change{ID: id, Deleted: true}).Error
	})
}

// SaveDoc writes an audit snapshot and then persists the document.
func (s *GormStore) SaveDoc(ctx context.Context, doc *core.Document) error {
	snapshot, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	entry := &AuditEntry{
		ID:       uuid.New().String(),
		DocID:    doc.ID,
		Rev:      string(doc.Rev),
		Snapshot: snapshot,
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return err
	}
	return s.Save(ctx, doc)
}

// ChangesSince returns up to limit changes with Seq > since, in feed order.
func (s *GormStore) ChangesSince(ctx context.Context, since int64, limit int) ([]core.Change, error) {
	var changes []core.Change
	err := s.db.WithContext(ctx).
		Where("seq > ?", since).
		Order("seq ASC").
		Limit(limit).
		Find(&changes).Error
	return changes, err
}

// Checkpoint returns the recorded feed position, or 0 when none exists yet.
func (s *GormStore) Checkpoint(ctx context.Context) (int64, error) {
	var meta Meta
	err := s.db.WithContext(ctx).First(&meta, "id = ?", metaDocID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return meta.ProcessedSeq, nil
}

// SetCheckpoint records the last processed feed position.
func (s *GormStore) SetCheckpoint(ctx context.Context, seq int64) error {
	return s.db.WithContext(ctx).
		Save(&Meta{ID: metaDocID, ProcessedSeq: seq}).Error
}

// Registrations returns the registration documents for a patient id, oldest
// first.
func (s *GormStore) Registrations(ctx context.Context, patientID string) ([]*core.Document, error) {
	if patientID == "" {
		return nil, nil
	}
	q := s.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Where("type = ?", core.TypeDataRecord)
	if len(s.registrationForms) > 0 {
		q = q.Where("form IN ?", s.registrationForms)
	}
	var docs []*core.Document
	err := q.Order("reported_date ASC").Find(&docs).Error
	return docs, err
}

// DueTaskDocs returns documents whose earliest scheduled task is due by the
// given time. The next_due cache makes this a range query.
func (s *GormStore) DueTaskDocs(ctx context.Context, by time.Time, limit int) ([]*core.Document, error) {
	var docs []*core.Document
	err := s.db.WithContext(ctx).
		Where("next_due IS NOT NULL AND next_due <= ?", by).
		Order("next_due ASC").
		Limit(limit).
		Find(&docs).Error
	return docs, err
}

// nextRevision bumps the counter and re-hashes the document content.
func nextRevision(doc *core.Document) core.Revision {
	return core.NewRevision(doc.Rev.Counter()+1, contentHash(doc))
}

// contentHash returns a short digest of the document's JSON form.
func contentHash(doc *core.Document) string {
	body, err := json.Marshal(doc)
	if err != nil {
		return uuid.New().String()[:8]
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:6])
}
