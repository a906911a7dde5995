// Package history persists pipeline outcomes behind a narrow port. The
// core only ever hands it preview-capped text; the storage engine behind
// the port is interchangeable.
package history

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/mhoran/kubesift/internal/errdefs"
	"github.com/mhoran/kubesift/internal/models"
	"gorm.io/gorm"
)

// Port is the history access contract the pipeline depends on.
type Port interface {
	Append(entry *models.HistoryEntry) error
	List(limit int) ([]models.HistoryEntry, error)
	Get(id string) (*models.HistoryEntry, error)
	Delete(id string) error
}

// Store implements Port on a GORM database.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore creates a Store.
func NewStore(database *gorm.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// NewID returns a time-ordered entry ID: UTC timestamp plus a short random
// suffix to disambiguate entries created in the same second.
func NewID(t time.Time) (string, error) {
	b := make([]byte, 2)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("history: generate id: %w", err)
	}
	return t.UTC().Format("20060102-150405") + "-" + hex.EncodeToString(b), nil
}

// Append records one entry. The ID and CreatedAt are filled in when unset,
// and the preview is re-capped as a final guard.
func (s *Store) Append(entry *models.HistoryEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if entry.ID == "" {
		id, err := NewID(entry.CreatedAt)
		if err != nil {
			return fmt.Errorf("%w: %v", errdefs.ErrStorage, err)
		}
		entry.ID = id
	}
	if len(entry.Preview) > models.PreviewCap {
		entry.Preview = entry.Preview[:models.PreviewCap]
	}
	if err := s.db.Create(entry).Error; err != nil {
		return fmt.Errorf("%w: append %s: %v", errdefs.ErrStorage, entry.ID, err)
	}
	return nil
}

// List returns up to limit entries, most recent first.
func (s *Store) List(limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []models.HistoryEntry
	if err := s.db.Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("%w: list: %v", errdefs.ErrStorage, err)
	}
	return entries, nil
}

// Get returns the entry with the given ID, or ErrNotFound.
func (s *Store) Get(id string) (*models.HistoryEntry, error) {
	var entry models.HistoryEntry
	err := s.db.First(&entry, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: history entry %s", errdefs.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", errdefs.ErrStorage, id, err)
	}
	return &entry, nil
}

// Delete removes the entry with the given ID, or returns ErrNotFound.
func (s *Store) Delete(id string) error {
	res := s.db.Delete(&models.HistoryEntry{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("%w: delete %s: %v", errdefs.ErrStorage, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: history entry %s", errdefs.ErrNotFound, id)
	}
	return nil
}
