package models

import "time"

// PreviewCap bounds the preview text stored with a history entry. Full
// logs and full analysis text are never persisted.
const PreviewCap = 1000

// HistoryEntry records the outcome of one completed pipeline run. Entries
// are append-only: created once, never mutated, deleted only on explicit
// request.
type HistoryEntry struct {
	ID            string    `gorm:"primaryKey;size:32" json:"id"`
	ComponentType string    `gorm:"size:16;index" json:"component_type"`
	ComponentName string    `gorm:"size:128;index" json:"component_name"`
	Namespace     string    `gorm:"size:128" json:"namespace"`
	TimeRange     string    `gorm:"size:32" json:"time_range,omitempty"`
	Mode          string    `gorm:"size:16" json:"mode"`
	Provider      string    `gorm:"size:32" json:"provider"`
	Model         string    `gorm:"size:64" json:"model"`
	Success       bool      `json:"success"`
	ErrorMessage  string    `gorm:"type:text" json:"error_message"`
	Preview       string    `gorm:"type:text" json:"preview"` // <= PreviewCap chars
	CreatedAt     time.Time `gorm:"index" json:"timestamp"`
}
