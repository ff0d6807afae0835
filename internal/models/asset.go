package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Asset is the upload log row for a stored object. One row per persisted
// file; removed again on delete or session rollback.
type Asset struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EntityType string    `gorm:"size:64;index" json:"entity_type"`
	EntityID   string    `gorm:"size:64;index" json:"entity_id"`
	Kind       string    `gorm:"size:32;index" json:"kind"`
	Key        string    `gorm:"size:512;uniqueIndex" json:"key"` // storage path
	Filename   string    `gorm:"size:255" json:"filename"`
	MimeType   string    `gorm:"size:120" json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	Checksum   string    `gorm:"size:128" json:"checksum"` // sha256 hex

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
