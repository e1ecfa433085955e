package models

import (
	"time"

	"gorm.io/gorm"

	"ledgersync/internal/uuid"
)

// Base holds the UUIDv7 key and timestamps shared by ledger tables. The key
// sorts by creation time, which keyset pagination over pending drafts
// relies on. Rows are never deleted, so there is no soft-delete column.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the key unless the caller already chose one.
func (b *Base) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
