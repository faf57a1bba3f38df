package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SaveAuditLog records every confirmed save, including overrides of the
// duplicate check.
type SaveAuditLog struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReceiptID      string    `gorm:"index"`
	Merchant       string
	PurchaseDate   string
	Total          float64
	ItemsSaved     int
	Forced         bool
	DuplicateCount int
	Duplicates     datatypes.JSON
	PerformedBy    string
	CreatedAt      time.Time
}
