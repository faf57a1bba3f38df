package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a user-defined expense category, stored relationally and used
// to constrain the extraction taxonomy for that user.
type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"index" json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
