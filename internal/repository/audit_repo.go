package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"budget-buddy-backend/internal/models"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create persists one save audit entry.
func (r *AuditRepository) Create(entry *models.SaveAuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.Create(entry).Error
}

// ListByReceipt returns the audit trail for one receipt job, newest first.
func (r *AuditRepository) ListByReceipt(receiptID string) ([]models.SaveAuditLog, error) {
	var entries []models.SaveAuditLog
	err := r.db.Where("receipt_id = ?", receiptID).Order("created_at desc").Find(&entries).Error
	return entries, err
}

// ListRecent returns the latest audit entries across all receipts.
func (r *AuditRepository) ListRecent(limit int) ([]models.SaveAuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.SaveAuditLog
	err := r.db.Order("created_at desc").Limit(limit).Find(&entries).Error
	return entries, err
}
