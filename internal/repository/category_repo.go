package repository

import (
	"strings"

	"budget-buddy-backend/internal/models"

	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListByUser returns the user's custom categories sorted by name.
func (r *CategoryRepository) ListByUser(userID string) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.Where("user_id = ?", userID).Order("name asc").Find(&categories).Error
	return categories, err
}

// Create adds a custom category unless the user already has one with the
// same name (case-insensitive).
func (r *CategoryRepository) Create(category *models.Category) error {
	var count int64
	err := r.db.Model(&models.Category{}).
		Where("user_id = ? AND LOWER(name) = ?", category.UserID, strings.ToLower(category.Name)).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return gorm.ErrDuplicatedKey
	}
	return r.db.Create(category).Error
}

// Rename changes the name of a custom category owned by the user. The new
// name must not collide with another of the user's categories.
func (r *CategoryRepository) Rename(userID, id, name string) error {
	var count int64
	err := r.db.Model(&models.Category{}).
		Where("user_id = ? AND LOWER(name) = ? AND id <> ?", userID, strings.ToLower(name), id).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return gorm.ErrDuplicatedKey
	}
	res := r.db.Model(&models.Category{}).
		Where("user_id = ? AND id = ?", userID, id).
		Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a custom category owned by the user.
func (r *CategoryRepository) Delete(userID, id string) error {
	res := r.db.Where("user_id = ? AND id = ?", userID, id).Delete(&models.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
