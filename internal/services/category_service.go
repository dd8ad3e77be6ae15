package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "tally/internal/errors"
	"tally/internal/models"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// GetOrCreate returns the category whose name matches case-insensitively,
// creating it with the given spelling if none exists.
func (s *categoryService) GetOrCreate(name string) (*models.Category, error) {
	return s.GetOrCreateTx(s.db, name)
}

// GetOrCreateTx is GetOrCreate on the caller's transaction.
func (s *categoryService) GetOrCreateTx(tx *gorm.DB, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	category := models.Category{Name: name, NameKey: models.CategoryKey(name)}
	// A concurrent insert of the same key is absorbed by the unique index.
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name_key"}},
		DoNothing: true,
	}).Create(&category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var existing models.Category
	if err := tx.Where("name_key = ?", category.NameKey).First(&existing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &existing, nil
}

// GetCategoryByName looks a category up without creating it.
func (s *categoryService) GetCategoryByName(name string) (*models.Category, error) {
	return findCategory(s.db, name)
}

func findCategory(db *gorm.DB, name string) (*models.Category, error) {
	var category models.Category
	if err := db.Where("name_key = ?", models.CategoryKey(name)).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// GetCategories lists every category by name.
func (s *categoryService) GetCategories() ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.Order("name_key ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}
