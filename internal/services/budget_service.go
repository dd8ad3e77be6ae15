package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "tally/internal/errors"
	"tally/internal/models"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db         *gorm.DB
	categories CategoryServicer
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, categories CategoryServicer) BudgetServicer {
	return &budgetService{db: db, categories: categories}
}

// SetBudget creates or replaces the budget for (user, category, year,
// month). Zero year or month means the current one; a nil threshold means
// the default of 90%.
func (s *budgetService) SetBudget(userID, categoryName string, amount decimal.Decimal, year, month int, threshold *decimal.Decimal) (*models.Budget, error) {
	year, month = resolvePeriod(year, month)
	if err := validPeriod(year, month); err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget amount cannot be negative")
	}
	alertAt := models.DefaultAlertThreshold
	if threshold != nil {
		if !threshold.IsPositive() || threshold.GreaterThan(decimal.NewFromInt(100)) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "alert threshold must be between 0 and 100")
		}
		alertAt = *threshold
	}

	var budget models.Budget
	err := s.db.Transaction(func(tx *gorm.DB) error {
		category, err := s.categories.GetOrCreateTx(tx, categoryName)
		if err != nil {
			return err
		}

		budget = models.Budget{
			UserID:         userID,
			CategoryID:     category.ID,
			Year:           year,
			Month:          month,
			Amount:         amount.Round(2),
			AlertThreshold: alertAt,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "category_id"}, {Name: "year"}, {Name: "month"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "alert_threshold", "updated_at"}),
		}).Create(&budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		// The upsert may have kept the existing row's ID; read it back.
		var saved models.Budget
		if err := tx.Preload("Category").
			Where("user_id = ? AND category_id = ? AND year = ? AND month = ?", userID, category.ID, year, month).
			First(&saved).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		budget = saved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

// GetBudgets lists the user's budgets for a month with their categories.
func (s *budgetService) GetBudgets(userID string, year, month int) ([]models.Budget, error) {
	year, month = resolvePeriod(year, month)
	if err := validPeriod(year, month); err != nil {
		return nil, err
	}

	var budgets []models.Budget
	if err := s.db.Preload("Category").
		Joins("JOIN categories ON categories.id = budgets.category_id").
		Where("budgets.user_id = ? AND budgets.year = ? AND budgets.month = ?", userID, year, month).
		Order("categories.name_key ASC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// DeleteBudget removes the budget for a category and month.
func (s *budgetService) DeleteBudget(userID, categoryName string, year, month int) error {
	year, month = resolvePeriod(year, month)
	if err := validPeriod(year, month); err != nil {
		return err
	}

	category, err := findCategory(s.db, categoryName)
	if err != nil {
		return err
	}

	result := s.db.Where("user_id = ? AND category_id = ? AND year = ? AND month = ?", userID, category.ID, year, month).
		Delete(&models.Budget{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrBudgetNotFound
	}
	return nil
}
