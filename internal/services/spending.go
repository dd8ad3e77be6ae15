package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/models"
)

// resolvePeriod substitutes the current year and month for zero values.
func resolvePeriod(year, month int) (int, int) {
	now := time.Now().UTC()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	return year, month
}

func validPeriod(year, month int) error {
	if month < 1 || month > 12 || year < 1 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
	}
	return nil
}

// monthRange returns the half-open UTC interval [start, end) of a month.
func monthRange(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// expenseDay truncates t to its calendar day in UTC; the zero time means
// today.
func expenseDay(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// sumAmount runs SUM(amount) over q. SQLite returns the sum as a float, so
// the result is rounded back to cents.
func sumAmount(q *gorm.DB) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := q.Select("COALESCE(SUM(amount), 0)").Row().Scan(&total); err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total.Round(2), nil
}

// monthlySpent is the total of a user's expenses in one month, optionally
// restricted to a category.
func monthlySpent(db *gorm.DB, userID, categoryID string, year, month int) (decimal.Decimal, error) {
	start, end := monthRange(year, month)
	q := db.Model(&models.Expense{}).
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end)
	if categoryID != "" {
		q = q.Where("category_id = ?", categoryID)
	}
	return sumAmount(q)
}
