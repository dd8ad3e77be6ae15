package services

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tally/internal/calculator"
	apperrors "tally/internal/errors"
	"tally/internal/logger"
	"tally/internal/metrics"
	"tally/internal/models"
	"tally/internal/notify"
	"tally/internal/pagination"
)

// expenseService records expenses and evaluates budgets after each write.
type expenseService struct {
	db         *gorm.DB
	categories CategoryServicer
	alerts     AlertDispatcher
	log        *zap.SugaredLogger
}

// NewExpenseService creates a new ExpenseServicer. alerts may be nil, in
// which case budget alerts are computed but not delivered.
func NewExpenseService(db *gorm.DB, categories CategoryServicer, alerts AlertDispatcher) ExpenseServicer {
	return &expenseService{
		db:         db,
		categories: categories,
		alerts:     alerts,
		log:        logger.Named("expenses"),
	}
}

// AddExpense persists a personal expense and then checks the budget of its
// category for the expense's month.
func (s *expenseService) AddExpense(userID string, amount decimal.Decimal, categoryName, description string, date time.Time) (*models.Expense, error) {
	expense, err := s.RecordExpense(s.db, userID, amount, categoryName, description, date, nil)
	if err != nil {
		return nil, err
	}
	metrics.ExpensesRecorded.WithLabelValues("personal").Inc()

	if _, err := s.CheckBudget(userID, expense.CategoryID, expense.Date.Year(), int(expense.Date.Month())); err != nil {
		s.log.Warnw("budget check failed", "error", err, "user_id", userID, "expense_id", expense.ID)
	}
	return expense, nil
}

// RecordExpense writes an expense on tx without evaluating any budget.
func (s *expenseService) RecordExpense(tx *gorm.DB, userID string, amount decimal.Decimal, categoryName, description string, date time.Time, groupExpenseID *string) (*models.Expense, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive")
	}

	category, err := s.categories.GetOrCreateTx(tx, categoryName)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		UserID:         userID,
		CategoryID:     category.ID,
		Amount:         amount,
		Description:    description,
		Date:           expenseDay(date),
		GroupExpenseID: groupExpenseID,
	}
	if err := tx.Create(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	expense.Category = *category

	return expense, nil
}

// CheckBudget evaluates the user's budget for the category and month and
// dispatches an alert when it is approaching or exceeded. A missing budget
// yields no alert.
func (s *expenseService) CheckBudget(userID, categoryID string, year, month int) (*calculator.BudgetAlert, error) {
	var budget models.Budget
	err := s.db.Preload("Category").
		Where("user_id = ? AND category_id = ? AND year = ? AND month = ?", userID, categoryID, year, month).
		First(&budget).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	spent, err := monthlySpent(s.db, userID, categoryID, year, month)
	if err != nil {
		return nil, err
	}

	alert := calculator.BuildBudgetAlert(budget.Category.Name, spent, budget.Amount, budget.AlertThreshold)
	if alert == nil {
		return nil, nil
	}
	metrics.BudgetAlerts.WithLabelValues(string(alert.State)).Inc()

	if s.alerts != nil {
		var user models.User
		if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
			s.log.Warnw("alert recipient lookup failed", "error", err, "user_id", userID)
			return alert, nil
		}
		s.alerts.Dispatch(notify.Recipient{UserID: user.ID, Username: user.Username, Email: user.Email}, alert.Subject, alert.Body)
	}
	return alert, nil
}

// GetMonthlySpending sums all of a user's expenses in a month.
func (s *expenseService) GetMonthlySpending(userID string, year, month int) (decimal.Decimal, error) {
	year, month = resolvePeriod(year, month)
	if err := validPeriod(year, month); err != nil {
		return decimal.Zero, err
	}
	return monthlySpent(s.db, userID, "", year, month)
}

// GetCategorySpending totals a month's expenses per category, attaching the
// budget for that month when one exists. A non-empty categoryName limits the
// result to that category.
func (s *expenseService) GetCategorySpending(userID string, year, month int, categoryName string) ([]CategorySpending, error) {
	year, month = resolvePeriod(year, month)
	if err := validPeriod(year, month); err != nil {
		return nil, err
	}
	start, end := monthRange(year, month)

	q := s.db.Model(&models.Expense{}).
		Select("expenses.category_id AS category_id, categories.name AS category, COALESCE(SUM(expenses.amount), 0) AS total").
		Joins("JOIN categories ON categories.id = expenses.category_id").
		Where("expenses.user_id = ? AND expenses.date >= ? AND expenses.date < ?", userID, start, end).
		Group("expenses.category_id, categories.name").
		Order("categories.name ASC")
	if categoryName != "" {
		q = q.Where("categories.name_key = ?", models.CategoryKey(categoryName))
	}

	var rows []CategorySpending
	if err := q.Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := s.db.Where("user_id = ? AND year = ? AND month = ?", userID, year, month).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	byCategory := make(map[string]decimal.Decimal, len(budgets))
	for _, b := range budgets {
		byCategory[b.CategoryID] = b.Amount
	}

	for i := range rows {
		rows[i].Total = rows[i].Total.Round(2)
		if amount, ok := byCategory[rows[i].CategoryID]; ok {
			a := amount
			rows[i].Budget = &a
		}
	}
	return rows, nil
}

// GetUserExpenses lists a user's expenses newest first.
func (s *expenseService) GetUserExpenses(userID string, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error) {
	page.Normalize()

	query := func() *gorm.DB {
		q := s.db.Model(&models.Expense{}).Where("user_id = ?", userID)
		switch {
		case filter.Month != 0:
			year, month := resolvePeriod(filter.Year, filter.Month)
			start, end := monthRange(year, month)
			q = q.Where("date >= ? AND date < ?", start, end)
		case filter.Year != 0:
			start := time.Date(filter.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
			q = q.Where("date >= ? AND date < ?", start, start.AddDate(1, 0, 0))
		}
		if filter.Category != "" {
			q = q.Where("category_id IN (?)",
				s.db.Model(&models.Category{}).Select("id").Where("name_key = ?", models.CategoryKey(filter.Category)))
		}
		return q
	}

	if filter.Month != 0 {
		if err := validPeriod(1, filter.Month); err != nil {
			return nil, err
		}
	}

	var totalItems int64
	if err := query().Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := query().Preload("Category").
		Order("date DESC, created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenses, page, totalItems)
	return &result, nil
}

// DeleteExpense removes one of the user's personal expenses. The payer's
// side of a group expense is removed only together with its group.
func (s *expenseService) DeleteExpense(userID, expenseID string) error {
	var expense models.Expense
	if err := s.db.Where("id = ? AND user_id = ?", expenseID, userID).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrExpenseNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if expense.GroupExpenseID != nil {
		return apperrors.ErrExpenseInGroup
	}

	if err := s.db.Delete(&expense).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetBudgetStatus reports spending against every budget the user set for
// the month.
func (s *expenseService) GetBudgetStatus(userID string, year, month int) ([]BudgetStatus, error) {
	year, month = resolvePeriod(year, month)
	if err := validPeriod(year, month); err != nil {
		return nil, err
	}

	var budgets []models.Budget
	if err := s.db.Preload("Category").
		Where("user_id = ? AND year = ? AND month = ?", userID, year, month).
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		spent, err := monthlySpent(s.db, userID, b.CategoryID, year, month)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, BudgetStatus{
			BudgetID:       b.ID,
			Category:       b.Category.Name,
			Budgeted:       b.Amount,
			Spent:          spent,
			Remaining:      b.Amount.Sub(spent),
			Percentage:     calculator.UsedPercentage(spent, b.Amount).Round(1),
			AlertThreshold: b.AlertThreshold,
			State:          calculator.EvaluateBudget(spent, b.Amount, b.AlertThreshold),
		})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Category < statuses[j].Category })

	return statuses, nil
}
