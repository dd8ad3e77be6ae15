package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tally/internal/calculator"
	"tally/internal/models"
	"tally/internal/notify"
	"tally/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(username, email, password string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(username, password string) (*models.User, error)
}

// CategoryServicer defines the contract for category lookup and lazy creation.
type CategoryServicer interface {
	GetOrCreate(name string) (*models.Category, error)
	GetOrCreateTx(tx *gorm.DB, name string) (*models.Category, error)
	GetCategoryByName(name string) (*models.Category, error)
	GetCategories() ([]models.Category, error)
}

// ExpenseFilter holds optional filter parameters for listing expenses.
// Zero values mean "no filter".
type ExpenseFilter struct {
	Year     int
	Month    int
	Category string
}

// CategorySpending is the month total for one category, with the budget for
// that month when one is set.
type CategorySpending struct {
	CategoryID string           `json:"category_id"`
	Category   string           `json:"category"`
	Total      decimal.Decimal  `json:"total"`
	Budget     *decimal.Decimal `json:"budget,omitempty"`
}

// ExpenseServicer defines the contract for recording and querying expenses.
type ExpenseServicer interface {
	AddExpense(userID string, amount decimal.Decimal, categoryName, description string, date time.Time) (*models.Expense, error)
	RecordExpense(tx *gorm.DB, userID string, amount decimal.Decimal, categoryName, description string, date time.Time, groupExpenseID *string) (*models.Expense, error)
	CheckBudget(userID, categoryID string, year, month int) (*calculator.BudgetAlert, error)
	GetMonthlySpending(userID string, year, month int) (decimal.Decimal, error)
	GetCategorySpending(userID string, year, month int, categoryName string) ([]CategorySpending, error)
	GetUserExpenses(userID string, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error)
	DeleteExpense(userID, expenseID string) error
	GetBudgetStatus(userID string, year, month int) ([]BudgetStatus, error)
}

// BudgetStatus is the month-to-date position of one budget.
type BudgetStatus struct {
	BudgetID       string                `json:"budget_id"`
	Category       string                `json:"category"`
	Budgeted       decimal.Decimal       `json:"budgeted"`
	Spent          decimal.Decimal       `json:"spent"`
	Remaining      decimal.Decimal       `json:"remaining"`
	Percentage     decimal.Decimal       `json:"percentage"`
	AlertThreshold decimal.Decimal       `json:"alert_threshold"`
	State          calculator.AlertState `json:"state"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	SetBudget(userID, categoryName string, amount decimal.Decimal, year, month int, threshold *decimal.Decimal) (*models.Budget, error)
	GetBudgets(userID string, year, month int) ([]models.Budget, error)
	DeleteBudget(userID, categoryName string, year, month int) error
}

// ShareSplit maps a member's username to the amount they owe for a group
// expense.
type ShareSplit map[string]decimal.Decimal

// GroupExpenseSummary is one row of a group's expense list.
type GroupExpenseSummary struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	PaidBy      string          `json:"paid_by"`
	Amount      decimal.Decimal `json:"amount"`
	NumShares   int             `json:"num_shares"`
}

// GroupServicer defines the contract for shared group expenses and balances.
type GroupServicer interface {
	CreateGroup(userID, name string) (*models.Group, error)
	AddMember(requesterID, groupID, username string) (*models.GroupMember, error)
	GetUserGroups(userID string) ([]models.Group, error)
	GetGroupMembers(requesterID, groupID string) ([]models.User, error)
	AddGroupExpense(requesterID, groupID string, amount decimal.Decimal, categoryName, description, payerUsername string, shares ShareSplit) (*models.GroupExpense, error)
	GetGroupExpenses(requesterID, groupID string) ([]GroupExpenseSummary, error)
	GetBalances(requesterID, groupID string) (map[string]decimal.Decimal, error)
	GetSettlements(requesterID, groupID string) ([]calculator.DebtEdge, error)
	GetUserShares(userID string, unpaidOnly bool) ([]models.ExpenseShare, error)
	MarkSharePaid(requesterID, shareID string) (*models.ExpenseShare, error)
	DeleteGroup(requesterID, groupID string) error
}

// AlertDispatcher delivers budget alerts. *notify.Dispatcher implements it.
type AlertDispatcher interface {
	Dispatch(to notify.Recipient, subject, body string) int
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
