package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a single amount spent by a user. Expenses created for a shared
// group expense carry the GroupExpenseID and represent the payer's outlay.
type Expense struct {
	Base
	UserID         string          `gorm:"type:uuid;not null;index:idx_expenses_user_date,priority:1" json:"user_id"`
	CategoryID     string          `gorm:"type:uuid;not null;index" json:"category_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Description    string          `json:"description"`
	Date           time.Time       `gorm:"not null;index:idx_expenses_user_date,priority:2" json:"date"`
	GroupExpenseID *string         `gorm:"type:uuid;index" json:"group_expense_id,omitempty"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"category"`
}
