package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Group is a set of users sharing expenses. It owns its memberships and
// group expenses.
type Group struct {
	Base
	Name string `gorm:"not null" json:"name"`

	// Relationships
	Members  []GroupMember  `gorm:"foreignKey:GroupID" json:"members,omitempty"`
	Expenses []GroupExpense `gorm:"foreignKey:GroupID" json:"expenses,omitempty"`
}

// GroupMember links a user to a group.
type GroupMember struct {
	Base
	GroupID string `gorm:"type:uuid;not null;uniqueIndex:uq_group_members,priority:1" json:"group_id"`
	UserID  string `gorm:"type:uuid;not null;uniqueIndex:uq_group_members,priority:2" json:"user_id"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user"`
}

// GroupExpense is an expense paid by one member and shared with the others.
// The payer's outlay is the linked Expense; what the others owe are Shares.
type GroupExpense struct {
	Base
	GroupID     string    `gorm:"type:uuid;not null;index" json:"group_id"`
	Description string    `json:"description"`
	Date        time.Time `gorm:"not null" json:"date"`

	// Relationships
	Expense *Expense       `gorm:"foreignKey:GroupExpenseID" json:"expense,omitempty"`
	Shares  []ExpenseShare `gorm:"foreignKey:GroupExpenseID" json:"shares,omitempty"`
}

// ExpenseShare is the amount one member owes for a group expense.
// Paid only ever moves from false to true.
type ExpenseShare struct {
	Base
	GroupExpenseID string          `gorm:"type:uuid;not null;index" json:"group_expense_id"`
	UserID         string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Paid           bool            `gorm:"not null;default:false" json:"paid"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user"`
}
