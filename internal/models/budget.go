package models

import "github.com/shopspring/decimal"

// DefaultAlertThreshold is the percentage of a budget at which an
// approaching-limit alert fires when none is given.
var DefaultAlertThreshold = decimal.NewFromInt(90)

// Budget is a monthly spending limit for one category. A user has at most
// one budget per (category, year, month).
type Budget struct {
	Base
	UserID         string          `gorm:"type:uuid;not null;uniqueIndex:uq_budgets_period,priority:1" json:"user_id"`
	CategoryID     string          `gorm:"type:uuid;not null;uniqueIndex:uq_budgets_period,priority:2" json:"category_id"`
	Year           int             `gorm:"not null;uniqueIndex:uq_budgets_period,priority:3" json:"year"`
	Month          int             `gorm:"not null;uniqueIndex:uq_budgets_period,priority:4" json:"month"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	AlertThreshold decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"alert_threshold"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"category"`
}
