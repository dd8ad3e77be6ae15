package models

import "strings"

// Category groups expenses and budgets. Categories are shared by all users
// and identified by their case-insensitive name.
type Category struct {
	Base
	Name    string `gorm:"not null" json:"name"`
	NameKey string `gorm:"uniqueIndex;not null" json:"-"`
}

// CategoryKey normalizes a category name into its identity key.
func CategoryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
