package models

import "time"

// User represents an account holder. Usernames are the identity other
// members use when splitting group expenses.
type User struct {
	Base
	Username    string     `gorm:"uniqueIndex;not null" json:"username"`
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}
