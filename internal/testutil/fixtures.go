package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tally/internal/models"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Money parses a decimal literal, failing loudly on typos in test tables.
func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// CreateTestUser creates a user with a unique username and email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserNamed(t, db, fmt.Sprintf("user%d", nextID()))
}

// CreateTestUserNamed creates a user with the given username.
func CreateTestUserNamed(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username: username,
		Email:    username + "@test.com",
		Password: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a category with the given display name.
func CreateTestCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()

	category := &models.Category{Name: name, NameKey: models.CategoryKey(name)}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestGroup creates a group whose members are the given users.
func CreateTestGroup(t *testing.T, db *gorm.DB, members ...*models.User) *models.Group {
	t.Helper()

	group := &models.Group{Name: fmt.Sprintf("Test Group %d", nextID())}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed to create test group: %v", err)
	}
	for _, u := range members {
		m := &models.GroupMember{GroupID: group.ID, UserID: u.ID}
		if err := db.Create(m).Error; err != nil {
			t.Fatalf("failed to add test group member: %v", err)
		}
	}
	return group
}

// CreateTestExpense creates a personal expense dated at the given time.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID, categoryID string, amount decimal.Decimal, date time.Time) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     amount,
		Date:       date,
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// CreateTestBudget creates a budget with the default alert threshold.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID, categoryID string, amount decimal.Decimal, year, month int) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:         userID,
		CategoryID:     categoryID,
		Year:           year,
		Month:          month,
		Amount:         amount,
		AlertThreshold: models.DefaultAlertThreshold,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}
