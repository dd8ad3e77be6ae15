package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"tally/internal/calculator"
	"tally/internal/models"
	"tally/internal/notify"
	"tally/internal/pagination"
	"tally/internal/testutil"
)

type dispatched struct {
	to      notify.Recipient
	subject string
	body    string
}

// recordingDispatcher captures alerts instead of delivering them.
type recordingDispatcher struct {
	sent []dispatched
}

func (r *recordingDispatcher) Dispatch(to notify.Recipient, subject, body string) int {
	r.sent = append(r.sent, dispatched{to, subject, body})
	return 1
}

type failingNotifier struct{}

func (failingNotifier) Name() string { return "failing" }

func (failingNotifier) Notify(context.Context, notify.Recipient, string, string) error {
	return errors.New("smtp down")
}

var march = time.Date(2026, time.March, 15, 10, 30, 0, 0, time.UTC)

func newExpenseService(t *testing.T, alerts AlertDispatcher) (ExpenseServicer, *models.User, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	user := testutil.CreateTestUserNamed(t, db, "alice")
	svc := NewExpenseService(db, NewCategoryService(db), alerts)
	return svc, user, func() { testutil.TeardownTestDB(t, db) }
}

func TestAddExpense(t *testing.T) {
	t.Run("creates_category_and_truncates_date", func(t *testing.T) {
		svc, user, done := newExpenseService(t, nil)
		defer done()

		expense, err := svc.AddExpense(user.ID, testutil.Money("12.50"), "Food", "lunch", march)
		testutil.AssertNoError(t, err)

		if expense.Category.Name != "Food" {
			t.Errorf("expected category Food, got %q", expense.Category.Name)
		}
		want := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
		if !expense.Date.Equal(want) {
			t.Errorf("expected date %v, got %v", want, expense.Date)
		}
		if expense.GroupExpenseID != nil {
			t.Error("personal expense should not be linked to a group expense")
		}
	})

	t.Run("zero_date_means_today", func(t *testing.T) {
		svc, user, done := newExpenseService(t, nil)
		defer done()

		expense, err := svc.AddExpense(user.ID, testutil.Money("5"), "Food", "", time.Time{})
		testutil.AssertNoError(t, err)

		now := time.Now()
		if expense.Date.Year() != now.Year() || expense.Date.YearDay() != now.YearDay() {
			t.Errorf("expected today's date, got %v", expense.Date)
		}
	})

	t.Run("rejects_non_positive_amount", func(t *testing.T) {
		svc, user, done := newExpenseService(t, nil)
		defer done()

		_, err := svc.AddExpense(user.ID, testutil.Money("0"), "Food", "", march)
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.AddExpense(user.ID, testutil.Money("0.004"), "Food", "", march)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("notification_failure_does_not_fail_write", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, "Food")
		testutil.CreateTestBudget(t, db, user.ID, category.ID, testutil.Money("10"), 2026, 3)

		dispatcher := notify.NewDispatcher(zap.NewNop().Sugar(), failingNotifier{})
		svc := NewExpenseService(db, NewCategoryService(db), dispatcher)

		_, err := svc.AddExpense(user.ID, testutil.Money("50"), "food", "", march)
		testutil.AssertNoError(t, err)
	})
}

func TestAddExpenseBudgetAlerts(t *testing.T) {
	alerts := &recordingDispatcher{}
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	user := testutil.CreateTestUserNamed(t, db, "alice")
	category := testutil.CreateTestCategory(t, db, "Food")
	testutil.CreateTestBudget(t, db, user.ID, category.ID, testutil.Money("100"), 2026, 3)
	svc := NewExpenseService(db, NewCategoryService(db), alerts)

	_, err := svc.AddExpense(user.ID, testutil.Money("50"), "Food", "", march)
	testutil.AssertNoError(t, err)
	if len(alerts.sent) != 0 {
		t.Fatalf("expected no alert at 50/100, got %d", len(alerts.sent))
	}

	_, err = svc.AddExpense(user.ID, testutil.Money("42"), "food", "", march)
	testutil.AssertNoError(t, err)
	if len(alerts.sent) != 1 {
		t.Fatalf("expected 1 alert at 92/100, got %d", len(alerts.sent))
	}
	if alerts.sent[0].subject != "Budget Alert for Food" {
		t.Errorf("unexpected subject %q", alerts.sent[0].subject)
	}
	if alerts.sent[0].to.Username != "alice" || alerts.sent[0].to.Email != "alice@test.com" {
		t.Errorf("unexpected recipient %+v", alerts.sent[0].to)
	}

	_, err = svc.AddExpense(user.ID, testutil.Money("28"), "FOOD", "", march)
	testutil.AssertNoError(t, err)
	if len(alerts.sent) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts.sent))
	}
	if alerts.sent[1].subject != "Budget Exceeded for Food" {
		t.Errorf("unexpected subject %q", alerts.sent[1].subject)
	}
	if alerts.sent[1].body != "You've spent $120.00 out of $100.00 budget for Food." {
		t.Errorf("unexpected body %q", alerts.sent[1].body)
	}

	// A different month has no budget.
	_, err = svc.AddExpense(user.ID, testutil.Money("500"), "Food", "", march.AddDate(0, 1, 0))
	testutil.AssertNoError(t, err)
	if len(alerts.sent) != 2 {
		t.Errorf("expected no alert for an unbudgeted month, got %d alerts", len(alerts.sent))
	}
}

func TestCheckBudget(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	user := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, "Food")
	svc := NewExpenseService(db, NewCategoryService(db), nil)

	t.Run("no_budget", func(t *testing.T) {
		alert, err := svc.CheckBudget(user.ID, category.ID, 2026, 3)
		testutil.AssertNoError(t, err)
		if alert != nil {
			t.Errorf("expected no alert, got %+v", alert)
		}
	})

	t.Run("exceeded", func(t *testing.T) {
		testutil.CreateTestBudget(t, db, user.ID, category.ID, testutil.Money("100"), 2026, 3)
		testutil.CreateTestExpense(t, db, user.ID, category.ID, testutil.Money("120"), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))

		alert, err := svc.CheckBudget(user.ID, category.ID, 2026, 3)
		testutil.AssertNoError(t, err)
		if alert == nil || alert.State != calculator.AlertExceeded {
			t.Fatalf("expected exceeded alert, got %+v", alert)
		}
	})
}

func TestSpendingQueries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	food := testutil.CreateTestCategory(t, db, "Food")
	travel := testutil.CreateTestCategory(t, db, "Travel")
	svc := NewExpenseService(db, NewCategoryService(db), nil)

	day := func(m time.Month, d int) time.Time { return time.Date(2026, m, d, 0, 0, 0, 0, time.UTC) }
	testutil.CreateTestExpense(t, db, user.ID, food.ID, testutil.Money("10.10"), day(time.March, 1))
	testutil.CreateTestExpense(t, db, user.ID, food.ID, testutil.Money("20.20"), day(time.March, 31))
	testutil.CreateTestExpense(t, db, user.ID, travel.ID, testutil.Money("100"), day(time.March, 10))
	testutil.CreateTestExpense(t, db, user.ID, food.ID, testutil.Money("99"), day(time.April, 1))
	testutil.CreateTestExpense(t, db, other.ID, food.ID, testutil.Money("77"), day(time.March, 5))
	testutil.CreateTestBudget(t, db, user.ID, food.ID, testutil.Money("50"), 2026, 3)

	t.Run("monthly_total", func(t *testing.T) {
		total, err := svc.GetMonthlySpending(user.ID, 2026, 3)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, total, "130.30")
	})

	t.Run("empty_month", func(t *testing.T) {
		total, err := svc.GetMonthlySpending(user.ID, 2025, 3)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, total, "0")
	})

	t.Run("per_category", func(t *testing.T) {
		rows, err := svc.GetCategorySpending(user.ID, 2026, 3, "")
		testutil.AssertNoError(t, err)
		if len(rows) != 2 {
			t.Fatalf("expected 2 categories, got %d", len(rows))
		}
		if rows[0].Category != "Food" {
			t.Fatalf("expected Food first, got %s", rows[0].Category)
		}
		testutil.AssertDecimal(t, rows[0].Total, "30.30")
		if rows[0].Budget == nil {
			t.Fatal("expected Food budget to be attached")
		}
		testutil.AssertDecimal(t, *rows[0].Budget, "50")
		if rows[1].Budget != nil {
			t.Errorf("expected no Travel budget, got %s", rows[1].Budget)
		}
	})

	t.Run("single_category", func(t *testing.T) {
		rows, err := svc.GetCategorySpending(user.ID, 2026, 3, "travel")
		testutil.AssertNoError(t, err)
		if len(rows) != 1 || rows[0].Category != "Travel" {
			t.Fatalf("expected only Travel, got %+v", rows)
		}
	})

	t.Run("budget_status", func(t *testing.T) {
		statuses, err := svc.GetBudgetStatus(user.ID, 2026, 3)
		testutil.AssertNoError(t, err)
		if len(statuses) != 1 {
			t.Fatalf("expected 1 status, got %d", len(statuses))
		}
		s := statuses[0]
		testutil.AssertDecimal(t, s.Spent, "30.30")
		testutil.AssertDecimal(t, s.Remaining, "19.70")
		testutil.AssertDecimal(t, s.Percentage, "60.6")
		if s.State != calculator.AlertOK {
			t.Errorf("expected ok state, got %s", s.State)
		}
	})

	t.Run("invalid_month", func(t *testing.T) {
		_, err := svc.GetMonthlySpending(user.ID, 2026, 13)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetUserExpenses(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	user := testutil.CreateTestUser(t, db)
	food := testutil.CreateTestCategory(t, db, "Food")
	travel := testutil.CreateTestCategory(t, db, "Travel")
	svc := NewExpenseService(db, NewCategoryService(db), nil)

	for d := 1; d <= 5; d++ {
		testutil.CreateTestExpense(t, db, user.ID, food.ID, testutil.Money("1"), time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC))
	}
	testutil.CreateTestExpense(t, db, user.ID, travel.ID, testutil.Money("9"), time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

	t.Run("newest_first_paginated", func(t *testing.T) {
		page, err := svc.GetUserExpenses(user.ID, pagination.PageRequest{Page: 1, PageSize: 2}, ExpenseFilter{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 6 || page.TotalPages != 3 {
			t.Errorf("expected 6 items over 3 pages, got %d over %d", page.TotalItems, page.TotalPages)
		}
		if len(page.Data) != 2 || page.Data[0].Date.Day() != 5 {
			t.Errorf("expected the 5th first, got %+v", page.Data)
		}
		if page.Data[0].Category.Name != "Food" {
			t.Errorf("expected category preloaded, got %q", page.Data[0].Category.Name)
		}
	})

	t.Run("filter_month", func(t *testing.T) {
		page, err := svc.GetUserExpenses(user.ID, pagination.PageRequest{}, ExpenseFilter{Year: 2026, Month: 2})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 {
			t.Errorf("expected 1 February expense, got %d", page.TotalItems)
		}
	})

	t.Run("filter_category", func(t *testing.T) {
		page, err := svc.GetUserExpenses(user.ID, pagination.PageRequest{}, ExpenseFilter{Category: "FOOD"})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 5 {
			t.Errorf("expected 5 food expenses, got %d", page.TotalItems)
		}
	})

	t.Run("filter_year", func(t *testing.T) {
		page, err := svc.GetUserExpenses(user.ID, pagination.PageRequest{}, ExpenseFilter{Year: 2025})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 0 || len(page.Data) != 0 {
			t.Errorf("expected no 2025 expenses, got %d", page.TotalItems)
		}
	})
}

func TestDeleteExpense(t *testing.T) {
	t.Run("owner_deletes", func(t *testing.T) {
		svc, user, done := newExpenseService(t, nil)
		defer done()

		expense, err := svc.AddExpense(user.ID, testutil.Money("5"), "Food", "", march)
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, svc.DeleteExpense(user.ID, expense.ID))

		err = svc.DeleteExpense(user.ID, expense.ID)
		testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")
	})

	t.Run("other_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, "Food")
		expense := testutil.CreateTestExpense(t, db, owner.ID, category.ID, testutil.Money("5"), march)
		svc := NewExpenseService(db, NewCategoryService(db), nil)

		err := svc.DeleteExpense(other.ID, expense.ID)
		testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")
	})

	t.Run("group_linked", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		alice := testutil.CreateTestUserNamed(t, db, "alice")
		bob := testutil.CreateTestUserNamed(t, db, "bob")
		group := testutil.CreateTestGroup(t, db, alice, bob)
		expenses := NewExpenseService(db, NewCategoryService(db), nil)
		groups := NewGroupService(db, expenses)

		ge, err := groups.AddGroupExpense(alice.ID, group.ID, testutil.Money("40"), "Food", "dinner", "alice", nil)
		testutil.AssertNoError(t, err)

		err = expenses.DeleteExpense(alice.ID, ge.Expense.ID)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}
