package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tally/internal/calculator"
	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/pagination"
	"tally/internal/services"
)

// --- mock expense service ---

type mockExpenseService struct {
	addExpenseFn          func(userID string, amount decimal.Decimal, categoryName, description string, date time.Time) (*models.Expense, error)
	getMonthlySpendingFn  func(userID string, year, month int) (decimal.Decimal, error)
	getCategorySpendingFn func(userID string, year, month int, categoryName string) ([]services.CategorySpending, error)
	getUserExpensesFn     func(userID string, page pagination.PageRequest, filter services.ExpenseFilter) (*pagination.PageResponse[models.Expense], error)
	deleteExpenseFn       func(userID, expenseID string) error
	getBudgetStatusFn     func(userID string, year, month int) ([]services.BudgetStatus, error)
}

func (m *mockExpenseService) AddExpense(userID string, amount decimal.Decimal, categoryName, description string, date time.Time) (*models.Expense, error) {
	if m.addExpenseFn != nil {
		return m.addExpenseFn(userID, amount, categoryName, description, date)
	}
	return &models.Expense{}, nil
}

func (m *mockExpenseService) RecordExpense(_ *gorm.DB, userID string, amount decimal.Decimal, categoryName, description string, date time.Time, _ *string) (*models.Expense, error) {
	return m.AddExpense(userID, amount, categoryName, description, date)
}

func (m *mockExpenseService) CheckBudget(_, _ string, _, _ int) (*calculator.BudgetAlert, error) {
	return nil, nil
}

func (m *mockExpenseService) GetMonthlySpending(userID string, year, month int) (decimal.Decimal, error) {
	if m.getMonthlySpendingFn != nil {
		return m.getMonthlySpendingFn(userID, year, month)
	}
	return decimal.Zero, nil
}

func (m *mockExpenseService) GetCategorySpending(userID string, year, month int, categoryName string) ([]services.CategorySpending, error) {
	if m.getCategorySpendingFn != nil {
		return m.getCategorySpendingFn(userID, year, month, categoryName)
	}
	return nil, nil
}

func (m *mockExpenseService) GetUserExpenses(userID string, page pagination.PageRequest, filter services.ExpenseFilter) (*pagination.PageResponse[models.Expense], error) {
	if m.getUserExpensesFn != nil {
		return m.getUserExpensesFn(userID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Expense{}, page, 0)
	return &resp, nil
}

func (m *mockExpenseService) DeleteExpense(userID, expenseID string) error {
	if m.deleteExpenseFn != nil {
		return m.deleteExpenseFn(userID, expenseID)
	}
	return nil
}

func (m *mockExpenseService) GetBudgetStatus(userID string, year, month int) ([]services.BudgetStatus, error) {
	if m.getBudgetStatusFn != nil {
		return m.getBudgetStatusFn(userID, year, month)
	}
	return []services.BudgetStatus{}, nil
}

var _ services.ExpenseServicer = (*mockExpenseService)(nil)

func setupExpenseRouter(handler *ExpenseHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/expenses", handler.CreateExpense)
	auth.GET("/expenses", handler.GetExpenses)
	auth.GET("/expenses/summary", handler.GetSummary)
	auth.DELETE("/expenses/:id", handler.DeleteExpense)
	return r
}

func TestExpenseHandler_CreateExpense(t *testing.T) {
	t.Run("returns 201 and passes the parsed request through", func(t *testing.T) {
		var gotAmount decimal.Decimal
		var gotCategory string
		var gotDate time.Time
		audit := &mockAuditService{}
		svc := &mockExpenseService{
			addExpenseFn: func(userID string, amount decimal.Decimal, categoryName, description string, date time.Time) (*models.Expense, error) {
				gotAmount, gotCategory, gotDate = amount, categoryName, date
				return &models.Expense{Base: models.Base{ID: testOtherID}, UserID: userID, Amount: amount, Description: description}, nil
			},
		}
		r := setupExpenseRouter(NewExpenseHandler(svc, audit))

		rec := doRequest(r, "POST", "/expenses", `{"amount":"12.50","category":"Food","description":"lunch","date":"2026-03-14"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !gotAmount.Equal(decimal.RequireFromString("12.50")) {
			t.Errorf("expected amount 12.50, got %s", gotAmount)
		}
		if gotCategory != "Food" {
			t.Errorf("expected Food, got %q", gotCategory)
		}
		if want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC); !gotDate.Equal(want) {
			t.Errorf("expected date %v, got %v", want, gotDate)
		}
		if got := audit.actions(); len(got) != 1 || got[0] != "CREATE_EXPENSE" {
			t.Errorf("expected CREATE_EXPENSE audit entry, got %v", got)
		}
	})

	t.Run("omitted date is passed as zero", func(t *testing.T) {
		var gotDate time.Time
		svc := &mockExpenseService{
			addExpenseFn: func(_ string, amount decimal.Decimal, _, _ string, date time.Time) (*models.Expense, error) {
				gotDate = date
				return &models.Expense{Amount: amount}, nil
			},
		}
		r := setupExpenseRouter(NewExpenseHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/expenses", `{"amount":"5","category":"Food"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !gotDate.IsZero() {
			t.Errorf("expected zero date, got %v", gotDate)
		}
	})

	cases := map[string]string{
		"negative amount":    `{"amount":"-5","category":"Food"}`,
		"zero amount":        `{"amount":"0","category":"Food"}`,
		"sub-cent amount":    `{"amount":"1.005","category":"Food"}`,
		"missing category":   `{"amount":"5"}`,
		"malformed date":     `{"amount":"5","category":"Food","date":"14/03/2026"}`,
		"non-numeric amount": `{"amount":"lots","category":"Food"}`,
	}
	for name, body := range cases {
		t.Run("returns 400 on "+name, func(t *testing.T) {
			r := setupExpenseRouter(NewExpenseHandler(&mockExpenseService{}, &mockAuditService{}))

			rec := doRequest(r, "POST", "/expenses", body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestExpenseHandler_GetExpenses(t *testing.T) {
	t.Run("binds pagination and filters", func(t *testing.T) {
		var gotPage pagination.PageRequest
		var gotFilter services.ExpenseFilter
		svc := &mockExpenseService{
			getUserExpensesFn: func(_ string, page pagination.PageRequest, filter services.ExpenseFilter) (*pagination.PageResponse[models.Expense], error) {
				gotPage, gotFilter = page, filter
				resp := pagination.NewPageResponse([]models.Expense{{Description: "lunch"}}, page, 1)
				return &resp, nil
			},
		}
		r := setupExpenseRouter(NewExpenseHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/expenses?page=2&page_size=5&year=2026&month=3&category=Food", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotPage.Page != 2 || gotPage.PageSize != 5 {
			t.Errorf("unexpected page request %+v", gotPage)
		}
		if gotFilter != (services.ExpenseFilter{Year: 2026, Month: 3, Category: "Food"}) {
			t.Errorf("unexpected filter %+v", gotFilter)
		}
		if data := parseJSON(t, rec)["data"].([]interface{}); len(data) != 1 {
			t.Errorf("expected 1 expense, got %d", len(data))
		}
	})

	t.Run("returns 400 on invalid month", func(t *testing.T) {
		r := setupExpenseRouter(NewExpenseHandler(&mockExpenseService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/expenses?month=13", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestExpenseHandler_DeleteExpense(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		var gotID string
		svc := &mockExpenseService{
			deleteExpenseFn: func(_, expenseID string) error {
				gotID = expenseID
				return nil
			},
		}
		r := setupExpenseRouter(NewExpenseHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/expenses/"+testOtherID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotID != testOtherID {
			t.Errorf("expected %s, got %s", testOtherID, gotID)
		}
	})

	t.Run("returns 400 on malformed id", func(t *testing.T) {
		r := setupExpenseRouter(NewExpenseHandler(&mockExpenseService{}, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/expenses/not-a-uuid", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		svc := &mockExpenseService{
			deleteExpenseFn: func(_, _ string) error { return apperrors.ErrExpenseNotFound },
		}
		r := setupExpenseRouter(NewExpenseHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/expenses/"+testOtherID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "EXPENSE_NOT_FOUND")
	})
}

func TestExpenseHandler_GetSummary(t *testing.T) {
	t.Run("reports the requested month", func(t *testing.T) {
		budget := decimal.NewFromInt(100)
		svc := &mockExpenseService{
			getMonthlySpendingFn: func(_ string, year, month int) (decimal.Decimal, error) {
				if year != 2026 || month != 3 {
					t.Errorf("unexpected period %d-%d", year, month)
				}
				return decimal.RequireFromString("130.30"), nil
			},
			getCategorySpendingFn: func(_ string, _, _ int, _ string) ([]services.CategorySpending, error) {
				return []services.CategorySpending{{Category: "Food", Total: decimal.RequireFromString("60.60"), Budget: &budget}}, nil
			},
		}
		r := setupExpenseRouter(NewExpenseHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/expenses/summary?year=2026&month=3", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["total"] != "130.3" {
			t.Errorf("expected total 130.3, got %v", result["total"])
		}
		if categories := result["categories"].([]interface{}); len(categories) != 1 {
			t.Errorf("expected 1 category, got %d", len(categories))
		}
	})

	t.Run("defaults to the current month", func(t *testing.T) {
		now := time.Now().UTC()
		svc := &mockExpenseService{
			getMonthlySpendingFn: func(_ string, year, month int) (decimal.Decimal, error) {
				if year != now.Year() || month != int(now.Month()) {
					t.Errorf("expected current period, got %d-%d", year, month)
				}
				return decimal.Zero, nil
			},
		}
		r := setupExpenseRouter(NewExpenseHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/expenses/summary", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if categories, ok := parseJSON(t, rec)["categories"].([]interface{}); !ok || len(categories) != 0 {
			t.Errorf("expected empty categories array, got %v", categories)
		}
	})
}
