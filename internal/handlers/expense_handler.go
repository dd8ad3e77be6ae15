package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "tally/internal/errors"
	"tally/internal/pagination"
	"tally/internal/services"
)

const dateLayout = "2006-01-02"

// ExpenseHandler handles personal expense requests.
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
	auditService   services.AuditServicer
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService services.ExpenseServicer, auditService services.AuditServicer) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService, auditService: auditService}
}

// CreateExpenseRequest represents the request payload for recording an expense.
type CreateExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required,money" swaggertype:"string" example:"12.50"`
	Category    string          `json:"category" binding:"required,category_name"`
	Description string          `json:"description" binding:"max=255"`
	Date        string          `json:"date" binding:"omitempty,datetime=2006-01-02" example:"2026-10-17"`
}

// ExpenseListQuery holds the query parameters for listing expenses.
type ExpenseListQuery struct {
	pagination.PageRequest
	Year     int    `form:"year" binding:"omitempty,min=1970,max=9999"`
	Month    int    `form:"month" binding:"omitempty,min=1,max=12"`
	Category string `form:"category"`
}

// SpendingSummary is the monthly total with the per-category breakdown.
type SpendingSummary struct {
	Year       int                         `json:"year"`
	Month      int                         `json:"month"`
	Total      decimal.Decimal             `json:"total" swaggertype:"string"`
	Categories []services.CategorySpending `json:"categories"`
}

// CreateExpense records a personal expense and checks its budget.
// @Summary     Record an expense
// @Description Record a personal expense; a budget alert is sent when the category's monthly budget is approaching or exceeded
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateExpenseRequest true "Expense details"
// @Success     201 {object} models.Expense "Expense recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var date time.Time
	if req.Date != "" {
		date, err = time.Parse(dateLayout, req.Date)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be YYYY-MM-DD"))
			return
		}
	}

	expense, err := h.expenseService.AddExpense(userID, req.Amount, req.Category, req.Description, date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_EXPENSE", "expense", expense.ID, c.ClientIP(),
		map[string]interface{}{"amount": req.Amount.String(), "category": req.Category})

	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// GetExpenses lists the user's expenses.
// @Summary     List expenses
// @Description Paginated list of the user's expenses, newest first
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       year      query int    false "Filter by year"
// @Param       month     query int    false "Filter by month (1-12)"
// @Param       category  query string false "Filter by category name"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Expense] "Paginated expenses"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [get]
func (h *ExpenseHandler) GetExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q ExpenseListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.expenseService.GetUserExpenses(userID, q.PageRequest, services.ExpenseFilter{
		Year:     q.Year,
		Month:    q.Month,
		Category: q.Category,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteExpense deletes a personal expense.
// @Summary     Delete an expense
// @Description Expenses recorded for a group expense are removed with their group
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} MessageResponse "Expense deleted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.expenseService.DeleteExpense(userID, expenseID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_EXPENSE", "expense", expenseID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Expense deleted successfully"})
}

// GetSummary reports monthly spending, in total and per category.
// @Summary     Monthly spending summary
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       year     query int    false "Year (default current)"
// @Param       month    query int    false "Month 1-12 (default current)"
// @Param       category query string false "Limit the breakdown to one category"
// @Success     200 {object} SpendingSummary "Spending summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/summary [get]
func (h *ExpenseHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q periodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	year, month := currentPeriod(q)

	total, err := h.expenseService.GetMonthlySpending(userID, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categories, err := h.expenseService.GetCategorySpending(userID, year, month, c.Query("category"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	if categories == nil {
		categories = []services.CategorySpending{}
	}

	c.JSON(http.StatusOK, SpendingSummary{Year: year, Month: month, Total: total, Categories: categories})
}

// currentPeriod fills a zero year or month with today's.
func currentPeriod(q periodQuery) (int, int) {
	now := time.Now().UTC()
	year, month := q.Year, q.Month
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	return year, month
}
