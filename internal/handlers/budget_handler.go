package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "tally/internal/errors"
	"tally/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService  services.BudgetServicer
	expenseService services.ExpenseServicer
	auditService   services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, expenseService services.ExpenseServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, expenseService: expenseService, auditService: auditService}
}

// SetBudgetRequest represents the request payload for setting a budget.
type SetBudgetRequest struct {
	Category       string           `json:"category" binding:"required,category_name"`
	Amount         decimal.Decimal  `json:"amount" binding:"required" swaggertype:"string" example:"250.00"`
	Year           int              `json:"year" binding:"omitempty,min=1970,max=9999"`
	Month          int              `json:"month" binding:"omitempty,min=1,max=12"`
	AlertThreshold *decimal.Decimal `json:"alert_threshold" binding:"omitempty,percent" swaggertype:"string" example:"90"`
}

// BudgetStatusResponse lists the month's budgets with their spending.
type BudgetStatusResponse struct {
	Year    int                     `json:"year"`
	Month   int                     `json:"month"`
	Budgets []services.BudgetStatus `json:"budgets"`
}

// SetBudget creates or replaces a monthly category budget.
// @Summary     Set a budget
// @Description Create or replace the budget for a category and month (defaults to the current month, 90% alert threshold)
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SetBudgetRequest true "Budget details"
// @Success     200 {object} models.Budget "Budget saved"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [put]
func (h *BudgetHandler) SetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	budget, err := h.budgetService.SetBudget(userID, req.Category, req.Amount, req.Year, req.Month, req.AlertThreshold)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SET_BUDGET", "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"category": req.Category, "amount": req.Amount.String(), "year": budget.Year, "month": budget.Month})

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// GetBudgets lists the month's budgets.
// @Summary     List budgets
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       year  query int false "Year (default current)"
// @Param       month query int false "Month 1-12 (default current)"
// @Success     200 {array} models.Budget "Budgets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
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

	budgets, err := h.budgetService.GetBudgets(userID, q.Year, q.Month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budgets": budgets})
}

// GetBudgetStatus reports spending against each of the month's budgets.
// @Summary     Budget status
// @Description Spent, remaining, percentage used and alert state per budget
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       year  query int false "Year (default current)"
// @Param       month query int false "Month 1-12 (default current)"
// @Success     200 {object} BudgetStatusResponse "Budget status"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/status [get]
func (h *BudgetHandler) GetBudgetStatus(c *gin.Context) {
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

	statuses, err := h.expenseService.GetBudgetStatus(userID, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, BudgetStatusResponse{Year: year, Month: month, Budgets: statuses})
}

// DeleteBudget removes a category budget for a month.
// @Summary     Delete a budget
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       year     path int    true "Year"
// @Param       month    path int    true "Month 1-12"
// @Param       category path string true "Category name"
// @Success     200 {object} MessageResponse "Budget deleted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{year}/{month}/{category} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, yerr := strconv.Atoi(c.Param("year"))
	month, merr := strconv.Atoi(c.Param("month"))
	if yerr != nil || merr != nil || month < 1 || month > 12 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid year or month"))
		return
	}
	category := c.Param("category")

	if err := h.budgetService.DeleteBudget(userID, category, year, month); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_BUDGET", "budget", "", c.ClientIP(),
		map[string]interface{}{"category": category, "year": year, "month": month})

	c.JSON(http.StatusOK, MessageResponse{Message: "Budget deleted successfully"})
}
