package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "tally/internal/errors"
	"tally/internal/services"
)

// GroupHandler handles groups, shared expenses and shares.
type GroupHandler struct {
	groupService services.GroupServicer
	auditService services.AuditServicer
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groupService services.GroupServicer, auditService services.AuditServicer) *GroupHandler {
	return &GroupHandler{groupService: groupService, auditService: auditService}
}

// CreateGroupRequest represents the request payload for creating a group.
type CreateGroupRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// AddMemberRequest represents the request payload for adding a member.
type AddMemberRequest struct {
	Username string `json:"username" binding:"required"`
}

// AddGroupExpenseRequest represents the request payload for a shared expense.
// Without shares the amount is split evenly across all members.
type AddGroupExpenseRequest struct {
	Amount      decimal.Decimal            `json:"amount" binding:"required,money" swaggertype:"string" example:"90.00"`
	Category    string                     `json:"category" binding:"required,category_name"`
	Description string                     `json:"description" binding:"max=255"`
	PaidBy      string                     `json:"paid_by"`
	Shares      map[string]decimal.Decimal `json:"shares" binding:"omitempty,dive,money" swaggertype:"object,string"`
}

// CreateGroup creates a group with the caller as its first member.
// @Summary     Create a group
// @Tags        groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateGroupRequest true "Group details"
// @Success     201 {object} models.Group "Group created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /groups [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	group, err := h.groupService.CreateGroup(userID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_GROUP", "group", group.ID, c.ClientIP(),
		map[string]interface{}{"name": group.Name})

	c.JSON(http.StatusCreated, gin.H{"group": group})
}

// GetGroups lists the caller's groups.
// @Summary     List groups
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Group "Groups"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /groups [get]
func (h *GroupHandler) GetGroups(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	groups, err := h.groupService.GetUserGroups(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// DeleteGroup deletes a group and everything recorded in it.
// @Summary     Delete a group
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Group ID"
// @Success     200 {object} MessageResponse "Group deleted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /groups/{id} [delete]
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	userID, groupID, ok := h.groupRequest(c)
	if !ok {
		return
	}

	if err := h.groupService.DeleteGroup(userID, groupID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_GROUP", "group", groupID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Group deleted successfully"})
}

// GetMembers lists a group's members.
// @Summary     List group members
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Group ID"
// @Success     200 {array} UserResponse "Members"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /groups/{id}/members [get]
func (h *GroupHandler) GetMembers(c *gin.Context) {
	userID, groupID, ok := h.groupRequest(c)
	if !ok {
		return
	}

	users, err := h.groupService.GetGroupMembers(userID, groupID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	members := make([]UserResponse, 0, len(users))
	for i := range users {
		members = append(members, toUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// AddMember adds a user to a group by username.
// @Summary     Add a group member
// @Tags        groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string           true "Group ID"
// @Param       request body AddMemberRequest true "Member"
// @Success     201 {object} models.GroupMember "Member added"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Group or user not found"
// @Failure     409 {object} ErrorResponse "Already a member"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /groups/{id}/members [post]
func (h *GroupHandler) AddMember(c *gin.Context) {
	userID, groupID, ok := h.groupRequest(c)
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	member, err := h.groupService.AddMember(userID, groupID, req.Username)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ADD_MEMBER", "group", groupID, c.ClientIP(),
		map[string]interface{}{"username": req.Username})

	c.JSON(http.StatusCreated, gin.H{"member": member})
}

// GetExpenses lists a group's shared expenses.
// @Summary     List group expenses
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Group ID"
// @Success     200 {array} services.GroupExpenseSummary "Group expenses"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /groups/{id}/expenses [get]
func (h *GroupHandler) GetExpenses(c *gin.Context) {
	userID, groupID, ok := h.groupRequest(c)
	if !ok {
		return
	}

	expenses, err := h.groupService.GetGroupExpenses(userID, groupID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

// AddExpense records an expense paid by one member and shared with the group.
// @Summary     Add a group expense
// @Description paid_by defaults to the caller; shares map usernames to amounts and default to an even split
// @Tags        groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                 true "Group ID"
// @Param       request body AddGroupExpenseRequest true "Expense details"
// @Success     201 {object} models.GroupExpense "Group expense recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Group or payer not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /groups/{id}/expenses [post]
func (h *GroupHandler) AddExpense(c *gin.Context) {
	userID, groupID, ok := h.groupRequest(c)
	if !ok {
		return
	}

	var req AddGroupExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	payer := req.PaidBy
	if payer == "" {
		payer = c.GetString("username")
	}
	if payer == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "paid_by is required"))
		return
	}

	groupExpense, err := h.groupService.AddGroupExpense(userID, groupID, req.Amount, req.Category, req.Description, payer, services.ShareSplit(req.Shares))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_GROUP_EXPENSE", "group_expense", groupExpense.ID, c.ClientIP(),
		map[string]interface{}{"group_id": groupID, "amount": req.Amount.String(), "paid_by": payer})

	c.JSON(http.StatusCreated, gin.H{"group_expense": groupExpense})
}

// GetBalances reports each member's net balance.
// @Summary     Group balances
// @Description Positive balances are owed money, negative balances owe money
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Group ID"
// @Success     200 {object} map[string]string "Balances by username"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /groups/{id}/balances [get]
func (h *GroupHandler) GetBalances(c *gin.Context) {
	userID, groupID, ok := h.groupRequest(c)
	if !ok {
		return
	}

	balances, err := h.groupService.GetBalances(userID, groupID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balances": balances})
}

// GetSettlements suggests who should pay whom to settle the group.
// @Summary     Group settlements
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Group ID"
// @Success     200 {array} calculator.DebtEdge "Suggested payments"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /groups/{id}/settlements [get]
func (h *GroupHandler) GetSettlements(c *gin.Context) {
	userID, groupID, ok := h.groupRequest(c)
	if !ok {
		return
	}

	settlements, err := h.groupService.GetSettlements(userID, groupID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settlements": settlements})
}

// GetShares lists the shares the caller owes.
// @Summary     List my shares
// @Tags        shares
// @Produce     json
// @Security    BearerAuth
// @Param       unpaid query bool false "Only unpaid shares"
// @Success     200 {array} models.ExpenseShare "Shares"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /shares [get]
func (h *GroupHandler) GetShares(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q struct {
		Unpaid bool `form:"unpaid"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	shares, err := h.groupService.GetUserShares(userID, q.Unpaid)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"shares": shares})
}

// PayShare marks a share as paid.
// @Summary     Mark a share paid
// @Tags        shares
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Share ID"
// @Success     200 {object} models.ExpenseShare "Share"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Share not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /shares/{id}/pay [post]
func (h *GroupHandler) PayShare(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	shareID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	share, err := h.groupService.MarkSharePaid(userID, shareID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "PAY_SHARE", "expense_share", share.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"share": share})
}

// groupRequest extracts the caller and the :id group path parameter,
// writing the error response itself when either is missing.
func (h *GroupHandler) groupRequest(c *gin.Context) (string, string, bool) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return "", "", false
	}
	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return "", "", false
	}
	return userID, groupID, true
}
