package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tally/internal/calculator"
	apperrors "tally/internal/errors"
	"tally/internal/logger"
	"tally/internal/metrics"
	"tally/internal/models"
)

// groupService manages groups, shared expenses and member balances.
type groupService struct {
	db       *gorm.DB
	expenses ExpenseServicer
	log      *zap.SugaredLogger
}

// NewGroupService creates a new GroupServicer. The payer's side of every
// group expense is written through expenses.
func NewGroupService(db *gorm.DB, expenses ExpenseServicer) GroupServicer {
	return &groupService{db: db, expenses: expenses, log: logger.Named("groups")}
}

// userAmount is one row of a per-user SUM query.
type userAmount struct {
	UserID string
	Total  decimal.Decimal
}

// requireMember loads the group and checks that userID belongs to it.
func requireMember(db *gorm.DB, groupID, userID string) (*models.Group, error) {
	var group models.Group
	if err := db.Where("id = ?", groupID).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGroupNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var count int64
	if err := db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return nil, apperrors.ErrNotAuthorized
	}
	return &group, nil
}

// groupMembers returns the users of a group ordered by username.
func groupMembers(db *gorm.DB, groupID string) ([]models.User, error) {
	var users []models.User
	if err := db.Model(&models.User{}).
		Joins("JOIN group_members ON group_members.user_id = users.id").
		Where("group_members.group_id = ?", groupID).
		Order("users.username ASC").
		Find(&users).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return users, nil
}

// CreateGroup creates a group with the creator as its first member.
func (s *groupService) CreateGroup(userID, name string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "group name is required")
	}

	group := &models.Group{Name: name}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		member := models.GroupMember{GroupID: group.ID, UserID: userID}
		if err := tx.Create(&member).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		group.Members = []models.GroupMember{member}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// AddMember adds the user with the given username to the group.
func (s *groupService) AddMember(requesterID, groupID, username string) (*models.GroupMember, error) {
	if _, err := requireMember(s.db, groupID, requesterID); err != nil {
		return nil, err
	}

	user, err := findUserByUsername(s.db, username)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, user.ID).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrAlreadyMember
	}

	member := &models.GroupMember{GroupID: groupID, UserID: user.ID}
	if err := s.db.Create(member).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	member.User = *user
	return member, nil
}

// GetUserGroups lists the groups the user belongs to, with their members.
func (s *groupService) GetUserGroups(userID string) ([]models.Group, error) {
	var groups []models.Group
	if err := s.db.Preload("Members.User").
		Where("id IN (?)", s.db.Model(&models.GroupMember{}).Select("group_id").Where("user_id = ?", userID)).
		Order("name ASC").
		Find(&groups).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return groups, nil
}

// GetGroupMembers lists the members of a group the requester belongs to.
func (s *groupService) GetGroupMembers(requesterID, groupID string) ([]models.User, error) {
	if _, err := requireMember(s.db, groupID, requesterID); err != nil {
		return nil, err
	}
	return groupMembers(s.db, groupID)
}

// AddGroupExpense records an expense paid by payerUsername and splits it
// among the group. With no shares every member, payer included, carries
// an even part and the payer's own part needs no share. Explicit shares
// map member usernames to amounts; the payer's entry is ignored.
func (s *groupService) AddGroupExpense(requesterID, groupID string, amount decimal.Decimal, categoryName, description, payerUsername string, shares ShareSplit) (*models.GroupExpense, error) {
	if _, err := requireMember(s.db, groupID, requesterID); err != nil {
		return nil, err
	}
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive")
	}

	payer, err := findUserByUsername(s.db, payerUsername)
	if err != nil {
		return nil, err
	}

	members, err := groupMembers(s.db, groupID)
	if err != nil {
		return nil, err
	}
	owed, err := splitShares(members, payer, amount, shares)
	if err != nil {
		return nil, err
	}

	var groupExpense models.GroupExpense
	err = s.db.Transaction(func(tx *gorm.DB) error {
		groupExpense = models.GroupExpense{
			GroupID:     groupID,
			Description: description,
			Date:        expenseDay(time.Time{}),
		}
		if err := tx.Create(&groupExpense).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		expense, err := s.expenses.RecordExpense(tx, payer.ID, amount, categoryName, description, groupExpense.Date, &groupExpense.ID)
		if err != nil {
			return err
		}

		created := make([]models.ExpenseShare, 0, len(owed))
		for _, m := range members {
			share, ok := owed[m.ID]
			if !ok {
				continue
			}
			row := models.ExpenseShare{GroupExpenseID: groupExpense.ID, UserID: m.ID, Amount: share}
			if err := tx.Create(&row).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			created = append(created, row)
		}

		groupExpense.Expense = expense
		groupExpense.Shares = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.ExpensesRecorded.WithLabelValues("group").Inc()

	date := groupExpense.Expense.Date
	if _, err := s.expenses.CheckBudget(payer.ID, groupExpense.Expense.CategoryID, date.Year(), int(date.Month())); err != nil {
		s.log.Warnw("budget check failed", "error", err, "user_id", payer.ID, "group_expense_id", groupExpense.ID)
	}
	return &groupExpense, nil
}

// splitShares resolves what each non-payer member owes, keyed by user ID.
func splitShares(members []models.User, payer *models.User, amount decimal.Decimal, shares ShareSplit) (map[string]decimal.Decimal, error) {
	byName := make(map[string]models.User, len(members))
	for _, m := range members {
		byName[strings.ToLower(m.Username)] = m
	}
	if _, ok := byName[strings.ToLower(payer.Username)]; !ok {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "payer "+payer.Username+" is not a member of this group")
	}

	owed := make(map[string]decimal.Decimal)
	if len(shares) == 0 {
		each, err := calculator.EvenSplit(amount, len(members))
		if err != nil {
			return nil, apperrors.ErrEmptyGroup
		}
		for _, m := range members {
			if m.ID != payer.ID {
				owed[m.ID] = each
			}
		}
		return owed, nil
	}

	total := decimal.Zero
	for name, share := range shares {
		m, ok := byName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, name+" is not a member of this group")
		}
		if m.ID == payer.ID {
			continue
		}
		share = share.Round(2)
		if !share.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "share for "+name+" must be positive")
		}
		owed[m.ID] = owed[m.ID].Add(share)
		total = total.Add(share)
	}
	if total.GreaterThan(amount) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "shares exceed the expense amount")
	}
	return owed, nil
}

// GetGroupExpenses lists the group's expenses newest first.
func (s *groupService) GetGroupExpenses(requesterID, groupID string) ([]GroupExpenseSummary, error) {
	if _, err := requireMember(s.db, groupID, requesterID); err != nil {
		return nil, err
	}

	var rows []models.GroupExpense
	if err := s.db.Preload("Expense").Preload("Shares").
		Where("group_id = ?", groupID).
		Order("date DESC, created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var users []models.User
	if err := s.db.Where("id IN (?)",
		s.db.Model(&models.Expense{}).Select("user_id").
			Where("group_expense_id IN (?)", s.db.Model(&models.GroupExpense{}).Select("id").Where("group_id = ?", groupID)),
	).Find(&users).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}

	summaries := make([]GroupExpenseSummary, 0, len(rows))
	for _, ge := range rows {
		summary := GroupExpenseSummary{
			ID:          ge.ID,
			Description: ge.Description,
			Date:        ge.Date,
			NumShares:   len(ge.Shares),
		}
		if ge.Expense != nil {
			summary.PaidBy = names[ge.Expense.UserID]
			summary.Amount = ge.Expense.Amount
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// memberBalances computes paid, owed and net for every member. Paid counts
// the member's outlays for this group's expenses; owed counts the member's
// unpaid shares of this group only.
func (s *groupService) memberBalances(groupID string) ([]calculator.MemberBalance, error) {
	members, err := groupMembers(s.db, groupID)
	if err != nil {
		return nil, err
	}

	inGroup := s.db.Model(&models.GroupExpense{}).Select("id").Where("group_id = ?", groupID)

	var paidRows []userAmount
	if err := s.db.Model(&models.Expense{}).
		Select("user_id, COALESCE(SUM(amount), 0) AS total").
		Where("group_expense_id IN (?)", inGroup).
		Group("user_id").
		Scan(&paidRows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var owedRows []userAmount
	if err := s.db.Model(&models.ExpenseShare{}).
		Select("user_id, COALESCE(SUM(amount), 0) AS total").
		Where("group_expense_id IN (?) AND paid = ?", inGroup, false).
		Group("user_id").
		Scan(&owedRows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	names := make(map[string]string, len(members))
	usernames := make([]string, 0, len(members))
	for _, m := range members {
		names[m.ID] = m.Username
		usernames = append(usernames, m.Username)
	}
	byName := func(rows []userAmount) map[string]decimal.Decimal {
		out := make(map[string]decimal.Decimal, len(rows))
		for _, r := range rows {
			if name, ok := names[r.UserID]; ok {
				out[name] = r.Total.Round(2)
			}
		}
		return out
	}

	return calculator.NetBalances(usernames, byName(paidRows), byName(owedRows)), nil
}

// GetBalances returns each member's net position (paid - owed) by username.
func (s *groupService) GetBalances(requesterID, groupID string) (map[string]decimal.Decimal, error) {
	if _, err := requireMember(s.db, groupID, requesterID); err != nil {
		return nil, err
	}

	balances, err := s.memberBalances(groupID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(balances))
	for _, b := range balances {
		out[b.Member] = b.Net
	}
	return out, nil
}

// GetSettlements suggests the payments that would settle the group.
func (s *groupService) GetSettlements(requesterID, groupID string) ([]calculator.DebtEdge, error) {
	if _, err := requireMember(s.db, groupID, requesterID); err != nil {
		return nil, err
	}

	balances, err := s.memberBalances(groupID)
	if err != nil {
		return nil, err
	}
	edges := calculator.SimplifyDebts(balances)
	if edges == nil {
		edges = []calculator.DebtEdge{}
	}
	return edges, nil
}

// GetUserShares lists the shares the user owes across all groups.
func (s *groupService) GetUserShares(userID string, unpaidOnly bool) ([]models.ExpenseShare, error) {
	q := s.db.Where("user_id = ?", userID)
	if unpaidOnly {
		q = q.Where("paid = ?", false)
	}

	var shares []models.ExpenseShare
	if err := q.Order("created_at DESC").Find(&shares).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return shares, nil
}

// MarkSharePaid settles a share. Marking a paid share again is a no-op.
func (s *groupService) MarkSharePaid(requesterID, shareID string) (*models.ExpenseShare, error) {
	var share models.ExpenseShare
	if err := s.db.Where("id = ?", shareID).First(&share).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrShareNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var groupExpense models.GroupExpense
	if err := s.db.Where("id = ?", share.GroupExpenseID).First(&groupExpense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if _, err := requireMember(s.db, groupExpense.GroupID, requesterID); err != nil {
		return nil, err
	}

	if share.Paid {
		return &share, nil
	}

	now := time.Now()
	if err := s.db.Model(&share).Updates(map[string]interface{}{
		"paid":    true,
		"paid_at": now,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	share.Paid = true
	share.PaidAt = &now
	return &share, nil
}

// DeleteGroup removes a group with its shares, expenses, group expenses and
// memberships, children first, in one transaction.
func (s *groupService) DeleteGroup(requesterID, groupID string) error {
	if _, err := requireMember(s.db, groupID, requesterID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		inGroup := tx.Model(&models.GroupExpense{}).Select("id").Where("group_id = ?", groupID)

		steps := []struct {
			model interface{}
			query string
			arg   interface{}
		}{
			{&models.ExpenseShare{}, "group_expense_id IN (?)", inGroup},
			{&models.Expense{}, "group_expense_id IN (?)", inGroup},
			{&models.GroupExpense{}, "group_id = ?", groupID},
			{&models.GroupMember{}, "group_id = ?", groupID},
			{&models.Group{}, "id = ?", groupID},
		}
		for _, step := range steps {
			if err := tx.Where(step.query, step.arg).Delete(step.model).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
}
