// Package calculator holds the pure money math of the ledger: budget alert
// classification, even splits and balance netting. Nothing in here touches
// the database, so every rule can be tested with plain values.
package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AlertState classifies month-to-date spending against a budget.
type AlertState string

const (
	AlertOK          AlertState = "ok"
	AlertApproaching AlertState = "approaching"
	AlertExceeded    AlertState = "exceeded"
)

var hundred = decimal.NewFromInt(100)

// EvaluateBudget compares spending with a budget amount.
// Spending strictly above the budget is exceeded; spending at or above
// thresholdPct percent of the budget is approaching.
func EvaluateBudget(totalSpent, budgetAmount, thresholdPct decimal.Decimal) AlertState {
	if totalSpent.GreaterThan(budgetAmount) {
		return AlertExceeded
	}
	limit := budgetAmount.Mul(thresholdPct).Div(hundred)
	if totalSpent.GreaterThanOrEqual(limit) {
		return AlertApproaching
	}
	return AlertOK
}

// UsedPercentage returns spent as a percentage of budget. A zero budget
// reports 100% once anything is spent and 0% otherwise.
func UsedPercentage(spent, budget decimal.Decimal) decimal.Decimal {
	if budget.IsZero() {
		if spent.IsPositive() {
			return hundred
		}
		return decimal.Zero
	}
	return spent.Div(budget).Mul(hundred)
}

// BudgetAlert is the notification produced for a budget that needs attention.
type BudgetAlert struct {
	State   AlertState
	Subject string
	Body    string
}

// BuildBudgetAlert evaluates the budget and formats the alert text.
// It returns nil when spending is within the budget.
func BuildBudgetAlert(category string, spent, budget, thresholdPct decimal.Decimal) *BudgetAlert {
	switch EvaluateBudget(spent, budget, thresholdPct) {
	case AlertExceeded:
		return &BudgetAlert{
			State:   AlertExceeded,
			Subject: fmt.Sprintf("Budget Exceeded for %s", category),
			Body: fmt.Sprintf("You've spent $%s out of $%s budget for %s.",
				spent.StringFixed(2), budget.StringFixed(2), category),
		}
	case AlertApproaching:
		return &BudgetAlert{
			State:   AlertApproaching,
			Subject: fmt.Sprintf("Budget Alert for %s", category),
			Body: fmt.Sprintf("You've used %s%% of your budget for %s. $%s remaining.",
				UsedPercentage(spent, budget).StringFixed(1), category, budget.Sub(spent).StringFixed(2)),
		}
	default:
		return nil
	}
}
