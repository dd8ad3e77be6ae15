package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MemberBalance is one member's position in a group.
// Net is positive when the member is owed money and negative when they owe.
type MemberBalance struct {
	Member string          `json:"member"`
	Paid   decimal.Decimal `json:"paid"`
	Owed   decimal.Decimal `json:"owed"`
	Net    decimal.Decimal `json:"net"`
}

// DebtEdge is a suggested payment from a debtor to a creditor.
type DebtEdge struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// NetBalances computes paid - owed for every member. Members missing from
// either map count as zero. Output follows the order of members.
func NetBalances(members []string, paid, owed map[string]decimal.Decimal) []MemberBalance {
	balances := make([]MemberBalance, 0, len(members))
	for _, m := range members {
		p := paid[m]
		o := owed[m]
		balances = append(balances, MemberBalance{
			Member: m,
			Paid:   p,
			Owed:   o,
			Net:    p.Sub(o),
		})
	}
	return balances
}

// SimplifyDebts greedily matches the largest debtor with the largest
// creditor until every balance is settled. Balances that do not sum to zero
// leave the remainder unmatched.
func SimplifyDebts(balances []MemberBalance) []DebtEdge {
	type position struct {
		member string
		amount decimal.Decimal
	}

	var creditors, debtors []position
	for _, b := range balances {
		switch {
		case b.Net.IsPositive():
			creditors = append(creditors, position{b.Member, b.Net})
		case b.Net.IsNegative():
			debtors = append(debtors, position{b.Member, b.Net.Neg()})
		}
	}

	byAmount := func(ps []position) {
		sort.SliceStable(ps, func(i, j int) bool {
			if c := ps[i].amount.Cmp(ps[j].amount); c != 0 {
				return c > 0
			}
			return ps[i].member < ps[j].member
		})
	}
	byAmount(creditors)
	byAmount(debtors)

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := decimal.Min(debtors[i].amount, creditors[j].amount)
		if amount.IsPositive() {
			edges = append(edges, DebtEdge{
				From:   debtors[i].member,
				To:     creditors[j].member,
				Amount: amount,
			})
		}

		debtors[i].amount = debtors[i].amount.Sub(amount)
		creditors[j].amount = creditors[j].amount.Sub(amount)

		if debtors[i].amount.IsZero() {
			i++
		}
		if creditors[j].amount.IsZero() {
			j++
		}
	}
	return edges
}
