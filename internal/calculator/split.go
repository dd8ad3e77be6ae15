package calculator

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNoParticipants is returned when an amount is split across nobody.
var ErrNoParticipants = errors.New("must have at least one participant")

// EvenSplit divides amount across n participants, rounded down to cents.
// Rounding residue stays with the payer, whose share is implicit.
func EvenSplit(amount decimal.Decimal, n int) (decimal.Decimal, error) {
	if n <= 0 {
		return decimal.Zero, ErrNoParticipants
	}
	return amount.Div(decimal.NewFromInt(int64(n))).RoundDown(2), nil
}
