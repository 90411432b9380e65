package money

import (
	"github.com/shopspring/decimal"
)

// All ledger amounts carry two decimal places. Any step that can introduce
// more precision (percentage multiplication, proration division) must pass
// through Round2 before the result is used again, so re-runs of a settlement
// are cent-for-cent reproducible.

var (
	hundred = decimal.NewFromInt(100)
)

// Zero is the canonical zero amount.
func Zero() decimal.Decimal {
	return decimal.Zero
}

// Round2 rounds half-up to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FromCents converts integer minor units into a two-place decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Shift(-2)
}

// Cents converts an amount into integer minor units, rounding half-up.
func Cents(d decimal.Decimal) int64 {
	return Round2(d).Shift(2).IntPart()
}

// Percent applies a percentage rate (e.g. 20 for 20%) to an amount and rounds
// the result to two places.
func Percent(amount, ratePercent decimal.Decimal) decimal.Decimal {
	return Round2(amount.Mul(ratePercent.Div(hundred)))
}

// Equal reports cent-exact equality of two amounts.
func Equal(a, b decimal.Decimal) bool {
	return Round2(a).Equal(Round2(b))
}

// IsNegative reports whether the amount is below zero.
func IsNegative(d decimal.Decimal) bool {
	return d.IsNegative()
}
