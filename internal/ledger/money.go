package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts are stored as miliunits: 1000 miliunits make one currency unit.
const MiliunitExponent = 3

// ParseAmount converts a decimal string like "12.345" into miliunits.
// More than three fractional digits are rejected rather than rounded.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, Invalid(ErrInvalidAmount, "empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, Invalid(ErrInvalidAmount, "%q", s)
	}
	shifted := d.Shift(MiliunitExponent)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, Invalid(ErrInvalidAmount, "%q has more than %d decimal places", s, MiliunitExponent)
	}
	if shifted.Abs().GreaterThan(decimal.NewFromInt(1 << 53)) {
		return 0, Invalid(ErrInvalidAmount, "%q is out of range", s)
	}
	return shifted.IntPart(), nil
}

// FromMiliunits returns the amount as a decimal in currency units.
func FromMiliunits(m int64) decimal.Decimal {
	return decimal.New(m, -MiliunitExponent)
}

// FormatAmount renders miliunits with two decimal places, e.g. 12345 -> "12.35".
func FormatAmount(m int64) string {
	return FromMiliunits(m).StringFixed(2)
}

// FormatExact renders miliunits without losing precision, e.g. 12345 -> "12.345".
func FormatExact(m int64) string {
	return FromMiliunits(m).StringFixed(MiliunitExponent)
}

// FormatSigned renders an amount with an explicit sign for deltas.
func FormatSigned(m int64) string {
	if m > 0 {
		return fmt.Sprintf("+%s", FormatAmount(m))
	}
	return FormatAmount(m)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
