package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/simonvc/bookkeeper/internal/ledger"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const dateLayout = "2006-01-02"

var printer = message.NewPrinter(language.English)

// money renders miliunits with thousands separators and two decimals.
// Negative amounts are shown in parentheses. Only the whole part goes
// through the printer so no float conversion is involved.
func money(m int64) string {
	if m < 0 {
		return "(" + money(-m) + ")"
	}
	fixed := ledger.FormatAmount(m)
	whole, frac, _ := strings.Cut(fixed, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return fixed
	}
	return printer.Sprint(number.Decimal(n)) + "." + frac
}

func center(s string, w int) string {
	if len(s) >= w {
		return s
	}
	pad := (w - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-2] + ".."
	}
	return s
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

func parseRange(from, to string) (ledger.DateRange, error) {
	var r ledger.DateRange
	var err error
	if r.From, err = parseDate(from); err != nil {
		return r, err
	}
	if r.To, err = parseDate(to); err != nil {
		return r, err
	}
	return r, nil
}

func rangeLabel(r ledger.DateRange) string {
	switch {
	case r.From.IsZero() && r.To.IsZero():
		return "all dates"
	case r.From.IsZero():
		return "up to " + r.To.Format(dateLayout)
	case r.To.IsZero():
		return "from " + r.From.Format(dateLayout)
	default:
		return r.From.Format(dateLayout) + " to " + r.To.Format(dateLayout)
	}
}
