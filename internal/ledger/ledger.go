// Package ledger holds the money and calendar rules of the revenue ledger.
package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)

	ErrSplitOutOfRange = errors.New("revenue split must be between 0 and 100")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
)

// Split divides amount between the operator (fca) and the location. The
// location share is rounded to cents and the operator gets the remainder, so
// the two always add up to amount. A null split gives the location nothing.
func Split(amount decimal.Decimal, split decimal.NullDecimal) (fca, location decimal.Decimal) {
	amount = amount.Round(2)
	if !split.Valid {
		return amount, decimal.Zero
	}
	location = amount.Mul(split.Decimal).Div(hundred).Round(2)
	return amount.Sub(location), location
}

// ValidateSplit checks that a revenue split is a percentage.
func ValidateSplit(split decimal.NullDecimal) error {
	if !split.Valid {
		return nil
	}
	if split.Decimal.IsNegative() || split.Decimal.GreaterThan(hundred) {
		return ErrSplitOutOfRange
	}
	return nil
}

// ParseAmount parses user-entered money such as "1,234.50" or "$20". Blank
// input parses as zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// ParseOptionalAmount is ParseAmount for nullable columns: blank input is null.
func ParseOptionalAmount(s string) (decimal.NullDecimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// ParseOptionalDate parses a YYYY-MM-DD date; blank input is nil.
func ParseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseRevenueDate accepts either a month (YYYY-MM, meaning its first day) or
// a full date (YYYY-MM-DD).
func ParseRevenueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01", s); err == nil {
		return t, nil
	}
	return ParseDate(s)
}

// MonthRange returns [first day of t's month, first day of the next month).
func MonthRange(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// YearRange returns [Jan 1 of year, Jan 1 of the following year).
func YearRange(year int) (start, end time.Time) {
	start = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}
