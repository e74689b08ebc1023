package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type (
	// Snapshot is the stored record for one calendar month.
	Snapshot struct {
		Month        string `json:"month"` // YYYY-MM
		IncomeCents  int64  `json:"incomeCents"`
		ExpenseCents int64  `json:"expenseCents"`
		BalanceCents int64  `json:"balanceCents"`
	}

	// Point is a snapshot-shaped value with the derived benefit attached.
	Point struct {
		Month        string `json:"month"`
		IncomeCents  int64  `json:"incomeCents"`
		ExpenseCents int64  `json:"expenseCents"`
		BalanceCents int64  `json:"balanceCents"`
		BenefitCents int64  `json:"benefitCents"`
	}

	// Totals holds the four metrics for an arbitrary period.
	Totals struct {
		IncomeCents  int64 `json:"incomeCents"`
		ExpenseCents int64 `json:"expenseCents"`
		BalanceCents int64 `json:"balanceCents"`
		BenefitCents int64 `json:"benefitCents"`
	}
)

var (
	ErrInvalidMonthKey = errors.New("invalid month key")
	ErrInvalidYear     = errors.New("invalid year")
	ErrNotFound        = errors.New("snapshot not found")
)

// Benefit returns income minus expense.
func (s Snapshot) Benefit() int64 {
	return s.IncomeCents - s.ExpenseCents
}

// Validate rejects keys that are not YYYY-MM. Amounts are free: a month may
// legitimately close with a negative balance.
func (s Snapshot) Validate() error {
	if _, _, err := ParseMonthKey(s.Month); err != nil {
		return err
	}
	return nil
}

// PointFromSnapshot derives the benefit for a stored snapshot.
func PointFromSnapshot(s Snapshot) Point {
	return Point{
		Month:        s.Month,
		IncomeCents:  s.IncomeCents,
		ExpenseCents: s.ExpenseCents,
		BalanceCents: s.BalanceCents,
		BenefitCents: s.Benefit(),
	}
}

// Totals returns the metrics of the point.
func (p Point) Totals() Totals {
	return Totals{
		IncomeCents:  p.IncomeCents,
		ExpenseCents: p.ExpenseCents,
		BalanceCents: p.BalanceCents,
		BenefitCents: p.BenefitCents,
	}
}

// IsZero reports whether every metric is zero.
func (t Totals) IsZero() bool {
	return t.IncomeCents == 0 && t.ExpenseCents == 0 && t.BalanceCents == 0 && t.BenefitCents == 0
}

// FormatMonthKey renders a canonical zero-padded month key.
func FormatMonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// ParseMonthKey splits a YYYY-MM key. The month part must be exactly two digits.
func ParseMonthKey(key string) (year, month int, err error) {
	yearText, monthText, ok := strings.Cut(key, "-")
	if !ok || len(yearText) != 4 || len(monthText) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMonthKey, key)
	}
	year, err = strconv.Atoi(yearText)
	if err != nil || year < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMonthKey, key)
	}
	month, err = strconv.Atoi(monthText)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMonthKey, key)
	}
	return year, month, nil
}

// ShiftMonth moves a month key by delta months, rolling over year boundaries.
// Malformed keys are returned unchanged.
func ShiftMonth(key string, delta int) string {
	year, month, err := ParseMonthKey(key)
	if err != nil {
		return key
	}
	idx := year*12 + (month - 1) + delta
	return FormatMonthKey(floorDiv(idx, 12), idx-floorDiv(idx, 12)*12+1)
}

// ShiftYear moves a four digit year by delta. Non-numeric input is returned unchanged.
func ShiftYear(year string, delta int) string {
	y, err := strconv.Atoi(year)
	if err != nil {
		return year
	}
	return strconv.Itoa(y + delta)
}

// YearOf returns the year prefix of a month key.
func YearOf(key string) string {
	if len(key) < 4 {
		return key
	}
	return key[:4]
}

// ValidateYear checks a four digit year string.
func ValidateYear(year string) error {
	if len(year) != 4 {
		return fmt.Errorf("%w: %q", ErrInvalidYear, year)
	}
	if _, err := strconv.Atoi(year); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidYear, year)
	}
	return nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
