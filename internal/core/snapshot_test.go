package core

import (
	"errors"
	"testing"
)

func TestParseMonthKey(t *testing.T) {
	cases := []struct {
		key   string
		year  int
		month int
		ok    bool
	}{
		{"2024-01", 2024, 1, true},
		{"1999-12", 1999, 12, true},
		{"2024-1", 0, 0, false},
		{"2024-13", 0, 0, false},
		{"2024-00", 0, 0, false},
		{"24-01", 0, 0, false},
		{"2024/01", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tc := range cases {
		y, m, err := ParseMonthKey(tc.key)
		if tc.ok {
			if err != nil || y != tc.year || m != tc.month {
				t.Fatalf("%q expected %d-%d, got %d-%d (err=%v)", tc.key, tc.year, tc.month, y, m, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidMonthKey) {
			t.Fatalf("%q expected ErrInvalidMonthKey, got %v", tc.key, err)
		}
	}
}

func TestShiftMonth(t *testing.T) {
	cases := []struct {
		key   string
		delta int
		want  string
	}{
		{"2024-03", -1, "2024-02"},
		{"2024-01", -1, "2023-12"},
		{"2024-03", -12, "2023-03"},
		{"2023-12", 1, "2024-01"},
		{"2024-06", 18, "2025-12"},
		{"bad", -1, "bad"},
	}
	for _, tc := range cases {
		if got := ShiftMonth(tc.key, tc.delta); got != tc.want {
			t.Errorf("ShiftMonth(%q, %d) = %q, want %q", tc.key, tc.delta, got, tc.want)
		}
	}
}

func TestShiftYearAndYearOf(t *testing.T) {
	if got := ShiftYear("2024", -1); got != "2023" {
		t.Fatalf("ShiftYear = %q", got)
	}
	if got := ShiftYear("abcd", -1); got != "abcd" {
		t.Fatalf("ShiftYear non numeric = %q", got)
	}
	if got := YearOf("2024-05"); got != "2024" {
		t.Fatalf("YearOf = %q", got)
	}
}

func TestSnapshotValidateAndBenefit(t *testing.T) {
	s := Snapshot{Month: "2024-02", IncomeCents: 1000, ExpenseCents: 1500, BalanceCents: -20}
	if err := s.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if s.Benefit() != -500 {
		t.Fatalf("benefit = %d", s.Benefit())
	}
	p := PointFromSnapshot(s)
	if p.BenefitCents != p.IncomeCents-p.ExpenseCents {
		t.Fatalf("point benefit mismatch: %+v", p)
	}
	if err := (Snapshot{Month: "2024-2"}).Validate(); err == nil {
		t.Fatalf("expected error for unpadded month")
	}
}

func TestValidateYear(t *testing.T) {
	for _, y := range []string{"2024", "1999"} {
		if err := ValidateYear(y); err != nil {
			t.Errorf("%q: %v", y, err)
		}
	}
	for _, y := range []string{"", "24", "20x4", "20245"} {
		if err := ValidateYear(y); !errors.Is(err, ErrInvalidYear) {
			t.Errorf("%q expected ErrInvalidYear, got %v", y, err)
		}
	}
}
