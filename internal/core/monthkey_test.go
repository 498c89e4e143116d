package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseMonthKey(t *testing.T) {
	cases := []struct {
		key string
		ok  bool
	}{
		{"2026-01", true},
		{"2026-12", true},
		{"1999-09", true},
		{"2026-00", false},
		{"2026-13", false},
		{"2026-1", false},
		{"26-01", false},
		{"2026/01", false},
		{"2026-01-01", false},
		{"", false},
	}
	for _, tc := range cases {
		_, err := ParseMonthKey(tc.key)
		if tc.ok && err != nil {
			t.Fatalf("%q expected ok, got %v", tc.key, err)
		}
		if !tc.ok {
			if !errors.Is(err, ErrValidation) || !errors.Is(err, ErrInvalidMonthKey) {
				t.Fatalf("%q expected validation error, got %v", tc.key, err)
			}
		}
	}
}

func TestAddMonths(t *testing.T) {
	cases := []struct {
		key   string
		delta int
		want  string
	}{
		{"2026-01", 1, "2026-02"},
		{"2026-12", 1, "2027-01"},
		{"2026-01", -1, "2025-12"},
		{"2026-03", -14, "2025-01"},
		{"2026-05", 0, "2026-05"},
	}
	for _, tc := range cases {
		got, err := AddMonths(tc.key, tc.delta)
		if err != nil || got != tc.want {
			t.Fatalf("AddMonths(%q, %d) = %q, %v; want %q", tc.key, tc.delta, got, err, tc.want)
		}
	}
	if _, err := NextKey("bad"); err == nil {
		t.Fatalf("expected error for bad key")
	}
}

func TestAddMonthsRejectsOutOfRangeYears(t *testing.T) {
	cases := []struct {
		key   string
		delta int
	}{
		{"9999-12", 1},
		{"9999-06", 7},
		{"0000-01", -1},
	}
	for _, tc := range cases {
		got, err := AddMonths(tc.key, tc.delta)
		if !errors.Is(err, ErrValidation) || !errors.Is(err, ErrInvalidMonthKey) {
			t.Fatalf("AddMonths(%q, %d) = %q, %v; want validation error", tc.key, tc.delta, got, err)
		}
	}
	if got, err := AddMonths("9999-11", 1); err != nil || got != "9999-12" {
		t.Fatalf("AddMonths(9999-11, 1) = %q, %v", got, err)
	}
}

func TestCurrentKey(t *testing.T) {
	now := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)
	if got := CurrentKey(now); got != "2026-10" {
		t.Fatalf("expected 2026-10, got %q", got)
	}
}
