package core

import (
	"fmt"
	"regexp"
	"time"
)

var monthKeyPattern = regexp.MustCompile(`^[0-9]{4}-(0[1-9]|1[0-2])$`)

const monthKeyLayout = "2006-01"

// ParseMonthKey checks that key is a YYYY-MM month with a month between 01
// and 12 and returns the first day of that month in UTC.
func ParseMonthKey(key string) (time.Time, error) {
	if !monthKeyPattern.MatchString(key) {
		return time.Time{}, invalid("key", fmt.Sprintf("month key %q must look like YYYY-MM", key), ErrInvalidMonthKey)
	}
	t, err := time.Parse(monthKeyLayout, key)
	if err != nil {
		return time.Time{}, invalid("key", fmt.Sprintf("month key %q: %v", key, err), ErrInvalidMonthKey)
	}
	return t, nil
}

// ValidMonthKey reports whether key is a well formed YYYY-MM key.
func ValidMonthKey(key string) bool {
	_, err := ParseMonthKey(key)
	return err == nil
}

// AddMonths shifts key by delta months, crossing years as needed. A result
// outside years 0000 to 9999 is a validation error.
func AddMonths(key string, delta int) (string, error) {
	t, err := ParseMonthKey(key)
	if err != nil {
		return "", err
	}
	shifted := t.AddDate(0, delta, 0).Format(monthKeyLayout)
	if !monthKeyPattern.MatchString(shifted) {
		return "", invalid("key", fmt.Sprintf("month key %q shifted by %d leaves the YYYY-MM range", key, delta), ErrInvalidMonthKey)
	}
	return shifted, nil
}

// NextKey returns the month after key.
func NextKey(key string) (string, error) { return AddMonths(key, 1) }

// PreviousKey returns the month before key.
func PreviousKey(key string) (string, error) { return AddMonths(key, -1) }

// CurrentKey returns the key of the month containing now.
func CurrentKey(now time.Time) string {
	return now.Format(monthKeyLayout)
}

// CurrentKey is the key of the month containing the environment's now.
func (e Env) CurrentKey() string {
	return CurrentKey(e.now())
}
