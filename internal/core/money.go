// Package core holds the budget computation rules: money coercion, expense
// netting, month aggregation, month lifecycle and category reconciliation.
//
// Everything here is synchronous and free of I/O. Callers that share a Book
// between goroutines must serialize writes themselves.
package core

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	// MaxAmount bounds any single stored amount.
	MaxAmount = 1_000_000
	// MaxCarryOver bounds the absolute value of a carry-over.
	MaxCarryOver = 1_000_000
	// MaxLabelLength is the rune cap applied by CleanLabel.
	MaxLabelLength = 120
)

// parseNumber reads a finite number out of a loosely typed value. Strings may
// use either '.' or ',' as decimal separator.
func parseNumber(raw any) (float64, bool) {
	var f float64
	switch v := raw.(type) {
	case nil:
		return 0, false
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case json.Number:
		n, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ToAmount coerces raw into a finite, non-negative amount. Anything that
// cannot be read as a number, and any negative number, yields 0.
//
// Examples:
//
//	ToAmount("12,5")  -> 12.5
//	ToAmount(-3)      -> 0
//	ToAmount(nil)     -> 0
//	ToAmount("abc")   -> 0
func ToAmount(raw any) float64 {
	f, ok := parseNumber(raw)
	if !ok || f < 0 {
		return 0
	}
	return f
}

// ToSignedAmount is ToAmount without the negative clamp. Only carry-over
// values are signed.
func ToSignedAmount(raw any) float64 {
	f, _ := parseNumber(raw)
	return f
}

// ParseAmount is the strict form of ToAmount used when validating client
// input: unreadable, negative or out of range values are rejected. The result
// is rounded to cents.
func ParseAmount(raw any) (float64, error) {
	f, ok := parseNumber(raw)
	if !ok || f < 0 || f > MaxAmount {
		return 0, ErrInvalidAmount
	}
	return RoundMoney(f), nil
}

// RoundMoney rounds v to two decimals, half away from zero. Non-finite input
// rounds to 0.
func RoundMoney(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// SumAmounts adds values in decimal arithmetic so that two-decimal amounts
// sum exactly whatever their order.
func SumAmounts(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.InexactFloat64()
}

// ToCents converts an amount to integer cents for fixed-point storage,
// rounding half away from zero.
func ToCents(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Shift(2).Round(0).IntPart()
}

// FromCents is the inverse of ToCents.
func FromCents(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}

// CleanLabel trims s and caps it at MaxLabelLength runes.
func CleanLabel(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxLabelLength {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:MaxLabelLength]))
}
