package core

import (
	"errors"
	"fmt"
	"math"
)

// ValidateMonthPayload rejects a client-supplied month document whose values
// cannot be stored as-is: negative or oversized amounts, malformed dates,
// unknown importance levels, non-list collections or an out of range
// carry-over. Absent or empty fields pass; NormalizeMonth fills them in.
// All problems are reported together.
func ValidateMonthPayload(raw map[string]any) error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if v, ok := raw["carryOver"]; ok && !blank(v) {
		add(ValidateCarryOver(v))
	}

	add(eachObject(raw, "incomes", func(field string, obj map[string]any) []error {
		return []error{checkAmount(field+".amount", obj["amount"])}
	}))
	add(eachObject(raw, "variableCharges", func(field string, obj map[string]any) []error {
		return []error{
			checkAmount(field+".amount", obj["amount"]),
			checkDate(field+".dateISO", firstPresent(obj, "dateISO", "date")),
		}
	}))
	add(eachObject(raw, "expenses", func(field string, obj map[string]any) []error {
		out := []error{
			checkAmount(field+".amount", obj["amount"]),
			checkAmount(field+".refund", obj["refund"]),
			checkDate(field+".dateISO", firstPresent(obj, "dateISO", "date")),
		}
		if v, ok := obj["importance"]; ok && v != nil {
			if s, isStr := v.(string); !isStr || !ValidImportance(s) {
				out = append(out, invalid(field+".importance", fmt.Sprintf("must be one of %q, %q, %q or empty", ImportanceLow, ImportanceMedium, ImportanceHigh), nil))
			}
		}
		if v, ok := obj["isRefund"]; ok && v != nil {
			if _, isBool := v.(bool); !isBool {
				out = append(out, invalid(field+".isRefund", "must be a boolean", nil))
			}
		}
		return out
	}))
	add(eachObject(raw, "savingsEntries", func(field string, obj map[string]any) []error {
		return []error{
			checkAmount(field+".amount", obj["amount"]),
			checkDate(field+".dateISO", firstPresent(obj, "dateISO", "date")),
		}
	}))

	for _, name := range []string{"paidFixedCharges", "paidSubscriptions", "paidCredits"} {
		v, ok := raw[name]
		if !ok || v == nil {
			continue
		}
		items, isList := v.([]any)
		if !isList {
			add(invalid(name, "must be a list of ids", nil))
			continue
		}
		for i, it := range items {
			if _, isStr := it.(string); !isStr {
				add(invalid(fmt.Sprintf("%s[%d]", name, i), "must be a string id", nil))
			}
		}
	}

	return errors.Join(errs...)
}

// ValidateCarryOver checks a manual carry-over: any finite number within
// ±MaxCarryOver.
func ValidateCarryOver(v any) error {
	f, ok := parseNumber(v)
	if !ok {
		return invalid("carryOver", "must be a finite number", ErrInvalidAmount)
	}
	if math.Abs(f) > MaxCarryOver {
		return invalid("carryOver", fmt.Sprintf("must be between -%d and %d", MaxCarryOver, MaxCarryOver), ErrInvalidAmount)
	}
	return nil
}

func eachObject(raw map[string]any, name string, check func(field string, obj map[string]any) []error) error {
	v, ok := raw[name]
	if !ok || v == nil {
		return nil
	}
	items, isList := v.([]any)
	if !isList {
		return invalid(name, "must be a list", nil)
	}
	var errs []error
	for i, it := range items {
		field := fmt.Sprintf("%s[%d]", name, i)
		obj, isObj := it.(map[string]any)
		if !isObj {
			errs = append(errs, invalid(field, "must be an object", nil))
			continue
		}
		for _, err := range check(field, obj) {
			if err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func checkAmount(field string, v any) error {
	if blank(v) {
		return nil
	}
	if _, err := ParseAmount(v); err != nil {
		return invalid(field, fmt.Sprintf("must be a number between 0 and %d", MaxAmount), err)
	}
	return nil
}

func checkDate(field string, v any) error {
	if blank(v) {
		return nil
	}
	s, ok := v.(string)
	if !ok || NormalizeDate(s, "") == "" {
		return invalid(field, "must be a YYYY-MM-DD date", ErrInvalidDate)
	}
	return nil
}

func blank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
