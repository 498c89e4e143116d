package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Id prefixes of month entries.
const (
	prefixIncome   = "inc"
	prefixVariable = "var"
	prefixExpense  = "exp"
	prefixSavings  = "sav"
)

// IncomeTemplate seeds the incomes of a month that has no predecessor.
var IncomeTemplate = []string{"Salaire principal", "Salaire secondaire", "Autres revenus"}

// Env supplies the id generator and clock used when data has to be
// invented: missing ids, missing dates, new months and categories.
type Env struct {
	NewID func(prefix string) string
	Now   func() time.Time
}

// DefaultEnv uses random UUID based ids and the wall clock.
func DefaultEnv() Env {
	return Env{NewID: NewID, Now: time.Now}
}

// NewID returns prefix_<uuid>.
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

func (e Env) id(prefix string) string {
	if e.NewID == nil {
		return NewID(prefix)
	}
	return e.NewID(prefix)
}

func (e Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Today is the fallback date for entries stored without one.
func (e Env) Today() string {
	return e.now().Format(dateLayout)
}

// NormalizeDate returns value when it is a YYYY-MM-DD date (an RFC 3339
// timestamp is cut down to its date) and fallback otherwise.
func NormalizeDate(value, fallback string) string {
	v := strings.TrimSpace(value)
	if t, err := time.Parse(dateLayout, v); err == nil {
		return t.Format(dateLayout)
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.Format(dateLayout)
	}
	return fallback
}

// ValidDate reports whether s is a real YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// incomePlaceholder names the i-th income when none was stored.
func incomePlaceholder(i int) string {
	if i < len(IncomeTemplate) {
		return IncomeTemplate[i]
	}
	return fmt.Sprintf("Revenu %d", i+1)
}

// NormalizeMonth turns a stored month document into a fully shaped Month
// using DefaultEnv.
func NormalizeMonth(raw map[string]any) Month {
	return DefaultEnv().NormalizeMonth(raw)
}

// NormalizeMonth guarantees every list is present, every amount is a
// rounded non-negative number, every entry has an id and every date is valid.
// Running it on its own output changes nothing.
func (e Env) NormalizeMonth(raw map[string]any) Month {
	today := e.Today()
	m := Month{
		Key:               str(raw["key"]),
		CarryOver:         RoundMoney(ToSignedAmount(raw["carryOver"])),
		Incomes:           []Income{},
		VariableCharges:   []VariableCharge{},
		Expenses:          []Expense{},
		PaidFixedCharges:  cleanPaidIDs(strList(raw["paidFixedCharges"])),
		PaidSubscriptions: cleanPaidIDs(strList(raw["paidSubscriptions"])),
		PaidCredits:       cleanPaidIDs(strList(raw["paidCredits"])),
		SavingsEntries:    []SavingsEntry{},
	}

	for i, obj := range objList(raw["incomes"]) {
		placeholder := str(obj["placeholder"])
		if placeholder == "" {
			placeholder = incomePlaceholder(i)
		}
		m.Incomes = append(m.Incomes, Income{
			ID:          e.entryID(obj, prefixIncome),
			Label:       CleanLabel(str(obj["label"])),
			Placeholder: placeholder,
			Amount:      money(obj["amount"]),
		})
	}

	for _, obj := range objList(raw["variableCharges"]) {
		m.VariableCharges = append(m.VariableCharges, VariableCharge{
			ID:     e.entryID(obj, prefixVariable),
			Label:  CleanLabel(str(obj["label"])),
			Amount: money(obj["amount"]),
			Date:   NormalizeDate(dateOf(obj), today),
		})
	}

	for _, obj := range objList(raw["expenses"]) {
		exp := Expense{
			ID:         e.entryID(obj, prefixExpense),
			Label:      CleanLabel(str(obj["label"])),
			Amount:     money(obj["amount"]),
			Date:       NormalizeDate(dateOf(obj), today),
			Importance: str(obj["importance"]),
			Refund:     money(firstPresent(obj, "refund", "reimbursed")),
			Category:   CleanLabel(str(obj["category"])),
		}
		if !ValidImportance(exp.Importance) {
			exp.Importance = ""
		}
		if flag, ok := obj["isRefund"].(bool); ok {
			exp.IsRefund = Bool(flag)
		}
		m.Expenses = append(m.Expenses, exp)
	}

	for _, obj := range objList(raw["savingsEntries"]) {
		entry := SavingsEntry{
			ID:     e.entryID(obj, prefixSavings),
			Label:  CleanLabel(str(obj["label"])),
			Amount: money(obj["amount"]),
			Date:   NormalizeDate(dateOf(obj), today),
		}
		if cat := str(obj["categoryId"]); cat != "" {
			entry.CategoryID = String(cat)
		}
		m.SavingsEntries = append(m.SavingsEntries, entry)
	}

	return m
}

// Normalize runs a typed month through the same rules as a stored document.
func (e Env) Normalize(m Month) Month {
	return e.NormalizeMonth(m.Raw())
}

func (e Env) entryID(obj map[string]any, prefix string) string {
	if id := str(obj["id"]); id != "" {
		return id
	}
	return e.id(prefix)
}

func money(v any) float64 {
	return RoundMoney(ToAmount(v))
}

func dateOf(obj map[string]any) string {
	return str(firstPresent(obj, "dateISO", "date"))
}

func firstPresent(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func str(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	}
	return ""
}

func objList(v any) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if obj, ok := it.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func strList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
