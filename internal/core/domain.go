package core

import "encoding/json"

// Importance levels an expense may carry. The empty string means unset.
const (
	ImportanceLow    = "faible"
	ImportanceMedium = "modéré"
	ImportanceHigh   = "important"
)

type (
	// Category is a settings entry: a recurring charge or a savings bucket.
	// For savings buckets Amount holds the optional monthly target.
	Category struct {
		ID        string  `json:"id"`
		Label     string  `json:"label"`
		Amount    float64 `json:"amount"`
		SortOrder int     `json:"sortOrder"`
	}

	// Settings holds a user's four ordered category lists.
	Settings struct {
		FixedCharges  []Category `json:"fixedCharges"`
		Subscriptions []Category `json:"subscriptions"`
		Credits       []Category `json:"credits"`
		Savings       []Category `json:"savings"`
	}

	Income struct {
		ID          string  `json:"id"`
		Label       string  `json:"label"`
		Placeholder string  `json:"placeholder"`
		Amount      float64 `json:"amount"`
	}

	VariableCharge struct {
		ID     string  `json:"id"`
		Label  string  `json:"label"`
		Amount float64 `json:"amount"`
		Date   string  `json:"dateISO"`
	}

	// Expense is a one-off spend or reimbursement. IsRefund is nil for
	// records written before the flag existed; those rely on Refund.
	Expense struct {
		ID         string  `json:"id"`
		Label      string  `json:"label"`
		Amount     float64 `json:"amount"`
		Date       string  `json:"dateISO"`
		Importance string  `json:"importance"`
		IsRefund   *bool   `json:"isRefund,omitempty"`
		Refund     float64 `json:"refund"`
		Category   string  `json:"category"`
	}

	SavingsEntry struct {
		ID         string  `json:"id"`
		CategoryID *string `json:"categoryId"`
		Label      string  `json:"label"`
		Amount     float64 `json:"amount"`
		Date       string  `json:"dateISO"`
	}

	// Month is the ledger of one YYYY-MM period.
	Month struct {
		Key               string           `json:"key"`
		CarryOver         float64          `json:"carryOver"`
		Incomes           []Income         `json:"incomes"`
		VariableCharges   []VariableCharge `json:"variableCharges"`
		Expenses          []Expense        `json:"expenses"`
		PaidFixedCharges  []string         `json:"paidFixedCharges"`
		PaidSubscriptions []string         `json:"paidSubscriptions"`
		PaidCredits       []string         `json:"paidCredits"`
		SavingsEntries    []SavingsEntry   `json:"savingsEntries"`
	}
)

// Bool returns a pointer to b, for building expenses with an explicit
// refund flag.
func Bool(b bool) *bool { return &b }

// String returns a pointer to s.
func String(s string) *string { return &s }

// ValidImportance reports whether v is one of the accepted importance levels.
func ValidImportance(v string) bool {
	switch v {
	case "", ImportanceLow, ImportanceMedium, ImportanceHigh:
		return true
	}
	return false
}

// Clone returns a deep copy of the month.
func (m Month) Clone() Month {
	out := m
	out.Incomes = append([]Income{}, m.Incomes...)
	out.VariableCharges = append([]VariableCharge{}, m.VariableCharges...)
	out.Expenses = make([]Expense, len(m.Expenses))
	for i, e := range m.Expenses {
		if e.IsRefund != nil {
			e.IsRefund = Bool(*e.IsRefund)
		}
		out.Expenses[i] = e
	}
	out.PaidFixedCharges = append([]string{}, m.PaidFixedCharges...)
	out.PaidSubscriptions = append([]string{}, m.PaidSubscriptions...)
	out.PaidCredits = append([]string{}, m.PaidCredits...)
	out.SavingsEntries = make([]SavingsEntry, len(m.SavingsEntries))
	for i, s := range m.SavingsEntries {
		if s.CategoryID != nil {
			s.CategoryID = String(*s.CategoryID)
		}
		out.SavingsEntries[i] = s
	}
	return out
}

// Raw converts the month back into the loosely typed document shape that
// stores hold and NormalizeMonth reads.
func (m Month) Raw() map[string]any {
	data, err := json.Marshal(m)
	if err != nil {
		return map[string]any{}
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return map[string]any{}
	}
	return raw
}

// Clone returns a deep copy of the settings.
func (s Settings) Clone() Settings {
	return Settings{
		FixedCharges:  append([]Category{}, s.FixedCharges...),
		Subscriptions: append([]Category{}, s.Subscriptions...),
		Credits:       append([]Category{}, s.Credits...),
		Savings:       append([]Category{}, s.Savings...),
	}
}
