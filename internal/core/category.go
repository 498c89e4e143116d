package core

import (
	"fmt"
	"strings"
)

// CategoryKind enumerates the four settings lists.
type CategoryKind int

const (
	KindFixedCharges CategoryKind = iota + 1
	KindSubscriptions
	KindCredits
	KindSavings
)

// CategoryKinds lists every kind in display order.
var CategoryKinds = []CategoryKind{KindFixedCharges, KindSubscriptions, KindCredits, KindSavings}

// MaxSortOrder bounds the sort position a client may assign.
const MaxSortOrder = 10_000

func (k CategoryKind) String() string {
	switch k {
	case KindFixedCharges:
		return "fixedCharges"
	case KindSubscriptions:
		return "subscriptions"
	case KindCredits:
		return "credits"
	case KindSavings:
		return "savings"
	}
	return fmt.Sprintf("CategoryKind(%d)", int(k))
}

func (k CategoryKind) MarshalText() ([]byte, error) {
	if !k.valid() {
		return nil, fmt.Errorf("unknown category kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *CategoryKind) UnmarshalText(b []byte) error {
	parsed, err := ParseCategoryKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k CategoryKind) valid() bool {
	return k >= KindFixedCharges && k <= KindSavings
}

// ParseCategoryKind resolves a kind from its name. Case, hyphens and
// underscores are ignored, so "fixed-charges" and "FixedCharges" both match.
func ParseCategoryKind(name string) (CategoryKind, error) {
	n := strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(strings.TrimSpace(name)))
	switch n {
	case "fixedcharges":
		return KindFixedCharges, nil
	case "subscriptions":
		return KindSubscriptions, nil
	case "credits":
		return KindCredits, nil
	case "savings":
		return KindSavings, nil
	}
	return 0, &NotFoundError{Kind: "category type", ID: name}
}

// IDPrefix is prepended to generated ids of this kind.
func (k CategoryKind) IDPrefix() string {
	switch k {
	case KindFixedCharges:
		return "fc"
	case KindSubscriptions:
		return "sub"
	case KindCredits:
		return "cr"
	case KindSavings:
		return "sav"
	}
	return "cat"
}

// List returns the settings list for this kind.
func (k CategoryKind) List(s *Settings) []Category {
	switch k {
	case KindFixedCharges:
		return s.FixedCharges
	case KindSubscriptions:
		return s.Subscriptions
	case KindCredits:
		return s.Credits
	case KindSavings:
		return s.Savings
	}
	return nil
}

func (k CategoryKind) setList(s *Settings, list []Category) {
	switch k {
	case KindFixedCharges:
		s.FixedCharges = list
	case KindSubscriptions:
		s.Subscriptions = list
	case KindCredits:
		s.Credits = list
	case KindSavings:
		s.Savings = list
	}
}

// paidMarkers returns the month's paid set for recurring kinds, nil for
// savings which are linked through entries instead.
func (k CategoryKind) paidMarkers(m *Month) *[]string {
	switch k {
	case KindFixedCharges:
		return &m.PaidFixedCharges
	case KindSubscriptions:
		return &m.PaidSubscriptions
	case KindCredits:
		return &m.PaidCredits
	}
	return nil
}

// amountField is the name used for the amount in validation messages.
func (k CategoryKind) amountField() string {
	if k == KindSavings {
		return "target"
	}
	return "amount"
}

// CategoryInput carries the fields of a new category.
type CategoryInput struct {
	Label     string
	Amount    float64
	SortOrder *int
}

// CategoryPatch is a partial update; nil fields are left unchanged.
type CategoryPatch struct {
	Label     *string
	Amount    *float64
	SortOrder *int
}

// Validate checks a new category for this kind.
func (k CategoryKind) Validate(in CategoryInput) error {
	if err := k.validateLabel(in.Label); err != nil {
		return err
	}
	if err := k.validateAmount(in.Amount); err != nil {
		return err
	}
	return validateSortOrder(in.SortOrder)
}

// ValidatePatch checks the fields present in p.
func (k CategoryKind) ValidatePatch(p CategoryPatch) error {
	if p.Label != nil {
		if err := k.validateLabel(*p.Label); err != nil {
			return err
		}
	}
	if p.Amount != nil {
		if err := k.validateAmount(*p.Amount); err != nil {
			return err
		}
	}
	return validateSortOrder(p.SortOrder)
}

// transform returns the stored form of a valid input.
func (k CategoryKind) transform(id string, position int, in CategoryInput) Category {
	c := Category{
		ID:        id,
		Label:     CleanLabel(in.Label),
		Amount:    RoundMoney(ToAmount(in.Amount)),
		SortOrder: position,
	}
	if in.SortOrder != nil {
		c.SortOrder = *in.SortOrder
	}
	return c
}

func (k CategoryKind) apply(c Category, p CategoryPatch) Category {
	if p.Label != nil {
		c.Label = CleanLabel(*p.Label)
	}
	if p.Amount != nil {
		c.Amount = RoundMoney(ToAmount(*p.Amount))
	}
	if p.SortOrder != nil {
		c.SortOrder = *p.SortOrder
	}
	return c
}

func (k CategoryKind) validateLabel(label string) error {
	if CleanLabel(label) == "" {
		return invalid("label", "label is required", nil)
	}
	return nil
}

func (k CategoryKind) validateAmount(v float64) error {
	if _, err := ParseAmount(v); err != nil {
		return invalid(k.amountField(), fmt.Sprintf("must be between 0 and %d", MaxAmount), err)
	}
	return nil
}

func validateSortOrder(v *int) error {
	if v != nil && (*v < 0 || *v > MaxSortOrder) {
		return invalid("sortOrder", fmt.Sprintf("must be between 0 and %d", MaxSortOrder), nil)
	}
	return nil
}
