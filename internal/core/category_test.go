package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseCategoryKind(t *testing.T) {
	cases := []struct {
		in   string
		want CategoryKind
	}{
		{"fixedCharges", KindFixedCharges},
		{"fixed-charges", KindFixedCharges},
		{"FIXED_CHARGES", KindFixedCharges},
		{"subscriptions", KindSubscriptions},
		{"credits", KindCredits},
		{"Savings", KindSavings},
	}
	for _, tc := range cases {
		got, err := ParseCategoryKind(tc.in)
		if err != nil || got != tc.want {
			t.Fatalf("ParseCategoryKind(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
	if _, err := ParseCategoryKind("loans"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for unknown kind, got %v", err)
	}
}

func TestCategoryKindRoundTripsAsMapKey(t *testing.T) {
	data, err := json.Marshal(map[CategoryKind]float64{KindCredits: 1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"credits":1}` {
		t.Fatalf("unexpected json %s", data)
	}
	var back map[CategoryKind]float64
	if err := json.Unmarshal(data, &back); err != nil || back[KindCredits] != 1 {
		t.Fatalf("unmarshal: %v %v", back, err)
	}
}

func TestCategoryKindValidate(t *testing.T) {
	neg := -1
	cases := []struct {
		name  string
		kind  CategoryKind
		in    CategoryInput
		field string
	}{
		{"ok", KindFixedCharges, CategoryInput{Label: "Box", Amount: 30.99}, ""},
		{"blank label", KindCredits, CategoryInput{Label: " ", Amount: 1}, "label"},
		{"negative amount", KindFixedCharges, CategoryInput{Label: "x", Amount: -1}, "amount"},
		{"negative target", KindSavings, CategoryInput{Label: "x", Amount: -1}, "target"},
		{"huge amount", KindSubscriptions, CategoryInput{Label: "x", Amount: MaxAmount + 1}, "amount"},
		{"bad sort order", KindCredits, CategoryInput{Label: "x", SortOrder: &neg}, "sortOrder"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.kind.Validate(tc.in)
			if tc.field == "" {
				if err != nil {
					t.Fatalf("expected ok, got %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("expected validation error on %q, got %v", tc.field, err)
			}
		})
	}
}
