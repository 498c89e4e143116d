package core

import "testing"

func TestDescribeExpense(t *testing.T) {
	cases := []struct {
		name string
		in   Expense
		want ExpenseView
	}{
		{"flagged refund", Expense{Amount: 75, IsRefund: Bool(true)}, ExpenseView{-75, 75, TypeRefund}},
		{"flag false partial refund", Expense{Amount: 100, Refund: 25, IsRefund: Bool(false)}, ExpenseView{75, 100, TypeExpense}},
		{"flag false over refund", Expense{Amount: 20, Refund: 50, IsRefund: Bool(false)}, ExpenseView{-30, 20, TypeRefund}},
		{"legacy pure refund", Expense{Amount: 0, Refund: 40}, ExpenseView{-40, 40, TypeRefund}},
		{"legacy partial refund", Expense{Amount: 200, Refund: 50}, ExpenseView{150, 200, TypeExpense}},
		{"legacy over refund", Expense{Amount: 20, Refund: 50}, ExpenseView{-30, 30, TypeRefund}},
		{"plain expense", Expense{Amount: 12.5}, ExpenseView{12.5, 12.5, TypeExpense}},
		{"all zero", Expense{}, ExpenseView{0, 0, TypeExpense}},
		{"negative amount clamped", Expense{Amount: -10}, ExpenseView{0, 0, TypeExpense}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DescribeExpense(tc.in)
			if got != tc.want {
				t.Fatalf("DescribeExpense(%+v) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestDescribeExpenseTypeMatchesSign(t *testing.T) {
	inputs := []Expense{
		{Amount: 10},
		{Amount: 10, IsRefund: Bool(true)},
		{Amount: 10, Refund: 3, IsRefund: Bool(false)},
		{Amount: 3, Refund: 10, IsRefund: Bool(false)},
		{Refund: 4},
		{Amount: 4, Refund: 9},
		{Amount: 0, Refund: 0, IsRefund: Bool(false)},
	}
	for _, e := range inputs {
		v := DescribeExpense(e)
		if (v.Type == TypeRefund) != (v.Net < 0) {
			t.Fatalf("type %q inconsistent with net %v for %+v", v.Type, v.Net, e)
		}
	}
}

func TestExpenseNetValue(t *testing.T) {
	cases := []struct {
		in   Expense
		want float64
	}{
		{Expense{Amount: 75, IsRefund: Bool(true)}, -75},
		{Expense{Amount: 100, Refund: 25}, 75},
		{Expense{Amount: 0, Refund: 40}, -40},
		{Expense{Amount: 0, Refund: 40, IsRefund: Bool(false)}, -40},
		{Expense{Amount: 30}, 30},
		{Expense{Amount: -30}, 0},
	}
	for _, tc := range cases {
		if got := ExpenseNetValue(tc.in); got != tc.want {
			t.Fatalf("ExpenseNetValue(%+v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

// Describing and netting are two separate rule sets. A record with the flag
// explicitly false, no amount and a leftover refund nets to -refund in both,
// but only the legacy shape displays the refund amount.
func TestDescribeAndNetStayDistinct(t *testing.T) {
	flagged := Expense{Amount: 0, Refund: 40, IsRefund: Bool(false)}
	legacy := Expense{Amount: 0, Refund: 40}

	if ExpenseNetValue(flagged) != -40 || ExpenseNetValue(legacy) != -40 {
		t.Fatalf("expected both records to net to -40")
	}
	if got := DescribeExpense(flagged).Display; got != 0 {
		t.Fatalf("flagged record should display its own amount (0), got %v", got)
	}
	if got := DescribeExpense(legacy).Display; got != 40 {
		t.Fatalf("legacy record should display the refund (40), got %v", got)
	}
}
