package core

import "math"

// Expense classifications returned by DescribeExpense.
const (
	TypeExpense = "expense"
	TypeRefund  = "refund"
)

// ExpenseView is how an expense should be shown: its signed contribution to
// spending, the positive amount to display and whether it reads as a spend
// or a reimbursement.
type ExpenseView struct {
	Net     float64 `json:"net"`
	Display float64 `json:"display"`
	Type    string  `json:"type"`
}

// DescribeExpense classifies e. Two record shapes coexist in stored months:
// the IsRefund flag, and the older numeric Refund field that predates it.
// Both are honoured; records are never migrated.
func DescribeExpense(e Expense) ExpenseView {
	amount := ToAmount(e.Amount)
	refund := ToAmount(e.Refund)

	if e.IsRefund != nil {
		if *e.IsRefund {
			return ExpenseView{Net: -amount, Display: amount, Type: TypeRefund}
		}
		net := SumAmounts(amount, -refund)
		return ExpenseView{Net: net, Display: amount, Type: classify(net)}
	}

	if amount == 0 && refund > 0 {
		return ExpenseView{Net: -refund, Display: refund, Type: TypeRefund}
	}

	net := SumAmounts(amount, -refund)
	display := amount
	if net < 0 || amount == 0 {
		display = math.Abs(net)
	}
	return ExpenseView{Net: net, Display: display, Type: classify(net)}
}

// ExpenseNetValue is the contribution of e to a month's expense total.
//
// Only the IsRefund=true case is read from the flag; an explicit false is
// treated like a legacy record, so Refund alone counts as a reimbursement
// when Amount is 0. DescribeExpense keeps the flag's shape instead and shows
// such a record with a zero display amount. Keep the two separate.
func ExpenseNetValue(e Expense) float64 {
	amount := ToAmount(e.Amount)
	refund := ToAmount(e.Refund)
	if e.IsRefund != nil && *e.IsRefund {
		return -amount
	}
	if amount == 0 && refund > 0 {
		return -refund
	}
	return SumAmounts(amount, -refund)
}

func classify(net float64) string {
	if net < 0 {
		return TypeRefund
	}
	return TypeExpense
}
