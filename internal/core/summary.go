package core

// SavingsSource tells which data a Summary used for its savings total.
type SavingsSource string

const (
	// SavingsFromTargets sums the savings categories' monthly targets.
	SavingsFromTargets SavingsSource = "targets"
	// SavingsFromEntries sums the deposits recorded in the month itself.
	SavingsFromEntries SavingsSource = "entries"
)

// Summary is the derived state of a month. It is never stored.
type Summary struct {
	Income        float64       `json:"income"`
	VariableTotal float64       `json:"variableTotal"`
	ExpensesNet   float64       `json:"expensesNet"`
	Fixed         float64       `json:"fixed"`
	Subscriptions float64       `json:"subscriptions"`
	Credits       float64       `json:"credits"`
	Savings       float64       `json:"savings"`
	SavingsSource SavingsSource `json:"savingsSource"`
	TotalCharges  float64       `json:"totalCharges"`
	Balance       float64       `json:"balance"`
}

// CalculateMonth derives the totals of m against the current settings s.
//
//	totalCharges = fixed + subscriptions + savings + credits + variable + expensesNet
//	balance      = carryOver + income - totalCharges
func CalculateMonth(m Month, s Settings) Summary {
	sum := Summary{
		Income:        sumIncomes(m.Incomes),
		VariableTotal: sumVariable(m.VariableCharges),
		ExpensesNet:   sumExpenses(m.Expenses),
		Fixed:         sumCategories(s.FixedCharges),
		Subscriptions: sumCategories(s.Subscriptions),
		Credits:       sumCategories(s.Credits),
	}
	sum.Savings, sum.SavingsSource = savingsTotal(m, s)
	sum.TotalCharges = SumAmounts(
		sum.Fixed,
		sum.Subscriptions,
		sum.Savings,
		sum.Credits,
		sum.VariableTotal,
		sum.ExpensesNet,
	)
	sum.Balance = SumAmounts(ToSignedAmount(m.CarryOver), sum.Income, -sum.TotalCharges)
	return sum
}

// savingsTotal picks the accounting mode from the data present: a month that
// records deposits is charged what it deposited, otherwise the targets apply.
func savingsTotal(m Month, s Settings) (float64, SavingsSource) {
	if len(m.SavingsEntries) > 0 {
		return SavingsFromEntryList(m.SavingsEntries), SavingsFromEntries
	}
	return SavingsFromTargetList(s.Savings), SavingsFromTargets
}

// SavingsFromEntryList sums the recorded deposits of a month.
func SavingsFromEntryList(entries []SavingsEntry) float64 {
	values := make([]float64, len(entries))
	for i, e := range entries {
		values[i] = ToAmount(e.Amount)
	}
	return SumAmounts(values...)
}

// SavingsFromTargetList sums the monthly targets of savings categories.
func SavingsFromTargetList(categories []Category) float64 {
	return sumCategories(categories)
}

// CategoryTotals returns the configured total of every category kind.
func CategoryTotals(s Settings) map[CategoryKind]float64 {
	out := make(map[CategoryKind]float64, len(CategoryKinds))
	for _, k := range CategoryKinds {
		out[k] = sumCategories(k.List(&s))
	}
	return out
}

// BalancePoint is one entry of a month's balance history.
type BalancePoint struct {
	Key     string  `json:"key"`
	Balance float64 `json:"balance"`
}

// DefaultHistoryLength is the number of previous months History reports
// when asked for n <= 0.
const DefaultHistoryLength = 3

func sumIncomes(items []Income) float64 {
	values := make([]float64, len(items))
	for i, it := range items {
		values[i] = ToAmount(it.Amount)
	}
	return SumAmounts(values...)
}

func sumVariable(items []VariableCharge) float64 {
	values := make([]float64, len(items))
	for i, it := range items {
		values[i] = ToAmount(it.Amount)
	}
	return SumAmounts(values...)
}

func sumExpenses(items []Expense) float64 {
	values := make([]float64, len(items))
	for i, it := range items {
		values[i] = ExpenseNetValue(it)
	}
	return SumAmounts(values...)
}

func sumCategories(items []Category) float64 {
	values := make([]float64, len(items))
	for i, it := range items {
		values[i] = ToAmount(it.Amount)
	}
	return SumAmounts(values...)
}
