package core

import (
	"slices"
)

// Book owns one user's settings and months. Its methods are the only way to
// change them, and each returns copies of what it changed so the caller can
// persist exactly that. A Book is not safe for concurrent use.
type Book struct {
	settings Settings
	months   map[string]*Month
	env      Env
}

// NewBook builds a Book from stored data. Months referencing categories
// that no longer exist are cleaned on the way in.
func NewBook(settings Settings, months []Month, env Env) *Book {
	b := &Book{
		settings: settings.Clone(),
		months:   make(map[string]*Month, len(months)),
		env:      env,
	}
	for _, m := range months {
		c := m.Clone()
		b.enforceReferences(&c)
		b.months[c.Key] = &c
	}
	return b
}

// Settings returns a copy of the current settings.
func (b *Book) Settings() Settings { return b.settings.Clone() }

// Keys returns the month keys in ascending order.
func (b *Book) Keys() []string {
	keys := make([]string, 0, len(b.months))
	for k := range b.months {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Months returns copies of all months in key order.
func (b *Book) Months() []Month {
	out := make([]Month, 0, len(b.months))
	for _, k := range b.Keys() {
		out = append(out, b.months[k].Clone())
	}
	return out
}

// Has reports whether a month exists for key.
func (b *Book) Has(key string) bool {
	_, ok := b.months[key]
	return ok
}

// Month returns a copy of the month stored under key.
func (b *Book) Month(key string) (Month, error) {
	m, err := b.lookup(key)
	if err != nil {
		return Month{}, err
	}
	return m.Clone(), nil
}

// Summary computes the totals of the month under key.
func (b *Book) Summary(key string) (Summary, error) {
	m, err := b.lookup(key)
	if err != nil {
		return Summary{}, err
	}
	return CalculateMonth(*m, b.settings), nil
}

// History returns the balances of up to n existing months before key, most
// recent first. n <= 0 means DefaultHistoryLength.
func (b *Book) History(key string, n int) ([]BalancePoint, error) {
	if _, err := ParseMonthKey(key); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = DefaultHistoryLength
	}
	var previous []string
	for _, k := range b.Keys() {
		if k < key {
			previous = append(previous, k)
		}
	}
	if len(previous) > n {
		previous = previous[len(previous)-n:]
	}
	out := make([]BalancePoint, 0, len(previous))
	for i := len(previous) - 1; i >= 0; i-- {
		k := previous[i]
		out = append(out, BalancePoint{Key: k, Balance: b.balance(k)})
	}
	return out, nil
}

// CreateMonth opens a new month at key, or at the month after key when key
// is taken. Its carry-over is the balance of the month before it, falling
// back to the latest existing month, then 0. Incomes reuse the previous
// month's labels with zero amounts, or the default template.
func (b *Book) CreateMonth(key string) (Month, error) {
	if _, err := ParseMonthKey(key); err != nil {
		return Month{}, err
	}
	target := key
	if b.Has(target) {
		next, err := NextKey(target)
		if err != nil {
			return Month{}, err
		}
		if b.Has(next) {
			return Month{}, &ConflictError{Key: next}
		}
		target = next
	}
	// 0000-01 has no previous month; carry-over then falls back to the
	// latest month.
	prev, _ := PreviousKey(target)

	m := emptyMonth(target)
	m.CarryOver = b.carryOverFor(prev)
	m.Incomes = b.seedIncomes(prev)
	b.months[target] = &m
	return m.Clone(), nil
}

// DuplicateMonth copies the incomes, variable charges and expenses of from
// into a new month to, with the source balance as carry-over. Paid markers
// and savings entries start empty. An empty to means the month after from.
func (b *Book) DuplicateMonth(from, to string) (Month, error) {
	if _, err := ParseMonthKey(from); err != nil {
		return Month{}, err
	}
	if to == "" {
		next, err := NextKey(from)
		if err != nil {
			return Month{}, err
		}
		to = next
	} else if _, err := ParseMonthKey(to); err != nil {
		return Month{}, err
	}

	src, err := b.lookup(from)
	if err != nil {
		return Month{}, err
	}
	if b.Has(to) {
		return Month{}, &ConflictError{Key: to}
	}

	copied := src.Clone()
	m := emptyMonth(to)
	m.CarryOver = RoundMoney(CalculateMonth(*src, b.settings).Balance)
	m.Incomes = copied.Incomes
	m.VariableCharges = copied.VariableCharges
	m.Expenses = copied.Expenses
	b.months[to] = &m
	return m.Clone(), nil
}

// SetCarryOver overrides the carry-over of an existing month.
func (b *Book) SetCarryOver(key string, value float64) (Month, error) {
	if err := ValidateCarryOver(value); err != nil {
		return Month{}, err
	}
	m, err := b.lookup(key)
	if err != nil {
		return Month{}, err
	}
	m.CarryOver = RoundMoney(value)
	return m.Clone(), nil
}

// PutMonth replaces an existing month with m after normalizing it.
func (b *Book) PutMonth(m Month) (Month, error) {
	if _, err := b.lookup(m.Key); err != nil {
		return Month{}, err
	}
	normalized := b.env.Normalize(m)
	normalized.Key = m.Key
	b.enforceReferences(&normalized)
	b.months[m.Key] = &normalized
	return normalized.Clone(), nil
}

// DeleteMonth removes the month under key. Settings are untouched.
func (b *Book) DeleteMonth(key string) error {
	if _, err := b.lookup(key); err != nil {
		return err
	}
	delete(b.months, key)
	return nil
}

// AddCategory appends a new category of the given kind.
func (b *Book) AddCategory(kind CategoryKind, in CategoryInput) (Category, error) {
	if !kind.valid() {
		return Category{}, &NotFoundError{Kind: "category type", ID: kind.String()}
	}
	if err := kind.Validate(in); err != nil {
		return Category{}, err
	}
	list := kind.List(&b.settings)
	id := b.env.id(kind.IDPrefix())
	for indexOf(list, id) >= 0 {
		id = b.env.id(kind.IDPrefix())
	}
	c := kind.transform(id, len(list), in)
	kind.setList(&b.settings, append(list, c))
	return c, nil
}

// UpdateCategory edits a category in place. Months reference categories by
// id and are not touched.
func (b *Book) UpdateCategory(kind CategoryKind, id string, patch CategoryPatch) (Category, error) {
	if !kind.valid() {
		return Category{}, &NotFoundError{Kind: "category type", ID: kind.String()}
	}
	if err := kind.ValidatePatch(patch); err != nil {
		return Category{}, err
	}
	list := kind.List(&b.settings)
	i := indexOf(list, id)
	if i < 0 {
		return Category{}, &NotFoundError{Kind: kind.String() + " category", ID: id}
	}
	list[i] = kind.apply(list[i], patch)
	return list[i], nil
}

// DeleteCategory removes a category and every month reference to it. It
// returns copies of the months that changed.
func (b *Book) DeleteCategory(kind CategoryKind, id string) ([]Month, error) {
	if !kind.valid() {
		return nil, &NotFoundError{Kind: "category type", ID: kind.String()}
	}
	list := kind.List(&b.settings)
	i := indexOf(list, id)
	if i < 0 {
		return nil, &NotFoundError{Kind: kind.String() + " category", ID: id}
	}
	kind.setList(&b.settings, slices.Delete(slices.Clone(list), i, i+1))

	keys := b.Keys()
	ptrs := make([]*Month, len(keys))
	for j, k := range keys {
		ptrs[j] = b.months[k]
	}
	changed := ReconcileCategoryDeletion(kind, id, ptrs)
	out := make([]Month, 0, len(changed))
	for _, k := range changed {
		out = append(out, b.months[k].Clone())
	}
	return out, nil
}

func (b *Book) lookup(key string) (*Month, error) {
	if _, err := ParseMonthKey(key); err != nil {
		return nil, err
	}
	m, ok := b.months[key]
	if !ok {
		return nil, &NotFoundError{Kind: "month", ID: key}
	}
	return m, nil
}

func (b *Book) balance(key string) float64 {
	return CalculateMonth(*b.months[key], b.settings).Balance
}

func (b *Book) carryOverFor(prev string) float64 {
	if b.Has(prev) {
		return RoundMoney(b.balance(prev))
	}
	keys := b.Keys()
	if len(keys) == 0 {
		return 0
	}
	return RoundMoney(b.balance(keys[len(keys)-1]))
}

func (b *Book) seedIncomes(prev string) []Income {
	if m, ok := b.months[prev]; ok && len(m.Incomes) > 0 {
		out := make([]Income, len(m.Incomes))
		for i, inc := range m.Incomes {
			placeholder := inc.Placeholder
			if placeholder == "" {
				placeholder = incomePlaceholder(i)
			}
			out[i] = Income{ID: b.env.id(prefixIncome), Label: inc.Label, Placeholder: placeholder}
		}
		return out
	}
	out := make([]Income, len(IncomeTemplate))
	for i, name := range IncomeTemplate {
		out[i] = Income{ID: b.env.id(prefixIncome), Placeholder: name}
	}
	return out
}

// enforceReferences drops paid markers and savings links that point at no
// existing category.
func (b *Book) enforceReferences(m *Month) {
	for _, kind := range []CategoryKind{KindFixedCharges, KindSubscriptions, KindCredits} {
		markers := kind.paidMarkers(m)
		list := kind.List(&b.settings)
		kept := make([]string, 0, len(*markers))
		for _, id := range cleanPaidIDs(*markers) {
			if indexOf(list, id) >= 0 {
				kept = append(kept, id)
			}
		}
		*markers = kept
	}
	DetachUnknownSavings(m, b.settings)
}

func emptyMonth(key string) Month {
	return Month{
		Key:               key,
		Incomes:           []Income{},
		VariableCharges:   []VariableCharge{},
		Expenses:          []Expense{},
		PaidFixedCharges:  []string{},
		PaidSubscriptions: []string{},
		PaidCredits:       []string{},
		SavingsEntries:    []SavingsEntry{},
	}
}

func indexOf(list []Category, id string) int {
	return slices.IndexFunc(list, func(c Category) bool { return c.ID == id })
}
