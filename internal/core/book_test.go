package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestCreateMonthCarriesPreviousBalance(t *testing.T) {
	jan := scenarioMonth()
	jan.Incomes = []Income{
		{ID: "inc_a", Label: "Rémi", Placeholder: "Salaire principal", Amount: 2000},
		{ID: "inc_b", Label: "Noémie", Placeholder: "Salaire secondaire", Amount: 500},
	}
	b := NewBook(scenarioSettings(), []Month{jan}, testEnv())

	feb, err := b.CreateMonth("2026-02")
	if err != nil {
		t.Fatalf("CreateMonth: %v", err)
	}
	if feb.Key != "2026-02" || feb.CarryOver != 1055 {
		t.Fatalf("expected 2026-02 with carry-over 1055, got %s %v", feb.Key, feb.CarryOver)
	}
	if len(feb.Incomes) != 2 || feb.Incomes[0].Label != "Rémi" || feb.Incomes[1].Label != "Noémie" {
		t.Fatalf("expected labels copied from January, got %+v", feb.Incomes)
	}
	for _, inc := range feb.Incomes {
		if inc.Amount != 0 {
			t.Fatalf("expected income amounts reset to 0, got %+v", inc)
		}
		if inc.ID == "inc_a" || inc.ID == "inc_b" {
			t.Fatalf("expected fresh income ids, got %q", inc.ID)
		}
	}
	if len(feb.VariableCharges) != 0 || len(feb.Expenses) != 0 || len(feb.SavingsEntries) != 0 {
		t.Fatalf("expected empty lists, got %+v", feb)
	}
	if len(feb.PaidFixedCharges)+len(feb.PaidSubscriptions)+len(feb.PaidCredits) != 0 {
		t.Fatalf("expected no paid markers, got %+v", feb)
	}
	if !b.Has("2026-02") {
		t.Fatalf("expected month stored in book")
	}
}

func TestCreateMonthWithoutHistoryUsesTemplate(t *testing.T) {
	b := NewBook(Settings{}, nil, testEnv())
	m, err := b.CreateMonth("2026-05")
	if err != nil {
		t.Fatalf("CreateMonth: %v", err)
	}
	if m.CarryOver != 0 {
		t.Fatalf("expected carry-over 0, got %v", m.CarryOver)
	}
	var placeholders []string
	for _, inc := range m.Incomes {
		if inc.Label != "" || inc.Amount != 0 {
			t.Fatalf("template incomes must be blank, got %+v", inc)
		}
		placeholders = append(placeholders, inc.Placeholder)
	}
	if !reflect.DeepEqual(placeholders, IncomeTemplate) {
		t.Fatalf("expected template placeholders, got %v", placeholders)
	}
}

func TestCreateMonthFallsBackToLatestMonth(t *testing.T) {
	old := Month{Key: "2025-06", CarryOver: 40, Incomes: []Income{{Label: "Old", Amount: 10}}}
	b := NewBook(Settings{}, []Month{old}, testEnv())

	m, err := b.CreateMonth("2026-01")
	if err != nil {
		t.Fatalf("CreateMonth: %v", err)
	}
	if m.CarryOver != 50 {
		t.Fatalf("expected balance of latest month (50), got %v", m.CarryOver)
	}
	if len(m.Incomes) != len(IncomeTemplate) {
		t.Fatalf("expected template incomes when the previous month is missing, got %+v", m.Incomes)
	}
}

func TestCreateMonthMovesToNextKeyWhenTaken(t *testing.T) {
	b := NewBook(Settings{}, []Month{{Key: "2026-01", CarryOver: 10}}, testEnv())
	m, err := b.CreateMonth("2026-01")
	if err != nil {
		t.Fatalf("CreateMonth: %v", err)
	}
	if m.Key != "2026-02" || m.CarryOver != 10 {
		t.Fatalf("expected 2026-02 carrying 10, got %s %v", m.Key, m.CarryOver)
	}

	before, _ := b.Month("2026-02")
	_, err = b.CreateMonth("2026-01")
	var conflict *ConflictError
	if !errors.As(err, &conflict) || conflict.Key != "2026-02" {
		t.Fatalf("expected conflict on 2026-02, got %v", err)
	}
	after, _ := b.Month("2026-02")
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("conflict must not modify the existing month")
	}
}

func TestCreateMonthRejectsBadKey(t *testing.T) {
	b := NewBook(Settings{}, nil, testEnv())
	if _, err := b.CreateMonth("2026-13"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDuplicateMonth(t *testing.T) {
	jan := scenarioMonth()
	jan.PaidFixedCharges = []string{"fc_box"}
	jan.SavingsEntries = []SavingsEntry{{ID: "sav_1", Amount: 5}}
	b := NewBook(scenarioSettings(), []Month{jan}, testEnv())

	m, err := b.DuplicateMonth("2026-01", "2026-03")
	if err != nil {
		t.Fatalf("DuplicateMonth: %v", err)
	}
	src, _ := b.Month("2026-01")
	wantCarry := CalculateMonth(src, b.Settings()).Balance
	if m.CarryOver != wantCarry {
		t.Fatalf("expected carry-over %v, got %v", wantCarry, m.CarryOver)
	}
	if !reflect.DeepEqual(m.Incomes, src.Incomes) || !reflect.DeepEqual(m.Expenses, src.Expenses) || !reflect.DeepEqual(m.VariableCharges, src.VariableCharges) {
		t.Fatalf("expected incomes, variable charges and expenses copied")
	}
	if len(m.PaidFixedCharges) != 0 || len(m.SavingsEntries) != 0 {
		t.Fatalf("paid markers and savings must reset, got %+v", m)
	}

	// Copies are independent of the source.
	*m.Expenses[1].IsRefund = false
	again, _ := b.Month("2026-03")
	if !*again.Expenses[1].IsRefund {
		t.Fatalf("returned month shares memory with the book")
	}
}

func TestDuplicateMonthDefaultsToNextKey(t *testing.T) {
	b := NewBook(Settings{}, []Month{{Key: "2026-12"}}, testEnv())
	m, err := b.DuplicateMonth("2026-12", "")
	if err != nil || m.Key != "2027-01" {
		t.Fatalf("expected 2027-01, got %q (%v)", m.Key, err)
	}
}

func TestDuplicateMonthConflict(t *testing.T) {
	march := Month{Key: "2026-03", CarryOver: 7, Incomes: []Income{{ID: "keep", Amount: 1}}}
	b := NewBook(scenarioSettings(), []Month{scenarioMonth(), march}, testEnv())

	_, err := b.DuplicateMonth("2026-01", "2026-03")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	got, _ := b.Month("2026-03")
	if got.CarryOver != 7 || len(got.Incomes) != 1 || got.Incomes[0].ID != "keep" {
		t.Fatalf("2026-03 changed after a failed duplicate: %+v", got)
	}
}

func TestLifecycleStopsAtLastYear(t *testing.T) {
	b := NewBook(Settings{}, []Month{{Key: "9999-12"}}, testEnv())

	if _, err := b.DuplicateMonth("9999-12", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := b.CreateMonth("9999-12"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !reflect.DeepEqual(b.Keys(), []string{"9999-12"}) {
		t.Fatalf("no month may be added past 9999-12, got %v", b.Keys())
	}

	first, err := NewBook(Settings{}, nil, testEnv()).CreateMonth("0000-01")
	if err != nil || first.Key != "0000-01" || first.CarryOver != 0 {
		t.Fatalf("CreateMonth(0000-01) = %+v, %v", first, err)
	}
}

func TestDuplicateMonthMissingSource(t *testing.T) {
	b := NewBook(Settings{}, nil, testEnv())
	if _, err := b.DuplicateMonth("2026-01", "2026-02"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetCarryOver(t *testing.T) {
	b := NewBook(Settings{}, []Month{{Key: "2026-01"}}, testEnv())
	m, err := b.SetCarryOver("2026-01", -250.456)
	if err != nil || m.CarryOver != -250.46 {
		t.Fatalf("expected -250.46, got %v (%v)", m.CarryOver, err)
	}
	if _, err := b.SetCarryOver("2026-01", 2_000_000); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := b.SetCarryOver("2026-02", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPutMonthNormalizesAndDropsUnknownReferences(t *testing.T) {
	b := NewBook(scenarioSettings(), []Month{{Key: "2026-01"}}, testEnv())
	m, err := b.PutMonth(Month{
		Key:              "2026-01",
		Incomes:          []Income{{Label: "  Salaire  ", Amount: 1234.567}},
		PaidFixedCharges: []string{"fc_box", "fc_box", "", "fc_gone"},
		SavingsEntries:   []SavingsEntry{{CategoryID: String("sav_gone"), Amount: 3}},
	})
	if err != nil {
		t.Fatalf("PutMonth: %v", err)
	}
	if m.Incomes[0].ID == "" || m.Incomes[0].Label != "Salaire" || m.Incomes[0].Amount != 1234.57 {
		t.Fatalf("income not normalized: %+v", m.Incomes[0])
	}
	if !reflect.DeepEqual(m.PaidFixedCharges, []string{"fc_box"}) {
		t.Fatalf("expected paid markers cleaned, got %v", m.PaidFixedCharges)
	}
	if m.SavingsEntries[0].CategoryID != nil {
		t.Fatalf("expected unknown savings link detached")
	}
	if _, err := b.PutMonth(Month{Key: "2026-02"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for missing month, got %v", err)
	}
}

func TestDeleteMonth(t *testing.T) {
	s := scenarioSettings()
	b := NewBook(s, []Month{{Key: "2026-01"}}, testEnv())
	if err := b.DeleteMonth("2026-01"); err != nil {
		t.Fatalf("DeleteMonth: %v", err)
	}
	if b.Has("2026-01") {
		t.Fatalf("month still present")
	}
	if !reflect.DeepEqual(b.Settings(), s) {
		t.Fatalf("settings changed by month deletion")
	}
	if err := b.DeleteMonth("2026-01"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestHistory(t *testing.T) {
	months := []Month{
		{Key: "2025-10", CarryOver: 1},
		{Key: "2025-11", CarryOver: 2},
		{Key: "2025-12", CarryOver: 3},
		{Key: "2026-01", CarryOver: 4},
		{Key: "2026-02", CarryOver: 5},
	}
	b := NewBook(Settings{}, months, testEnv())
	got, err := b.History("2026-02", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	want := []BalancePoint{{"2026-01", 4}, {"2025-12", 3}, {"2025-11", 2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("History = %+v, want %+v", got, want)
	}
	if got, _ := b.History("2025-10", 3); len(got) != 0 {
		t.Fatalf("expected no history before the first month, got %+v", got)
	}
}

func TestAddAndUpdateCategory(t *testing.T) {
	b := NewBook(scenarioSettings(), nil, testEnv())

	c, err := b.AddCategory(KindSubscriptions, CategoryInput{Label: "  Spotify ", Amount: 10.999})
	if err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	if c.ID != "sub_1" || c.Label != "Spotify" || c.Amount != 11 || c.SortOrder != 1 {
		t.Fatalf("unexpected category %+v", c)
	}
	if n := len(b.Settings().Subscriptions); n != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", n)
	}

	if _, err := b.AddCategory(KindSubscriptions, CategoryInput{Label: "  "}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for blank label, got %v", err)
	}

	label := "Spotify Duo"
	updated, err := b.UpdateCategory(KindSubscriptions, c.ID, CategoryPatch{Label: &label})
	if err != nil || updated.Label != label || updated.Amount != 11 {
		t.Fatalf("unexpected update result %+v (%v)", updated, err)
	}
	if _, err := b.UpdateCategory(KindCredits, c.ID, CategoryPatch{Label: &label}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found in another kind, got %v", err)
	}
}

func TestUpdateCategoryLeavesMonthsAlone(t *testing.T) {
	m := Month{Key: "2026-01", PaidFixedCharges: []string{"fc_box"}}
	b := NewBook(scenarioSettings(), []Month{m}, testEnv())
	amount := 42.0
	if _, err := b.UpdateCategory(KindFixedCharges, "fc_box", CategoryPatch{Amount: &amount}); err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	got, _ := b.Month("2026-01")
	if !reflect.DeepEqual(got.PaidFixedCharges, []string{"fc_box"}) {
		t.Fatalf("month references changed on rename: %v", got.PaidFixedCharges)
	}
}

func TestDeleteCategoryReconcilesEveryMonth(t *testing.T) {
	months := []Month{
		{Key: "2026-01", PaidFixedCharges: []string{"fc_box", "fc_rent"}},
		{Key: "2026-02", PaidFixedCharges: []string{"fc_rent", "fc_box"}},
		{Key: "2026-03", PaidFixedCharges: []string{"fc_box"}},
		{Key: "2026-04", PaidFixedCharges: []string{"fc_rent"}},
	}
	b := NewBook(scenarioSettings(), months, testEnv())

	changed, err := b.DeleteCategory(KindFixedCharges, "fc_box")
	if err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if len(changed) != 3 {
		t.Fatalf("expected 3 changed months, got %d", len(changed))
	}
	for _, m := range b.Months() {
		for _, id := range m.PaidFixedCharges {
			if id == "fc_box" {
				t.Fatalf("%s still references fc_box", m.Key)
			}
		}
	}
	jan, _ := b.Month("2026-01")
	if !reflect.DeepEqual(jan.PaidFixedCharges, []string{"fc_rent"}) {
		t.Fatalf("other ids must be untouched, got %v", jan.PaidFixedCharges)
	}
	if _, err := b.DeleteCategory(KindFixedCharges, "fc_box"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestDeleteSavingsCategoryDetachesEntries(t *testing.T) {
	m := Month{Key: "2026-01", SavingsEntries: []SavingsEntry{
		{ID: "s1", CategoryID: String("sav_epargne"), Amount: 30},
		{ID: "s2", Amount: 10},
	}}
	b := NewBook(scenarioSettings(), []Month{m}, testEnv())
	if _, err := b.DeleteCategory(KindSavings, "sav_epargne"); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	got, _ := b.Month("2026-01")
	if len(got.SavingsEntries) != 2 || got.SavingsEntries[0].CategoryID != nil || got.SavingsEntries[0].Amount != 30 {
		t.Fatalf("expected entry kept and detached, got %+v", got.SavingsEntries)
	}
}
