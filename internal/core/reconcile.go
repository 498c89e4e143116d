package core

import "slices"

// ReconcileCategoryDeletion drops every reference to the category id of the
// given kind from months. Paid markers are removed; savings entries linked to
// a deleted savings category keep their amount and lose the link. It returns
// the keys of the months that changed, in input order.
func ReconcileCategoryDeletion(kind CategoryKind, id string, months []*Month) []string {
	var changed []string
	for _, m := range months {
		if m == nil {
			continue
		}
		if purgeReference(kind, id, m) {
			changed = append(changed, m.Key)
		}
	}
	return changed
}

func purgeReference(kind CategoryKind, id string, m *Month) bool {
	if markers := kind.paidMarkers(m); markers != nil {
		kept := (*markers)[:0]
		removed := false
		for _, v := range *markers {
			if v == id {
				removed = true
				continue
			}
			kept = append(kept, v)
		}
		*markers = kept
		return removed
	}

	detached := false
	for i := range m.SavingsEntries {
		e := &m.SavingsEntries[i]
		if e.CategoryID != nil && *e.CategoryID == id {
			e.CategoryID = nil
			detached = true
		}
	}
	return detached
}

// DetachUnknownSavings nulls savings entry links that name no existing
// savings category. It reports whether anything changed.
func DetachUnknownSavings(m *Month, s Settings) bool {
	known := make(map[string]struct{}, len(s.Savings))
	for _, c := range s.Savings {
		known[c.ID] = struct{}{}
	}
	changed := false
	for i := range m.SavingsEntries {
		e := &m.SavingsEntries[i]
		if e.CategoryID == nil {
			continue
		}
		if _, ok := known[*e.CategoryID]; !ok {
			e.CategoryID = nil
			changed = true
		}
	}
	return changed
}

// cleanPaidIDs drops blank ids and duplicates, keeping first occurrences.
func cleanPaidIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// SameReferences reports whether a and b carry the same paid markers and the
// same savings links, entry by entry.
func SameReferences(a, b Month) bool {
	if !slices.Equal(a.PaidFixedCharges, b.PaidFixedCharges) ||
		!slices.Equal(a.PaidSubscriptions, b.PaidSubscriptions) ||
		!slices.Equal(a.PaidCredits, b.PaidCredits) {
		return false
	}
	if len(a.SavingsEntries) != len(b.SavingsEntries) {
		return false
	}
	for i := range a.SavingsEntries {
		x, y := a.SavingsEntries[i].CategoryID, b.SavingsEntries[i].CategoryID
		if (x == nil) != (y == nil) || (x != nil && *x != *y) {
			return false
		}
	}
	return true
}
