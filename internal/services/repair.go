package services

import (
	"context"
	"fmt"
	"log/slog"

	"budgify/internal/amqp"
	"budgify/internal/core"
	"budgify/internal/store"
)

// RepairReferences rewrites the stored months of userID whose paid markers or
// savings links name categories that no longer exist. Reads already hide such
// references; this makes the stored documents agree. Months are read and
// saved in one transaction, so a write from another process in between is
// never overwritten. It returns the keys of the months it saved.
func (s *BudgetService) RepairReferences(ctx context.Context, userID string) ([]string, error) {
	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var repaired []string
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		repaired = repaired[:0]
		settings, err := tx.GetSettings(ctx, userID)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		stored, err := tx.ListMonths(ctx, userID)
		if err != nil {
			return fmt.Errorf("load months: %w", err)
		}

		book := core.NewBook(settings, stored, s.env)
		for _, m := range stored {
			clean, err := book.Month(m.Key)
			if err != nil {
				return err
			}
			if core.SameReferences(m, clean) {
				continue
			}
			if err := tx.SaveMonth(ctx, userID, clean); err != nil {
				return fmt.Errorf("save month %s: %w", m.Key, err)
			}
			repaired = append(repaired, m.Key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(repaired) == 0 {
		return nil, nil
	}

	slog.InfoContext(ctx, "Repaired month references",
		"user_id", userID,
		"months_changed", len(repaired))
	for _, key := range repaired {
		s.publish(ctx, amqp.NewEvent(amqp.MonthUpdated, userID).WithMonth(key))
	}
	return repaired, nil
}

// ListUserIDs returns every account id, for sweeps over all users.
func (s *BudgetService) ListUserIDs(ctx context.Context) ([]string, error) {
	ids, err := s.store.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ids, nil
}
