package services

import (
	"context"
	"fmt"
	"log/slog"

	"budgify/internal/amqp"
	"budgify/internal/core"
	"budgify/internal/store"
)

// GetSettings returns the user's four category lists.
func (s *BudgetService) GetSettings(ctx context.Context, userID string) (core.Settings, error) {
	settings, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return core.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

func (s *BudgetService) AddCategory(ctx context.Context, userID string, kind core.CategoryKind, in core.CategoryInput) (core.Category, error) {
	var out core.Category
	err := s.mutate(ctx, userID, func(book *core.Book) error {
		c, err := book.AddCategory(kind, in)
		if err != nil {
			return err
		}
		if err := s.store.InsertCategory(ctx, userID, kind, c); err != nil {
			return storeErr(fmt.Errorf("insert category: %w", err), kind.String()+" category", c.ID)
		}
		out = c
		return nil
	})
	if err != nil {
		return core.Category{}, err
	}

	s.publish(ctx, amqp.NewEvent(amqp.CategoryCreated, userID).WithCategory(kind.String(), out.ID))
	return out, nil
}

func (s *BudgetService) UpdateCategory(ctx context.Context, userID string, kind core.CategoryKind, id string, patch core.CategoryPatch) (core.Category, error) {
	var out core.Category
	err := s.mutate(ctx, userID, func(book *core.Book) error {
		c, err := book.UpdateCategory(kind, id, patch)
		if err != nil {
			return err
		}
		if err := s.store.UpdateCategory(ctx, userID, kind, c); err != nil {
			return storeErr(fmt.Errorf("update category: %w", err), kind.String()+" category", id)
		}
		out = c
		return nil
	})
	if err != nil {
		return core.Category{}, err
	}

	s.publish(ctx, amqp.NewEvent(amqp.CategoryUpdated, userID).WithCategory(kind.String(), id))
	return out, nil
}

// DeleteCategory removes a category and, in the same transaction, every
// month reference to it. It returns the keys of the months that changed.
func (s *BudgetService) DeleteCategory(ctx context.Context, userID string, kind core.CategoryKind, id string) ([]string, error) {
	var changed []string
	err := s.mutate(ctx, userID, func(book *core.Book) error {
		months, err := book.DeleteCategory(kind, id)
		if err != nil {
			return err
		}
		return s.store.Atomic(ctx, func(tx store.Store) error {
			if err := tx.DeleteCategory(ctx, userID, kind, id); err != nil {
				return storeErr(fmt.Errorf("delete category: %w", err), kind.String()+" category", id)
			}
			for _, m := range months {
				if err := tx.SaveMonth(ctx, userID, m); err != nil {
					return fmt.Errorf("save month %s: %w", m.Key, err)
				}
				changed = append(changed, m.Key)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Category deleted",
		"user_id", userID,
		"category", kind.String(),
		"id", id,
		"months_changed", len(changed))
	ev := amqp.NewEvent(amqp.CategoryDeleted, userID).WithCategory(kind.String(), id)
	ev.Months = changed
	s.publish(ctx, ev)
	return changed, nil
}
