package services

import (
	"context"
	"fmt"
	"log/slog"

	"budgify/internal/amqp"
	"budgify/internal/core"
)

// MonthView is a month with its derived totals and the balances of the
// months before it.
type MonthView struct {
	Month   core.Month          `json:"month"`
	Summary core.Summary        `json:"summary"`
	History []core.BalancePoint `json:"history"`
}

// ListMonths returns every month of the user in key order.
func (s *BudgetService) ListMonths(ctx context.Context, userID string) ([]core.Month, error) {
	book, err := s.loadBook(ctx, userID)
	if err != nil {
		return nil, err
	}
	return book.Months(), nil
}

// GetMonth returns one month with its summary and recent history.
func (s *BudgetService) GetMonth(ctx context.Context, userID, key string) (MonthView, error) {
	if _, err := core.ParseMonthKey(key); err != nil {
		return MonthView{}, err
	}
	book, err := s.loadBook(ctx, userID)
	if err != nil {
		return MonthView{}, err
	}
	return view(book, key)
}

func view(book *core.Book, key string) (MonthView, error) {
	m, err := book.Month(key)
	if err != nil {
		return MonthView{}, err
	}
	summary, err := book.Summary(key)
	if err != nil {
		return MonthView{}, err
	}
	history, err := book.History(key, core.DefaultHistoryLength)
	if err != nil {
		return MonthView{}, err
	}
	return MonthView{Month: m, Summary: summary, History: history}, nil
}

// CreateMonth opens a new month. An empty key means the current month.
func (s *BudgetService) CreateMonth(ctx context.Context, userID, key string) (MonthView, error) {
	if key == "" {
		key = s.env.CurrentKey()
	}
	var out MonthView
	err := s.mutate(ctx, userID, func(book *core.Book) error {
		m, err := book.CreateMonth(key)
		if err != nil {
			return err
		}
		if err := s.store.InsertMonth(ctx, userID, m); err != nil {
			return storeErr(fmt.Errorf("insert month: %w", err), "month", m.Key)
		}
		out, err = view(book, m.Key)
		return err
	})
	if err != nil {
		return MonthView{}, err
	}

	slog.InfoContext(ctx, "Month created",
		"user_id", userID,
		"month_key", out.Month.Key,
		"carry_over", out.Month.CarryOver)
	s.publish(ctx, amqp.NewEvent(amqp.MonthCreated, userID).WithMonth(out.Month.Key))
	return out, nil
}

// DuplicateMonth copies from into to. An empty to means the month after from.
func (s *BudgetService) DuplicateMonth(ctx context.Context, userID, from, to string) (MonthView, error) {
	var out MonthView
	err := s.mutate(ctx, userID, func(book *core.Book) error {
		m, err := book.DuplicateMonth(from, to)
		if err != nil {
			return err
		}
		if err := s.store.InsertMonth(ctx, userID, m); err != nil {
			return storeErr(fmt.Errorf("insert month: %w", err), "month", m.Key)
		}
		out, err = view(book, m.Key)
		return err
	})
	if err != nil {
		return MonthView{}, err
	}

	slog.InfoContext(ctx, "Month duplicated", "user_id", userID, "from", from, "month_key", out.Month.Key)
	ev := amqp.NewEvent(amqp.MonthDuplicated, userID).WithMonth(out.Month.Key)
	ev.Months = []string{from}
	s.publish(ctx, ev)
	return out, nil
}

// ReplaceMonth validates raw strictly and stores it as the full content of
// the existing month key. Any key inside raw is ignored.
func (s *BudgetService) ReplaceMonth(ctx context.Context, userID, key string, raw map[string]any) (MonthView, error) {
	if _, err := core.ParseMonthKey(key); err != nil {
		return MonthView{}, err
	}
	if err := core.ValidateMonthPayload(raw); err != nil {
		return MonthView{}, err
	}

	var out MonthView
	err := s.mutate(ctx, userID, func(book *core.Book) error {
		m := s.env.NormalizeMonth(raw)
		m.Key = key
		saved, err := book.PutMonth(m)
		if err != nil {
			return err
		}
		if err := s.store.SaveMonth(ctx, userID, saved); err != nil {
			return storeErr(fmt.Errorf("save month: %w", err), "month", key)
		}
		out, err = view(book, key)
		return err
	})
	if err != nil {
		return MonthView{}, err
	}

	s.publish(ctx, amqp.NewEvent(amqp.MonthUpdated, userID).WithMonth(key))
	return out, nil
}

// SetCarryOver overrides the carry-over of a month. v may be a number or a
// numeric string.
func (s *BudgetService) SetCarryOver(ctx context.Context, userID, key string, v any) (MonthView, error) {
	if err := core.ValidateCarryOver(v); err != nil {
		return MonthView{}, err
	}
	value := core.ToSignedAmount(v)

	var out MonthView
	err := s.mutate(ctx, userID, func(book *core.Book) error {
		m, err := book.SetCarryOver(key, value)
		if err != nil {
			return err
		}
		if err := s.store.SaveMonth(ctx, userID, m); err != nil {
			return storeErr(fmt.Errorf("save month: %w", err), "month", key)
		}
		out, err = view(book, key)
		return err
	})
	if err != nil {
		return MonthView{}, err
	}

	s.publish(ctx, amqp.NewEvent(amqp.MonthCarryOverChanged, userID).WithMonth(key))
	return out, nil
}

func (s *BudgetService) DeleteMonth(ctx context.Context, userID, key string) error {
	err := s.mutate(ctx, userID, func(book *core.Book) error {
		if err := book.DeleteMonth(key); err != nil {
			return err
		}
		if err := s.store.DeleteMonth(ctx, userID, key); err != nil {
			return storeErr(fmt.Errorf("delete month: %w", err), "month", key)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Month deleted", "user_id", userID, "month_key", key)
	s.publish(ctx, amqp.NewEvent(amqp.MonthDeleted, userID).WithMonth(key))
	return nil
}
