// Package worker runs background maintenance over stored budgets.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"budgify/internal/amqp"
	applog "budgify/internal/log"
)

// Bindings are the routing keys the worker's queue listens to.
var Bindings = []string{string(amqp.CategoryDeleted)}

// Repairer rewrites months whose references went stale. *services.BudgetService
// implements it.
type Repairer interface {
	RepairReferences(ctx context.Context, userID string) ([]string, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}

// SweepResult counts what a sweep did.
type SweepResult struct {
	Users    int
	Repaired int
	Failed   int
}

// RepairWorker keeps stored months consistent with their user's categories.
// It reacts to category deletions from the event bus and sweeps every user
// periodically in case an event was lost.
type RepairWorker struct {
	repairer    Repairer
	concurrency int
	logger      *applog.Logger

	handled atomic.Int64
}

func NewRepairWorker(repairer Repairer, concurrency int, logger *applog.Logger) *RepairWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	return &RepairWorker{
		repairer:    repairer,
		concurrency: concurrency,
		logger:      logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleEvent processes one event from the bus. Events other than category
// deletions are acknowledged without work.
func (w *RepairWorker) HandleEvent(ctx context.Context, ev amqp.Event) error {
	if ev.Type != amqp.CategoryDeleted {
		w.logger.DebugContext(ctx, "Ignoring event", applog.FieldEventType, ev.Type)
		return nil
	}
	if ev.UserID == "" {
		w.logger.WarnContext(ctx, "Dropping category event without user", applog.FieldCategoryKind, ev.Category)
		return nil
	}

	repaired, err := w.repairer.RepairReferences(ctx, ev.UserID)
	if err != nil {
		return fmt.Errorf("repair user %s: %w", ev.UserID, err)
	}
	w.handled.Add(1)

	w.logger.InfoContext(ctx, "Processed category deletion",
		applog.FieldUserID, ev.UserID,
		applog.FieldCategoryKind, ev.Category,
		applog.FieldCategoryID, ev.EntryID,
		applog.FieldMonthsChanged, len(repaired))
	return nil
}

// Sweep repairs every user, at most concurrency at a time. A failing user is
// logged and counted; the sweep only fails when users cannot be listed or ctx
// ends.
func (w *RepairWorker) Sweep(ctx context.Context) (SweepResult, error) {
	ids, err := w.repairer.ListUserIDs(ctx)
	if err != nil {
		return SweepResult{}, err
	}

	var repaired, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			keys, err := w.repairer.RepairReferences(gctx, id)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				w.logger.ErrorContext(gctx, "Failed to repair user",
					applog.FieldUserID, id,
					applog.FieldError, err)
				return nil
			}
			repaired.Add(int64(len(keys)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SweepResult{}, err
	}

	return SweepResult{
		Users:    len(ids),
		Repaired: int(repaired.Load()),
		Failed:   int(failed.Load()),
	}, nil
}

// StartupCheck runs one sweep before events are consumed, to catch up on
// anything missed while the worker was down.
func (w *RepairWorker) StartupCheck(ctx context.Context) error {
	res, err := w.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("startup sweep: %w", err)
	}
	if res.Repaired == 0 {
		w.logger.InfoContext(ctx, "No stale references found on startup", "users", res.Users)
		return nil
	}
	w.logger.InfoContext(ctx, "Startup sweep completed",
		"users", res.Users,
		applog.FieldMonthsChanged, res.Repaired,
		"errors", res.Failed)
	return nil
}

// Run sweeps every interval until ctx is done.
func (w *RepairWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := w.Sweep(ctx)
			if err != nil {
				if ctx.Err() == nil {
					w.logger.ErrorContext(ctx, "Periodic sweep failed", applog.FieldError, err)
				}
				continue
			}
			if res.Repaired > 0 || res.Failed > 0 {
				w.logger.InfoContext(ctx, "Periodic sweep completed",
					"users", res.Users,
					applog.FieldMonthsChanged, res.Repaired,
					"errors", res.Failed)
			}
		}
	}
}

// Handled returns how many category events were processed.
func (w *RepairWorker) Handled() int64 {
	return w.handled.Load()
}
