package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"budgify/internal/amqp"
	"budgify/internal/core"
	"budgify/internal/store"
)

// EventPublisher is the subset of the AMQP client the service needs.
type EventPublisher interface {
	Publish(ctx context.Context, ev amqp.Event) error
}

// BudgetService orchestrates budget operations: it loads a user's book from
// the store, applies one core operation, persists what changed and publishes
// an event. Mutations of one user are serialized.
type BudgetService struct {
	store  store.Store
	events EventPublisher
	env    core.Env

	mu    sync.Mutex
	locks map[string]*userLock
}

// userLock is a user's write slot. refs counts holders and waiters; the entry
// leaves the map when it drops to zero.
type userLock struct {
	sem  *semaphore.Weighted
	refs int
}

type Option func(*BudgetService)

// WithEnv overrides the id generator and clock, mostly for tests.
func WithEnv(env core.Env) Option {
	return func(s *BudgetService) { s.env = env }
}

// WithEvents enables event publishing. A nil publisher keeps events off.
func WithEvents(p EventPublisher) Option {
	return func(s *BudgetService) { s.events = p }
}

func NewBudgetService(st store.Store, opts ...Option) *BudgetService {
	s := &BudgetService{
		store: st,
		env:   core.DefaultEnv(),
		locks: make(map[string]*userLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BudgetService) now() time.Time {
	if s.env.Now == nil {
		return time.Now()
	}
	return s.env.Now()
}

// Ping checks the store, used by the readiness probe.
func (s *BudgetService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// lock acquires the user's write slot, honouring ctx cancellation.
func (s *BudgetService) lock(ctx context.Context, userID string) (func(), error) {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &userLock{sem: semaphore.NewWeighted(1)}
		s.locks[userID] = l
	}
	l.refs++
	s.mu.Unlock()

	if err := l.sem.Acquire(ctx, 1); err != nil {
		s.release(userID, l)
		return nil, fmt.Errorf("acquire budget lock: %w", err)
	}
	return func() {
		l.sem.Release(1)
		s.release(userID, l)
	}, nil
}

func (s *BudgetService) release(userID string, l *userLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, userID)
	}
}

// loadBook reads settings and months concurrently and builds the user's book.
func (s *BudgetService) loadBook(ctx context.Context, userID string) (*core.Book, error) {
	settings, months, err := s.loadState(ctx, userID)
	if err != nil {
		return nil, err
	}
	return core.NewBook(settings, months, s.env), nil
}

// loadState returns the user's settings and stored months as they are.
func (s *BudgetService) loadState(ctx context.Context, userID string) (core.Settings, []core.Month, error) {
	var (
		settings core.Settings
		months   []core.Month
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		settings, err = s.store.GetSettings(gctx, userID)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		months, err = s.store.ListMonths(gctx, userID)
		if err != nil {
			return fmt.Errorf("load months: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.Settings{}, nil, err
	}
	return settings, months, nil
}

// mutate runs fn on the user's freshly loaded book while holding the user's
// lock. fn persists its own changes.
func (s *BudgetService) mutate(ctx context.Context, userID string, fn func(*core.Book) error) error {
	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	book, err := s.loadBook(ctx, userID)
	if err != nil {
		return err
	}
	return fn(book)
}

// publish sends ev when events are enabled. Failures are logged only: the
// change is already committed.
func (s *BudgetService) publish(ctx context.Context, ev amqp.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		slog.WarnContext(ctx, "Failed to publish budget event",
			"type", ev.Type,
			"user_id", ev.UserID,
			"error", err)
	}
}

// storeErr maps store sentinels onto domain errors.
func storeErr(err error, kind, id string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &core.NotFoundError{Kind: kind, ID: id}
	case errors.Is(err, store.ErrDuplicate):
		return &core.ConflictError{Kind: kind, Key: id}
	}
	return err
}
