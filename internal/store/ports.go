// Package store defines the persistence ports the budget service depends on.
// internal/storage implements it on SQLite; the memory subpackage serves tests
// and throwaway instances.
package store

import (
	"context"
	"errors"
	"time"

	"budgify/internal/core"
)

var (
	// ErrNotFound is returned when a user, category or month does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a unique key (email, month key,
	// category id) is already taken.
	ErrDuplicate = errors.New("store: duplicate")
)

// User is an account able to own a budget.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Users persists accounts.
type Users interface {
	CreateUser(ctx context.Context, u User) error
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)
	// ListUserIDs returns every account id in ascending order.
	ListUserIDs(ctx context.Context) ([]string, error)
}

// Settings persists category definitions.
type Settings interface {
	GetSettings(ctx context.Context, userID string) (core.Settings, error)
	InsertCategory(ctx context.Context, userID string, kind core.CategoryKind, c core.Category) error
	UpdateCategory(ctx context.Context, userID string, kind core.CategoryKind, c core.Category) error
	DeleteCategory(ctx context.Context, userID string, kind core.CategoryKind, id string) error
	// ReplaceSettings overwrites all four lists, used to seed new users.
	ReplaceSettings(ctx context.Context, userID string, s core.Settings) error
}

// Months persists month documents. Months come back normalized.
type Months interface {
	GetMonth(ctx context.Context, userID, key string) (core.Month, error)
	ListMonths(ctx context.Context, userID string) ([]core.Month, error)
	InsertMonth(ctx context.Context, userID string, m core.Month) error
	SaveMonth(ctx context.Context, userID string, m core.Month) error
	DeleteMonth(ctx context.Context, userID, key string) error
}

// Store is the full persistence port.
type Store interface {
	Users
	Settings
	Months

	// Atomic runs fn against a Store whose writes commit together, or not
	// at all when fn returns an error.
	Atomic(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
	Close() error
}
