package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budgify/internal/amqp"
	"budgify/internal/auth"
	"budgify/internal/core"
	"budgify/internal/store"
)

// User is the public view of an account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func publicUser(u store.User) User {
	return User{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

// Register creates an account seeded with the default categories.
func (s *BudgetService) Register(ctx context.Context, email, password string) (User, error) {
	email = auth.NormalizeEmail(email)
	if err := credentialsError(email, password); err != nil {
		return User{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, err
	}
	u := store.User{
		ID:           core.NewID("usr"),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC().Truncate(time.Second),
	}

	err = s.store.Atomic(ctx, func(tx store.Store) error {
		if err := tx.CreateUser(ctx, u); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return &core.ConflictError{Kind: "account", Key: email}
			}
			return fmt.Errorf("create user: %w", err)
		}
		if err := tx.ReplaceSettings(ctx, u.ID, store.DefaultSettings()); err != nil {
			return fmt.Errorf("seed settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return User{}, err
	}

	slog.InfoContext(ctx, "User registered", "user_id", u.ID)
	s.publish(ctx, amqp.NewEvent(amqp.UserRegistered, u.ID))
	return publicUser(u), nil
}

// Login checks the credentials and returns the account. Unknown emails and
// wrong passwords both yield auth.ErrInvalidCredentials.
func (s *BudgetService) Login(ctx context.Context, email, password string) (User, error) {
	email = auth.NormalizeEmail(email)
	if err := credentialsError(email, password); err != nil {
		return User{}, err
	}
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return User{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		return User{}, auth.ErrInvalidCredentials
	}
	return publicUser(u), nil
}

// Me returns the account behind a token.
func (s *BudgetService) Me(ctx context.Context, userID string) (User, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return User{}, storeErr(err, "user", userID)
	}
	return publicUser(u), nil
}

func credentialsError(email, password string) error {
	err := auth.ValidateCredentials(email, password)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrInvalidEmail):
		return &core.ValidationError{Field: "email", Reason: "must be a valid email address", Err: err}
	default:
		return &core.ValidationError{Field: "password", Reason: err.Error(), Err: err}
	}
}
