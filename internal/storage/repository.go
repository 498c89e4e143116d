// Package storage is the SQLite implementation of store.Store. Categories
// are rows with amounts in integer cents; months are JSON documents read back
// through core normalization.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"budgify/internal/core"
	"budgify/internal/store"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type SQLiteRepository struct {
	db   *sql.DB
	q    querier
	inTx bool
	env  core.Env
}

var _ store.Store = (*SQLiteRepository)(nil)

// DSN builds a modernc connection string for the database file at path with
// foreign keys enforced and a busy timeout. Transactions begin IMMEDIATE, so
// one that reads before writing holds the write lock from its first read.
func DSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection keeps transactions
	// from tripping over each other.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, q: db, env: core.DefaultEnv()}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.inTx || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Atomic runs fn inside a transaction. Nested calls join the outer one.
func (r *SQLiteRepository) Atomic(ctx context.Context, fn func(store.Store) error) error {
	if r.inTx {
		return fn(r)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	txRepo := &SQLiteRepository{db: r.db, q: tx, inTx: true, env: r.env}
	if err := fn(txRepo); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Failed to roll back transaction", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u store.User) error {
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, created)
	if err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	return r.getUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email)
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (store.User, error) {
	return r.getUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (r *SQLiteRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return ids, nil
}

func (r *SQLiteRepository) getUser(ctx context.Context, query string, arg string) (store.User, error) {
	var u store.User
	err := r.q.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return store.User{}, fmt.Errorf("get user: %w", translate(err))
	}
	return u, nil
}

func (r *SQLiteRepository) GetSettings(ctx context.Context, userID string) (core.Settings, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT kind, id, label, amount_cents, sort_order
		   FROM categories
		  WHERE user_id = ?
		  ORDER BY sort_order, created_at, id`, userID)
	if err != nil {
		return core.Settings{}, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	settings := core.Settings{}.Clone()
	for rows.Next() {
		var (
			kindName string
			c        core.Category
			cents    int64
		)
		if err := rows.Scan(&kindName, &c.ID, &c.Label, &cents, &c.SortOrder); err != nil {
			return core.Settings{}, fmt.Errorf("scan category: %w", err)
		}
		kind, err := core.ParseCategoryKind(kindName)
		if err != nil {
			slog.WarnContext(ctx, "Skipping category with unknown kind", "kind", kindName, "id", c.ID)
			continue
		}
		c.Amount = core.FromCents(cents)
		appendCategory(&settings, kind, c)
	}
	if err := rows.Err(); err != nil {
		return core.Settings{}, fmt.Errorf("iterate categories: %w", err)
	}
	return settings, nil
}

func (r *SQLiteRepository) InsertCategory(ctx context.Context, userID string, kind core.CategoryKind, c core.Category) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO categories (user_id, kind, id, label, amount_cents, sort_order) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, kind.String(), c.ID, c.Label, core.ToCents(c.Amount), c.SortOrder)
	if err != nil {
		return fmt.Errorf("insert %s category: %w", kind, translate(err))
	}
	return nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, userID string, kind core.CategoryKind, c core.Category) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE categories SET label = ?, amount_cents = ?, sort_order = ?
		  WHERE user_id = ? AND kind = ? AND id = ?`,
		c.Label, core.ToCents(c.Amount), c.SortOrder, userID, kind.String(), c.ID)
	if err != nil {
		return fmt.Errorf("update %s category: %w", kind, translate(err))
	}
	return expectRow(res, fmt.Sprintf("%s category %s", kind, c.ID))
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID string, kind core.CategoryKind, id string) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM categories WHERE user_id = ? AND kind = ? AND id = ?`,
		userID, kind.String(), id)
	if err != nil {
		return fmt.Errorf("delete %s category: %w", kind, err)
	}
	return expectRow(res, fmt.Sprintf("%s category %s", kind, id))
}

func (r *SQLiteRepository) ReplaceSettings(ctx context.Context, userID string, s core.Settings) error {
	return r.Atomic(ctx, func(tx store.Store) error {
		txRepo := tx.(*SQLiteRepository)
		if _, err := txRepo.q.ExecContext(ctx, `DELETE FROM categories WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("clear categories: %w", err)
		}
		for _, kind := range core.CategoryKinds {
			for _, c := range kind.List(&s) {
				if err := txRepo.InsertCategory(ctx, userID, kind, c); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) GetMonth(ctx context.Context, userID, key string) (core.Month, error) {
	var data string
	err := r.q.QueryRowContext(ctx,
		`SELECT data FROM months WHERE user_id = ? AND month_key = ?`, userID, key).Scan(&data)
	if err != nil {
		return core.Month{}, fmt.Errorf("get month %s: %w", key, translate(err))
	}
	return r.decode(key, data)
}

func (r *SQLiteRepository) ListMonths(ctx context.Context, userID string) ([]core.Month, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT month_key, data FROM months WHERE user_id = ? ORDER BY month_key`, userID)
	if err != nil {
		return nil, fmt.Errorf("query months: %w", err)
	}
	defer rows.Close()

	months := []core.Month{}
	for rows.Next() {
		var key, data string
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("scan month: %w", err)
		}
		m, err := r.decode(key, data)
		if err != nil {
			return nil, err
		}
		months = append(months, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate months: %w", err)
	}
	return months, nil
}

func (r *SQLiteRepository) InsertMonth(ctx context.Context, userID string, m core.Month) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode month %s: %w", m.Key, err)
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO months (user_id, month_key, data) VALUES (?, ?, ?)`, userID, m.Key, string(data))
	if err != nil {
		return fmt.Errorf("insert month %s: %w", m.Key, translate(err))
	}
	slog.DebugContext(ctx, "Month saved to SQLite", "user_id", userID, "month_key", m.Key)
	return nil
}

func (r *SQLiteRepository) SaveMonth(ctx context.Context, userID string, m core.Month) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode month %s: %w", m.Key, err)
	}
	res, err := r.q.ExecContext(ctx,
		`UPDATE months SET data = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ? AND month_key = ?`,
		string(data), userID, m.Key)
	if err != nil {
		return fmt.Errorf("save month %s: %w", m.Key, err)
	}
	return expectRow(res, "month "+m.Key)
}

func (r *SQLiteRepository) DeleteMonth(ctx context.Context, userID, key string) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM months WHERE user_id = ? AND month_key = ?`, userID, key)
	if err != nil {
		return fmt.Errorf("delete month %s: %w", key, err)
	}
	return expectRow(res, "month "+key)
}

func (r *SQLiteRepository) decode(key, data string) (core.Month, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return core.Month{}, fmt.Errorf("decode month %s: %w", key, err)
	}
	m := r.env.NormalizeMonth(raw)
	m.Key = key
	return m, nil
}

func appendCategory(s *core.Settings, kind core.CategoryKind, c core.Category) {
	switch kind {
	case core.KindFixedCharges:
		s.FixedCharges = append(s.FixedCharges, c)
	case core.KindSubscriptions:
		s.Subscriptions = append(s.Subscriptions, c)
	case core.KindCredits:
		s.Credits = append(s.Credits, c)
	case core.KindSavings:
		s.Savings = append(s.Savings, c)
	}
}

func expectRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	return nil
}

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var se *msqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			// The owning user row is gone.
			return fmt.Errorf("%w: %v", store.ErrNotFound, err)
		}
	}
	return err
}
