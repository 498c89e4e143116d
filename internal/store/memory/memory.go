// Package memory is an in-process implementation of store.Store. Months are
// kept as JSON documents, like the SQLite store, so reads go through the same
// normalization.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"budgify/internal/core"
	"budgify/internal/store"
)

type state struct {
	users    map[string]store.User
	emails   map[string]string
	settings map[string]core.Settings
	months   map[string]map[string][]byte
}

func newState() *state {
	return &state{
		users:    map[string]store.User{},
		emails:   map[string]string{},
		settings: map[string]core.Settings{},
		months:   map[string]map[string][]byte{},
	}
}

func (st *state) clone() *state {
	out := newState()
	for k, v := range st.users {
		out.users[k] = v
	}
	for k, v := range st.emails {
		out.emails[k] = v
	}
	for k, v := range st.settings {
		out.settings[k] = v.Clone()
	}
	for user, docs := range st.months {
		cp := make(map[string][]byte, len(docs))
		for k, v := range docs {
			cp[k] = v
		}
		out.months[user] = cp
	}
	return out
}

type Store struct {
	mu    sync.Mutex
	write sync.Mutex // held by Atomic for its whole run
	st    *state
	env   core.Env
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState(), env: core.DefaultEnv()}
}

// Atomic runs fn on a copy of the data and publishes the copy only when fn
// succeeds.
func (s *Store) Atomic(ctx context.Context, fn func(store.Store) error) error {
	s.write.Lock()
	defer s.write.Unlock()

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	tx := &Store{st: snapshot, env: s.env}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.st = snapshot
	s.mu.Unlock()
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// update serializes a single write against running Atomic calls.
func (s *Store) update(fn func(st *state) error) error {
	s.write.Lock()
	defer s.write.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func (s *Store) read(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func (s *Store) CreateUser(_ context.Context, u store.User) error {
	return s.update(func(st *state) error {
		if _, ok := st.emails[u.Email]; ok {
			return fmt.Errorf("user %s: %w", u.Email, store.ErrDuplicate)
		}
		if _, ok := st.users[u.ID]; ok {
			return fmt.Errorf("user %s: %w", u.ID, store.ErrDuplicate)
		}
		st.users[u.ID] = u
		st.emails[u.Email] = u.ID
		return nil
	})
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	var u store.User
	err := s.read(func(st *state) error {
		id, ok := st.emails[email]
		if !ok {
			return store.ErrNotFound
		}
		u = st.users[id]
		return nil
	})
	return u, err
}

func (s *Store) ListUserIDs(_ context.Context) ([]string, error) {
	var ids []string
	err := s.read(func(st *state) error {
		ids = make([]string, 0, len(st.users))
		for id := range st.users {
			ids = append(ids, id)
		}
		return nil
	})
	slices.Sort(ids)
	return ids, err
}

func (s *Store) GetUserByID(_ context.Context, id string) (store.User, error) {
	var u store.User
	err := s.read(func(st *state) error {
		found, ok := st.users[id]
		if !ok {
			return store.ErrNotFound
		}
		u = found
		return nil
	})
	return u, err
}

func (s *Store) GetSettings(_ context.Context, userID string) (core.Settings, error) {
	var out core.Settings
	_ = s.read(func(st *state) error {
		out = st.settings[userID].Clone()
		return nil
	})
	for _, kind := range core.CategoryKinds {
		slices.SortStableFunc(kind.List(&out), func(a, b core.Category) int { return a.SortOrder - b.SortOrder })
	}
	return out, nil
}

func (s *Store) InsertCategory(_ context.Context, userID string, kind core.CategoryKind, c core.Category) error {
	return s.update(func(st *state) error {
		settings := st.settings[userID].Clone()
		list := kind.List(&settings)
		if slices.ContainsFunc(list, func(x core.Category) bool { return x.ID == c.ID }) {
			return fmt.Errorf("%s %s: %w", kind, c.ID, store.ErrDuplicate)
		}
		st.settings[userID] = withList(settings, kind, append(list, c))
		return nil
	})
}

func (s *Store) UpdateCategory(_ context.Context, userID string, kind core.CategoryKind, c core.Category) error {
	return s.update(func(st *state) error {
		settings := st.settings[userID].Clone()
		list := kind.List(&settings)
		i := slices.IndexFunc(list, func(x core.Category) bool { return x.ID == c.ID })
		if i < 0 {
			return fmt.Errorf("%s %s: %w", kind, c.ID, store.ErrNotFound)
		}
		list[i] = c
		st.settings[userID] = settings
		return nil
	})
}

func (s *Store) DeleteCategory(_ context.Context, userID string, kind core.CategoryKind, id string) error {
	return s.update(func(st *state) error {
		settings := st.settings[userID].Clone()
		list := kind.List(&settings)
		i := slices.IndexFunc(list, func(x core.Category) bool { return x.ID == id })
		if i < 0 {
			return fmt.Errorf("%s %s: %w", kind, id, store.ErrNotFound)
		}
		st.settings[userID] = withList(settings, kind, slices.Delete(list, i, i+1))
		return nil
	})
}

func (s *Store) ReplaceSettings(_ context.Context, userID string, settings core.Settings) error {
	return s.update(func(st *state) error {
		st.settings[userID] = settings.Clone()
		return nil
	})
}

func (s *Store) GetMonth(_ context.Context, userID, key string) (core.Month, error) {
	var doc []byte
	err := s.read(func(st *state) error {
		d, ok := st.months[userID][key]
		if !ok {
			return fmt.Errorf("month %s: %w", key, store.ErrNotFound)
		}
		doc = d
		return nil
	})
	if err != nil {
		return core.Month{}, err
	}
	return s.decode(key, doc)
}

func (s *Store) ListMonths(_ context.Context, userID string) ([]core.Month, error) {
	docs := map[string][]byte{}
	_ = s.read(func(st *state) error {
		for k, v := range st.months[userID] {
			docs[k] = v
		}
		return nil
	})
	keys := make([]string, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]core.Month, 0, len(keys))
	for _, k := range keys {
		m, err := s.decode(k, docs[k])
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) InsertMonth(_ context.Context, userID string, m core.Month) error {
	doc, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode month %s: %w", m.Key, err)
	}
	return s.update(func(st *state) error {
		if _, ok := st.months[userID][m.Key]; ok {
			return fmt.Errorf("month %s: %w", m.Key, store.ErrDuplicate)
		}
		if st.months[userID] == nil {
			st.months[userID] = map[string][]byte{}
		}
		st.months[userID][m.Key] = doc
		return nil
	})
}

func (s *Store) SaveMonth(_ context.Context, userID string, m core.Month) error {
	doc, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode month %s: %w", m.Key, err)
	}
	return s.update(func(st *state) error {
		if _, ok := st.months[userID][m.Key]; !ok {
			return fmt.Errorf("month %s: %w", m.Key, store.ErrNotFound)
		}
		st.months[userID][m.Key] = doc
		return nil
	})
}

func (s *Store) DeleteMonth(_ context.Context, userID, key string) error {
	return s.update(func(st *state) error {
		if _, ok := st.months[userID][key]; !ok {
			return fmt.Errorf("month %s: %w", key, store.ErrNotFound)
		}
		delete(st.months[userID], key)
		return nil
	})
}

// PutRawMonth stores a document verbatim, bypassing encoding. It exists to
// load legacy shaped data.
func (s *Store) PutRawMonth(userID, key string, doc []byte) {
	_ = s.update(func(st *state) error {
		if st.months[userID] == nil {
			st.months[userID] = map[string][]byte{}
		}
		st.months[userID][key] = doc
		return nil
	})
}

func (s *Store) decode(key string, doc []byte) (core.Month, error) {
	var raw map[string]any
	if err := json.Unmarshal(doc, &raw); err != nil {
		return core.Month{}, fmt.Errorf("decode month %s: %w", key, err)
	}
	m := s.env.NormalizeMonth(raw)
	m.Key = key
	return m, nil
}

func withList(s core.Settings, kind core.CategoryKind, list []core.Category) core.Settings {
	switch kind {
	case core.KindFixedCharges:
		s.FixedCharges = list
	case core.KindSubscriptions:
		s.Subscriptions = list
	case core.KindCredits:
		s.Credits = list
	case core.KindSavings:
		s.Savings = list
	}
	return s
}
