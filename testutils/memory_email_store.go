package testutils

import (
	"context"
	"sort"
	"sync"

	"github.com/tebohomanyeli/Timeline-App-Fullstack/db"
)

// MemoryEmailStore is an in-memory record store implementing the same
// surface as db.Database, for pipeline and API handler tests.
type MemoryEmailStore struct {
	mu         sync.RWMutex
	emails     map[string]*db.Email
	order      []string // insertion order, for deterministic iteration
	insertErr  error
	insertHook func(*db.Email) error
	deleteErr  error
}

func NewMemoryEmailStore() *MemoryEmailStore {
	return &MemoryEmailStore{
		emails: make(map[string]*db.Email),
	}
}

// SetInsertError makes subsequent inserts fail with err.
func (m *MemoryEmailStore) SetInsertError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertErr = err
}

// SetInsertHook installs a per-record gate invoked before each insert; a
// non-nil return fails that insert only.
func (m *MemoryEmailStore) SetInsertHook(hook func(*db.Email) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertHook = hook
}

// SetDeleteAllError makes DeleteAllEmails fail with err.
func (m *MemoryEmailStore) SetDeleteAllError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteErr = err
}

func (m *MemoryEmailStore) InsertEmail(_ context.Context, email *db.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if m.insertHook != nil {
		if err := m.insertHook(email); err != nil {
			return err
		}
	}
	if _, exists := m.emails[email.ID]; exists {
		return db.ErrDuplicateEmail
	}
	clone := *email
	clone.Normalize()
	m.emails[email.ID] = &clone
	m.order = append(m.order, email.ID)
	return nil
}

func (m *MemoryEmailStore) UpdateEmail(_ context.Context, email *db.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.emails[email.ID]; !exists {
		return db.ErrEmailNotFound
	}
	clone := *email
	clone.Normalize()
	m.emails[email.ID] = &clone
	return nil
}

func (m *MemoryEmailStore) ListEmails(_ context.Context) ([]*db.Email, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*db.Email{}
	for _, id := range m.order {
		if email, ok := m.emails[id]; ok {
			clone := *email
			out = append(out, &clone)
		}
	}
	// Newest first, stable for equal timestamps
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (m *MemoryEmailStore) GetEmailByID(_ context.Context, id string) (*db.Email, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email, ok := m.emails[id]
	if !ok {
		return nil, db.ErrEmailNotFound
	}
	clone := *email
	return &clone, nil
}

func (m *MemoryEmailStore) DeleteEmailByID(_ context.Context, id string) (*db.Email, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email, ok := m.emails[id]
	if !ok {
		return nil, db.ErrEmailNotFound
	}
	delete(m.emails, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return email, nil
}

func (m *MemoryEmailStore) DeleteAllEmails(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	count := int64(len(m.emails))
	m.emails = make(map[string]*db.Email)
	m.order = nil
	return count, nil
}

// Count returns the number of stored records.
func (m *MemoryEmailStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.emails)
}
