package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryStore struct {
	cfg      Config
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates a Store backed by a process-local map. Sessions do
// not survive restarts; ended sessions are dropped.
func NewMemoryStore(cfg *Config) Store {
	return &memoryStore{
		cfg:      *cfg,
		sessions: make(map[string]*Session),
	}
}

func (m *memoryStore) Create(ctx context.Context, contactID, callerID string) (*Session, error) {
	sess := NewSession(contactID, callerID, m.cfg.TTL())

	m.mu.Lock()
	m.sessions[contactID] = sess.Clone()
	m.mu.Unlock()

	return sess, nil
}

func (m *memoryStore) Get(ctx context.Context, contactID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[contactID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, contactID)
	}
	if sess.Status != StatusActive || sess.Expired(time.Now()) {
		delete(m.sessions, contactID)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, contactID)
	}
	return sess.Clone(), nil
}

func (m *memoryStore) Update(ctx context.Context, contactID string, sess *Session) error {
	now := time.Now()
	sess.ContactID = contactID
	sess.UpdatedAt = now
	sess.ExpiresAt = now.Add(m.cfg.TTL())
	sess.History = trimHistory(sess.History, m.cfg.HistoryLimit())

	m.mu.Lock()
	m.sessions[contactID] = sess.Clone()
	m.mu.Unlock()

	return nil
}

func (m *memoryStore) End(ctx context.Context, contactID string) error {
	m.mu.Lock()
	delete(m.sessions, contactID)
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) ActiveCount(ctx context.Context) (int, error) {
	now := time.Now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, sess := range m.sessions {
		if sess.Status == StatusActive && !sess.Expired(now) {
			count++
		}
	}
	return count, nil
}
