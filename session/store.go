package session

import "context"

// Store persists sessions keyed by contact ID. Implementations must be safe
// for concurrent use.
type Store interface {
	// Create starts a fresh session for the contact, replacing any
	// existing record for the same contact.
	Create(ctx context.Context, contactID, callerID string) (*Session, error)

	// Get returns the live session for a contact. Expired or ended
	// sessions are reported as ErrNotFound, same as never-created ones.
	Get(ctx context.Context, contactID string) (*Session, error)

	// Update persists the session and refreshes its expiry. The history
	// is trimmed to the configured cap. The last writer wins.
	Update(ctx context.Context, contactID string, sess *Session) error

	// End marks the contact's session completed. Ending an unknown or
	// already-ended session is a no-op.
	End(ctx context.Context, contactID string) error

	// ActiveCount reports how many unexpired active sessions exist.
	ActiveCount(ctx context.Context) (int, error)
}

// NewStore creates a Store from configuration: SQLite-backed when a database
// path is set, in-memory otherwise.
func NewStore(cfg *Config) (Store, error) {
	if cfg == nil {
		defaults := DefaultConfig()
		cfg = &defaults
	}
	if cfg.Path == "" {
		return NewMemoryStore(cfg), nil
	}
	return NewSQLiteStore(cfg)
}
