package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sessionSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	contact_id     TEXT PRIMARY KEY,
	id             TEXT NOT NULL,
	caller_id      TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'active',
	turn_count     INTEGER NOT NULL DEFAULT 0,
	history        TEXT NOT NULL DEFAULT '[]',
	caller_history TEXT NOT NULL DEFAULT '[]',
	metadata       TEXT NOT NULL DEFAULT '{}',
	created_at     INTEGER NOT NULL,
	updated_at     INTEGER NOT NULL,
	expires_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_live ON sessions(status, expires_at);
`

const (
	upsertSessionQuery = `
INSERT OR REPLACE INTO sessions
	(contact_id, id, caller_id, status, turn_count, history, caller_history, metadata, created_at, updated_at, expires_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectLiveQuery = `
SELECT id, caller_id, status, turn_count, history, caller_history, metadata, created_at, updated_at, expires_at
FROM sessions
WHERE contact_id = ? AND status = 'active' AND expires_at > ?`

	completeSessionQuery = `UPDATE sessions SET status = 'completed', updated_at = ? WHERE contact_id = ?`

	countActiveQuery = `SELECT COUNT(*) FROM sessions WHERE status = 'active' AND expires_at > ?`
)

type sqliteStore struct {
	cfg Config
	db  *sql.DB
}

// NewSQLiteStore opens or creates the session database at cfg.Path. Ended
// sessions stay in the table marked completed; reads filter them out.
func NewSQLiteStore(cfg *Config) (Store, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	// Single writer: the driver serializes access to the file anyway, and a
	// single connection avoids SQLITE_BUSY under concurrent updates.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure session database: %w", err)
	}
	if _, err := db.Exec(sessionSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	return &sqliteStore{cfg: *cfg, db: db}, nil
}

func (s *sqliteStore) Create(ctx context.Context, contactID, callerID string) (*Session, error) {
	sess := NewSession(contactID, callerID, s.cfg.TTL())
	if err := s.put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *sqliteStore) Get(ctx context.Context, contactID string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, selectLiveQuery, contactID, time.Now().Unix())

	var (
		sess                            Session
		status                          string
		history, callerHistory, meta    string
		createdAt, updatedAt, expiresAt int64
	)
	sess.ContactID = contactID

	err := row.Scan(&sess.ID, &sess.CallerID, &status, &sess.TurnCount,
		&history, &callerHistory, &meta, &createdAt, &updatedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, contactID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", contactID, err)
	}

	sess.Status = Status(status)
	sess.CreatedAt = time.Unix(createdAt, 0)
	sess.UpdatedAt = time.Unix(updatedAt, 0)
	sess.ExpiresAt = time.Unix(expiresAt, 0)

	if err := json.Unmarshal([]byte(history), &sess.History); err != nil {
		return nil, fmt.Errorf("failed to decode history for %s: %w", contactID, err)
	}
	if err := json.Unmarshal([]byte(callerHistory), &sess.CallerHistory); err != nil {
		return nil, fmt.Errorf("failed to decode caller history for %s: %w", contactID, err)
	}
	if err := json.Unmarshal([]byte(meta), &sess.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata for %s: %w", contactID, err)
	}
	return &sess, nil
}

func (s *sqliteStore) Update(ctx context.Context, contactID string, sess *Session) error {
	now := time.Now()
	sess.ContactID = contactID
	sess.UpdatedAt = now
	sess.ExpiresAt = now.Add(s.cfg.TTL())
	sess.History = trimHistory(sess.History, s.cfg.HistoryLimit())
	return s.put(ctx, sess)
}

func (s *sqliteStore) End(ctx context.Context, contactID string) error {
	if _, err := s.db.ExecContext(ctx, completeSessionQuery, time.Now().Unix(), contactID); err != nil {
		return fmt.Errorf("failed to end session %s: %w", contactID, err)
	}
	return nil
}

func (s *sqliteStore) ActiveCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, countActiveQuery, time.Now().Unix()).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active sessions: %w", err)
	}
	return count, nil
}

// Close releases the underlying database handle.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) put(ctx context.Context, sess *Session) error {
	history, err := json.Marshal(sess.History)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	callerHistory, err := json.Marshal(sess.CallerHistory)
	if err != nil {
		return fmt.Errorf("failed to encode caller history: %w", err)
	}
	meta, err := json.Marshal(sess.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, upsertSessionQuery,
		sess.ContactID, sess.ID, sess.CallerID, string(sess.Status), sess.TurnCount,
		string(history), string(callerHistory), string(meta),
		sess.CreatedAt.Unix(), sess.UpdatedAt.Unix(), sess.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to write session %s: %w", sess.ContactID, err)
	}
	return nil
}
