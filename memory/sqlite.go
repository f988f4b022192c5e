package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const recorderSchema = `
CREATE TABLE IF NOT EXISTS turns (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	contact_id TEXT NOT NULL,
	caller_id  TEXT NOT NULL DEFAULT '',
	turn       INTEGER NOT NULL,
	user_input TEXT NOT NULL,
	reply      TEXT NOT NULL,
	action     TEXT NOT NULL,
	tools_used TEXT NOT NULL DEFAULT '[]',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id);

CREATE TABLE IF NOT EXISTS call_log (
	session_id TEXT PRIMARY KEY,
	contact_id TEXT NOT NULL,
	caller_id  TEXT NOT NULL DEFAULT '',
	turns      INTEGER NOT NULL,
	action     TEXT NOT NULL,
	summary    TEXT NOT NULL DEFAULT '',
	ended_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_call_log_caller ON call_log(caller_id, ended_at);

CREATE TABLE IF NOT EXISTS knowledge (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	topic   TEXT NOT NULL,
	content TEXT NOT NULL
);
`

const (
	insertTurnQuery = `
INSERT INTO turns (session_id, contact_id, caller_id, turn, user_input, reply, action, tools_used, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	upsertCallQuery = `
INSERT OR REPLACE INTO call_log (session_id, contact_id, caller_id, turns, action, summary, ended_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	callerHistoryQuery = `
SELECT session_id, turns, action, summary, ended_at
FROM call_log
WHERE caller_id = ?
ORDER BY ended_at DESC, session_id DESC
LIMIT ?`

	searchKnowledgeQuery = `
SELECT topic, content FROM knowledge
WHERE topic LIKE ? OR content LIKE ?
ORDER BY id
LIMIT ?`

	insertKnowledgeQuery = `INSERT INTO knowledge (topic, content) VALUES (?, ?)`
)

// SQLiteRecorder persists long-term memory in a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
}

// NewSQLiteRecorder opens or creates the memory database at cfg.Path.
func NewSQLiteRecorder(cfg *Config) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure memory database: %w", err)
	}
	if _, err := db.Exec(recorderSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create memory tables: %w", err)
	}

	return &SQLiteRecorder{db: db}, nil
}

func (r *SQLiteRecorder) RecordTurn(ctx context.Context, rec TurnRecord) error {
	tools, err := json.Marshal(rec.ToolsUsed)
	if err != nil {
		return fmt.Errorf("failed to encode tools used: %w", err)
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err = r.db.ExecContext(ctx, insertTurnQuery,
		rec.SessionID, rec.ContactID, rec.CallerID, rec.Turn,
		rec.UserInput, rec.Reply, rec.Action, string(tools), ts.Unix())
	if err != nil {
		return fmt.Errorf("failed to record turn: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) CompleteSession(ctx context.Context, summary SessionSummary) error {
	endedAt := summary.EndedAt
	if endedAt.IsZero() {
		endedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, upsertCallQuery,
		summary.SessionID, summary.ContactID, summary.CallerID,
		summary.Turns, summary.Action, summary.Summary, endedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to log call %s: %w", summary.SessionID, err)
	}
	return nil
}

func (r *SQLiteRecorder) CallerHistory(ctx context.Context, callerID string, limit int) ([]CallerSummary, error) {
	if callerID == "" || limit <= 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, callerHistoryQuery, callerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query caller history: %w", err)
	}
	defer rows.Close()

	var history []CallerSummary
	for rows.Next() {
		var (
			cs      CallerSummary
			endedAt int64
		)
		if err := rows.Scan(&cs.SessionID, &cs.Turns, &cs.Action, &cs.Summary, &endedAt); err != nil {
			return nil, fmt.Errorf("failed to scan caller history: %w", err)
		}
		cs.EndedAt = time.Unix(endedAt, 0)
		history = append(history, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("caller history iteration failed: %w", err)
	}
	return history, nil
}

func (r *SQLiteRecorder) Search(ctx context.Context, query string, limit int) ([]KnowledgeHit, error) {
	if query == "" || limit <= 0 {
		return nil, nil
	}
	pattern := "%" + query + "%"

	rows, err := r.db.QueryContext(ctx, searchKnowledgeQuery, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search knowledge base: %w", err)
	}
	defer rows.Close()

	var hits []KnowledgeHit
	for rows.Next() {
		var hit KnowledgeHit
		if err := rows.Scan(&hit.Topic, &hit.Content); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge entry: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("knowledge search iteration failed: %w", err)
	}
	return hits, nil
}

// AddKnowledge inserts one knowledge base entry. Used for seeding.
func (r *SQLiteRecorder) AddKnowledge(ctx context.Context, topic, content string) error {
	if _, err := r.db.ExecContext(ctx, insertKnowledgeQuery, topic, content); err != nil {
		return fmt.Errorf("failed to add knowledge entry: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
