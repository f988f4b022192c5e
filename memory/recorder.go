// Package memory provides long-term recall across calls: per-turn records,
// a per-caller call log, and a small knowledge base for in-call lookups.
//
// Everything here is best effort. Recording failures must never fail a turn,
// so callers log and continue; the conversation itself lives in the session
// store, not here.
package memory

import (
	"context"
	"time"
)

// TurnRecord captures one completed turn.
type TurnRecord struct {
	SessionID string    `json:"session_id"`
	ContactID string    `json:"contact_id"`
	CallerID  string    `json:"caller_id,omitempty"`
	Turn      int       `json:"turn"`
	UserInput string    `json:"user_input"`
	Reply     string    `json:"reply"`
	Action    string    `json:"action"`
	ToolsUsed []string  `json:"tools_used,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionSummary is the end-of-call record for a session.
type SessionSummary struct {
	SessionID string    `json:"session_id"`
	ContactID string    `json:"contact_id"`
	CallerID  string    `json:"caller_id,omitempty"`
	Turns     int       `json:"turns"`
	Action    string    `json:"action"`
	Summary   string    `json:"summary,omitempty"`
	EndedAt   time.Time `json:"ended_at"`
}

// CallerSummary is one prior call for a returning caller, newest first.
type CallerSummary struct {
	SessionID string    `json:"session_id"`
	Turns     int       `json:"turns"`
	Action    string    `json:"action"`
	Summary   string    `json:"summary,omitempty"`
	EndedAt   time.Time `json:"ended_at"`
}

// KnowledgeHit is one knowledge base match.
type KnowledgeHit struct {
	Topic   string `json:"topic"`
	Content string `json:"content"`
}

// Recorder persists long-term memory. Implementations must be safe for
// concurrent use.
type Recorder interface {
	// RecordTurn appends one turn record.
	RecordTurn(ctx context.Context, rec TurnRecord) error
	// CompleteSession writes the end-of-call summary. Writing the same
	// session twice overwrites the earlier record.
	CompleteSession(ctx context.Context, summary SessionSummary) error
	// CallerHistory returns up to limit prior calls for a caller, newest
	// first. An empty caller ID returns nothing.
	CallerHistory(ctx context.Context, callerID string, limit int) ([]CallerSummary, error)
	// Search matches knowledge base entries against a free-text query.
	Search(ctx context.Context, query string, limit int) ([]KnowledgeHit, error)
}

// NewRecorder creates a Recorder from configuration: SQLite-backed when a
// database path is set, a no-op otherwise.
func NewRecorder(cfg *Config) (Recorder, error) {
	if cfg == nil {
		defaults := DefaultConfig()
		cfg = &defaults
	}
	if cfg.Path == "" {
		return NewNoopRecorder(), nil
	}
	return NewSQLiteRecorder(cfg)
}
