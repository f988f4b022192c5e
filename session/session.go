// Package session tracks per-call conversation state keyed by contact ID.
//
// A Session records the rolling history, turn counter, and expiry for one
// caller. Stores hand out defensive copies; callers mutate their copy and
// persist it back with Update, which refreshes the expiry. The turn counter
// is authoritative: history is capped and trimmed, so its length never
// stands in for the number of turns taken.
package session

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/telistry/switchboard/core/protocol"
)

// Status marks whether a session is still serving turns.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Session is the per-call conversation record.
type Session struct {
	ID            string         `json:"id"`
	ContactID     string         `json:"contact_id"`
	CallerID      string         `json:"caller_id,omitempty"`
	Status        Status         `json:"status"`
	TurnCount     int            `json:"turn_count"`
	History       []HistoryEntry `json:"history"`
	CallerHistory []string       `json:"caller_history,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	ExpiresAt     time.Time      `json:"expires_at"`
}

// NewSession creates an active session for a contact. The session is assigned
// a unique UUIDv7 identifier and expires ttl from now.
func NewSession(contactID, callerID string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.Must(uuid.NewV7()).String(),
		ContactID: contactID,
		CallerID:  callerID,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the session's expiry has passed at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Append adds one history entry stamped with the current time.
func (s *Session) Append(role protocol.Role, content string) {
	s.History = append(s.History, HistoryEntry{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	copied := *s
	copied.History = slices.Clone(s.History)
	copied.CallerHistory = slices.Clone(s.CallerHistory)
	copied.Metadata = maps.Clone(s.Metadata)
	return &copied
}
