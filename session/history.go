package session

import (
	"slices"
	"time"

	"github.com/telistry/switchboard/core/protocol"
)

// HistoryEntry is one half of a conversation exchange as stored on a session.
type HistoryEntry struct {
	Role      protocol.Role `json:"role"`
	Content   string        `json:"content"`
	Timestamp time.Time     `json:"timestamp"`
}

// Window returns a copy of the most recent n history entries. A non-positive
// n returns the full history.
func (s *Session) Window(n int) []HistoryEntry {
	if n <= 0 || len(s.History) <= n {
		return slices.Clone(s.History)
	}
	return slices.Clone(s.History[len(s.History)-n:])
}

// Messages converts the most recent window entries into backend messages,
// one text part per entry.
func (s *Session) Messages(window int) []protocol.Message {
	entries := s.Window(window)
	msgs := make([]protocol.Message, len(entries))
	for i, e := range entries {
		msgs[i] = protocol.NewTextMessage(e.Role, e.Content)
	}
	return msgs
}

// trimHistory drops the oldest entries beyond limit. A non-positive limit
// disables trimming.
func trimHistory(entries []HistoryEntry, limit int) []HistoryEntry {
	if limit <= 0 || len(entries) <= limit {
		return entries
	}
	return entries[len(entries)-limit:]
}
