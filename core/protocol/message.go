// Package protocol holds the wire and conversation types shared by every
// subsystem: contact events, conversation messages, and tool call plumbing.
package protocol

import "strings"

// Role identifies the sender of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ContentPart is one block of message content. Conversation history only ever
// produces text parts; the type tag is kept explicit because that is the shape
// the inference backend consumes.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Message is a conversation message in the inference backend's expected shape:
// a role plus content wrapped as parts.
type Message struct {
	Role    Role          `json:"role"`
	Content []ContentPart `json:"content"`
}

// NewTextMessage creates a Message whose content is a single text part.
func NewTextMessage(role Role, text string) Message {
	return Message{
		Role:    role,
		Content: []ContentPart{{Type: "text", Text: text}},
	}
}

// Text returns the concatenated text of all text parts.
func (m Message) Text() string {
	var b strings.Builder
	for _, part := range m.Content {
		if part.Type == "text" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
