package protocol

import "encoding/json"

// Tool defines a capability the inference backend may invoke. InputSchema is
// JSON Schema describing the input payload, in the shape the backend's tool
// API expects.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolCall is one tool invocation requested by the backend. ID correlates the
// call with its result; Input is the raw key-value payload as the backend
// produced it.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResult answers one ToolCall. CallID must echo the originating call's ID;
// an unmatched CallID is a contract violation the backend will reject. Content
// is a serialized payload; business failures are encoded here with IsError set
// rather than surfaced as errors.
type ToolResult struct {
	CallID  string `json:"tool_use_id"`
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}
