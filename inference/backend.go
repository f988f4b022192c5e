// Package inference produces the assistant's side of a conversation turn.
//
// The orchestrator talks to a Backend: history and a context snapshot in, a
// reply with text, an action verdict, and any requested tool calls out. The
// one real implementation, Client, speaks the Anthropic Messages API; tests
// substitute their own Backend.
package inference

import (
	"context"
	"time"

	"github.com/telistry/switchboard/core/protocol"
)

// Backend generates one assistant reply per invocation.
type Backend interface {
	Invoke(ctx context.Context, req Request) (*Reply, error)
}

// PromptContext is the per-turn snapshot the system prompt is built from.
// All fields are caller-facing facts, never internal state.
type PromptContext struct {
	CompanyName   string
	SessionID     string
	CallerID      string
	TurnCount     int
	CallerHistory int
	Now           time.Time
}

// ToolRound carries one completed tool cycle back to the backend: the
// assistant text that accompanied the calls, the calls themselves, and one
// result per call. The round is replayed as an assistant message so the
// results have a valid antecedent.
type ToolRound struct {
	Text    string
	Calls   []protocol.ToolCall
	Results []protocol.ToolResult
}

// Request is one backend invocation. When Round is nil the backend is offered
// Tools and may request calls; when Round is set the prior cycle is attached,
// no tools are offered, and the backend must answer in text.
type Request struct {
	History []protocol.Message
	Context PromptContext
	Tools   []protocol.Tool
	Round   *ToolRound
}

// Reply is the backend's verdict for one invocation. ToolCalls is non-empty
// only when StopReason reports tool use.
type Reply struct {
	Text       string
	Action     protocol.Action
	ToolCalls  []protocol.ToolCall
	StopReason string
}
