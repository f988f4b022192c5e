// Package fault classifies failures raised during a conversation turn.
//
// Every error crossing a component boundary carries a Kind and a recoverable
// flag, both fixed at the raise site. The policy layer matches kinds
// exhaustively to decide what the caller hears; nothing in this package ever
// reaches the caller verbatim.
package fault

import (
	"errors"
	"fmt"
)

// Kind tags the failure category.
type Kind int

const (
	// Unknown covers errors raised outside this taxonomy.
	Unknown Kind = iota
	// Configuration is fatal and never retried: missing keys, bad settings.
	Configuration
	// BackendThrottled means the inference backend rejected for load.
	BackendThrottled
	// BackendTransient covers timeouts and stream hiccups on the backend.
	BackendTransient
	// BackendFatal covers backend failures with no prospect of recovery
	// within the call.
	BackendFatal
	// ToolExecution marks a tool failure; it is localized into an
	// error-shaped tool result and never aborts the turn.
	ToolExecution
	// BestEffort marks a failure of an optional collaborator; logged and
	// swallowed where raised.
	BestEffort
	// SessionStore marks a persistence failure of authoritative session
	// state; fatal to the turn.
	SessionStore
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case BackendThrottled:
		return "backend_throttled"
	case BackendTransient:
		return "backend_transient"
	case BackendFatal:
		return "backend_fatal"
	case ToolExecution:
		return "tool_execution"
	case BestEffort:
		return "best_effort"
	case SessionStore:
		return "session_store"
	default:
		return "unknown"
	}
}

// Error is the tagged failure carried between components. Message and Details
// are operator-facing; caller-facing text comes from the policy layer.
type Error struct {
	Kind        Kind
	Message     string
	Recoverable bool
	Details     map[string]any
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// With attaches an operator-facing detail and returns the error for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewConfiguration reports a fatal configuration problem.
func NewConfiguration(message string, err error) *Error {
	return &Error{Kind: Configuration, Message: message, Err: err}
}

// NewBackendThrottled reports backend load shedding; recoverable.
func NewBackendThrottled(err error) *Error {
	return &Error{Kind: BackendThrottled, Message: "inference backend throttled", Recoverable: true, Err: err}
}

// NewBackendTransient reports a passing backend fault; recoverable.
func NewBackendTransient(message string, err error) *Error {
	return &Error{Kind: BackendTransient, Message: message, Recoverable: true, Err: err}
}

// NewBackendFatal reports an unrecoverable backend failure.
func NewBackendFatal(err error) *Error {
	return &Error{Kind: BackendFatal, Message: "inference backend failed", Err: err}
}

// NewToolExecution reports a tool failure, tagged with the tool name.
func NewToolExecution(tool string, err error) *Error {
	e := &Error{Kind: ToolExecution, Message: "tool execution failed", Recoverable: true, Err: err}
	return e.With("tool", tool)
}

// NewBestEffort reports a failure of an optional collaborator.
func NewBestEffort(op string, err error) *Error {
	e := &Error{Kind: BestEffort, Message: "best-effort collaborator failed", Recoverable: true, Err: err}
	return e.With("op", op)
}

// NewSessionStore reports a session persistence failure.
func NewSessionStore(op string, err error) *Error {
	e := &Error{Kind: SessionStore, Message: "session store failed", Err: err}
	return e.With("op", op)
}

// KindOf extracts the Kind from anywhere in err's chain, or Unknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// IsRecoverable reports whether the conversation can keep going after err.
// Errors outside the taxonomy are not recoverable.
func IsRecoverable(err error) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Recoverable
	}
	return false
}
