package protocol

import (
	"errors"
	"fmt"
)

// EventType identifies the kind of inbound contact event.
type EventType string

const (
	// EventInit signals a new call reaching the service.
	EventInit EventType = "init"
	// EventUserInput carries one transcribed caller utterance.
	EventUserInput EventType = "user_input"
	// EventEnd signals the call is over.
	EventEnd EventType = "end"
)

// Action is the next-step verdict returned to the telephony platform.
// The set is closed: anything that is not a transfer or an end keeps the
// conversation going.
type Action string

const (
	ActionContinue Action = "continue"
	ActionTransfer Action = "transfer"
	ActionEnd      Action = "end"
)

// ErrInvalidEvent is wrapped by Validate for every rejection reason, so
// transports can map the whole family to a bad-request status.
var ErrInvalidEvent = errors.New("invalid event")

// Event is one inbound contact event. ContactID keys the session; CallerID is
// the caller's phone identity; UserInput is only meaningful for user_input
// events.
type Event struct {
	Type      EventType `json:"eventType"`
	ContactID string    `json:"contactId"`
	CallerID  string    `json:"callerId,omitempty"`
	UserInput string    `json:"userInput,omitempty"`
}

// Validate checks the event against the wire contract. All failures wrap
// ErrInvalidEvent.
func (e *Event) Validate() error {
	switch e.Type {
	case EventInit, EventUserInput, EventEnd:
	default:
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, e.Type)
	}
	if e.ContactID == "" {
		return fmt.Errorf("%w: missing contactId", ErrInvalidEvent)
	}
	if e.Type == EventUserInput && e.UserInput == "" {
		return fmt.Errorf("%w: user_input event without userInput", ErrInvalidEvent)
	}
	return nil
}

// Response is the outbound reply for one event. TurnCount is present only on
// user_input responses.
type Response struct {
	Text      string `json:"response"`
	Action    Action `json:"action"`
	SessionID string `json:"sessionId,omitempty"`
	TurnCount int    `json:"turnCount,omitempty"`
}
