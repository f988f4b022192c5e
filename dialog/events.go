package dialog

import "github.com/telistry/switchboard/observability"

// Dialog event types emitted while serving contact events.
const (
	EventCallStart    observability.EventType = "dialog.call.start"
	EventCallEnd      observability.EventType = "dialog.call.end"
	EventTurnStart    observability.EventType = "dialog.turn.start"
	EventTurnComplete observability.EventType = "dialog.turn.complete"
	EventInference    observability.EventType = "dialog.inference"
	EventToolCall     observability.EventType = "dialog.tool.call"
	EventToolComplete observability.EventType = "dialog.tool.complete"
	EventError        observability.EventType = "dialog.error"
)
