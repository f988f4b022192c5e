package dialog

import (
	"github.com/telistry/switchboard/core/fault"
	"github.com/telistry/switchboard/core/protocol"
)

// Caller-safe replies for failures that abort a turn. The caller never hears
// internal error detail; these texts are the entire disclosure.
const (
	replyThrottled  = "I'm experiencing high demand right now. Please hold on a moment."
	replyTransient  = "I had a brief issue. Could you please repeat that?"
	replyBackendOut = "I'm having trouble processing your request. Let me transfer you to an agent."
	replyBrokenDown = "I'm having technical difficulties. Let me connect you with someone who can help."
	replyUnexpected = "I apologize, but I'm experiencing technical issues. Let me transfer you to someone who can assist."
)

// SafeReply converts a turn-aborting failure into what the caller hears next.
// Recoverable backend faults keep the conversation going, so the caller's next
// utterance is the retry; everything else hands the call to a human.
func SafeReply(err error) (string, protocol.Action) {
	switch fault.KindOf(err) {
	case fault.BackendThrottled:
		return replyThrottled, protocol.ActionContinue
	case fault.BackendTransient:
		return replyTransient, protocol.ActionContinue
	case fault.BackendFatal:
		return replyBackendOut, protocol.ActionTransfer
	case fault.Configuration, fault.SessionStore:
		return replyBrokenDown, protocol.ActionTransfer
	default:
		return replyUnexpected, protocol.ActionTransfer
	}
}
