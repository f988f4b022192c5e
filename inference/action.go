package inference

import (
	"strings"

	"github.com/telistry/switchboard/core/protocol"
)

// StopReasonToolUse is the backend stop reason signalling requested tool
// calls.
const StopReasonToolUse = "tool_use"

// transferTool is the capability whose invocation is itself a transfer
// verdict.
const transferTool = "transfer_to_agent"

// closingPhrases end the call when they appear in the assistant's reply.
var closingPhrases = []string{
	"goodbye",
	"have a great day",
	"thank you for calling",
	"take care",
}

// DeriveAction decides the next-step verdict for one reply. A structured tool
// signal wins: a tool-use stop carrying a transfer_to_agent call transfers,
// any other tool-use stop continues. Only without that signal do lexical cues
// in the reply text apply.
func DeriveAction(stopReason string, calls []protocol.ToolCall, text string) protocol.Action {
	if stopReason == StopReasonToolUse && len(calls) > 0 {
		for _, call := range calls {
			if call.Name == transferTool {
				return protocol.ActionTransfer
			}
		}
		return protocol.ActionContinue
	}

	lowered := strings.ToLower(text)
	for _, phrase := range closingPhrases {
		if strings.Contains(lowered, phrase) {
			return protocol.ActionEnd
		}
	}
	if strings.Contains(lowered, "transfer") && strings.Contains(lowered, "agent") {
		return protocol.ActionTransfer
	}
	return protocol.ActionContinue
}
