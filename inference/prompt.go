package inference

import (
	"fmt"
	"os"
	"strings"
)

const companyPlaceholder = "{company_name}"

// defaultSystemPrompt is the built-in template used when no prompt file is
// configured. The {company_name} placeholder is substituted per turn.
const defaultSystemPrompt = `You are a helpful voice assistant for {company_name}. You are speaking with a customer over the phone.

Your role:
- Answer customer questions accurately and concisely
- Be friendly, professional, and empathetic
- Keep responses brief (2-3 sentences max) since this is voice
- Ask clarifying questions when needed
- Offer to transfer to a human agent for complex issues
- Never make up information you don't know

Guidelines:
- Speak naturally as if in a phone conversation
- Avoid technical jargon
- Use conversational language
- Acknowledge what the caller says before responding
- If you don't understand, politely ask them to rephrase

Available actions:
- Schedule appointments
- Look up account information
- Process simple requests
- Transfer to human agent
- Send follow-up information

If the user wants to end the call or says goodbye, respond with a brief farewell and set action to "end".
If you need to transfer to a human agent, set action to "transfer".
Otherwise, set action to "continue".
`

// LoadSystemPrompt returns the prompt template at path, or the built-in
// default when path is empty. A configured path that cannot be read is a
// configuration error, not a silent fallback.
func LoadSystemPrompt(path string) (string, error) {
	if path == "" {
		return defaultSystemPrompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read system prompt: %w", err)
	}
	return string(data), nil
}

// BuildSystemPrompt renders the template against one turn's context: company
// name substituted, caller history and current time appended when known.
func BuildSystemPrompt(template string, pc PromptContext) string {
	var b strings.Builder
	if pc.CompanyName != "" {
		b.WriteString(strings.ReplaceAll(template, companyPlaceholder, pc.CompanyName))
	} else {
		b.WriteString(template)
	}
	if pc.CallerHistory > 0 {
		fmt.Fprintf(&b, "\n\nCaller History:\nThis caller has had %d previous interactions.", pc.CallerHistory)
	}
	if !pc.Now.IsZero() {
		fmt.Fprintf(&b, "\n\nCurrent time: %s", pc.Now.Format("2006-01-02 15:04:05"))
	}
	return b.String()
}
