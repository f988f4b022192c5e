package dialog

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/telistry/switchboard/connectors"
	"github.com/telistry/switchboard/inference"
	"github.com/telistry/switchboard/memory"
	"github.com/telistry/switchboard/session"
)

const (
	defaultCompanyName = "our company"
	defaultGreeting    = "Hello! Thank you for calling. How can I help you today?"
	defaultGoodbye     = "Thank you for calling. Have a great day!"
	defaultHandoff     = "I've been helping you for a while now. " +
		"Let me transfer you to a specialist who can continue assisting you."

	defaultMaxTurns           = 50
	defaultHistoryWindow      = 40
	defaultToolTimeoutSeconds = 10
)

// Config holds initialization parameters for the dialog service and all its
// subsystems. Each subsystem section delegates to that subsystem's
// config-driven constructor.
type Config struct {
	// CompanyName is substituted into the system prompt.
	CompanyName string `json:"company_name,omitempty"`
	// Greeting is the assistant's first line on a new call.
	Greeting string `json:"greeting,omitempty"`
	// Goodbye is spoken when the call ends.
	Goodbye string `json:"goodbye,omitempty"`
	// Handoff is spoken when the turn cap forces a transfer.
	Handoff string `json:"handoff,omitempty"`
	// MaxTurns caps conversation turns per call; reaching it forces a
	// transfer.
	MaxTurns int `json:"max_turns,omitempty"`
	// HistoryWindow is how many history entries each backend invocation
	// sees. Zero or negative means the full retained history.
	HistoryWindow int `json:"history_window,omitempty"`
	// ToolTimeoutSeconds bounds each tool execution.
	ToolTimeoutSeconds int `json:"tool_timeout_seconds,omitempty"`
	// ToolsPath optionally redefines built-in tool schemas from a JSON
	// file.
	ToolsPath string `json:"tools_path,omitempty"`

	Session    session.Config    `json:"session"`
	Inference  inference.Config  `json:"inference"`
	Memory     memory.Config     `json:"memory"`
	Connectors connectors.Config `json:"connectors"`
}

// DefaultConfig returns a Config with sensible defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		CompanyName:        defaultCompanyName,
		Greeting:           defaultGreeting,
		Goodbye:            defaultGoodbye,
		Handoff:            defaultHandoff,
		MaxTurns:           defaultMaxTurns,
		HistoryWindow:      defaultHistoryWindow,
		ToolTimeoutSeconds: defaultToolTimeoutSeconds,
		Session:            session.DefaultConfig(),
		Inference:          inference.DefaultConfig(),
		Memory:             memory.DefaultConfig(),
		Connectors:         connectors.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Session.Merge(&source.Session)
	c.Inference.Merge(&source.Inference)
	c.Memory.Merge(&source.Memory)
	c.Connectors.Merge(&source.Connectors)

	if source.CompanyName != "" {
		c.CompanyName = source.CompanyName
	}
	if source.Greeting != "" {
		c.Greeting = source.Greeting
	}
	if source.Goodbye != "" {
		c.Goodbye = source.Goodbye
	}
	if source.Handoff != "" {
		c.Handoff = source.Handoff
	}
	if source.MaxTurns > 0 {
		c.MaxTurns = source.MaxTurns
	}
	if source.HistoryWindow != 0 {
		c.HistoryWindow = source.HistoryWindow
	}
	if source.ToolTimeoutSeconds > 0 {
		c.ToolTimeoutSeconds = source.ToolTimeoutSeconds
	}
	if source.ToolsPath != "" {
		c.ToolsPath = source.ToolsPath
	}
}

// ToolTimeout returns the per-tool execution bound as a duration.
func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.ToolTimeoutSeconds) * time.Second
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
