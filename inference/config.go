package inference

import "time"

const (
	defaultModel          = "claude-sonnet-4-20250514"
	defaultMaxTokens      = 2000
	defaultTemperature    = 0.7
	defaultTimeoutSeconds = 60
	defaultMaxRetries     = 3
)

// Config holds inference backend parameters.
type Config struct {
	// Model is the Anthropic model identifier.
	Model string `json:"model,omitempty"`
	// MaxTokens caps the generated reply length.
	MaxTokens int `json:"max_tokens,omitempty"`
	// Temperature is the sampling temperature. Zero means API default.
	Temperature float64 `json:"temperature,omitempty"`
	// TimeoutSeconds bounds each API request.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
	// MaxRetries is the SDK's transport-level retry budget.
	MaxRetries int `json:"max_retries,omitempty"`
	// SystemPromptPath overrides the built-in system prompt template.
	SystemPromptPath string `json:"system_prompt_path,omitempty"`
}

// DefaultConfig returns the default inference configuration.
func DefaultConfig() Config {
	return Config{
		Model:          defaultModel,
		MaxTokens:      defaultMaxTokens,
		Temperature:    defaultTemperature,
		TimeoutSeconds: defaultTimeoutSeconds,
		MaxRetries:     defaultMaxRetries,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Model != "" {
		c.Model = source.Model
	}
	if source.MaxTokens != 0 {
		c.MaxTokens = source.MaxTokens
	}
	if source.Temperature != 0 {
		c.Temperature = source.Temperature
	}
	if source.TimeoutSeconds != 0 {
		c.TimeoutSeconds = source.TimeoutSeconds
	}
	if source.MaxRetries != 0 {
		c.MaxRetries = source.MaxRetries
	}
	if source.SystemPromptPath != "" {
		c.SystemPromptPath = source.SystemPromptPath
	}
}

// Timeout returns the per-request bound as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
