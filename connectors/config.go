package connectors

const defaultTimeoutSeconds = 5

// Endpoint configures one outbound integration.
type Endpoint struct {
	// BaseURL is the service root. Empty keeps the connector in mock mode.
	BaseURL string `json:"base_url,omitempty"`
	// TokenEnv names the environment variable holding the bearer token.
	TokenEnv string `json:"token_env,omitempty"`
	// TimeoutSeconds bounds each outbound request.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

// Config holds connector initialization parameters.
type Config struct {
	CRM        Endpoint `json:"crm"`
	Scheduling Endpoint `json:"scheduling"`
}

// DefaultConfig returns the default connector configuration: both connectors
// in mock mode with a 5 second request budget.
func DefaultConfig() Config {
	return Config{
		CRM:        Endpoint{TimeoutSeconds: defaultTimeoutSeconds},
		Scheduling: Endpoint{TimeoutSeconds: defaultTimeoutSeconds},
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	c.CRM.merge(&source.CRM)
	c.Scheduling.merge(&source.Scheduling)
}

func (e *Endpoint) merge(source *Endpoint) {
	if source.BaseURL != "" {
		e.BaseURL = source.BaseURL
	}
	if source.TokenEnv != "" {
		e.TokenEnv = source.TokenEnv
	}
	if source.TimeoutSeconds != 0 {
		e.TimeoutSeconds = source.TimeoutSeconds
	}
}
