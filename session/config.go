package session

import "time"

const (
	defaultTTLSeconds       = 3600
	defaultMaxTurnsRetained = 20
)

// Config holds session store initialization parameters.
type Config struct {
	// TTLSeconds is the idle lifetime of a session. Every successful
	// update pushes the expiry out by this much.
	TTLSeconds int `json:"ttl_seconds,omitempty"`
	// MaxTurnsRetained bounds the rolling history at two entries per
	// retained turn.
	MaxTurnsRetained int `json:"max_turns_retained,omitempty"`
	// Path is the SQLite database file. Empty selects the in-memory store.
	Path string `json:"path,omitempty"`
}

// DefaultConfig returns the default session store configuration.
func DefaultConfig() Config {
	return Config{
		TTLSeconds:       defaultTTLSeconds,
		MaxTurnsRetained: defaultMaxTurnsRetained,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.TTLSeconds != 0 {
		c.TTLSeconds = source.TTLSeconds
	}
	if source.MaxTurnsRetained != 0 {
		c.MaxTurnsRetained = source.MaxTurnsRetained
	}
	if source.Path != "" {
		c.Path = source.Path
	}
}

// TTL returns the configured session lifetime as a duration.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// HistoryLimit returns the history cap: a user and an assistant entry for
// each retained turn.
func (c *Config) HistoryLimit() int {
	if c.MaxTurnsRetained <= 0 {
		return 0
	}
	return 2 * c.MaxTurnsRetained
}
