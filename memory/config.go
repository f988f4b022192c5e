package memory

const defaultHistoryLimit = 3

// Config holds long-term memory initialization parameters.
type Config struct {
	// Path is the SQLite database file. Empty disables long-term memory.
	Path string `json:"path,omitempty"`
	// HistoryLimit is how many prior calls surface for a returning caller.
	HistoryLimit int `json:"history_limit,omitempty"`
}

// DefaultConfig returns the default memory configuration (disabled).
func DefaultConfig() Config {
	return Config{HistoryLimit: defaultHistoryLimit}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.HistoryLimit != 0 {
		c.HistoryLimit = source.HistoryLimit
	}
}
