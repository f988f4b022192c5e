package gateway

import "time"

const (
	defaultAddr                   = ":8080"
	defaultReadLimitBytes         = 1 << 16
	defaultPingIntervalSeconds    = 30
	defaultReadTimeoutSeconds     = 75
	defaultWriteTimeoutSeconds    = 10
	defaultShutdownTimeoutSeconds = 10
)

// Config holds gateway transport parameters.
type Config struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty"`
	// ReadLimitBytes caps one WebSocket frame. Oversized frames close the
	// connection.
	ReadLimitBytes int64 `json:"read_limit_bytes,omitempty"`
	// PingIntervalSeconds is how often the stream pings its peer.
	PingIntervalSeconds int `json:"ping_interval_seconds,omitempty"`
	// ReadTimeoutSeconds is the stream read deadline, refreshed by every
	// pong. It must exceed the ping interval.
	ReadTimeoutSeconds int `json:"read_timeout_seconds,omitempty"`
	// WriteTimeoutSeconds bounds each stream write.
	WriteTimeoutSeconds int `json:"write_timeout_seconds,omitempty"`
	// ShutdownTimeoutSeconds bounds the drain on graceful shutdown.
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds,omitempty"`
}

// DefaultConfig returns the default gateway configuration.
func DefaultConfig() Config {
	return Config{
		Addr:                   defaultAddr,
		ReadLimitBytes:         defaultReadLimitBytes,
		PingIntervalSeconds:    defaultPingIntervalSeconds,
		ReadTimeoutSeconds:     defaultReadTimeoutSeconds,
		WriteTimeoutSeconds:    defaultWriteTimeoutSeconds,
		ShutdownTimeoutSeconds: defaultShutdownTimeoutSeconds,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Addr != "" {
		c.Addr = source.Addr
	}
	if source.ReadLimitBytes != 0 {
		c.ReadLimitBytes = source.ReadLimitBytes
	}
	if source.PingIntervalSeconds != 0 {
		c.PingIntervalSeconds = source.PingIntervalSeconds
	}
	if source.ReadTimeoutSeconds != 0 {
		c.ReadTimeoutSeconds = source.ReadTimeoutSeconds
	}
	if source.WriteTimeoutSeconds != 0 {
		c.WriteTimeoutSeconds = source.WriteTimeoutSeconds
	}
	if source.ShutdownTimeoutSeconds != 0 {
		c.ShutdownTimeoutSeconds = source.ShutdownTimeoutSeconds
	}
}

// PingInterval returns the stream ping cadence.
func (c *Config) PingInterval() time.Duration {
	return time.Duration(c.PingIntervalSeconds) * time.Second
}

// ReadTimeout returns the pong-refreshed stream read deadline.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the per-write stream deadline.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// ShutdownTimeout returns the graceful shutdown bound.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
