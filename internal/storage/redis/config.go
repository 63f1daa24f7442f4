package redis

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection and keyspace settings
type Config struct {
	URL          string `env:"URL" envDefault:"redis://localhost:6379"`
	PoolSize     int    `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int    `env:"MIN_IDLE_CONNS" envDefault:"2"`

	// KeyPrefix namespaces every key, e.g. "mm:session:<id>"
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"mm"`

	// SessionTTL bounds how long session, run and player count records
	// outlive their last write. Stopped sessions age out on their own.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

// DefaultConfig returns defaults matching the env tags
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		KeyPrefix:    "mm",
		SessionTTL:   24 * time.Hour,
	}
}

// Options builds client options from the URL and pool settings
func (c Config) Options() (*redis.Options, error) {
	opts, err := redis.ParseURL(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
	}
	if c.PoolSize > 0 {
		opts.PoolSize = c.PoolSize
	}
	if c.MinIdleConns > 0 {
		opts.MinIdleConns = c.MinIdleConns
	}
	return opts, nil
}
