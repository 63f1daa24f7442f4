// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mcoot/matchmaker/internal/api"
	"github.com/mcoot/matchmaker/internal/services/auth"
	"github.com/mcoot/matchmaker/internal/services/find"
	"github.com/mcoot/matchmaker/internal/services/lobby"
	redisstorage "github.com/mcoot/matchmaker/internal/storage/redis"
	"github.com/mcoot/matchmaker/internal/transport/natsalloc"
)

// Storage backends
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Captcha verifiers
const (
	VerifierSiteVerify = "siteverify"
	VerifierStatic     = "static"
)

// minSecretLength is the shortest accepted token signing secret
const minSecretLength = 32

// CaptchaConfig selects how captcha responses are checked
type CaptchaConfig struct {
	Verifier       string        `env:"VERIFIER" envDefault:"siteverify"`
	StaticResponse string        `env:"STATIC_RESPONSE"`
	Timeout        time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// Config is the complete server configuration
type Config struct {
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// BootstrapFile optionally seeds storage at startup
	BootstrapFile string `env:"BOOTSTRAP_FILE"`

	StorageType string              `env:"STORAGE_TYPE" envDefault:"memory"`
	Redis       redisstorage.Config `envPrefix:"REDIS_"`

	// NATS.URL unset runs the in-process allocator
	NATS natsalloc.Config `envPrefix:"NATS_"`
	// ServeAllocator also answers NATS find requests with the in-process allocator
	ServeAllocator bool         `env:"ALLOCATOR_SERVE"`
	Allocator      lobby.Config `envPrefix:"ALLOCATOR_"`

	Server  api.ServerConfig `envPrefix:"HTTP_"`
	Token   auth.Config      `envPrefix:"TOKEN_"`
	Find    find.Config      `envPrefix:"FIND_"`
	Captcha CaptchaConfig    `envPrefix:"CAPTCHA_"`
}

// Load parses configuration from the process environment
func Load() (Config, error) {
	return load(env.Options{})
}

// LoadFrom parses configuration from the given variables only
func LoadFrom(vars map[string]string) (Config, error) {
	return load(env.Options{Environment: vars})
}

func load(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return cfg, fmt.Errorf("failed to parse environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// UseNATS reports whether find requests go to a remote allocator
func (c Config) UseNATS() bool {
	return c.NATS.URL != ""
}

// Validate checks cross-field constraints
func (c Config) Validate() error {
	var errs []error

	switch c.StorageType {
	case StorageTypeMemory:
	case StorageTypeRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when STORAGE_TYPE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid STORAGE_TYPE %q: must be %q or %q", c.StorageType, StorageTypeMemory, StorageTypeRedis))
	}

	if c.ServeAllocator && !c.UseNATS() {
		errs = append(errs, errors.New("ALLOCATOR_SERVE requires NATS_URL"))
	}

	if len(c.Token.Secret) < minSecretLength {
		errs = append(errs, fmt.Errorf("TOKEN_SECRET must be at least %d bytes", minSecretLength))
	}

	if c.Find.FindTimeout <= 0 {
		errs = append(errs, errors.New("FIND_TIMEOUT must be positive"))
	} else if c.Server.WriteTimeout <= c.Find.FindTimeout {
		errs = append(errs, errors.New("HTTP_WRITE_TIMEOUT must exceed FIND_TIMEOUT"))
	}

	switch c.Captcha.Verifier {
	case VerifierSiteVerify:
	case VerifierStatic:
		if c.Captcha.StaticResponse == "" {
			errs = append(errs, errors.New("CAPTCHA_STATIC_RESPONSE is required when CAPTCHA_VERIFIER=static"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid CAPTCHA_VERIFIER %q", c.Captcha.Verifier))
	}

	return errors.Join(errs...)
}
