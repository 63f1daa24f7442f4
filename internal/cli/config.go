package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/mcoot/matchmaker/internal/api/request"
)

// Output formats
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Config holds CLI configuration. Environment variables carry the MMCTL_
// prefix and are overridden by flags.
type Config struct {
	ServerURL string `env:"SERVER" envDefault:"http://localhost:8080"`
	Token     string `env:"TOKEN"`
	TokenFile string `env:"TOKEN_FILE"`
	Coords    string `env:"COORDS"`
	Output    string `env:"OUTPUT" envDefault:"text"`
}

// LoadConfig reads MMCTL_* variables from the process environment
func LoadConfig() (*Config, error) {
	return loadConfig(env.Options{Prefix: "MMCTL_"})
}

func loadConfig(opts env.Options) (*Config, error) {
	c, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("reading MMCTL_ environment: %w", err)
	}
	if c.TokenFile == "" {
		c.TokenFile = defaultTokenFile()
	}
	return &c, nil
}

// Validate checks values that flags may have overridden
func (c *Config) Validate() error {
	var errs []error
	if c.Output != OutputText && c.Output != OutputJSON {
		errs = append(errs, fmt.Errorf("invalid output %q: must be %q or %q", c.Output, OutputText, OutputJSON))
	}
	if c.Coords != "" {
		if _, err := request.ParseCoords(c.Coords); err != nil {
			errs = append(errs, fmt.Errorf("invalid coords: %w", err))
		}
	}
	return errors.Join(errs...)
}

// LoadToken loads the token from file if not already set
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	c.Token = strings.TrimSpace(string(data))
	return nil
}

// SaveToken saves the token to the token file
func (c *Config) SaveToken(token string) error {
	c.Token = token

	if err := os.MkdirAll(filepath.Dir(c.TokenFile), 0700); err != nil {
		return err
	}
	return os.WriteFile(c.TokenFile, []byte(token), 0600)
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".mmctl", "token")
	}
	return filepath.Join(home, ".mmctl", "token")
}
