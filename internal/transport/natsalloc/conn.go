// Package natsalloc carries find requests and lobby lifecycle events to a
// remote session allocator over NATS request-reply.
package natsalloc

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Config holds NATS connection settings
type Config struct {
	URL             string `env:"URL"`
	Name            string `env:"NAME" envDefault:"matchmaker"`
	CredentialsFile string `env:"CREDENTIALS_FILE"`
}

// Validate checks the connection settings
func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New("NATS URL is required")
	}
	return nil
}

// Connect opens a NATS connection that logs its state changes
func Connect(cfg Config, logger *slog.Logger) (*nats.Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(10),
		nats.ReconnectWait(5 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("disconnected from NATS", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("reconnected to NATS", slog.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logger.Info("NATS connection closed")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			attrs := []any{slog.Any("error", err)}
			if sub != nil {
				attrs = append(attrs, slog.String("subject", sub.Subject))
			}
			logger.Error("NATS error", attrs...)
		}),
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredentialsFile))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	logger.Info("connected to NATS",
		slog.String("url", nc.ConnectedUrl()),
		slog.String("name", cfg.Name),
	)
	return nc, nil
}
