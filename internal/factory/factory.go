package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mcoot/matchmaker/internal/config"
	"github.com/mcoot/matchmaker/internal/dependencies/captcha"
	"github.com/mcoot/matchmaker/internal/dependencies/clock"
	"github.com/mcoot/matchmaker/internal/dependencies/random"
	"github.com/mcoot/matchmaker/internal/dependencies/recommend"
	"github.com/mcoot/matchmaker/internal/services/auth"
	"github.com/mcoot/matchmaker/internal/services/bootstrap"
	"github.com/mcoot/matchmaker/internal/services/find"
	"github.com/mcoot/matchmaker/internal/services/lifecycle"
	"github.com/mcoot/matchmaker/internal/services/listing"
	"github.com/mcoot/matchmaker/internal/services/lobby"
	"github.com/mcoot/matchmaker/internal/services/region"
	"github.com/mcoot/matchmaker/internal/storage"
	"github.com/mcoot/matchmaker/internal/storage/memory"
	redisstorage "github.com/mcoot/matchmaker/internal/storage/redis"
	"github.com/mcoot/matchmaker/internal/transport/natsalloc"
)

const defaultCaptchaTimeout = 10 * time.Second

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock       clock.Clock
	Random      random.Random
	Captcha     *captcha.Gate
	Recommender *recommend.Haversine

	// Services
	AuthService      *auth.Service
	RegionSelector   *region.Selector
	FindService      *find.Service
	ListingService   *listing.Service
	LifecycleService *lifecycle.Service
	BootstrapService *bootstrap.Service

	// LobbyController is the in-process allocator. It is nil when find
	// requests go to a remote allocator this process does not serve.
	LobbyController *lobby.Controller

	conn      *nats.Conn
	responder *natsalloc.Responder
	closers   []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// AuthConfig holds token settings. Zero durations take defaults.
	AuthConfig auth.Config
	// FindConfig bounds the wait for an allocator reply
	FindConfig find.Config
	// AllocatorConfig configures the in-process allocator
	AllocatorConfig lobby.Config
	// NATS routes find requests to a remote allocator when non-nil
	NATS *natsalloc.Config
	// ServeAllocator answers NATS find requests with the in-process allocator
	ServeAllocator bool
	// Verifier checks captcha responses. If nil, the provider siteverify
	// endpoints are used.
	Verifier captcha.Verifier
}

// ConfigFrom maps loaded server configuration to factory configuration
func ConfigFrom(cfg config.Config, logger *slog.Logger) Config {
	out := Config{
		Logger:          logger,
		StorageType:     cfg.StorageType,
		AuthConfig:      cfg.Token,
		FindConfig:      cfg.Find,
		AllocatorConfig: cfg.Allocator,
		ServeAllocator:  cfg.ServeAllocator,
	}
	if cfg.StorageType == config.StorageTypeRedis {
		redisCfg := cfg.Redis
		out.RedisConfig = &redisCfg
	}
	if cfg.UseNATS() {
		natsCfg := cfg.NATS
		out.NATS = &natsCfg
	}
	switch cfg.Captcha.Verifier {
	case config.VerifierStatic:
		out.Verifier = captcha.StaticVerifier{Response: cfg.Captcha.StaticResponse}
	default:
		out.Verifier = captcha.NewSiteVerifier(cfg.Captcha.Timeout)
	}
	return out
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var (
		store   storage.Storage
		closers []io.Closer
	)
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = config.StorageTypeMemory
	}

	switch storageType {
	case config.StorageTypeMemory:
		store = memory.New()
	case config.StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
		closers = append(closers, redisStore)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	verifier := cfg.Verifier
	if verifier == nil {
		verifier = captcha.NewSiteVerifier(defaultCaptchaTimeout)
	}

	clk := clock.New()
	rnd := random.New()

	if cfg.NATS == nil {
		app := newWithDependencies(store, clk, rnd, verifier, cfg, logger)
		app.closers = closers
		return app, nil
	}

	conn, err := natsalloc.Connect(*cfg.NATS, logger)
	if err != nil {
		_ = closeAll(closers)
		return nil, err
	}

	dispatcher := natsalloc.NewDispatcher(conn, logger)
	publisher := natsalloc.NewPublisher(conn)

	app := newApp(store, clk, rnd, verifier, dispatcher, publisher, cfg, logger)
	app.conn = conn
	app.closers = closers

	if cfg.ServeAllocator {
		timeout := cfg.FindConfig.FindTimeout
		if timeout == 0 {
			timeout = find.DefaultConfig().FindTimeout
		}
		app.LobbyController = lobby.NewController(store, clk, rnd, logger, cfg.AllocatorConfig)
		app.responder = natsalloc.NewResponder(conn, app.LobbyController, logger, timeout)
		if err := app.responder.Start(); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("starting allocator responder: %w", err)
		}
	}

	return app, nil
}

// newWithDependencies creates an App backed by the in-process allocator
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, verifier captcha.Verifier, cfg Config, logger *slog.Logger) *App {
	controller := lobby.NewController(store, clk, rnd, logger, cfg.AllocatorConfig)
	app := newApp(store, clk, rnd, verifier, controller, controller, cfg, logger)
	app.LobbyController = controller
	return app
}

func newApp(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	verifier captcha.Verifier,
	allocator find.Allocator,
	publisher lifecycle.Publisher,
	cfg Config,
	logger *slog.Logger,
) *App {
	authService := auth.New(store, clk, rnd, cfg.AuthConfig)
	recommender := recommend.New(store)
	gate := captcha.NewGate(verifier, clk)
	selector := region.NewSelector(store, recommender, logger)

	return &App{
		Storage:          store,
		Clock:            clk,
		Random:           rnd,
		Captcha:          gate,
		Recommender:      recommender,
		AuthService:      authService,
		RegionSelector:   selector,
		FindService:      find.New(store, selector, gate, authService, allocator, clk, rnd, logger, cfg.FindConfig),
		ListingService:   listing.New(store, recommender, logger),
		LifecycleService: lifecycle.New(publisher, logger),
		BootstrapService: bootstrap.New(store, authService, logger),
	}
}

// Close stops the allocator responder and releases connections
func (a *App) Close() error {
	if a.responder != nil {
		a.responder.Stop()
	}
	if a.conn != nil {
		if err := a.conn.Drain(); err != nil {
			a.conn.Close()
		}
	}
	return closeAll(a.closers)
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
