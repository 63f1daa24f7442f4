package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/matchmaker/internal/api"
	"github.com/mcoot/matchmaker/internal/config"
	"github.com/mcoot/matchmaker/internal/factory"
)

func main() {
	// Bootstrap logger until the configured level is known
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// Create application factory
	app, err := factory.New(factory.ConfigFrom(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close application", slog.String("error", err.Error()))
		}
	}()

	if cfg.BootstrapFile != "" {
		creds, err := app.BootstrapService.LoadFromFile(context.Background(), cfg.BootstrapFile)
		if err != nil {
			logger.Error("failed to load bootstrap file", slog.String("error", err.Error()))
			os.Exit(1)
		}
		for _, c := range creds {
			logger.Info("namespace credentials",
				slog.String("namespace_id", string(c.NamespaceID)),
				slog.String("namespace", c.NameID),
				slog.String("public_token", c.PublicToken),
				slog.String("dev_token", c.DevToken),
			)
		}
	}

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:           logger,
		AuthService:      app.AuthService,
		FindService:      app.FindService,
		ListingService:   app.ListingService,
		LifecycleService: app.LifecycleService,
	})

	server := api.NewServer(router, cfg.Server, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("server starting",
		slog.String("addr", cfg.Server.Addr()),
		slog.String("storage", cfg.StorageType),
		slog.Bool("nats", cfg.UseNATS()),
		slog.Bool("serve_allocator", cfg.ServeAllocator),
	)

	if err := server.Run(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		_ = app.Close()
		os.Exit(1)
	}

	logger.Info("server stopped")
}
