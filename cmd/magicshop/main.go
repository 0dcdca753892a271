package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/arcanum-labs/magicshop/internal/cache"
	"github.com/arcanum-labs/magicshop/internal/catalog"
	"github.com/arcanum-labs/magicshop/internal/config"
	"github.com/arcanum-labs/magicshop/internal/genai"
	"github.com/arcanum-labs/magicshop/internal/observability"
	"github.com/arcanum-labs/magicshop/internal/storage"
	"github.com/arcanum-labs/magicshop/web"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "magicshop",
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Driver).
		Str("cache", cfg.Cache.Driver).
		Msg("Starting Magic Shop")

	db, err := storage.Open(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := storage.EnsureSchema(context.Background(), db, cfg.Database.Driver); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ensure schema")
	}

	var listings cache.Client
	switch cfg.Cache.Driver {
	case "redis":
		listings, err = cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
	default:
		listings = cache.NewMemoryClient(cfg.Cache.MaxEntries)
	}
	defer listings.Close()

	backend := genai.NewClient(genai.Config{
		APIKey:     cfg.AI.APIKey,
		TextModel:  cfg.AI.TextModel,
		ImageModel: cfg.AI.ImageModel,
		ImageSize:  cfg.AI.ImageSize,
		Prompts: genai.SystemPrompts{
			DescriptionGeneration: cfg.Prompts.DescriptionGeneration,
			ImagePromptGeneration: cfg.Prompts.ImagePromptGeneration,
		},
	}, logger)

	svc, err := catalog.NewService(db, backend, listings, cfg.Cache.TTL, cfg.ImageDir(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize catalog")
	}

	tmpl, err := web.Templates()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to parse templates")
	}

	router := NewRouter(logger, cfg, svc, tmpl)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}
