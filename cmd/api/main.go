package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"

	"moodboard/internal/adapter/repo"
	"moodboard/internal/http/handlers"
	httpapi "moodboard/internal/http/httpapi"
	"moodboard/internal/infra"
	"moodboard/internal/infra/credentials"
	"moodboard/internal/middleware"
	"moodboard/internal/moodboard"
	"moodboard/internal/providers/image"
	"moodboard/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()
	runner := infra.NewSQLRunner(dbpool, logger)

	apiKey, err := credentials.NewStore(runner).ResolveOpenAIKey(ctx, cfg.OpenAIAPIKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("image provider key unavailable")
	}

	generator, err := image.NewOpenAIGenerator(image.OpenAIOptions{
		APIKey:       apiKey,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
		Model:        cfg.ImageModel,
		Size:         cfg.ImageSize,
		Quality:      cfg.ImageQuality,
		Mode:         cfg.ImageProviderMode,
		Timeout:      cfg.ImageProviderTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("image generator init failed")
	}

	blob, staticDir, closeBlob := openBlobStore(ctx, cfg, logger)
	defer closeBlob()

	metrics := infra.NewMetrics()
	catalog := repo.NewCatalogRepository(runner)
	compositor := moodboard.NewCompositor(
		moodboard.NewResolver(catalog),
		generator,
		moodboard.NewPublisher(blob, moodboard.PublisherOptions{}),
		moodboard.CompositorOptions{
			Size:    cfg.ImageSize,
			Quality: cfg.ImageQuality,
			Logger:  &logger,
			Metrics: metrics,
		},
	)

	limitStore, closeLimiter := openRateLimitStore(ctx, cfg, logger)
	defer closeLimiter()

	app := &handlers.App{
		Logger:     &logger,
		Moodboards: compositor,
		Catalog:    catalog,
		Looks:      repo.NewLookRepository(runner),
		Metrics:    metrics,
		Ping:       dbpool.Ping,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		RateLimitStore:  limitStore,
		StaticDir:       staticDir,
	})

	server := infra.NewHTTPServer(cfg, router)
	go func() {
		logger.Info().Str("addr", server.Addr()).Str("blob_backend", cfg.BlobBackend).Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// openBlobStore returns the configured backend and, for the filesystem
// backend, the directory to serve under /static/.
func openBlobStore(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (storage.BlobStore, string, func()) {
	switch cfg.BlobBackend {
	case infra.BlobBackendGCS:
		client, err := storage.NewGCSClient(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("gcs client init failed")
		}
		store, err := storage.NewGCSStore(client, cfg.GCSBucketName, cfg.BlobPublicBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("gcs store init failed")
		}
		return store, "", func() {
			if err := store.Close(); err != nil {
				logger.Warn().Err(err).Msg("gcs client close")
			}
		}
	default:
		store, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("file store init failed")
		}
		return store, store.BasePath(), func() {}
	}
}

// openRateLimitStore uses REDIS_URL when set so replicas share budgets.
func openRateLimitStore(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (limiter.Store, func()) {
	if cfg.RedisURL == "" {
		store, err := middleware.NewRateLimitStore(nil)
		if err != nil {
			logger.Fatal().Err(err).Msg("rate limit store init failed")
		}
		return store, func() {}
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("redis unreachable")
	}
	store, err := middleware.NewRateLimitStore(client)
	if err != nil {
		logger.Fatal().Err(err).Msg("rate limit store init failed")
	}
	return store, func() { _ = client.Close() }
}
