package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"moodboard/internal/adapter/repo"
	"moodboard/internal/catalog"
	"moodboard/internal/infra"
	"moodboard/internal/infra/credentials"
	"moodboard/internal/providers/classifier"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}

	limit := flag.Int("limit", cfg.NormalizerBatchLimit, "maximum records to process in this pass")
	dryRun := flag.Bool("dry-run", false, "classify records without writing them back")
	flag.Parse()

	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "normalizer").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("normalizer: db connection failed")
	}
	defer pool.Close()
	runner := infra.NewSQLRunner(pool, logger)

	apiKey, err := credentials.NewStore(runner).ResolveOpenAIKey(ctx, cfg.OpenAIAPIKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("normalizer: classifier key unavailable")
	}
	client, err := classifier.NewClient(classifier.Options{
		APIKey:       apiKey,
		Model:        cfg.ClassifierModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
		Timeout:      cfg.ClassifierTimeout,
		JSONMode:     cfg.ClassifierJSONMode,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("normalizer: classifier init failed")
	}

	n := catalog.NewNormalizer(repo.NewCatalogRepository(runner), client, catalog.Options{
		BatchLimit: *limit,
		DryRun:     *dryRun,
		Logger:     &logger,
	})
	summary, err := n.Run(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("normalizer: pass aborted")
	}

	logger.Info().
		Int("fetched", summary.Fetched).
		Int("updated", summary.Updated).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Bool("dry_run", *dryRun).
		Dur("took", summary.Duration).
		Msg("normalizer pass complete")
	if summary.Failed > 0 {
		os.Exit(2)
	}
}
