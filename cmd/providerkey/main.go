package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"moodboard/internal/infra"
	"moodboard/internal/infra/credentials"
)

func main() {
	_ = godotenv.Load()

	var (
		keyFlag  string
		noteFlag string
	)
	flag.StringVar(&keyFlag, "key", "", "OpenAI API key (falls back to OPENAI_API_KEY)")
	flag.StringVar(&noteFlag, "note", "", "optional note stored alongside the key")
	flag.Parse()

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	if key == "" {
		fmt.Fprintln(os.Stderr, "OPENAI API key is required via -key or environment")
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "providerkey").Str("provider", credentials.ProviderOpenAI).Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	props := map[string]any{"stored_at": time.Now().UTC().Format(time.RFC3339)}
	if note := strings.TrimSpace(noteFlag); note != "" {
		props["note"] = note
	}
	if err := store.SetOpenAIAPIKey(ctx, key, props); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist openai api key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("OPENAI API key stored successfully")
}
