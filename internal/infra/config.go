package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIOrg     string

	ClassifierModel    string
	ClassifierTimeout  time.Duration
	ClassifierJSONMode bool

	ImageModel           string
	ImageSize            string
	ImageQuality         string
	ImageProviderMode    string
	ImageProviderTimeout time.Duration

	BlobBackend       string
	StoragePath       string
	StorageBaseURL    string
	GCSBucketName     string
	BlobPublicBaseURL string

	CORSAllowedOrigins []string
	RateLimitPerMin    int
	RedisURL           string

	NormalizerBatchLimit int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

const (
	BlobBackendFilesystem = "filesystem"
	BlobBackendGCS        = "gcs"

	ImageProviderModeGenerate = "generate"
	ImageProviderModeEdit     = "edit"

	// MaxNormalizerBatch bounds a single normalizer pass to stay inside provider and store limits.
	MaxNormalizerBatch = 1000
)

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        port,
		DatabaseURL: os.Getenv("DATABASE_URL"),

		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:     os.Getenv("OPENAI_ORG"),

		ClassifierModel:    getEnv("CLASSIFIER_MODEL", "gpt-4o-mini"),
		ClassifierTimeout:  time.Second * time.Duration(getEnvInt("CLASSIFIER_TIMEOUT_SECONDS", 30)),
		ClassifierJSONMode: getEnvBool("CLASSIFIER_JSON_MODE", true),

		ImageModel:           getEnv("IMAGE_MODEL", "gpt-image-1"),
		ImageSize:            getEnv("IMAGE_SIZE", "1024x1024"),
		ImageQuality:         getEnv("IMAGE_QUALITY", "high"),
		ImageProviderMode:    strings.ToLower(getEnv("IMAGE_PROVIDER_MODE", ImageProviderModeGenerate)),
		ImageProviderTimeout: time.Second * time.Duration(getEnvInt("IMAGE_PROVIDER_TIMEOUT_SECONDS", 120)),

		BlobBackend:       strings.ToLower(getEnv("BLOB_BACKEND", BlobBackendFilesystem)),
		StoragePath:       getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:    getEnv("STORAGE_BASE_URL", fmt.Sprintf("http://localhost:%s/static", port)),
		GCSBucketName:     os.Getenv("GCS_BUCKET_NAME"),
		BlobPublicBaseURL: os.Getenv("BLOB_PUBLIC_BASE_URL"),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		RedisURL:           os.Getenv("REDIS_URL"),

		NormalizerBatchLimit: clampBatch(getEnvInt("NORMALIZER_BATCH_LIMIT", MaxNormalizerBatch)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	switch cfg.BlobBackend {
	case BlobBackendFilesystem:
	case BlobBackendGCS:
		if strings.TrimSpace(cfg.GCSBucketName) == "" {
			return nil, fmt.Errorf("GCS_BUCKET_NAME is required when BLOB_BACKEND=gcs")
		}
	default:
		return nil, fmt.Errorf("unsupported BLOB_BACKEND %q", cfg.BlobBackend)
	}

	switch cfg.ImageProviderMode {
	case ImageProviderModeGenerate, ImageProviderModeEdit:
	default:
		return nil, fmt.Errorf("unsupported IMAGE_PROVIDER_MODE %q", cfg.ImageProviderMode)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func clampBatch(n int) int {
	if n <= 0 || n > MaxNormalizerBatch {
		return MaxNormalizerBatch
	}
	return n
}
