package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const mib = 1 << 20

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

type Config struct {
	Env        string // "local" or "prod"
	ServerPort string
	Storage    string

	MongoURL    string
	MongoDBName string

	JWTSecret string

	RedisURL           string
	RateLimitPerMinute int

	NatsURL      string
	OtelEndpoint string

	CORSAllowedOrigins []string

	MaxUploadBytes     int64
	UploadTimeoutBase  time.Duration
	UploadTimeoutPerMB time.Duration
}

// String keeps secrets out of start-up logs.
func (c Config) String() string {
	return fmt.Sprintf("env=%s port=%s storage=%s db=%s redis=%t nats=%t otel=%t max_upload=%d",
		c.Env, c.ServerPort, c.Storage, c.MongoDBName, c.RedisURL != "", c.NatsURL != "", c.OtelEndpoint != "", c.MaxUploadBytes)
}

// Load reads the environment, seeded from .env when present.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to read .env", "error", err)
	}

	cfg := Config{
		Env:                getEnv("APP_ENV", "local"),
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		Storage:            getEnv("STORAGE", StorageMongo),
		MongoURL:           getEnv("MONGO_URL", ""),
		MongoDBName:        getEnv("MONGO_DBNAME", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		NatsURL:            getEnv("NATS_URL", ""),
		OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
	}

	var errs []error
	cfg.RateLimitPerMinute = getInt("RATE_LIMIT_PER_MINUTE", 60, &errs)
	// image (10MB) + video (20MB) + form overhead
	cfg.MaxUploadBytes = int64(getInt("MAX_UPLOAD_BYTES", 32*mib, &errs))
	cfg.UploadTimeoutBase = getDuration("UPLOAD_TIMEOUT_BASE", 5*time.Second, &errs)
	cfg.UploadTimeoutPerMB = getDuration("UPLOAD_TIMEOUT_PER_MIB", time.Second, &errs)

	switch cfg.Storage {
	case StorageMongo:
		if cfg.MongoURL == "" {
			errs = append(errs, errors.New("empty mongo url"))
		}
		if cfg.MongoDBName == "" {
			errs = append(errs, errors.New("empty mongo dbname"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("unexpected storage: %s", cfg.Storage))
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("empty jwt secret"))
	}

	return cfg, errors.Join(errs...)
}

// UploadTimeout grows with the payload so large videos get proportionally more time.
func (c Config) UploadTimeout(contentLength int64) time.Duration {
	if contentLength <= 0 {
		return c.UploadTimeoutBase
	}
	mbs := (contentLength + mib - 1) / mib
	return c.UploadTimeoutBase + time.Duration(mbs)*c.UploadTimeoutPerMB
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]error) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		*errs = append(*errs, fmt.Errorf("%s must be a positive integer, got %q", key, raw))
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		*errs = append(*errs, fmt.Errorf("%s must be a positive duration, got %q", key, raw))
		return fallback
	}
	return v
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
