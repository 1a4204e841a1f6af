// Package config loads runtime settings from the environment.
//
// Values come from process environment variables. A .env.local file in the
// working directory, when present, is loaded first; variables already set
// in the environment win over the file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends selectable with DAILYCODE_STORAGE.
const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// DefaultQuota mirrors the usual per-origin browser storage limit.
const DefaultQuota int64 = 5 << 20

// Config holds every setting the binaries read.
type Config struct {
	// HTTP server
	Port int

	// Key-value namespace
	Storage      string // sqlite, redis or memory
	DBPath       string
	StorageQuota int64 // bytes; 0 disables the limit

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// Code generation
	APIKey            string // optional, stored on start when no key is saved yet
	BaseURL           string
	Model             string
	GenerationTimeout time.Duration

	// CredentialSecret enables sealing of the stored API key.
	CredentialSecret string

	LogLevel slog.Level
}

// Load reads the configuration. It fails on malformed numbers, durations,
// log levels or an unknown storage backend.
func Load() (*Config, error) {
	_ = godotenv.Load(".env.local")

	cfg := &Config{
		Storage:          strings.ToLower(envOrDefault("DAILYCODE_STORAGE", StorageSQLite)),
		DBPath:           envOrDefault("DAILYCODE_DB_PATH", "data/dailycode.db"),
		RedisAddr:        envOrDefault("DAILYCODE_REDIS_ADDR", "localhost:6379"),
		RedisPassword:    os.Getenv("DAILYCODE_REDIS_PASSWORD"),
		RedisPrefix:      envOrDefault("DAILYCODE_REDIS_PREFIX", "dailycode:"),
		APIKey:           os.Getenv("GROQ_API_KEY"),
		BaseURL:          envOrDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		Model:            envOrDefault("GROQ_MODEL", "qwen-2.5-coder-32b"),
		CredentialSecret: os.Getenv("DAILYCODE_CREDENTIAL_SECRET"),
	}

	var err error
	if cfg.Port, err = envInt("DAILYCODE_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = envInt("DAILYCODE_REDIS_DB", 0); err != nil {
		return nil, err
	}

	quota, err := envInt("DAILYCODE_STORAGE_QUOTA", int(DefaultQuota))
	if err != nil {
		return nil, err
	}
	if quota < 0 {
		return nil, fmt.Errorf("config: DAILYCODE_STORAGE_QUOTA must not be negative, got %d", quota)
	}
	cfg.StorageQuota = int64(quota)

	timeout := envOrDefault("DAILYCODE_GENERATION_TIMEOUT", "60s")
	if cfg.GenerationTimeout, err = time.ParseDuration(timeout); err != nil {
		return nil, fmt.Errorf("config: invalid DAILYCODE_GENERATION_TIMEOUT %q: %w", timeout, err)
	}

	level := envOrDefault("LOG_LEVEL", "info")
	if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("config: invalid LOG_LEVEL %q: %w", level, err)
	}

	switch cfg.Storage {
	case StorageSQLite, StorageRedis, StorageMemory:
	default:
		return nil, fmt.Errorf("config: unknown DAILYCODE_STORAGE %q (want sqlite, redis or memory)", cfg.Storage)
	}

	return cfg, nil
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// NewLogger builds the text logger used by both binaries.
func (c *Config) NewLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.LogLevel}))
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, v, err)
	}
	return n, nil
}
