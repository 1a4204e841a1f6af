package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/daily-code/internal/codegen"
	"github.com/sakif/daily-code/internal/config"
	"github.com/sakif/daily-code/internal/repository"
	"github.com/sakif/daily-code/internal/repository/memory"
	"github.com/sakif/daily-code/internal/repository/redis"
	"github.com/sakif/daily-code/internal/repository/sqlite"
	"github.com/sakif/daily-code/internal/secret"
	"github.com/sakif/daily-code/internal/service"
)

// app is the composition root shared by every command:
//
//	config → namespace backend → SnippetStore ┐
//	                           → codegen.Client ┴→ EditorController
type app struct {
	config     *config.Config
	logger     *slog.Logger
	codegen    *codegen.Client
	controller *service.EditorController
	closer     io.Closer // nil for the memory backend
}

// openApp builds the dependency graph described by cfg.
func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	ns, closer, err := openNamespace(cfg, logger)
	if err != nil {
		return nil, err
	}

	sealer, err := secret.NewSealer(cfg.CredentialSecret)
	if err != nil {
		closeQuietly(closer)
		return nil, err
	}
	if sealer.Enabled() {
		logger.Info("stored API key is sealed")
	}

	client := codegen.NewClient(ns, sealer, codegen.Config{
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.GenerationTimeout,
	}, logger)

	// GROQ_API_KEY seeds the store once; a key saved by the user wins.
	if cfg.APIKey != "" && !client.HasCredential(ctx) {
		if client.SetCredential(ctx, cfg.APIKey) {
			logger.Info("API key seeded from GROQ_API_KEY")
		}
	}

	store := service.NewSnippetStore(ns, logger)

	return &app{
		config:     cfg,
		logger:     logger,
		codegen:    client,
		controller: service.NewEditorController(store, client, logger),
		closer:     closer,
	}, nil
}

// Close releases the namespace backend.
func (a *app) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func openNamespace(cfg *config.Config, logger *slog.Logger) (repository.Namespace, io.Closer, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Debug("using in-memory storage")
		return memory.New(cfg.StorageQuota), nil, nil

	case config.StorageRedis:
		store, err := redis.Connect(redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil

	default:
		if cfg.DBPath != ":memory:" {
			dir := filepath.Dir(cfg.DBPath)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		db, err := sqlite.New(cfg.DBPath, sqlite.WithQuota(cfg.StorageQuota))
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("using sqlite storage", slog.String("path", cfg.DBPath))
		return db, db, nil
	}
}

func closeQuietly(c io.Closer) {
	if c != nil {
		c.Close()
	}
}
