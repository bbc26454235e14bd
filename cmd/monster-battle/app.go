package main

import (
	"context"
	"os"
	"time"

	"github.com/ericogr/monster-battle/internal/art"
	"github.com/ericogr/monster-battle/internal/config"
	"github.com/ericogr/monster-battle/internal/constants"
	"github.com/ericogr/monster-battle/internal/genai"
	"github.com/ericogr/monster-battle/internal/logging"
	"github.com/ericogr/monster-battle/internal/storage"
	"github.com/ericogr/monster-battle/internal/telemetry"
)

func loadConfigOrExit(path string) *config.LoadedConfig {
	cfg, err := config.LoadConfig(path, true)
	if err != nil {
		logging.Fatal("Invalid monster battle configuration", err, logging.Fields{"config_path": path})
	}
	return cfg
}

func createRepositoryOrExit(dbPath string) storage.Repository {
	db, err := storage.OpenAndMigrate(dbPath)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, logging.Fields{"db_path": dbPath})
	}
	return storage.NewSQLiteRepository(db)
}

func newGenAIClient(cfg *config.LoadedConfig) *genai.Client {
	return genai.New(genai.OptionsFromConfig(cfg))
}

// newArtService runs the art service offline (placeholders only) when no
// API key is configured.
func newArtService(repo storage.Repository, client *genai.Client, cfg *config.LoadedConfig) *art.Service {
	if cfg.OpenAIAPIKey == "" {
		return art.NewService(repo, nil, cfg.ArtSize)
	}
	return art.NewService(repo, client, cfg.ArtSize)
}

// setupTracing exports spans only when an OTLP endpoint is configured.
func setupTracing(ctx context.Context) func() {
	if os.Getenv(constants.EnvOTLPEndpoint) == "" {
		return func() {}
	}
	shutdown, err := telemetry.Setup(ctx)
	if err != nil {
		logging.Error("Failed to set up tracing", err, nil)
		return func() {}
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logging.Error("Failed to flush traces", err, nil)
		}
	}
}
