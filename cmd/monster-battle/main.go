package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ericogr/monster-battle/internal/api"
	"github.com/ericogr/monster-battle/internal/constants"
	"github.com/ericogr/monster-battle/internal/logging"
	"github.com/ericogr/monster-battle/internal/narration"
	"github.com/ericogr/monster-battle/internal/service"
	"github.com/ericogr/monster-battle/internal/version"

	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	configPath := os.Getenv(constants.EnvConfigPath)
	if configPath == "" {
		configPath = constants.DefaultConfigPath
	}
	cfg := loadConfigOrExit(configPath)
	if cfg.OpenAIAPIKey == "" {
		logging.Warn("OPENAI_API_KEY not set, battles cannot be generated", nil, logging.Fields{"var": constants.EnvOpenAIAPIKey})
	}
	if cfg.SessionSecret == "" {
		logging.Warn("SESSION_SECRET not set, using a random secret", nil, nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := setupTracing(ctx)
	defer shutdownTracing()

	repo := createRepositoryOrExit(cfg.DBPath)
	client := newGenAIClient(cfg)
	artService := newArtService(repo, client, cfg)

	narrator := narration.New(cfg.Language)
	sessions := service.NewManager(service.Options{
		Setup:         client,
		Art:           artService,
		Narrator:      narrator,
		Scheduler:     service.TimerScheduler{},
		OpponentDelay: cfg.OpponentDelay,
	}, cfg.SessionTTL)
	defer sessions.CloseAll()
	sessions.StartSweeper(ctx, sweepInterval(cfg.SessionTTL))

	handler, err := api.NewHandler(sessions, artService, api.HandlerOptions{
		SessionSecret: cfg.SessionSecret,
		TokenTTL:      cfg.SessionTTL,
		SecureCookie:  os.Getenv(constants.EnvSessionSecureCookie) == "1",
		StartTimeout:  constants.DefaultStartTimeout,
	})
	if err != nil {
		logging.Fatal("Failed to create session handler", err, nil)
	}

	logging.Info("Server started", logging.Fields{
		constants.LogFieldAddr: cfg.ServerAddress,
		"version":              version.String(),
		"language":             narrator.Language().String(),
	})
	if err := serve(ctx, cfg.ServerAddress, api.NewRouter(handler)); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
	logging.Info("Server stopped", nil)
}
