package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ericogr/monster-battle/internal/art"
	"github.com/ericogr/monster-battle/internal/config"
	"github.com/ericogr/monster-battle/internal/constants"
	"github.com/ericogr/monster-battle/internal/genai"
	"github.com/ericogr/monster-battle/internal/logging"
	"github.com/ericogr/monster-battle/internal/narration"
	"github.com/ericogr/monster-battle/internal/service"
	"github.com/ericogr/monster-battle/internal/storage"
	"github.com/ericogr/monster-battle/internal/tui"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const logFile = "monster-battle-tui.log"

func main() {
	_ = godotenv.Load()

	// The terminal belongs to the UI; log lines go to a file.
	var logOut io.Writer = io.Discard
	if f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
		defer f.Close()
		logOut = f
	}
	logging.SetOutput(logOut)

	configPath := os.Getenv(constants.EnvConfigPath)
	if configPath == "" {
		configPath = constants.DefaultConfigPath
	}
	cfg, err := config.LoadConfig(configPath, true)
	if err != nil {
		logging.SetOutput(os.Stderr)
		logging.Fatal("Invalid monster battle configuration", err, logging.Fields{"config_path": configPath})
	}

	// Art is still cached so a later server run can reuse it.
	var artService service.ArtProvider
	client := genai.New(genai.OptionsFromConfig(cfg))
	if db, err := storage.OpenAndMigrate(cfg.DBPath); err != nil {
		logging.Warn("art cache unavailable", err, logging.Fields{"db_path": cfg.DBPath})
	} else if cfg.OpenAIAPIKey != "" {
		artService = art.NewService(storage.NewSQLiteRepository(db), client, cfg.ArtSize)
	} else {
		artService = art.NewService(storage.NewSQLiteRepository(db), nil, cfg.ArtSize)
	}

	session := service.NewSession(uuid.NewString(), service.Options{
		Setup:         client,
		Art:           artService,
		Narrator:      narration.New(cfg.Language),
		Scheduler:     service.TimerScheduler{},
		OpponentDelay: cfg.OpponentDelay,
	})
	defer session.Close()

	screen, err := tui.NewScreen()
	if err != nil {
		logging.SetOutput(os.Stderr)
		logging.Fatal("Failed to initialize terminal", err, nil)
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	tui.NewApp(screen, session).Run(ctx)
}
