package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ericogr/monster-battle/internal/constants"
	"github.com/ericogr/monster-battle/internal/narration"
)

type rawConfig struct {
	Server *struct {
		Address string `json:"address"`
	} `json:"server"`
	// Language of the battle log and loading messages ("en" or "zh").
	Language string `json:"language"`
	// Delay before the opponent answers a player move, in milliseconds.
	OpponentDelayMS *int `json:"opponent_delay_ms"`
	// Idle sessions are dropped after this many seconds.
	SessionTTLSeconds *int `json:"session_ttl_seconds"`
	// Edge length in pixels of the stored creature art.
	ArtSize *int `json:"art_size"`

	ChatModel  string `json:"chat_model"`
	ImageModel string `json:"image_model"`
	// Optional prompt overrides. image_prompt must contain the token
	// {{description}} where the creature's visual description goes.
	SystemPrompt string `json:"system_prompt"`
	SetupPrompt  string `json:"setup_prompt"`
	ImagePrompt  string `json:"image_prompt"`

	RequestTimeoutSeconds *int `json:"request_timeout_seconds"`
	MaxTries              *int `json:"max_tries"`
}

// LoadedConfig is the validated configuration with defaults applied.
type LoadedConfig struct {
	ServerAddress  string
	Language       string
	OpponentDelay  time.Duration
	SessionTTL     time.Duration
	ArtSize        int
	ChatModel      string
	ImageModel     string
	SystemPrompt   string
	SetupPrompt    string
	ImagePrompt    string
	RequestTimeout time.Duration
	MaxTries       int
	// Values below come from the environment, never from the file.
	OpenAIAPIKey  string
	OpenAIBaseURL string
	SessionSecret string
	DBPath        string
}

// Defaults returns the configuration used when no file is present.
func Defaults() *LoadedConfig {
	return &LoadedConfig{
		ServerAddress:  constants.DefaultAddress,
		Language:       "en",
		OpponentDelay:  constants.DefaultOpponentDelay,
		SessionTTL:     constants.DefaultSessionTTL,
		ArtSize:        constants.DefaultArtSize,
		ChatModel:      constants.OpenAIChatModel,
		ImageModel:     constants.OpenAIImageModel,
		RequestTimeout: constants.DefaultRequestTimeout,
		MaxTries:       constants.DefaultMaxTries,
		OpenAIBaseURL:  constants.OpenAIBaseURL,
		DBPath:         constants.DefaultDBPath,
	}
}

// LoadConfig reads the configuration file at path. A missing file is not an
// error when optional is true; the defaults are used instead. Environment
// overrides are applied in both cases.
func LoadConfig(path string, optional bool) (*LoadedConfig, error) {
	cfg := Defaults()
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.apply(path, b); err != nil {
			return nil, err
		}
	case optional && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

func (cfg *LoadedConfig) apply(path string, b []byte) error {
	var rc rawConfig
	if err := json.Unmarshal(b, &rc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if rc.Server != nil && rc.Server.Address != "" {
		cfg.ServerAddress = rc.Server.Address
	}
	if lang := strings.TrimSpace(rc.Language); lang != "" {
		if !narration.Supports(lang) {
			return fmt.Errorf("config file %s: unsupported language %q", path, lang)
		}
		cfg.Language = lang
	}
	if rc.OpponentDelayMS != nil {
		if *rc.OpponentDelayMS < 0 {
			return fmt.Errorf("config file %s: opponent_delay_ms must not be negative", path)
		}
		cfg.OpponentDelay = time.Duration(*rc.OpponentDelayMS) * time.Millisecond
	}
	if rc.SessionTTLSeconds != nil {
		if *rc.SessionTTLSeconds <= 0 {
			return fmt.Errorf("config file %s: session_ttl_seconds must be positive", path)
		}
		cfg.SessionTTL = time.Duration(*rc.SessionTTLSeconds) * time.Second
	}
	if rc.ArtSize != nil {
		if *rc.ArtSize < 32 || *rc.ArtSize > 1024 {
			return fmt.Errorf("config file %s: art_size must be between 32 and 1024", path)
		}
		cfg.ArtSize = *rc.ArtSize
	}
	if rc.RequestTimeoutSeconds != nil {
		if *rc.RequestTimeoutSeconds <= 0 {
			return fmt.Errorf("config file %s: request_timeout_seconds must be positive", path)
		}
		cfg.RequestTimeout = time.Duration(*rc.RequestTimeoutSeconds) * time.Second
	}
	if rc.MaxTries != nil {
		if *rc.MaxTries < 1 {
			return fmt.Errorf("config file %s: max_tries must be at least 1", path)
		}
		cfg.MaxTries = *rc.MaxTries
	}
	if s := strings.TrimSpace(rc.ChatModel); s != "" {
		cfg.ChatModel = s
	}
	if s := strings.TrimSpace(rc.ImageModel); s != "" {
		cfg.ImageModel = s
	}
	cfg.SystemPrompt = strings.TrimSpace(rc.SystemPrompt)
	cfg.SetupPrompt = strings.TrimSpace(rc.SetupPrompt)
	cfg.ImagePrompt = strings.TrimSpace(rc.ImagePrompt)
	if cfg.ImagePrompt != "" && !strings.Contains(cfg.ImagePrompt, "{{description}}") {
		return fmt.Errorf("config file %s: image_prompt must contain the {{description}} token", path)
	}
	return nil
}

func (cfg *LoadedConfig) applyEnv() {
	cfg.OpenAIAPIKey = os.Getenv(constants.EnvOpenAIAPIKey)
	cfg.SessionSecret = os.Getenv(constants.EnvSessionSecret)
	if v := os.Getenv(constants.EnvOpenAIBaseURL); v != "" {
		cfg.OpenAIBaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv(constants.EnvDBPath); v != "" {
		cfg.DBPath = v
	}
}
