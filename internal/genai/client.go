// Package genai is the creature provider backed by the OpenAI HTTP API. It
// produces battle setups through structured chat completions and creature
// art through the Images API.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ericogr/monster-battle/internal/config"
	"github.com/ericogr/monster-battle/internal/constants"
	"github.com/ericogr/monster-battle/internal/logging"
	"github.com/ericogr/monster-battle/internal/narration"
	"github.com/ericogr/monster-battle/internal/telemetry"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
)

var (
	ErrMissingAPIKey = errors.New(constants.EnvOpenAIAPIKey + " not set")
	ErrEmptyResponse = errors.New("openai returned an empty response")
	ErrInvalidSetup  = errors.New("openai returned an invalid battle setup")
	ErrNoImage       = errors.New("openai returned no image data")
)

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openai error: %d %s", e.Code, e.Body)
}

// Retryable reports whether the request may succeed when sent again.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

const (
	defaultSystemPrompt = "You are a creative game designer for a monster-taming battle game. " +
		"Create unique, balanced creatures with evocative names and stats. " +
		"The setting is a fantasy world. Output JSON only."
	defaultSetupPrompt = "Generate two unique battling monsters, one for the player and one for the opponent. " +
		"Give them names, elemental types, stats (max HP between 100 and 200) and exactly 4 moves each. " +
		"The description must be a detailed visual description of the monster for image generation, " +
		"e.g. 'A fiery red fox with three tails'."
	chineseNamesHint   = " Give the creatures and their moves Chinese names."
	defaultImagePrompt = "A high quality, digital art style sprite of a monster-taming game creature. " +
		"Transparent background. Style: anime, cel-shaded, vibrant colors. No text or logos. " +
		"Description: {{description}}"
	defaultRetryInterval = 500 * time.Millisecond
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	APIKey       string
	BaseURL      string
	ChatModel    string
	ImageModel   string
	SystemPrompt string
	SetupPrompt  string
	ImagePrompt  string
	Timeout      time.Duration
	MaxTries     int
	// RetryInterval is the first backoff delay between attempts.
	RetryInterval time.Duration
	HTTPClient    *http.Client
}

// OptionsFromConfig maps the loaded configuration onto client options.
func OptionsFromConfig(cfg *config.LoadedConfig) Options {
	setup := cfg.SetupPrompt
	if setup == "" {
		setup = defaultSetupPrompt
		if narration.MatchLanguage(cfg.Language) == language.SimplifiedChinese {
			setup += chineseNamesHint
		}
	}
	return Options{
		APIKey:       cfg.OpenAIAPIKey,
		BaseURL:      cfg.OpenAIBaseURL,
		ChatModel:    cfg.ChatModel,
		ImageModel:   cfg.ImageModel,
		SystemPrompt: cfg.SystemPrompt,
		SetupPrompt:  setup,
		ImagePrompt:  cfg.ImagePrompt,
		Timeout:      cfg.RequestTimeout,
		MaxTries:     cfg.MaxTries,
	}
}

// Client talks to the OpenAI API. It is safe for concurrent use.
type Client struct {
	opts     Options
	http     *http.Client
	validate *validator.Validate
	tracer   trace.Tracer
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = constants.OpenAIBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.ChatModel == "" {
		opts.ChatModel = constants.OpenAIChatModel
	}
	if opts.ImageModel == "" {
		opts.ImageModel = constants.OpenAIImageModel
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = defaultSystemPrompt
	}
	if opts.SetupPrompt == "" {
		opts.SetupPrompt = defaultSetupPrompt
	}
	if opts.ImagePrompt == "" {
		opts.ImagePrompt = defaultImagePrompt
	}
	if opts.Timeout <= 0 {
		opts.Timeout = constants.DefaultRequestTimeout
	}
	if opts.MaxTries < 1 {
		opts.MaxTries = constants.DefaultMaxTries
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		opts:     opts,
		http:     hc,
		validate: newValidator(),
		tracer:   telemetry.Tracer("genai"),
	}
}

// postJSON sends payload to path and decodes a 2xx answer into out.
// Network failures, 429 and 5xx answers are retried with exponential
// backoff up to MaxTries attempts.
func (c *Client) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	if c.opts.APIKey == "" {
		return ErrMissingAPIKey
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	attempt := 0
	op := func() ([]byte, error) {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+c.opts.APIKey)
		req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			se := &StatusError{Code: resp.StatusCode, Body: truncate(string(raw), 512)}
			if se.Retryable() {
				return nil, se
			}
			return nil, backoff.Permanent(se)
		}
		return raw, nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.opts.RetryInterval
	raw, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(c.opts.MaxTries)),
		backoff.WithNotify(func(err error, d time.Duration) {
			logging.Warn("openai request retry", err, logging.Ctx(ctx, logging.Fields{
				"path":                    path,
				constants.LogFieldAttempt: attempt,
				"backoff_ms":              d.Milliseconds(),
			}))
		}),
	)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode OpenAI response: %w", err)
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
