package constants

import "time"

// Centralized constants for headers, env keys and OpenAI integration.
const (
	// Environment variable keys
	EnvConfigPath          = "MONSTER_BATTLE_CONFIG"
	EnvDBPath              = "MONSTER_BATTLE_DB"
	EnvSessionSecret       = "SESSION_SECRET"
	EnvOpenAIAPIKey        = "OPENAI_API_KEY"
	EnvOpenAIBaseURL       = "OPENAI_BASE_URL"
	EnvSessionSecureCookie = "SESSION_SECURE_COOKIE"
	EnvOTLPEndpoint        = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvHealthcheckURL      = "HEALTHCHECK_URL"

	DefaultConfigPath = "./monster_battle_config.json"
	DefaultDBPath     = "./data/monster_battle.db"
	DefaultAddress    = ":8080"

	// HTTP headers and content types
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderSessionToken  = "X-Session-Token"

	ContentTypeJSON = "application/json"
	ContentTypePNG  = "image/png"

	CacheControlHeader    = "Cache-Control"
	CacheControlNoCache   = "no-cache, no-store, must-revalidate"
	CacheControlImmutable = "public, max-age=31536000, immutable"

	// Authorization prefix
	BearerPrefix = "Bearer "

	// OpenAI API endpoints and base URL
	OpenAIBaseURL               = "https://api.openai.com"
	OpenAIChatCompletionsPath   = "/v1/chat/completions"
	OpenAIImagesGenerationsPath = "/v1/images/generations"

	// OpenAI model names and typical parameters
	OpenAIChatModel           = "gpt-4o-mini"
	OpenAIImageModel          = "gpt-image-1"
	OpenAIImageSizeDefault    = "1024x1024"
	OpenAIImageQualityDefault = "low"

	// Session / Cookie names
	CookieSessionName = "mb_session"
)

// Battle timing defaults.
const (
	DefaultOpponentDelay  = 1500 * time.Millisecond
	DefaultSessionTTL     = 30 * time.Minute
	DefaultRequestTimeout = 90 * time.Second
	DefaultStartTimeout   = 3 * time.Minute
	DefaultMaxTries       = 3
	DefaultArtSize        = 256
)

// Routes used by the backend router
const (
	RouteAPIPrefix     = "/api"
	RouteHealth        = "/healthz"
	RouteVersion       = "/version"
	RouteSessions      = "/sessions"
	RouteSessionByID   = "/sessions/:sessionID"
	RouteSessionStart  = "/sessions/:sessionID/start"
	RouteSessionMoves  = "/sessions/:sessionID/moves"
	RouteSessionEvents = "/sessions/:sessionID/events"
	RouteSessionWS     = "/sessions/:sessionID/ws"
	RouteAssetsArt     = "/assets/art"
	RouteAssetsArtKey  = "/assets/art/:key"

	ParamSessionID = "sessionID"
	ParamKey       = "key"
)

// Common JSON response keys
const (
	JSONKeyError  = "error"
	JSONKeyStatus  = "status"
)

// Common error messages used across API handlers
const (
	ErrInvalidRequest      = "Invalid request"
	ErrSessionNotFound     = "Session not found"
	ErrInvalidMoveIndex    = "Move index out of range"
	ErrStartSuperseded     = "Battle start was superseded by a newer start"
	ErrAssetNotFound       = "Asset not found"
	ErrFailedLoadAsset     = "Failed to load asset"
	ErrFailedEncodeState   = "Failed to encode state"
	ErrStreamingNotAllowed = "Streaming upgrade failed"

	ErrAuthRequired    = "Authentication required"
	ErrInvalidSession  = "Invalid session"
	ErrSessionMismatch = "Session token does not match this session"
)

// Logging field names
const (
	LogFieldSessionID = "session_id"
	LogFieldMove      = "move"
	LogFieldStatus    = "status"
	LogFieldName      = "name"
	LogFieldKey       = "key"
	LogFieldAddr      = "addr"
	LogFieldAttempt   = "attempt"
	LogFieldModel     = "model"
)
