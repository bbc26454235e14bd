package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ericogr/monster-battle/internal/constants"
	"github.com/ericogr/monster-battle/internal/engine"
	"github.com/ericogr/monster-battle/internal/game"
	"github.com/ericogr/monster-battle/internal/logging"
	"github.com/ericogr/monster-battle/internal/service"

	"github.com/gin-gonic/gin"
)

// SessionStore is the session registry used by the handlers.
type SessionStore interface {
	Create() *service.Session
	Get(id string) (*service.Session, bool)
	Remove(id string) bool
}

// ArtLoader returns stored art by handle.
type ArtLoader interface {
	Load(key string) ([]byte, error)
}

// Handler groups the battle session HTTP handlers.
type Handler struct {
	sessions     SessionStore
	art          ArtLoader
	tokens       *tokenSigner
	secureCookie bool
	startTimeout time.Duration
}

type HandlerOptions struct {
	SessionSecret string
	// TokenTTL bounds the lifetime of a session token and its cookie. Tokens
	// are re-issued on use, so only an unused token expires.
	TokenTTL     time.Duration
	SecureCookie bool
	// StartTimeout bounds a whole battle start, provider calls included.
	StartTimeout time.Duration
}

func NewHandler(sessions SessionStore, art ArtLoader, opts HandlerOptions) (*Handler, error) {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = constants.DefaultSessionTTL
	}
	if opts.StartTimeout <= 0 {
		opts.StartTimeout = constants.DefaultStartTimeout
	}
	tokens, err := newTokenSigner(opts.SessionSecret, opts.TokenTTL)
	if err != nil {
		return nil, err
	}
	return &Handler{
		sessions:     sessions,
		art:          art,
		tokens:       tokens,
		secureCookie: opts.SecureCookie,
		startTimeout: opts.StartTimeout,
	}, nil
}

// NewRouter wires every route. Session routes require the session token.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.Default()
	router.GET(constants.RouteHealth, Health)

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		apiRoutes.GET(constants.RouteVersion, Version)
		apiRoutes.POST(constants.RouteSessions, h.CreateSession)
		apiRoutes.GET(constants.RouteAssetsArtKey, h.ServeArtAsset)

		protected := apiRoutes.Group("")
		protected.Use(h.SessionRequired())

		protected.GET(constants.RouteSessionByID, h.GetSession)
		protected.DELETE(constants.RouteSessionByID, h.DeleteSession)
		protected.POST(constants.RouteSessionStart, h.StartBattle)
		protected.POST(constants.RouteSessionMoves, h.SelectMove)
		protected.GET(constants.RouteSessionEvents, h.Events)
		protected.GET(constants.RouteSessionWS, h.WebSocket)
	}
	return router
}

// viewResponse is a session view plus URLs for the creatures' art.
type viewResponse struct {
	service.View
	ArtURLs map[game.Side]string `json:"art_urls,omitempty"`
}

func artURL(key string) string {
	return constants.RouteAPIPrefix + constants.RouteAssetsArt + "/" + key + ".png"
}

func toResponse(v service.View) viewResponse {
	out := viewResponse{View: v}
	if v.Battle == nil {
		return out
	}
	for _, c := range []game.Creature{v.Battle.Player, v.Battle.Opponent} {
		if c.Art == "" {
			continue
		}
		if out.ArtURLs == nil {
			out.ArtURLs = map[game.Side]string{}
		}
		out.ArtURLs[c.ID] = artURL(c.Art)
	}
	return out
}

// CreateSession opens a new idle session and returns its token, both in the
// body and as a cookie.
func (h *Handler) CreateSession(c *gin.Context) {
	s := h.sessions.Create()
	token := h.tokens.create(s.ID())
	h.setSessionCookie(c, token)
	c.JSON(http.StatusCreated, gin.H{
		"session_id": s.ID(),
		"token":      token,
		"view":       toResponse(s.View()),
	})
}

func (h *Handler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, toResponse(sessionFrom(c).View()))
}

func (h *Handler) DeleteSession(c *gin.Context) {
	h.sessions.Remove(sessionFrom(c).ID())
	h.clearSessionCookie(c)
	c.Status(http.StatusNoContent)
}

// StartBattle starts a new battle, discarding the current one. By default
// it answers 202 with the loading view and finishes in the background;
// with ?wait=true it answers once the battle is ready or setup failed.
func (h *Handler) StartBattle(c *gin.Context) {
	s := sessionFrom(c)
	if c.Query("wait") == "true" {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.startTimeout)
		defer cancel()
		v, err := s.StartBattle(ctx)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, toResponse(v))
		case errors.Is(err, service.ErrSetupFailed):
			c.JSON(http.StatusBadGateway, gin.H{constants.JSONKeyError: v.Error, "view": toResponse(v)})
		case errors.Is(err, service.ErrSuperseded):
			c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrStartSuperseded})
		default:
			c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrSessionNotFound})
		}
		return
	}

	ch, cancel := s.Subscribe()
	defer cancel()
	current := <-ch
	go h.startInBackground(s)
	select {
	case v, ok := <-ch:
		if ok {
			current = v
		}
	case <-time.After(time.Second):
	}
	c.JSON(http.StatusAccepted, toResponse(current))
}

func (h *Handler) startInBackground(s *service.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), h.startTimeout)
	defer cancel()
	_, err := s.StartBattle(ctx)
	if err != nil && !errors.Is(err, service.ErrSetupFailed) && !errors.Is(err, service.ErrSuperseded) {
		logging.Error("background battle start failed", err, logging.Fields{constants.LogFieldSessionID: s.ID()})
	}
}

type selectMoveRequest struct {
	Index *int `json:"index" binding:"required"`
}

// SelectMove plays the player's move. Moves outside the player's turn are
// ignored and answered with the unchanged view.
func (h *Handler) SelectMove(c *gin.Context) {
	var req selectMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	v, err := sessionFrom(c).SelectMove(*req.Index)
	switch {
	case errors.Is(err, engine.ErrInvalidMove):
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidMoveIndex})
	case err != nil:
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrSessionNotFound})
	default:
		c.JSON(http.StatusOK, toResponse(v))
	}
}
