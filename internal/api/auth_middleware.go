package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/ericogr/monster-battle/internal/constants"
	"github.com/ericogr/monster-battle/internal/service"

	"github.com/gin-gonic/gin"
)

const ctxKeySession = "session"

func (h *Handler) setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(constants.CookieSessionName, token, int(h.tokens.ttl.Seconds()), "/", "", h.secureCookie, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetCookie(constants.CookieSessionName, "", -1, "/", "", h.secureCookie, true)
}

// bearerToken reads the session token from the Authorization header, the
// cookie, or the "token" query parameter (browsers cannot set headers on
// EventSource and WebSocket requests).
func bearerToken(c *gin.Context) string {
	if v := c.GetHeader(constants.HeaderAuthorization); strings.HasPrefix(v, constants.BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(v, constants.BearerPrefix))
	}
	if v, err := c.Cookie(constants.CookieSessionName); err == nil && v != "" {
		return v
	}
	return c.Query("token")
}

// SessionRequired validates the session token, checks that it was issued
// for the session named in the path and injects that session.
func (h *Handler) SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrAuthRequired})
			return
		}
		claims, err := h.tokens.parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrInvalidSession})
			return
		}
		id := c.Param(constants.ParamSessionID)
		if claims.Sub != id {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{constants.JSONKeyError: constants.ErrSessionMismatch})
			return
		}
		s, ok := h.sessions.Get(id)
		if !ok {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrSessionNotFound})
			return
		}
		h.refreshToken(c, id, claims)
		c.Set(ctxKeySession, s)
		c.Next()
	}
}

// refreshToken re-issues the token once half of its lifetime is used. The
// new token is sent as a cookie and in the X-Session-Token header.
func (h *Handler) refreshToken(c *gin.Context, sessionID string, claims *sessionClaims) {
	remaining := time.Unix(claims.Exp, 0).Sub(h.tokens.now())
	if remaining > h.tokens.ttl/2 {
		return
	}
	token := h.tokens.create(sessionID)
	h.setSessionCookie(c, token)
	c.Header(constants.HeaderSessionToken, token)
}

func sessionFrom(c *gin.Context) *service.Session {
	return c.MustGet(ctxKeySession).(*service.Session)
}
