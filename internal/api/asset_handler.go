package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ericogr/monster-battle/internal/art"
	"github.com/ericogr/monster-battle/internal/constants"
	"github.com/ericogr/monster-battle/internal/logging"

	"github.com/gin-gonic/gin"
)

// ServeArtAsset serves stored creature art. URL format:
// /api/assets/art/<key>.png
func (h *Handler) ServeArtAsset(c *gin.Context) {
	key := strings.TrimSuffix(c.Param(constants.ParamKey), ".png")
	img, err := h.art.Load(key)
	if errors.Is(err, art.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrAssetNotFound})
		return
	}
	if err != nil {
		logging.Error("failed to load art", err, logging.Fields{constants.LogFieldKey: key})
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedLoadAsset})
		return
	}
	// Keys are content-derived, so a stored image never changes.
	c.Header(constants.CacheControlHeader, constants.CacheControlImmutable)
	c.Data(http.StatusOK, constants.ContentTypePNG, img)
}
