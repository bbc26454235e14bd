package storage

import (
	"errors"

	"github.com/ericogr/monster-battle/internal/game"
)

// ErrNotFound is returned when no art is stored under a key.
var ErrNotFound = errors.New("art not found")

// Repository is the art cache. Battles are never persisted.
type Repository interface {
	// GetArtByKey returns the stored art or ErrNotFound.
	GetArtByKey(key string) (*game.CreatureArt, error)
	// SaveArt inserts or replaces the art stored under art.Key.
	SaveArt(art *game.CreatureArt) error
	CountArt() (int64, error)
}
