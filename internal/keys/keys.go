package keys

import (
	"strconv"
	"strings"

	"github.com/ericogr/monster-battle/internal/game"

	"github.com/cespare/xxhash/v2"
)

const (
	artPrefix         = "art_"
	placeholderPrefix = "placeholder_"
)

// NormalizeDescription trims, lower-cases and collapses whitespace so that
// cosmetic differences in a description map to the same art.
func NormalizeDescription(description string) string {
	return strings.Join(strings.Fields(strings.ToLower(description)), " ")
}

// ArtKey produces the canonical storage key for a creature description:
// "art_" followed by the hex xxhash64 of the normalized text.
func ArtKey(description string) string {
	n := NormalizeDescription(description)
	if n == "" {
		return ""
	}
	return artPrefix + strconv.FormatUint(xxhash.Sum64String(n), 16)
}

// PlaceholderKey is the key of the fallback art for an element.
func PlaceholderKey(t game.ElementType) string {
	if !t.Valid() {
		t = game.Normal
	}
	return placeholderPrefix + strings.ToLower(string(t))
}

// Valid reports whether key has the shape of an art or placeholder key.
// It guards asset lookups coming from URLs.
func Valid(key string) bool {
	var rest string
	switch {
	case strings.HasPrefix(key, artPrefix):
		rest = key[len(artPrefix):]
		if _, err := strconv.ParseUint(rest, 16, 64); err != nil {
			return false
		}
		return true
	case strings.HasPrefix(key, placeholderPrefix):
		rest = key[len(placeholderPrefix):]
		t, err := game.ParseElementType(rest)
		return err == nil && strings.ToLower(string(t)) == rest
	}
	return false
}
