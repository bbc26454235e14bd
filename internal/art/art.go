// Package art resolves creature art handles. Art is looked up in the
// storage cache, generated on a miss and replaced by a rendered placeholder
// whenever anything goes wrong, so a battle never waits on or fails because
// of art.
package art

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ericogr/monster-battle/internal/constants"
	"github.com/ericogr/monster-battle/internal/dedupe"
	"github.com/ericogr/monster-battle/internal/game"
	"github.com/ericogr/monster-battle/internal/imageutil"
	"github.com/ericogr/monster-battle/internal/keys"
	"github.com/ericogr/monster-battle/internal/logging"
	"github.com/ericogr/monster-battle/internal/storage"
)

// ImageGenerator produces raw image bytes for a visual description.
type ImageGenerator interface {
	GenerateCreatureImage(ctx context.Context, description string) ([]byte, error)
}

type Service struct {
	repo    storage.Repository
	gen     ImageGenerator
	size    int
	timeout time.Duration
}

// NewService builds the art service. A nil generator means offline mode:
// every creature gets its element placeholder.
func NewService(repo storage.Repository, gen ImageGenerator, size int) *Service {
	if size <= 0 {
		size = constants.DefaultArtSize
	}
	return &Service{repo: repo, gen: gen, size: size, timeout: constants.DefaultRequestTimeout}
}

// FetchCreatureArt returns the art handle (storage key) for a creature. It
// never fails: the empty handle means no art could be produced at all.
func (s *Service) FetchCreatureArt(ctx context.Context, t game.CreatureTemplate) string {
	key := keys.ArtKey(t.Description)
	if key == "" || s.gen == nil {
		return s.placeholder(t)
	}
	if a, err := s.repo.GetArtByKey(key); err == nil && !a.Placeholder && len(a.ImagePNG) > 0 {
		logging.Info("art cache hit", logging.Ctx(ctx, logging.Fields{constants.LogFieldKey: key, constants.LogFieldName: t.Name}))
		return key
	}

	ch := dedupe.ArtGroup.DoChan(key, func() (interface{}, error) {
		// Another flight may have stored the art since the first lookup.
		if a, err := s.repo.GetArtByKey(key); err == nil && !a.Placeholder && len(a.ImagePNG) > 0 {
			return key, nil
		}
		gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		if err := s.generate(gctx, key, t.Description); err != nil {
			return nil, err
		}
		return key, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			logging.Warn("art generation failed, using placeholder", r.Err, logging.Ctx(ctx, logging.Fields{constants.LogFieldKey: key, constants.LogFieldName: t.Name}))
			return s.placeholder(t)
		}
		return key
	case <-ctx.Done():
		logging.Warn("art generation abandoned", ctx.Err(), logging.Ctx(ctx, logging.Fields{constants.LogFieldKey: key}))
		return s.placeholder(t)
	}
}

func (s *Service) generate(ctx context.Context, key, description string) error {
	logging.Info("generating creature art", logging.Ctx(ctx, logging.Fields{constants.LogFieldKey: key}))
	raw, err := s.gen.GenerateCreatureImage(ctx, description)
	if err != nil {
		return err
	}
	out, err := imageutil.ResizePNGBytes(raw, s.size, s.size)
	if err != nil {
		return fmt.Errorf("resize art: %w", err)
	}
	if err := s.repo.SaveArt(&game.CreatureArt{Key: key, Description: keys.NormalizeDescription(description), ImagePNG: out}); err != nil {
		return fmt.Errorf("save art: %w", err)
	}
	logging.Info("creature art generated and saved", logging.Ctx(ctx, logging.Fields{constants.LogFieldKey: key, "size_bytes": len(out)}))
	return nil
}

// placeholder returns the element placeholder, rendering and storing it on
// first use.
func (s *Service) placeholder(t game.CreatureTemplate) string {
	key := keys.PlaceholderKey(t.Type)
	if a, err := s.repo.GetArtByKey(key); err == nil && len(a.ImagePNG) > 0 {
		return key
	}
	png, err := imageutil.RenderPlaceholder(t.Type, s.size)
	if err != nil {
		logging.Error("failed to render placeholder art", err, logging.Fields{constants.LogFieldKey: key})
		return ""
	}
	if err := s.repo.SaveArt(&game.CreatureArt{Key: key, Placeholder: true, ImagePNG: png}); err != nil {
		logging.Error("failed to save placeholder art", err, logging.Fields{constants.LogFieldKey: key})
		return ""
	}
	return key
}

// ErrNotFound is returned by Load for unknown or malformed keys.
var ErrNotFound = errors.New("art not found")

// Load returns the PNG stored under an art handle.
func (s *Service) Load(key string) ([]byte, error) {
	if !keys.Valid(key) {
		return nil, ErrNotFound
	}
	a, err := s.repo.GetArtByKey(key)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && len(a.ImagePNG) == 0) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a.ImagePNG, nil
}
