package art

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ericogr/monster-battle/internal/game"
	"github.com/ericogr/monster-battle/internal/keys"
	"github.com/ericogr/monster-battle/internal/storage"
)

type memRepo struct {
	mu   sync.Mutex
	rows map[string]game.CreatureArt
}

func newMemRepo() *memRepo { return &memRepo{rows: map[string]game.CreatureArt{}} }

func (m *memRepo) GetArtByKey(key string) (*game.CreatureArt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &a, nil
}

func (m *memRepo) SaveArt(a *game.CreatureArt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[a.Key] = *a
	return nil
}

func (m *memRepo) CountArt() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

type fakeGen struct {
	calls int32
	err   error
}

func (g *fakeGen) GenerateCreatureImage(ctx context.Context, description string) ([]byte, error) {
	atomic.AddInt32(&g.calls, 1)
	if g.err != nil {
		return nil, g.err
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 80, 80)))
	return buf.Bytes(), nil
}

func template(desc string) game.CreatureTemplate {
	return game.CreatureTemplate{Name: "Sparky", Type: game.Electric, Description: desc}
}

func TestFetchCreatureArtGeneratesAndCaches(t *testing.T) {
	repo, gen := newMemRepo(), &fakeGen{}
	svc := NewService(repo, gen, 64)

	key := svc.FetchCreatureArt(context.Background(), template("a yellow mouse with red cheeks"))
	if key != keys.ArtKey("a yellow mouse with red cheeks") {
		t.Fatalf("unexpected key %q", key)
	}
	b, err := svc.Load(key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(b))
	if err != nil || cfg.Width != 64 || cfg.Height != 64 {
		t.Fatalf("expected a 64x64 PNG, got %+v (%v)", cfg, err)
	}

	again := svc.FetchCreatureArt(context.Background(), template("A yellow mouse   with red cheeks"))
	if again != key {
		t.Fatalf("expected same key for equivalent description, got %q", again)
	}
	if n := atomic.LoadInt32(&gen.calls); n != 1 {
		t.Fatalf("expected one generation, got %d", n)
	}
}

func TestFetchCreatureArtFallsBackToPlaceholder(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, &fakeGen{err: errors.New("quota exceeded")}, 64)

	key := svc.FetchCreatureArt(context.Background(), template("a yellow mouse"))
	if key != keys.PlaceholderKey(game.Electric) {
		t.Fatalf("expected electric placeholder, got %q", key)
	}
	a, err := repo.GetArtByKey(key)
	if err != nil || !a.Placeholder || len(a.ImagePNG) == 0 {
		t.Fatalf("expected stored placeholder, got %+v (%v)", a, err)
	}
	if _, err := repo.GetArtByKey(keys.ArtKey("a yellow mouse")); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("failed generation must not be cached under the art key")
	}
}

func TestFetchCreatureArtOffline(t *testing.T) {
	svc := NewService(newMemRepo(), nil, 64)
	if key := svc.FetchCreatureArt(context.Background(), template("a yellow mouse")); key != "placeholder_electric" {
		t.Fatalf("expected placeholder without a generator, got %q", key)
	}
}

func TestFetchCreatureArtConcurrentCallsGenerateOnce(t *testing.T) {
	repo, gen := newMemRepo(), &fakeGen{}
	svc := NewService(repo, gen, 32)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.FetchCreatureArt(context.Background(), template("a concurrent dragon"))
		}()
	}
	wg.Wait()
	if n := atomic.LoadInt32(&gen.calls); n != 1 {
		t.Fatalf("expected one generation, got %d", n)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	svc := NewService(newMemRepo(), nil, 32)
	for _, k := range []string{"../etc/passwd", "art_ffff", "placeholder_fire"} {
		if _, err := svc.Load(k); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", k, err)
		}
	}
}
