package imageutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/ericogr/monster-battle/internal/game"
)

func encodeSolid(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func decodeSize(t *testing.T, b []byte) (int, int) {
	t.Helper()
	cfg, err := png.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestResizePNGBytes(t *testing.T) {
	out, err := ResizePNGBytes(encodeSolid(t, 100, 60), 32, 32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w, h := decodeSize(t, out); w != 32 || h != 32 {
		t.Fatalf("expected 32x32, got %dx%d", w, h)
	}
	if _, err := ResizePNGBytes([]byte("not an image"), 32, 32); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := ResizePNGBytes(encodeSolid(t, 4, 4), 0, 32); err != ErrInvalidSize {
		t.Fatalf("expected ErrInvalidSize, got %v", err)
	}
}

func TestRenderPlaceholder(t *testing.T) {
	for _, e := range []game.ElementType{game.Fire, game.Dragon, "Unknown"} {
		out, err := RenderPlaceholder(e, 64)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", e, err)
		}
		if w, h := decodeSize(t, out); w != 64 || h != 64 {
			t.Fatalf("%s: expected 64x64, got %dx%d", e, w, h)
		}
	}
	if ElementColor("Unknown") != ElementColor(game.Normal) {
		t.Fatalf("unknown element should use the Normal color")
	}
}
