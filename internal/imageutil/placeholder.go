package imageutil

import (
	"bytes"
	"image/color"
	"strings"

	"github.com/ericogr/monster-battle/internal/game"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

var elementColors = map[game.ElementType]color.RGBA{
	game.Fire:     {R: 0xef, G: 0x44, B: 0x44, A: 0xff},
	game.Water:    {R: 0x3b, G: 0x82, B: 0xf6, A: 0xff},
	game.Grass:    {R: 0x22, G: 0xc5, B: 0x5e, A: 0xff},
	game.Electric: {R: 0xea, G: 0xb3, B: 0x08, A: 0xff},
	game.Normal:   {R: 0x9c, G: 0xa3, B: 0xaf, A: 0xff},
	game.Psychic:  {R: 0xec, G: 0x48, B: 0x99, A: 0xff},
	game.Fighting: {R: 0xc2, G: 0x41, B: 0x0c, A: 0xff},
	game.Dark:     {R: 0x37, G: 0x41, B: 0x51, A: 0xff},
	game.Dragon:   {R: 0x6d, G: 0x28, B: 0xd9, A: 0xff},
	game.Steel:    {R: 0x64, G: 0x74, B: 0x8b, A: 0xff},
	game.Fairy:    {R: 0xf9, G: 0xa8, B: 0xd4, A: 0xff},
}

// ElementColor returns the display color of an element. Unknown elements
// use the Normal color.
func ElementColor(t game.ElementType) color.RGBA {
	if c, ok := elementColors[t]; ok {
		return c
	}
	return elementColors[game.Normal]
}

// RenderPlaceholder draws the fallback art used when generation fails: a
// translucent halo and a solid disc in the element color, labelled with the
// element name. The background stays transparent.
func RenderPlaceholder(t game.ElementType, size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	c := ElementColor(t)
	s := float64(size)
	cx, cy := s/2, s/2

	dc := gg.NewContext(size, size)
	dc.SetRGBA255(int(c.R), int(c.G), int(c.B), 70)
	dc.DrawCircle(cx, cy, s*0.46)
	dc.Fill()
	dc.SetColor(c)
	dc.DrawCircle(cx, cy, s*0.34)
	dc.Fill()

	label := strings.ToUpper(string(t))
	if !t.Valid() {
		label = "?"
	}
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetRGB(1, 1, 1)
	dc.Push()
	scale := s / 128
	dc.ScaleAbout(scale, scale, cx, cy)
	dc.DrawStringAnchored(label, cx, cy, 0.5, 0.35)
	dc.Pop()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
