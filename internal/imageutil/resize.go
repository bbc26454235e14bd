package imageutil

import (
	"bytes"
	"errors"

	"github.com/disintegration/imaging"
)

// ErrInvalidSize is returned for non-positive target dimensions.
var ErrInvalidSize = errors.New("invalid target size")

// ResizePNGBytes decodes an image (PNG, JPEG or GIF), scales and crops it to
// exactly dstW x dstH around the center, and returns PNG bytes.
func ResizePNGBytes(src []byte, dstW, dstH int) ([]byte, error) {
	if dstW <= 0 || dstH <= 0 {
		return nil, ErrInvalidSize
	}
	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, errors.New("source image has zero size")
	}
	out := imaging.Fill(img, dstW, dstH, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
