package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

type decodeFunc func(r *bytes.Reader) (image.Image, error)

var (
	decodePNG  decodeFunc = func(r *bytes.Reader) (image.Image, error) { return png.Decode(r) }
	decodeJPEG decodeFunc = func(r *bytes.Reader) (image.Image, error) { return jpeg.Decode(r) }
	decodeGIF  decodeFunc = func(r *bytes.Reader) (image.Image, error) { return gif.Decode(r) }
	decodeBMP  decodeFunc = func(r *bytes.Reader) (image.Image, error) { return bmp.Decode(r) }
	decodeWebP decodeFunc = func(r *bytes.Reader) (image.Image, error) { return webp.Decode(r) }
	decodeTGA  decodeFunc = func(r *bytes.Reader) (image.Image, error) { return tga.Decode(r) }
)

// Decoders keyed by lower-case extension. Sphere maps (.sph/.spa) are BMP
// files under another name.
var decoders = map[string]decodeFunc{
	".png":  decodePNG,
	".jpg":  decodeJPEG,
	".jpeg": decodeJPEG,
	".gif":  decodeGIF,
	".bmp":  decodeBMP,
	".sph":  decodeBMP,
	".spa":  decodeBMP,
	".webp": decodeWebP,
	".tga":  decodeTGA,
}

// fallbackOrder is tried when the extension lies about the content. TGA
// has no magic number, so it goes last.
var fallbackOrder = []decodeFunc{decodePNG, decodeJPEG, decodeBMP, decodeGIF, decodeWebP, decodeTGA}

// LoadTexture reads an image file referenced by a PMX texture table and
// returns it as NRGBA.
//
// Model packs often ship files whose extension does not match their
// content (PNG data in a .bmp, BMP data in a .png). When the decoder picked
// by extension fails, every other decoder is tried in turn.
func LoadTexture(path string) (*image.NRGBA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	dec, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("texture: unknown extension: %s", ext)
	}
	img, firstErr := dec(bytes.NewReader(raw))
	if firstErr == nil {
		return toNRGBA(img), nil
	}
	for _, alt := range fallbackOrder {
		if img, err := alt(bytes.NewReader(raw)); err == nil {
			return toNRGBA(img), nil
		}
	}
	return nil, fmt.Errorf("texture: decode %s: %w", path, firstErr)
}

// toNRGBA converts any image to NRGBA format with its origin at (0, 0).
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
