package postprocess

import (
	"image"
	"image/color"
)

// Flatten composites img over an opaque background colour in place and
// returns it. Previews meant for pages without transparency use white.
func Flatten(img *image.NRGBA, bg color.NRGBA) *image.NRGBA {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			a := float64(img.Pix[i+3]) / 255.0
			img.Pix[i] = clamp8(float64(img.Pix[i])*a + float64(bg.R)*(1-a))
			img.Pix[i+1] = clamp8(float64(img.Pix[i+1])*a + float64(bg.G)*(1-a))
			img.Pix[i+2] = clamp8(float64(img.Pix[i+2])*a + float64(bg.B)*(1-a))
			img.Pix[i+3] = 255
		}
	}
	return img
}
