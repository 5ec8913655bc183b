package raster

import (
	"image"
	"math"
)

// Surface is the per-submesh state shared by all of its triangles.
type Surface struct {
	Tex  *image.NRGBA // nil draws the tint alone
	Tint [4]float64   // material diffuse, multiplied into every texel
	// DoubleSided disables back-face culling.
	DoubleSided bool
}

// RasterizeTriangle rasterizes a single triangle with texture mapping, z-buffer,
// sRGB color space, lighting, and ACES tone mapping. shade is the lighting
// scalar for the face, usually LightConfig.ComputeShade of its normal.
//
// This is the HOT PATH: no allocation in the inner loop.
func RasterizeTriangle(
	fb *FrameBuffer,
	px, py, pz []float64,
	uvs [][2]float32,
	idx [3]int,
	s *Surface,
	shade float64,
	lc *LightConfig,
) {
	nv := len(px)
	for _, i := range idx {
		if i < 0 || i >= nv {
			return
		}
	}

	x0, y0, z0 := px[idx[0]], py[idx[0]], pz[idx[0]]
	x1, y1, z1 := px[idx[1]], py[idx[1]], pz[idx[1]]
	x2, y2, z2 := px[idx[2]], py[idx[2]], pz[idx[2]]

	// Screen space has Y down, so PMX front faces (clockwise in a Y-up
	// view) have positive signed area here.
	area := (x1-x0)*(y2-y0) - (x2-x0)*(y1-y0)
	if area > -1e-8 && area < 1e-8 {
		return
	}
	if area < 0 && !s.DoubleSided {
		return
	}

	hasUV := s.Tex != nil && len(uvs) == nv
	var u0, v0uv, u1, v1uv, u2, v2uv float64
	if hasUV {
		u0, v0uv = float64(uvs[idx[0]][0]), float64(uvs[idx[0]][1])
		u1, v1uv = float64(uvs[idx[1]][0]), float64(uvs[idx[1]][1])
		u2, v2uv = float64(uvs[idx[2]][0]), float64(uvs[idx[2]][1])
	}

	// Bounding box
	size := fb.Width
	minX := int(math.Floor(math.Min(math.Min(x0, x1), x2)))
	maxX := int(math.Ceil(math.Max(math.Max(x0, x1), x2)))
	minY := int(math.Floor(math.Min(math.Min(y0, y1), y2)))
	maxY := int(math.Ceil(math.Max(math.Max(y0, y1), y2)))

	if minX < 0 {
		minX = 0
	}
	if maxX >= size {
		maxX = size - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= fb.Height {
		maxY = fb.Height - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	invDet := 1.0 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	gain := shade * lc.Exposure
	invGamma := lc.InvGamma
	tr, tg, tb, ta := s.Tint[0], s.Tint[1], s.Tint[2], s.Tint[3]

	// Untextured faces have one colour; tone-map it once.
	var flat [4]uint8
	if !hasUV {
		flat = toneMap(255, 255, 255, 255, tr, tg, tb, ta, gain, invGamma)
	}

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		rowOff := sy * size
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}

			c := flat
			if hasUV {
				u := w0*u0 + w1*u1 + w2*u2
				v := w0*v0uv + w1*v1uv + w2*v2uv
				cr, cg, cb, ca := SampleTexture(s.Tex, u, v)
				c = toneMap(cr, cg, cb, ca, tr, tg, tb, ta, gain, invGamma)
			}

			// Skip transparent texels
			if c[3] < 8 {
				continue
			}
			fb.ZBuf[zIdx] = z

			pxIdx := zIdx * 4
			fb.Color[pxIdx] = c[0]
			fb.Color[pxIdx+1] = c[1]
			fb.Color[pxIdx+2] = c[2]
			fb.Color[pxIdx+3] = c[3]
		}
	}
}

// toneMap tints an sRGB texel, lights it in linear space and maps it back.
func toneMap(cr, cg, cb, ca uint8, tr, tg, tb, ta, gain, invGamma float64) [4]uint8 {
	lr := srgbToLinear[cr] * tr * gain
	lg := srgbToLinear[cg] * tg * gain
	lb := srgbToLinear[cb] * tb * gain

	return [4]uint8{
		clamp255(math.Pow(ACESTonemap(lr), invGamma) * 255),
		clamp255(math.Pow(ACESTonemap(lg), invGamma) * 255),
		clamp255(math.Pow(ACESTonemap(lb), invGamma) * 255),
		clamp255(float64(ca) * ta),
	}
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
