package raster

import (
	"image"

	"pmx-renderer/internal/mathutil"
	"pmx-renderer/internal/mesh"
	"pmx-renderer/internal/texture"
	"pmx-renderer/internal/viewmatrix"
)

// Options controls a preview render.
type Options struct {
	Size        int     // output edge in pixels before downsampling
	Supersample int     // render at Size*Supersample
	Yaw         float64 // degrees, see viewmatrix.View
	Pitch       float64
	FOV         float64 // degrees; 0 is orthographic
}

// RenderMesh renders every submesh of m in material order and returns the
// supersampled image (Size*Supersample square). Submeshes with zero
// diffuse alpha are hidden helpers (shadows, morph targets) and are
// skipped. texResolver may be nil.
func RenderMesh(m *mesh.Mesh, texResolver texture.Resolver, opts Options) *image.NRGBA {
	if opts.Supersample < 1 {
		opts.Supersample = 1
	}
	renderSize := opts.Size * opts.Supersample
	fb := NewFrameBuffer(renderSize, renderSize)
	if len(m.Vertices) == 0 || len(m.Submeshes) == 0 {
		return fb.Image()
	}

	R := viewmatrix.View(opts.Yaw, opts.Pitch)
	// 16px border at the default 512px output.
	frame := viewmatrix.Fit(m.Vertices, R, renderSize, renderSize/32, opts.FOV)
	px, py, pz := viewmatrix.ProjectVertices(m.Vertices, R, frame)

	uvs := make([][2]float32, len(m.Vertices))
	normals := make([]mathutil.Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		uvs[i] = v.UV
		normals[i] = R.MulVec3(mathutil.V32(v.Normal))
	}

	lc := DefaultLightConfig()

	for _, sm := range m.Submeshes {
		if sm.Diffuse[3] == 0 {
			continue
		}

		s := Surface{
			Tint: [4]float64{
				float64(sm.Diffuse[0]), float64(sm.Diffuse[1]),
				float64(sm.Diffuse[2]), float64(sm.Diffuse[3]),
			},
			DoubleSided: sm.DoubleSided,
		}
		if texResolver != nil && sm.Texture != "" {
			s.Tex = texResolver.Resolve(sm.Texture)
		}
		if s.Tex != nil {
			// Textured PMX materials usually carry white diffuse; a
			// near-black one would hide the texture entirely.
			s.Tint = textureTint(s.Tint)
		}

		end := int(sm.End)
		if end > len(m.Indices) {
			end = len(m.Indices)
		}
		for i := int(sm.Start); i+2 < end; i += 3 {
			idx := [3]int{int(m.Indices[i]), int(m.Indices[i+1]), int(m.Indices[i+2])}
			n := faceNormal(normals, px, py, pz, idx)
			RasterizeTriangle(fb, px, py, pz, uvs, idx, &s, lc.ComputeShade(n), &lc)
		}
	}

	return fb.Image()
}

// textureTint keeps the hue of the diffuse color but stops it from
// darkening a texture below a quarter of its brightness.
func textureTint(t [4]float64) [4]float64 {
	for k := 0; k < 3; k++ {
		if t[k] < 0.25 {
			t[k] = 0.25
		}
	}
	return t
}

// faceNormal averages the vertex normals of a triangle. Models without
// usable normals fall back to the geometric normal of the projected face.
func faceNormal(normals []mathutil.Vec3, px, py, pz []float64, idx [3]int) mathutil.Vec3 {
	for _, i := range idx {
		if i < 0 || i >= len(normals) {
			return mathutil.Vec3{0, 0, 1}
		}
	}
	n := normals[idx[0]].Add(normals[idx[1]]).Add(normals[idx[2]]).Normalize()
	if n != (mathutil.Vec3{}) {
		return n
	}

	e1 := mathutil.Vec3{px[idx[1]] - px[idx[0]], py[idx[0]] - py[idx[1]], pz[idx[1]] - pz[idx[0]]}
	e2 := mathutil.Vec3{px[idx[2]] - px[idx[0]], py[idx[0]] - py[idx[2]], pz[idx[2]] - pz[idx[0]]}
	g := mathutil.Vec3{
		e1[1]*e2[2] - e1[2]*e2[1],
		e1[2]*e2[0] - e1[0]*e2[2],
		e1[0]*e2[1] - e1[1]*e2[0],
	}.Normalize()
	if g == (mathutil.Vec3{}) {
		return mathutil.Vec3{0, 0, 1}
	}
	return g
}
