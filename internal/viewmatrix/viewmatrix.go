package viewmatrix

import (
	"math"

	"pmx-renderer/internal/mathutil"
	"pmx-renderer/internal/mesh"
)

// View builds the preview camera rotation. yaw turns the model about its
// vertical axis; positive pitch tilts its top away from the camera, so a
// small negative pitch looks slightly down on the model. Both in degrees.
func View(yaw, pitch float64) mathutil.Mat3 {
	ry := mathutil.RotY(mathutil.Deg2Rad(yaw))
	rx := mathutil.RotX(mathutil.Deg2Rad(-pitch))
	return rx.Mul(mathutil.FrontView).Mul(ry)
}

// Frame describes how rotated model space maps onto the square render
// target.
type Frame struct {
	Center [3]float64 // bounding-box centre after rotation
	Scale  float64    // pixels per model unit
	Size   int        // render target edge in pixels

	// FOV is the vertical field of view in degrees; 0 projects
	// orthographically.
	FOV      float64
	camDist  float64
	zCenter  float64
	hasDepth bool
}

// Fit centres the rotated vertices in a size×size target, leaving margin
// pixels on each side. An empty vertex list gives a frame that maps the
// origin to the centre of the target.
func Fit(verts []mesh.Vertex, R mathutil.Mat3, size, margin int, fov float64) Frame {
	f := Frame{Size: size, FOV: fov, Scale: 1}
	if len(verts) == 0 {
		return f
	}

	lo := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for i := range verts {
		t := R.MulVec3(mathutil.V32(verts[i].Position))
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], t[k])
			hi[k] = math.Max(hi[k], t[k])
		}
	}
	for k := 0; k < 3; k++ {
		f.Center[k] = (lo[k] + hi[k]) / 2
	}

	span := math.Max(hi[0]-lo[0], hi[1]-lo[1])
	if span < 0.001 {
		span = 0.001
	}

	if fov > 0 {
		// Camera distance that makes the xy half-extent fill the FOV.
		half := span / 2
		f.camDist = half / math.Tan(mathutil.Deg2Rad(fov/2))
		f.zCenter = f.Center[2]
		f.hasDepth = true
		// Near geometry is magnified; shrink so the front face still fits.
		nearest := math.Max(f.camDist-(hi[2]-f.zCenter), 0.1)
		span *= f.camDist / nearest
	}

	f.Scale = float64(size-2*margin) / span
	return f
}

// ProjectVertices transforms vertices to screen coordinates.
// Returns px, py, pz slices (screen X, screen Y, depth toward the viewer).
func ProjectVertices(verts []mesh.Vertex, R mathutil.Mat3, f Frame) ([]float64, []float64, []float64) {
	n := len(verts)
	px := make([]float64, n)
	py := make([]float64, n)
	pz := make([]float64, n)

	half := float64(f.Size) / 2

	for i := range verts {
		t := R.MulVec3(mathutil.V32(verts[i].Position))
		x := t[0] - f.Center[0]
		y := t[1] - f.Center[1]

		if f.hasDepth {
			zOff := t[2] - f.zCenter
			depth := math.Max(f.camDist-zOff, 0.1)
			factor := f.camDist / depth
			x *= factor
			y *= factor
		}

		px[i] = x*f.Scale + half
		py[i] = -y*f.Scale + half
		pz[i] = t[2]
	}

	return px, py, pz
}
