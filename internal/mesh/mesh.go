// Package mesh flattens a decoded PMX model into the arrays a renderer
// consumes: one vertex buffer, one triangle index buffer and a submesh
// range per material.
package mesh

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chewxy/math32"

	"pmx-renderer/internal/pmx"
)

// Vertex is the renderable part of a PMX vertex.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
}

// Submesh is the index range [Start, End) drawn with one material.
type Submesh struct {
	Start uint32
	End   uint32

	Material    int    // index into pmx.Model.Materials
	Name        string // material local name
	Diffuse     [4]float32
	Texture     string // resolved path, "" when the material has none
	DoubleSided bool
}

// Mesh holds parsed geometry ready for upload or rasterization.
type Mesh struct {
	Vertices  []Vertex
	Indices   []uint32
	Submeshes []Submesh
}

// Build converts m. Texture table entries are joined onto baseDir, which
// is normally the directory the .pmx file was loaded from.
func Build(m *pmx.Model, baseDir string) (*Mesh, error) {
	out := &Mesh{
		Vertices:  make([]Vertex, len(m.Vertices)),
		Indices:   make([]uint32, 0, m.IndexCount()),
		Submeshes: make([]Submesh, len(m.Materials)),
	}

	for i, v := range m.Vertices {
		out.Vertices[i] = Vertex{Position: v.Position, Normal: v.Normal, UV: v.UV}
	}
	for _, s := range m.Surfaces {
		out.Indices = append(out.Indices, s[0], s[1], s[2])
	}

	if len(m.Submeshes) != len(m.Materials) {
		return nil, fmt.Errorf("mesh: %d submesh ranges for %d materials", len(m.Submeshes), len(m.Materials))
	}
	for i, mat := range m.Materials {
		r := m.Submeshes[i]
		sm := Submesh{
			Start:       uint32(r.Start),
			End:         uint32(r.End),
			Material:    i,
			Name:        mat.NameLocal,
			Diffuse:     mat.Diffuse,
			DoubleSided: mat.Flags.Has(pmx.FlagDoubleSided),
		}
		if mat.TextureIndex != pmx.NoTexture {
			p, ok := m.Texture(mat.TextureIndex)
			if !ok {
				return nil, fmt.Errorf("mesh: material %d (%s) texture index %d out of %d", i, mat.NameLocal, mat.TextureIndex, len(m.Textures))
			}
			sm.Texture = ResolveTexturePath(baseDir, p)
		}
		out.Submeshes[i] = sm
	}
	return out, nil
}

// ResolveTexturePath joins a texture table entry onto baseDir. PMX files
// written on Windows use backslashes; both separators are accepted.
func ResolveTexturePath(baseDir, texPath string) string {
	p := filepath.FromSlash(strings.ReplaceAll(texPath, "\\", "/"))
	if filepath.IsAbs(p) || baseDir == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(baseDir, p)
}

// Bounds returns the axis-aligned bounding box of all vertex positions.
// An empty mesh has zero bounds.
func (m *Mesh) Bounds() (bmin, bmax [3]float32) {
	if len(m.Vertices) == 0 {
		return bmin, bmax
	}
	bmin = [3]float32{math32.Inf(1), math32.Inf(1), math32.Inf(1)}
	bmax = [3]float32{math32.Inf(-1), math32.Inf(-1), math32.Inf(-1)}
	for _, v := range m.Vertices {
		for k := 0; k < 3; k++ {
			bmin[k] = math32.Min(bmin[k], v.Position[k])
			bmax[k] = math32.Max(bmax[k], v.Position[k])
		}
	}
	return bmin, bmax
}

// NormalizeNormals rescales every normal to unit length. Degenerate
// normals are left as they are.
func (m *Mesh) NormalizeNormals() {
	for i := range m.Vertices {
		n := &m.Vertices[i].Normal
		l := math32.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
		if l < 1e-6 {
			continue
		}
		n[0] /= l
		n[1] /= l
		n[2] /= l
	}
}

// Triangles returns the number of triangles in s.
func (s Submesh) Triangles() int {
	return int(s.End-s.Start) / 3
}
