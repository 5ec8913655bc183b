// Package pmx decodes PMX model files into vertices, triangles, the texture
// path table and materials. It works on a buffer that is already in memory
// and keeps no package-level state, so independent buffers can be parsed
// concurrently.
package pmx

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// Submesh is the half-open range [Start, End) of the flat index array
// (three entries per Surface) that one material draws.
type Submesh struct {
	Start int
	End   int
}

// Len returns the number of flat indices in the range.
func (s Submesh) Len() int {
	return s.End - s.Start
}

// Model is a decoded PMX file. Submeshes has one entry per material, in
// material order, and the ranges tile [0, 3*len(Surfaces)) exactly.
type Model struct {
	Header    Header
	Globals   Globals
	Vertices  []Vertex
	Surfaces  []Surface
	Textures  []string
	Materials []Material
	Submeshes []Submesh
}

// IndexCount returns the length of the flat index array.
func (m *Model) IndexCount() int {
	return 3 * len(m.Surfaces)
}

// Texture returns the texture table entry for idx, or "" and false when
// idx is NoTexture or out of range.
func (m *Model) Texture(idx int32) (string, bool) {
	if idx < 0 || int(idx) >= len(m.Textures) {
		return "", false
	}
	return m.Textures[idx], true
}

// Parse decodes a whole PMX buffer. Sections are read in file order over
// one cursor; the first failure aborts the parse and no partial model is
// returned.
func Parse(data []byte) (*Model, error) {
	r := newReader(data)

	header, err := decodeHeader(r)
	if err != nil {
		return nil, err
	}
	g := header.Globals

	m := &Model{Header: header, Globals: g}
	if m.Vertices, err = decodeVertices(r, g); err != nil {
		return nil, err
	}
	if m.Surfaces, err = decodeSurfaces(r, g); err != nil {
		return nil, err
	}
	if m.Textures, err = decodeTextures(r, g); err != nil {
		return nil, err
	}
	if m.Materials, err = decodeMaterials(r, g); err != nil {
		return nil, err
	}
	if m.Submeshes, err = deriveSubmeshes(m.Materials, len(m.Surfaces)); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseFile reads path and decodes it with Parse.
func ParseFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pmx: read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return m, nil
}

// deriveSubmeshes walks materials in order and assigns each one the next
// SurfaceCount flat indices.
func deriveSubmeshes(materials []Material, surfaces int) ([]Submesh, error) {
	total := 3 * surfaces
	out := make([]Submesh, len(materials))
	offset := 0
	for i, mat := range materials {
		n := int(mat.SurfaceCount)
		if n%3 != 0 {
			return nil, errors.Wrapf(ErrStructuralInconsistency, "material %d surface count %d is not a multiple of 3", i, n)
		}
		if n > total-offset {
			return nil, errors.Wrapf(ErrStructuralInconsistency, "material %d range [%d, %d) exceeds %d indices", i, offset, offset+n, total)
		}
		out[i] = Submesh{Start: offset, End: offset + n}
		offset += n
	}
	if offset != total {
		return nil, errors.Wrapf(ErrStructuralInconsistency, "materials cover %d of %d indices", offset, total)
	}
	return out, nil
}
