package pmx

import "github.com/pkg/errors"

// Surface is one triangle. Indices are always unsigned, whatever the
// vertex index width.
type Surface [3]uint32

func decodeSurfaces(r *reader, g Globals) ([]Surface, error) {
	n := r.count("surface index")
	if r.err != nil {
		return nil, errors.WithMessage(r.err, "surfaces")
	}
	if n%3 != 0 {
		return nil, errors.Wrapf(ErrStructuralInconsistency, "surface index count %d is not a multiple of 3", n)
	}

	tris := n / 3
	surfaces := make([]Surface, 0, r.capacity(tris, 3*int(g.VertexIndexSize)))
	for i := 0; i < tris && r.err == nil; i++ {
		surfaces = append(surfaces, Surface{
			r.unsigned(g.VertexIndexSize),
			r.unsigned(g.VertexIndexSize),
			r.unsigned(g.VertexIndexSize),
		})
	}
	if r.err != nil {
		return nil, errors.WithMessage(r.err, "surfaces")
	}
	return surfaces, nil
}
