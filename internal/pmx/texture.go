package pmx

import "github.com/pkg/errors"

// decodeTextures reads the texture path table. Materials refer to entries
// by position.
func decodeTextures(r *reader, g Globals) ([]string, error) {
	n := r.count("texture")
	paths := make([]string, 0, r.capacity(n, 4))
	for i := 0; i < n && r.err == nil; i++ {
		p := r.text(g.TextEncoding)
		if r.err != nil {
			return nil, errors.WithMessagef(r.err, "texture %d", i)
		}
		paths = append(paths, p)
	}
	if r.err != nil {
		return nil, errors.WithMessage(r.err, "textures")
	}
	return paths, nil
}
