package pmx

import "github.com/pkg/errors"

// Signature is the magic PMX files start with.
const Signature = "PMX "

// Header holds the file preamble. Globals is the decoded configuration
// block; RawGlobals keeps the bytes it was decoded from.
type Header struct {
	Signature [4]byte
	Version   float32

	RawGlobals []byte
	Globals    Globals

	NameLocal        string
	NameUniversal    string
	CommentLocal     string
	CommentUniversal string
}

// IsPMX reports whether the signature reads "PMX ".
func (h *Header) IsPMX() bool {
	return string(h.Signature[:]) == Signature
}

func decodeHeader(r *reader) (Header, error) {
	var h Header
	copy(h.Signature[:], r.take(4))
	h.Version = r.f32()
	n := int(r.u8())
	h.RawGlobals = r.bytes(n)
	if r.err != nil {
		return Header{}, errors.WithMessage(r.err, "header")
	}

	g, err := DecodeGlobals(h.RawGlobals)
	if err != nil {
		return Header{}, errors.WithMessage(err, "header globals")
	}
	h.Globals = g

	fields := []struct {
		dst  *string
		name string
	}{
		{&h.NameLocal, "local name"},
		{&h.NameUniversal, "universal name"},
		{&h.CommentLocal, "local comment"},
		{&h.CommentUniversal, "universal comment"},
	}
	for _, f := range fields {
		*f.dst = r.text(g.TextEncoding)
		if r.err != nil {
			return Header{}, errors.WithMessagef(r.err, "header %s", f.name)
		}
	}
	return h, nil
}

// text reads one length-prefixed block and decodes it with enc.
func (r *reader) text(enc TextEncoding) string {
	raw := r.lengthPrefixed()
	if r.err != nil {
		return ""
	}
	s, err := enc.Decode(raw)
	if err != nil {
		r.fail(err)
		return ""
	}
	return s
}
