package pmx

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// TextEncoding selects how length-prefixed text blocks are decoded.
type TextEncoding uint8

const (
	UTF16LE TextEncoding = 0
	UTF8    TextEncoding = 1
)

func (e TextEncoding) String() string {
	switch e {
	case UTF16LE:
		return "UTF-16LE"
	case UTF8:
		return "UTF-8"
	}
	return fmt.Sprintf("TextEncoding(%d)", uint8(e))
}

// Decode converts a raw text block to a Go string.
func (e TextEncoding) Decode(raw []byte) (string, error) {
	switch e {
	case UTF8:
		if !utf8.Valid(raw) {
			return "", errors.Wrap(ErrTextDecode, "invalid UTF-8 sequence")
		}
		return string(raw), nil
	case UTF16LE:
		return decodeUTF16LE(raw)
	}
	return "", errors.Wrapf(ErrInvalidEnumValue, "text encoding %d", uint8(e))
}

// decodeUTF16LE rejects odd byte lengths and unpaired surrogates instead of
// substituting U+FFFD.
func decodeUTF16LE(raw []byte) (string, error) {
	if len(raw)%2 != 0 {
		return "", errors.Wrapf(ErrTextDecode, "odd UTF-16 byte length %d", len(raw))
	}
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
	}
	for i := 0; i < len(units); i++ {
		u := units[i]
		if !utf16.IsSurrogate(rune(u)) {
			continue
		}
		if u >= 0xDC00 || i+1 == len(units) || units[i+1] < 0xDC00 || units[i+1] > 0xDFFF {
			return "", errors.Wrapf(ErrTextDecode, "unpaired surrogate 0x%04X at unit %d", u, i)
		}
		i++
	}
	return string(utf16.Decode(units)), nil
}

// IndexSize is the byte width of one index category: 1, 2 or 4.
type IndexSize uint8

const (
	IndexSize1 IndexSize = 1
	IndexSize2 IndexSize = 2
	IndexSize4 IndexSize = 4
)

func parseIndexSize(v uint8, slot string) (IndexSize, error) {
	switch IndexSize(v) {
	case IndexSize1, IndexSize2, IndexSize4:
		return IndexSize(v), nil
	}
	return 0, errors.Wrapf(ErrInvalidEnumValue, "%s %d, want 1, 2 or 4", slot, v)
}

// MaxAdditionalVec4 is the largest additional_vec4_count PMX 2.x allows.
const MaxAdditionalVec4 = 4

// Globals is the self-describing configuration block of a PMX file.
// It is fixed once decoded and passed by value to every section decoder.
type Globals struct {
	TextEncoding        TextEncoding
	AdditionalVec4Count uint8
	VertexIndexSize     IndexSize
	TextureIndexSize    IndexSize
	MaterialIndexSize   IndexSize
	BoneIndexSize       IndexSize
	MorphIndexSize      IndexSize
	RigidBodyIndexSize  IndexSize
}

// GlobalsSlots is the number of globals slots PMX 2.x defines.
const GlobalsSlots = 8

// DefaultGlobals is what a file with an empty globals block decodes to.
func DefaultGlobals() Globals {
	return Globals{
		TextEncoding:        UTF8,
		AdditionalVec4Count: 0,
		VertexIndexSize:     IndexSize4,
		TextureIndexSize:    IndexSize4,
		MaterialIndexSize:   IndexSize4,
		BoneIndexSize:       IndexSize4,
		MorphIndexSize:      IndexSize4,
		RigidBodyIndexSize:  IndexSize4,
	}
}

// DecodeGlobals fills the globals slots positionally from raw. Slots past
// len(raw) keep DefaultGlobals values; bytes past the eighth slot are ignored.
func DecodeGlobals(raw []byte) (Globals, error) {
	g := DefaultGlobals()
	sizes := []struct {
		dst  *IndexSize
		name string
	}{
		{&g.VertexIndexSize, "vertex index size"},
		{&g.TextureIndexSize, "texture index size"},
		{&g.MaterialIndexSize, "material index size"},
		{&g.BoneIndexSize, "bone index size"},
		{&g.MorphIndexSize, "morph index size"},
		{&g.RigidBodyIndexSize, "rigid body index size"},
	}

	for i, v := range raw {
		switch {
		case i == 0:
			switch TextEncoding(v) {
			case UTF16LE, UTF8:
				g.TextEncoding = TextEncoding(v)
			default:
				return Globals{}, errors.Wrapf(ErrInvalidEnumValue, "text encoding %d", v)
			}
		case i == 1:
			if v > MaxAdditionalVec4 {
				return Globals{}, errors.Wrapf(ErrInvalidEnumValue, "additional vec4 count %d, want 0..%d", v, MaxAdditionalVec4)
			}
			g.AdditionalVec4Count = v
		case i < GlobalsSlots:
			s := sizes[i-2]
			size, err := parseIndexSize(v, s.name)
			if err != nil {
				return Globals{}, err
			}
			*s.dst = size
		}
	}
	return g, nil
}
