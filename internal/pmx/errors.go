package pmx

import "github.com/pkg/errors"

// Decode failures. Every error Parse returns wraps exactly one of these, so
// callers can branch with errors.Is.
var (
	// ErrUnexpectedEOF means a read would run past the end of the buffer.
	ErrUnexpectedEOF = errors.New("pmx: unexpected end of data")

	// ErrInvalidEnumValue means a discriminant byte (text encoding, index
	// width, weight deform, blend mode, toon reference) has no mapping.
	ErrInvalidEnumValue = errors.New("pmx: invalid enum value")

	// ErrTextDecode means a text block is not valid UTF-8 or UTF-16LE.
	ErrTextDecode = errors.New("pmx: text decode error")

	// ErrStructuralInconsistency means counts or lengths in the file disagree
	// with each other, e.g. material surface counts do not cover the index array.
	ErrStructuralInconsistency = errors.New("pmx: structural inconsistency")
)
