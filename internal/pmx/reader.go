package pmx

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// reader walks a little-endian byte buffer. The first failure sticks: once
// err is set every read returns a zero value and leaves off untouched, so
// callers only need to check err at loop boundaries.
type reader struct {
	data []byte
	off  int
	err  error
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

// fail records err unless an earlier failure is already recorded.
func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

// take returns the next n bytes and advances the cursor.
func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.remaining() {
		r.fail(errors.Wrapf(ErrUnexpectedEOF, "need %d bytes at offset %d, %d left", n, r.off, r.remaining()))
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) i8() int8 {
	return int8(r.u8())
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) i16() int16 {
	return int16(r.u16())
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) i32() int32 {
	return int32(r.u32())
}

func (r *reader) f32() float32 {
	return math.Float32frombits(r.u32())
}

func (r *reader) vec2() [2]float32 {
	return [2]float32{r.f32(), r.f32()}
}

func (r *reader) vec3() [3]float32 {
	return [3]float32{r.f32(), r.f32(), r.f32()}
}

func (r *reader) vec4() [4]float32 {
	return [4]float32{r.f32(), r.f32(), r.f32(), r.f32()}
}

func (r *reader) vec4s(n int) [][4]float32 {
	out := make([][4]float32, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		out = append(out, r.vec4())
	}
	return out
}

// bytes returns a copy of the next n bytes.
func (r *reader) bytes(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// lengthPrefixed reads an i32 byte length followed by that many raw bytes.
func (r *reader) lengthPrefixed() []byte {
	n := r.i32()
	if r.err != nil {
		return nil
	}
	if n < 0 {
		r.fail(errors.Wrapf(ErrStructuralInconsistency, "negative block length %d at offset %d", n, r.off-4))
		return nil
	}
	return r.bytes(int(n))
}

// count reads an i32 element count. what names the section for error context.
func (r *reader) count(what string) int {
	n := r.i32()
	if r.err != nil {
		return 0
	}
	if n < 0 {
		r.fail(errors.Wrapf(ErrStructuralInconsistency, "negative %s count %d", what, n))
		return 0
	}
	return int(n)
}

// capacity bounds a slice pre-allocation for n records of at least minSize
// bytes by what the buffer can still hold.
func (r *reader) capacity(n, minSize int) int {
	if limit := r.remaining() / minSize; n > limit {
		return limit
	}
	return n
}

// unsigned reads a size-byte index zero-extended to 32 bits.
func (r *reader) unsigned(size IndexSize) uint32 {
	switch size {
	case IndexSize1:
		return uint32(r.u8())
	case IndexSize2:
		return uint32(r.u16())
	default:
		return r.u32()
	}
}

// signed reads a size-byte index sign-extended to 32 bits, so -1 survives
// at every width.
func (r *reader) signed(size IndexSize) int32 {
	switch size {
	case IndexSize1:
		return int32(r.i8())
	case IndexSize2:
		return int32(r.i16())
	default:
		return r.i32()
	}
}
