package pmx

import (
	"bytes"
	"encoding/binary"
	"math"
	"unicode/utf16"
)

// builder assembles PMX bytes for tests. g must describe the globals block
// the test writes into the header.
type builder struct {
	buf bytes.Buffer
	g   Globals
}

func newBuilder(g Globals) *builder {
	return &builder{g: g}
}

func (b *builder) u8(v uint8) *builder {
	b.buf.WriteByte(v)
	return b
}

func (b *builder) i32(v int32) *builder {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	b.buf.Write(tmp[:])
	return b
}

func (b *builder) f32(vs ...float32) *builder {
	for _, v := range vs {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
		b.buf.Write(tmp[:])
	}
	return b
}

func (b *builder) raw(p []byte) *builder {
	b.buf.Write(p)
	return b
}

// index writes v truncated to size bytes, two's complement.
func (b *builder) index(size IndexSize, v int64) *builder {
	switch size {
	case IndexSize1:
		b.buf.WriteByte(byte(v))
	case IndexSize2:
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], uint16(v))
		b.buf.Write(tmp[:])
	default:
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(v))
		b.buf.Write(tmp[:])
	}
	return b
}

func (b *builder) text(s string) *builder {
	var p []byte
	if b.g.TextEncoding == UTF16LE {
		for _, u := range utf16.Encode([]rune(s)) {
			p = append(p, byte(u), byte(u>>8))
		}
	} else {
		p = []byte(s)
	}
	b.i32(int32(len(p)))
	return b.raw(p)
}

// header writes the preamble with the given raw globals block and names.
func (b *builder) header(globals []byte, names ...string) *builder {
	b.raw([]byte(Signature)).f32(2.0)
	b.u8(uint8(len(globals))).raw(globals)
	for i := 0; i < 4; i++ {
		s := ""
		if i < len(names) {
			s = names[i]
		}
		b.text(s)
	}
	return b
}

// bdef1Vertex writes a vertex with zeroed geometry and a BDEF1 deform.
func (b *builder) bdef1Vertex(bone int64) *builder {
	b.f32(0, 0, 0, 0, 1, 0, 0, 0)
	for i := 0; i < int(b.g.AdditionalVec4Count); i++ {
		b.f32(0, 0, 0, 0)
	}
	b.u8(uint8(DeformBDEF1)).index(b.g.BoneIndexSize, bone)
	return b.f32(1)
}

func (b *builder) surfaces(tris ...[3]int64) *builder {
	b.i32(int32(3 * len(tris)))
	for _, t := range tris {
		for _, v := range t {
			b.index(b.g.VertexIndexSize, v)
		}
	}
	return b
}

func (b *builder) textures(paths ...string) *builder {
	b.i32(int32(len(paths)))
	for _, p := range paths {
		b.text(p)
	}
	return b
}

type testMaterial struct {
	name         string
	texture      int64
	environment  int64
	blend        uint8
	toonRef      uint8
	toon         int64
	surfaceCount int32
}

func (b *builder) material(m testMaterial) *builder {
	b.text(m.name).text("")
	b.f32(1, 1, 1, 1)    // diffuse
	b.f32(0, 0, 0, 5)    // specular + strength
	b.f32(0.5, 0.5, 0.5) // ambient
	b.u8(uint8(FlagDoubleSided | FlagDrawEdge))
	b.f32(0, 0, 0, 1, 1) // edge color + scale
	b.index(b.g.TextureIndexSize, m.texture)
	b.index(b.g.TextureIndexSize, m.environment)
	b.u8(m.blend).u8(m.toonRef)
	if m.toonRef == uint8(ToonRefInternal) {
		b.u8(uint8(int8(m.toon)))
	} else {
		b.index(b.g.TextureIndexSize, m.toon)
	}
	b.text("")
	return b.i32(m.surfaceCount)
}

func (b *builder) data() []byte {
	return b.buf.Bytes()
}

// globalsBytes encodes g as a full eight-slot globals block.
func globalsBytes(g Globals) []byte {
	return []byte{
		byte(g.TextEncoding), g.AdditionalVec4Count,
		byte(g.VertexIndexSize), byte(g.TextureIndexSize), byte(g.MaterialIndexSize),
		byte(g.BoneIndexSize), byte(g.MorphIndexSize), byte(g.RigidBodyIndexSize),
	}
}

func smallGlobals() Globals {
	return Globals{
		TextEncoding:       UTF8,
		VertexIndexSize:    IndexSize1,
		TextureIndexSize:   IndexSize1,
		MaterialIndexSize:  IndexSize1,
		BoneIndexSize:      IndexSize1,
		MorphIndexSize:     IndexSize1,
		RigidBodyIndexSize: IndexSize1,
	}
}

// singleTriangle is one BDEF1 vertex, triangle (0,0,0), no textures and
// one material covering all three indices with no texture.
func singleTriangle(g Globals) []byte {
	b := newBuilder(g).header(globalsBytes(g), "model", "model", "", "")
	b.i32(1).bdef1Vertex(0)
	b.surfaces([3]int64{0, 0, 0})
	b.textures()
	b.i32(1).material(testMaterial{
		name:         "body",
		texture:      NoTexture,
		environment:  NoTexture,
		toonRef:      uint8(ToonRefInternal),
		toon:         0,
		surfaceCount: 3,
	})
	return b.data()
}
