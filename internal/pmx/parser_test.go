package pmx

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseSingleTriangle(t *testing.T) {
	m, err := Parse(singleTriangle(smallGlobals()))
	if err != nil {
		t.Fatal(err)
	}
	if !m.Header.IsPMX() || m.Header.Version != 2.0 {
		t.Errorf("header = %q v%v", m.Header.Signature, m.Header.Version)
	}
	if m.Header.NameLocal != "model" {
		t.Errorf("name = %q", m.Header.NameLocal)
	}
	if len(m.Vertices) != 1 || len(m.Surfaces) != 1 || len(m.Materials) != 1 {
		t.Fatalf("got %d vertices, %d surfaces, %d materials", len(m.Vertices), len(m.Surfaces), len(m.Materials))
	}
	if m.Vertices[0].Deform != (BDEF1{Bone: 0}) {
		t.Errorf("deform = %#v", m.Vertices[0].Deform)
	}
	if m.Surfaces[0] != (Surface{0, 0, 0}) {
		t.Errorf("surface = %v", m.Surfaces[0])
	}
	if len(m.Textures) != 0 {
		t.Errorf("textures = %v", m.Textures)
	}
	if m.Materials[0].TextureIndex != NoTexture {
		t.Errorf("texture index = %d", m.Materials[0].TextureIndex)
	}
	if want := []Submesh{{Start: 0, End: 3}}; !reflect.DeepEqual(m.Submeshes, want) {
		t.Errorf("submeshes = %v, want %v", m.Submeshes, want)
	}
	if _, ok := m.Texture(m.Materials[0].TextureIndex); ok {
		t.Error("Texture(-1) reported a path")
	}
}

func TestParseDeterministic(t *testing.T) {
	data := singleTriangle(smallGlobals())
	a, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("two parses of the same bytes differ")
	}
}

func TestParsePartialGlobals(t *testing.T) {
	// Six slots: UTF-16, no vec4, vertex/texture/material/bone sizes 1.
	raw := []byte{0, 0, 1, 1, 1, 1}
	g := DefaultGlobals()
	g.TextEncoding = UTF16LE
	g.VertexIndexSize = IndexSize1
	g.TextureIndexSize = IndexSize1
	g.MaterialIndexSize = IndexSize1
	g.BoneIndexSize = IndexSize1

	b := newBuilder(g).header(raw, "ミク", "Miku", "", "")
	b.i32(1).bdef1Vertex(0)
	b.surfaces([3]int64{0, 0, 0})
	b.textures("tex\\body.png")
	b.i32(1).material(testMaterial{name: "体", texture: 0, environment: NoTexture, surfaceCount: 3})

	partial, err := Parse(b.data())
	if err != nil {
		t.Fatal(err)
	}
	if partial.Globals != g {
		t.Errorf("globals = %+v, want %+v", partial.Globals, g)
	}
	if partial.Header.NameLocal != "ミク" || partial.Materials[0].NameLocal != "体" {
		t.Errorf("names = %q %q", partial.Header.NameLocal, partial.Materials[0].NameLocal)
	}
	if p, ok := partial.Texture(0); !ok || p != "tex\\body.png" {
		t.Errorf("Texture(0) = %q %v", p, ok)
	}

	// No slots at all: UTF-8 and four-byte indices everywhere.
	d := DefaultGlobals()
	b = newBuilder(d).header(nil, "model")
	b.i32(1).bdef1Vertex(0)
	b.surfaces([3]int64{0, 0, 0})
	b.textures()
	b.i32(1).material(testMaterial{texture: NoTexture, environment: NoTexture, surfaceCount: 3})

	empty, err := Parse(b.data())
	if err != nil {
		t.Fatal(err)
	}
	if empty.Globals != d {
		t.Errorf("globals = %+v, want %+v", empty.Globals, d)
	}
	if partial.Globals.TextEncoding == empty.Globals.TextEncoding {
		t.Error("slot 0 present and absent decoded to the same encoding")
	}
	if partial.Globals.MorphIndexSize != empty.Globals.MorphIndexSize {
		t.Error("absent morph index size should default the same in both files")
	}
}

func TestParseSubmeshRanges(t *testing.T) {
	g := smallGlobals()
	b := newBuilder(g).header(globalsBytes(g))
	b.i32(3).bdef1Vertex(0).bdef1Vertex(0).bdef1Vertex(0)
	b.surfaces([3]int64{0, 1, 2}, [3]int64{2, 1, 0}, [3]int64{0, 2, 1}, [3]int64{1, 1, 1})
	b.textures("a.png", "b.png")
	b.i32(3)
	b.material(testMaterial{texture: 0, environment: NoTexture, surfaceCount: 6})
	b.material(testMaterial{texture: NoTexture, environment: NoTexture, surfaceCount: 0})
	b.material(testMaterial{texture: 1, environment: NoTexture, surfaceCount: 6})

	m, err := Parse(b.data())
	if err != nil {
		t.Fatal(err)
	}
	want := []Submesh{{0, 6}, {6, 6}, {6, 12}}
	if !reflect.DeepEqual(m.Submeshes, want) {
		t.Fatalf("submeshes = %v, want %v", m.Submeshes, want)
	}
	end := 0
	for i, s := range m.Submeshes {
		if s.Start != end || s.Len() != int(m.Materials[i].SurfaceCount) {
			t.Errorf("submesh %d = %v does not continue at %d", i, s, end)
		}
		end = s.End
	}
	if end != m.IndexCount() {
		t.Errorf("ranges end at %d, want %d", end, m.IndexCount())
	}
}

func TestParseStructuralInconsistency(t *testing.T) {
	tests := []struct {
		name   string
		counts []int32
	}{
		{"short", []int32{3}},
		{"long", []int32{3, 6}},
		{"not a multiple of three", []int32{4, 2}},
		{"no materials", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := smallGlobals()
			b := newBuilder(g).header(globalsBytes(g))
			b.i32(1).bdef1Vertex(0)
			b.surfaces([3]int64{0, 0, 0}, [3]int64{0, 0, 0})
			b.textures()
			b.i32(int32(len(tt.counts)))
			for _, c := range tt.counts {
				b.material(testMaterial{texture: NoTexture, environment: NoTexture, surfaceCount: c})
			}
			_, err := Parse(b.data())
			if !errors.Is(err, ErrStructuralInconsistency) {
				t.Errorf("err = %v, want ErrStructuralInconsistency", err)
			}
		})
	}
}

func TestParseSurfaceIndexCountNotTriangles(t *testing.T) {
	g := smallGlobals()
	b := newBuilder(g).header(globalsBytes(g))
	b.i32(0)
	b.i32(4).raw([]byte{0, 0, 0, 0})

	_, err := Parse(b.data())
	if !errors.Is(err, ErrStructuralInconsistency) {
		t.Errorf("err = %v, want ErrStructuralInconsistency", err)
	}
}

func TestParseSurfacesUnsigned(t *testing.T) {
	for _, size := range []IndexSize{IndexSize1, IndexSize2} {
		g := smallGlobals()
		g.VertexIndexSize = size
		top := int64(1)<<(8*uint(size)) - 1

		b := newBuilder(g).header(globalsBytes(g))
		b.i32(0)
		b.surfaces([3]int64{top, 0, top})
		b.textures()
		b.i32(1).material(testMaterial{texture: NoTexture, environment: NoTexture, surfaceCount: 3})

		m, err := Parse(b.data())
		if err != nil {
			t.Fatalf("size %d: %v", size, err)
		}
		if want := (Surface{uint32(top), 0, uint32(top)}); m.Surfaces[0] != want {
			t.Errorf("size %d: surface = %v, want %v", size, m.Surfaces[0], want)
		}
	}
}

func TestParseTruncated(t *testing.T) {
	g := smallGlobals()
	g.AdditionalVec4Count = 1
	b := newBuilder(g).header(globalsBytes(g), "名前", "name", "comment", "")
	b.i32(2).bdef1Vertex(0)
	b.f32(0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1)
	b.u8(uint8(DeformSDEF)).index(g.BoneIndexSize, 0).index(g.BoneIndexSize, 1).f32(0.5)
	b.f32(0, 0, 0, 0, 0, 0, 0, 0, 0, 1)
	b.surfaces([3]int64{0, 1, 0})
	b.textures("a.png")
	b.i32(1).material(testMaterial{name: "m", texture: 0, environment: NoTexture, surfaceCount: 3})
	data := b.data()

	if _, err := Parse(data); err != nil {
		t.Fatalf("full buffer: %v", err)
	}
	for n := 0; n < len(data); n++ {
		m, err := Parse(data[:n])
		if !errors.Is(err, ErrUnexpectedEOF) {
			t.Fatalf("truncated at %d of %d: err = %v, want ErrUnexpectedEOF", n, len(data), err)
		}
		if m != nil {
			t.Fatalf("truncated at %d: partial model returned", n)
		}
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.pmx")
	if err := os.WriteFile(path, singleTriangle(smallGlobals()), 0644); err != nil {
		t.Fatal(err)
	}
	m, err := ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Materials) != 1 {
		t.Errorf("materials = %d", len(m.Materials))
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.pmx")); err == nil {
		t.Error("missing file parsed")
	}
}
