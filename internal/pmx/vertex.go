package pmx

import (
	"fmt"

	"github.com/pkg/errors"
)

// DeformType is the tag byte in front of a vertex's skinning data.
type DeformType uint8

const (
	DeformBDEF1 DeformType = iota
	DeformBDEF2
	DeformBDEF4
	DeformSDEF
	DeformQDEF
)

func (t DeformType) String() string {
	switch t {
	case DeformBDEF1:
		return "BDEF1"
	case DeformBDEF2:
		return "BDEF2"
	case DeformBDEF4:
		return "BDEF4"
	case DeformSDEF:
		return "SDEF"
	case DeformQDEF:
		return "QDEF"
	}
	return fmt.Sprintf("DeformType(%d)", uint8(t))
}

// WeightDeform is one of BDEF1, BDEF2, BDEF4, SDEF or QDEF. Bone indices
// are unsigned; PMX uses no "no bone" sentinel in skinning data.
type WeightDeform interface {
	Type() DeformType
	// Bones returns the referenced bone indices in file order.
	Bones() []uint32
	// Weights returns one weight per entry of Bones.
	Weights() []float32
}

// BDEF1 binds the vertex to a single bone.
type BDEF1 struct {
	Bone uint32
}

// BDEF2 blends two bones; bone 2 gets 1-Weight1.
type BDEF2 struct {
	Bone1, Bone2 uint32
	Weight1      float32
}

// BDEF4 blends four bones with independent weights.
type BDEF4 struct {
	Bone   [4]uint32
	Weight [4]float32
}

// SDEF is spherical deform: two bones plus the C, R0 and R1 control points.
type SDEF struct {
	Bone1, Bone2 uint32
	Weight1      float32
	C, R0, R1    [3]float32
}

// QDEF is dual-quaternion deform; the layout matches BDEF4.
type QDEF struct {
	Bone   [4]uint32
	Weight [4]float32
}

func (BDEF1) Type() DeformType { return DeformBDEF1 }
func (BDEF2) Type() DeformType { return DeformBDEF2 }
func (BDEF4) Type() DeformType { return DeformBDEF4 }
func (SDEF) Type() DeformType  { return DeformSDEF }
func (QDEF) Type() DeformType  { return DeformQDEF }

func (d BDEF1) Bones() []uint32 { return []uint32{d.Bone} }
func (d BDEF2) Bones() []uint32 { return []uint32{d.Bone1, d.Bone2} }
func (d BDEF4) Bones() []uint32 { return d.Bone[:] }
func (d SDEF) Bones() []uint32  { return []uint32{d.Bone1, d.Bone2} }
func (d QDEF) Bones() []uint32  { return d.Bone[:] }

func (BDEF1) Weights() []float32   { return []float32{1} }
func (d BDEF2) Weights() []float32 { return []float32{d.Weight1, 1 - d.Weight1} }
func (d BDEF4) Weights() []float32 { return d.Weight[:] }
func (d SDEF) Weights() []float32  { return []float32{d.Weight1, 1 - d.Weight1} }
func (d QDEF) Weights() []float32  { return d.Weight[:] }

// Vertex is one decoded vertex record.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32

	// AdditionalVec4 has exactly Globals.AdditionalVec4Count entries.
	AdditionalVec4 [][4]float32

	Deform    WeightDeform
	EdgeScale float32
}

func decodeDeform(r *reader, bone IndexSize) WeightDeform {
	tag := r.u8()
	if r.err != nil {
		return nil
	}
	switch DeformType(tag) {
	case DeformBDEF1:
		return BDEF1{Bone: r.unsigned(bone)}
	case DeformBDEF2:
		return BDEF2{
			Bone1:   r.unsigned(bone),
			Bone2:   r.unsigned(bone),
			Weight1: r.f32(),
		}
	case DeformBDEF4:
		var d BDEF4
		for i := range d.Bone {
			d.Bone[i] = r.unsigned(bone)
		}
		for i := range d.Weight {
			d.Weight[i] = r.f32()
		}
		return d
	case DeformSDEF:
		return SDEF{
			Bone1:   r.unsigned(bone),
			Bone2:   r.unsigned(bone),
			Weight1: r.f32(),
			C:       r.vec3(),
			R0:      r.vec3(),
			R1:      r.vec3(),
		}
	case DeformQDEF:
		var d QDEF
		for i := range d.Bone {
			d.Bone[i] = r.unsigned(bone)
		}
		for i := range d.Weight {
			d.Weight[i] = r.f32()
		}
		return d
	}
	r.fail(errors.Wrapf(ErrInvalidEnumValue, "weight deform type %d at offset %d", tag, r.off-1))
	return nil
}

func decodeVertex(r *reader, g Globals) Vertex {
	var v Vertex
	v.Position = r.vec3()
	v.Normal = r.vec3()
	v.UV = r.vec2()
	v.AdditionalVec4 = r.vec4s(int(g.AdditionalVec4Count))
	v.Deform = decodeDeform(r, g.BoneIndexSize)
	v.EdgeScale = r.f32()
	return v
}

func decodeVertices(r *reader, g Globals) ([]Vertex, error) {
	n := r.count("vertex")
	// position, normal, uv, vec4s, tag, one bone, edge scale
	minSize := 32 + 16*int(g.AdditionalVec4Count) + 1 + int(g.BoneIndexSize) + 4
	vertices := make([]Vertex, 0, r.capacity(n, minSize))
	for i := 0; i < n && r.err == nil; i++ {
		v := decodeVertex(r, g)
		if r.err != nil {
			return nil, errors.WithMessagef(r.err, "vertex %d", i)
		}
		vertices = append(vertices, v)
	}
	if r.err != nil {
		return nil, errors.WithMessage(r.err, "vertices")
	}
	return vertices, nil
}
