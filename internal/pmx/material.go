package pmx

import (
	"fmt"

	"github.com/pkg/errors"
)

// NoTexture is the texture/environment index meaning "none".
const NoTexture = -1

// MaterialFlags is the drawing_flags bit set.
type MaterialFlags uint8

const (
	FlagDoubleSided MaterialFlags = 1 << iota
	FlagGroundShadow
	FlagSelfShadowMap
	FlagSelfShadow
	FlagDrawEdge
	FlagVertexColor // 2.1
	FlagDrawPoint   // 2.1
	FlagDrawLine    // 2.1
)

// Has reports whether every bit of f is set.
func (m MaterialFlags) Has(f MaterialFlags) bool {
	return m&f == f
}

// EnvironmentBlendMode says how the environment (sphere) map combines with
// the base color.
type EnvironmentBlendMode uint8

const (
	BlendDisabled EnvironmentBlendMode = iota
	BlendMultiply
	BlendAdditive
	BlendAdditionalVec4 // sampled with the first additional vec4's xy as UV
)

func (m EnvironmentBlendMode) String() string {
	switch m {
	case BlendDisabled:
		return "disabled"
	case BlendMultiply:
		return "multiply"
	case BlendAdditive:
		return "additive"
	case BlendAdditionalVec4:
		return "additional-vec4"
	}
	return fmt.Sprintf("EnvironmentBlendMode(%d)", uint8(m))
}

// ToonReference selects how ToonValue is encoded.
type ToonReference uint8

const (
	ToonRefTexture ToonReference = iota
	ToonRefInternal
)

func (t ToonReference) String() string {
	switch t {
	case ToonRefTexture:
		return "texture"
	case ToonRefInternal:
		return "internal"
	}
	return fmt.Sprintf("ToonReference(%d)", uint8(t))
}

// ToonValue is ToonTexture or ToonInternal.
type ToonValue interface {
	Reference() ToonReference
}

// ToonTexture indexes the texture table; -1 means none.
type ToonTexture int32

// ToonInternal selects one of the shared toon textures (toon01..toon10 for 0..9).
type ToonInternal int8

func (ToonTexture) Reference() ToonReference  { return ToonRefTexture }
func (ToonInternal) Reference() ToonReference { return ToonRefInternal }

// Material is one decoded material record. SurfaceCount counts flat
// indices (three per triangle) owned by this material's submesh.
type Material struct {
	NameLocal     string
	NameUniversal string

	Diffuse          [4]float32 // RGBA
	Specular         [3]float32
	SpecularStrength float32
	Ambient          [3]float32

	Flags MaterialFlags

	EdgeColor [4]float32
	EdgeScale float32

	TextureIndex     int32
	EnvironmentIndex int32
	EnvironmentBlend EnvironmentBlendMode
	Toon             ToonValue

	Metadata     string
	SurfaceCount int32
}

func decodeMaterial(r *reader, g Globals) Material {
	var m Material
	m.NameLocal = r.text(g.TextEncoding)
	m.NameUniversal = r.text(g.TextEncoding)
	m.Diffuse = r.vec4()
	m.Specular = r.vec3()
	m.SpecularStrength = r.f32()
	m.Ambient = r.vec3()
	m.Flags = MaterialFlags(r.u8())
	m.EdgeColor = r.vec4()
	m.EdgeScale = r.f32()
	m.TextureIndex = r.signed(g.TextureIndexSize)
	m.EnvironmentIndex = r.signed(g.TextureIndexSize)

	blend := r.u8()
	if r.err == nil && blend > uint8(BlendAdditionalVec4) {
		r.fail(errors.Wrapf(ErrInvalidEnumValue, "environment blend mode %d", blend))
	}
	m.EnvironmentBlend = EnvironmentBlendMode(blend)

	ref := r.u8()
	if r.err == nil {
		switch ToonReference(ref) {
		case ToonRefTexture:
			m.Toon = ToonTexture(r.signed(g.TextureIndexSize))
		case ToonRefInternal:
			m.Toon = ToonInternal(r.i8())
		default:
			r.fail(errors.Wrapf(ErrInvalidEnumValue, "toon reference %d", ref))
		}
	}

	m.Metadata = r.text(g.TextEncoding)
	m.SurfaceCount = r.i32()
	if r.err == nil && m.SurfaceCount < 0 {
		r.fail(errors.Wrapf(ErrStructuralInconsistency, "negative surface count %d", m.SurfaceCount))
	}
	return m
}

func decodeMaterials(r *reader, g Globals) ([]Material, error) {
	n := r.count("material")
	// three empty texts, fixed colors, two indices, enums, one toon byte
	minSize := 12 + 65 + 2*int(g.TextureIndexSize) + 3 + 4
	materials := make([]Material, 0, r.capacity(n, minSize))
	for i := 0; i < n && r.err == nil; i++ {
		m := decodeMaterial(r, g)
		if r.err != nil {
			return nil, errors.WithMessagef(r.err, "material %d", i)
		}
		materials = append(materials, m)
	}
	if r.err != nil {
		return nil, errors.WithMessage(r.err, "materials")
	}
	return materials, nil
}
