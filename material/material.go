// Package material builds shader materials for lathe meshes, pairing a composed
// vertex shader with its fragment shader and uniform set.
package material

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/pcg/glbuild"
	"github.com/soypat/pcg/glbuild/glsllib"
)

// Uniform types as understood by the browser renderer.
const (
	TypeFloat   = "f"
	TypeColor   = "c"
	TypeVec4    = "v4"
	TypeTexture = "t"
)

// Uniform is a named shader parameter. Value holds a float32, an ms3.Vec color,
// a [4]float32 or a *Texture depending on Type.
type Uniform struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// Uniforms maps uniform names to their values.
type Uniforms map[string]Uniform

// Clone returns a copy of u. Textures are shared by reference since they are immutable.
func (u Uniforms) Clone() Uniforms {
	c := make(Uniforms, len(u))
	for k, v := range u {
		c[k] = v
	}
	return c
}

// Texture references an image loaded by the renderer.
type Texture struct {
	// URL is the location the renderer loads the texture image from.
	URL string `json:"url"`
}

// Variant distinguishes the shading variants a [Shader] may be built as.
type Variant uint8

const (
	VariantLambert Variant = iota
	VariantRandomDisplacement
)

func (v Variant) String() string {
	switch v {
	case VariantLambert:
		return "lambert"
	case VariantRandomDisplacement:
		return "random-displacement"
	}
	return fmt.Sprintf("Variant(%d)", uint8(v))
}

// Shader is a shader material. Each Shader owns its Uniforms exclusively.
type Shader struct {
	Variant        Variant
	VertexShader   string
	FragmentShader string
	Uniforms       Uniforms
	// Lights is set when the renderer must feed scene lights to the shader.
	Lights bool
}

// MarshalJSON encodes the material as the parameter object of a browser ShaderMaterial.
func (s *Shader) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Variant        string   `json:"variant"`
		VertexShader   string   `json:"vertexShader"`
		FragmentShader string   `json:"fragmentShader"`
		Uniforms       Uniforms `json:"uniforms"`
		Lights         bool     `json:"lights"`
	}{
		Variant:        s.Variant.String(),
		VertexShader:   s.VertexShader,
		FragmentShader: s.FragmentShader,
		Uniforms:       s.Uniforms,
		Lights:         s.Lights,
	})
}

// LambertUniforms returns a new set of the uniforms declared by the Lambert shaders
// set to a white diffuse material with no emission. Light uniforms are supplied by the renderer.
func LambertUniforms() Uniforms {
	return Uniforms{
		"ambient":      {Type: TypeColor, Value: ms3.Vec{X: 1, Y: 1, Z: 1}},
		"diffuse":      {Type: TypeColor, Value: ms3.Vec{X: 1, Y: 1, Z: 1}},
		"emissive":     {Type: TypeColor, Value: ms3.Vec{}},
		"opacity":      {Type: TypeFloat, Value: float32(1)},
		"offsetRepeat": {Type: TypeVec4, Value: [4]float32{0, 0, 1, 1}},
	}
}

// NewLambert builds a Lambert material whose vertex shader has the displacement
// fragments spliced in order. Fragments are validated before the material is built.
func NewLambert(frags ...glbuild.Fragment) (*Shader, error) {
	src, err := glbuild.NewDefaultComposer().AppendVertexShader(nil, glsllib.LambertTemplate(), frags...)
	if err != nil {
		return nil, err
	}
	return &Shader{
		Variant:        VariantLambert,
		VertexShader:   string(src),
		FragmentShader: glsllib.LambertFragment(),
		Uniforms:       LambertUniforms(),
		Lights:         true,
	}, nil
}

// NewRandomDisplacement builds the noise displaced material. bFactor scales the
// position noise and noiseFactor the normal turbulence. The explosion texture is
// sampled by turbulence value to color the surface.
func NewRandomDisplacement(bFactor, noiseFactor float32, explosion *Texture) (*Shader, error) {
	if explosion == nil {
		return nil, errors.New("random displacement material requires explosion texture")
	}
	return &Shader{
		Variant:        VariantRandomDisplacement,
		VertexShader:   glsllib.RandomDisplacementVertex(),
		FragmentShader: glsllib.RandomDisplacementFragment(),
		Uniforms: Uniforms{
			"tExplosion":  {Type: TypeTexture, Value: explosion},
			"bFactor":     {Type: TypeFloat, Value: bFactor},
			"noiseFactor": {Type: TypeFloat, Value: noiseFactor},
		},
	}, nil
}

// Select chooses the material variant. If both bFactor and noiseFactor are non-nil,
// non-zero and not NaN the random displacement variant is built and displacement is ignored.
// Otherwise a Lambert material is built with displacement spliced into its vertex shader.
// displacement must contain complete GLSL statements, usually the concatenation of
// a mesh's accumulated fragments.
func Select(bFactor, noiseFactor *float32, explosion *Texture, displacement []byte) (*Shader, error) {
	if isSet(bFactor) && isSet(noiseFactor) {
		return NewRandomDisplacement(*bFactor, *noiseFactor, explosion)
	}
	if len(displacement) == 0 {
		return NewLambert()
	}
	return NewLambert(glbuild.Fragment(displacement))
}

func isSet(f *float32) bool {
	return f != nil && *f != 0 && !math32.IsNaN(*f)
}
