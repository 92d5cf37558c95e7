package glsllib

import (
	_ "embed"

	"github.com/soypat/pcg/glbuild"
)

//go:embed lambert_prologue.glsl
var lambertPrologue string

//go:embed lambert_body.glsl
var lambertBody string

//go:embed lambert.frag
var lambertFrag string

// LambertTemplate returns the per-vertex Lambert lighting vertex shader with the default
// x, y, z splice. Its body transforms displacedPosition instead of position for
// model-view, world, morph target and skinning transforms. Uniforms and attributes
// such as position, normal and the transform matrices are expected to be declared by
// the host renderer ahead of the prologue.
func LambertTemplate() glbuild.Template {
	return glbuild.Template{
		Prologue: lambertPrologue,
		Body:     lambertBody,
	}.WithDefaultSplice()
}

// LambertFragment returns the fragment shader paired with [LambertTemplate].
func LambertFragment() string { return lambertFrag }

//go:embed randdisplace.vert
var randDisplaceVert string

//go:embed randdisplace.frag
var randDisplaceFrag string

// RandomDisplacementVertex returns the noise displaced vertex shader. It reads the uniforms
//
//	uniform float bFactor;
//	uniform float noiseFactor;
func RandomDisplacementVertex() string { return randDisplaceVert }

// RandomDisplacementFragment returns the fragment shader paired with [RandomDisplacementVertex]. It samples
//
//	uniform sampler2D tExplosion;
func RandomDisplacementFragment() string { return randDisplaceFrag }

//go:embed desktop_prefix.vert
var desktopPrefixVert string

//go:embed desktop_prefix.frag
var desktopPrefixFrag string

// DesktopVertexPrefix declares the version, attributes and transform uniforms a browser
// renderer would otherwise inject so vertex shaders in this package compile on desktop OpenGL 4.1 core.
func DesktopVertexPrefix() string { return desktopPrefixVert }

// DesktopFragmentPrefix is the fragment shader counterpart of [DesktopVertexPrefix].
func DesktopFragmentPrefix() string { return desktopPrefixFrag }
