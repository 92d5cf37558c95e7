package scene

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/pcg"
	"github.com/soypat/pcg/glbuild"
	"github.com/soypat/pcg/material"
)

// Profile kinds understood by [Preset].
const (
	ProfileCylinder = "cylinder"
	ProfileVase     = "vase"
	ProfileWobble   = "wobble"
	ProfileCustom   = "custom"
)

// Preset describes a lathe mesh instance declaratively.
type Preset struct {
	Name     string `toml:"name"`
	Profile  string `toml:"profile"`
	Segments int    `toml:"segments"`
	Points   int    `toml:"points"`
	// Radius is the base radius of generated profiles.
	Radius float32 `toml:"radius"`
	// Amplitude and Frequency shape the vase and wobble profiles.
	Amplitude float32 `toml:"amplitude"`
	Frequency float32 `toml:"frequency"`
	// Radii is the explicit grid used by the custom profile.
	Radii  [][]float32 `toml:"radii"`
	Scale  float32     `toml:"scale"`
	Height float32     `toml:"height"`
	// Displacements are GLSL fragments applied in order.
	Displacements []string `toml:"displacements"`
	// BFactor and NoiseFactor select the random displacement material when both are set.
	BFactor     *float32 `toml:"bFactor"`
	NoiseFactor *float32 `toml:"noiseFactor"`
	Explosion   string   `toml:"explosion"`
}

// Grid builds the preset's radius grid.
func (p Preset) Grid(bld *pcg.Builder) pcg.RadiusGrid {
	switch p.Profile {
	case ProfileCylinder, "":
		return bld.NewRadiusGrid(p.Segments, p.Points, func(_, _ float32) float32 {
			return p.Radius
		})
	case ProfileVase:
		base := bld.NewRadiusGrid(p.Segments, p.Points, func(_, _ float32) float32 { return p.Radius })
		return bld.Displace(base, p.Amplitude, func(_, v float32) float32 {
			return math32.Sin(p.Frequency * math32.Pi * v)
		})
	case ProfileWobble:
		base := bld.NewRadiusGrid(p.Segments, p.Points, func(_, _ float32) float32 { return p.Radius })
		return bld.Displace(base, p.Amplitude, func(phi, _ float32) float32 {
			return math32.Sin(p.Frequency * phi)
		})
	case ProfileCustom:
		return pcg.RadiusGrid(p.Radii) // Validated by NewLathe.
	}
	return nil
}

// Build creates the preset's mesh instance, applying its displacements and material selection.
func (p Preset) Build() (*Mesh, error) {
	switch p.Profile {
	case ProfileCylinder, ProfileVase, ProfileWobble, ProfileCustom, "":
	default:
		return nil, fmt.Errorf("preset %q: unknown profile %q", p.Name, p.Profile)
	}
	bld := pcg.Builder{NoDimensionPanic: true}
	grid := p.Grid(&bld)
	geom := bld.NewLathe(grid, p.Scale, p.Height)
	if err := bld.Err(); err != nil {
		return nil, fmt.Errorf("preset %q: %w", p.Name, err)
	}
	m, err := NewMesh(p.Name, geom)
	if err != nil {
		return nil, err
	}
	for _, frag := range p.Displacements {
		err = m.AddDisplacement(glbuild.Fragment(frag))
		if err != nil {
			return nil, err
		}
	}
	if p.BFactor != nil || p.NoiseFactor != nil {
		var tex *material.Texture
		if p.Explosion != "" {
			tex = &material.Texture{URL: p.Explosion}
		}
		err = m.SelectMaterial(p.BFactor, p.NoiseFactor, tex)
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Build creates a scene from presets in order.
func Build(presets []Preset) (*Scene, error) {
	var s Scene
	for _, p := range presets {
		m, err := p.Build()
		if err != nil {
			return nil, err
		}
		err = s.Add(m)
		if err != nil {
			return nil, err
		}
	}
	return &s, nil
}
