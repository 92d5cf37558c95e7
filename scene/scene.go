// Package scene holds lathe mesh instances, each owning its geometry, its material
// and the displacement fragments applied to it.
package scene

import (
	"errors"
	"fmt"

	"github.com/soypat/pcg"
	"github.com/soypat/pcg/glbuild"
	"github.com/soypat/pcg/material"
)

// Mesh is an instance of a geometry drawn with a material. Mesh is not safe for concurrent use.
type Mesh struct {
	Name     string
	Geometry *pcg.Mesh
	// Material is replaced by AddDisplacement. Callers must not share it between meshes.
	Material     *material.Shader
	displacement glbuild.Accumulator
}

// NewMesh creates a mesh instance with the default Lambert material and no displacement.
func NewMesh(name string, geom *pcg.Mesh) (*Mesh, error) {
	if geom == nil {
		return nil, errors.New("nil geometry")
	}
	mat, err := material.NewLambert()
	if err != nil {
		return nil, err
	}
	return &Mesh{Name: name, Geometry: geom, Material: mat}, nil
}

// AddDisplacement appends f to the mesh's displacement and installs a new Lambert material
// whose vertex shader applies every displacement added so far in order. Adding the same
// fragment twice applies it twice. If f is rejected by validation the mesh is left unchanged.
func (m *Mesh) AddDisplacement(f glbuild.Fragment) error {
	composer := glbuild.NewDefaultComposer()
	err := composer.Validate(f)
	if err != nil {
		return fmt.Errorf("mesh %q: %w", m.Name, err)
	}
	frags := append(m.displacement.Fragments(), f)
	mat, err := material.NewLambert(frags...)
	if err != nil {
		return fmt.Errorf("mesh %q: %w", m.Name, err)
	}
	m.displacement.Append(f)
	m.Material = mat
	return nil
}

// Displacement returns the concatenation of all displacement fragments applied to the mesh.
func (m *Mesh) Displacement() []byte {
	return m.displacement.AppendTo(nil)
}

// Displacements returns the number of displacement fragments applied to the mesh.
func (m *Mesh) Displacements() int { return m.displacement.Len() }

// SelectMaterial installs the material chosen by [material.Select] using the mesh's
// accumulated displacement.
func (m *Mesh) SelectMaterial(bFactor, noiseFactor *float32, explosion *material.Texture) error {
	mat, err := material.Select(bFactor, noiseFactor, explosion, m.Displacement())
	if err != nil {
		return fmt.Errorf("mesh %q: %w", m.Name, err)
	}
	m.Material = mat
	return nil
}

// Scene is an ordered set of uniquely named meshes.
type Scene struct {
	meshes []*Mesh
	byName map[string]int
}

// Add appends m to the scene. Mesh names must be unique.
func (s *Scene) Add(m *Mesh) error {
	if m == nil {
		return errors.New("nil mesh")
	}
	if s.byName == nil {
		s.byName = make(map[string]int)
	}
	if _, dup := s.byName[m.Name]; dup {
		return fmt.Errorf("duplicate mesh name %q", m.Name)
	}
	s.byName[m.Name] = len(s.meshes)
	s.meshes = append(s.meshes, m)
	return nil
}

// Mesh returns the mesh with the given name or nil if not found.
func (s *Scene) Mesh(name string) *Mesh {
	idx, ok := s.byName[name]
	if !ok {
		return nil
	}
	return s.meshes[idx]
}

// Meshes returns the scene's meshes in insertion order.
func (s *Scene) Meshes() []*Mesh {
	return append([]*Mesh(nil), s.meshes...)
}

// Names returns the scene's mesh names in insertion order.
func (s *Scene) Names() []string {
	names := make([]string, len(s.meshes))
	for i, m := range s.meshes {
		names[i] = m.Name
	}
	return names
}
