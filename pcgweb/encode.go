package pcgweb

import (
	"github.com/soypat/pcg/material"
	"github.com/soypat/pcg/scene"
)

// meshJSON is the browser representation of a mesh instance. UVs holds one entry
// per face which is null for faces without texture mapping.
type meshJSON struct {
	Name          string           `json:"name"`
	Vertices      [][3]float32     `json:"vertices"`
	Normals       [][3]float32     `json:"normals,omitempty"`
	Faces         [][3]int         `json:"faces"`
	UVs           []*[3][2]float32 `json:"uvs"`
	Displacements int              `json:"displacements"`
	Material      *material.Shader `json:"material"`
}

func encodeMesh(m *scene.Mesh) meshJSON {
	g := m.Geometry
	mj := meshJSON{
		Name:          m.Name,
		Vertices:      make([][3]float32, len(g.Vertices)),
		Faces:         make([][3]int, len(g.Faces)),
		UVs:           make([]*[3][2]float32, len(g.Faces)),
		Displacements: m.Displacements(),
		Material:      m.Material,
	}
	for i, v := range g.Vertices {
		mj.Vertices[i] = [3]float32{v.X, v.Y, v.Z}
	}
	if len(g.Normals) == len(g.Vertices) {
		mj.Normals = make([][3]float32, len(g.Normals))
		for i, n := range g.Normals {
			mj.Normals[i] = [3]float32{n.X, n.Y, n.Z}
		}
	}
	for i := range g.Faces {
		f := &g.Faces[i]
		mj.Faces[i] = f.Indices()
		if f.HasUV {
			mj.UVs[i] = &[3][2]float32{
				{f.UV[0].X, f.UV[0].Y},
				{f.UV[1].X, f.UV[1].Y},
				{f.UV[2].X, f.UV[2].Y},
			}
		}
	}
	return mj
}

func encodeScene(s *scene.Scene) []meshJSON {
	meshes := s.Meshes()
	out := make([]meshJSON, len(meshes))
	for i, m := range meshes {
		out[i] = encodeMesh(m)
	}
	return out
}
