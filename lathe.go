package pcg

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

// NewLathe creates a closed lathe mesh by sweeping the radius profile of grid around the Y axis.
// The mesh spans heights 0 to height*scale and radii are multiplied by scale.
// The returned mesh has its coincident vertices merged and normals computed, see [Mesh.Finalize].
// Vertices closer than the merge precision collapse together, so a lathe smaller than
// 10^-[DefaultMergePrecision] in every dimension finalizes to a mesh with no faces.
// Use [BuildLathe] and [Mesh.MergeVertices] with a finer precision for such meshes.
func NewLathe(grid RadiusGrid, scale, height float32) (*Mesh, error) {
	m, err := BuildLathe(grid, scale, height)
	if err != nil {
		return nil, err
	}
	m.Finalize()
	return m, nil
}

// BuildLathe creates the raw lathe mesh of grid with no post-processing.
// The mesh contains (segments+1)*pointsPerRing ring vertices, the last ring being a duplicate
// of the first which closes the radial seam, followed by the bottom and top pole vertices.
// Each quad between two rings and two heights is split along the a-d diagonal into two UV
// mapped triangles and the bottom and top bands are closed with cap triangles which have no UVs.
func BuildLathe(grid RadiusGrid, scale, height float32) (*Mesh, error) {
	err := grid.Validate()
	if err != nil {
		return nil, err
	}
	if !(scale >= 0) || math32.IsInf(scale, 1) {
		return nil, gridErr(-1, -1, "invalid scale %v", scale)
	} else if !(height >= 0) || math32.IsInf(height, 1) {
		return nil, gridErr(-1, -1, "invalid height %v", height)
	}
	segments := grid.Segments()
	np := grid.PointsPerRing()
	m := &Mesh{
		Vertices: make([]ms3.Vec, 0, (segments+1)*np+2),
		Faces:    make([]Face, 0, 2*segments*(np-1)+2*segments),
	}
	m.Vertices = appendLatheRings(m.Vertices, grid, scale, height)

	bottomPole := len(m.Vertices)
	topPole := bottomPole + 1
	m.Vertices = append(m.Vertices, ms3.Vec{}, ms3.Vec{Y: height * scale})

	invSeg := 1 / float32(segments)
	invPts := 1 / float32(np-1)
	for i := 0; i < segments; i++ {
		for j := 0; j < np-1; j++ {
			a := j + np*i
			b := a + np
			c := b + 1
			d := a + 1
			u0 := float32(i) * invSeg
			v0 := float32(j) * invPts
			u1 := u0 + invSeg
			v1 := v0 + invPts
			m.Faces = append(m.Faces,
				Face{A: a, B: b, C: d, HasUV: true, UV: [3]ms2.Vec{{X: u0, Y: v0}, {X: u1, Y: v0}, {X: u0, Y: v1}}},
				Face{A: b, B: c, C: d, HasUV: true, UV: [3]ms2.Vec{{X: u1, Y: v0}, {X: u1, Y: v1}, {X: u0, Y: v1}}},
			)
			if j == 0 {
				m.Faces = append(m.Faces, Face{A: a, B: bottomPole, C: b})
			}
			if j == np-2 {
				m.Faces = append(m.Faces, Face{A: c, B: topPole, C: d})
			}
		}
	}
	return m, nil
}

// appendLatheRings appends ring vertices from the last angle index (segments) down to 0.
func appendLatheRings(dst []ms3.Vec, grid RadiusGrid, scale, height float32) []ms3.Vec {
	segments := grid.Segments()
	np := grid.PointsPerRing()
	invSeg := 1 / float32(segments)
	invPts := 1 / float32(np-1)
	for i := segments; i >= 0; i-- {
		phi := float32(i) * invSeg * twoPi
		s, c := math32.Sincos(phi)
		ring := grid[i%segments]
		for j, r := range ring {
			dst = append(dst, ms3.Vec{
				X: scale * c * r,
				Y: height * scale * float32(j) * invPts,
				Z: scale * s * r,
			})
		}
	}
	return dst
}
