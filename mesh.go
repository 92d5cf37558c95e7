package pcg

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

// Face is a triangle of a [Mesh] referencing three vertex indices.
// The order of A, B, C determines the outward facing side of the triangle.
type Face struct {
	A, B, C int
	// UV contains texture coordinates for A, B, C respectively. Only valid if HasUV is set.
	UV    [3]ms2.Vec
	HasUV bool
	// Normal is the unit face normal. Set by [Mesh.ComputeFaceNormals].
	Normal ms3.Vec
	// VertexNormals are the normals at A, B, C respectively. Set by [Mesh.ComputeVertexNormals].
	VertexNormals [3]ms3.Vec
	// Centroid is the mean of the face's vertices. Set by [Mesh.ComputeCentroids].
	Centroid ms3.Vec
}

// Indices returns the face's vertex indices in winding order.
func (f *Face) Indices() [3]int { return [3]int{f.A, f.B, f.C} }

func (f *Face) degenerate() bool { return f.A == f.B || f.B == f.C || f.A == f.C }

// Mesh is an indexed triangle mesh with per-face texture coordinates.
type Mesh struct {
	Vertices []ms3.Vec
	Faces    []Face
	// Normals contains a unit normal per vertex. Set by [Mesh.ComputeVertexNormals].
	Normals []ms3.Vec
}

// Finalize merges coincident vertices with [DefaultMergePrecision] and computes
// centroids, face normals and vertex normals as the normalized sum of adjacent unit face normals.
func (m *Mesh) Finalize() {
	m.MergeVertices(DefaultMergePrecision)
	m.ComputeCentroids()
	m.ComputeFaceNormals()
	m.ComputeVertexNormals(false)
}

// Validate checks all face indices reference existing vertices.
func (m *Mesh) Validate() error {
	n := len(m.Vertices)
	for i := range m.Faces {
		for _, idx := range m.Faces[i].Indices() {
			if idx < 0 || idx >= n {
				return fmt.Errorf("face %d references vertex %d out of %d vertices", i, idx, n)
			}
		}
	}
	return nil
}

// vertexKey holds per component the float bits of the quantized coordinate,
// or of the exact coordinate with exactKeyBit set when quantizing overflows.
type vertexKey [3]uint64

const exactKeyBit = 1 << 32

func makeVertexKey(v ms3.Vec, precisionPoints int) vertexKey {
	if precisionPoints < 0 {
		return vertexKey{exactKey(v.X), exactKey(v.Y), exactKey(v.Z)}
	}
	mul := math32.Pow(10, float32(precisionPoints))
	return vertexKey{
		quantizedKey(v.X, mul),
		quantizedKey(v.Y, mul),
		quantizedKey(v.Z, mul),
	}
}

func exactKey(x float32) uint64 {
	// Adding zero normalizes negative zero so it matches positive zero.
	return exactKeyBit | uint64(math32.Float32bits(x+0))
}

func quantizedKey(x, mul float32) uint64 {
	q := math32.Round(x * mul)
	if math32.IsInf(q, 0) {
		return exactKey(x)
	}
	return uint64(math32.Float32bits(q + 0))
}

// MergeVertices merges vertices whose positions are equal when rounded to precisionPoints
// decimal digits. The first vertex found of a group of coincident vertices is kept.
// A negative precisionPoints merges only vertices with exactly equal positions.
// Faces are remapped to the merged vertices and faces left with a repeated vertex index are removed.
// Vertex normals are invalidated. MergeVertices returns the number of vertices removed.
func (m *Mesh) MergeVertices(precisionPoints int) (removed int) {
	seen := make(map[vertexKey]int, len(m.Vertices))
	remap := make([]int, len(m.Vertices))
	unique := m.Vertices[:0]
	for i, v := range m.Vertices {
		key := makeVertexKey(v, precisionPoints)
		if idx, ok := seen[key]; ok {
			remap[i] = idx
			continue
		}
		idx := len(unique)
		seen[key] = idx
		remap[i] = idx
		unique = append(unique, v)
	}
	removed = len(m.Vertices) - len(unique)
	m.Vertices = unique

	faces := m.Faces[:0]
	for _, f := range m.Faces {
		f.A, f.B, f.C = remap[f.A], remap[f.B], remap[f.C]
		if f.degenerate() {
			continue
		}
		faces = append(faces, f)
	}
	m.Faces = faces
	m.Normals = m.Normals[:0]
	return removed
}

// ComputeCentroids sets the Centroid field of every face.
func (m *Mesh) ComputeCentroids() {
	const third = 1. / 3
	for i := range m.Faces {
		f := &m.Faces[i]
		sum := ms3.Add(m.Vertices[f.A], ms3.Add(m.Vertices[f.B], m.Vertices[f.C]))
		f.Centroid = ms3.Scale(third, sum)
	}
}

// crossFace returns the non-normalized normal of the face, of length twice its area.
func (m *Mesh) crossFace(f *Face) ms3.Vec {
	va, vb, vc := m.Vertices[f.A], m.Vertices[f.B], m.Vertices[f.C]
	return ms3.Cross(ms3.Sub(vc, vb), ms3.Sub(va, vb))
}

// ComputeFaceNormals sets the Normal field of every face to its unit normal.
// Zero area faces get a zero normal.
func (m *Mesh) ComputeFaceNormals() {
	for i := range m.Faces {
		f := &m.Faces[i]
		f.Normal = safeUnit(m.crossFace(f))
	}
}

// ComputeVertexNormals computes per vertex normals as the normalized sum of the normals of
// faces sharing the vertex. If areaWeighted is set, each face contributes proportionally
// to its area, otherwise the face's unit normal (see [Mesh.ComputeFaceNormals]) is used.
// Results are stored in m.Normals and in each face's VertexNormals.
func (m *Mesh) ComputeVertexNormals(areaWeighted bool) {
	if cap(m.Normals) < len(m.Vertices) {
		m.Normals = make([]ms3.Vec, len(m.Vertices))
	}
	m.Normals = m.Normals[:len(m.Vertices)]
	clear(m.Normals)
	for i := range m.Faces {
		f := &m.Faces[i]
		var n ms3.Vec
		if areaWeighted {
			n = m.crossFace(f)
		} else {
			n = f.Normal
		}
		m.Normals[f.A] = ms3.Add(m.Normals[f.A], n)
		m.Normals[f.B] = ms3.Add(m.Normals[f.B], n)
		m.Normals[f.C] = ms3.Add(m.Normals[f.C], n)
	}
	for i, n := range m.Normals {
		m.Normals[i] = safeUnit(n)
	}
	for i := range m.Faces {
		f := &m.Faces[i]
		f.VertexNormals = [3]ms3.Vec{m.Normals[f.A], m.Normals[f.B], m.Normals[f.C]}
	}
}

// Bounds returns the bounding box of all vertices of the mesh.
func (m *Mesh) Bounds() ms3.Box {
	if len(m.Vertices) == 0 {
		return ms3.Box{}
	}
	bb := ms3.Box{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, v := range m.Vertices[1:] {
		bb.Min = ms3.MinElem(bb.Min, v)
		bb.Max = ms3.MaxElem(bb.Max, v)
	}
	return bb
}

// AppendTriangles appends the positions of every face to dst in face order and returns the result.
func (m *Mesh) AppendTriangles(dst []ms3.Triangle) []ms3.Triangle {
	for i := range m.Faces {
		f := &m.Faces[i]
		dst = append(dst, ms3.Triangle{m.Vertices[f.A], m.Vertices[f.B], m.Vertices[f.C]})
	}
	return dst
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Vertices: append([]ms3.Vec(nil), m.Vertices...),
		Faces:    append([]Face(nil), m.Faces...),
		Normals:  append([]ms3.Vec(nil), m.Normals...),
	}
}

var errNoFaces = errors.New("mesh has no faces")

// Area returns the total surface area of the mesh.
func (m *Mesh) Area() (float32, error) {
	if len(m.Faces) == 0 {
		return 0, errNoFaces
	}
	var area float32
	for i := range m.Faces {
		area += ms3.Norm(m.crossFace(&m.Faces[i])) / 2
	}
	return area, nil
}

func safeUnit(v ms3.Vec) ms3.Vec {
	n := ms3.Norm(v)
	if n < epstol {
		return ms3.Vec{}
	}
	return ms3.Scale(1/n, v)
}
