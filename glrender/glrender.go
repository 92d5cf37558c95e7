package glrender

import (
	"errors"
	"io"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/pcg"
)

type Renderer interface {
	ReadTriangles(dst []ms3.Triangle, userData any) (n int, err error)
}

// RenderAll reads the full contents of a Renderer and returns the slice read.
// It does not return error on io.EOF, like the io.RenderAll implementation.
func RenderAll(r Renderer, userData any) ([]ms3.Triangle, error) {
	const startSize = 4096
	var err error
	var nt int
	result := make([]ms3.Triangle, 0, startSize)
	buf := make([]ms3.Triangle, startSize)
	for {
		nt, err = r.ReadTriangles(buf, userData)
		if err == nil || err == io.EOF {
			result = append(result, buf[:nt]...)
		}
		if err != nil {
			break
		}
	}
	if err == io.EOF {
		return result, nil
	}
	return result, err
}

// MeshRenderer reads the faces of a [pcg.Mesh] as triangles.
type MeshRenderer struct {
	m    *pcg.Mesh
	next int
}

var _ Renderer = (*MeshRenderer)(nil)

// NewMeshRenderer returns a Renderer over the faces of m in face order.
func NewMeshRenderer(m *pcg.Mesh) (*MeshRenderer, error) {
	if m == nil {
		return nil, errors.New("nil mesh")
	}
	err := m.Validate()
	if err != nil {
		return nil, err
	}
	return &MeshRenderer{m: m}, nil
}

// Reset rewinds the renderer to the first face.
func (mr *MeshRenderer) Reset() { mr.next = 0 }

// ReadTriangles reads up to len(dst) triangles. It returns io.EOF once all faces were read.
func (mr *MeshRenderer) ReadTriangles(dst []ms3.Triangle, userData any) (n int, err error) {
	if len(dst) == 0 {
		return 0, errors.New("zero length triangle buffer")
	}
	faces := mr.m.Faces[mr.next:]
	verts := mr.m.Vertices
	for n < len(dst) && n < len(faces) {
		f := &faces[n]
		dst[n] = ms3.Triangle{verts[f.A], verts[f.B], verts[f.C]}
		n++
	}
	mr.next += n
	if mr.next >= len(mr.m.Faces) {
		return n, io.EOF
	}
	return n, nil
}
