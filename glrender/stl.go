package glrender

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"strconv"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/pcg"
)

const (
	stlHeaderSize   = 80
	stlTriangleSize = 50
)

// WriteBinarySTL writes triangles in binary STL format to w. Normals are computed from
// triangle winding. It returns the number of bytes written.
func WriteBinarySTL(w io.Writer, triangles []ms3.Triangle) (int, error) {
	if len(triangles) > math.MaxUint32 {
		return 0, errors.New("too many triangles for STL")
	}
	var header [stlHeaderSize + 4]byte
	copy(header[:], "binary STL generated by pcg")
	binary.LittleEndian.PutUint32(header[stlHeaderSize:], uint32(len(triangles)))
	n, err := w.Write(header[:])
	if err != nil {
		return n, err
	}
	var buf [stlTriangleSize]byte
	for _, t := range triangles {
		normal := triangleNormal(t)
		putVec(buf[0:], normal)
		putVec(buf[12:], t[0])
		putVec(buf[24:], t[1])
		putVec(buf[36:], t[2])
		// Attribute byte count left at zero.
		ngot, err := w.Write(buf[:])
		n += ngot
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func putVec(b []byte, v ms3.Vec) {
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(v.X))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(v.Z))
}

func triangleNormal(t ms3.Triangle) ms3.Vec {
	n := ms3.Cross(ms3.Sub(t[1], t[0]), ms3.Sub(t[2], t[0]))
	norm := ms3.Norm(n)
	if norm == 0 {
		return ms3.Vec{}
	}
	return ms3.Scale(1/norm, n)
}

// WriteOBJ writes m in Wavefront OBJ format to w. Texture coordinates are written per
// UV mapped face and vertex normals are written if computed. OBJ indices are 1 based.
func WriteOBJ(w io.Writer, m *pcg.Mesh) error {
	err := m.Validate()
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	var b []byte
	for _, v := range m.Vertices {
		b = appendOBJLine(b[:0], "v", v.X, v.Y, v.Z)
		bw.Write(b)
	}
	hasNormals := len(m.Normals) == len(m.Vertices) && len(m.Normals) > 0
	if hasNormals {
		for _, n := range m.Normals {
			b = appendOBJLine(b[:0], "vn", n.X, n.Y, n.Z)
			bw.Write(b)
		}
	}
	uvIdx := 1
	for i := range m.Faces {
		f := &m.Faces[i]
		if !f.HasUV {
			continue
		}
		for _, uv := range f.UV {
			b = appendOBJLine(b[:0], "vt", uv.X, uv.Y)
			bw.Write(b)
		}
	}
	for i := range m.Faces {
		f := &m.Faces[i]
		b = append(b[:0], 'f')
		for k, idx := range f.Indices() {
			b = append(b, ' ')
			b = strconv.AppendInt(b, int64(idx+1), 10)
			switch {
			case f.HasUV && hasNormals:
				b = append(b, '/')
				b = strconv.AppendInt(b, int64(uvIdx+k), 10)
				b = append(b, '/')
				b = strconv.AppendInt(b, int64(idx+1), 10)
			case f.HasUV:
				b = append(b, '/')
				b = strconv.AppendInt(b, int64(uvIdx+k), 10)
			case hasNormals:
				b = append(b, "//"...)
				b = strconv.AppendInt(b, int64(idx+1), 10)
			}
		}
		if f.HasUV {
			uvIdx += 3
		}
		b = append(b, '\n')
		bw.Write(b)
	}
	return bw.Flush()
}

func appendOBJLine(b []byte, kind string, vals ...float32) []byte {
	b = append(b, kind...)
	for _, v := range vals {
		b = append(b, ' ')
		b = strconv.AppendFloat(b, float64(v), 'g', -1, 32)
	}
	return append(b, '\n')
}
