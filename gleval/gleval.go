// Package gleval evaluates vertex displacements over mesh positions so that the
// displacement a material applies on the GPU can be baked into exported geometry.
package gleval

import (
	"errors"
	"strconv"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/pcg"
	"github.com/soypat/pcg/glbuild"
)

// Displacer displaces vertex positions in vectorized form suitable for running on GPU.
type Displacer interface {
	// Displace stores the displaced position of each pos element in dst.
	// dst and pos must be of same length and may alias.
	//
	// userData facilitates getting data to the evaluators for use in processing.
	Displace(dst, pos []ms3.Vec, userData any) error
}

// DisplacerFunc is a [Displacer] evaluated on the CPU one position at a time.
type DisplacerFunc func(p ms3.Vec) ms3.Vec

// Displace implements [Displacer].
func (fn DisplacerFunc) Displace(dst, pos []ms3.Vec, userData any) error {
	if len(dst) != len(pos) {
		return errMismatchBufferLength
	} else if len(pos) == 0 {
		return errEmptyBuffers
	}
	for i, p := range pos {
		dst[i] = fn(p)
	}
	return nil
}

// ComputeConfig configures GPU compute dispatch.
type ComputeConfig struct {
	// InvocX is the local work group size along x. One invocation processes one vertex.
	InvocX int
}

var (
	errEmptyBuffers         = errors.New("empty buffers")
	errMismatchBufferLength = errors.New("position and displacement buffer length mismatch")
)

// Bake returns a copy of m with every vertex displaced by d. Face topology and UVs are
// kept and centroids, face normals and vertex normals are recomputed for the new positions.
func Bake(m *pcg.Mesh, d Displacer, userData any) (*pcg.Mesh, error) {
	if m == nil || d == nil {
		return nil, errors.New("nil mesh or displacer")
	}
	err := m.Validate()
	if err != nil {
		return nil, err
	}
	baked := m.Clone()
	if len(baked.Vertices) == 0 {
		return baked, nil
	}
	err = d.Displace(baked.Vertices, m.Vertices, userData)
	if err != nil {
		return nil, err
	}
	baked.ComputeCentroids()
	baked.ComputeFaceNormals()
	baked.ComputeVertexNormals(false)
	return baked, nil
}

// ComputeTemplate returns the compute shader template that applies displacement fragments
// to positions packed as consecutive floats in buffer binding 0, writing the
// displaced positions to buffer binding 1.
func ComputeTemplate(invocX int) glbuild.Template {
	var prologue []byte
	prologue = append(prologue, "#version 430\nlayout(local_size_x = "...)
	prologue = strconv.AppendInt(prologue, int64(invocX), 10)
	prologue = append(prologue, computePrologue...)
	return glbuild.Template{
		Prologue: string(prologue),
		Body:     computeBody,
	}.WithDefaultSplice()
}

// ComputeSource composes the displacement compute shader for frags.
// Fragments are validated as they are for vertex shaders.
func ComputeSource(cfg ComputeConfig, frags ...glbuild.Fragment) ([]byte, error) {
	if cfg.InvocX < 1 {
		return nil, errors.New("zero or negative invocation size")
	}
	return glbuild.NewDefaultComposer().AppendVertexShader(nil, ComputeTemplate(cfg.InvocX), frags...)
}

const computePrologue = `, local_size_y = 1, local_size_z = 1) in;

// Undisplaced positions as x,y,z triplets.
layout(std430, binding = 0) buffer PositionBuffer {
	float vbo_pos[];
};

// Displaced positions as x,y,z triplets.
layout(std430, binding = 1) buffer DisplacedBuffer {
	float vbo_out[];
};

void main() {
int idx = 3 * int( gl_GlobalInvocationID.x );
if ( idx + 2 >= vbo_pos.length() ) {
	return;
}
vec3 position = vec3( vbo_pos[idx], vbo_pos[idx+1], vbo_pos[idx+2] );
`

const computeBody = `vbo_out[idx] = displacedPosition.x;
vbo_out[idx+1] = displacedPosition.y;
vbo_out[idx+2] = displacedPosition.z;
}
`
