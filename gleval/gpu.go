//go:build !tinygo && cgo

package gleval

import (
	"errors"
	"runtime"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/pcg/glbuild"
)

// Init1x1GLFW starts a 1x1 sized GLFW so that user can start working with GPU.
// It returns a termination function that should be called when user is done running loads on GPU.
func Init1x1GLFW() (terminate func(), err error) {
	_, terminate, err = glgl.InitWithCurrentWindow33(glgl.WindowConfig{
		Title:   "compute",
		Version: [2]int{4, 6},
		Width:   1,
		Height:  1,
	})
	return terminate, err
}

// NewComputeDisplacer compiles a [Displacer] that applies frags in order on the GPU.
// A GL context supporting compute shaders must be current, see [Init1x1GLFW].
func NewComputeDisplacer(cfg ComputeConfig, frags ...glbuild.Fragment) (*ComputeDisplacer, error) {
	src, err := ComputeSource(cfg, frags...)
	if err != nil {
		return nil, err
	}
	prog, err := glgl.CompileProgram(glgl.ShaderSource{Compute: string(src) + "\x00"})
	if err != nil {
		return nil, errors.New(string(src) + "\n" + err.Error())
	}
	return &ComputeDisplacer{prog: prog, invocX: cfg.InvocX}, nil
}

// ComputeDisplacer is a [Displacer] running a compiled compute shader.
type ComputeDisplacer struct {
	prog   glgl.Program
	invocX int
}

// Displace implements [Displacer].
func (cd *ComputeDisplacer) Displace(dst, pos []ms3.Vec, userData any) error {
	if len(dst) != len(pos) {
		return errMismatchBufferLength
	} else if len(pos) == 0 {
		return errEmptyBuffers
	} else if cd.prog.ID() == 0 {
		return errors.New("bad program compile or ComputeDisplacer not initialized before first use")
	}
	cd.prog.Bind()
	defer cd.prog.Unbind()
	var p runtime.Pinner
	var posSSBO, outSSBO uint32
	p.Pin(&posSSBO)
	p.Pin(&outSSBO)
	defer p.Unpin()
	posSSBO = loadSSBO(pos, 0, gl.STATIC_DRAW)
	if posSSBO == 0 {
		return glErrOrMessage("zero SSBO id set by GL during position loading")
	}
	defer gl.DeleteBuffers(1, &posSSBO)
	outSSBO = createSSBO(elemSize[ms3.Vec]()*len(dst), 1, gl.DYNAMIC_READ)
	if outSSBO == 0 {
		return glErrOrMessage("zero SSBO id creating displaced position buffer")
	}
	defer gl.DeleteBuffers(1, &outSSBO)
	nWorkX := (len(pos) + cd.invocX - 1) / cd.invocX
	gl.DispatchCompute(uint32(nWorkX), 1, 1)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)
	err := copySSBO(dst, outSSBO)
	if err != nil {
		return err
	}
	return glgl.Err()
}

// Delete releases the compiled program.
func (cd *ComputeDisplacer) Delete() {
	cd.prog.Delete()
}
