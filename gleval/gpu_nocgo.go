//go:build tinygo || !cgo

package gleval

import (
	"errors"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/pcg/glbuild"
)

var errNoCGO = errors.New("GPU evaluation requires CGo and is not supported on TinyGo")

// Init1x1GLFW starts a 1x1 sized GLFW so that user can start working with GPU.
func Init1x1GLFW() (terminate func(), err error) {
	return nil, errNoCGO
}

// NewComputeDisplacer compiles a [Displacer] that applies frags in order on the GPU.
func NewComputeDisplacer(cfg ComputeConfig, frags ...glbuild.Fragment) (*ComputeDisplacer, error) {
	return nil, errNoCGO
}

type ComputeDisplacer struct{}

func (cd *ComputeDisplacer) Displace(dst, pos []ms3.Vec, userData any) error {
	return errNoCGO
}

func (cd *ComputeDisplacer) Delete() {}
