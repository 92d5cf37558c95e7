package pcg

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

const (
	// DefaultMergePrecision is the number of decimal digits vertex positions are
	// rounded to before comparison in [Mesh.MergeVertices]. Matches the convention of
	// the browser scene library the meshes are consumed by.
	DefaultMergePrecision = 4
	twoPi                 = 2 * math32.Pi
	// epstol is used to check for badly conditioned normal lengths.
	epstol = 6e-7
)

// Builder wraps all lathe mesh generation logic.
// Provides error handling strategies with panics or error accumulation during mesh generation.
type Builder struct {
	NoDimensionPanic bool
	accumErrs        []error
}

// Err returns all errors accumulated by the Builder joined, or nil if no errors were found.
func (bld *Builder) Err() error {
	if len(bld.accumErrs) == 0 {
		return nil
	}
	return errors.Join(bld.accumErrs...)
}

// ClearErrors clears accumulated errors such that [Builder.Err] returns nil on next call.
func (bld *Builder) ClearErrors() {
	bld.accumErrs = bld.accumErrs[:0]
}

func (bld *Builder) shapeErr(err error) {
	if !bld.NoDimensionPanic {
		panic(err.Error())
	}
	bld.accumErrs = append(bld.accumErrs, err)
}

func (bld *Builder) shapeErrorf(msg string, args ...any) {
	bld.shapeErr(fmt.Errorf(msg, args...))
}

// NewLathe creates a finalized lathe mesh. See [NewLathe].
// On error an empty non-nil mesh is returned and the error is handled according to the Builder's strategy.
func (bld *Builder) NewLathe(grid RadiusGrid, scale, height float32) *Mesh {
	m, err := NewLathe(grid, scale, height)
	if err != nil {
		bld.shapeErr(err)
		return &Mesh{}
	}
	return m
}

// NewRadiusGrid samples fn over a grid of segments angles and points heights. See [NewRadiusGrid].
func (bld *Builder) NewRadiusGrid(segments, points int, fn func(phi, v float32) float32) RadiusGrid {
	if fn == nil {
		panic("nil radius function")
	}
	grid, err := NewRadiusGrid(segments, points, fn)
	if err != nil {
		bld.shapeErr(err)
	}
	return grid
}

// Displace returns a copy of the grid with radii scaled by 1+amount*fn(phi,v).
// Resulting negative radii are clamped to zero.
func (bld *Builder) Displace(grid RadiusGrid, amount float32, fn func(phi, v float32) float32) RadiusGrid {
	if fn == nil {
		panic("nil displacement function")
	}
	if err := grid.Validate(); err != nil {
		bld.shapeErr(err)
		return nil
	}
	if math32.IsNaN(amount) || math32.IsInf(amount, 0) {
		bld.shapeErrorf("non-finite displacement amount %v", amount)
		return nil
	}
	segments, points := grid.Segments(), grid.PointsPerRing()
	out := make(RadiusGrid, segments)
	invSeg := 1 / float32(segments)
	invPts := 1 / float32(points-1)
	for i := range grid {
		phi := float32(i) * invSeg * twoPi
		out[i] = make([]float32, points)
		for j, r := range grid[i] {
			out[i][j] = maxf(0, r*(1+amount*fn(phi, float32(j)*invPts)))
		}
	}
	return out
}

func maxf(a, b float32) float32 {
	return math32.Max(a, b)
}
