package pcg

import (
	"fmt"

	"github.com/chewxy/math32"
)

// RadiusGrid contains the radius of a lathed solid sampled around and along its axis.
// RadiusGrid[i][j] is the radius at angle i/len(RadiusGrid)*2π and at normalized
// height j/(len(RadiusGrid[i])-1). All rows must have the same length.
type RadiusGrid [][]float32

// MalformedGridError is returned when a [RadiusGrid] or the scalar parameters
// accompanying it can not describe a lathe mesh.
type MalformedGridError struct {
	// Row is the offending angle index or -1 if the error is not specific to a row.
	Row int
	// Col is the offending height index or -1 if the error is not specific to a sample.
	Col    int
	Reason string
}

func (e *MalformedGridError) Error() string {
	switch {
	case e.Row >= 0 && e.Col >= 0:
		return fmt.Sprintf("malformed radius grid at [%d][%d]: %s", e.Row, e.Col, e.Reason)
	case e.Row >= 0:
		return fmt.Sprintf("malformed radius grid row %d: %s", e.Row, e.Reason)
	}
	return "malformed radius grid: " + e.Reason
}

func gridErr(row, col int, format string, args ...any) *MalformedGridError {
	return &MalformedGridError{Row: row, Col: col, Reason: fmt.Sprintf(format, args...)}
}

// Segments returns the number of angular samples (rings) in the grid.
func (g RadiusGrid) Segments() int { return len(g) }

// PointsPerRing returns the number of height samples per ring. It returns 0 for an empty grid.
func (g RadiusGrid) PointsPerRing() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Validate checks the grid has at least one ring, at least two height samples per ring,
// rings of equal length and finite non-negative radii. It returns a *[MalformedGridError] on failure.
func (g RadiusGrid) Validate() error {
	if len(g) == 0 {
		return gridErr(-1, -1, "zero segments")
	}
	np := len(g[0])
	if np < 2 {
		return gridErr(0, -1, "need at least 2 height samples, got %d", np)
	}
	for i, ring := range g {
		if len(ring) != np {
			return gridErr(i, -1, "ring length %d differs from first ring length %d", len(ring), np)
		}
		for j, r := range ring {
			if r < 0 || math32.IsNaN(r) || math32.IsInf(r, 0) {
				return gridErr(i, j, "invalid radius %v", r)
			}
		}
	}
	return nil
}

// MaxRadius returns the largest radius in the grid.
func (g RadiusGrid) MaxRadius() (max float32) {
	for _, ring := range g {
		for _, r := range ring {
			max = maxf(max, r)
		}
	}
	return max
}

// NewRadiusGrid creates a grid of segments rings with points height samples each.
// fn is evaluated at angle phi in [0, 2π) and normalized height v in [0, 1].
func NewRadiusGrid(segments, points int, fn func(phi, v float32) float32) (RadiusGrid, error) {
	if segments < 1 {
		return nil, gridErr(-1, -1, "zero or negative segments %d", segments)
	} else if points < 2 {
		return nil, gridErr(-1, -1, "need at least 2 height samples, got %d", points)
	}
	invSeg := 1 / float32(segments)
	invPts := 1 / float32(points-1)
	// Single backing array keeps all rings contiguous.
	data := make([]float32, segments*points)
	grid := make(RadiusGrid, segments)
	for i := range grid {
		phi := float32(i) * invSeg * twoPi
		ring := data[i*points : (i+1)*points : (i+1)*points]
		for j := range ring {
			ring[j] = fn(phi, float32(j)*invPts)
		}
		grid[i] = ring
	}
	return grid, grid.Validate()
}

// UniformGrid returns a grid describing a cylinder of radius r.
func UniformGrid(segments, points int, r float32) (RadiusGrid, error) {
	return NewRadiusGrid(segments, points, func(_, _ float32) float32 { return r })
}
