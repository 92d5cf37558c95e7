package pcg_test

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/pcg"
)

const tol = 1e-5

func TestBuilderErrors(t *testing.T) {
	bld := pcg.Builder{NoDimensionPanic: true}
	m := bld.NewLathe(pcg.RadiusGrid{{1}}, 1, 1)
	if m == nil {
		t.Error("expecting non-nil mesh")
	}
	if bld.Err() == nil {
		t.Error("expecting error in pcg")
	}
	var gerr *pcg.MalformedGridError
	if !errors.As(bld.Err(), &gerr) {
		t.Errorf("expected MalformedGridError, got %T", bld.Err())
	}
	bld.ClearErrors()
	if bld.Err() != nil {
		t.Error("expected builder error to be cleared")
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic with default builder")
		}
	}()
	var panicky pcg.Builder
	panicky.NewLathe(nil, 1, 1)
}

func TestLatheCounts(t *testing.T) {
	for _, test := range []struct {
		segments, points int
	}{
		{1, 2}, {2, 2}, {3, 2}, {4, 3}, {8, 5}, {32, 16},
	} {
		grid, err := pcg.UniformGrid(test.segments, test.points, 1)
		if err != nil {
			t.Fatal(err)
		}
		m, err := pcg.BuildLathe(grid, 1, 1)
		if err != nil {
			t.Fatal(err)
		}
		S, P := test.segments, test.points
		wantVerts := (S+1)*P + 2
		wantFaces := 2*S*(P-1) + 2*S
		if len(m.Vertices) != wantVerts {
			t.Errorf("S=%d P=%d: want %d raw vertices, got %d", S, P, wantVerts, len(m.Vertices))
		}
		if len(m.Faces) != wantFaces {
			t.Errorf("S=%d P=%d: want %d raw faces, got %d", S, P, wantFaces, len(m.Faces))
		}
		if err := m.Validate(); err != nil {
			t.Error(err)
		}
		for i := range m.Faces {
			isCap := m.Faces[i].A >= (S+1)*P || m.Faces[i].B >= (S+1)*P || m.Faces[i].C >= (S+1)*P
			if m.Faces[i].HasUV == isCap {
				t.Errorf("S=%d P=%d: face %d HasUV=%v cap=%v", S, P, i, m.Faces[i].HasUV, isCap)
				break
			}
		}
	}
}

func TestLatheScenario(t *testing.T) {
	grid := pcg.RadiusGrid{{1, 1}, {1, 1}, {1, 1}}
	raw, err := pcg.BuildLathe(grid, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw.Vertices) != 10 || len(raw.Faces) != 12 {
		t.Errorf("want 10 raw vertices and 12 faces, got %d and %d", len(raw.Vertices), len(raw.Faces))
	}
	top := raw.Vertices[len(raw.Vertices)-1]
	bottom := raw.Vertices[len(raw.Vertices)-2]
	if bottom != (ms3.Vec{}) || top != (ms3.Vec{Y: 6}) {
		t.Errorf("unexpected poles bottom=%v top=%v", bottom, top)
	}
	for _, v := range raw.Vertices[:8] {
		r := math32.Hypot(v.X, v.Z)
		if math32.Abs(r-2) > tol {
			t.Errorf("vertex %v radius %v, want 2", v, r)
		}
		if v.Y != 0 && math32.Abs(v.Y-6) > tol {
			t.Errorf("vertex %v height not in {0, 6}", v)
		}
	}

	m, err := pcg.NewLathe(grid, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Vertices) != 8 || len(m.Faces) != 12 {
		t.Errorf("want 8 finalized vertices and 12 faces, got %d and %d", len(m.Vertices), len(m.Faces))
	}
	if len(m.Normals) != len(m.Vertices) {
		t.Errorf("want %d vertex normals, got %d", len(m.Vertices), len(m.Normals))
	}
}

func TestLatheSeamClosure(t *testing.T) {
	var bld pcg.Builder
	grid := bld.NewRadiusGrid(7, 4, func(phi, v float32) float32 { return 1 + v + 0.1*phi })
	raw, err := pcg.BuildLathe(grid, 1.5, 2)
	if err != nil {
		t.Fatal(err)
	}
	const np = 4
	first := raw.Vertices[:np]        // Angle index 7, wraps to ring 0.
	last := raw.Vertices[7*np : 8*np] // Angle index 0.
	for j := range first {
		if ms3.Norm(ms3.Sub(first[j], last[j])) > tol {
			t.Errorf("seam vertex %d not closed: %v != %v", j, first[j], last[j])
		}
	}

	m, err := pcg.NewLathe(grid, 1.5, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := 7*np + 2
	if len(m.Vertices) != want {
		t.Errorf("want %d vertices after merging seam, got %d", want, len(m.Vertices))
	}
}

func TestLatheScaleHeight(t *testing.T) {
	grid, err := pcg.NewRadiusGrid(6, 5, func(phi, v float32) float32 { return 0.5 + v*v })
	if err != nil {
		t.Fatal(err)
	}
	base, _ := pcg.BuildLathe(grid, 1, 1)
	scaled, _ := pcg.BuildLathe(grid, 3, 1)
	tall, _ := pcg.BuildLathe(grid, 1, 4)
	for i, v := range base.Vertices {
		if ms3.Norm(ms3.Sub(ms3.Scale(3, v), scaled.Vertices[i])) > tol {
			t.Fatalf("vertex %d: scale not linear: %v vs %v", i, v, scaled.Vertices[i])
		}
		got := tall.Vertices[i]
		if math32.Abs(got.Y-4*v.Y) > tol || math32.Abs(got.X-v.X) > tol || math32.Abs(got.Z-v.Z) > tol {
			t.Fatalf("vertex %d: height must only scale Y: %v vs %v", i, v, got)
		}
	}
	bb := tall.Bounds()
	if math32.Abs(bb.Max.Y-4) > tol || bb.Min.Y != 0 {
		t.Errorf("unexpected height bounds %v", bb)
	}
}

func TestLatheCollapsedGrid(t *testing.T) {
	grid, _ := pcg.UniformGrid(5, 3, 0)
	m, err := pcg.NewLathe(grid, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	// All ring vertices collapse onto the axis: three heights, poles coincide with two of them.
	if len(m.Vertices) != 3 {
		t.Errorf("want 3 vertices on the axis, got %d", len(m.Vertices))
	}
	if len(m.Faces) != 0 {
		t.Errorf("want all faces degenerate and removed, got %d", len(m.Faces))
	}
	_, err = m.Area()
	if err == nil {
		t.Error("expected error computing area of mesh without faces")
	}
}

func TestLatheNormalsOutward(t *testing.T) {
	grid, _ := pcg.UniformGrid(24, 6, 1)
	m, err := pcg.NewLathe(grid, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i := range m.Faces {
		f := &m.Faces[i]
		c := f.Centroid
		var outward ms3.Vec
		switch {
		case !f.HasUV && c.Y < 1:
			outward = ms3.Vec{Y: -1}
		case !f.HasUV:
			outward = ms3.Vec{Y: 1}
		default:
			outward = ms3.Vec{X: c.X, Z: c.Z}
		}
		if ms3.Dot(f.Normal, outward) <= 0 {
			t.Fatalf("face %d normal %v points inward at centroid %v", i, f.Normal, c)
		}
		if math32.Abs(ms3.Norm(f.Normal)-1) > tol {
			t.Fatalf("face %d normal not unit: %v", i, f.Normal)
		}
	}
	for i, n := range m.Normals {
		if math32.Abs(ms3.Norm(n)-1) > tol {
			t.Fatalf("vertex normal %d not unit: %v", i, n)
		}
	}
	area, err := m.Area()
	if err != nil {
		t.Fatal(err)
	}
	// Polygonal approximation of cylinder side plus both caps.
	want := 2*math32.Pi*2 + 2*math32.Pi
	if area > want || area < 0.95*want {
		t.Errorf("area %v not close to %v", area, want)
	}
}

func TestMalformedGrid(t *testing.T) {
	nan := math32.NaN()
	for _, test := range []struct {
		name     string
		grid     pcg.RadiusGrid
		scale    float32
		height   float32
		row, col int
	}{
		{name: "empty", grid: nil, scale: 1, height: 1, row: -1, col: -1},
		{name: "one point", grid: pcg.RadiusGrid{{1}, {1}}, scale: 1, height: 1, row: 0, col: -1},
		{name: "ragged", grid: pcg.RadiusGrid{{1, 1}, {1, 1, 1}}, scale: 1, height: 1, row: 1, col: -1},
		{name: "negative radius", grid: pcg.RadiusGrid{{1, 1}, {1, -1}}, scale: 1, height: 1, row: 1, col: 1},
		{name: "NaN radius", grid: pcg.RadiusGrid{{nan, 1}}, scale: 1, height: 1, row: 0, col: 0},
		{name: "negative scale", grid: pcg.RadiusGrid{{1, 1}}, scale: -1, height: 1, row: -1, col: -1},
		{name: "NaN height", grid: pcg.RadiusGrid{{1, 1}}, scale: 1, height: nan, row: -1, col: -1},
	} {
		_, err := pcg.BuildLathe(test.grid, test.scale, test.height)
		var gerr *pcg.MalformedGridError
		if !errors.As(err, &gerr) {
			t.Errorf("%s: want MalformedGridError, got %v", test.name, err)
			continue
		}
		if gerr.Row != test.row || gerr.Col != test.col {
			t.Errorf("%s: want error at [%d][%d], got [%d][%d]: %s", test.name, test.row, test.col, gerr.Row, gerr.Col, gerr)
		}
	}
}

func TestMergeVertices(t *testing.T) {
	m := &pcg.Mesh{
		Vertices: []ms3.Vec{
			{X: 0, Y: 0, Z: 0},
			{X: 1, Y: 0, Z: 0},
			{X: 0, Y: 1, Z: 0},
			{X: 1.00001, Y: 0, Z: 0}, // Within 4 decimal digits of vertex 1.
			{X: 0, Y: 1, Z: 0},
		},
		Faces: []pcg.Face{
			{A: 0, B: 1, C: 2},
			{A: 0, B: 3, C: 4},
			{A: 1, B: 3, C: 2}, // Degenerate after merge.
		},
	}
	exact := m.Clone()
	removed := m.MergeVertices(pcg.DefaultMergePrecision)
	if removed != 2 || len(m.Vertices) != 3 {
		t.Errorf("want 2 removed and 3 vertices, got %d and %d", removed, len(m.Vertices))
	}
	if len(m.Faces) != 2 {
		t.Errorf("want degenerate face removed leaving 2, got %d", len(m.Faces))
	}
	for i := range m.Faces {
		if m.Faces[i].Indices() != [3]int{0, 1, 2} {
			t.Errorf("face %d remapped to %v", i, m.Faces[i].Indices())
		}
	}

	removed = exact.MergeVertices(-1)
	if removed != 1 || len(exact.Vertices) != 4 {
		t.Errorf("exact merge: want 1 removed and 4 vertices, got %d and %d", removed, len(exact.Vertices))
	}
}

func TestMergeLargeScale(t *testing.T) {
	grid, err := pcg.UniformGrid(8, 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := pcg.BuildLathe(grid, 1e16, 1)
	if err != nil {
		t.Fatal(err)
	}
	m, err := pcg.NewLathe(grid, 1e16, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Faces) != len(raw.Faces) {
		t.Errorf("merge removed faces of a large mesh: %d of %d left", len(m.Faces), len(raw.Faces))
	}
	// Only seam vertices may merge.
	if len(m.Vertices) < len(raw.Vertices)-grid.PointsPerRing() {
		t.Errorf("too many vertices merged: %d of %d left", len(m.Vertices), len(raw.Vertices))
	}

	// Coordinates overflowing float32 when quantized are still told apart.
	huge := &pcg.Mesh{Vertices: []ms3.Vec{{X: 3e38}, {X: 2e38}, {X: 3e38}}}
	if removed := huge.MergeVertices(pcg.DefaultMergePrecision); removed != 1 {
		t.Errorf("want only the repeated huge vertex merged, got %d removed", removed)
	}
}

func TestTinyScaleCollapses(t *testing.T) {
	grid, _ := pcg.UniformGrid(8, 4, 1)
	m, err := pcg.NewLathe(grid, 1e-5, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Faces) != 0 {
		t.Errorf("lathe below merge precision should collapse, got %d faces", len(m.Faces))
	}
}

func TestVertexNormalsUnweighted(t *testing.T) {
	bld := pcg.Builder{}
	// Unequal cap radii make area weighted and unweighted normals differ.
	grid := bld.NewRadiusGrid(6, 4, func(_, v float32) float32 { return 1 + v })
	m := bld.NewLathe(grid, 1, 3)
	sums := make([]ms3.Vec, len(m.Vertices))
	for i := range m.Faces {
		f := &m.Faces[i]
		for _, idx := range f.Indices() {
			sums[idx] = ms3.Add(sums[idx], f.Normal)
		}
	}
	for i, sum := range sums {
		want := ms3.Unit(sum)
		if ms3.Norm(ms3.Sub(m.Normals[i], want)) > tol {
			t.Fatalf("vertex %d normal %v, want unweighted %v", i, m.Normals[i], want)
		}
	}
	weighted := m.Clone()
	weighted.ComputeVertexNormals(true)
	var differ bool
	for i := range m.Normals {
		differ = differ || ms3.Norm(ms3.Sub(m.Normals[i], weighted.Normals[i])) > 1e-3
	}
	if !differ {
		t.Error("area weighting had no effect, test grid does not discriminate")
	}
}

func TestDisplaceGrid(t *testing.T) {
	bld := pcg.Builder{NoDimensionPanic: true}
	grid, _ := pcg.UniformGrid(4, 3, 2)
	out := bld.Displace(grid, 0.5, func(phi, v float32) float32 { return v - 3 })
	if err := bld.Err(); err != nil {
		t.Fatal(err)
	}
	if grid[0][0] != 2 {
		t.Error("Displace modified input grid")
	}
	// 2*(1+0.5*(0-3)) is negative and clamped.
	if out[0][0] != 0 {
		t.Errorf("want clamped radius 0, got %v", out[0][0])
	}
	if out[1][2] != 2*(1+0.5*(1-3)) {
		t.Errorf("unexpected displaced radius %v", out[1][2])
	}
	for _, amount := range []float32{math32.Inf(1), math32.NaN()} {
		bld.ClearErrors()
		out = bld.Displace(grid, amount, func(phi, v float32) float32 { return 1 })
		if bld.Err() == nil {
			t.Errorf("expected error for amount %v", amount)
		}
		if out != nil {
			t.Errorf("want no grid for amount %v, got %v", amount, out)
		}
	}
}

func TestRadiusGridSampling(t *testing.T) {
	var phis, vs []float32
	grid, err := pcg.NewRadiusGrid(4, 3, func(phi, v float32) float32 {
		phis = append(phis, phi)
		vs = append(vs, v)
		return 1
	})
	if err != nil {
		t.Fatal(err)
	}
	if grid.Segments() != 4 || grid.PointsPerRing() != 3 || grid.MaxRadius() != 1 {
		t.Errorf("unexpected grid dimensions %d x %d", grid.Segments(), grid.PointsPerRing())
	}
	if phis[len(phis)-1] >= 2*math32.Pi {
		t.Error("angle sampling must exclude 2π")
	}
	if vs[0] != 0 || vs[2] != 1 {
		t.Errorf("height samples must span [0,1], got %v", vs[:3])
	}
	_, err = pcg.NewRadiusGrid(0, 3, func(phi, v float32) float32 { return 1 })
	if err == nil {
		t.Error("expected error for zero segments")
	}
}
