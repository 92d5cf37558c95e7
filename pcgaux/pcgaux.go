package pcgaux

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"time"

	"github.com/soypat/pcg"
	"github.com/soypat/pcg/gleval"
	"github.com/soypat/pcg/glrender"
	"github.com/soypat/pcg/scene"
)

type RenderConfig struct {
	STLOutput    io.Writer
	OBJOutput    io.Writer
	ShaderOutput io.Writer
	// Displacer, if set, bakes the vertex displacement into the geometry written
	// to the STL and OBJ outputs. See [gleval.NewComputeDisplacer].
	Displacer gleval.Displacer
	Silent    bool
}

// Render is an auxiliary function to aid users in getting setup in using pcg quickly.
// It writes the mesh geometry as STL and/or OBJ and its material's vertex shader source.
func Render(m *scene.Mesh, cfg RenderConfig) (err error) {
	if cfg.STLOutput == nil && cfg.OBJOutput == nil && cfg.ShaderOutput == nil {
		return errors.New("Render requires output parameter in config")
	} else if m == nil || m.Geometry == nil {
		return errors.New("nil mesh or geometry")
	}
	log := func(args ...any) {
		if !cfg.Silent {
			fmt.Println(args...)
		}
	}
	geom := m.Geometry
	if cfg.Displacer != nil && (cfg.STLOutput != nil || cfg.OBJOutput != nil) {
		watch := stopwatch()
		geom, err = gleval.Bake(m.Geometry, cfg.Displacer, nil)
		if err != nil {
			return fmt.Errorf("baking displacement: %w", err)
		}
		log("baked", m.Displacements(), "displacements into", len(geom.Vertices), "vertices in", watch())
	}
	if cfg.STLOutput != nil {
		watch := stopwatch()
		renderer, err := glrender.NewMeshRenderer(geom)
		if err != nil {
			return err
		}
		triangles, err := glrender.RenderAll(renderer, nil)
		if err != nil {
			return fmt.Errorf("rendering triangles: %s", err)
		}
		_, err = glrender.WriteBinarySTL(cfg.STLOutput, triangles)
		if err != nil {
			return fmt.Errorf("writing STL file: %s", err)
		}
		log("wrote", outputName(cfg.STLOutput, "STL"), "with", len(triangles), "triangles in", watch())
	}

	if cfg.OBJOutput != nil {
		watch := stopwatch()
		err = glrender.WriteOBJ(cfg.OBJOutput, geom)
		if err != nil {
			return fmt.Errorf("writing OBJ file: %s", err)
		}
		log("wrote", outputName(cfg.OBJOutput, "OBJ"), "with", len(geom.Vertices), "vertices in", watch())
	}

	if cfg.ShaderOutput != nil {
		if m.Material == nil {
			return errors.New("mesh has no material")
		}
		_, err = io.WriteString(cfg.ShaderOutput, m.Material.VertexShader)
		if err != nil {
			return fmt.Errorf("writing vertex shader: %s", err)
		}
		log("wrote", outputName(cfg.ShaderOutput, "vertex shader"), "with", m.Displacements(), "displacements")
	}
	return nil
}

func outputName(w io.Writer, fallback string) string {
	if fp, ok := w.(*os.File); ok {
		return fp.Name()
	}
	return fallback
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

// RenderGridPNG renders the radius grid as an image and saves the result to a PNG file with said filename.
// Angles run along the horizontal axis and height along the vertical axis. The image width is twice the height.
// If a nil color conversion function is passed then one is automatically chosen.
func RenderGridPNG(filename string, grid pcg.RadiusGrid, picHeight int, colorConversion func(float32) color.Color) error {
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	err = WriteGridPNG(fp, grid, picHeight, colorConversion)
	if err != nil {
		return err
	}
	return fp.Sync()
}

// WriteGridPNG is like [RenderGridPNG] but encodes the PNG to w.
func WriteGridPNG(w io.Writer, grid pcg.RadiusGrid, picHeight int, colorConversion func(float32) color.Color) error {
	err := grid.Validate()
	if err != nil {
		return err
	}
	if colorConversion == nil {
		colorConversion = ColorConversionLinearGradient(grid.MaxRadius(), color.Black, color.White)
	}
	return glrender.EncodeGridPNG(w, grid, picHeight, colorConversion)
}

type UIConfig struct {
	Width, Height int
	// Context cancels the preview loop when done.
	Context context.Context
}

// UI opens a window previewing the mesh drawn with its material's vertex shader.
// Requires cgo. Only Lambert materials are supported.
func UI(m *scene.Mesh, cfg UIConfig) error {
	if m == nil || m.Geometry == nil || m.Material == nil {
		return errors.New("UI requires mesh with geometry and material")
	} else if cfg.Width <= 0 || cfg.Height <= 0 {
		return errors.New("UI requires positive window dimensions")
	}
	return ui(m, cfg)
}
