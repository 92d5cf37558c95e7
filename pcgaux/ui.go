//go:build !tinygo && cgo

package pcgaux

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/pcg/glbuild/glsllib"
	"github.com/soypat/pcg/material"
	"github.com/soypat/pcg/scene"
)

func ui(m *scene.Mesh, cfg UIConfig) error {
	if m.Material.Variant != material.VariantLambert {
		return fmt.Errorf("UI does not support %s materials", m.Material.Variant)
	}
	bb := m.Geometry.Bounds()
	diag := bb.Diagonal()
	center := bb.Center()
	window, term, err := startGLFW(cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	defer term()

	vertSrc := glsllib.DesktopVertexPrefix() + m.Material.VertexShader + "\x00"
	fragSrc := glsllib.DesktopFragmentPrefix() + m.Material.FragmentShader + "\x00"
	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   vertSrc,
		Fragment: fragSrc,
	})
	if err != nil {
		return fmt.Errorf("%s\n\n%w", vertSrc, err)
	}
	defer prog.Delete()
	prog.Bind()

	positions, normals, uvs := meshAttributes(m)
	nverts := int32(len(positions) / 3)
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	for _, attr := range []struct {
		name string
		size int32
		data []float32
	}{
		{name: "position\x00", size: 3, data: positions},
		{name: "normal\x00", size: 3, data: normals},
		{name: "uv\x00", size: 2, data: uvs},
	} {
		loc, err := prog.AttribLocation(attr.name)
		if err != nil {
			// Attribute optimized out by the GLSL compiler.
			continue
		}
		var vbo uint32
		gl.GenBuffers(1, &vbo)
		gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
		gl.BufferData(gl.ARRAY_BUFFER, 4*len(attr.data), gl.Ptr(attr.data), gl.STATIC_DRAW)
		gl.EnableVertexAttribArray(loc)
		gl.VertexAttribPointer(loc, attr.size, gl.FLOAT, false, 0, gl.PtrOffset(0))
	}

	uniform := func(name string) int32 {
		loc, err := prog.UniformLocation(name + "\x00")
		if err != nil {
			return -1 // Uniform calls on -1 are ignored by OpenGL.
		}
		return loc
	}
	setMaterialUniforms(uniform, m.Material.Uniforms)
	gl.Uniform3f(uniform("ambientLightColor"), 0.2, 0.2, 0.2)
	gl.Uniform3f(uniform("directionalLightColor[0]"), 1, 1, 1)
	lightDir := mgl32.Vec3{1, 1, 1}.Normalize()
	gl.Uniform3fv(uniform("directionalLightDirection[0]"), 1, &lightDir[0])
	modelLoc := uniform("modelMatrix")
	modelViewLoc := uniform("modelViewMatrix")
	projLoc := uniform("projectionMatrix")
	viewLoc := uniform("viewMatrix")
	normalLoc := uniform("normalMatrix")
	camLoc := uniform("cameraPosition")

	gl.Enable(gl.DEPTH_TEST)
	if err := glgl.Err(); err != nil {
		return err
	}

	minZoom := float64(diag * 0.01)
	maxZoom := float64(diag * 10)
	var (
		yaw              float64
		pitch            float64 = 0.3
		lastMouseX       float64
		lastMouseY       float64
		camDist          float64 = 1.5 * float64(diag)
		firstMouseMove           = true
		isMousePressed           = false
		yawSensitivity           = 0.005
		pitchSensitivity         = 0.005
		refresh                  = true
	)
	window.SetCursorPosCallback(func(w *glfw.Window, xpos float64, ypos float64) {
		if !isMousePressed {
			return
		}
		refresh = true
		if firstMouseMove {
			lastMouseX = xpos
			lastMouseY = ypos
			firstMouseMove = false
		}
		yaw += (xpos - lastMouseX) * yawSensitivity
		pitch += (ypos - lastMouseY) * pitchSensitivity
		maxPitch := math.Pi/2 - 0.01
		pitch = math.Max(-maxPitch, math.Min(maxPitch, pitch))
		lastMouseX = xpos
		lastMouseY = ypos
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		refresh = true
		camDist -= yoff * (camDist*.1 + .01)
		camDist = math.Max(minZoom, math.Min(maxZoom, camDist))
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		refresh = true
		if action == glfw.Press {
			isMousePressed = true
			firstMouseMove = true
			window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		} else if action == glfw.Release {
			isMousePressed = false
			window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		}
	})

	target := mgl32.Vec3{center.X, center.Y, center.Z}
	model := mgl32.Ident4()
	ctx := cfg.Context
	for !window.ShouldClose() {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		width, height := window.GetSize()
		eye := target.Add(mgl32.Vec3{
			float32(camDist * math.Cos(pitch) * math.Sin(yaw)),
			float32(camDist * math.Sin(pitch)),
			float32(camDist * math.Cos(pitch) * math.Cos(yaw)),
		})
		view := mgl32.LookAtV(eye, target, mgl32.Vec3{0, 1, 0})
		proj := mgl32.Perspective(mgl32.DegToRad(45), float32(width)/float32(height), diag*0.001, diag*100)
		modelView := view.Mul4(model)
		normalMat := modelView.Mat3().Inv().Transpose()

		gl.ClearColor(0.1, 0.1, 0.12, 1.0)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		prog.Bind()
		gl.UniformMatrix4fv(modelLoc, 1, false, &model[0])
		gl.UniformMatrix4fv(modelViewLoc, 1, false, &modelView[0])
		gl.UniformMatrix4fv(projLoc, 1, false, &proj[0])
		gl.UniformMatrix4fv(viewLoc, 1, false, &view[0])
		gl.UniformMatrix3fv(normalLoc, 1, false, &normalMat[0])
		gl.Uniform3fv(camLoc, 1, &eye[0])
		gl.BindVertexArray(vao)
		gl.DrawArrays(gl.TRIANGLES, 0, nverts)
		window.SwapBuffers()

		for {
			time.Sleep(time.Second / 60)
			glfw.PollEvents()
			if refresh || window.ShouldClose() {
				refresh = false
				break
			}
		}
	}
	return nil
}

// meshAttributes flattens faces into non-indexed attribute arrays. Faces without
// UV mapping get zero texture coordinates.
func meshAttributes(m *scene.Mesh) (positions, normals, uvs []float32) {
	g := m.Geometry
	n := len(g.Faces) * 3
	positions = make([]float32, 0, 3*n)
	normals = make([]float32, 0, 3*n)
	uvs = make([]float32, 0, 2*n)
	for i := range g.Faces {
		f := &g.Faces[i]
		for k, idx := range f.Indices() {
			v := g.Vertices[idx]
			nrm := f.VertexNormals[k]
			if nrm == (ms3.Vec{}) {
				nrm = f.Normal
			}
			positions = append(positions, v.X, v.Y, v.Z)
			normals = append(normals, nrm.X, nrm.Y, nrm.Z)
			if f.HasUV {
				uvs = append(uvs, f.UV[k].X, f.UV[k].Y)
			} else {
				uvs = append(uvs, 0, 0)
			}
		}
	}
	return positions, normals, uvs
}

func setMaterialUniforms(uniform func(string) int32, u material.Uniforms) {
	for name, v := range u {
		loc := uniform(name)
		switch val := v.Value.(type) {
		case float32:
			gl.Uniform1f(loc, val)
		case ms3.Vec:
			gl.Uniform3f(loc, val.X, val.Y, val.Z)
		case [4]float32:
			gl.Uniform4f(loc, val[0], val[1], val[2], val[3])
		default:
			log.Printf("pcgaux: uniform %q of type %s not supported by preview", name, v.Type)
		}
	}
}

func startGLFW(width, height int) (window *glfw.Window, term func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, nil, errors.New("failed to initialize GLFW: " + err.Error())
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	window, err = glfw.CreateWindow(width, height, "pcg lathe preview", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("failed to create GLFW window: %w", err)
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	return window, glfw.Terminate, nil
}
