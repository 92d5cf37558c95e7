// Package pcgweb serves lathe scenes to browser renderers over HTTP and websockets
// and applies live displacement edits to them.
package pcgweb

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/soypat/pcg"
	"github.com/soypat/pcg/glbuild"
	"github.com/soypat/pcg/glrender"
	"github.com/soypat/pcg/material"
	"github.com/soypat/pcg/scene"
)

//go:embed views static
var assets embed.FS

const (
	faviconPath      = "images/favicon.ico"
	maxFragmentSize  = 64 << 10
	defaultGridImage = 128
	maxGridImage     = 2048
)

var (
	errUnknownMesh      = errors.New("unknown mesh")
	errFragmentTooLarge = fmt.Errorf("fragment larger than %d bytes", maxFragmentSize)
)

// Server serves a scene built from [Settings]. Scene mutations are serialized.
type Server struct {
	logger *log.Logger
	static fs.FS
	hub    hub

	mu       sync.Mutex
	settings Settings
	views    *template.Template
	scene    *scene.Scene
	presets  map[string]scene.Preset
}

// NewServer builds the scene described by cfg. A nil logger discards logs.
func NewServer(cfg Settings, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{logger: logger}
	if cfg.Static != "" {
		s.static = os.DirFS(cfg.Static)
	} else {
		sub, err := fs.Sub(assets, "static")
		if err != nil {
			return nil, err
		}
		s.static = sub
	}
	err := s.load(cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// load builds the scene and views for cfg and installs them, leaving the
// server untouched on error.
func (s *Server) load(cfg Settings) error {
	err := cfg.Validate()
	if err != nil {
		return err
	}
	views, err := parseViews(cfg.Views)
	if err != nil {
		return err
	}
	sc, err := scene.Build(cfg.Meshes)
	if err != nil {
		return err
	}
	presets := make(map[string]scene.Preset, len(cfg.Meshes))
	for _, p := range cfg.Meshes {
		presets[p.Name] = p
	}
	s.mu.Lock()
	s.settings = cfg
	s.views = views
	s.scene = sc
	s.presets = presets
	s.mu.Unlock()
	return nil
}

func parseViews(dir string) (*template.Template, error) {
	if dir == "" {
		return template.ParseFS(assets, "views/*.html")
	}
	return template.ParseGlob(filepath.Join(dir, "*.html"))
}

// Reload replaces the scene with one built from cfg and notifies websocket clients.
// Displacements applied through the server since the last load are discarded.
// Port and static directory changes take effect on restart only.
func (s *Server) Reload(cfg Settings) error {
	s.mu.Lock()
	old := s.settings
	s.mu.Unlock()
	err := s.load(cfg)
	if err != nil {
		return err
	}
	if cfg.Port != old.Port || cfg.Static != old.Static {
		s.logger.Println("port and static directory changes require restart")
	}
	s.hub.broadcast(s.logger, message{Type: msgReload, Meshes: s.encodeScene()})
	return nil
}

// Displace adds a displacement fragment to the named mesh and broadcasts its new
// material to websocket clients. Fragments are applied one at a time in arrival order.
func (s *Server) Displace(meshName string, f glbuild.Fragment) (*material.Shader, error) {
	if len(f) > maxFragmentSize {
		return nil, errFragmentTooLarge
	}
	s.mu.Lock()
	m := s.scene.Mesh(meshName)
	if m == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w %q", errUnknownMesh, meshName)
	}
	err := m.AddDisplacement(f)
	mat := m.Material
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.hub.broadcast(s.logger, message{Type: msgMaterial, Mesh: meshName, Material: mat})
	return mat, nil
}

// Handler returns the server's HTTP handler with request logging and method override.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /favicon.ico", s.handleFavicon)
	mux.Handle("GET /", http.FileServerFS(s.static))
	mux.HandleFunc("GET /api/scene", s.handleScene)
	mux.HandleFunc("GET /api/mesh/{name}", s.handleMesh)
	mux.HandleFunc("GET /api/mesh/{name}/shader", s.handleShader)
	mux.HandleFunc("GET /api/mesh/{name}/grid.png", s.handleGrid)
	mux.HandleFunc("POST /api/mesh/{name}/displacements", s.handleDisplace)
	mux.HandleFunc("PUT /api/mesh/{name}/material", s.handleMaterial)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return logRequests(s.logger, overrideMethod(mux))
}

// ListenAndServe serves on the configured port until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.mu.Lock()
	addr := ":" + strconv.Itoa(s.settings.Port)
	s.mu.Unlock()
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Printf("listening on http://localhost%s", addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Server) encodeScene() []meshJSON {
	s.mu.Lock()
	defer s.mu.Unlock()
	return encodeScene(s.scene)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	views := s.views
	names := s.scene.Names()
	s.mu.Unlock()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := views.ExecuteTemplate(w, "index.html", struct {
		Title  string
		Meshes []string
	}{Title: "pcg", Meshes: names})
	if err != nil {
		s.logger.Println("rendering index:", err)
	}
}

func (s *Server) handleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFileFS(w, r, s.static, faviconPath)
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, message{Type: msgScene, Meshes: s.encodeScene()})
}

func (s *Server) handleMesh(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	s.mu.Lock()
	m := s.scene.Mesh(name)
	var mj meshJSON
	if m != nil {
		mj = encodeMesh(m)
	}
	s.mu.Unlock()
	if m == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w %q", errUnknownMesh, name))
		return
	}
	writeJSON(w, http.StatusOK, mj)
}

func (s *Server) handleShader(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	s.mu.Lock()
	m := s.scene.Mesh(name)
	var src string
	if m != nil {
		src = m.Material.VertexShader
	}
	s.mu.Unlock()
	if m == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w %q", errUnknownMesh, name))
		return
	}
	etag := `"` + strconv.FormatUint(glbuild.Hash([]byte(src), 0), 16) + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, src)
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	height := defaultGridImage
	if q := r.URL.Query().Get("height"); q != "" {
		h, err := strconv.Atoi(q)
		if err != nil || h <= 0 || h > maxGridImage {
			writeError(w, http.StatusBadRequest, fmt.Errorf("height must be an integer in 1..%d", maxGridImage))
			return
		}
		height = h
	}
	s.mu.Lock()
	p, ok := s.presets[name]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w %q", errUnknownMesh, name))
		return
	}
	bld := pcg.Builder{NoDimensionPanic: true}
	grid := p.Grid(&bld)
	if err := bld.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	err := glrender.EncodeGridPNG(w, grid, height, nil)
	if err != nil {
		s.logger.Println("encoding grid:", err)
	}
}

func (s *Server) handleDisplace(w http.ResponseWriter, r *http.Request) {
	var frag string
	if isForm(r) {
		frag = r.PostFormValue("fragment")
	} else {
		b, err := io.ReadAll(io.LimitReader(r.Body, maxFragmentSize+1))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		frag = string(b)
	}
	mat, err := s.Displace(r.PathValue("name"), glbuild.Fragment(frag))
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, mat)
}

func (s *Server) handleMaterial(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	bFactor, err := formFloat(r, "bFactor")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	noiseFactor, err := formFloat(r, "noiseFactor")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var tex *material.Texture
	if url := r.FormValue("explosion"); url != "" {
		tex = &material.Texture{URL: url}
	}
	s.mu.Lock()
	m := s.scene.Mesh(name)
	if m == nil {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, fmt.Errorf("%w %q", errUnknownMesh, name))
		return
	}
	err = m.SelectMaterial(bFactor, noiseFactor, tex)
	mat := m.Material
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.hub.broadcast(s.logger, message{Type: msgMaterial, Mesh: name, Material: mat})
	writeJSON(w, http.StatusOK, mat)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Println("websocket upgrade error:", err)
		return
	}
	defer conn.Close()
	// Room for the message envelope around a maximum size fragment.
	conn.SetReadLimit(maxFragmentSize + 4<<10)
	s.hub.add(conn)
	s.logger.Println("websocket client connected,", s.hub.len(), "connected")
	defer func() {
		s.hub.remove(conn)
		s.logger.Println("websocket client disconnected,", s.hub.len(), "connected")
	}()

	err = s.hub.send(conn, message{Type: msgScene, Meshes: s.encodeScene()})
	if err != nil {
		s.logger.Println("websocket write error:", err)
		return
	}
	for {
		var msg message
		err := conn.ReadJSON(&msg)
		if err != nil {
			return
		}
		switch msg.Type {
		case msgDisplace:
			_, err = s.Displace(msg.Mesh, glbuild.Fragment(msg.Fragment))
		case msgScene:
			err = s.hub.send(conn, message{Type: msgScene, Meshes: s.encodeScene()})
		default:
			err = fmt.Errorf("unknown message type %q", msg.Type)
		}
		if err != nil {
			s.hub.send(conn, message{Type: msgError, Mesh: msg.Mesh, Error: err.Error()})
		}
	}
}

func formFloat(r *http.Request, key string) (*float32, error) {
	v := r.FormValue(key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	f32 := float32(f)
	return &f32, nil
}

func statusOf(err error) int {
	var cerr *glbuild.CompositionError
	switch {
	case errors.Is(err, errUnknownMesh):
		return http.StatusNotFound
	case errors.Is(err, errFragmentTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &cerr):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
