package pcgweb

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/soypat/pcg/scene"
)

// DefaultPort is the port the server listens on when settings do not name one.
const DefaultPort = 3000

// Settings configures a [Server]. It is usually decoded from a TOML file:
//
//	port = 3000
//	static = "public"
//
//	[[mesh]]
//	name = "vase"
//	profile = "vase"
//	segments = 48
//	points = 24
//	radius = 1.0
//	amplitude = 0.35
//	frequency = 2.0
//	scale = 1.0
//	height = 2.5
//	displacements = ["x += 0.05*sin(8.0*y);"]
type Settings struct {
	Port int `toml:"port"`
	// Static is the directory static files are served from. Empty uses the built in client.
	Static string `toml:"static"`
	// Views is the directory holding index.html. Empty uses the built in view.
	Views  string         `toml:"views"`
	Meshes []scene.Preset `toml:"mesh"`
}

// DefaultSettings returns settings describing a small demo scene served on [DefaultPort].
func DefaultSettings() Settings {
	bFactor, noiseFactor := float32(3), float32(6)
	return Settings{
		Port: DefaultPort,
		Meshes: []scene.Preset{
			{
				Name: "vase", Profile: scene.ProfileVase,
				Segments: 48, Points: 24, Radius: 1, Amplitude: 0.35, Frequency: 2,
				Scale: 1, Height: 2.5,
				Displacements: []string{"x += 0.05*sin(8.0*y);\n"},
			},
			{
				Name: "wobble", Profile: scene.ProfileWobble,
				Segments: 64, Points: 8, Radius: 0.8, Amplitude: 0.1, Frequency: 6,
				Scale: 1, Height: 1,
			},
			{
				Name: "blob", Profile: scene.ProfileCylinder,
				Segments: 32, Points: 16, Radius: 1,
				Scale: 1, Height: 1.5,
				BFactor: &bFactor, NoiseFactor: &noiseFactor,
				Explosion: "/images/explosion.png",
			},
		},
	}
}

// LoadSettings reads and decodes the TOML settings file at path.
func LoadSettings(path string) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	cfg, err := DecodeSettings(bytes.NewReader(b))
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// DecodeSettings decodes TOML settings from r. Unknown keys are rejected.
// A missing port is set to [DefaultPort].
func DecodeSettings(r io.Reader) (Settings, error) {
	var cfg Settings
	err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg)
	if err != nil {
		return Settings{}, err
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	return cfg, cfg.Validate()
}

// Validate checks settings for errors that can be detected without building the scene.
func (cfg Settings) Validate() error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Port)
	}
	seen := make(map[string]bool, len(cfg.Meshes))
	for i, p := range cfg.Meshes {
		if p.Name == "" {
			return fmt.Errorf("mesh %d has no name", i)
		} else if seen[p.Name] {
			return errors.New("duplicate mesh name " + p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}
