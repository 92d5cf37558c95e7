//go:build tinygo || !cgo

package pcgaux

import (
	"errors"

	"github.com/soypat/pcg/scene"
)

func ui(m *scene.Mesh, cfg UIConfig) error {
	return errors.New("require cgo for UI rendering")
}
