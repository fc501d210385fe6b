package scene

import (
	"fmt"

	"github.com/achilleasa/spindle/types"
)

type MaterialType uint32

// Material types. The values match the ids used by compiled scenes.
const (
	DiffuseMaterial    MaterialType = 1
	ReflectiveMaterial MaterialType = 2
)

func (mt MaterialType) String() string {
	switch mt {
	case DiffuseMaterial:
		return "diffuse"
	case ReflectiveMaterial:
		return "reflective"
	}
	return fmt.Sprintf("unknown(%d)", uint32(mt))
}

// Parse a material type name.
func ParseMaterialType(name string) (MaterialType, error) {
	switch name {
	case "diffuse", "":
		return DiffuseMaterial, nil
	case "reflective", "mirror":
		return ReflectiveMaterial, nil
	}
	return 0, fmt.Errorf("scene: unknown material type %q", name)
}

// Defines a scene material.
type Material struct {
	// Surface color.
	Color types.Vec3

	// Fraction of the incident light that the surface re-emits. Must be in [0, 1].
	Albedo float32

	// The material type selects the shading stage for hits.
	Type MaterialType
}

// The energy scaler applied to a path that bounces off this material.
func (m *Material) Attenuation() types.Vec3 {
	return m.Color.Mul(m.Albedo)
}
