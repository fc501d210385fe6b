package scene

import "github.com/achilleasa/spindle/types"

// A point light.
type Light struct {
	Position types.Vec3

	// Radiant intensity.
	Color types.Vec3
}

// The background radiance returned for rays that escape the scene. It is a
// vertical gradient that blends from Horizon (rays pointing down or
// sideways) to Zenith (rays pointing straight up). The zero value is a
// black background.
type Background struct {
	Horizon types.Vec3
	Zenith  types.Vec3
}

// The classic white-to-sky-blue gradient.
func SkyBackground() Background {
	return Background{
		Horizon: types.Vec3{1, 1, 1},
		Zenith:  types.Vec3{0.5, 0.7, 1.0},
	}
}

// Sample background radiance for a normalized ray direction.
func (b Background) Sample(dir types.Vec3) types.Vec3 {
	a := 0.5 * (dir[1] + 1.0)
	return b.Horizon.Mul(1.0 - a).Add(b.Zenith.Mul(a))
}

// Returns true if the background never contributes radiance.
func (b Background) IsBlack() bool {
	return b.Horizon == types.Vec3{} && b.Zenith == types.Vec3{}
}
