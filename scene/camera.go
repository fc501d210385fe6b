package scene

import (
	"fmt"

	"github.com/achilleasa/spindle/types"
	"github.com/chewxy/math32"
)

// The image plane of the camera. Primary ray directions are obtained as
// TopLeft + u*Horizontal + v*Vertical - eye, with u, v in [0, 1].
type Frustum struct {
	TopLeft    types.Vec3
	Horizontal types.Vec3
	Vertical   types.Vec3
}

func (fr Frustum) String() string {
	return fmt.Sprintf(
		"Frustum:\nTL : (%3.3f, %3.3f, %3.3f)\nH  : (%3.3f, %3.3f, %3.3f)\nV  : (%3.3f, %3.3f, %3.3f)",
		fr.TopLeft[0], fr.TopLeft[1], fr.TopLeft[2],
		fr.Horizontal[0], fr.Horizontal[1], fr.Horizontal[2],
		fr.Vertical[0], fr.Vertical[1], fr.Vertical[2],
	)
}

// The camera type controls the scene camera.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	// Vertical field of view in degrees.
	FOV float32

	// Adjust the frustum so that Y is inverted
	InvertY bool
}

func NewCamera(fov float32) *Camera {
	return &Camera{
		Position: types.Vec3{0, 0, 0},
		LookAt:   types.Vec3{0, 0, -1},
		Up:       types.Vec3{0, 1, 0},
		FOV:      fov,
	}
}

// Calculate the camera frustum for the given aspect ratio (width / height).
func (c *Camera) Frustum(aspect float32) Frustum {
	forward := c.LookAt.Sub(c.Position).Normalize()
	right := forward.Cross(c.Up).Normalize()
	up := right.Cross(forward)

	halfH := math32.Tan(c.FOV * math32.Pi / 360.0)
	halfW := aspect * halfH

	var yUp float32 = 1.0
	if c.InvertY {
		yUp = -1.0
	}

	center := c.Position.Add(forward)
	return Frustum{
		TopLeft:    center.Sub(right.Mul(halfW)).Add(up.Mul(halfH * yUp)),
		Horizontal: right.Mul(2 * halfW),
		Vertical:   up.Mul(-2 * halfH * yUp),
	}
}

// Rotate the camera eye around its look-at point. Yaw rotates around the
// up vector; pitch rotates around the camera's right vector. Both angles
// are specified in radians.
func (c *Camera) Orbit(yaw, pitch float32) {
	offset := c.Position.Sub(c.LookAt)
	right := c.LookAt.Sub(c.Position).Cross(c.Up).Normalize()

	rot := types.QuatFromAxisAngle(c.Up, yaw)
	if pitch != 0 && !right.IsZero() {
		rot = rot.Mul(types.QuatFromAxisAngle(right, pitch)).Normalize()
	}

	c.Position = c.LookAt.Add(rot.Rotate(offset))
}

// Create a copy of the camera.
func (c *Camera) Clone() *Camera {
	clone := *c
	return &clone
}
