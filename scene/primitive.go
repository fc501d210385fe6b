package scene

import (
	"github.com/achilleasa/spindle/types"
	"github.com/chewxy/math32"
)

// Object id 0 is reserved for "no hit". Spheres are assigned ids
// [1, numSpheres] and triangles the ids that follow.
const NoObject uint32 = 0

// An implicit sphere primitive.
type Sphere struct {
	Position types.Vec3
	Radius   float32

	// Index into the scene material list.
	Material uint32
}

// Surface normal at a point on the sphere.
func (s *Sphere) NormalAt(point types.Vec3) types.Vec3 {
	if s.Radius == 0 {
		return types.Vec3{}
	}
	return point.Sub(s.Position).Mul(1.0 / s.Radius)
}

// A triangle primitive. Vertices are specified in counter-clockwise order.
type Triangle struct {
	V1 types.Vec3
	V2 types.Vec3
	V3 types.Vec3

	// Index into the scene material list.
	Material uint32

	// Precomputed face normal; the zero vector for degenerate triangles.
	Normal types.Vec3
}

// Create a new triangle and precompute its face normal.
func NewTriangle(v1, v2, v3 types.Vec3, material uint32) Triangle {
	tri := Triangle{
		V1:       v1,
		V2:       v2,
		V3:       v3,
		Material: material,
	}
	tri.UpdateNormal()
	return tri
}

// Triangles whose squared edge sine falls below this value are zero-area.
// The test is relative to the edge lengths so it does not depend on the
// scene scale.
const degenerateSinSq = 1e-12

// Recalculate the face normal from the triangle vertices. Zero-area
// triangles get a zero normal.
func (t *Triangle) UpdateNormal() {
	edge1 := t.V2.Sub(t.V1)
	edge2 := t.V3.Sub(t.V1)
	cross := edge1.Cross(edge2)

	crossLenSq := cross.LenSq()
	if crossLenSq == 0 || crossLenSq <= degenerateSinSq*edge1.LenSq()*edge2.LenSq() {
		t.Normal = types.Vec3{}
		return
	}
	t.Normal = cross.Mul(1.0 / math32.Sqrt(crossLenSq))
}

// Returns true if the triangle has zero area.
func (t *Triangle) Degenerate() bool {
	return t.Normal == types.Vec3{}
}
