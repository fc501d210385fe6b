package wavefront

import (
	"fmt"

	"github.com/achilleasa/spindle/scene"
	"github.com/achilleasa/spindle/types"
	"github.com/chewxy/math32"
)

// Minimum hit distance along a ray. Hits closer than this value are
// ignored so that rays spawned from a surface do not re-intersect it.
const Epsilon float32 = 1e-3

// Rays whose direction length falls below this value never hit anything.
const minDirLenSq float32 = 1e-12

// Rays whose squared sine with the triangle plane falls below this value
// run parallel to it. The threshold is relative so small triangles still
// report hits.
const parallelSinSq float32 = 1e-12

type hitRecord struct {
	t        float32
	objectID uint32
	material uint32
}

// Intersect a ray with a sphere and return the nearest distance in (tMin, tMax).
func intersectSphere(sphere *scene.Sphere, origin, dir types.Vec3, tMin, tMax float32) (float32, bool) {
	if sphere.Radius <= 0 {
		return 0, false
	}

	a := dir.Dot(dir)
	if a < minDirLenSq {
		return 0, false
	}

	oc := sphere.Position.Sub(origin)
	h := dir.Dot(oc)
	c := oc.Dot(oc) - sphere.Radius*sphere.Radius
	disc := h*h - a*c
	if disc < 0 {
		return 0, false
	}

	sqrtD := math32.Sqrt(disc)
	root := (h - sqrtD) / a
	if root <= tMin || root >= tMax {
		root = (h + sqrtD) / a
		if root <= tMin || root >= tMax {
			return 0, false
		}
	}
	return root, true
}

// Intersect a ray with a triangle using the Moller-Trumbore algorithm.
func intersectTriangle(tri *scene.Triangle, origin, dir types.Vec3, tMin, tMax float32) (float32, bool) {
	if tri.Degenerate() {
		return 0, false
	}

	edge1 := tri.V2.Sub(tri.V1)
	edge2 := tri.V3.Sub(tri.V1)
	pvec := dir.Cross(edge2)
	det := edge1.Dot(pvec)
	if det*det <= parallelSinSq*edge1.LenSq()*pvec.LenSq() {
		return 0, false
	}

	invDet := 1.0 / det
	tvec := origin.Sub(tri.V1)
	u := tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	qvec := tvec.Cross(edge1)
	v := dir.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := edge2.Dot(qvec) * invDet
	if t <= tMin || t >= tMax {
		return 0, false
	}
	return t, true
}

// Find the nearest primitive hit by a ray. Spheres are tested before
// triangles and a hit only replaces the current candidate if it is
// strictly closer, so ties resolve to the first primitive in that order.
func closestHit(sc *scene.Scene, origin, dir types.Vec3) (hitRecord, bool) {
	hit := hitRecord{t: math32.MaxFloat32}
	if dir.LenSq() < minDirLenSq {
		return hit, false
	}

	found := false
	for index := range sc.Spheres {
		if t, ok := intersectSphere(&sc.Spheres[index], origin, dir, Epsilon, hit.t); ok && t < hit.t {
			hit.t = t
			hit.objectID = uint32(index) + 1
			hit.material = sc.Spheres[index].Material
			found = true
		}
	}

	triOffset := uint32(len(sc.Spheres)) + 1
	for index := range sc.Triangles {
		if t, ok := intersectTriangle(&sc.Triangles[index], origin, dir, Epsilon, hit.t); ok && t < hit.t {
			hit.t = t
			hit.objectID = uint32(index) + triOffset
			hit.material = sc.Triangles[index].Material
			found = true
		}
	}

	return hit, found
}

// Check whether any primitive blocks the segment between origin and
// origin + maxDist*dir.
func occluded(sc *scene.Scene, origin, dir types.Vec3, maxDist float32) bool {
	tMax := maxDist - Epsilon
	if tMax <= Epsilon {
		return false
	}

	for index := range sc.Spheres {
		if _, ok := intersectSphere(&sc.Spheres[index], origin, dir, Epsilon, tMax); ok {
			return true
		}
	}
	for index := range sc.Triangles {
		if _, ok := intersectTriangle(&sc.Triangles[index], origin, dir, Epsilon, tMax); ok {
			return true
		}
	}
	return false
}

// Calculate the surface normal of an object at the given point.
func surfaceNormal(sc *scene.Scene, objectID uint32, point types.Vec3) (types.Vec3, error) {
	numSpheres := uint32(len(sc.Spheres))
	switch {
	case objectID == scene.NoObject:
	case objectID <= numSpheres:
		return sc.Spheres[objectID-1].NormalAt(point), nil
	case objectID-numSpheres <= uint32(len(sc.Triangles)):
		return sc.Triangles[objectID-numSpheres-1].Normal, nil
	}
	return types.Vec3{}, fmt.Errorf("%w: %d", ErrInvalidObject, objectID)
}
