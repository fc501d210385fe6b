package wavefront

import (
	"errors"
	"testing"

	"github.com/achilleasa/spindle/scene"
	"github.com/achilleasa/spindle/types"
	"github.com/chewxy/math32"
)

func TestIntersectSphere(t *testing.T) {
	sphere := &scene.Sphere{Position: types.Vec3{0, 0, -5}, Radius: 1}

	type spec struct {
		origin types.Vec3
		dir    types.Vec3
		expHit bool
		expT   float32
	}
	specs := []spec{
		{types.Vec3{0, 0, 0}, types.Vec3{0, 0, -1}, true, 4},
		{types.Vec3{0, 0, 0}, types.Vec3{0, 0, 1}, false, 0},
		{types.Vec3{0, 2, 0}, types.Vec3{0, 0, -1}, false, 0},
		// Origin inside the sphere hits the far side
		{types.Vec3{0, 0, -5}, types.Vec3{0, 0, -1}, true, 1},
		// Zero direction
		{types.Vec3{0, 0, 0}, types.Vec3{0, 0, 0}, false, 0},
	}

	for index, s := range specs {
		tHit, hit := intersectSphere(sphere, s.origin, s.dir, Epsilon, math32.MaxFloat32)
		if hit != s.expHit {
			t.Fatalf("[spec %d] expected hit to be %t; got %t", index, s.expHit, hit)
		}
		if hit && math32.Abs(tHit-s.expT) > 1e-4 {
			t.Fatalf("[spec %d] expected t = %f; got %f", index, s.expT, tHit)
		}
	}
}

func TestIntersectTriangle(t *testing.T) {
	tri := scene.NewTriangle(types.Vec3{-1, -1, -2}, types.Vec3{1, -1, -2}, types.Vec3{0, 1, -2}, 0)

	type spec struct {
		origin types.Vec3
		dir    types.Vec3
		expHit bool
	}
	specs := []spec{
		{types.Vec3{0, 0, 0}, types.Vec3{0, 0, -1}, true},
		{types.Vec3{5, 0, 0}, types.Vec3{0, 0, -1}, false},
		{types.Vec3{0, 0, 0}, types.Vec3{0, 0, 1}, false},
		// Parallel to the triangle plane
		{types.Vec3{0, 0, 0}, types.Vec3{1, 0, 0}, false},
	}

	for index, s := range specs {
		tHit, hit := intersectTriangle(&tri, s.origin, s.dir, Epsilon, math32.MaxFloat32)
		if hit != s.expHit {
			t.Fatalf("[spec %d] expected hit to be %t; got %t", index, s.expHit, hit)
		}
		if hit && math32.Abs(tHit-2) > 1e-4 {
			t.Fatalf("[spec %d] expected t = 2; got %f", index, tHit)
		}
	}
}

func TestDegenerateTriangleNeverHits(t *testing.T) {
	tri := scene.NewTriangle(types.Vec3{-1, 0, -2}, types.Vec3{0, 0, -2}, types.Vec3{1, 0, -2}, 0)
	if _, hit := intersectTriangle(&tri, types.Vec3{0, 0, 0}, types.Vec3{0, 0, -1}, Epsilon, math32.MaxFloat32); hit {
		t.Fatal("expected degenerate triangle not to be hit")
	}
}

func TestTinyTriangleHits(t *testing.T) {
	type spec struct {
		edge float32
	}
	specs := []spec{
		{5e-4},
		{1e-5},
		{1e-7},
	}

	for index, s := range specs {
		tri := scene.NewTriangle(types.Vec3{0, 0, 0}, types.Vec3{s.edge, 0, 0}, types.Vec3{0, s.edge, 0}, 0)
		if tri.Degenerate() {
			t.Fatalf("[spec %d] expected triangle with edge %g not to be degenerate", index, s.edge)
		}
		if !types.ApproxEqual(tri.Normal, types.Vec3{0, 0, 1}, 1e-5) {
			t.Fatalf("[spec %d] expected unit +Z normal; got %v", index, tri.Normal)
		}

		origin := types.Vec3{s.edge * 0.2, s.edge * 0.2, 1}
		tHit, hit := intersectTriangle(&tri, origin, types.Vec3{0, 0, -1}, Epsilon, math32.MaxFloat32)
		if !hit {
			t.Fatalf("[spec %d] expected ray to hit triangle with edge %g", index, s.edge)
		}
		if math32.Abs(tHit-1) > 1e-5 {
			t.Fatalf("[spec %d] expected t = 1; got %f", index, tHit)
		}

		// Rays passing next to the triangle still miss
		origin = types.Vec3{s.edge * 0.8, s.edge * 0.8, 1}
		if _, hit = intersectTriangle(&tri, origin, types.Vec3{0, 0, -1}, Epsilon, math32.MaxFloat32); hit {
			t.Fatalf("[spec %d] expected ray outside the triangle to miss", index)
		}
	}
}

func TestClosestHitTieBreak(t *testing.T) {
	sc := scene.NewScene()
	mat1 := sc.AddMaterial(scene.Material{Color: types.Vec3{1, 1, 1}, Albedo: 1, Type: scene.DiffuseMaterial})
	mat2 := sc.AddMaterial(scene.Material{Color: types.Vec3{1, 1, 1}, Albedo: 1, Type: scene.ReflectiveMaterial})

	// Two identical spheres and a triangle touching their front face
	mustAdd(t, sc.AddSphere(types.Vec3{0, 0, -5}, 1, mat1))
	mustAdd(t, sc.AddSphere(types.Vec3{0, 0, -5}, 1, mat2))
	mustAdd(t, sc.AddTriangle(types.Vec3{-1, -1, -4}, types.Vec3{1, -1, -4}, types.Vec3{0, 1, -4}, mat2))

	hit, found := closestHit(sc, types.Vec3{0, 0, 0}, types.Vec3{0, 0, -1})
	if !found {
		t.Fatal("expected ray to hit")
	}
	if hit.objectID != 1 || hit.material != mat1 {
		t.Fatalf("expected first sphere (id 1, material %d) to win the tie; got id %d, material %d", mat1, hit.objectID, hit.material)
	}

	// Move the triangle closer; it should now win with id numSpheres + 1
	sc.Triangles[0] = scene.NewTriangle(types.Vec3{-1, -1, -3}, types.Vec3{1, -1, -3}, types.Vec3{0, 1, -3}, mat2)
	if hit, _ = closestHit(sc, types.Vec3{0, 0, 0}, types.Vec3{0, 0, -1}); hit.objectID != 3 {
		t.Fatalf("expected triangle (id 3) to be the closest hit; got id %d", hit.objectID)
	}

	if _, found = closestHit(sc, types.Vec3{0, 0, 0}, types.Vec3{}); found {
		t.Fatal("expected zero direction ray to miss")
	}
}

func TestOccluded(t *testing.T) {
	sc := scene.NewScene()
	mat := sc.AddMaterial(scene.Material{Color: types.Vec3{1, 1, 1}, Albedo: 1, Type: scene.DiffuseMaterial})
	mustAdd(t, sc.AddSphere(types.Vec3{0, 0, -5}, 1, mat))

	origin := types.Vec3{0, 0, 0}
	dir := types.Vec3{0, 0, -1}
	if !occluded(sc, origin, dir, 10) {
		t.Fatal("expected segment through sphere to be occluded")
	}
	if occluded(sc, origin, dir, 3.5) {
		t.Fatal("expected segment ending before the sphere not to be occluded")
	}
	if occluded(sc, origin, types.Vec3{0, 0, 1}, 10) {
		t.Fatal("expected segment pointing away from the sphere not to be occluded")
	}
}

func TestSurfaceNormal(t *testing.T) {
	sc := scene.NewScene()
	mat := sc.AddMaterial(scene.Material{Color: types.Vec3{1, 1, 1}, Albedo: 1, Type: scene.DiffuseMaterial})
	mustAdd(t, sc.AddSphere(types.Vec3{0, 0, -5}, 2, mat))
	mustAdd(t, sc.AddTriangle(types.Vec3{0, 0, 0}, types.Vec3{1, 0, 0}, types.Vec3{0, 1, 0}, mat))

	n, err := surfaceNormal(sc, 1, types.Vec3{0, 2, -5})
	if err != nil {
		t.Fatal(err)
	}
	if !types.ApproxEqual(n, types.Vec3{0, 1, 0}, 1e-6) {
		t.Fatalf("expected sphere normal to be +Y; got %v", n)
	}

	if n, err = surfaceNormal(sc, 2, types.Vec3{}); err != nil || !types.ApproxEqual(n, types.Vec3{0, 0, 1}, 1e-6) {
		t.Fatalf("expected triangle normal to be +Z; got %v (err %v)", n, err)
	}

	for _, objectID := range []uint32{0, 3, 100} {
		if _, err = surfaceNormal(sc, objectID, types.Vec3{}); !errors.Is(err, ErrInvalidObject) {
			t.Fatalf("[object %d] expected to get ErrInvalidObject; got %v", objectID, err)
		}
	}
}

func mustAdd(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
