package reader

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/achilleasa/spindle/scene"
	"github.com/achilleasa/spindle/types"
)

func TestYamlScene(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "meshes/floor.obj", `
mtllib floor.mtl
v -1 0 -1
v 1 0 -1
v 1 0 1
v -1 0 1
usemtl floor
f 1 2 3 4
`)
	writeFile(t, dir, "meshes/floor.mtl", `
newmtl floor
Kd 0.5 0.5 0.5
`)
	file := writeFile(t, dir, "scene.yaml", `
camera:
  position: [0, 1, 5]
  look_at: [0, 0, 0]
  fov: 50
background:
  sky: true
  zenith: [0, 0, 1]
materials:
  - name: white
    color: [1, 1, 1]
  - name: chrome
    type: reflective
    color: [0.9, 0.9, 0.9]
    albedo: 0.8
spheres:
  - position: [0, 1, 0]
    radius: 1
    material: chrome
triangles:
  - vertices: [[0, 0, 0], [1, 0, 0], [0, 1, 0]]
    material: white
lights:
  - position: [0, 5, 0]
    color: [20, 20, 20]
meshes:
  - file: meshes/floor.obj
    translate: [0, -1, 0]
`)

	sc, err := ReadScene(file)
	if err != nil {
		t.Fatal(err)
	}

	if sc.Camera == nil || sc.Camera.FOV != 50 {
		t.Fatalf("expected camera with fov 50; got %v", sc.Camera)
	}
	if !reflect.DeepEqual(sc.Camera.Up, types.Vec3{0, 1, 0}) {
		t.Fatalf("expected default camera up vector; got %v", sc.Camera.Up)
	}
	if !reflect.DeepEqual(sc.Background.Horizon, scene.SkyBackground().Horizon) {
		t.Fatalf("expected sky horizon color; got %v", sc.Background.Horizon)
	}
	if !reflect.DeepEqual(sc.Background.Zenith, types.Vec3{0, 0, 1}) {
		t.Fatalf("expected overridden zenith color; got %v", sc.Background.Zenith)
	}

	if len(sc.Materials) != 3 {
		t.Fatalf("expected 3 materials; got %d", len(sc.Materials))
	}
	if sc.Materials[0].Albedo != 1 {
		t.Fatalf("expected default albedo to be 1; got %f", sc.Materials[0].Albedo)
	}
	if sc.Materials[1].Type != scene.ReflectiveMaterial || sc.Materials[1].Albedo != 0.8 {
		t.Fatalf("expected reflective material with albedo 0.8; got %+v", sc.Materials[1])
	}

	if len(sc.Spheres) != 1 || sc.Spheres[0].Material != 1 {
		t.Fatalf("expected 1 sphere using material 1; got %+v", sc.Spheres)
	}
	if len(sc.Triangles) != 3 {
		t.Fatalf("expected 1 triangle and 2 mesh triangles; got %d", len(sc.Triangles))
	}
	if !reflect.DeepEqual(sc.Triangles[1].V1, types.Vec3{-1, -1, -1}) {
		t.Fatalf("expected mesh vertices to be translated; got %v", sc.Triangles[1].V1)
	}
	if sc.Triangles[1].Material != 2 {
		t.Fatalf("expected mesh triangles to use the mesh material; got %d", sc.Triangles[1].Material)
	}
	if len(sc.Lights) != 1 {
		t.Fatalf("expected 1 light; got %d", len(sc.Lights))
	}

	info, err := sc.Info(1)
	if err != nil {
		t.Fatal(err)
	}
	if err = sc.Validate(info); err != nil {
		t.Fatalf("expected parsed scene to be valid; got %v", err)
	}
}

func TestYamlSceneErrors(t *testing.T) {
	type spec struct {
		payload  string
		expError string
	}
	specs := []spec{
		{"spheres:\n  - radius: 1\n    material: foo\n", `undefined material with name "foo"`},
		{"materials:\n  - color: [1, 1, 1]\n", "material 0 has no name"},
		{"materials:\n  - name: a\n  - name: a\n", `material "a" already defined`},
		{"materials:\n  - name: a\n    type: glass\n", `unknown material type "glass"`},
		{"materials:\n  - name: a\nspheres:\n  - radius: -1\n    material: a\n", "sphere 0"},
		{"camera:\n  position: [0, 1]\n", "yaml reader"},
		{"unknown_key: 1\n", "field unknown_key not found"},
	}

	for idx, s := range specs {
		_, err := newYamlReader().Read(mockResource(s.payload))
		if err == nil || !strings.Contains(err.Error(), s.expError) {
			t.Fatalf("[spec %d] expected error containing %q; got %v", idx, s.expError, err)
		}
	}
}

func TestUnsupportedSceneFormat(t *testing.T) {
	file := writeFile(t, t.TempDir(), "scene.blend", "")
	_, err := ReadScene(file)
	expError := `reader: unsupported scene format ".blend"`
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get error: %s; got %v", expError, err)
	}

	if _, err = ReadScene(filepath.Join(t.TempDir(), "missing.obj")); err == nil {
		t.Fatal("expected an error for a missing scene file")
	}
}
