package reader

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/achilleasa/spindle/asset"
	"github.com/achilleasa/spindle/scene"
	"github.com/achilleasa/spindle/types"
)

func TestFloat32Parser(t *testing.T) {
	expError := "unsupported syntax for 'v'; expected 1 argument; got 0"
	_, err := parseFloat32([]string{"v"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseFloat32([]string{"v", "not-a-float"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseFloat32([]string{"v", "3.14"})
	if err != nil {
		t.Fatal(err)
	}

	if v != 3.14 {
		t.Fatalf("expected parsed value to be 3.14; got %f", v)
	}
}

func TestVec3Parser(t *testing.T) {
	expError := "unsupported syntax for 'v'; expected 3 arguments; got 0"
	_, err := parseVec3([]string{"v"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseVec3([]string{"v", "not-a-float", "2", "3"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseVec3([]string{"v", "3.14", "0", "0.4"})
	if err != nil {
		t.Fatal(err)
	}

	expVal := types.Vec3{3.14, 0, 0.4}
	if !reflect.DeepEqual(v, expVal) {
		t.Fatalf("expected parsed value to be %v; got %v", expVal, v)
	}
}

func TestSelectFaceCoordinate(t *testing.T) {
	expError := "index out of bounds"
	type spec struct {
		in        string
		listLen   int
		relOffset int
		out       int
		expError  string
	}
	specs := []spec{
		{"2", 1, 0, -1, expError},
		{"-2", 1, 0, -1, expError},
		{"0", 10, 0, -1, expError},
		{"1", 10, 0, 0, ""}, // indices are 1-based
		{"-1", 10, 0, 9, ""},
		{"1", 10, 4, 4, ""},
		{"-1", 10, 4, 9, ""},
		{"7", 10, 4, -1, expError},
	}

	for idx, s := range specs {
		v, err := selectFaceCoordIndex(s.in, s.listLen, s.relOffset)
		if s.expError != "" && (err == nil || err.Error() != s.expError) {
			t.Fatalf("[spec %d] expected error %s; got %v", idx, s.expError, err)
		} else if v != s.out {
			t.Fatalf("[spec %d] expected index to be %d; got %d", idx, s.out, v)
		}
	}
}

func TestParseSingleFacedObject(t *testing.T) {
	payload := `
o testObj
v 0 0 0
v 1 0 0
v 0 1 0
vn 0 0 1
vt 0 0
# Comment
f 1/1/1 2/1/1 -1/1/1
`

	r := newWavefrontReader()
	sc, err := r.Read(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	if len(sc.Triangles) != 1 {
		t.Fatalf("expected 1 triangle to be parsed; got %d", len(sc.Triangles))
	}

	expMaterials := 1
	if len(sc.Materials) != expMaterials {
		t.Fatalf("expected scene to contain %d material(s); got %d", expMaterials, len(sc.Materials))
	}
	if sc.Materials[0].Type != scene.DiffuseMaterial {
		t.Fatalf("expected default material to be diffuse; got %s", sc.Materials[0].Type)
	}

	expPoints := []types.Vec3{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
	}
	tri := sc.Triangles[0]
	for idx, v := range []types.Vec3{tri.V1, tri.V2, tri.V3} {
		if !reflect.DeepEqual(v, expPoints[idx]) {
			t.Fatalf("expected vertex %d to be %v; got %v", idx, expPoints[idx], v)
		}
	}
	if !types.ApproxEqual(tri.Normal, types.Vec3{0, 0, 1}, 1e-6) {
		t.Fatalf("expected face normal to be +Z; got %v", tri.Normal)
	}
}

func TestPolygonTriangulation(t *testing.T) {
	payload := `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 2 2 2
v 3 3 3
v 4 4 4
v 0 0 1
v 0.0005 0 1
v 0 0.0005 1
f 1 2 3 4
# zero-area face
f 5 6 7
# sub-millimetre face
f 8 9 10
`

	r := newWavefrontReader()
	sc, err := r.Read(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	if len(sc.Triangles) != 3 {
		t.Fatalf("expected quad split into 2 triangles plus the small face; got %d", len(sc.Triangles))
	}
	if r.degenerateFaces != 1 {
		t.Fatalf("expected 1 degenerate face to be dropped; got %d", r.degenerateFaces)
	}

	expVertices := [][3]types.Vec3{
		{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
		{{0, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		{{0, 0, 1}, {0.0005, 0, 1}, {0, 0.0005, 1}},
	}
	for idx, exp := range expVertices {
		tri := sc.Triangles[idx]
		got := [3]types.Vec3{tri.V1, tri.V2, tri.V3}
		if !reflect.DeepEqual(got, exp) {
			t.Fatalf("[tri %d] expected vertices %v; got %v", idx, exp, got)
		}
	}
}

func TestParseDirectives(t *testing.T) {
	payload := `
camera_fov 60
camera_eye 0 1 5
camera_look 0 0 0
camera_up 0 1 0
light 0 10 0 50 50 50
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`

	sc, err := newWavefrontReader().Read(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	if sc.Camera == nil {
		t.Fatal("expected camera to be defined")
	}
	if sc.Camera.FOV != 60 {
		t.Fatalf("expected camera fov to be 60; got %f", sc.Camera.FOV)
	}
	if !reflect.DeepEqual(sc.Camera.Position, types.Vec3{0, 1, 5}) {
		t.Fatalf("expected camera eye to be (0, 1, 5); got %v", sc.Camera.Position)
	}
	if len(sc.Lights) != 1 {
		t.Fatalf("expected 1 light; got %d", len(sc.Lights))
	}
	expLight := scene.Light{Position: types.Vec3{0, 10, 0}, Color: types.Vec3{50, 50, 50}}
	if !reflect.DeepEqual(sc.Lights[0], expLight) {
		t.Fatalf("expected light %v; got %v", expLight, sc.Lights[0])
	}
}

func TestParseErrors(t *testing.T) {
	type spec struct {
		payload  string
		expError string
	}
	specs := []spec{
		{"usemtl", "[embedded: 1] error: unsupported syntax for 'usemtl'; expected 1 argument; got 0"},
		{"usemtl foo", `[embedded: 1] error: undefined material with name "foo"`},
		{"v 0 0", "[embedded: 1] error: unsupported syntax for 'v'; expected 3 arguments; got 2"},
		{"v 0 0 0\nf 1 1", "[embedded: 2] error: unsupported syntax for 'f'; expected at least 3 arguments; got 2"},
		{"v 0 0 0\nf 1 2 3", "[embedded: 2] error: could not parse vertex coord for face argument 1: index out of bounds"},
		{"light 0 0 0", "[embedded: 1] error: unsupported syntax for 'light'; expected 6 arguments; got 3"},
		{"mtllib", "[embedded: 1] error: unsupported syntax for 'mtllib'; expected 1 argument; got 0"},
	}

	for idx, s := range specs {
		_, err := newWavefrontReader().Read(mockResource(s.payload))
		if err == nil || err.Error() != s.expError {
			t.Fatalf("[spec %d] expected to get error: %s; got %v", idx, s.expError, err)
		}
	}
}

func TestMaterialLoaderMissingNewMaterialCommand(t *testing.T) {
	payload := `Kd 1.0 1.0 1.0`
	err := newWavefrontReader().parseMaterials(mockResource(payload))

	expError := "[embedded: 1] error: got 'Kd' without a 'newmtl'"
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get error: %s; got %v", expError, err)
	}
}

func TestMaterialLoaderInvalidVec3Param(t *testing.T) {
	payload := `
	newmtl foo
	Kd 1.0`
	err := newWavefrontReader().parseMaterials(mockResource(payload))

	expError := "[embedded: 3] error: unsupported syntax for 'Kd'; expected 3 arguments; got 1"
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get error: %s; got %v", expError, err)
	}
}

func TestMaterialLoaderInvalidScalarParam(t *testing.T) {
	payload := `
	newmtl foo
	albedo`
	err := newWavefrontReader().parseMaterials(mockResource(payload))

	expError := "[embedded: 3] error: unsupported syntax for 'albedo'; expected 1 argument; got 0"
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get error: %s; got %v", expError, err)
	}
}

func TestMaterialLoaderSuccess(t *testing.T) {
	payload := `
	# comment
	newmtl foo
	Kd 1.0 1.0 1.0
	Ks 0.1 0.2 0.3
	albedo 0.5
	Ni 2.5`
	r := newWavefrontReader()
	err := r.parseMaterials(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	matLen := len(r.materials)
	if matLen != 1 {
		t.Fatalf("expected to parse 1 material; got %d", matLen)
	}

	mat := r.materials[0]
	if mat.Name != "foo" {
		t.Fatalf("expected material name to be 'foo'; got %s", mat.Name)
	}

	expVec3 := types.Vec3{1, 1, 1}
	if !reflect.DeepEqual(mat.Kd, expVec3) {
		t.Fatalf("expected Kd to be %v; got %v", expVec3, mat.Kd)
	}
	expVec3 = types.Vec3{0.1, 0.2, 0.3}
	if !reflect.DeepEqual(mat.Ks, expVec3) {
		t.Fatalf("expected Ks to be %v; got %v", expVec3, mat.Ks)
	}
	var expScalar float32 = 0.5
	if mat.Albedo != expScalar {
		t.Fatalf("expected albedo to be %f; got %f", expScalar, mat.Albedo)
	}

	sceneMat, err := mat.sceneMaterial()
	if err != nil {
		t.Fatal(err)
	}
	if sceneMat.Type != scene.ReflectiveMaterial {
		t.Fatalf("expected material with specular color to be reflective; got %s", sceneMat.Type)
	}
	if !reflect.DeepEqual(sceneMat.Color, types.Vec3{0.1, 0.2, 0.3}) {
		t.Fatalf("expected reflective material to use the specular color; got %v", sceneMat.Color)
	}

	// Materials are only added to the scene when used
	if len(r.sc.Materials) != 0 {
		t.Fatalf("expected no scene materials before any face references them; got %d", len(r.sc.Materials))
	}
}

func TestMaterialLoaderUnknownType(t *testing.T) {
	payload := `
	newmtl foo
	type glass`
	err := newWavefrontReader().parseMaterials(mockResource(payload))

	expError := `[embedded: 3] error: scene: unknown material type "glass"`
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get error: %s; got %v", expError, err)
	}
}

func TestIncludedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "scene.mtl", `
newmtl red
Kd 1 0 0
newmtl mirror
type reflective
Kd 0.9 0.9 0.9
newmtl unused
Kd 0 1 0
`)
	writeFile(t, dir, "models/tri.obj", `
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`)
	writeFile(t, dir, "scene.obj", `
mtllib scene.mtl
v 5 5 5
v 6 5 5
v 5 6 5
usemtl red
f 1 2 3
usemtl mirror
call models/tri.obj
f -3 -2 -1
`)

	sc, err := ReadScene(filepath.Join(dir, "scene.obj"))
	if err != nil {
		t.Fatal(err)
	}

	if len(sc.Triangles) != 3 {
		t.Fatalf("expected 3 triangles; got %d", len(sc.Triangles))
	}
	if len(sc.Materials) != 2 {
		t.Fatalf("expected unused materials to be pruned leaving 2 materials; got %d", len(sc.Materials))
	}

	type spec struct {
		tri     int
		v0      types.Vec3
		matType scene.MaterialType
	}
	specs := []spec{
		{0, types.Vec3{5, 5, 5}, scene.DiffuseMaterial},
		// included file indices are relative to the included file
		{1, types.Vec3{0, 0, 0}, scene.ReflectiveMaterial},
		// negative indices select the last parsed vertices
		{2, types.Vec3{0, 0, 0}, scene.ReflectiveMaterial},
	}
	for idx, s := range specs {
		tri := sc.Triangles[s.tri]
		if !reflect.DeepEqual(tri.V1, s.v0) {
			t.Fatalf("[spec %d] expected first vertex to be %v; got %v", idx, s.v0, tri.V1)
		}
		if got := sc.Materials[tri.Material].Type; got != s.matType {
			t.Fatalf("[spec %d] expected material type %s; got %s", idx, s.matType, got)
		}
	}
}

func TestIncludeErrorStack(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "scene.obj", "call missing.obj\n")

	_, err := ReadScene(filepath.Join(dir, "scene.obj"))
	if err == nil {
		t.Fatal("expected an error for a missing include")
	}
	if !strings.Contains(err.Error(), "referenced from") {
		t.Fatalf("expected error to include the reference stack; got %v", err)
	}
}

func mockResource(payload string) *asset.Resource {
	return asset.NewResourceFromStream("embedded", strings.NewReader(payload))
}

func writeFile(t *testing.T, dir, name, payload string) string {
	t.Helper()
	file := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(file, []byte(payload), 0644); err != nil {
		t.Fatal(err)
	}
	return file
}
