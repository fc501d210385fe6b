package reader

import (
	"fmt"
	"io"
	"time"

	"github.com/achilleasa/spindle/asset"
	"github.com/achilleasa/spindle/log"
	"github.com/achilleasa/spindle/scene"
	"github.com/achilleasa/spindle/types"
	"gopkg.in/yaml.v3"
)

type yamlCamera struct {
	Position types.Vec3  `yaml:"position"`
	LookAt   types.Vec3  `yaml:"look_at"`
	Up       *types.Vec3 `yaml:"up"`
	FOV      float32     `yaml:"fov"`
	InvertY  bool        `yaml:"invert_y"`
}

type yamlBackground struct {
	Sky     bool        `yaml:"sky"`
	Horizon *types.Vec3 `yaml:"horizon"`
	Zenith  *types.Vec3 `yaml:"zenith"`
}

type yamlMaterial struct {
	Name   string     `yaml:"name"`
	Type   string     `yaml:"type"`
	Color  types.Vec3 `yaml:"color"`
	Albedo *float32   `yaml:"albedo"`
}

type yamlSphere struct {
	Position types.Vec3 `yaml:"position"`
	Radius   float32    `yaml:"radius"`
	Material string     `yaml:"material"`
}

type yamlTriangle struct {
	Vertices [3]types.Vec3 `yaml:"vertices"`
	Material string        `yaml:"material"`
}

type yamlLight struct {
	Position types.Vec3 `yaml:"position"`
	Color    types.Vec3 `yaml:"color"`
}

type yamlMesh struct {
	File      string     `yaml:"file"`
	Translate types.Vec3 `yaml:"translate"`
}

// The document layout of yaml scene descriptions.
type yamlScene struct {
	Camera     *yamlCamera     `yaml:"camera"`
	Background *yamlBackground `yaml:"background"`
	Materials  []yamlMaterial  `yaml:"materials"`
	Spheres    []yamlSphere    `yaml:"spheres"`
	Triangles  []yamlTriangle  `yaml:"triangles"`
	Lights     []yamlLight     `yaml:"lights"`
	Meshes     []yamlMesh      `yaml:"meshes"`
}

type yamlSceneReader struct {
	logger log.Logger
}

// Create a new yaml scene reader.
func newYamlReader() *yamlSceneReader {
	return &yamlSceneReader{
		logger: log.New("yaml scene reader"),
	}
}

// Read scene definition.
func (r *yamlSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	var doc yamlScene
	dec := yaml.NewDecoder(sceneRes)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("yaml reader: %s: %w", sceneRes.Path(), err)
	}

	sc := scene.NewScene()

	if doc.Camera != nil {
		fov := doc.Camera.FOV
		if fov == 0 {
			fov = 45
		}
		cam := scene.NewCamera(fov)
		cam.Position = doc.Camera.Position
		cam.LookAt = doc.Camera.LookAt
		if doc.Camera.Up != nil {
			cam.Up = *doc.Camera.Up
		}
		cam.InvertY = doc.Camera.InvertY
		sc.SetCamera(cam)
	}

	if doc.Background != nil {
		if doc.Background.Sky {
			sc.Background = scene.SkyBackground()
		}
		if doc.Background.Horizon != nil {
			sc.Background.Horizon = *doc.Background.Horizon
		}
		if doc.Background.Zenith != nil {
			sc.Background.Zenith = *doc.Background.Zenith
		}
	}

	matNameToIndex := make(map[string]uint32)
	for index, mat := range doc.Materials {
		if mat.Name == "" {
			return nil, fmt.Errorf("yaml reader: material %d has no name", index)
		}
		if _, exists := matNameToIndex[mat.Name]; exists {
			return nil, fmt.Errorf("yaml reader: material %q already defined", mat.Name)
		}
		matType, err := scene.ParseMaterialType(mat.Type)
		if err != nil {
			return nil, fmt.Errorf("yaml reader: material %q: %w", mat.Name, err)
		}
		var albedo float32 = 1
		if mat.Albedo != nil {
			albedo = *mat.Albedo
		}
		matNameToIndex[mat.Name] = sc.AddMaterial(scene.Material{
			Color:  mat.Color,
			Albedo: albedo,
			Type:   matType,
		})
	}

	lookupMaterial := func(name string) (uint32, error) {
		index, exists := matNameToIndex[name]
		if !exists {
			return 0, fmt.Errorf("yaml reader: undefined material with name %q", name)
		}
		return index, nil
	}

	for index, sphere := range doc.Spheres {
		matIndex, err := lookupMaterial(sphere.Material)
		if err != nil {
			return nil, err
		}
		if err = sc.AddSphere(sphere.Position, sphere.Radius, matIndex); err != nil {
			return nil, fmt.Errorf("yaml reader: sphere %d: %w", index, err)
		}
	}

	for index, tri := range doc.Triangles {
		matIndex, err := lookupMaterial(tri.Material)
		if err != nil {
			return nil, err
		}
		if err = sc.AddTriangle(tri.Vertices[0], tri.Vertices[1], tri.Vertices[2], matIndex); err != nil {
			return nil, fmt.Errorf("yaml reader: triangle %d: %w", index, err)
		}
	}

	for _, light := range doc.Lights {
		sc.AddLight(light.Position, light.Color)
	}

	// Meshes are loaded relative to the yaml file and share the scene with
	// the primitives defined above.
	for _, mesh := range doc.Meshes {
		meshRes, err := asset.NewResource(mesh.File, sceneRes)
		if err != nil {
			return nil, fmt.Errorf("yaml reader: mesh %q: %w", mesh.File, err)
		}
		meshReader := newWavefrontMeshReader(sc, mesh.Translate)
		meshReader.pushFrame(fmt.Sprintf("referenced from %s [meshes]", sceneRes.Path()))
		_, err = meshReader.Read(meshRes)
		meshRes.Close()
		if err != nil {
			return nil, err
		}
	}

	r.logger.Noticef(
		"parsed %d spheres, %d triangles and %d lights in %d ms",
		len(sc.Spheres), len(sc.Triangles), len(sc.Lights), time.Since(start).Nanoseconds()/1e6,
	)
	return sc, nil
}
