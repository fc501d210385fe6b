package scene

import (
	"bytes"
	"fmt"
	"math"

	"github.com/achilleasa/spindle/types"
)

// The compiled scene layout version. It must be bumped whenever any of the
// structs shared by the tracing stages changes, as this is a breaking
// change for previously compiled scenes.
const LayoutVersion uint32 = 5

// Per-frame camera and primitive count information consumed by the
// tracing stages.
type SceneInfo struct {
	CameraPosition    types.Vec3
	FrustumTopLeft    types.Vec3
	FrustumHorizontal types.Vec3
	FrustumVertical   types.Vec3
	NumSpheres        uint32
	NumTriangles      uint32
}

// The scene store. Once a frame starts rendering the scene is treated as
// immutable by all tracing stages.
type Scene struct {
	Camera *Camera

	Materials []Material
	Spheres   []Sphere
	Triangles []Triangle
	Lights    []Light

	Background Background
}

func NewScene() *Scene {
	return &Scene{
		Materials: make([]Material, 0),
		Spheres:   make([]Sphere, 0),
		Triangles: make([]Triangle, 0),
		Lights:    make([]Light, 0),
	}
}

// Attach a camera to the scene.
func (s *Scene) SetCamera(camera *Camera) {
	s.Camera = camera
}

// Add a material to the scene and return its index.
func (s *Scene) AddMaterial(material Material) uint32 {
	s.Materials = append(s.Materials, material)
	return uint32(len(s.Materials) - 1)
}

// Add a sphere to the scene. The sphere material must already be defined.
// Zero-radius spheres are accepted and never report a hit.
func (s *Scene) AddSphere(position types.Vec3, radius float32, material uint32) error {
	if radius < 0 || math.IsNaN(float64(radius)) {
		return ErrInvalidSphere
	}
	if int(material) >= len(s.Materials) {
		return fmt.Errorf("%w: sphere material %d", ErrInvalidMaterial, material)
	}
	s.Spheres = append(s.Spheres, Sphere{Position: position, Radius: radius, Material: material})
	return nil
}

// Add a triangle to the scene. The triangle material must already be defined.
func (s *Scene) AddTriangle(v1, v2, v3 types.Vec3, material uint32) error {
	if int(material) >= len(s.Materials) {
		return fmt.Errorf("%w: triangle material %d", ErrInvalidMaterial, material)
	}
	s.Triangles = append(s.Triangles, NewTriangle(v1, v2, v3, material))
	return nil
}

// Add a point light to the scene.
func (s *Scene) AddLight(position, color types.Vec3) {
	s.Lights = append(s.Lights, Light{Position: position, Color: color})
}

// Build the scene info block for the current camera and the given aspect ratio.
func (s *Scene) Info(aspect float32) (SceneInfo, error) {
	if s.Camera == nil {
		return SceneInfo{}, ErrCameraNotDefined
	}
	fr := s.Camera.Frustum(aspect)
	return SceneInfo{
		CameraPosition:    s.Camera.Position,
		FrustumTopLeft:    fr.TopLeft,
		FrustumHorizontal: fr.Horizontal,
		FrustumVertical:   fr.Vertical,
		NumSpheres:        uint32(len(s.Spheres)),
		NumTriangles:      uint32(len(s.Triangles)),
	}, nil
}

// Validate scene contents against a scene info block. Any reported error is
// a configuration error that must be fixed before rendering.
func (s *Scene) Validate(info SceneInfo) error {
	if int(info.NumSpheres) != len(s.Spheres) || int(info.NumTriangles) != len(s.Triangles) {
		return fmt.Errorf(
			"%w: info reports %d spheres / %d triangles; scene has %d / %d",
			ErrCountMismatch, info.NumSpheres, info.NumTriangles, len(s.Spheres), len(s.Triangles),
		)
	}
	if uint64(len(s.Spheres))+uint64(len(s.Triangles)) >= math.MaxUint32 {
		return fmt.Errorf("%w: too many objects", ErrCountMismatch)
	}

	for index, mat := range s.Materials {
		if mat.Albedo < 0 || mat.Albedo > 1 {
			return fmt.Errorf("%w: material %d has albedo %f", ErrInvalidAlbedo, index, mat.Albedo)
		}
		if mat.Type != DiffuseMaterial && mat.Type != ReflectiveMaterial {
			return fmt.Errorf("%w: material %d has type %s", ErrUnknownMatType, index, mat.Type)
		}
	}

	for index, sphere := range s.Spheres {
		if sphere.Radius < 0 || math.IsNaN(float64(sphere.Radius)) {
			return fmt.Errorf("%w: sphere %d has radius %f", ErrInvalidSphere, index, sphere.Radius)
		}
		if int(sphere.Material) >= len(s.Materials) {
			return fmt.Errorf("%w: sphere %d references material %d", ErrInvalidMaterial, index, sphere.Material)
		}
	}

	for index, tri := range s.Triangles {
		if int(tri.Material) >= len(s.Materials) {
			return fmt.Errorf("%w: triangle %d references material %d", ErrInvalidMaterial, index, tri.Material)
		}
	}

	return nil
}

// Return a textual description of the scene contents.
func (s *Scene) Stats() string {
	var buf bytes.Buffer

	var diffuse, reflective, degenerate int
	for _, mat := range s.Materials {
		if mat.Type == ReflectiveMaterial {
			reflective++
		} else {
			diffuse++
		}
	}
	for index := range s.Triangles {
		if s.Triangles[index].Degenerate() {
			degenerate++
		}
	}

	fmt.Fprintf(&buf, "materials  : %d (%d diffuse, %d reflective)\n", len(s.Materials), diffuse, reflective)
	fmt.Fprintf(&buf, "spheres    : %d\n", len(s.Spheres))
	fmt.Fprintf(&buf, "triangles  : %d (%d degenerate)\n", len(s.Triangles), degenerate)
	fmt.Fprintf(&buf, "lights     : %d\n", len(s.Lights))
	if s.Camera != nil {
		fmt.Fprintf(&buf, "camera     : eye %v look-at %v fov %.1f", s.Camera.Position, s.Camera.LookAt, s.Camera.FOV)
	} else {
		fmt.Fprintf(&buf, "camera     : none")
	}
	return buf.String()
}

// The payload stored in compiled scene files.
type CompiledScene struct {
	LayoutVersion uint32
	Scene         *Scene
}
