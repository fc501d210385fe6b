package reader

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/spindle/asset"
	"github.com/achilleasa/spindle/log"
	"github.com/achilleasa/spindle/scene"
	"github.com/achilleasa/spindle/types"
)

type wavefrontMaterial struct {
	Name string

	// Diffuse color.
	Kd types.Vec3

	// Specular color. Materials with a non-zero specular color are
	// imported as mirrors.
	Ks types.Vec3

	// Fraction of incident light re-emitted by the surface.
	Albedo float32

	// Explicit material type; overrides the Ks-based detection.
	Type string

	// Index of the generated scene material or -1 if this material is
	// not used by any face.
	sceneIndex int
}

// Convert to a scene material.
func (wf *wavefrontMaterial) sceneMaterial() (scene.Material, error) {
	var matType scene.MaterialType
	var err error
	if wf.Type != "" {
		if matType, err = scene.ParseMaterialType(wf.Type); err != nil {
			return scene.Material{}, err
		}
	} else if wf.Ks.MaxComponent() > 0 {
		matType = scene.ReflectiveMaterial
	} else {
		matType = scene.DiffuseMaterial
	}

	color := wf.Kd
	if matType == scene.ReflectiveMaterial && wf.Ks.MaxComponent() > 0 {
		color = wf.Ks
	}

	return scene.Material{
		Color:  color,
		Albedo: wf.Albedo,
		Type:   matType,
	}, nil
}

type wavefrontSceneReader struct {
	logger log.Logger

	// The scene that receives the parsed primitives.
	sc *scene.Scene

	// A map of material names to parsed wavefront materials
	matNameToIndex map[string]int

	// Currently selected material.
	curMaterial *wavefrontMaterial

	// Parsed wavefront materials.
	materials []*wavefrontMaterial

	// List of parsed vertices.
	vertexList []types.Vec3

	// Translation applied to all parsed vertices.
	offset types.Vec3

	// Number of dropped zero-area faces.
	degenerateFaces int

	// An error stack that provides additional error information when
	// scene files include other files (models, mat libs e.t.c)
	errStack []string
}

// Create a new wavefront scene reader.
func newWavefrontReader() *wavefrontSceneReader {
	return newWavefrontMeshReader(scene.NewScene(), types.Vec3{})
}

// Create a wavefront reader that appends meshes to an existing scene
// after translating them by offset.
func newWavefrontMeshReader(sc *scene.Scene, offset types.Vec3) *wavefrontSceneReader {
	return &wavefrontSceneReader{
		logger:         log.New("wavefront scene reader"),
		sc:             sc,
		matNameToIndex: make(map[string]int),
		vertexList:     make([]types.Vec3, 0),
		offset:         offset,
		errStack:       make([]string, 0),
	}
}

// Read scene definition.
func (r *wavefrontSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	numTriangles := len(r.sc.Triangles)
	if err := r.parse(sceneRes); err != nil {
		return nil, err
	}

	if r.degenerateFaces > 0 {
		r.logger.Warningf("dropped %d zero-area triangles", r.degenerateFaces)
	}
	r.logger.Noticef(
		"parsed %d triangles in %d ms",
		len(r.sc.Triangles)-numTriangles, time.Since(start).Nanoseconds()/1e6,
	)

	return r.sc, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontSceneReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = strings.Trim(
			fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	} else {
		errMsg = strings.Trim(
			fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	}

	return errors.New(errMsg)
}

// Push a frame to the error stack.
func (r *wavefrontSceneReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontSceneReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Select the default material for faces that do not specify one.
func (r *wavefrontSceneReader) defaultMaterial() *wavefrontMaterial {
	matName := ""

	// Search for material in referenced list
	matIndex, exists := r.matNameToIndex[matName]
	if !exists {
		r.materials = append(r.materials, &wavefrontMaterial{
			Kd:         types.Vec3{0.7, 0.7, 0.7},
			Albedo:     1,
			sceneIndex: -1,
		})
		matIndex = len(r.materials) - 1
		r.matNameToIndex[matName] = matIndex
	}
	return r.materials[matIndex]
}

// Get the scene material index for a wavefront material, adding the
// material to the scene the first time it is referenced. Unused materials
// never make it into the scene.
func (r *wavefrontSceneReader) sceneMaterialIndex(wfMat *wavefrontMaterial) (uint32, error) {
	if wfMat.sceneIndex >= 0 {
		return uint32(wfMat.sceneIndex), nil
	}

	mat, err := wfMat.sceneMaterial()
	if err != nil {
		return 0, err
	}
	wfMat.sceneIndex = int(r.sc.AddMaterial(mat))
	return uint32(wfMat.sceneIndex), nil
}

// Get the scene camera, creating one if needed.
func (r *wavefrontSceneReader) camera() *scene.Camera {
	if r.sc.Camera == nil {
		r.sc.SetCamera(scene.NewCamera(45))
	}
	return r.sc.Camera
}

// Parse wavefront object scene format.
func (r *wavefrontSceneReader) parse(res *asset.Resource) error {
	var lineNum int
	var err error

	// The main obj file may include (call) several other object files. Each
	// object file contains 1-based indices (when they are positive). By
	// tracking the current vertex offset we can apply it while parsing
	// faces to select the correct coordinates.
	relVertexOffset := len(r.vertexList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call", "mtllib":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for '%s'; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, lineTokens[0]))

			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}

			switch lineTokens[0] {
			case "call":
				err = r.parse(incRes)
			case "mtllib":
				err = r.parseMaterials(incRes)
			}
			incRes.Close()

			if err != nil {
				return err
			}
			r.popFrame()
		case "usemtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for 'usemtl'; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			// Lookup material
			matName := lineTokens[1]
			matIndex, exists := r.matNameToIndex[matName]
			if !exists {
				return r.emitError(res.Path(), lineNum, `undefined material with name "%s"`, matName)
			}

			// Activate material
			r.curMaterial = r.materials[matIndex]
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.vertexList = append(r.vertexList, v.Add(r.offset))
		case "f":
			if err = r.parseFace(lineTokens, relVertexOffset); err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "camera_fov":
			if r.camera().FOV, err = parseFloat32(lineTokens); err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "camera_eye":
			if r.camera().Position, err = parseVec3(lineTokens); err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "camera_look":
			if r.camera().LookAt, err = parseVec3(lineTokens); err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "camera_up":
			if r.camera().Up, err = parseVec3(lineTokens); err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "light":
			// light pX pY pZ r g b
			if len(lineTokens) != 7 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for 'light'; expected 6 arguments; got %d`, len(lineTokens)-1)
			}
			pos, err := parseVec3(lineTokens[0:4])
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			color, err := parseVec3(append([]string{"light"}, lineTokens[4:]...))
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.sc.AddLight(pos.Add(r.offset), color)
		case "vn", "vt", "g", "o", "s":
			// Shading normals, texture coords, object groups and
			// smoothing groups carry no information for flat-shaded
			// primitives.
		default:
			r.logger.Debugf("[%s: %d] skipping unsupported directive %q", res.Path(), lineNum, lineTokens[0])
		}
	}

	return scanner.Err()
}

// Parse face definition. Each face definition consists of 3 or more
// arguments, one for each vertex. Each one of the vertex arguments is
// comprised of 1, 2 or 3 indices separated by a slash character; only the
// vertex index is used.
//
// Indices start from 1 and may be negative to indicate an offset off the
// end of the vertex list. Polygons are triangulated as a fan around the
// first vertex.
func (r *wavefrontSceneReader) parseFace(lineTokens []string, relVertexOffset int) error {
	if len(lineTokens) < 4 {
		return fmt.Errorf(`unsupported syntax for 'f'; expected at least 3 arguments; got %d`, len(lineTokens)-1)
	}

	vertices := make([]types.Vec3, len(lineTokens)-1)
	for arg := range vertices {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// Faces must at least define a vertex coord
		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err := selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		vertices[arg] = r.vertexList[vOffset]
	}

	// If no material defined select the default.
	if r.curMaterial == nil {
		r.curMaterial = r.defaultMaterial()
	}
	matIndex, err := r.sceneMaterialIndex(r.curMaterial)
	if err != nil {
		return err
	}

	for index := 1; index < len(vertices)-1; index++ {
		tri := scene.NewTriangle(vertices[0], vertices[index], vertices[index+1], matIndex)
		if tri.Degenerate() {
			r.degenerateFaces++
			continue
		}
		r.sc.Triangles = append(r.sc.Triangles, tri)
	}

	return nil
}

// Parse a wavefront material library.
func (r *wavefrontSceneReader) parseMaterials(res *asset.Resource) error {
	var lineNum int
	var err error

	r.logger.Infof(`parsing material library "%s"`, res.Path())

	scanner := bufio.NewScanner(res)

	var curMaterial *wavefrontMaterial
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "newmtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for 'newmtl'; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			matName := lineTokens[1]
			if _, exists := r.matNameToIndex[matName]; exists {
				return r.emitError(res.Path(), lineNum, `material "%s" already defined`, matName)
			}

			// Allocate new material and add it to library
			curMaterial = &wavefrontMaterial{
				Name:       matName,
				Albedo:     1,
				sceneIndex: -1,
			}
			r.materials = append(r.materials, curMaterial)
			r.matNameToIndex[matName] = len(r.materials) - 1
		default:
			if curMaterial == nil {
				return r.emitError(res.Path(), lineNum, `got '%s' without a 'newmtl'`, lineTokens[0])
			}

			switch lineTokens[0] {
			case "Kd":
				curMaterial.Kd, err = parseVec3(lineTokens)
			case "Ks":
				curMaterial.Ks, err = parseVec3(lineTokens)
			case "albedo":
				curMaterial.Albedo, err = parseFloat32(lineTokens)
			case "type":
				if len(lineTokens) != 2 {
					return r.emitError(res.Path(), lineNum, `unsupported syntax for 'type'; expected 1 argument; got %d`, len(lineTokens)-1)
				}
				curMaterial.Type = lineTokens[1]
				_, err = scene.ParseMaterialType(curMaterial.Type)
			}

			// Report any errors
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		}
	}

	return scanner.Err()
}

// Given an index for a face coord calculate the proper offset into the
// coord list. Wavefront format can also use negative indices to reference
// elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if index == 0 || vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a float scalar value.
func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for '%s'; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}

	return float32(val), nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for '%s'; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
