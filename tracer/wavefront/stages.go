package wavefront

import (
	"fmt"

	"github.com/achilleasa/spindle/scene"
	"github.com/achilleasa/spindle/types"
	"github.com/chewxy/math32"
)

// Mark a path as complete and hand it back to the generate stage which
// accumulates its sample.
func (tr *Tracer) complete(pathID uint32, path *PathState) error {
	path.Status = PathComplete
	return tr.queues.Enqueue(NewRay, pathID)
}

func (tr *Tracer) generate(pathID uint32) error {
	path := tr.pool.Path(pathID)

	if path.Status == PathComplete {
		if path.Accumulate() {
			tr.samples.Add(1)
		} else {
			tr.droppedSamples.Add(1)
		}
		path.Status = PathIdle
	}

	if path.FrameSamples >= tr.block.SamplesPerPixel {
		return nil
	}
	path.FrameSamples++
	path.seedRng(tr.block.Seed, pathID, path.SampleCount+path.DroppedSamples)

	var jx, jy float32 = 0.5, 0.5
	if tr.pipeline.Jitter {
		jx, jy = path.Float(), path.Float()
	}

	x := pathID % tr.block.FrameW
	y := pathID / tr.block.FrameW
	u := (float32(x) + jx) / float32(tr.block.FrameW)
	v := (float32(y) + jy) / float32(tr.block.FrameH)

	info := &tr.sceneInfo
	path.Origin = info.CameraPosition
	path.Direction = info.FrustumTopLeft.
		Add(info.FrustumHorizontal.Mul(u)).
		Add(info.FrustumVertical.Mul(v)).
		Sub(info.CameraPosition).
		Normalize()
	path.AccumulatedLuminance = types.Vec3{}
	path.LatestLuminanceSample = types.Vec3{1, 1, 1}
	path.T = 0
	path.ObjectID = scene.NoObject
	path.Depth = 0
	path.Shadow = ShadowRay{}
	path.Status = PathActive

	return tr.queues.Enqueue(Extend, pathID)
}

func (tr *Tracer) extend(pathID uint32) error {
	path := tr.pool.Path(pathID)

	hit, found := closestHit(tr.sceneData, path.Origin, path.Direction)
	if !found {
		path.T = 0
		path.ObjectID = scene.NoObject
		if bg := &tr.sceneData.Background; !bg.IsBlack() {
			background := bg.Sample(path.Direction.Normalize())
			path.AccumulatedLuminance = path.AccumulatedLuminance.Add(path.LatestLuminanceSample.Mul3(background))
		}
		return tr.complete(pathID, path)
	}

	path.T = hit.t
	path.ObjectID = hit.objectID
	path.MaterialID = hit.material

	if int(hit.material) >= len(tr.sceneData.Materials) {
		return fmt.Errorf("%w: object %d references material %d", ErrInvalidMaterial, hit.objectID, hit.material)
	}

	switch matType := tr.sceneData.Materials[hit.material].Type; matType {
	case scene.DiffuseMaterial:
		return tr.queues.Enqueue(ShadeDiffuse, pathID)
	case scene.ReflectiveMaterial:
		return tr.queues.Enqueue(ShadeReflective, pathID)
	default:
		return fmt.Errorf("%w: material %d has type %s", ErrInvalidMaterial, hit.material, matType)
	}
}

// Calculate the hit point for the last extended ray and the surface normal
// oriented against the ray direction.
func (tr *Tracer) hitFrame(path *PathState) (types.Vec3, types.Vec3, error) {
	point := path.Origin.Add(path.Direction.Mul(path.T))
	normal, err := surfaceNormal(tr.sceneData, path.ObjectID, point)
	if err != nil {
		return point, normal, err
	}
	if normal.Dot(path.Direction) > 0 {
		normal = normal.Mul(-1)
	}
	return point, normal, nil
}

func (tr *Tracer) shadeDiffuse(pathID uint32) error {
	path := tr.pool.Path(pathID)

	point, normal, err := tr.hitFrame(path)
	if err != nil {
		return err
	}

	mat := &tr.sceneData.Materials[path.MaterialID]
	throughput := path.LatestLuminanceSample.Mul3(mat.Attenuation())
	path.LatestLuminanceSample = throughput
	path.Depth++

	origin := point.Add(normal.Mul(Epsilon))

	// Sample one light source and defer its contribution to the shadow stage
	if numLights := len(tr.sceneData.Lights); numLights != 0 && !throughput.IsZero() {
		lightIndex := min(int(path.Float()*float32(numLights)), numLights-1)
		light := &tr.sceneData.Lights[lightIndex]

		toLight := light.Position.Sub(origin)
		distSq := toLight.LenSq()
		if distSq > minDirLenSq {
			dist := math32.Sqrt(distSq)
			lightDir := toLight.Mul(1.0 / dist)
			if cosTheta := normal.Dot(lightDir); cosTheta > 0 {
				scale := cosTheta / (math32.Pi * distSq) * float32(numLights)
				path.Shadow = ShadowRay{
					Origin:       origin,
					Direction:    lightDir,
					MaxDist:      dist,
					Contribution: throughput.Mul3(light.Color).Mul(scale),
				}
				if err = tr.queues.Enqueue(Shadow, pathID); err != nil {
					return err
				}
			}
		}
	}

	if tr.pipeline.Terminator.Terminate(path) {
		return tr.complete(pathID, path)
	}

	path.Origin = origin
	path.Direction = cosineSampleHemisphere(normal, path.Float(), path.Float())
	return tr.queues.Enqueue(Extend, pathID)
}

func (tr *Tracer) shadeReflective(pathID uint32) error {
	path := tr.pool.Path(pathID)

	point, normal, err := tr.hitFrame(path)
	if err != nil {
		return err
	}

	mat := &tr.sceneData.Materials[path.MaterialID]
	path.LatestLuminanceSample = path.LatestLuminanceSample.Mul3(mat.Attenuation())
	path.Depth++

	if tr.pipeline.Terminator.Terminate(path) {
		return tr.complete(pathID, path)
	}

	path.Origin = point.Add(normal.Mul(Epsilon))
	path.Direction = path.Direction.Normalize().Reflect(normal)
	return tr.queues.Enqueue(Extend, pathID)
}

func (tr *Tracer) shadow(pathID uint32) error {
	path := tr.pool.Path(pathID)
	ray := &path.Shadow

	if !occluded(tr.sceneData, ray.Origin, ray.Direction, ray.MaxDist) {
		path.AccumulatedLuminance = path.AccumulatedLuminance.Add(ray.Contribution)
	}
	ray.Contribution = types.Vec3{}
	return nil
}
