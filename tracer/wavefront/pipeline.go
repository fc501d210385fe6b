package wavefront

// A kernel processes a single path id taken from a stage queue.
type StageKernel func(tr *Tracer, pathID uint32) error

// A pipeline stage binds a kernel to the queue it consumes.
type Stage struct {
	Type   StageType
	Kernel StageKernel
}

// The list of pluggable stages that are used to render the scene. Stages
// are dispatched in order, once per round, until all queues drain.
type Pipeline struct {
	Stages []Stage

	// Decides when paths stop bouncing.
	Terminator Terminator

	// Jitter primary rays inside each pixel; when disabled rays pass
	// through pixel centers.
	Jitter bool
}

// Create the default pipeline: generate, extend, diffuse shading,
// reflective shading and shadow tests.
func DefaultPipeline(numBounces, minBouncesForRR uint32, jitter bool) *Pipeline {
	return &Pipeline{
		Stages: []Stage{
			{Type: NewRay, Kernel: GeneratePrimaryRays()},
			{Type: Extend, Kernel: ExtendPaths()},
			{Type: ShadeDiffuse, Kernel: ShadeDiffuseSurfaces()},
			{Type: ShadeReflective, Kernel: ShadeReflectiveSurfaces()},
			{Type: Shadow, Kernel: TraceShadowRays()},
		},
		Terminator: BounceLimit(numBounces, minBouncesForRR),
		Jitter:     jitter,
	}
}

// Accumulate completed samples and spawn primary rays for pixels that need
// more samples.
func GeneratePrimaryRays() StageKernel {
	return func(tr *Tracer, pathID uint32) error {
		return tr.generate(pathID)
	}
}

// Intersect paths with the scene and route them to a shading stage.
func ExtendPaths() StageKernel {
	return func(tr *Tracer, pathID uint32) error {
		return tr.extend(pathID)
	}
}

// Shade hits on diffuse surfaces.
func ShadeDiffuseSurfaces() StageKernel {
	return func(tr *Tracer, pathID uint32) error {
		return tr.shadeDiffuse(pathID)
	}
}

// Shade hits on mirror surfaces.
func ShadeReflectiveSurfaces() StageKernel {
	return func(tr *Tracer, pathID uint32) error {
		return tr.shadeReflective(pathID)
	}
}

// Resolve deferred direct lighting.
func TraceShadowRays() StageKernel {
	return func(tr *Tracer, pathID uint32) error {
		return tr.shadow(pathID)
	}
}
