package wavefront

import "errors"

var (
	ErrQueueOverflow      = errors.New("wavefront tracer: stage queue overflow")
	ErrConservation       = errors.New("wavefront tracer: queued paths exceed active paths")
	ErrCapacity           = errors.New("wavefront tracer: queue capacity is smaller than the number of active paths")
	ErrInterrupted        = errors.New("wavefront tracer: interrupted while rendering")
	ErrNoSceneData        = errors.New("wavefront tracer: no scene data uploaded")
	ErrNoPathPool         = errors.New("wavefront tracer: no path pool attached")
	ErrInvalidBlock       = errors.New("wavefront tracer: block request does not fit the frame")
	ErrInvalidObject      = errors.New("wavefront tracer: object id out of range")
	ErrInvalidMaterial    = errors.New("wavefront tracer: material id out of range")
	ErrNotInitialized     = errors.New("wavefront tracer: tracer not initialized")
	ErrIncompletePipeline = errors.New("wavefront tracer: pipeline has no stages or terminator")
)
