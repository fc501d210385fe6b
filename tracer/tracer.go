package tracer

import (
	"context"
	"time"
)

type UpdateType uint8

// The types of updates that can be queued to a tracer.
const (
	// A *scene.Scene to render.
	UpdateScene UpdateType = iota

	// A scene.SceneInfo snapshot with the camera for the next frame.
	UpdateCamera

	// The path state storage shared by all tracers rendering a frame.
	UpdatePathPool
)

func (ut UpdateType) String() string {
	switch ut {
	case UpdateScene:
		return "scene"
	case UpdateCamera:
		return "camera"
	case UpdatePathPool:
		return "path pool"
	}
	return "unknown"
}

// A unit of work that is processed by a tracer.
type BlockRequest struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Block start row and height.
	BlockY uint32
	BlockH uint32

	// The number of samples to take for each pixel in the block.
	SamplesPerPixel uint32

	// A seed value for the per-path random number generators.
	Seed uint64

	// Number of sequential rendered frames from current camera position.
	FrameCount uint32

	// Cancelling this context aborts the block at the next stage boundary.
	// A nil context is never cancelled.
	Context context.Context

	// A channel to signal on block completion with the number of completed rows.
	DoneChan chan<- uint32

	// A channel to signal if an error occurs.
	ErrChan chan<- error
}

// Work statistics for a single pipeline stage.
type StageStat struct {
	Name string

	// Number of dispatches and total number of processed paths.
	Dispatches uint32
	Paths      uint64

	// Total time spent in this stage.
	Time time.Duration
}

// Tracer statistics.
type Stats struct {
	// The rendered block height.
	BlockH uint32

	// Time spent rendering the block.
	RenderTime time.Duration

	// Time spent applying queued updates.
	UpdateTime time.Duration

	// Number of stage rounds needed to drain the block.
	Rounds uint32

	// Number of accumulated and rejected samples.
	Samples        uint64
	DroppedSamples uint64

	// Per-stage statistics in pipeline order.
	Stages []StageStat
}

type Tracer interface {
	// Get tracer id.
	Id() string

	// Get a relative estimate of the tracer's computation speed.
	Speed() uint32

	// Initialize tracer and start processing block requests.
	Init() error

	// Shutdown and cleanup tracer.
	Close()

	// Enqueue block request.
	Enqueue(BlockRequest)

	// Append a change to the tracer's update buffer. Updates are applied
	// before the next block is rendered.
	Update(UpdateType, interface{})

	// Retrieve last frame statistics.
	Stats() *Stats
}
