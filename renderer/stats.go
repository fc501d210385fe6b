package renderer

import (
	"time"

	"github.com/achilleasa/spindle/tracer"
)

type TracerStat struct {
	// The tracer id.
	Id string

	// True if this is the primary tracer
	IsPrimary bool

	// The block height and the percentage of total frame area it represents.
	BlockH       uint32
	FramePercent float32

	// Render time for assigned block
	RenderTime time.Duration

	// Number of stage rounds needed to drain the block.
	Rounds uint32

	// Accumulated and rejected samples.
	Samples        uint64
	DroppedSamples uint64

	// Per-stage dispatch statistics.
	Stages []tracer.StageStat
}

type FrameStats struct {
	// Individual tracer stats.
	Tracers []TracerStat

	// Total render time for entire frame.
	RenderTime time.Duration

	// Number of frames accumulated since the last reset.
	FrameCount uint32
}
