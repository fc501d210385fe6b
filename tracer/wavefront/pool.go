package wavefront

import (
	"math/rand/v2"

	"github.com/achilleasa/spindle/types"
)

// The lifecycle status of a path.
type PathStatus uint8

const (
	// The path carries no sample.
	PathIdle PathStatus = iota

	// The path is being traced.
	PathActive

	// The path has terminated and its sample awaits accumulation.
	PathComplete
)

// A deferred direct lighting test. The contribution is added to the path
// luminance only if nothing blocks the segment between Origin and the
// light source.
type ShadowRay struct {
	Origin       types.Vec3
	Direction    types.Vec3
	MaxDist      float32
	Contribution types.Vec3
}

// The per-path state that survives across stage dispatches. Path ids map
// one-to-one to frame pixels (id = y*frameW + x).
type PathState struct {
	Direction types.Vec3
	Origin    types.Vec3

	// Radiance gathered by the current sample.
	AccumulatedLuminance types.Vec3

	// Path throughput; starts at (1, 1, 1) and gets scaled at each bounce.
	LatestLuminanceSample types.Vec3

	// Running average of all accumulated samples.
	AveragedSamples types.Vec3

	// Hit distance; only valid right after the path was extended.
	T float32

	MaterialID uint32

	// The id of the intersected object or 0 if the ray missed.
	ObjectID uint32

	// Number of samples folded into AveragedSamples.
	SampleCount uint32

	// Number of samples rejected by the accumulator.
	DroppedSamples uint32

	// Number of bounces for the current sample.
	Depth uint32

	// Number of samples spawned during the current frame.
	FrameSamples uint32

	Status PathStatus

	Shadow ShadowRay

	Rng rand.PCG
}

// Draw a uniformly distributed number in [0, 1) from the path's random
// number generator.
func (p *PathState) Float() float32 {
	return float32(p.Rng.Uint64()>>40) / (1 << 24)
}

// Seed the path RNG so that the generated sequence only depends on the
// seed, the path id and the sample index.
func (p *PathState) seedRng(seed uint64, pathID uint32, sampleIndex uint32) {
	p.Rng.Seed(mix64(seed^uint64(sampleIndex)<<32), mix64(uint64(pathID)<<32|uint64(sampleIndex)))
}

// A splitmix64 finalizer.
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// A pool of path states covering an entire frame.
type Pool struct {
	frameW uint32
	frameH uint32
	paths  []PathState
}

// Allocate a path pool for the given frame dimensions.
func NewPool(frameW, frameH uint32) *Pool {
	return &Pool{
		frameW: frameW,
		frameH: frameH,
		paths:  make([]PathState, int(frameW)*int(frameH)),
	}
}

func (p *Pool) FrameW() uint32 {
	return p.frameW
}

func (p *Pool) FrameH() uint32 {
	return p.frameH
}

// Get the number of paths in the pool.
func (p *Pool) Len() int {
	return len(p.paths)
}

// Get the state of a path.
func (p *Pool) Path(pathID uint32) *PathState {
	return &p.paths[pathID]
}

// Get the state of the path that samples pixel (x, y).
func (p *Pool) Pixel(x, y uint32) *PathState {
	return &p.paths[y*p.frameW+x]
}

// Discard all path state including any accumulated samples.
func (p *Pool) Reset() {
	clear(p.paths)
}
