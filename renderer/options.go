package renderer

import "fmt"

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Number of samples taken for each pixel in a single frame.
	SamplesPerFrame uint32

	// Max number of bounces per path.
	NumBounces uint32

	// Min bounces before applying russian roulette for path elimination.
	MinBouncesForRR uint32

	// Exposure for tonemapping.
	Exposure float32

	// Number of tracers sharing the frame and the number of workers used
	// by each tracer for dispatching pipeline stages.
	NumTracers       uint32
	WorkersPerTracer uint32

	// Number of paths processed by a worker in one go; 0 splits each
	// dispatch evenly among workers.
	BatchSize uint32

	// Seed for the per-path random number generators.
	Seed uint64

	// Jitter primary rays within each pixel.
	Jitter bool
}

// Get the default render options.
func DefaultOptions() Options {
	return Options{
		FrameW:           512,
		FrameH:           512,
		SamplesPerFrame:  16,
		NumBounces:       5,
		MinBouncesForRR:  3,
		Exposure:         1.0,
		NumTracers:       1,
		WorkersPerTracer: 4,
		Seed:             1,
		Jitter:           true,
	}
}

// Check that the options describe a renderable frame.
func (opts *Options) Validate() error {
	if opts.FrameW == 0 || opts.FrameH == 0 {
		return fmt.Errorf("%w: frame dimensions %dx%d", ErrInvalidOptions, opts.FrameW, opts.FrameH)
	}
	if opts.SamplesPerFrame == 0 {
		return fmt.Errorf("%w: samples per frame must be positive", ErrInvalidOptions)
	}
	if opts.NumBounces == 0 {
		return fmt.Errorf("%w: number of bounces must be positive", ErrInvalidOptions)
	}
	if opts.Exposure <= 0 {
		return fmt.Errorf("%w: exposure must be positive", ErrInvalidOptions)
	}
	return nil
}
