package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/achilleasa/spindle/log"
	"github.com/achilleasa/spindle/scene"
	"github.com/achilleasa/spindle/tracer"
	"github.com/achilleasa/spindle/tracer/wavefront"
	"github.com/achilleasa/spindle/types"
)

// A renderer that splits frames into row blocks and renders them in
// parallel using a set of wavefront tracers.
type defaultRenderer struct {
	sync.Mutex

	logger log.Logger

	// The scene being rendered.
	scene *scene.Scene

	// Path state shared by all tracers; each tracer owns the paths of
	// its assigned block.
	pool *wavefront.Pool

	// The list of attached tracers.
	tracers []tracer.Tracer

	// The block scheduler.
	scheduler tracer.BlockScheduler

	options Options

	// Number of rendered frames since the last accumulation reset.
	frameCount uint32

	// Stats for last rendered frame.
	stats FrameStats
}

// Create a new renderer using the specified block scheduler and tracing
// pipeline. If pipeline is nil the default wavefront pipeline is used.
func NewDefault(sc *scene.Scene, scheduler tracer.BlockScheduler, pipeline *wavefront.Pipeline, opts Options) (Renderer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, ErrSceneNotDefined
	}
	if sc.Camera == nil {
		return nil, ErrCameraNotDefined
	}
	if scheduler == nil {
		scheduler = tracer.NaiveScheduler()
	}
	if pipeline == nil {
		pipeline = wavefront.DefaultPipeline(opts.NumBounces, opts.MinBouncesForRR, opts.Jitter)
	}

	info, err := sc.Info(float32(opts.FrameW) / float32(opts.FrameH))
	if err != nil {
		return nil, err
	}
	if err = sc.Validate(info); err != nil {
		return nil, err
	}

	r := &defaultRenderer{
		logger:    log.New("renderer"),
		scene:     sc,
		pool:      wavefront.NewPool(opts.FrameW, opts.FrameH),
		scheduler: scheduler,
		options:   opts,
	}

	// Each tracer needs at least one row
	numTracers := max(1, min(opts.NumTracers, opts.FrameH))
	workers := int(max(1, opts.WorkersPerTracer))
	for index := uint32(0); index < numTracers; index++ {
		tr := wavefront.NewTracer(fmt.Sprintf("cpu-%d", index), workers, int(opts.BatchSize), pipeline)
		if err = tr.Init(); err != nil {
			r.Close()
			return nil, err
		}

		tr.Update(tracer.UpdateScene, sc)
		tr.Update(tracer.UpdateCamera, info)
		tr.Update(tracer.UpdatePathPool, r.pool)
		r.tracers = append(r.tracers, tr)
	}

	r.logger.Infof(
		"attached %d tracer(s) with %d worker(s) each; frame %dx%d, %d spp per frame",
		len(r.tracers), workers, opts.FrameW, opts.FrameH, opts.SamplesPerFrame,
	)
	return r, nil
}

// Shutdown renderer and any attached tracer.
func (r *defaultRenderer) Close() {
	r.Lock()
	defer r.Unlock()

	for _, tr := range r.tracers {
		tr.Close()
	}
	r.tracers = nil
}

// Get render statistics.
func (r *defaultRenderer) Stats() FrameStats {
	r.Lock()
	defer r.Unlock()

	return r.stats
}

// Render next frame and accumulate its samples into the path pool.
func (r *defaultRenderer) Render(ctx context.Context) error {
	r.Lock()
	defer r.Unlock()

	if len(r.tracers) == 0 {
		return ErrNoTracers
	}

	start := time.Now()
	blockAssignment := r.scheduler.Schedule(r.tracers, r.options.FrameH)

	doneChan := make(chan uint32, len(r.tracers))
	errChan := make(chan error, len(r.tracers))
	blockReq := tracer.BlockRequest{
		FrameW:          r.options.FrameW,
		FrameH:          r.options.FrameH,
		SamplesPerPixel: r.options.SamplesPerFrame,
		Seed:            r.options.Seed,
		FrameCount:      r.frameCount,
		Context:         ctx,
		DoneChan:        doneChan,
		ErrChan:         errChan,
	}

	var blockY uint32
	for index, tr := range r.tracers {
		blockReq.BlockY = blockY
		blockReq.BlockH = blockAssignment[index]
		tr.Enqueue(blockReq)
		blockY += blockReq.BlockH
	}

	// Wait for all tracers; they share the path pool so we cannot bail
	// out before every block completes.
	var err error
	for pending := len(r.tracers); pending > 0; pending-- {
		select {
		case <-doneChan:
		case blockErr := <-errChan:
			if err == nil {
				err = blockErr
			}
		}
	}

	if err != nil {
		if errors.Is(err, wavefront.ErrInterrupted) {
			return fmt.Errorf("%w: %w", ErrInterrupted, err)
		}
		return err
	}

	r.frameCount++
	r.updateStats(time.Since(start))
	return nil
}

func (r *defaultRenderer) updateStats(renderTime time.Duration) {
	r.stats = FrameStats{
		Tracers:    make([]TracerStat, len(r.tracers)),
		RenderTime: renderTime,
		FrameCount: r.frameCount,
	}

	for index, tr := range r.tracers {
		trStats := tr.Stats()
		r.stats.Tracers[index] = TracerStat{
			Id:             tr.Id(),
			IsPrimary:      index == 0,
			BlockH:         trStats.BlockH,
			FramePercent:   100.0 * float32(trStats.BlockH) / float32(r.options.FrameH),
			RenderTime:     trStats.RenderTime,
			Rounds:         trStats.Rounds,
			Samples:        trStats.Samples,
			DroppedSamples: trStats.DroppedSamples,
			Stages:         append([]tracer.StageStat(nil), trStats.Stages...),
		}
	}
}

// Move the camera. This discards all accumulated samples.
func (r *defaultRenderer) UpdateCamera(camera *scene.Camera) error {
	r.Lock()
	defer r.Unlock()

	if camera == nil {
		return ErrCameraNotDefined
	}

	r.scene.SetCamera(camera.Clone())
	info, err := r.scene.Info(float32(r.options.FrameW) / float32(r.options.FrameH))
	if err != nil {
		return err
	}

	for _, tr := range r.tracers {
		tr.Update(tracer.UpdateCamera, info)
	}
	r.resetAccumulation()
	return nil
}

// Discard all accumulated samples.
func (r *defaultRenderer) ResetAccumulation() {
	r.Lock()
	defer r.Unlock()

	r.resetAccumulation()
}

func (r *defaultRenderer) resetAccumulation() {
	r.pool.Reset()
	r.frameCount = 0
}

// Get the averaged radiance for each pixel.
func (r *defaultRenderer) Frame() Frame {
	r.Lock()
	defer r.Unlock()

	frame := Frame{
		Width:       r.options.FrameW,
		Height:      r.options.FrameH,
		Radiance:    make([]types.Vec3, r.pool.Len()),
		SampleCount: make([]uint32, r.pool.Len()),
	}
	for pathID := range frame.Radiance {
		path := r.pool.Path(uint32(pathID))
		frame.Radiance[pathID] = path.AveragedSamples
		frame.SampleCount[pathID] = path.SampleCount
	}
	return frame
}

// Tone-map the accumulated radiance into an 8-bit image. A non-positive
// exposure selects the exposure from the render options.
func (r *defaultRenderer) Image(exposure float32) *image.RGBA {
	if exposure <= 0 {
		exposure = r.options.Exposure
	}
	return r.Frame().Image(exposure)
}

// Save the tone-mapped frame as a PNG image.
func (r *defaultRenderer) SaveImage(imgFile string) error {
	start := time.Now()
	if err := writePNG(imgFile, r.Image(0)); err != nil {
		return err
	}
	r.logger.Noticef("wrote frame to %s in %d ms", imgFile, time.Since(start).Nanoseconds()/1000000)
	return nil
}
