package wavefront

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/achilleasa/spindle/log"
	"github.com/achilleasa/spindle/scene"
	"github.com/achilleasa/spindle/tracer"
)

// A CPU tracer that renders frame blocks using the wavefront model. Paths
// are partitioned into stage queues and each stage is dispatched over a
// pool of worker goroutines.
type Tracer struct {
	logger log.Logger

	sync.Mutex
	wg sync.WaitGroup

	// The tracer id.
	id string

	// Number of workers used by each dispatch.
	workers int

	dispatcher stageDispatcher

	// The tracer rendering pipeline.
	pipeline *Pipeline

	// If non-zero, the fixed capacity of each stage queue.
	queueCapacity int

	// A buffer for queuing updates. Updates are grouped by type and
	// latest updates always overwrite the previous ones.
	updateBuffer map[tracer.UpdateType]interface{}

	// A channel for receiving block requests from the renderer.
	blockReqChan chan tracer.BlockRequest

	// A channel for signaling the worker to exit.
	closeChan chan struct{}

	// Statistics for last rendered block.
	stats *tracer.Stats

	// Committed render state.
	sceneData *scene.Scene
	sceneInfo scene.SceneInfo
	pool      *Pool
	queues    *QueueSet

	// The block being rendered.
	block tracer.BlockRequest

	samples        atomic.Uint64
	droppedSamples atomic.Uint64
}

// Create a new wavefront tracer that dispatches stages over the given
// number of workers. Each worker processes batches of batchSize paths; a
// zero batch size splits each dispatch evenly among the workers.
func NewTracer(id string, workers, batchSize int, pipeline *Pipeline) *Tracer {
	dispatcher := newDispatcher(workers, batchSize)
	return &Tracer{
		logger:       log.New(fmt.Sprintf("wavefront tracer (%s)", id)),
		id:           id,
		workers:      dispatcher.workers,
		dispatcher:   dispatcher,
		pipeline:     pipeline,
		updateBuffer: make(map[tracer.UpdateType]interface{}),
		stats:        &tracer.Stats{},
	}
}

// Use stage queues with a fixed capacity instead of sizing them to fit
// each block request.
func (tr *Tracer) SetQueueCapacity(capacity int) {
	tr.Lock()
	defer tr.Unlock()

	tr.queueCapacity = capacity
	tr.queues = nil
}

// Get tracer id.
func (tr *Tracer) Id() string {
	return tr.id
}

// Get the computation speed estimate; the number of dispatch workers.
func (tr *Tracer) Speed() uint32 {
	return uint32(tr.workers)
}

// Initialize tracer and start the block request worker.
func (tr *Tracer) Init() error {
	tr.Lock()
	defer tr.Unlock()

	if tr.pipeline == nil || len(tr.pipeline.Stages) == 0 || tr.pipeline.Terminator == nil {
		return ErrIncompletePipeline
	}

	if tr.closeChan == nil {
		tr.startWorker()
	}
	return nil
}

// Shutdown and cleanup tracer.
func (tr *Tracer) Close() {
	tr.Lock()
	closeChan := tr.closeChan
	tr.closeChan = nil
	tr.blockReqChan = nil
	tr.Unlock()

	// If the worker is running shut it down
	if closeChan != nil {
		closeChan <- struct{}{}

		// wait for worker to ack close and shutdown channel
		<-closeChan
		close(closeChan)
		tr.wg.Wait()
	}

	tr.Lock()
	tr.sceneData = nil
	tr.pool = nil
	tr.queues = nil
	tr.Unlock()
}

// Enqueue block request.
func (tr *Tracer) Enqueue(blockReq tracer.BlockRequest) {
	tr.Lock()
	blockReqChan := tr.blockReqChan
	tr.Unlock()

	if blockReqChan == nil {
		tr.logger.Error("worker not running; rejecting block request")
		blockReq.ErrChan <- ErrNotInitialized
		return
	}
	blockReqChan <- blockReq
}

// Append a change to the tracer's update buffer.
func (tr *Tracer) Update(updateType tracer.UpdateType, data interface{}) {
	tr.Lock()
	defer tr.Unlock()

	tr.updateBuffer[updateType] = data
}

// Retrieve last frame statistics.
func (tr *Tracer) Stats() *tracer.Stats {
	return tr.stats
}

// Commit queued changes. This method is meant to be called while holding tr.Lock().
func (tr *Tracer) commitUpdates() error {
	if len(tr.updateBuffer) == 0 {
		return nil
	}

	for updateType, data := range tr.updateBuffer {
		switch updateType {
		case tracer.UpdateScene:
			sc, ok := data.(*scene.Scene)
			if !ok {
				return fmt.Errorf("wavefront tracer: unexpected %s update payload %T", updateType, data)
			}
			tr.sceneData = sc
		case tracer.UpdateCamera:
			info, ok := data.(scene.SceneInfo)
			if !ok {
				return fmt.Errorf("wavefront tracer: unexpected %s update payload %T", updateType, data)
			}
			tr.sceneInfo = info
		case tracer.UpdatePathPool:
			pool, ok := data.(*Pool)
			if !ok {
				return fmt.Errorf("wavefront tracer: unexpected %s update payload %T", updateType, data)
			}
			tr.pool = pool
		default:
			return fmt.Errorf("wavefront tracer: unsupported update type %d", updateType)
		}
	}
	tr.updateBuffer = make(map[tracer.UpdateType]interface{})

	if tr.sceneData != nil {
		return tr.sceneData.Validate(tr.sceneInfo)
	}
	return nil
}

// Spawn a go-routine to process block render requests. This method is
// meant to be called while holding tr.Lock().
func (tr *Tracer) startWorker() {
	blockReqChan := make(chan tracer.BlockRequest)
	closeChan := make(chan struct{})
	tr.blockReqChan = blockReqChan
	tr.closeChan = closeChan

	readyChan := make(chan struct{})
	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()
		close(readyChan)
		for {
			select {
			case blockReq := <-blockReqChan:
				// Render block and reply with our completion status
				if err := tr.Trace(&blockReq); err != nil {
					blockReq.ErrChan <- err
					continue
				}
				blockReq.DoneChan <- blockReq.BlockH
			case <-closeChan:
				// Ack close
				closeChan <- struct{}{}
				return
			}
		}
	}()

	// Wait for go-routine to start
	<-readyChan
}

// Apply pending updates and render a frame block. Trace returns once every
// pixel in the block has been sampled blockReq.SamplesPerPixel times, or
// after the first error.
func (tr *Tracer) Trace(blockReq *tracer.BlockRequest) error {
	tr.Lock()
	defer tr.Unlock()

	if len(tr.updateBuffer) != 0 {
		start := time.Now()
		if err := tr.commitUpdates(); err != nil {
			return err
		}
		tr.stats.UpdateTime = time.Since(start)
	}

	if err := tr.prepare(blockReq); err != nil {
		return err
	}

	start := time.Now()
	err := tr.renderBlock(blockReq)
	tr.stats.BlockH = blockReq.BlockH
	tr.stats.RenderTime = time.Since(start)
	tr.stats.Samples = tr.samples.Load()
	tr.stats.DroppedSamples = tr.droppedSamples.Load()
	if err != nil {
		tr.logger.Errorf("aborted block [%d, %d): %v", blockReq.BlockY, blockReq.BlockY+blockReq.BlockH, err)
		return err
	}

	tr.logger.Debugf(
		"rendered block [%d, %d) in %s (%d rounds)",
		blockReq.BlockY, blockReq.BlockY+blockReq.BlockH, tr.stats.RenderTime, tr.stats.Rounds,
	)
	return nil
}

// Validate a block request and size the stage queues for it.
func (tr *Tracer) prepare(blockReq *tracer.BlockRequest) error {
	if tr.sceneData == nil {
		return ErrNoSceneData
	}
	if tr.pool == nil {
		return ErrNoPathPool
	}
	if tr.pipeline == nil || tr.pipeline.Terminator == nil {
		return ErrNotInitialized
	}
	if blockReq.FrameW != tr.pool.FrameW() || blockReq.FrameH != tr.pool.FrameH() ||
		blockReq.BlockH == 0 || blockReq.BlockY+blockReq.BlockH > blockReq.FrameH {
		return fmt.Errorf(
			"%w: block [%d, %d) for %dx%d frame; pool is %dx%d",
			ErrInvalidBlock, blockReq.BlockY, blockReq.BlockY+blockReq.BlockH,
			blockReq.FrameW, blockReq.FrameH, tr.pool.FrameW(), tr.pool.FrameH(),
		)
	}

	activePaths := int(blockReq.FrameW * blockReq.BlockH)
	capacity := activePaths
	if tr.queueCapacity > 0 {
		capacity = tr.queueCapacity
	}
	if capacity < activePaths {
		return fmt.Errorf("%w: capacity %d; active paths %d", ErrCapacity, capacity, activePaths)
	}
	if tr.queues == nil || tr.queues.Capacity() != capacity {
		tr.queues = NewQueueSet(capacity)
	}

	return nil
}

// Run stage rounds until all queues drain.
func (tr *Tracer) renderBlock(blockReq *tracer.BlockRequest) error {
	ctx := blockReq.Context
	if ctx == nil {
		ctx = context.Background()
	}

	tr.block = *blockReq
	tr.queues.Reset()
	tr.samples.Store(0)
	tr.droppedSamples.Store(0)
	tr.resetStageStats()

	// Seed the generate queue with one path per block pixel
	first := blockReq.BlockY * blockReq.FrameW
	last := first + blockReq.BlockH*blockReq.FrameW
	for pathID := first; pathID < last; pathID++ {
		path := tr.pool.Path(pathID)
		path.FrameSamples = 0
		path.Status = PathIdle
		if err := tr.queues.Enqueue(NewRay, pathID); err != nil {
			return err
		}
	}

	activePaths := last - first
	for tr.queues.States().Total() != 0 {
		tr.stats.Rounds++
		for stageIndex, stage := range tr.pipeline.Stages {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrInterrupted, err)
			}

			frozen := tr.queues.Swap(stage.Type)
			pathIDs := frozen.Items()
			if len(pathIDs) == 0 {
				continue
			}

			start := time.Now()
			err := tr.dispatcher.dispatch(pathIDs, func(pathID uint32) error {
				return stage.Kernel(tr, pathID)
			})
			frozen.Reset()

			stat := &tr.stats.Stages[stageIndex]
			stat.Dispatches++
			stat.Paths += uint64(len(pathIDs))
			stat.Time += time.Since(start)

			if err != nil {
				return err
			}
			if err = checkConservation(tr.queues.States(), activePaths); err != nil {
				return err
			}
		}
	}

	return nil
}

// Ensure that the queues never hold more paths than the number of paths
// that are in flight.
func checkConservation(states QueueStates, activePaths uint32) error {
	if states.PathCount() > activePaths || states.ShadowRayLength > activePaths {
		return fmt.Errorf(
			"%w: %d queued paths, %d shadow rays; %d active paths",
			ErrConservation, states.PathCount(), states.ShadowRayLength, activePaths,
		)
	}
	return nil
}

func (tr *Tracer) resetStageStats() {
	tr.stats.Rounds = 0
	tr.stats.Stages = make([]tracer.StageStat, len(tr.pipeline.Stages))
	for index, stage := range tr.pipeline.Stages {
		tr.stats.Stages[index].Name = stage.Type.String()
	}
}

// Get a snapshot of the stage queue lengths.
func (tr *Tracer) QueueStates() QueueStates {
	if tr.queues == nil {
		return QueueStates{}
	}
	return tr.queues.States()
}
