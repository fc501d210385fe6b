package wavefront

import "golang.org/x/sync/errgroup"

// Runs a stage kernel over every path id of a frozen queue. Kernels must not
// depend on the order in which path ids are visited.
type stageDispatcher interface {
	dispatch(pathIDs []uint32, kernel func(pathID uint32) error) error
}

// Fans out a stage kernel over a frozen queue. Each worker processes a
// contiguous batch of path ids; dispatch returns once all batches have
// completed or after the first kernel error.
type dispatcher struct {
	workers   int
	batchSize int
}

func newDispatcher(workers, batchSize int) *dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &dispatcher{
		workers:   workers,
		batchSize: batchSize,
	}
}

// Run kernel for each path id and wait for all workers to finish.
func (d *dispatcher) dispatch(pathIDs []uint32, kernel func(pathID uint32) error) error {
	if len(pathIDs) == 0 {
		return nil
	}

	batchSize := d.batchSize
	if batchSize <= 0 {
		batchSize = (len(pathIDs) + d.workers - 1) / d.workers
	}

	var group errgroup.Group
	group.SetLimit(d.workers)
	for start := 0; start < len(pathIDs); start += batchSize {
		batch := pathIDs[start:min(start+batchSize, len(pathIDs))]
		group.Go(func() error {
			for _, pathID := range batch {
				if err := kernel(pathID); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return group.Wait()
}
