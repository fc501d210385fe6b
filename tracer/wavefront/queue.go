package wavefront

import (
	"fmt"
	"sync/atomic"
)

// The stages of the wavefront pipeline. Each stage consumes the path ids
// stored in its own queue.
type StageType uint8

const (
	NewRay StageType = iota
	Extend
	ShadeDiffuse
	ShadeReflective
	Shadow
	numStages
)

// The number of pipeline stages.
const NumStages = int(numStages)

func (st StageType) String() string {
	switch st {
	case NewRay:
		return "generate"
	case Extend:
		return "extend"
	case ShadeDiffuse:
		return "shade-diffuse"
	case ShadeReflective:
		return "shade-reflective"
	case Shadow:
		return "shadow"
	}
	return fmt.Sprintf("stage(%d)", uint8(st))
}

// A bounded queue of path ids. Enqueue may be invoked concurrently by
// any number of workers; all other methods must only be called between
// dispatches.
type Queue struct {
	slots  []uint32
	length atomic.Uint32
}

func newQueue(capacity int) *Queue {
	return &Queue{
		slots: make([]uint32, capacity),
	}
}

// Append a path id to the queue.
func (q *Queue) Enqueue(pathID uint32) error {
	slot := q.length.Add(1) - 1
	if int(slot) >= len(q.slots) {
		return fmt.Errorf("%w: slot %d; capacity %d", ErrQueueOverflow, slot, len(q.slots))
	}
	q.slots[slot] = pathID
	return nil
}

// Get the number of queued path ids. After an overflow the counter may
// exceed the queue capacity; the reported length never does.
func (q *Queue) Len() int {
	length := int(q.length.Load())
	if length > len(q.slots) {
		return len(q.slots)
	}
	return length
}

// Get the queue capacity.
func (q *Queue) Cap() int {
	return len(q.slots)
}

// Get the queued path ids. The returned slice aliases the queue storage.
func (q *Queue) Items() []uint32 {
	return q.slots[:q.Len()]
}

// Empty the queue.
func (q *Queue) Reset() {
	q.length.Store(0)
}

// A snapshot of the queue lengths.
type QueueStates struct {
	NewRayLength          uint32
	ExtendRayLength       uint32
	ShadeDiffuseLength    uint32
	ShadeReflectiveLength uint32
	ShadowRayLength       uint32
}

// Number of queued paths that still need to be extended, shaded or
// respawned. Shadow entries are excluded as they always refer to a path
// that is also queued elsewhere or has completed.
func (qs QueueStates) PathCount() uint32 {
	return qs.NewRayLength + qs.ExtendRayLength + qs.ShadeDiffuseLength + qs.ShadeReflectiveLength
}

// Total number of queued entries.
func (qs QueueStates) Total() uint32 {
	return qs.PathCount() + qs.ShadowRayLength
}

// A set of double-buffered stage queues. Producers always append to the
// back buffer of a stage; Swap freezes the back buffer as the stage input
// so a queue is never read and written during the same dispatch.
type QueueSet struct {
	buffers [numStages][2]*Queue
	back    [numStages]uint8
}

// Allocate a queue set where each buffer can hold capacity path ids.
func NewQueueSet(capacity int) *QueueSet {
	qs := &QueueSet{}
	for stage := range qs.buffers {
		qs.buffers[stage][0] = newQueue(capacity)
		qs.buffers[stage][1] = newQueue(capacity)
	}
	return qs
}

// Get the capacity of each queue buffer.
func (qs *QueueSet) Capacity() int {
	return qs.buffers[0][0].Cap()
}

// Append a path id to the back buffer of a stage.
func (qs *QueueSet) Enqueue(stage StageType, pathID uint32) error {
	return qs.buffers[stage][qs.back[stage]].Enqueue(pathID)
}

// Get the back buffer of a stage.
func (qs *QueueSet) Back(stage StageType) *Queue {
	return qs.buffers[stage][qs.back[stage]]
}

// Freeze the back buffer of a stage and install the other buffer as the
// new back buffer. The caller must Reset the returned queue once the
// stage dispatch completes.
func (qs *QueueSet) Swap(stage StageType) *Queue {
	frozen := qs.buffers[stage][qs.back[stage]]
	qs.back[stage] ^= 1
	qs.buffers[stage][qs.back[stage]].Reset()
	return frozen
}

// Empty all buffers.
func (qs *QueueSet) Reset() {
	for stage := range qs.buffers {
		qs.buffers[stage][0].Reset()
		qs.buffers[stage][1].Reset()
		qs.back[stage] = 0
	}
}

// Snapshot the back buffer lengths.
func (qs *QueueSet) States() QueueStates {
	return QueueStates{
		NewRayLength:          uint32(qs.Back(NewRay).Len()),
		ExtendRayLength:       uint32(qs.Back(Extend).Len()),
		ShadeDiffuseLength:    uint32(qs.Back(ShadeDiffuse).Len()),
		ShadeReflectiveLength: uint32(qs.Back(ShadeReflective).Len()),
		ShadowRayLength:       uint32(qs.Back(Shadow).Len()),
	}
}
