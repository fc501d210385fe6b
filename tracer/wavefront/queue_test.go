package wavefront

import (
	"errors"
	"sync"
	"testing"
)

func TestQueueOverflow(t *testing.T) {
	q := newQueue(2)
	for pathID := uint32(0); pathID < 2; pathID++ {
		if err := q.Enqueue(pathID); err != nil {
			t.Fatal(err)
		}
	}

	if err := q.Enqueue(2); !errors.Is(err, ErrQueueOverflow) {
		t.Fatalf("expected to get ErrQueueOverflow; got %v", err)
	}

	if q.Len() != 2 {
		t.Fatalf("expected queue length to be clamped to 2; got %d", q.Len())
	}

	q.Reset()
	if q.Len() != 0 {
		t.Fatalf("expected empty queue after reset; got %d", q.Len())
	}
}

func TestQueueConcurrentEnqueue(t *testing.T) {
	const numWorkers = 8
	const perWorker = 1000

	q := newQueue(numWorkers * perWorker)
	var wg sync.WaitGroup
	for worker := 0; worker < numWorkers; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for index := 0; index < perWorker; index++ {
				if err := q.Enqueue(uint32(worker*perWorker + index)); err != nil {
					t.Error(err)
					return
				}
			}
		}(worker)
	}
	wg.Wait()

	if q.Len() != numWorkers*perWorker {
		t.Fatalf("expected queue length to be %d; got %d", numWorkers*perWorker, q.Len())
	}

	seen := make([]bool, numWorkers*perWorker)
	for _, pathID := range q.Items() {
		if seen[pathID] {
			t.Fatalf("path %d was queued twice", pathID)
		}
		seen[pathID] = true
	}
}

func TestQueueSetSwap(t *testing.T) {
	qs := NewQueueSet(4)
	if err := qs.Enqueue(Extend, 1); err != nil {
		t.Fatal(err)
	}
	if err := qs.Enqueue(Extend, 2); err != nil {
		t.Fatal(err)
	}

	if states := qs.States(); states.ExtendRayLength != 2 || states.Total() != 2 {
		t.Fatalf("expected 2 queued extend rays; got %+v", states)
	}

	frozen := qs.Swap(Extend)
	if frozen.Len() != 2 {
		t.Fatalf("expected frozen queue to hold 2 paths; got %d", frozen.Len())
	}

	// Producers now write to the other buffer
	if err := qs.Enqueue(Extend, 3); err != nil {
		t.Fatal(err)
	}
	if frozen.Len() != 2 {
		t.Fatalf("expected frozen queue to be unaffected by new enqueues; got length %d", frozen.Len())
	}
	if items := frozen.Items(); items[0] != 1 || items[1] != 2 {
		t.Fatalf("expected frozen queue to contain [1 2]; got %v", items)
	}
	if got := qs.Back(Extend).Items(); len(got) != 1 || got[0] != 3 {
		t.Fatalf("expected back buffer to contain [3]; got %v", got)
	}

	frozen.Reset()
	if frozen = qs.Swap(Extend); frozen.Len() != 1 {
		t.Fatalf("expected second swap to freeze 1 path; got %d", frozen.Len())
	}
	if qs.Back(Extend).Len() != 0 {
		t.Fatalf("expected new back buffer to be empty; got %d", qs.Back(Extend).Len())
	}
}

func TestCheckConservation(t *testing.T) {
	type spec struct {
		states QueueStates
		active uint32
		expErr bool
	}
	specs := []spec{
		{QueueStates{NewRayLength: 2, ExtendRayLength: 2}, 4, false},
		{QueueStates{ExtendRayLength: 4, ShadowRayLength: 4}, 4, false},
		{QueueStates{ShadeDiffuseLength: 3, ShadeReflectiveLength: 2}, 4, true},
		{QueueStates{ShadowRayLength: 5}, 4, true},
	}

	for index, s := range specs {
		err := checkConservation(s.states, s.active)
		if s.expErr && !errors.Is(err, ErrConservation) {
			t.Fatalf("[spec %d] expected to get ErrConservation; got %v", index, err)
		}
		if !s.expErr && err != nil {
			t.Fatalf("[spec %d] expected no error; got %v", index, err)
		}
	}
}
