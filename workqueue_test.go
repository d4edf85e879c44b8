// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkQueueDrainsAllUnits(t *testing.T) {
	queue := NewWorkQueue(context.Background(), 4)
	var processed int32

	for i := 0; i < 3; i++ {
		queue.Go(func(WorkUnit) error {
			atomic.AddInt32(&processed, 1)
			return nil
		})
	}

	units := make([]WorkUnit, 10)
	queue.AddWorkUnits(units)
	queue.CloseWhenDrained()

	if err := queue.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if got := atomic.LoadInt32(&processed); got != 10 {
		t.Fatalf("processed = %d, want 10", got)
	}
}

// TestWorkQueueSurvivesDynamicProducers exercises the case where a worker
// enqueues more work while handling a unit it already pulled off the
// queue (the ExternalClassDiscoverer's pattern). Before CloseWhenDrained,
// closing the channel right after the initial AddWorkUnits call raced
// against exactly this case and could panic with "send on closed
// channel"; this test fails via panic if that regresses.
func TestWorkQueueSurvivesDynamicProducers(t *testing.T) {
	queue := NewWorkQueue(context.Background(), 4)
	var processed int32

	const fanout = 3
	for i := 0; i < 4; i++ {
		queue.Go(func(u WorkUnit) error {
			n := atomic.AddInt32(&processed, 1)
			// Each of the first few units fans out into more units, so the
			// queue is still being produced into well after the caller's
			// initial AddWorkUnits call has returned.
			if n <= fanout {
				queue.AddWorkUnits([]WorkUnit{{}})
			}
			return nil
		})
	}

	queue.AddWorkUnits([]WorkUnit{{}, {}})
	queue.CloseWhenDrained()

	done := make(chan error, 1)
	go func() { done <- queue.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("queue.Wait() did not return; CloseWhenDrained likely deadlocked")
	}

	if got := atomic.LoadInt32(&processed); got < 2+fanout {
		t.Fatalf("processed = %d, want at least %d", got, 2+fanout)
	}
}

func TestWorkQueueCancelStopsWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	queue := NewWorkQueue(ctx, 1)
	queue.Go(func(WorkUnit) error { return nil })

	queue.Cancel()
	cancel()

	done := make(chan struct{})
	go func() {
		_ = queue.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("queue.Wait() did not return after Cancel")
	}
}
