// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// WorkUnit is one (classpath element, resource, isExternal) triple ready to
// be parsed, per spec.md §6's WorkQueue interface.
type WorkUnit struct {
	Element    ClasspathElement
	Resource   Resource
	IsExternal bool
}

// WorkQueue is the many-producer/many-consumer collaborator the parser
// pool and the ExternalClassDiscoverer both enqueue onto, per spec.md §4.6
// and §6. The core requires only addWorkUnits; this implementation also
// drives the worker pool itself, since nothing else in the corpus' idiom
// supplies a bare queue without an accompanying runner.
//
// pending tracks every unit that has been enqueued but not yet finished
// processing, including units a worker enqueues while handling another
// unit (the external-class discoverer's case). Because a worker only
// calls pending.Done for the unit it is processing after any such
// recursive AddWorkUnits call has returned, pending can only reach zero
// once no worker is still producing new work, which is what lets
// CloseWhenDrained close the channel without racing a producer.
type WorkQueue struct {
	ch      chan WorkUnit
	group   *errgroup.Group
	ctx     context.Context
	cancel  context.CancelFunc
	pending sync.WaitGroup
}

// NewWorkQueue creates a queue with the given channel capacity, backed by
// an errgroup.Group bound to ctx, mirroring the corpus' errgroup-driven
// fan-out pattern for bounded worker pools.
func NewWorkQueue(ctx context.Context, capacity int) *WorkQueue {
	ctx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)
	return &WorkQueue{
		ch:     make(chan WorkUnit, capacity),
		group:  group,
		ctx:    gctx,
		cancel: cancel,
	}
}

// AddWorkUnits enqueues units for later consumption. It blocks only on
// channel backpressure; callers running inside a worker goroutine should
// prefer a buffered queue sized to avoid deadlocking against Go.
func (q *WorkQueue) AddWorkUnits(units []WorkUnit) {
	for _, u := range units {
		q.pending.Add(1)
		select {
		case q.ch <- u:
		case <-q.ctx.Done():
			q.pending.Done()
			return
		}
	}
}

// CloseWhenDrained closes the queue once every unit added so far -
// including units a worker adds dynamically while processing another one
// - has finished, or once the queue is cancelled. It must be called
// instead of closing the channel directly, since workers may still be
// producing new units via AddWorkUnits at any point before the queue
// actually drains.
func (q *WorkQueue) CloseWhenDrained() {
	go func() {
		done := make(chan struct{})
		go func() {
			q.pending.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-q.ctx.Done():
		}
		close(q.ch)
	}()
}

// Go runs fn as one pool worker, consuming units from the queue until it
// is closed and drained or the context is cancelled.
func (q *WorkQueue) Go(fn func(WorkUnit) error) {
	q.group.Go(func() error {
		for {
			select {
			case u, ok := <-q.ch:
				if !ok {
					return nil
				}
				err := fn(u)
				q.pending.Done()
				if err != nil {
					return err
				}
			case <-q.ctx.Done():
				return q.ctx.Err()
			}
		}
	})
}

// Wait blocks until every worker started with Go has returned, and returns
// the first non-nil error any of them produced (errgroup's standard
// fail-fast semantics).
func (q *WorkQueue) Wait() error {
	return q.group.Wait()
}

// Cancel cancels the queue's context: parsers mid-classfile run to
// completion, and AddWorkUnits and the workers stop once they observe the
// cancellation. Their selects do not prefer cancellation over a ready
// channel operation, so a unit that can be sent or received at that moment
// may still be accepted or dispatched after Cancel returns.
func (q *WorkQueue) Cancel() {
	q.cancel()
}
