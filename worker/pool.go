// Package worker runs capture pipelines off the caller's goroutine
// behind a single-slot queue, so back-pressure rejects overlapping
// submissions instead of queueing them.
package worker

import (
	"context"
	"sync"
)

// Job is one unit of pipeline work. It must honor ctx cancellation.
type Job func(ctx context.Context)

// Pool is a fixed-size worker pool with a 1-slot input queue.
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
}

type job struct {
	ctx context.Context
	run Job
}

// New creates a pool. Size defaults to 1 when size <= 0; the capture
// coordinator relies on a single worker to keep runs strictly serial.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{jobs: make(chan job, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				j.run(j.ctx)
			}
		}()
	}
}

// Submit enqueues a job if the single-slot queue is free. Returns false
// if the job was dropped.
func (p *Pool) Submit(ctx context.Context, run Job) bool {
	select {
	case p.jobs <- job{ctx: ctx, run: run}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
