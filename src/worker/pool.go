package worker

import (
	"context"
	"errors"
	"log"
	"runtime"
	"sync"
)

// ErrQueueFull is returned when the single-slot queue is already taken.
var ErrQueueFull = errors.New("worker queue full")

// Task is a unit of blocking work (capture, OCR) run off the event loop.
type Task func(ctx context.Context)

// Pool is a fixed-size worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
	once sync.Once
}

type job struct {
	ctx  context.Context
	task Task
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1 slot.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
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
				if j.ctx.Err() != nil {
					log.Printf("Worker: task context already done: %v", j.ctx.Err())
				}
				j.task(j.ctx)
			}
		}()
	}
}

// Submit enqueues a task if the single-slot queue is free. Returns false if dropped.
// The task always runs, even when ctx is already done.
func (p *Pool) Submit(ctx context.Context, task Task) bool {
	select {
	case p.jobs <- job{ctx: ctx, task: task}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	p.once.Do(func() { close(p.jobs) })
	p.wg.Wait()
}

// Do offloads fn to the pool and waits for its result or for ctx to end.
// When ctx ends first the task keeps running in the background and its result is dropped.
func Do[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	type outcome struct {
		val T
		err error
	}
	var zero T
	resCh := make(chan outcome, 1)
	ok := p.Submit(ctx, func(ctx context.Context) {
		if err := ctx.Err(); err != nil {
			resCh <- outcome{err: err}
			return
		}
		v, err := fn(ctx)
		resCh <- outcome{val: v, err: err}
	})
	if !ok {
		return zero, ErrQueueFull
	}
	select {
	case r := <-resCh:
		return r.val, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
