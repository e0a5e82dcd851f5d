package bgtask

import (
	"context"
	"golang.org/x/sync/errgroup"
	"runtime"
)

// WorkerPool bounds concurrent filesystem work, directory stats mostly,
// to a multiple of the CPU count. The first task error cancels the pool
// for the rest.
type WorkerPool struct {
	ctx   context.Context
	group *errgroup.Group
}

// NewWorkerPool derives the pool's lifetime from ctx, canceling ctx
// stops the pool the same way a task error does.
func NewWorkerPool(ctx context.Context) *WorkerPool {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4 * runtime.NumCPU())
	return &WorkerPool{ctx: ctx, group: g}
}

// Spawn queues t on the pool, blocking while the pool is at its limit.
// A task picked up after the pool is canceled reports the cancellation
// instead of running, so call sites never check the context themselves.
func (wp *WorkerPool) Spawn(t func() error) {
	wp.group.Go(func() error {
		if err := wp.ctx.Err(); err != nil {
			return err
		}
		return t()
	})
}

// Wait blocks until every spawned task has finished and returns the
// first error the pool saw.
func (wp *WorkerPool) Wait() error {
	return wp.group.Wait()
}
