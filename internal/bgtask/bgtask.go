// Package bgtask tracks the goroutines letdrop runs outside the TUI
// event loop, describe calls in flight and preview copies, so exit can
// cancel and wait for them instead of abandoning half-written files.
package bgtask

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var (
	initOnce sync.Once
	shared   *BackgroundTask
)

// BackgroundTask carries the process wide shutdown context and counts
// the tasks running under it.
type BackgroundTask struct {
	ctx    context.Context
	cancel context.CancelFunc
	wait   sync.WaitGroup
	count  atomic.Int32
}

// Get returns the process wide BackgroundTask, created on first use.
func Get() *BackgroundTask {
	initOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		shared = &BackgroundTask{ctx: ctx, cancel: cancel}
	})
	return shared
}

// ShutdownCtx returns the context every tracked task receives, canceled
// once Shutdown begins.
func (bt *BackgroundTask) ShutdownCtx() context.Context {
	return bt.ctx
}

// track registers one task and returns the teardown to defer, it
// recovers panics so one bad task cannot take the process down.
func (bt *BackgroundTask) track() func() {
	bt.wait.Add(1)
	bt.count.Add(1)
	return func() {
		bt.wait.Done()
		bt.count.Add(-1)
		if r := recover(); r != nil {
			slog.Error("background task panicked", "panic", r)
		}
	}
}

// Run hands fn its own goroutine and tracks it for Shutdown. fn must
// watch the passed context and return once it is canceled.
func (bt *BackgroundTask) Run(fn func(ctx context.Context)) {
	done := bt.track()
	go func() {
		defer done()
		fn(bt.ctx)
	}()
}

// RunAndBlock is Run on the calling goroutine. tea commands already run
// on their own goroutine, tracking them this way lets Shutdown wait for
// work the TUI kicked off.
func (bt *BackgroundTask) RunAndBlock(fn func(ctx context.Context)) {
	defer bt.track()()
	fn(bt.ctx)
}

// Shutdown cancels every tracked task and waits for them to wind down,
// giving up after timeout.
func (bt *BackgroundTask) Shutdown(timeout time.Duration) error {
	bt.cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		bt.wait.Wait()
	}()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timed out with %d background tasks still running", bt.count.Load())
	}
}
