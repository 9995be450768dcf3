// Package job bounds the number of conversions running at the same time.
package job

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

var ErrJobCanceled = errors.New("job canceled")

type Worker struct {
	sem *semaphore.Weighted
}

func NewWorker(maxConcurrency int) *Worker {
	return &Worker{
		sem: semaphore.NewWeighted(int64(maxConcurrency)),
	}
}

// AcquireJob waits for a free slot until ctx ends. The returned context is
// canceled with ErrJobCanceled once done is called, which also frees the slot.
// done is safe to call more than once.
func (w *Worker) AcquireJob(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := w.sem.Acquire(ctx, 1); nil != err {
		return nil, nil, fmt.Errorf("failed to wait for a free job slot: %w", err)
	}

	jobCtx, done := w.start(ctx)

	return jobCtx, done, nil
}

func (w *Worker) TryAcquireJob(ctx context.Context) (context.Context, context.CancelFunc, bool) {
	if !w.sem.TryAcquire(1) {
		return nil, nil, false
	}

	jobCtx, done := w.start(ctx)

	return jobCtx, done, true
}

func (w *Worker) start(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(ctx)
	var once sync.Once

	return ctx, func() {
		once.Do(func() {
			cancel(ErrJobCanceled)
			w.sem.Release(1)
		})
	}
}
