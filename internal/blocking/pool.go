// ABOUTME: Bounded pool for offloading synchronous storage calls
// ABOUTME: Slot acquisition honours the caller's context; acquired work always runs to completion

package blocking

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Pool limits how many blocking calls run at once.
type Pool struct {
	sem  *semaphore.Weighted
	size int64
}

// New creates a pool with size slots. A size of zero or less uses GOMAXPROCS*4.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0) * 4
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: int64(size),
	}
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return int(p.size)
}

// Do waits for a free slot and runs fn in it. If ctx ends while waiting, fn
// never runs and the context error is returned. Once fn starts it receives a
// context detached from ctx's cancellation, so a disconnecting caller cannot
// interrupt a half-finished sequence of storage calls.
func (p *Pool) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for worker: %w", err)
	}
	defer p.sem.Release(1)

	return fn(context.WithoutCancel(ctx))
}

// Run is Do for functions that produce a value.
func Run[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	var result T
	err := p.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	return result, err
}
