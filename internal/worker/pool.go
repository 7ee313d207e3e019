// Package worker runs blocking jobs off the request goroutine with a
// fixed upper bound on how many run at once.
//
// A job's result is handed back to the caller that submitted it, so a
// handler writes its response only after the data is ready. Jobs are
// tracked, which lets shutdown wait for the ones still running.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned by Do once Close has been called.
var ErrClosed = errors.New("worker pool is closed")

// Pool bounds concurrent jobs with a weighted semaphore.
type Pool struct {
	size int64
	sem  *semaphore.Weighted
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New returns a pool that runs at most size jobs at a time.
// A size below 1 is treated as 1.
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{size: int64(size), sem: semaphore.NewWeighted(int64(size))}
}

// Size is the concurrency bound.
func (p *Pool) Size() int { return int(p.size) }

type result[T any] struct {
	value T
	err   error
}

// Do waits for a free slot, runs fn on its own goroutine and returns
// fn's result. If ctx ends first Do returns ctx.Err(); fn still gets the
// same ctx and is expected to observe the cancellation.
func Do[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return zero, ErrClosed
	}
	p.wg.Add(1)
	p.mu.RUnlock()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.wg.Done()
		return zero, fmt.Errorf("worker: acquire: %w", err)
	}

	done := make(chan result[T], 1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- result[T]{err: fmt.Errorf("worker: job panicked: %v", r)}
			}
		}()

		v, err := fn(ctx)
		done <- result[T]{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close stops accepting jobs and waits for running ones, or for ctx.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
