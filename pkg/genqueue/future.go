package genqueue

import (
	"context"
	"fmt"
)

// Future is the eventual result of one queued task.
type Future[T any] struct {
	done  chan struct{}
	value T
	ok    bool
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(v T, ok bool) {
	f.value = v
	f.ok = ok
	close(f.done)
}

// Done is closed once the task has run.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task has run or ctx is done. ok is false when the
// task failed, or when the caller stopped waiting; the task still runs.
func (f *Future[T]) Wait(ctx context.Context) (value T, ok bool) {
	select {
	case <-f.done:
		return f.value, f.ok
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

// Result returns the resolved value. It must only be called after Done.
func (f *Future[T]) Result() (T, bool) {
	<-f.done
	return f.value, f.ok
}

// PanicError wraps a value recovered from a panicking worker.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker panic: %v", e.Value)
}
