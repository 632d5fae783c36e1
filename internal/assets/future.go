package assets

import (
	"context"
	"errors"
)

// ErrNotReady is returned by Future.Get while the value is still loading.
var ErrNotReady = errors.New("asset not ready")

// Future is a value resolved by a background goroutine. Readers never
// block unless they call Wait.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go starts fn in a goroutine and returns its future.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn()
	}()
	return f
}

// Resolved returns a future that is already complete.
func Resolved[T any](v T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), val: v, err: err}
	close(f.done)
	return f
}

// Ready reports whether the value has resolved, successfully or not.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Get returns the value without blocking, or ErrNotReady.
func (f *Future[T]) Get() (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	default:
		var zero T
		return zero, ErrNotReady
	}
}

// Or returns the resolved value, or def while pending or failed.
func (f *Future[T]) Or(def T) T {
	v, err := f.Get()
	if err != nil {
		return def
	}
	return v
}

// Wait blocks until the value resolves or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
