package handler

import (
	"context"
)

// ResultFuture is a single-shot asynchronous computation yielding a value
// or an error. Poll never blocks: it reports ready == false until the
// computation has completed, after which it returns the outcome. Done
// returns a channel that is closed once a Poll would observe completion,
// so a scheduler can wait without busy-polling.
type ResultFuture[T any] interface {
	Poll() (value T, err error, ready bool)
	Done() <-chan struct{}
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// pendingMap is the payload of the pending state: the inner future plus the
// status to apply on completion. It is released wholesale on the transition
// to done, so a completed future structurally has nothing left to poll.
type pendingMap[T any] struct {
	inner  ResultFuture[T]
	status int
}

// MapErrWithStatusFuture applies MapErrWithStatus to the outcome of an
// inner computation, exactly once, on the poll that observes the inner
// completion. It is a two-state machine: pending (inner future + status)
// and done. The transition is one-way; polling after done is a programming
// defect and panics.
type MapErrWithStatusFuture[T any] struct {
	pending *pendingMap[T]
}

// MapFutureErrWithStatus wraps inner so that its error case is mapped to a
// handler Error with the given status when it completes.
func MapFutureErrWithStatus[T any](inner ResultFuture[T], status int) *MapErrWithStatusFuture[T] {
	return &MapErrWithStatusFuture[T]{
		pending: &pendingMap[T]{inner: inner, status: status},
	}
}

// Poll polls the inner computation. While the inner computation is not
// ready the future stays pending and propagates not-ready upward. The poll
// that observes the inner completion consumes the pending payload, applies
// the status mapping and returns the final outcome. Any later Poll panics.
func (f *MapErrWithStatusFuture[T]) Poll() (T, error, bool) {
	if f.pending == nil {
		panic("MapErrWithStatusFuture must not be polled after it completed")
	}
	value, err, ready := f.pending.inner.Poll()
	if !ready {
		var zero T
		return zero, nil, false
	}
	status := f.pending.status
	f.pending = nil
	return value, MapErrWithStatus(err, status), true
}

// IsTerminated reports whether the future has completed and must no longer
// be polled.
func (f *MapErrWithStatusFuture[T]) IsTerminated() bool {
	return f.pending == nil
}

// Done implements the readiness hook: the returned channel is closed once a
// Poll would observe completion.
func (f *MapErrWithStatusFuture[T]) Done() <-chan struct{} {
	if f.pending == nil {
		return closedChan
	}
	return f.pending.inner.Done()
}

// Await drives f to completion or cancellation. On cancellation the future
// is abandoned with no side effects: no Error is constructed and nothing is
// logged, the context error is returned as-is. Await must be the only
// driver of f; it polls exactly once, on completion.
func Await[T any](ctx context.Context, f *MapErrWithStatusFuture[T]) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-f.Done():
		value, err, _ := f.Poll()
		return value, err
	}
}

// asyncResult adapts an ordinary function running in its own goroutine to
// the ResultFuture interface.
type asyncResult[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Async starts fn in a goroutine and returns a future for its outcome.
func Async[T any](fn func() (T, error)) ResultFuture[T] {
	a := &asyncResult[T]{done: make(chan struct{})}
	go func() {
		a.value, a.err = fn()
		close(a.done)
	}()
	return a
}

func (a *asyncResult[T]) Poll() (T, error, bool) {
	select {
	case <-a.done:
		return a.value, a.err, true
	default:
		var zero T
		return zero, nil, false
	}
}

func (a *asyncResult[T]) Done() <-chan struct{} {
	return a.done
}
