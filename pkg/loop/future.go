package loop

import "context"

// Future is the result of asynchronous work that completes on a Loop.
// Resolve and Done may be used from any goroutine; everything else belongs
// to the loop goroutine.
type Future[T any] struct {
	loop      *Loop
	done      chan struct{}
	settled   bool
	value     T
	err       error
	callbacks []func(T, error)
}

func NewFuture[T any](l *Loop) *Future[T] {
	return &Future[T]{
		loop: l,
		done: make(chan struct{}),
	}
}

// Resolved returns a future that settles on the next tick.
func Resolved[T any](l *Loop, value T, err error) *Future[T] {
	f := NewFuture[T](l)
	f.Resolve(value, err)
	return f
}

// Resolve completes the future. Only the first call has any effect.
func (f *Future[T]) Resolve(value T, err error) {
	f.loop.Post(func() {
		f.settle(value, err)
	})
}

func (f *Future[T]) settle(value T, err error) {
	if f.settled {
		return
	}

	f.settled = true
	f.value = value
	f.err = err
	close(f.done)

	callbacks := f.callbacks
	f.callbacks = nil
	for _, callback := range callbacks {
		callback(value, err)
	}
}

// OnComplete registers fn to run when the future settles. If it already
// has, fn is posted to the next tick rather than called inline.
func (f *Future[T]) OnComplete(fn func(T, error)) {
	if !f.settled {
		f.callbacks = append(f.callbacks, fn)
		return
	}

	value, err := f.value, f.err
	f.loop.Post(func() {
		fn(value, err)
	})
}

func (f *Future[T]) Settled() bool {
	return f.settled
}

// Result is the settled value, or the zero value before settling.
func (f *Future[T]) Result() (T, error) {
	return f.value, f.err
}

func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future settles. It must not be called on the loop
// goroutine, which is the one that settles it.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var empty T
		return empty, ctx.Err()
	}
}
