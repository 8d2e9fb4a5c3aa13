package req

import "context"

// Future is the container returned by SendAsync: an eventually-available
// result that can be awaited, polled, or cancelled.
type Future[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc
	val    T
	err    error
}

// SendAsync executes the request on a background goroutine and returns
// immediately. The returned future completes out-of-band; cancelling it
// releases the in-flight connection and any partially-consumed body.
func SendAsync[T any](ctx context.Context, b Backend, r Request[T]) *Future[*Response[T]] {
	ctx, cancel := context.WithCancel(ctx)
	f := &Future[*Response[T]]{
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go func() {
		defer close(f.done)
		f.val, f.err = Send(ctx, b, r)
	}()
	return f
}

// Await blocks until the future completes or ctx is done. When ctx
// expires first, the in-flight send keeps running; use Cancel to abort
// it.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, NewTimeoutError(ctx.Err())
	}
}

// Done returns a channel closed when the future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// TryGet returns the result without blocking. ok is false while the
// future is still running.
func (f *Future[T]) TryGet() (val T, err error, ok bool) {
	select {
	case <-f.done:
		return f.val, f.err, true
	default:
		var zero T
		return zero, nil, false
	}
}

// Cancel aborts the in-flight send. The future still completes (with
// the cancellation error) so waiters are released.
func (f *Future[T]) Cancel() {
	f.cancel()
}
