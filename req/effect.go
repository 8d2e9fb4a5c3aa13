package req

import "context"

// Effect is a deferred computation: a description of work that runs
// only when Run is called, and may be run any number of times. Deferred
// sends keep no shared mutable state between runs (stream request
// bodies are opened fresh on every run), so describing the same send
// twice yields two independent exchanges.
type Effect[T any] struct {
	run func(context.Context) (T, error)
}

// NewEffect wraps a function as an effect.
func NewEffect[T any](run func(context.Context) (T, error)) Effect[T] {
	return Effect[T]{run: run}
}

// Deferred describes sending the request on the backend without
// performing it. Nothing happens until Run.
func Deferred[T any](b Backend, r Request[T]) Effect[*Response[T]] {
	return NewEffect(func(ctx context.Context) (*Response[T], error) {
		return Send(ctx, b, r)
	})
}

// Run evaluates the effect.
func (e Effect[T]) Run(ctx context.Context) (T, error) {
	return e.run(ctx)
}

// MapEffect lifts an effect to a new result type with a pure transform
// applied after each run.
func MapEffect[T, U any](e Effect[T], f func(T) (U, error)) Effect[U] {
	return NewEffect(func(ctx context.Context) (U, error) {
		v, err := e.run(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		return f(v)
	})
}
