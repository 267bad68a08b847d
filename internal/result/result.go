// Package result carries the Loading/Success/Error progress of one asynchronous
// operation as a stream of values.
package result

import (
	"context"
	"fmt"

	"github.com/i474232898/weather-lookup/internal/apperror"
)

type state uint8

const (
	stateLoading state = iota
	stateSuccess
	stateError
)

// Result is a tri-state wrapper. The zero value is Loading.
type Result[T any] struct {
	state state
	value T
	err   *apperror.AppError
}

func Loading[T any]() Result[T] {
	return Result[T]{state: stateLoading}
}

func Success[T any](v T) Result[T] {
	return Result[T]{state: stateSuccess, value: v}
}

// Failure builds an Error result; err is mapped through apperror.From.
func Failure[T any](err error) Result[T] {
	ae := apperror.From(err)
	if ae == nil {
		ae = apperror.New(apperror.KindUnknown)
	}
	return Result[T]{state: stateError, err: ae}
}

func (r Result[T]) IsLoading() bool { return r.state == stateLoading }
func (r Result[T]) IsSuccess() bool { return r.state == stateSuccess }
func (r Result[T]) IsError() bool   { return r.state == stateError }

// IsTerminal reports whether r is Success or Error.
func (r Result[T]) IsTerminal() bool { return r.state != stateLoading }

// Value returns the success value, if any.
func (r Result[T]) Value() (T, bool) {
	return r.value, r.state == stateSuccess
}

// Err returns the failure, or nil.
func (r Result[T]) Err() *apperror.AppError {
	if r.state != stateError {
		return nil
	}
	return r.err
}

func (r Result[T]) String() string {
	switch r.state {
	case stateSuccess:
		return fmt.Sprintf("Success(%v)", r.value)
	case stateError:
		return fmt.Sprintf("Error(%s: %v)", r.err.Kind, r.err)
	default:
		return "Loading"
	}
}

// Stream runs fn on its own goroutine and reports its progress: Loading first, then
// exactly one terminal result. The channel is closed afterwards. If ctx ends before a
// value is delivered the channel is closed without a terminal result.
func Stream[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) <-chan Result[T] {
	return run(ctx, true, fn)
}

// Catch is Stream without the leading Loading.
func Catch[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) <-chan Result[T] {
	return run(ctx, false, fn)
}

func run[T any](ctx context.Context, loading bool, fn func(ctx context.Context) (T, error)) <-chan Result[T] {
	out := make(chan Result[T], 2)
	go func() {
		defer close(out)
		if loading {
			out <- Loading[T]()
		}
		v, err := fn(ctx)
		var r Result[T]
		if err != nil {
			r = Failure[T](err)
		} else {
			r = Success(v)
		}
		select {
		case <-ctx.Done():
		case out <- r:
		}
	}()
	return out
}

// Of returns a closed stream holding the given results.
func Of[T any](rs ...Result[T]) <-chan Result[T] {
	out := make(chan Result[T], len(rs))
	for _, r := range rs {
		out <- r
	}
	close(out)
	return out
}

// Map transforms success values of in. Loading and Error pass through unchanged.
func Map[T, U any](ctx context.Context, in <-chan Result[T], fn func(T) U) <-chan Result[U] {
	out := make(chan Result[U], 1)
	go func() {
		defer close(out)
		for r := range in {
			var m Result[U]
			switch {
			case r.IsSuccess():
				m = Success(fn(r.value))
			case r.IsError():
				m = Result[U]{state: stateError, err: r.err}
			default:
				m = Loading[U]()
			}
			select {
			case <-ctx.Done():
				return
			case out <- m:
			}
		}
	}()
	return out
}

// Last drains in and returns its final result. It returns an Error result if ctx
// ends first or the stream closes while still Loading.
func Last[T any](ctx context.Context, in <-chan Result[T]) Result[T] {
	last := Loading[T]()
	for {
		select {
		case <-ctx.Done():
			return Failure[T](ctx.Err())
		case r, ok := <-in:
			if !ok {
				if !last.IsTerminal() {
					return Failure[T](context.Canceled)
				}
				return last
			}
			last = r
		}
	}
}

// Each calls fn for every result of in until the stream closes or ctx ends.
func Each[T any](ctx context.Context, in <-chan Result[T], fn func(Result[T])) {
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-in:
			if !ok {
				return
			}
			fn(r)
		}
	}
}
