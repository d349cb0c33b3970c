package fw

import (
	"context"
	"fmt"
	"sync"
)

// Promise is a value that settles exactly once, either resolved with a value
// or rejected with an error. End returns one; tests and assertion producers
// may return one to hand the runner an asynchronous result.
//
// The zero Promise is not usable; create one with NewPromise, Async,
// Resolved or Rejected.
type Promise[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// NewPromise creates an unsettled promise.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// Resolved returns a promise already resolved with v.
func Resolved[T any](v T) *Promise[T] {
	p := NewPromise[T]()
	p.Resolve(v)
	return p
}

// Rejected returns a promise already rejected with err.
func Rejected[T any](err error) *Promise[T] {
	p := NewPromise[T]()
	p.Reject(err)
	return p
}

// Async runs fn on a new goroutine and settles the returned promise with
// its result. A panic in fn rejects the promise with a *PanicError.
func Async[T any](ctx context.Context, fn func(context.Context) (T, error)) *Promise[T] {
	p := NewPromise[T]()
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				p.Reject(&PanicError{Value: rec})
			}
		}()
		v, err := fn(ctx)
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(v)
	}()
	return p
}

// Resolve settles the promise with v. Reports false if it was already settled.
func (p *Promise[T]) Resolve(v T) bool {
	settled := false
	p.once.Do(func() {
		p.val = v
		close(p.done)
		settled = true
	})
	return settled
}

// Reject settles the promise with err. Reports false if it was already settled.
// A nil err is replaced by a generic rejection error.
func (p *Promise[T]) Reject(err error) bool {
	if err == nil {
		err = fmt.Errorf("promise rejected")
	}
	settled := false
	p.once.Do(func() {
		p.err = err
		close(p.done)
		settled = true
	})
	return settled
}

// Done is closed once the promise settles.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// Await blocks until the promise settles or ctx is done.
func (p *Promise[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Wait blocks until the promise settles, without a deadline.
func (p *Promise[T]) Wait() (T, error) {
	<-p.done
	return p.val, p.err
}

func (p *Promise[T]) awaitValue(ctx context.Context) (interface{}, error) {
	v, err := p.Await(ctx)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// awaitable is implemented by every Promise instantiation.
type awaitable interface {
	awaitValue(ctx context.Context) (interface{}, error)
}

// Symbol is a unique token. Two symbols are never equal, whatever their
// descriptions.
type Symbol struct {
	desc string
}

// NewSymbol creates a fresh symbol with an informational description.
func NewSymbol(desc string) *Symbol {
	return &Symbol{desc: desc}
}

func (s *Symbol) String() string {
	return "Symbol(" + s.desc + ")"
}
