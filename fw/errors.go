// Package fw is FireWyrm, a lightweight in-process test runner: tests and
// assertions are queued and executed strictly in registration order, grouped
// into sections, reported through a swappable sink, and can mock functions
// with restore semantics.
//
// Example:
//
//	fw.Start()
//	fw.Section("math")
//	fw.Test("adds", func() bool { return 2+2 == 4 })
//	fw.Assert("doubles", func() int { return double(2) }).Is(4)
//	rep, _ := fw.End(true).Await(ctx)
package fw

import (
	"errors"
	"fmt"
)

// ErrNotCallable indicates a throw check received a value that is not a function.
var ErrNotCallable = errors.New("value is not callable")

// ErrNotContainable indicates Contains received a value without elements.
var ErrNotContainable = errors.New("value is not containable")

// ErrNotComparable indicates an ordered comparison between unsupported values.
var ErrNotComparable = errors.New("values are not comparable")

// ErrInvalidMockOwner indicates Replace received an owner it cannot patch.
var ErrInvalidMockOwner = errors.New("invalid mock owner")

// ErrNoSuchProperty indicates Replace named a field the owner does not have.
var ErrNoSuchProperty = errors.New("no such property")

// ErrMockTypeMismatch indicates the replacement cannot be assigned to the property.
var ErrMockTypeMismatch = errors.New("replacement type does not match property")

// RunnerError is a coded error returned by configuration and mock operations.
type RunnerError struct {
	Message string
	Code    string
}

func (e *RunnerError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// PanicError wraps a value recovered from a panicking test, producer or
// invoked function.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(e.Value)
}

// Unwrap exposes a panicked error value to errors.Is and errors.As.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
