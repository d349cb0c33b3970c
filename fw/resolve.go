package fw

import (
	"context"
	"fmt"
	"reflect"
)

var (
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
)

// isProducer reports whether t can be called without caller-supplied
// arguments: no parameters, a single context.Context, or a lone variadic.
func isProducer(t reflect.Type) bool {
	switch t.NumIn() {
	case 0:
		return true
	case 1:
		return t.In(0) == contextType || t.IsVariadic()
	default:
		return false
	}
}

// resolve produces the value behind a test function or assertion producer.
// Callables are invoked, promises are awaited, anything else is returned
// as is. When awaitResult is set a promise returned by the call is awaited
// too.
func resolve(ctx context.Context, v interface{}, awaitResult bool) (interface{}, error) {
	if p, ok := v.(awaitable); ok {
		return p.awaitValue(ctx)
	}

	fn := reflect.ValueOf(v)
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() || !isProducer(fn.Type()) {
		return v, nil
	}

	out, err := invoke(ctx, fn, nil)
	if err != nil {
		return nil, err
	}
	if p, ok := out.(awaitable); ok && awaitResult {
		return p.awaitValue(ctx)
	}
	return out, nil
}

// resolveTest is resolve for test functions: a func with parameters is
// called too, with zero values for the parameters, and a returned promise
// is awaited.
func resolveTest(ctx context.Context, v interface{}) (interface{}, error) {
	fn := reflect.ValueOf(v)
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() || isProducer(fn.Type()) {
		return resolve(ctx, v, true)
	}

	out, err := invoke(ctx, fn, nil)
	if err != nil {
		return nil, err
	}
	if p, ok := out.(awaitable); ok {
		return p.awaitValue(ctx)
	}
	return out, nil
}

// invoke calls fn with args, prepending ctx when fn takes a leading
// context.Context. Missing trailing parameters are filled with zero values.
func invoke(ctx context.Context, fn reflect.Value, args []interface{}) (interface{}, error) {
	in, err := callArgs(ctx, fn.Type(), args)
	if err != nil {
		return nil, err
	}
	return call(fn, in)
}

// call runs fn on prepared arguments. A panic is returned as a *PanicError
// and a trailing non-nil error result is returned as the error.
func call(fn reflect.Value, in []reflect.Value) (out interface{}, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, &PanicError{Value: rec}
		}
	}()

	results := fn.Call(in)
	return interpretResults(fn.Type(), results)
}

func callArgs(ctx context.Context, t reflect.Type, args []interface{}) ([]reflect.Value, error) {
	params := make([]reflect.Type, 0, t.NumIn())
	for i := 0; i < t.NumIn(); i++ {
		params = append(params, t.In(i))
	}

	in := make([]reflect.Value, 0, len(params)+len(args))
	if len(params) > 0 && params[0] == contextType {
		in = append(in, reflect.ValueOf(ctx))
		params = params[1:]
	}

	fixed := params
	var variadic reflect.Type
	if t.IsVariadic() {
		fixed = params[:len(params)-1]
		variadic = params[len(params)-1].Elem()
	}

	if len(args) > len(fixed) && variadic == nil {
		return nil, fmt.Errorf("%w: function takes %d arguments, got %d", ErrNotCallable, len(fixed), len(args))
	}

	for i, p := range fixed {
		if i >= len(args) {
			in = append(in, reflect.Zero(p))
			continue
		}
		av, err := argValue(args[i], p)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d: %v", ErrNotCallable, i, err)
		}
		in = append(in, av)
	}
	for i := len(fixed); i < len(args); i++ {
		av, err := argValue(args[i], variadic)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d: %v", ErrNotCallable, i, err)
		}
		in = append(in, av)
	}
	return in, nil
}

func argValue(arg interface{}, t reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(arg)
	switch {
	case v.Type().AssignableTo(t):
		return v, nil
	case isNumericKind(v.Kind()) && isNumericKind(t.Kind()):
		return v.Convert(t), nil
	default:
		return reflect.Value{}, fmt.Errorf("cannot use %s as %s", v.Type(), t)
	}
}

func interpretResults(t reflect.Type, results []reflect.Value) (interface{}, error) {
	n := len(results)
	if n == 0 {
		return nil, nil
	}
	if t.Out(n-1) == errorType {
		if last := results[n-1]; !last.IsNil() {
			return nil, last.Interface().(error)
		}
		if n == 1 {
			return true, nil
		}
	}
	return results[0].Interface(), nil
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
