package fw

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"time"
)

// Assertion is a pending check on a value. Each predicate method queues
// exactly one test and returns the Runner.
//
// The producer passed to Assert is resolved when the test runs. Accepted
// callable shapes:
//
//	func() T
//	func() (T, error)
//	func() error            // nil error yields true
//	func()                  // yields nil
//	func(context.Context) T
//	func(context.Context) (T, error)
//	func(context.Context) error
//
// A *Promise producer is awaited. Any other value, including funcs of other
// shapes, is checked as is. A value returned by a callable is never awaited,
// so promise predicates see the promise itself.
type Assertion struct {
	r         *Runner
	statement string
	producer  interface{}
	running   bool
}

// Assert starts an assertion on the value behind producer.
//
// Outside a run every predicate is followed by an implicit quiet End.
func (r *Runner) Assert(statement string, producer interface{}) *Assertion {
	return &Assertion{r: r, statement: statement, producer: producer, running: r.Running()}
}

// predicate checks a resolved value.
type predicate func(ctx context.Context, v interface{}) (bool, error)

func (a *Assertion) check(pred predicate) *Runner {
	a.r.queue.enqueue(a.r.createTest(a.statement, func(ctx context.Context) (bool, error) {
		v, err := resolve(ctx, a.producer, false)
		if err != nil {
			return false, &assertionError{err: err}
		}
		ok, err := applyPredicate(ctx, pred, v)
		if err != nil {
			return false, &assertionError{err: err}
		}
		return ok, nil
	}))
	if !a.running {
		a.r.End(false)
	}
	return a.r
}

func applyPredicate(ctx context.Context, pred predicate, v interface{}) (ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ok, err = false, &PanicError{Value: rec}
		}
	}()
	return pred(ctx, v)
}

// plain adapts an error-free check.
func plain(fn func(v interface{}) bool) predicate {
	return func(_ context.Context, v interface{}) (bool, error) {
		return fn(v), nil
	}
}

// Is passes when the value has the same dynamic type as x and equals it.
// Maps, slices, funcs, chans and pointers must be the same reference.
func (a *Assertion) Is(x interface{}) *Runner {
	return a.check(plain(func(v interface{}) bool { return strictEqual(v, x) }))
}

// CloseTo passes on loose equality: numbers compare by value across kinds,
// and numeric strings and bools are coerced to numbers.
func (a *Assertion) CloseTo(x interface{}) *Runner {
	return a.check(plain(func(v interface{}) bool { return looseEqual(v, x) }))
}

// Within passes when the value is a number no further than delta from x.
func (a *Assertion) Within(x, delta float64) *Runner {
	return a.check(func(_ context.Context, v interface{}) (bool, error) {
		f, ok := toFloat(v)
		if !ok {
			return false, fmt.Errorf("%w: %T is not a number", ErrNotComparable, v)
		}
		return math.Abs(f-x) <= delta, nil
	})
}

// IsTruthy passes when the value is truthy.
func (a *Assertion) IsTruthy() *Runner {
	return a.check(plain(Truthy))
}

// IsFalsy passes when the value is falsy.
func (a *Assertion) IsFalsy() *Runner {
	return a.check(plain(func(v interface{}) bool { return !Truthy(v) }))
}

// Throws passes when the value is a function that panics or returns a
// non-nil error when invoked without arguments. Non-functions fail.
//
// A producer-shaped callable passed to Assert is itself invoked, so the
// function under test is returned from the producer:
//
//	r.Assert("rejects empty", func() func() error {
//	    return func() error { return parse("") }
//	}).Throws()
func (a *Assertion) Throws() *Runner {
	return a.ThrowsWith()
}

// ThrowsWith is Throws with the function invoked on args. Missing trailing
// arguments are zero values; arguments that do not fit the parameters are
// an assertion error.
func (a *Assertion) ThrowsWith(args ...interface{}) *Runner {
	return a.check(func(ctx context.Context, v interface{}) (bool, error) {
		return throws(ctx, v, args)
	})
}

// Contains passes when a string holds x as a substring, a slice or array
// holds an element equal to x, or a map has the key x.
func (a *Assertion) Contains(x interface{}) *Runner {
	return a.check(func(_ context.Context, v interface{}) (bool, error) {
		return contains(v, x)
	})
}

// IsNil passes for nil, including typed nil pointers, maps, slices, funcs,
// chans and interfaces.
func (a *Assertion) IsNil() *Runner {
	return a.check(plain(isNil))
}

// IsDefined passes for any non-nil value.
func (a *Assertion) IsDefined() *Runner {
	return a.check(plain(func(v interface{}) bool { return !isNil(v) }))
}

// IsNaN passes for NaN, strings that do not parse as numbers, and values
// that are not numbers at all.
func (a *Assertion) IsNaN() *Runner {
	return a.check(plain(isNaN))
}

// IsNumber passes for integers and floats of any size.
func (a *Assertion) IsNumber() *Runner {
	return a.check(plain(isNumber))
}

// IsString passes for strings, including named string types.
func (a *Assertion) IsString() *Runner {
	return a.check(plain(func(v interface{}) bool { return kindOf(v) == reflect.String }))
}

// IsBool passes for booleans.
func (a *Assertion) IsBool() *Runner {
	return a.check(plain(func(v interface{}) bool { return kindOf(v) == reflect.Bool }))
}

// GreaterThan passes when the value orders after x.
func (a *Assertion) GreaterThan(x interface{}) *Runner {
	return a.check(ordered(x, func(c int) bool { return c > 0 }))
}

// GreaterThanOrEqual passes when the value does not order before x.
func (a *Assertion) GreaterThanOrEqual(x interface{}) *Runner {
	return a.check(ordered(x, func(c int) bool { return c >= 0 }))
}

// LessThan passes when the value orders before x.
func (a *Assertion) LessThan(x interface{}) *Runner {
	return a.check(ordered(x, func(c int) bool { return c < 0 }))
}

// LessThanOrEqual passes when the value does not order after x.
func (a *Assertion) LessThanOrEqual(x interface{}) *Runner {
	return a.check(ordered(x, func(c int) bool { return c <= 0 }))
}

// Between passes when min <= value <= max.
func (a *Assertion) Between(min, max interface{}) *Runner {
	return a.check(func(_ context.Context, v interface{}) (bool, error) {
		lo, err := compareOrdered(v, min)
		if err != nil {
			return false, err
		}
		hi, err := compareOrdered(v, max)
		if err != nil {
			return false, err
		}
		if lo == unordered || hi == unordered {
			return false, nil
		}
		return lo >= 0 && hi <= 0, nil
	})
}

func ordered(x interface{}, accept func(int) bool) predicate {
	return func(_ context.Context, v interface{}) (bool, error) {
		c, err := compareOrdered(v, x)
		if err != nil {
			return false, err
		}
		return c != unordered && accept(c), nil
	}
}

// IsInstanceOf passes when the value's dynamic type is sample's type (or a
// pointer to it). sample may be a reflect.Type. A pointer to an interface,
// such as (*io.Reader)(nil), passes for values implementing it.
func (a *Assertion) IsInstanceOf(sample interface{}) *Runner {
	return a.check(func(_ context.Context, v interface{}) (bool, error) {
		return instanceOf(v, sample)
	})
}

// HasProperty passes when the value has a struct field or method called
// name, or is a string-keyed map holding the key name.
func (a *Assertion) HasProperty(name string) *Runner {
	return a.check(plain(func(v interface{}) bool { return hasProperty(v, name) }))
}

// HasLength passes when the value's length is n. Strings are measured in
// runes.
func (a *Assertion) HasLength(n int) *Runner {
	return a.check(plain(func(v interface{}) bool {
		l, ok := lengthOf(v)
		return ok && l == n
	}))
}

// Matches passes when the value matches re, a *regexp.Regexp or a pattern
// string. Non-string values are matched on their default formatting.
func (a *Assertion) Matches(re interface{}) *Runner {
	return a.check(func(_ context.Context, v interface{}) (bool, error) {
		return matches(v, re)
	})
}

// IsArray passes for slices and arrays.
func (a *Assertion) IsArray() *Runner {
	return a.check(plain(func(v interface{}) bool {
		k := kindOf(v)
		return k == reflect.Slice || k == reflect.Array
	}))
}

// IsObject passes for structs, non-nil pointers to structs and non-nil maps.
func (a *Assertion) IsObject() *Runner {
	return a.check(plain(isObject))
}

// IsEmpty passes for nil, zero-length strings, slices, arrays and maps, and
// structs without fields.
func (a *Assertion) IsEmpty() *Runner {
	return a.check(plain(isEmpty))
}

// IsFunction passes for non-nil funcs.
func (a *Assertion) IsFunction() *Runner {
	return a.check(plain(func(v interface{}) bool {
		return kindOf(v) == reflect.Func && !reflect.ValueOf(v).IsNil()
	}))
}

// DeepEquals passes when the value is structurally equal to x. See DeepEqual.
func (a *Assertion) DeepEquals(x interface{}) *Runner {
	return a.check(plain(func(v interface{}) bool { return DeepEqual(v, x) }))
}

// ResolvesTo awaits a promise value and passes when the result Is x. A
// rejection is an assertion error. Values that are not promises are
// compared directly.
func (a *Assertion) ResolvesTo(x interface{}) *Runner {
	return a.check(func(ctx context.Context, v interface{}) (bool, error) {
		p, ok := v.(awaitable)
		if !ok {
			return strictEqual(v, x), nil
		}
		got, err := p.awaitValue(ctx)
		if err != nil {
			return false, err
		}
		return strictEqual(got, x), nil
	})
}

// FailsWith awaits a promise value and passes when it rejects with an error
// matching target under errors.Is. A nil target accepts any rejection.
// Values that are not promises fail.
func (a *Assertion) FailsWith(target error) *Runner {
	return a.check(func(ctx context.Context, v interface{}) (bool, error) {
		rejected, err := rejection(ctx, v)
		if !rejected {
			return false, nil
		}
		return target == nil || errors.Is(err, target), nil
	})
}

// FailsAs awaits a promise value and passes when it rejects with an error
// that errors.As can assign to target, a non-nil pointer.
func (a *Assertion) FailsAs(target interface{}) *Runner {
	return a.check(func(ctx context.Context, v interface{}) (bool, error) {
		rejected, err := rejection(ctx, v)
		if !rejected {
			return false, nil
		}
		return errors.As(err, target), nil
	})
}

func rejection(ctx context.Context, v interface{}) (bool, error) {
	p, ok := v.(awaitable)
	if !ok {
		return false, nil
	}
	_, err := p.awaitValue(ctx)
	return err != nil, err
}

// IsDate passes for time.Time values and non-nil *time.Time.
func (a *Assertion) IsDate() *Runner {
	return a.check(plain(func(v interface{}) bool {
		switch t := v.(type) {
		case time.Time:
			return true
		case *time.Time:
			return t != nil
		default:
			return false
		}
	}))
}

// IsEven passes for even integers, including integral floats.
func (a *Assertion) IsEven() *Runner {
	return a.check(plain(isEven))
}

// IsOdd passes for odd integers, including integral floats.
func (a *Assertion) IsOdd() *Runner {
	return a.check(plain(func(v interface{}) bool { return isInteger(v) && !isEven(v) }))
}

// IsPositive passes for numbers greater than zero.
func (a *Assertion) IsPositive() *Runner {
	return a.check(plain(func(v interface{}) bool { return sign(v) > 0 }))
}

// IsNegative passes for numbers less than zero.
func (a *Assertion) IsNegative() *Runner {
	return a.check(plain(func(v interface{}) bool { return sign(v) < 0 }))
}

// IsInteger passes for integers and integral floats.
func (a *Assertion) IsInteger() *Runner {
	return a.check(plain(isInteger))
}

// IsFinite passes for numbers that are neither infinite nor NaN.
func (a *Assertion) IsFinite() *Runner {
	return a.check(plain(isFinite))
}

// IsSymbol passes for symbols created by NewSymbol.
func (a *Assertion) IsSymbol() *Runner {
	return a.check(plain(func(v interface{}) bool {
		s, ok := v.(*Symbol)
		return ok && s != nil
	}))
}

// IsPromise passes for *Promise values of any type.
func (a *Assertion) IsPromise() *Runner {
	return a.check(plain(func(v interface{}) bool {
		_, ok := v.(awaitable)
		return ok && !reflect.ValueOf(v).IsNil()
	}))
}

// IsRegExp passes for compiled regular expressions.
func (a *Assertion) IsRegExp() *Runner {
	return a.check(plain(func(v interface{}) bool {
		re, ok := v.(*regexp.Regexp)
		return ok && re != nil
	}))
}

// Satisfies passes when fn returns true for the value. A panic in fn is an
// assertion error.
func (a *Assertion) Satisfies(fn func(v interface{}) bool) *Runner {
	return a.check(plain(fn))
}
