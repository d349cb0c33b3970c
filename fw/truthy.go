package fw

import (
	"math"
	"reflect"
)

// Truthy reports whether v counts as a passing result.
//
// Falsy values are: nil (including nil pointers, maps, slices, funcs, chans
// and interfaces), false, numeric zero of any kind, NaN, the empty string,
// empty slices, maps and arrays, and any error value. Everything else is
// truthy.
func Truthy(v interface{}) bool {
	if v == nil {
		return false
	}
	if _, isErr := v.(error); isErr {
		return false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Complex64, reflect.Complex128:
		return rv.Complex() != 0
	case reflect.String, reflect.Array:
		return rv.Len() > 0
	case reflect.Slice, reflect.Map:
		return !rv.IsNil() && rv.Len() > 0
	case reflect.Ptr, reflect.Interface, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return !rv.IsNil()
	default:
		return true
	}
}
