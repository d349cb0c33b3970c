package fw

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// unordered is returned by compareOrdered when either side is NaN.
const unordered = 2

func kindOf(v interface{}) reflect.Kind {
	if v == nil {
		return reflect.Invalid
	}
	return reflect.TypeOf(v).Kind()
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan,
		reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}

// strictEqual reports whether a and b have the same dynamic type and value.
// Reference kinds compare by identity. A bare nil equals any nil value.
func strictEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return isNil(a) && isNil(b)
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Ptr, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if !va.Type().Comparable() {
		return false
	}
	return safeEquals(a, b)
}

// safeEquals compares with ==, treating a runtime panic (an interface field
// holding an uncomparable value) as inequality.
func safeEquals(a, b interface{}) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// looseEqual compares numbers by value across kinds, coercing numeric
// strings and bools when the other side is a number or bool.
func looseEqual(a, b interface{}) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}
	ka, kb := kindOf(a), kindOf(b)
	if ka == reflect.String && kb == reflect.String {
		return reflect.ValueOf(a).String() == reflect.ValueOf(b).String()
	}
	if isNumericKind(ka) || isNumericKind(kb) || ka == reflect.Bool || kb == reflect.Bool {
		fa, okA := coerceNumber(a)
		fb, okB := coerceNumber(b)
		if okA && okB {
			return fa == fb
		}
	}
	return strictEqual(a, b)
}

func toFloat(v interface{}) (float64, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

func coerceNumber(v interface{}) (float64, bool) {
	if f, ok := toFloat(v); ok {
		return f, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return 1, true
		}
		return 0, true
	case reflect.String:
		s := strings.TrimSpace(rv.String())
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func isNumber(v interface{}) bool {
	_, ok := toFloat(v)
	return ok
}

// compareOrdered returns -1, 0 or 1 as a orders before, with or after b.
// Numbers (durations included), strings and times are comparable among
// themselves; NaN yields unordered.
func compareOrdered(a, b interface{}) (int, error) {
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb), nil
		}
	}
	if isNumber(a) && isNumber(b) {
		return compareNumbers(reflect.ValueOf(a), reflect.ValueOf(b)), nil
	}
	if kindOf(a) == reflect.String && kindOf(b) == reflect.String {
		return strings.Compare(reflect.ValueOf(a).String(), reflect.ValueOf(b).String()), nil
	}
	return 0, fmt.Errorf("%w: %T and %T", ErrNotComparable, a, b)
}

func compareNumbers(a, b reflect.Value) int {
	switch {
	case isSigned(a.Kind()) && isSigned(b.Kind()):
		return sign3(a.Int() < b.Int(), a.Int() > b.Int())
	case isUnsigned(a.Kind()) && isUnsigned(b.Kind()):
		return sign3(a.Uint() < b.Uint(), a.Uint() > b.Uint())
	}
	fa, _ := toFloat(a.Interface())
	fb, _ := toFloat(b.Interface())
	if math.IsNaN(fa) || math.IsNaN(fb) {
		return unordered
	}
	return sign3(fa < fb, fa > fb)
}

func sign3(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	default:
		return 0
	}
}

func isSigned(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	default:
		return false
	}
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}

func contains(container, x interface{}) (bool, error) {
	if container == nil {
		return false, fmt.Errorf("%w: nil", ErrNotContainable)
	}
	rv := reflect.ValueOf(container)
	switch rv.Kind() {
	case reflect.String:
		s := rv.String()
		switch e := x.(type) {
		case string:
			return strings.Contains(s, e), nil
		case rune:
			return strings.ContainsRune(s, e), nil
		default:
			return strings.Contains(s, fmt.Sprint(x)), nil
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			el := rv.Index(i).Interface()
			if strictEqual(el, x) || (isNaN(el) && isNaN(x) && isNumber(el) && isNumber(x)) {
				return true, nil
			}
		}
		return false, nil
	case reflect.Map:
		if x == nil || rv.IsNil() {
			return false, nil
		}
		key := reflect.ValueOf(x)
		kt := rv.Type().Key()
		switch {
		case key.Type().AssignableTo(kt):
		case key.Kind() == kt.Kind() && key.Type().ConvertibleTo(kt):
			key = key.Convert(kt)
		default:
			return false, nil
		}
		return rv.MapIndex(key).IsValid(), nil
	default:
		return false, fmt.Errorf("%w: %T", ErrNotContainable, container)
	}
}

func isNaN(v interface{}) bool {
	if v == nil {
		return true
	}
	if _, ok := v.(time.Time); ok {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return math.IsNaN(rv.Float())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Bool:
		return false
	case reflect.String:
		_, ok := coerceNumber(v)
		return !ok
	default:
		return true
	}
}

func isInteger(v interface{}) bool {
	switch k := kindOf(v); {
	case isSigned(k), isUnsigned(k):
		return true
	case k == reflect.Float32 || k == reflect.Float64:
		f := reflect.ValueOf(v).Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0) && math.Trunc(f) == f
	default:
		return false
	}
}

func isEven(v interface{}) bool {
	if !isInteger(v) {
		return false
	}
	rv := reflect.ValueOf(v)
	switch k := rv.Kind(); {
	case isSigned(k):
		return rv.Int()%2 == 0
	case isUnsigned(k):
		return rv.Uint()%2 == 0
	default:
		return math.Mod(rv.Float(), 2) == 0
	}
}

func isFinite(v interface{}) bool {
	f, ok := toFloat(v)
	return ok && !math.IsNaN(f) && !math.IsInf(f, 0)
}

func sign(v interface{}) int {
	f, ok := toFloat(v)
	switch {
	case !ok || math.IsNaN(f):
		return 0
	case f > 0:
		return 1
	case f < 0:
		return -1
	default:
		return 0
	}
}

func instanceOf(v, sample interface{}) (bool, error) {
	var t reflect.Type
	switch s := sample.(type) {
	case nil:
		return false, fmt.Errorf("instance check needs a type sample, got nil")
	case reflect.Type:
		t = s
	default:
		t = reflect.TypeOf(sample)
	}
	if v == nil {
		return false, nil
	}

	vt := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Interface {
		t = t.Elem()
	}
	if t.Kind() == reflect.Interface {
		return vt.Implements(t), nil
	}
	return vt == t || (vt.Kind() == reflect.Ptr && vt.Elem() == t), nil
}

func hasProperty(v interface{}, name string) bool {
	if isNil(v) {
		return false
	}
	rv := reflect.ValueOf(v)
	if _, ok := rv.Type().MethodByName(name); ok {
		return true
	}
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct:
		_, ok := rv.Type().FieldByName(name)
		return ok
	case reflect.Map:
		kt := rv.Type().Key()
		if kt.Kind() != reflect.String || rv.IsNil() {
			return false
		}
		return rv.MapIndex(reflect.ValueOf(name).Convert(kt)).IsValid()
	default:
		return false
	}
}

func lengthOf(v interface{}) (int, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() && rv.Elem().Kind() == reflect.Array {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String:
		return utf8.RuneCountInString(rv.String()), true
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return rv.Len(), true
	default:
		return 0, false
	}
}

func matches(v, re interface{}) (bool, error) {
	var rx *regexp.Regexp
	switch p := re.(type) {
	case *regexp.Regexp:
		if p == nil {
			return false, fmt.Errorf("nil regular expression")
		}
		rx = p
	case string:
		compiled, err := regexp.Compile(p)
		if err != nil {
			return false, fmt.Errorf("compile pattern: %w", err)
		}
		rx = compiled
	default:
		return false, fmt.Errorf("pattern must be a *regexp.Regexp or string, got %T", re)
	}

	switch s := v.(type) {
	case []byte:
		return rx.Match(s), nil
	case fmt.Stringer:
		return rx.MatchString(s.String()), nil
	}
	if kindOf(v) == reflect.String {
		return rx.MatchString(reflect.ValueOf(v).String()), nil
	}
	return rx.MatchString(fmt.Sprint(v)), nil
}

func isObject(v interface{}) bool {
	if isNil(v) {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Struct, reflect.Map:
		return true
	case reflect.Ptr:
		return rv.Elem().Kind() == reflect.Struct
	default:
		return false
	}
}

func isEmpty(v interface{}) bool {
	if isNil(v) {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	case reflect.Struct:
		return rv.NumField() == 0
	case reflect.Ptr:
		return isEmpty(rv.Elem().Interface())
	default:
		return false
	}
}

// throws reports whether invoking v on args panics or returns an error.
// Values that are not functions do not throw.
func throws(ctx context.Context, v interface{}, args []interface{}) (bool, error) {
	fn := reflect.ValueOf(v)
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return false, nil
	}
	in, err := callArgs(ctx, fn.Type(), args)
	if err != nil {
		return false, err
	}
	_, err = call(fn, in)
	return err != nil, nil
}
