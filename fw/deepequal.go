package fw

import (
	"reflect"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// deepEqualOptions make cmp compare values by content: unexported fields
// are visited, nil and empty containers are equal, numbers compare by value
// whatever their kinds, and containers of different types are compared
// element by element.
var deepEqualOptions = cmp.Options{
	cmp.Exporter(func(reflect.Type) bool { return true }),
	cmpopts.EquateEmpty(),
	cmp.FilterValues(bothNumbers, cmp.Comparer(numbersEqual)),
	cmp.FilterValues(mixedContainers, cmp.Transformer("generic", genericContainer)),
}

// DeepEqual reports whether a and b are structurally equal.
//
// Slices and arrays compare element-wise, also against each other and
// across element types, maps by key set and values and
// structs by every field, unexported ones included. Pointers compare by
// the values they point to. Numbers compare by value across kinds, with NaN
// equal to NaN. A nil slice or map equals an empty one. Types with an
// Equal method, such as time.Time, use it.
func DeepEqual(a, b interface{}) bool {
	return cmp.Equal(a, b, deepEqualOptions)
}

// DeepDiff returns a human-readable report of the differences between a and
// b under DeepEqual's rules, or "" when they are equal.
func DeepDiff(a, b interface{}) string {
	return cmp.Diff(a, b, deepEqualOptions)
}

func bothNumbers(x, y interface{}) bool {
	return isNumber(x) && isNumber(y)
}

func numbersEqual(x, y interface{}) bool {
	if isNaN(x) && isNaN(y) {
		return true
	}
	return compareNumbers(reflect.ValueOf(x), reflect.ValueOf(y)) == 0
}

func isContainerKind(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Array || k == reflect.Map
}

// mixedContainers reports whether x and y are both slices, arrays or maps
// but of different types, such as []int and []interface{}.
func mixedContainers(x, y interface{}) bool {
	if x == nil || y == nil {
		return false
	}
	tx, ty := reflect.TypeOf(x), reflect.TypeOf(y)
	return tx != ty && isContainerKind(tx.Kind()) && isContainerKind(ty.Kind())
}

// genericContainer copies a slice or array into []interface{} and a map
// into map[interface{}]interface{}, so both sides of a comparison share a
// type and their elements compare under the remaining options.
func genericContainer(v interface{}) interface{} {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map {
		out := make(map[interface{}]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().Interface()] = iter.Value().Interface()
		}
		return out
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
