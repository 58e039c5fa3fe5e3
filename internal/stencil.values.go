package internal

import (
	"fmt"
	"iter"
	"reflect"
	"sort"
	"strconv"
)

// Stringify converts a resolved value to its output representation.
// nil (the default for unresolved expressions) renders as the empty string.
func Stringify(val any) string {
	switch v := val.(type) {
	case nil:
		return StringValueEmpty
	case string:
		return v
	case []byte:
		return string(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Truthy reports whether a value counts as true in a condition: nil, false,
// zero numbers and empty strings or collections are false.
func Truthy(val any) bool {
	switch v := val.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	}

	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Complex64, reflect.Complex128:
		return rv.Complex() != 0
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array, reflect.Chan:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface, reflect.Func:
		return !rv.IsNil()
	default:
		return true
	}
}

// Iterate returns a sequence over the elements of val. Slices and arrays
// yield their elements, strings their characters, maps their keys in sorted
// order, iter.Seq[any] values are passed through and nil yields nothing.
// The second result is false when val cannot be iterated.
func Iterate(val any) (iter.Seq[any], bool) {
	switch v := val.(type) {
	case nil:
		return func(func(any) bool) {}, true
	case iter.Seq[any]:
		return v, true
	case []any:
		return func(yield func(any) bool) {
			for _, item := range v {
				if !yield(item) {
					return
				}
			}
		}, true
	case string:
		return func(yield func(any) bool) {
			for _, r := range v {
				if !yield(string(r)) {
					return
				}
			}
		}, true
	}

	rv := indirect(reflect.ValueOf(val))
	if !rv.IsValid() {
		return func(func(any) bool) {}, true
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return func(yield func(any) bool) {
			for i := 0; i < rv.Len(); i++ {
				if !yield(rv.Index(i).Interface()) {
					return
				}
			}
		}, true
	case reflect.String:
		return Iterate(rv.String())
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return Stringify(keys[i].Interface()) < Stringify(keys[j].Interface())
		})
		return func(yield func(any) bool) {
			for _, k := range keys {
				if !yield(k.Interface()) {
					return
				}
			}
		}, true
	}
	return nil, false
}
