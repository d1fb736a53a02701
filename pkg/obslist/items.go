package obslist

import (
	"errors"
	"fmt"
	"iter"
	"reflect"
)

// ErrNotIterable is returned by ToItems for values that are not a
// collection.
var ErrNotIterable = errors.New("obslist: value is not iterable")

// ToItems converts a collection into a fresh item slice. It accepts nil
// (empty), any slice or array, an iter.Seq[any] and a *List (its items).
func ToItems(v any) ([]any, error) {
	switch v := v.(type) {
	case nil:
		return []any{}, nil
	case []any:
		return append([]any{}, v...), nil
	case *List:
		return v.Items(), nil
	case iter.Seq[any]:
		var out []any
		for it := range v {
			out = append(out, it)
		}
		return out, nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Kind() == reflect.Array {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrNotIterable, v)
}

// same reports whether a and b are the same item: equal for comparable
// values, the same underlying object for maps, slices and funcs.
func same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return comparableEqual(a, b)
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Map, reflect.Func:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	return false
}

// comparableEqual is a == b, except that a comparable struct holding an
// uncomparable dynamic value compares unequal instead of panicking.
func comparableEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// truthy follows the usual container convention: nil, false, zero numbers
// and empty strings, slices and maps are false.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array, reflect.Chan:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface, reflect.Func:
		return !rv.IsNil()
	case reflect.Bool:
		return rv.Bool()
	}
	if rv.CanInt() {
		return rv.Int() != 0
	}
	if rv.CanUint() {
		return rv.Uint() != 0
	}
	if rv.CanFloat() {
		return rv.Float() != 0
	}
	return true
}
