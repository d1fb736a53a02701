package accessor

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

// Comparer lets a value define its own ordering against other values.
type Comparer interface {
	// Compare returns a negative number, zero or a positive number when the
	// receiver sorts before, equal to or after other.
	Compare(other any) (int, error)
}

// Compare orders two retrieved values. nil sorts before everything; numbers
// of any Go kind compare by value with each other; strings (including named
// string types) compare lexically; time.Time chronologically. Any other
// combination yields ErrUnorderable. A Comparer on either side decides, so
// Compare(a, b) and Compare(b, a) always agree.
func Compare(a, b any) (int, error) {
	if c, ok := a.(Comparer); ok {
		return c.Compare(b)
	}
	if c, ok := b.(Comparer); ok {
		r, err := c.Compare(a)
		return -r, err
	}
	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil:
		return -1, nil
	case b == nil:
		return 1, nil
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb), nil
		}
		return 0, unorderable(a, b)
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	ka, kb := va.Kind(), vb.Kind()
	switch {
	case ka == reflect.Bool && kb == reflect.Bool:
		x, y := va.Bool(), vb.Bool()
		switch {
		case x == y:
			return 0, nil
		case !x:
			return -1, nil
		default:
			return 1, nil
		}
	case ka == reflect.String && kb == reflect.String:
		return strings.Compare(va.String(), vb.String()), nil
	case isNumeric(ka) && isNumeric(kb):
		return compareNumbers(va, vb), nil
	}
	return 0, unorderable(a, b)
}

func unorderable(a, b any) error {
	return fmt.Errorf("%w: %T and %T", ErrUnorderable, a, b)
}

func compareNumbers(a, b reflect.Value) int {
	switch {
	case a.CanInt() && b.CanInt():
		return cmp.Compare(a.Int(), b.Int())
	case a.CanUint() && b.CanUint():
		return cmp.Compare(a.Uint(), b.Uint())
	case a.CanInt() && b.CanUint():
		if a.Int() < 0 {
			return -1
		}
		return cmp.Compare(uint64(a.Int()), b.Uint())
	case a.CanUint() && b.CanInt():
		if b.Int() < 0 {
			return 1
		}
		return cmp.Compare(a.Uint(), uint64(b.Int()))
	}
	return compareFloat(toFloat(a), toFloat(b))
}

func toFloat(v reflect.Value) float64 {
	switch {
	case v.CanInt():
		return float64(v.Int())
	case v.CanUint():
		return float64(v.Uint())
	}
	return v.Float()
}

// NaNs are equal to each other and smaller than all numbers.
func compareFloat(a, b float64) int {
	switch {
	case math.IsNaN(a) && math.IsNaN(b):
		return 0
	case math.IsNaN(a):
		return -1
	case math.IsNaN(b):
		return 1
	}
	return cmp.Compare(a, b)
}
