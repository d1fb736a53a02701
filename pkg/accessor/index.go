package accessor

import (
	"fmt"
	"reflect"
)

// Indexer wraps the Index method.
type Indexer interface {
	// Index retrieves the value corresponding to the specified key in the
	// container. It returns the value (if any), and whether it actually exists.
	Index(k any) (v any, ok bool)
}

// ErrIndexer wraps the Index method.
type ErrIndexer interface {
	// Index retrieves one value from the receiver at the specified key.
	Index(k any) (any, error)
}

// IndexSetter wraps the SetIndex method.
type IndexSetter interface {
	SetIndex(k, v any) error
}

// index reads a[k]. It is implemented for maps, slices and arrays (through
// any number of pointers) and types satisfying ErrIndexer or Indexer. For
// other types it returns an error wrapping ErrNotIndexable.
func index(a, k any) (any, error) {
	switch a := a.(type) {
	case ErrIndexer:
		return a.Index(k)
	case Indexer:
		v, ok := a.Index(k)
		if !ok {
			return nil, noSuchKey(k)
		}
		return v, nil
	}
	v, ok := derefContainer(reflect.ValueOf(a))
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotIndexable, a)
	}
	switch v.Kind() {
	case reflect.Map:
		kv, ok := convertKey(k, v.Type().Key())
		if !ok {
			return nil, noSuchKey(k)
		}
		e := v.MapIndex(kv)
		if !e.IsValid() {
			return nil, noSuchKey(k)
		}
		return e.Interface(), nil
	default:
		i, err := listIndex(a, k, v.Len())
		if err != nil {
			return nil, err
		}
		return v.Index(i).Interface(), nil
	}
}

// setIndex writes a[k] = value.
func setIndex(a, k, value any) error {
	if s, ok := a.(IndexSetter); ok {
		return s.SetIndex(k, value)
	}
	v, ok := derefContainer(reflect.ValueOf(a))
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotIndexable, a)
	}
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return fmt.Errorf("%w: nil map", ErrNotSettable)
		}
		kv, ok := convertKey(k, v.Type().Key())
		if !ok {
			return fmt.Errorf("%w: key %#v for %s", ErrTypeMismatch, k, v.Type())
		}
		ev := reflect.New(v.Type().Elem()).Elem()
		if err := assign(ev, value); err != nil {
			return err
		}
		v.SetMapIndex(kv, ev)
		return nil
	default:
		i, err := listIndex(a, k, v.Len())
		if err != nil {
			return err
		}
		e := v.Index(i)
		if !e.CanSet() {
			return fmt.Errorf("%w: %T (pass a pointer)", ErrNotSettable, a)
		}
		return assign(e, value)
	}
}

func noSuchKey(k any) error {
	return fmt.Errorf("%w: %#v", ErrNoSuchKey, k)
}

func derefContainer(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return v, false
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return v, false
	}
	switch v.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return v, true
	}
	return v, false
}

func convertKey(k any, t reflect.Type) (reflect.Value, bool) {
	if k == nil {
		return reflect.Value{}, false
	}
	kv := reflect.ValueOf(k)
	if kv.Type().AssignableTo(t) {
		return kv, true
	}
	if kv.Kind() == reflect.String && t.Kind() == reflect.String ||
		isNumeric(kv.Kind()) && isNumeric(t.Kind()) {
		return kv.Convert(t), true
	}
	return reflect.Value{}, false
}

// listIndex turns k into a position in a sequence of length n. Negative
// positions count from the end. A non-integer key makes the sequence
// count as not indexable by that key, so Attr sources report the member
// error instead.
func listIndex(a, k any, n int) (int, error) {
	kv := reflect.ValueOf(k)
	// Bounds are checked in 64 bits so no key wraps into range.
	switch {
	case kv.CanInt():
		i := kv.Int()
		if i < 0 {
			i += int64(n)
		}
		if i >= 0 && i < int64(n) {
			return int(i), nil
		}
	case kv.CanUint():
		if u := kv.Uint(); u < uint64(n) {
			return int(u), nil
		}
	default:
		return 0, fmt.Errorf("%w: %T by %T", ErrNotIndexable, a, k)
	}
	return 0, fmt.Errorf("%w: index %v out of range [0, %d)", ErrNoSuchKey, k, n)
}
