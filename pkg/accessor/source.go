// Package accessor resolves the small "source" language used to read and
// write one field of an arbitrary domain item.
//
// A source is one of:
//
//	Text{}          the item's own string form (read-only)
//	Attr("name")    member access, falling back to keyed access on read
//	Key{k}          keyed/indexed access with k
//	Func(fn)        fn(item) on read, fn(item, value) on write
//	Getter(fn)      fn(item) on read only
//	Pair{Get, Set}  separate sources for each direction
//
// Parse converts the loose form (string, []any{k}, func, [2]any) into a
// Source, so column declarations can be written without importing this
// package's types.
package accessor

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAccessor = errors.New("invalid accessor source")
	ErrNoMember        = errors.New("no such member")
	ErrNoSuchKey       = errors.New("no such key")
	ErrNotIndexable    = errors.New("not indexable")
	ErrNotSettable     = errors.New("not settable")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrUnorderable     = errors.New("values cannot be ordered")
)

// Source describes how to read and write one field of an item.
type Source interface {
	source()
	String() string
}

// Text reads the item's string representation. Storing through it fails.
type Text struct{}

// Attr names a member of the item.
type Attr string

// Key addresses an element of a map, slice, array or Indexer.
type Key [1]any

// Func is a two-way callable: Retrieve calls fn(item), Store calls
// fn(item, value). The function tells the directions apart by len(value).
type Func func(item any, value ...any) (any, error)

// Getter is a read-only callable.
type Getter func(item any) any

// Pair resolves Get on read and Set on write, each recursively.
type Pair struct {
	Get Source
	Set Source
}

func (Text) source() {}
func (Attr) source() {}
func (Key) source() {}
func (Func) source() {}
func (Getter) source() {}
func (Pair) source() {}

func (Text) String() string { return `""` }
func (a Attr) String() string { return fmt.Sprintf("%q", string(a)) }
func (k Key) String() string { return fmt.Sprintf("[%#v]", k[0]) }
func (Func) String() string { return "func" }
func (Getter) String() string { return "getter" }
func (p Pair) String() string { return fmt.Sprintf("(%v, %v)", p.Get, p.Set) }

// Parse converts a loosely typed source description into a Source.
func Parse(v any) (Source, error) {
	switch v := v.(type) {
	case Source:
		return v, nil
	case string:
		if v == "" {
			return Text{}, nil
		}
		return Attr(v), nil
	case []any:
		if len(v) == 1 {
			return Key{v[0]}, nil
		}
	case []string:
		if len(v) == 1 {
			return Key{v[0]}, nil
		}
	case [2]any:
		get, err := Parse(v[0])
		if err != nil {
			return nil, err
		}
		set, err := Parse(v[1])
		if err != nil {
			return nil, err
		}
		return Pair{Get: get, Set: set}, nil
	case func(any) any:
		return Getter(v), nil
	case func(any) (any, error):
		return Func(func(item any, value ...any) (any, error) {
			if len(value) > 0 {
				return nil, fmt.Errorf("%w: read-only callable used for store", ErrInvalidAccessor)
			}
			return v(item)
		}), nil
	case func(any, ...any) (any, error):
		return Func(v), nil
	}
	return nil, fmt.Errorf("%w: %#v", ErrInvalidAccessor, v)
}

// MustParse is like Parse but panics on error. Intended for static column
// declarations.
func MustParse(v any) Source {
	s, err := Parse(v)
	if err != nil {
		panic(err)
	}
	return s
}

// Retrieve reads the value addressed by src from item.
func Retrieve(item any, src Source) (any, error) {
	switch s := src.(type) {
	case Text:
		return textOf(item), nil
	case Attr:
		return retrieveAttr(item, string(s))
	case Key:
		return index(item, s[0])
	case Func:
		if s == nil {
			break
		}
		return s(item)
	case Getter:
		if s == nil {
			break
		}
		return s(item), nil
	case Pair:
		return Retrieve(item, s.Get)
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidAccessor, src)
}

// Store writes value into item at the location addressed by src.
//
// A string source only ever uses member assignment. Unlike Retrieve it does
// not fall back to keyed assignment; use Key{name} for maps.
func Store(item, value any, src Source) error {
	switch s := src.(type) {
	case Text:
		return fmt.Errorf("%w: the text source cannot be stored to", ErrInvalidAccessor)
	case Attr:
		return setMember(item, string(s), value)
	case Key:
		return setIndex(item, s[0], value)
	case Func:
		if s == nil {
			break
		}
		_, err := s(item, value)
		return err
	case Getter:
		return fmt.Errorf("%w: getter cannot be stored to", ErrInvalidAccessor)
	case Pair:
		return Store(item, value, s.Set)
	}
	return fmt.Errorf("%w: %v", ErrInvalidAccessor, src)
}

func textOf(item any) string {
	switch v := item.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(item)
}

func retrieveAttr(item any, name string) (any, error) {
	v, err := getMember(item, name)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrNoMember) {
		return nil, err
	}
	v, ierr := index(item, name)
	if ierr == nil {
		return v, nil
	}
	if errors.Is(ierr, ErrNotIndexable) {
		// neither a member nor indexable: report the member lookup
		return nil, err
	}
	return nil, ierr
}
