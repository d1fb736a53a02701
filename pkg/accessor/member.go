package accessor

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// AttrGetter lets an item resolve member reads itself. It takes precedence
// over reflection. Implementations should wrap ErrNoMember for unknown
// names so that Attr sources can fall back to keyed access.
type AttrGetter interface {
	Attr(name string) (any, error)
}

// AttrSetter lets an item resolve member writes itself.
type AttrSetter interface {
	SetAttr(name string, value any) error
}

// getMember reads a member by name. Lookup order: AttrGetter, a zero-arg
// method returning (v) or (v, error), then an exported struct field matched
// by Go name, `attr` tag or `json` tag.
func getMember(item any, name string) (any, error) {
	if g, ok := item.(AttrGetter); ok {
		return g.Attr(name)
	}
	v := reflect.ValueOf(item)
	if !v.IsValid() {
		return nil, noMember(item, name)
	}
	if m := v.MethodByName(name); m.IsValid() {
		if out, ok, err := callGetter(m); ok {
			return out, err
		}
	}
	sv, ok := derefStruct(v)
	if !ok {
		return nil, noMember(item, name)
	}
	f, ok := structField(sv, name)
	if !ok {
		return nil, noMember(item, name)
	}
	return f.Interface(), nil
}

// setMember assigns a member by name. Lookup order: AttrSetter, a
// Set<Name>(v) method, then an exported field of a struct reached through a
// pointer. Maps are never written here.
func setMember(item any, name string, value any) error {
	if s, ok := item.(AttrSetter); ok {
		return s.SetAttr(name, value)
	}
	v := reflect.ValueOf(item)
	if !v.IsValid() {
		return noMember(item, name)
	}
	if m := v.MethodByName("Set" + exportName(name)); m.IsValid() {
		if ok, err := callSetter(m, value); ok {
			return err
		}
	}
	sv, ok := derefStruct(v)
	if !ok {
		return noMember(item, name)
	}
	f, ok := structField(sv, name)
	if !ok {
		return noMember(item, name)
	}
	if !f.CanSet() {
		return fmt.Errorf("%w: %T.%s (pass a pointer)", ErrNotSettable, item, name)
	}
	return assign(f, value)
}

func noMember(item any, name string) error {
	return fmt.Errorf("%w: %T has no member %q", ErrNoMember, item, name)
}

func derefStruct(v reflect.Value) (reflect.Value, bool) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return v, false
		}
		v = v.Elem()
	}
	return v, v.Kind() == reflect.Struct
}

func structField(sv reflect.Value, name string) (reflect.Value, bool) {
	t := sv.Type()
	if sf, ok := t.FieldByName(name); ok && sf.IsExported() {
		f, err := sv.FieldByIndexErr(sf.Index)
		return f, err == nil
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if tagName(sf, "attr") == name || tagName(sf, "json") == name {
			return sv.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func tagName(sf reflect.StructField, key string) string {
	tag, ok := sf.Tag.Lookup(key)
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func callGetter(m reflect.Value) (any, bool, error) {
	mt := m.Type()
	if mt.NumIn() != 0 {
		return nil, false, nil
	}
	switch mt.NumOut() {
	case 1:
		return m.Call(nil)[0].Interface(), true, nil
	case 2:
		if !mt.Out(1).Implements(errorType) {
			return nil, false, nil
		}
		out := m.Call(nil)
		err, _ := out[1].Interface().(error)
		return out[0].Interface(), true, err
	}
	return nil, false, nil
}

func callSetter(m reflect.Value, value any) (bool, error) {
	mt := m.Type()
	if mt.NumIn() != 1 || mt.NumOut() > 1 {
		return false, nil
	}
	if mt.NumOut() == 1 && !mt.Out(0).Implements(errorType) {
		return false, nil
	}
	arg := reflect.New(mt.In(0)).Elem()
	if err := assign(arg, value); err != nil {
		return true, err
	}
	out := m.Call([]reflect.Value{arg})
	if len(out) == 1 {
		err, _ := out[0].Interface().(error)
		return true, err
	}
	return true, nil
}

func exportName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// assign stores value into dst, converting between numeric kinds and
// parsing strings into numbers and booleans (edits usually arrive as text).
func assign(dst reflect.Value, value any) error {
	if value == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(dst.Type()) {
		dst.Set(rv)
		return nil
	}
	dk := dst.Kind()
	switch {
	case isNumeric(rv.Kind()) && isNumeric(dk),
		rv.Kind() == reflect.String && dk == reflect.String:
		dst.Set(rv.Convert(dst.Type()))
		return nil
	case rv.Kind() == reflect.String:
		return parseInto(dst, rv.String())
	}
	return fmt.Errorf("%w: cannot assign %T to %s", ErrTypeMismatch, value, dst.Type())
}

func parseInto(dst reflect.Value, s string) error {
	s = strings.TrimSpace(s)
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		dst.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		dst.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		dst.SetBool(b)
	default:
		return fmt.Errorf("%w: cannot assign string to %s", ErrTypeMismatch, dst.Type())
	}
	return nil
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
