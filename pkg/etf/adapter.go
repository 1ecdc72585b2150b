package etf

import (
	"math"
	"reflect"
	"sort"
	"strings"
)

// TermMarshaler is implemented by types that build their own term form.
type TermMarshaler interface {
	MarshalTerm() (Term, error)
}

// FromValue maps a native Go value onto a Term:
//
//   - nil and nil pointers become Null
//   - Term values pass through unchanged
//   - TermMarshaler values are asked for their term
//   - strings, bools, integers and floats map onto String, Bool, Integer, Float
//   - slices and arrays, []byte included, become List
//   - maps with string keys and structs become *Map; map keys are sorted
//
// Struct fields are named by an `etf:"name,omitempty"` tag, falling back to
// the field name; "-" skips a field. Anything else is an *UnsupportedTypeError.
func FromValue(v any) (Term, error) {
	return fromValue(v, 0)
}

func fromValue(v any, depth int) (Term, error) {
	if depth > DefaultMaxDepth {
		return nil, &UnsupportedTypeError{Type: typeName(v), Detail: "nesting too deep"}
	}

	switch x := v.(type) {
	case nil:
		return Null{}, nil
	case Term:
		return x, nil
	case TermMarshaler:
		return x.MarshalTerm()
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case uint8:
		return Integer(x), nil
	case int:
		return Integer(x), nil
	case int8:
		return Integer(x), nil
	case int16:
		return Integer(x), nil
	case int32:
		return Integer(x), nil
	case int64:
		return Integer(x), nil
	case uint16:
		return Integer(x), nil
	case uint32:
		return Integer(x), nil
	case uint:
		return fromUint(uint64(x), "uint")
	case uint64:
		return fromUint(x, "uint64")
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case []byte:
		out := make(List, len(x))
		for i, b := range x {
			out[i] = Integer(b)
		}
		return out, nil
	case []any:
		out := make(List, len(x))
		for i, elem := range x {
			t, err := fromValue(elem, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = t
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap(len(keys))
		for _, k := range keys {
			t, err := fromValue(x[k], depth+1)
			if err != nil {
				return nil, err
			}
			m.Set(k, t)
		}
		return m, nil
	}

	return fromReflect(reflect.ValueOf(v), depth)
}

func fromUint(v uint64, name string) (Term, error) {
	if v > math.MaxInt64 {
		return nil, &UnsupportedTypeError{Type: name, Detail: "value overflows int64"}
	}
	return Integer(v), nil
}

func fromReflect(rv reflect.Value, depth int) (Term, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null{}, nil
		}
		return fromValue(rv.Elem().Interface(), depth+1)
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Integer(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return fromUint(rv.Uint(), rv.Type().String())
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.Slice, reflect.Array:
		out := make(List, rv.Len())
		for i := range out {
			t, err := fromValue(rv.Index(i).Interface(), depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = t
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, &UnsupportedTypeError{Type: rv.Type().String(), Detail: "map keys must be strings"}
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		m := NewMap(len(keys))
		for _, k := range keys {
			t, err := fromValue(rv.MapIndex(k).Interface(), depth+1)
			if err != nil {
				return nil, err
			}
			m.Set(k.String(), t)
		}
		return m, nil
	case reflect.Struct:
		return fromStruct(rv, depth)
	}
	return nil, &UnsupportedTypeError{Type: typeName(rv)}
}

func fromStruct(rv reflect.Value, depth int) (Term, error) {
	rt := rv.Type()
	m := NewMap(rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty := parseFieldTag(field)
		if name == "-" {
			continue
		}
		fv := rv.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}
		t, err := fromValue(fv.Interface(), depth+1)
		if err != nil {
			return nil, err
		}
		m.Set(name, t)
	}
	return m, nil
}

func parseFieldTag(field reflect.StructField) (string, bool) {
	tag, ok := field.Tag.Lookup("etf")
	if !ok {
		return field.Name, false
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = field.Name
	}
	return name, opts == "omitempty"
}

func typeName(v any) string {
	if rv, ok := v.(reflect.Value); ok {
		if !rv.IsValid() {
			return "invalid value"
		}
		return rv.Type().String()
	}
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
