package etf

import "math"

// Term is a decoded or to-be-encoded value. The set of implementations is
// closed: Null, Bool, Integer, Float, String, Bytes, List and *Map.
type Term interface {
	isTerm()
}

// Null is the absent value. It travels as the atom "nil".
type Null struct{}

// Bool travels as the atom "true" or "false".
type Bool bool

// Integer is any whole number that fits in 64 signed bits.
type Integer int64

// Float is an IEEE-754 double.
type Float float64

// String is UTF-8 text. Atoms other than true/false/nil also decode to String.
type String string

// Bytes is the legacy byte-list form (STRING tag). It is not text.
type Bytes []byte

// List is an ordered sequence. An empty List is written as NIL.
type List []Term

func (Null) isTerm()    {}
func (Bool) isTerm()    {}
func (Integer) isTerm() {}
func (Float) isTerm()   {}
func (String) isTerm()  {}
func (Bytes) isTerm()   {}
func (List) isTerm()    {}
func (*Map) isTerm()    {}

// Map is a string-keyed map that remembers insertion order. Setting an
// existing key replaces its value and keeps its original position.
type Map struct {
	keys   []string
	values map[string]Term
}

// NewMap returns an empty map with room for n entries.
func NewMap(n int) *Map {
	return &Map{
		keys:   make([]string, 0, n),
		values: make(map[string]Term, n),
	}
}

// MapOf builds a map from alternating key/value pairs.
func MapOf(pairs ...any) *Map {
	if len(pairs)%2 != 0 {
		panic("etf: MapOf requires an even number of arguments")
	}
	m := NewMap(len(pairs) / 2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic("etf: MapOf keys must be strings")
		}
		value, ok := pairs[i+1].(Term)
		if !ok {
			panic("etf: MapOf values must be terms")
		}
		m.Set(key, value)
	}
	return m
}

// Set stores value under key.
func (m *Map) Set(key string, value Term) {
	if m.values == nil {
		m.values = make(map[string]Term)
	}
	if value == nil {
		value = Null{}
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Term, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Range calls fn for each entry in insertion order until fn returns false.
func (m *Map) Range(fn func(key string, value Term) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// String returns the text stored under key.
func (m *Map) String(key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	return AsString(v)
}

// Int returns the integer stored under key.
func (m *Map) Int(key string) (int64, bool) {
	v, ok := m.Get(key)
	if !ok {
		return 0, false
	}
	return AsInt(v)
}

// Bool returns the boolean stored under key.
func (m *Map) Bool(key string) (bool, bool) {
	v, ok := m.Get(key)
	if !ok {
		return false, false
	}
	return AsBool(v)
}

// Map returns the nested map stored under key.
func (m *Map) Map(key string) (*Map, bool) {
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	return AsMap(v)
}

// List returns the list stored under key.
func (m *Map) List(key string) (List, bool) {
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	return AsList(v)
}

// AsMap returns t as a map.
func AsMap(t Term) (*Map, bool) {
	m, ok := t.(*Map)
	return m, ok && m != nil
}

// AsList returns t as a list. Every empty sequence, including an empty
// Bytes value, is an empty list.
func AsList(t Term) (List, bool) {
	switch v := t.(type) {
	case List:
		return v, true
	case Bytes:
		out := make(List, len(v))
		for i, b := range v {
			out[i] = Integer(b)
		}
		return out, true
	}
	return nil, false
}

// AsString returns t as text.
func AsString(t Term) (string, bool) {
	s, ok := t.(String)
	return string(s), ok
}

// AsInt returns t as an integer. Floats with no fractional part are accepted.
func AsInt(t Term) (int64, bool) {
	switch v := t.(type) {
	case Integer:
		return int64(v), true
	case Float:
		f := float64(v)
		if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
			return int64(f), true
		}
	}
	return 0, false
}

// AsFloat returns t as a float. Integers are widened.
func AsFloat(t Term) (float64, bool) {
	switch v := t.(type) {
	case Float:
		return float64(v), true
	case Integer:
		return float64(v), true
	}
	return 0, false
}

// AsBool returns t as a boolean.
func AsBool(t Term) (bool, bool) {
	b, ok := t.(Bool)
	return bool(b), ok
}

// IsNull reports whether t is the null value. A nil interface counts as null.
func IsNull(t Term) bool {
	if t == nil {
		return true
	}
	_, ok := t.(Null)
	return ok
}

// Equal reports whether a and b are structurally equal. Maps compare as key
// sets, and all empty sequences are equal to each other.
func Equal(a, b Term) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	if isEmptySeq(a) || isEmptySeq(b) {
		return isEmptySeq(a) && isEmptySeq(b)
	}
	switch x := a.(type) {
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Integer:
		y, ok := b.(Integer)
		return ok && x == y
	case Float:
		y, ok := b.(Float)
		if !ok {
			return false
		}
		if math.IsNaN(float64(x)) && math.IsNaN(float64(y)) {
			return true
		}
		return x == y
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Bytes:
		y, ok := b.(Bytes)
		return ok && string(x) == string(y)
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Map:
		y, ok := b.(*Map)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, k := range x.keys {
			yv, ok := y.Get(k)
			if !ok || !Equal(x.values[k], yv) {
				return false
			}
		}
		return true
	}
	return false
}

func isEmptySeq(t Term) bool {
	switch v := t.(type) {
	case List:
		return len(v) == 0
	case Bytes:
		return len(v) == 0
	}
	return false
}
