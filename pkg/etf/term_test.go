package etf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_SetKeepsFirstPosition(t *testing.T) {
	m := NewMap(0)
	m.Set("a", Integer(1))
	m.Set("b", Integer(2))
	m.Set("a", Integer(3))

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"a", "b"}, m.Keys())
	v, ok := m.Int("a")
	require.True(t, ok)
	assert.Equal(t, int64(3), v)
}

func TestMap_SetNilStoresNull(t *testing.T) {
	var m Map
	m.Set("k", nil)
	v, ok := m.Get("k")
	require.True(t, ok)
	assert.Equal(t, Null{}, v)
}

func TestMap_NilReceiver(t *testing.T) {
	var m *Map
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Keys())
	assert.False(t, m.Has("x"))
	m.Range(func(string, Term) bool {
		t.Fatal("range over nil map")
		return false
	})
}

func TestMap_Range(t *testing.T) {
	m := MapOf("a", Integer(1), "b", Integer(2), "c", Integer(3))
	var seen []string
	m.Range(func(k string, _ Term) bool {
		seen = append(seen, k)
		return k != "b"
	})
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestMap_TypedAccessors(t *testing.T) {
	m := MapOf(
		"name", String("general"),
		"position", Integer(4),
		"nsfw", Bool(false),
		"parent", MapOf("id", Integer(9)),
		"tags", List{String("a")},
	)

	name, ok := m.String("name")
	assert.True(t, ok)
	assert.Equal(t, "general", name)

	_, ok = m.String("position")
	assert.False(t, ok)

	nsfw, ok := m.Bool("nsfw")
	assert.True(t, ok)
	assert.False(t, nsfw)

	parent, ok := m.Map("parent")
	require.True(t, ok)
	id, _ := parent.Int("id")
	assert.Equal(t, int64(9), id)

	tags, ok := m.List("tags")
	assert.True(t, ok)
	assert.Len(t, tags, 1)

	_, ok = m.Int("missing")
	assert.False(t, ok)
}

func TestAccessors(t *testing.T) {
	i, ok := AsInt(Float(3))
	assert.True(t, ok)
	assert.Equal(t, int64(3), i)

	_, ok = AsInt(Float(3.5))
	assert.False(t, ok)

	_, ok = AsInt(Float(math.Inf(1)))
	assert.False(t, ok)

	f, ok := AsFloat(Integer(2))
	assert.True(t, ok)
	assert.Equal(t, 2.0, f)

	l, ok := AsList(Bytes{1, 2})
	assert.True(t, ok)
	assert.Equal(t, List{Integer(1), Integer(2)}, l)

	_, ok = AsMap((*Map)(nil))
	assert.False(t, ok)

	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(Null{}))
	assert.False(t, IsNull(String("nil")))
}

func TestEqual(t *testing.T) {
	testCases := []struct {
		name string
		a, b Term
		want bool
	}{
		{name: "empty list and empty bytes", a: List{}, b: Bytes{}, want: true},
		{name: "nil list and empty list", a: List(nil), b: List{}, want: true},
		{name: "empty list and empty map", a: List{}, b: NewMap(0), want: false},
		{name: "null and nil", a: Null{}, b: nil, want: true},
		{name: "integer and float", a: Integer(1), b: Float(1), want: false},
		{name: "NaN", a: Float(math.NaN()), b: Float(math.NaN()), want: true},
		{name: "maps ignore order", a: MapOf("a", Integer(1), "b", Integer(2)), b: MapOf("b", Integer(2), "a", Integer(1)), want: true},
		{name: "maps differ by value", a: MapOf("a", Integer(1)), b: MapOf("a", Integer(2)), want: false},
		{name: "maps differ by key", a: MapOf("a", Integer(1)), b: MapOf("b", Integer(1)), want: false},
		{name: "lists are ordered", a: List{Integer(1), Integer(2)}, b: List{Integer(2), Integer(1)}, want: false},
		{name: "bytes", a: Bytes{1}, b: Bytes{1}, want: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Equal(tc.a, tc.b))
			assert.Equal(t, tc.want, Equal(tc.b, tc.a))
		})
	}
}

func TestMapOf_Panics(t *testing.T) {
	assert.Panics(t, func() { MapOf("odd") })
	assert.Panics(t, func() { MapOf(1, Integer(1)) })
	assert.Panics(t, func() { MapOf("k", 1) })
}

func TestTag_String(t *testing.T) {
	assert.Equal(t, "SMALL_BIGINT", TagSmallBigInt.String())
	assert.Equal(t, "NIL", TagNil.String())
	assert.Equal(t, "unknown(1)", Tag(1).String())
}
