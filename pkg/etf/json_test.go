package etf

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToJSON(t *testing.T) {
	testCases := []struct {
		name string
		term Term
		want string
	}{
		{name: "null", term: Null{}, want: `null`},
		{name: "nil", term: nil, want: `null`},
		{name: "bool", term: Bool(true), want: `true`},
		{name: "integer", term: Integer(-42), want: `-42`},
		{name: "whole float", term: Float(2), want: `2.0`},
		{name: "fraction", term: Float(0.25), want: `0.25`},
		{name: "exponent", term: Float(1e21), want: `1e+21`},
		{name: "string", term: String("a\"b"), want: `"a\"b"`},
		{name: "bytes", term: Bytes{1, 2}, want: `[1,2]`},
		{name: "empty list", term: List{}, want: `[]`},
		{name: "nil map", term: (*Map)(nil), want: `null`},
		{
			name: "map keeps order",
			term: MapOf("z", Integer(1), "a", List{Bool(false), Null{}}),
			want: `{"z":1,"a":[false,null]}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToJSON(tc.term)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

func TestToJSON_NonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := ToJSON(List{Float(f)})
		assert.Error(t, err)
	}
}

func TestMap_MarshalJSON(t *testing.T) {
	wrapper := struct {
		Data *Map `json:"data"`
	}{Data: MapOf("op", Integer(10), "d", MapOf("heartbeat_interval", Integer(41250)))}

	got, err := json.Marshal(wrapper)
	require.NoError(t, err)
	assert.Equal(t, `{"data":{"op":10,"d":{"heartbeat_interval":41250}}}`, string(got))
}

func TestFromJSON(t *testing.T) {
	got, err := FromJSON([]byte(`{"b": 1, "a": [1.5, "x", null, true], "c": {}, "big": 18446744073709551616, "e": 1e3}`))
	require.NoError(t, err)

	m, ok := AsMap(got)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a", "c", "big", "e"}, m.Keys())

	b, _ := m.Get("b")
	assert.Equal(t, Integer(1), b)

	a, _ := m.List("a")
	assert.Equal(t, List{Float(1.5), String("x"), Null{}, Bool(true)}, a)

	c, ok := m.Map("c")
	require.True(t, ok)
	assert.Equal(t, 0, c.Len())

	big, _ := m.Get("big")
	assert.Equal(t, Float(18446744073709551616), big)

	e, _ := m.Get("e")
	assert.Equal(t, Float(1000), e)
}

func TestFromJSON_Errors(t *testing.T) {
	for _, input := range []string{``, `{`, `[1,]`, `1 2`, `{"a":1}}`} {
		_, err := FromJSON([]byte(input))
		assert.Error(t, err, "input %q", input)
	}
}

func TestJSON_RoundTripThroughETF(t *testing.T) {
	original := nestedPayload()

	doc, err := ToJSON(original)
	require.NoError(t, err)

	parsed, err := FromJSON(doc)
	require.NoError(t, err)
	assert.True(t, Equal(original, parsed))

	encoded, err := Pack(parsed)
	require.NoError(t, err)
	decoded, err := Unpack(encoded)
	require.NoError(t, err)

	again, err := ToJSON(decoded)
	require.NoError(t, err)
	assert.JSONEq(t, string(doc), string(again))
}
