package etf

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnpack_RoundTrip(t *testing.T) {
	testCases := []struct {
		name  string
		value Term
	}{
		{name: "null", value: Null{}},
		{name: "true", value: Bool(true)},
		{name: "false", value: Bool(false)},
		{name: "small int", value: Integer(42)},
		{name: "negative int", value: Integer(-42)},
		{name: "big int", value: Integer(1 << 40)},
		{name: "negative big int", value: Integer(-(1 << 40))},
		{name: "float", value: Float(3.14159)},
		{name: "negative float", value: Float(-0.5)},
		{name: "infinity", value: Float(math.Inf(1))},
		{name: "string", value: String("hello")},
		{name: "unicode string", value: String("🔑 unicode with émojis")},
		{name: "bytes", value: Bytes{0, 1, 254, 255}},
		{name: "empty list", value: List{}},
		{name: "list", value: List{Integer(1), String("two"), Float(3), Null{}, Bool(true)}},
		{name: "empty map", value: NewMap(0)},
		{
			name: "gateway hello",
			value: MapOf(
				"op", Integer(10),
				"d", MapOf(
					"heartbeat_interval", Integer(41250),
					"_trace", List{String("gateway-prd-main-xyz")},
				),
				"s", Null{},
				"t", Null{},
			),
		},
		{
			name: "nested lists",
			value: List{
				List{Integer(1), List{Integer(2), List{}}},
				MapOf("k", List{MapOf("deep", Bool(false))}),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := Pack(tc.value)
			require.NoError(t, err)
			assert.Equal(t, Version, encoded[0])

			decoded, err := Unpack(encoded)
			require.NoError(t, err)
			assert.True(t, Equal(tc.value, decoded), "got %#v, want %#v", decoded, tc.value)
		})
	}
}

func TestUnpack_Nil(t *testing.T) {
	decoded, err := Unpack([]byte{131, 106})
	require.NoError(t, err)
	assert.Equal(t, List{}, decoded)
}

func TestUnpack_Atoms(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
		want Term
	}{
		{name: "small utf8 atom", data: []byte{131, 119, 5, 'h', 'e', 'l', 'l', 'o'}, want: String("hello")},
		{name: "utf8 atom true", data: []byte{131, 118, 0, 4, 't', 'r', 'u', 'e'}, want: Bool(true)},
		{name: "small atom false", data: []byte{131, 115, 5, 'f', 'a', 'l', 's', 'e'}, want: Bool(false)},
		{name: "legacy atom nil", data: []byte{131, 100, 0, 3, 'n', 'i', 'l'}, want: Null{}},
		{name: "latin-1 atom", data: []byte{131, 100, 0, 4, 'c', 'a', 'f', 0xe9}, want: String("café")},
		{name: "latin-1 small atom", data: []byte{131, 115, 2, 0xfc, 'x'}, want: String("üx")},
		{name: "utf8 small atom", data: []byte{131, 119, 2, 0xc3, 0xa9}, want: String("é")},
		{name: "empty atom", data: []byte{131, 119, 0}, want: String("")},
		{name: "atom is case sensitive", data: []byte{131, 119, 4, 'T', 'r', 'u', 'e'}, want: String("True")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			decoded, err := Unpack(tc.data)
			require.NoError(t, err)
			assert.Equal(t, tc.want, decoded)
		})
	}
}

func TestUnpack_AtomLiterals(t *testing.T) {
	encoded, err := Marshal(true)
	require.NoError(t, err)
	decoded, err := Unpack(encoded)
	require.NoError(t, err)
	assert.Equal(t, Bool(true), decoded)

	encoded, err = Marshal(nil)
	require.NoError(t, err)
	decoded, err = Unpack(encoded)
	require.NoError(t, err)
	assert.Equal(t, Null{}, decoded)
}

func TestUnpack_MapKeyEquivalence(t *testing.T) {
	t.Run("atom and binary keys collapse", func(t *testing.T) {
		data := []byte{
			131,
			116, 0, 0, 0, 2,
			119, 3, 'f', 'o', 'o', 97, 1,
			109, 0, 0, 0, 3, 'f', 'o', 'o', 97, 2,
		}
		m, err := UnpackMap(data)
		require.NoError(t, err)
		assert.Equal(t, 1, m.Len())
		v, ok := m.Int("foo")
		require.True(t, ok)
		assert.Equal(t, int64(2), v)
	})

	t.Run("atom key alone", func(t *testing.T) {
		data := []byte{131, 116, 0, 0, 0, 1, 119, 3, 'f', 'o', 'o', 97, 1}
		m, err := UnpackMap(data)
		require.NoError(t, err)
		assert.Equal(t, []string{"foo"}, m.Keys())
	})

	t.Run("non-string scalar keys", func(t *testing.T) {
		data := []byte{
			131,
			116, 0, 0, 0, 3,
			97, 7, 97, 1,
			100, 0, 4, 't', 'r', 'u', 'e', 97, 2,
			100, 0, 3, 'n', 'i', 'l', 97, 3,
		}
		m, err := UnpackMap(data)
		require.NoError(t, err)
		assert.Equal(t, []string{"7", "true", "nil"}, m.Keys())
	})

	t.Run("composite key is rejected", func(t *testing.T) {
		data := []byte{131, 116, 0, 0, 0, 1, 108, 0, 0, 0, 1, 97, 1, 106, 97, 1}
		_, err := Unpack(data)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrFormat))
	})

	t.Run("insertion order survives", func(t *testing.T) {
		original := MapOf("b", Integer(1), "a", Integer(2))
		encoded, err := Pack(original)
		require.NoError(t, err)

		m, err := UnpackMap(encoded)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, m.Keys())
		assert.True(t, Equal(original, m))
		assert.True(t, Equal(MapOf("a", Integer(2), "b", Integer(1)), m))
	})
}

func TestUnpack_StringTag(t *testing.T) {
	decoded, err := Unpack([]byte{131, 107, 0, 3, 1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, Bytes{1, 2, 3}, decoded)
}

func TestUnpack_LegacyFloat(t *testing.T) {
	text := []byte("1.50000000000000000000e+00")
	data := append([]byte{131, 99}, text...)
	data = append(data, make([]byte, floatTextLen-len(text))...)

	decoded, err := Unpack(data)
	require.NoError(t, err)
	assert.Equal(t, Float(1.5), decoded)

	bad := append([]byte{131, 99}, make([]byte, floatTextLen)...)
	copy(bad[2:], "not a float")
	_, err = Unpack(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFormat))
}

func TestUnpack_BigInt(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
		want Integer
	}{
		{name: "negative one byte", data: []byte{131, 110, 1, 1, 5}, want: -5},
		{name: "positive two bytes", data: []byte{131, 110, 2, 0, 0x34, 0x12}, want: 0x1234},
		{name: "zero arity", data: []byte{131, 110, 0, 0}, want: 0},
		{name: "leading zero digits", data: []byte{131, 110, 9, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0}, want: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			decoded, err := Unpack(tc.data)
			require.NoError(t, err)
			assert.Equal(t, tc.want, decoded)
		})
	}

	overflow := [][]byte{
		{131, 110, 9, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1},
		{131, 110, 8, 0, 0, 0, 0, 0, 0, 0, 0, 0x80},
		{131, 110, 8, 1, 1, 0, 0, 0, 0, 0, 0, 0x80},
	}
	for _, data := range overflow {
		_, err := Unpack(data)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrFormat))
	}
}

func TestUnpack_FormatErrors(t *testing.T) {
	testCases := []struct {
		name   string
		data   []byte
		reason string
		offset int
	}{
		{name: "empty input", data: []byte{}, reason: "empty input", offset: 0},
		{name: "bad version", data: []byte{130, 97, 1}, reason: "bad version byte 130", offset: 0},
		{name: "version only", data: []byte{131}, reason: "unexpected end of input", offset: 1},
		{name: "unknown tag", data: []byte{131, 1}, reason: "unknown tag 1", offset: 1},
		{name: "improper list", data: []byte{131, 108, 0, 0, 0, 1, 97, 1, 97, 2}, reason: "unexpected tail", offset: 8},
		{name: "missing tail", data: []byte{131, 108, 0, 0, 0, 1, 97, 1}, reason: "unexpected end of input", offset: 8},
		{name: "huge list length", data: []byte{131, 108, 0xff, 0xff, 0xff, 0xff}, reason: "unexpected end of input", offset: 6},
		{name: "huge binary length", data: []byte{131, 109, 0xff, 0xff, 0xff, 0xff, 'a'}, reason: "unexpected end of input", offset: 6},
		{name: "trailing bytes", data: []byte{131, 97, 1, 0}, reason: "trailing bytes after term", offset: 3},
		{name: "unknown nested tag", data: []byte{131, 108, 0, 0, 0, 1, 200, 106}, reason: "unknown tag 200", offset: 6},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Unpack(tc.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFormat))

			var formatErr *FormatError
			require.True(t, errors.As(err, &formatErr))
			assert.Equal(t, tc.reason, formatErr.Reason)
			assert.Equal(t, tc.offset, formatErr.Offset)
		})
	}
}

func TestUnpack_BadVersionAnyLength(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 1; n <= 512; n++ {
		data := make([]byte, n)
		rng.Read(data)
		if data[0] == Version {
			data[0] = 0
		}
		_, err := Unpack(data)
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrFormat), "length %d: %v", n, err)
	}
}

func TestUnpack_EveryTruncationFails(t *testing.T) {
	value := MapOf(
		"op", Integer(0),
		"t", String("MESSAGE_CREATE"),
		"d", MapOf(
			"id", Integer(175928847299117063),
			"content", String("hi"),
			"embeds", List{},
			"pinned", Bool(false),
			"nonce", Bytes{1, 2},
			"score", Float(0.25),
			"mentions", List{Integer(-7), Integer(300)},
		),
	)
	encoded, err := Pack(value)
	require.NoError(t, err)

	for n := 0; n < len(encoded); n++ {
		_, err := Unpack(encoded[:n])
		require.Error(t, err, "prefix length %d", n)
		require.True(t, errors.Is(err, ErrFormat), "prefix length %d: %v", n, err)
	}
}

func TestUnpack_RandomInputNeverPanics(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		data := make([]byte, 1+rng.Intn(64))
		rng.Read(data)
		data[0] = Version
		_, err := Unpack(data)
		if err != nil {
			assert.True(t,
				errors.Is(err, ErrFormat) || errors.Is(err, ErrResource),
				"unexpected error class: %v", err)
		}
	}
}

func TestUnpackMap_OuterTag(t *testing.T) {
	_, err := UnpackMap([]byte{131, 106})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFormat))

	m, err := UnpackMap([]byte{131, 116, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestUnpackList_OuterTag(t *testing.T) {
	_, err := UnpackList([]byte{131, 116, 0, 0, 0, 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFormat))

	l, err := UnpackList([]byte{131, 106})
	require.NoError(t, err)
	assert.Empty(t, l)

	l, err = UnpackList([]byte{131, 108, 0, 0, 0, 1, 97, 9, 106})
	require.NoError(t, err)
	assert.Equal(t, List{Integer(9)}, l)
}

func TestDecoder_MaxDepth(t *testing.T) {
	nested := Term(List{Integer(1)})
	for i := 0; i < 5; i++ {
		nested = List{nested}
	}
	encoded, err := Pack(nested)
	require.NoError(t, err)

	_, err = NewDecoder(Limits{MaxDepth: 3}).Unpack(encoded)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFormat))

	decoded, err := NewDecoder(Limits{}).Unpack(encoded)
	require.NoError(t, err)
	assert.True(t, Equal(nested, decoded))
}

func TestNewDecoder_Defaults(t *testing.T) {
	d := NewDecoder(Limits{})
	assert.Equal(t, DefaultLimits(), d.Limits())
}
