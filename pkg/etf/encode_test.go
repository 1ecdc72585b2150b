package etf

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPack_EmptySequence(t *testing.T) {
	testCases := []struct {
		name  string
		value any
	}{
		{name: "empty List term", value: List{}},
		{name: "nil List term", value: List(nil)},
		{name: "empty Bytes term", value: Bytes{}},
		{name: "empty int slice", value: []int{}},
		{name: "empty byte slice", value: []byte{}},
		{name: "empty any slice", value: []any{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := Marshal(tc.value)
			require.NoError(t, err)
			assert.Equal(t, []byte{131, 106}, encoded)
		})
	}
}

func TestPack_IntegerWidths(t *testing.T) {
	testCases := []struct {
		name  string
		value int64
		want  []byte
	}{
		{name: "zero", value: 0, want: []byte{131, 97, 0}},
		{name: "max small int", value: 255, want: []byte{131, 97, 255}},
		{name: "first int", value: 256, want: []byte{131, 98, 0, 0, 1, 0}},
		{name: "max int32", value: math.MaxInt32, want: []byte{131, 98, 0x7f, 0xff, 0xff, 0xff}},
		{name: "minus one", value: -1, want: []byte{131, 98, 0xff, 0xff, 0xff, 0xff}},
		{name: "min int32", value: math.MinInt32, want: []byte{131, 98, 0x80, 0, 0, 0}},
		{name: "max int32 plus one", value: 1 << 31, want: []byte{131, 110, 4, 0, 0, 0, 0, 0x80}},
		{name: "two to the 32", value: 1 << 32, want: []byte{131, 110, 5, 0, 0, 0, 0, 0, 1}},
		{name: "min int32 minus one", value: math.MinInt32 - 1, want: []byte{131, 110, 4, 1, 1, 0, 0, 0x80}},
		{
			name:  "snowflake",
			value: 175928847299117063,
			want:  []byte{131, 110, 8, 0, 0x07, 0x00, 0x02, 0xc1, 0x5a, 0x06, 0x71, 0x02},
		},
		{
			name:  "max int64",
			value: math.MaxInt64,
			want:  []byte{131, 110, 8, 0, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f},
		},
		{
			name:  "min int64",
			value: math.MinInt64,
			want:  []byte{131, 110, 8, 1, 0, 0, 0, 0, 0, 0, 0, 0x80},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := Pack(Integer(tc.value))
			require.NoError(t, err)
			assert.Equal(t, tc.want, encoded)

			decoded, err := Unpack(encoded)
			require.NoError(t, err)
			assert.Equal(t, Integer(tc.value), decoded)
		})
	}
}

func TestPack_SmallIntRange(t *testing.T) {
	for v := 0; v <= 255; v++ {
		encoded, err := Pack(Integer(v))
		require.NoError(t, err)
		require.Len(t, encoded, 3, "value %d", v)
		assert.Equal(t, byte(TagSmallInt), encoded[1])
	}
}

func TestPack_Scalars(t *testing.T) {
	testCases := []struct {
		name  string
		value Term
		want  []byte
	}{
		{name: "true", value: Bool(true), want: []byte{131, 100, 0, 4, 't', 'r', 'u', 'e'}},
		{name: "false", value: Bool(false), want: []byte{131, 100, 0, 5, 'f', 'a', 'l', 's', 'e'}},
		{name: "null", value: Null{}, want: []byte{131, 100, 0, 3, 'n', 'i', 'l'}},
		{name: "nil interface", value: nil, want: []byte{131, 100, 0, 3, 'n', 'i', 'l'}},
		{name: "string", value: String("hi"), want: []byte{131, 109, 0, 0, 0, 2, 'h', 'i'}},
		{name: "empty string", value: String(""), want: []byte{131, 109, 0, 0, 0, 0}},
		{name: "float", value: Float(1.5), want: []byte{131, 70, 0x3f, 0xf8, 0, 0, 0, 0, 0, 0}},
		{name: "bytes", value: Bytes{1, 2, 3}, want: []byte{131, 107, 0, 3, 1, 2, 3}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := Pack(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, encoded)
		})
	}
}

func TestPack_List(t *testing.T) {
	encoded, err := Pack(List{Integer(1), String("a")})
	require.NoError(t, err)
	assert.Equal(t, []byte{
		131,
		108, 0, 0, 0, 2,
		97, 1,
		109, 0, 0, 0, 1, 'a',
		106,
	}, encoded)
}

func TestPack_Map(t *testing.T) {
	encoded, err := Pack(MapOf("a", Integer(1), "b", Null{}))
	require.NoError(t, err)
	assert.Equal(t, []byte{
		131,
		116, 0, 0, 0, 2,
		109, 0, 0, 0, 1, 'a', 97, 1,
		109, 0, 0, 0, 1, 'b', 100, 0, 3, 'n', 'i', 'l',
	}, encoded)
}

func TestPack_LongBytesFallBackToList(t *testing.T) {
	long := bytes.Repeat([]byte{7}, math.MaxUint16+1)
	encoded, err := Pack(Bytes(long))
	require.NoError(t, err)

	assert.Equal(t, byte(TagList), encoded[1])
	assert.Equal(t, byte(TagNil), encoded[len(encoded)-1])
	assert.Len(t, encoded, 1+5+2*len(long)+1)

	decoded, err := Unpack(encoded)
	require.NoError(t, err)
	list, ok := decoded.(List)
	require.True(t, ok)
	assert.Len(t, list, len(long))
	assert.Equal(t, Integer(7), list[0])
}

func TestPack_SelfReferenceFails(t *testing.T) {
	m := NewMap(1)
	m.Set("self", m)

	_, err := Pack(m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedType))
}

func TestEncoder_CompressThreshold(t *testing.T) {
	enc := &Encoder{CompressThreshold: 64}

	small, err := enc.Pack(String("tiny"))
	require.NoError(t, err)
	assert.Equal(t, byte(TagBinary), small[1])

	payload := MapOf("content", String(string(bytes.Repeat([]byte("hello "), 100))))
	large, err := enc.Pack(payload)
	require.NoError(t, err)
	assert.Equal(t, byte(Version), large[0])
	assert.Equal(t, byte(TagCompressed), large[1])

	plain, err := Pack(payload)
	require.NoError(t, err)
	assert.Less(t, len(large), len(plain))

	decoded, err := Unpack(large)
	require.NoError(t, err)
	assert.True(t, Equal(payload, decoded))
}

func TestWriter_Growth(t *testing.T) {
	w := newWriter(0)
	assert.Len(t, w.buf, initialWriterSize)

	w.write(make([]byte, initialWriterSize))
	assert.Equal(t, initialWriterSize, w.pos)

	w.writeUint32(1)
	assert.Len(t, w.buf, (initialWriterSize+4)*2)

	out := w.bytes()
	assert.Len(t, out, initialWriterSize+4)
	assert.Equal(t, len(out), cap(out))
	assert.Equal(t, []byte{0, 0, 0, 1}, out[initialWriterSize:])
}

func TestCountBytes(t *testing.T) {
	assert.Equal(t, 0, countBytes(0))
	assert.Equal(t, 1, countBytes(0xff))
	assert.Equal(t, 2, countBytes(0x100))
	assert.Equal(t, 4, countBytes(math.MaxUint32))
	assert.Equal(t, 8, countBytes(math.MaxUint64))
}
