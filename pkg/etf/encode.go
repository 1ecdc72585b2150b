package etf

import (
	"fmt"
	"math"
)

// DefaultMaxDepth bounds how deeply lists and maps may nest, on both the
// encode and the decode path.
const DefaultMaxDepth = 512

// Encoder turns terms into bytes. The zero value never compresses; an
// Encoder holds no per-call state and may be shared between goroutines.
type Encoder struct {
	// CompressThreshold wraps any term whose encoded body is at least this
	// many bytes in a COMPRESSED term. Zero or negative disables compression.
	CompressThreshold int
	// CompressionLevel is the zlib level used for COMPRESSED terms. Zero
	// selects the library default, so zlib.NoCompression cannot be chosen.
	CompressionLevel int
}

var defaultEncoder = &Encoder{}

// Pack encodes t with the default encoder.
func Pack(t Term) ([]byte, error) {
	return defaultEncoder.Pack(t)
}

// Marshal converts v with FromValue and encodes the result.
func Marshal(v any) ([]byte, error) {
	return defaultEncoder.Marshal(v)
}

// PackCompressed encodes t and always wraps the body in a COMPRESSED term.
func PackCompressed(t Term, level int) ([]byte, error) {
	body, err := packBody(t)
	if err != nil {
		return nil, err
	}
	return compressBody(body, level)
}

// Pack encodes t. The first byte of the result is always Version.
func (e *Encoder) Pack(t Term) ([]byte, error) {
	body, err := packBody(t)
	if err != nil {
		return nil, err
	}
	if e.CompressThreshold > 0 && len(body)-1 >= e.CompressThreshold {
		return compressBody(body, e.CompressionLevel)
	}
	return body, nil
}

// Marshal converts v with FromValue and encodes the result.
func (e *Encoder) Marshal(v any) ([]byte, error) {
	t, err := FromValue(v)
	if err != nil {
		return nil, err
	}
	return e.Pack(t)
}

// packBody returns the version byte followed by the encoded term.
func packBody(t Term) ([]byte, error) {
	w := newWriter(sizeHint(t))
	w.writeByte(Version)
	if err := encodeTerm(w, t, 0); err != nil {
		return nil, err
	}
	return w.bytes(), nil
}

func sizeHint(t Term) int {
	switch v := t.(type) {
	case String:
		return len(v) + 6
	case Bytes:
		return len(v) + 4
	case List:
		return len(v)*2 + 7
	case *Map:
		return v.Len()*16 + 6
	}
	return initialWriterSize
}

func encodeTerm(w *writer, t Term, depth int) error {
	switch v := t.(type) {
	case nil:
		writeAtom(w, atomNil)
	case Null:
		writeAtom(w, atomNil)
	case Bool:
		if v {
			writeAtom(w, atomTrue)
		} else {
			writeAtom(w, atomFalse)
		}
	case Integer:
		writeInteger(w, int64(v))
	case Float:
		w.writeTag(TagNewFloat)
		w.writeFloat64(float64(v))
	case String:
		return writeBinary(w, string(v))
	case Bytes:
		writeBytes(w, v)
	case List:
		return encodeList(w, v, depth)
	case *Map:
		if v == nil {
			writeAtom(w, atomNil)
			return nil
		}
		return encodeMap(w, v, depth)
	default:
		return &UnsupportedTypeError{Type: fmt.Sprintf("%T", t)}
	}
	return nil
}

func encodeList(w *writer, l List, depth int) error {
	if len(l) == 0 {
		w.writeTag(TagNil)
		return nil
	}
	if depth >= DefaultMaxDepth {
		return &UnsupportedTypeError{Type: "etf.List", Detail: "nesting too deep"}
	}
	if uint64(len(l)) > math.MaxUint32 {
		return &UnsupportedTypeError{Type: "etf.List", Detail: "too many elements"}
	}
	w.writeTag(TagList)
	w.writeUint32(uint32(len(l)))
	for _, elem := range l {
		if err := encodeTerm(w, elem, depth+1); err != nil {
			return err
		}
	}
	w.writeTag(TagNil)
	return nil
}

func encodeMap(w *writer, m *Map, depth int) error {
	if depth >= DefaultMaxDepth {
		return &UnsupportedTypeError{Type: "*etf.Map", Detail: "nesting too deep"}
	}
	if uint64(m.Len()) > math.MaxUint32 {
		return &UnsupportedTypeError{Type: "*etf.Map", Detail: "too many entries"}
	}
	w.writeTag(TagMap)
	w.writeUint32(uint32(m.Len()))
	for _, k := range m.keys {
		if err := writeBinary(w, k); err != nil {
			return err
		}
		if err := encodeTerm(w, m.values[k], depth+1); err != nil {
			return err
		}
	}
	return nil
}

func writeAtom(w *writer, name string) {
	w.writeTag(TagAtom)
	w.writeUint16(uint16(len(name)))
	w.writeString(name)
}

func writeBinary(w *writer, s string) error {
	if uint64(len(s)) > math.MaxUint32 {
		return &UnsupportedTypeError{Type: "string", Detail: "longer than 4GiB"}
	}
	w.writeTag(TagBinary)
	w.writeUint32(uint32(len(s)))
	w.writeString(s)
	return nil
}

// writeBytes uses the short STRING form when the length fits in 16 bits and
// falls back to a list of small integers otherwise.
func writeBytes(w *writer, b Bytes) {
	switch {
	case len(b) == 0:
		w.writeTag(TagNil)
	case len(b) <= math.MaxUint16:
		w.writeTag(TagString)
		w.writeUint16(uint16(len(b)))
		w.write(b)
	default:
		w.writeTag(TagList)
		w.writeUint32(uint32(len(b)))
		for _, c := range b {
			w.writeTag(TagSmallInt)
			w.writeByte(c)
		}
		w.writeTag(TagNil)
	}
}

// writeInteger picks the narrowest of SMALL_INT, INT and SMALL_BIGINT.
// INT covers the signed int32 range only; 2^31..2^32-1 goes to SMALL_BIGINT
// because INT is read back as signed.
func writeInteger(w *writer, v int64) {
	switch {
	case v >= 0 && v <= math.MaxUint8:
		w.writeTag(TagSmallInt)
		w.writeByte(byte(v))
	case v >= math.MinInt32 && v <= math.MaxInt32:
		w.writeTag(TagInt)
		w.writeUint32(uint32(int32(v)))
	case v < 0:
		// -(v+1)+1 avoids overflowing on math.MinInt64.
		writeBigInt(w, 1, uint64(-(v+1))+1)
	default:
		writeBigInt(w, 0, uint64(v))
	}
}

// writeBigInt writes a SMALL_BIGINT with the magnitude in little-endian order.
func writeBigInt(w *writer, sign byte, magnitude uint64) {
	n := countBytes(magnitude)
	w.writeTag(TagSmallBigInt)
	w.writeByte(byte(n))
	w.writeByte(sign)
	for i := 0; i < n; i++ {
		w.writeByte(byte(magnitude))
		magnitude >>= 8
	}
}

// countBytes returns the minimal number of bytes needed to hold v.
func countBytes(v uint64) int {
	n := 0
	for v > 0 {
		n++
		v >>= 8
	}
	return n
}
