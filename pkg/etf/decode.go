package etf

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Limits bounds the resources a single decode call may use.
type Limits struct {
	// MaxInflateBytes caps the decompressed bytes of one decode call, summed
	// over every COMPRESSED term it meets.
	MaxInflateBytes int64 `json:"max_inflate_bytes"`
	// MaxDepth caps how deeply lists, maps and compressed terms may nest.
	MaxDepth int `json:"max_depth"`
}

// DefaultLimits returns the limits used by Unpack.
func DefaultLimits() Limits {
	return Limits{
		MaxInflateBytes: DefaultMaxInflateBytes,
		MaxDepth:        DefaultMaxDepth,
	}
}

// Decoder turns bytes into terms. It holds only its limits, so one Decoder
// may be shared between goroutines as long as each call gets its own buffer.
type Decoder struct {
	limits Limits
}

// NewDecoder returns a decoder with the given limits. Zero fields fall back
// to the defaults.
func NewDecoder(limits Limits) *Decoder {
	if limits.MaxInflateBytes <= 0 {
		limits.MaxInflateBytes = DefaultMaxInflateBytes
	}
	if limits.MaxDepth <= 0 {
		limits.MaxDepth = DefaultMaxDepth
	}
	return &Decoder{limits: limits}
}

// Limits returns the decoder's effective limits.
func (d *Decoder) Limits() Limits {
	return d.limits
}

var defaultDecoder = NewDecoder(DefaultLimits())

// Unpack decodes data with the default limits.
func Unpack(data []byte) (Term, error) {
	return defaultDecoder.Unpack(data)
}

// UnpackMap decodes data and requires the outer term to be a map.
func UnpackMap(data []byte) (*Map, error) {
	return defaultDecoder.UnpackMap(data)
}

// UnpackList decodes data and requires the outer term to be a list.
func UnpackList(data []byte) (List, error) {
	return defaultDecoder.UnpackList(data)
}

// Unpack decodes exactly one term from data. The buffer must start with
// Version and must not carry bytes after the term.
func (d *Decoder) Unpack(data []byte) (Term, error) {
	r, err := d.open(data)
	if err != nil {
		return nil, err
	}
	return d.decodeAll(r)
}

// UnpackMap is Unpack for buffers whose outer term must be a MAP. A
// COMPRESSED wrapper is allowed as long as it holds a map.
func (d *Decoder) UnpackMap(data []byte) (*Map, error) {
	r, err := d.open(data)
	if err != nil {
		return nil, err
	}
	tag, err := d.peekTag(r)
	if err != nil {
		return nil, err
	}
	if tag != TagMap && tag != TagCompressed {
		return nil, r.errorAt(r.pos, "expected MAP, found "+tag.String())
	}
	t, err := d.decodeAll(r)
	if err != nil {
		return nil, err
	}
	m, ok := t.(*Map)
	if !ok {
		return nil, r.errorAt(1, fmt.Sprintf("expected MAP, found %T", t))
	}
	return m, nil
}

// UnpackList is Unpack for buffers whose outer term must be a LIST. NIL is
// accepted as the empty list, and a COMPRESSED wrapper is allowed as long as
// it holds a list.
func (d *Decoder) UnpackList(data []byte) (List, error) {
	r, err := d.open(data)
	if err != nil {
		return nil, err
	}
	tag, err := d.peekTag(r)
	if err != nil {
		return nil, err
	}
	if tag != TagList && tag != TagNil && tag != TagCompressed {
		return nil, r.errorAt(r.pos, "expected LIST, found "+tag.String())
	}
	t, err := d.decodeAll(r)
	if err != nil {
		return nil, err
	}
	l, ok := t.(List)
	if !ok {
		return nil, r.errorAt(1, fmt.Sprintf("expected LIST, found %T", t))
	}
	return l, nil
}

func (d *Decoder) open(data []byte) (*reader, error) {
	r := newReader(data)
	budget := d.limits.MaxInflateBytes
	r.inflateBudget = &budget
	v, err := r.readByte()
	if err != nil {
		return nil, r.errorAt(0, "empty input")
	}
	if v != Version {
		return nil, r.errorAt(0, fmt.Sprintf("bad version byte %d", v))
	}
	return r, nil
}

func (d *Decoder) peekTag(r *reader) (Tag, error) {
	if r.remaining() < 1 {
		return 0, r.truncated()
	}
	return Tag(r.buf[r.pos]), nil
}

func (d *Decoder) decodeAll(r *reader) (Term, error) {
	t, err := d.decodeTerm(r, 0)
	if err != nil {
		return nil, err
	}
	if r.remaining() != 0 {
		return nil, r.errorAt(r.pos, "trailing bytes after term")
	}
	return t, nil
}

func (d *Decoder) decodeTerm(r *reader, depth int) (Term, error) {
	start := r.pos
	b, err := r.readByte()
	if err != nil {
		return nil, err
	}

	switch tag := Tag(b); tag {
	case TagCompressed:
		return d.decodeCompressed(r, depth)
	case TagSmallInt:
		v, err := r.readByte()
		if err != nil {
			return nil, err
		}
		return Integer(v), nil
	case TagInt:
		v, err := r.readUint32()
		if err != nil {
			return nil, err
		}
		return Integer(int32(v)), nil
	case TagSmallBigInt:
		return d.decodeBigInt(r)
	case TagFloat:
		return d.decodeFloatText(r)
	case TagNewFloat:
		v, err := r.readFloat64()
		if err != nil {
			return nil, err
		}
		return Float(v), nil
	case TagSmallAtomUTF8, TagSmallAtom:
		n, err := r.readByte()
		if err != nil {
			return nil, err
		}
		return d.decodeAtom(r, uint32(n), tag == TagSmallAtom)
	case TagAtomUTF8, TagAtom:
		n, err := r.readUint16()
		if err != nil {
			return nil, err
		}
		return d.decodeAtom(r, uint32(n), tag == TagAtom)
	case TagMap:
		return d.decodeMap(r, depth)
	case TagList:
		return d.decodeList(r, depth)
	case TagNil:
		return List{}, nil
	case TagString:
		n, err := r.readUint16()
		if err != nil {
			return nil, err
		}
		raw, err := r.readN(uint32(n))
		if err != nil {
			return nil, err
		}
		out := make(Bytes, len(raw))
		copy(out, raw)
		return out, nil
	case TagBinary:
		n, err := r.readUint32()
		if err != nil {
			return nil, err
		}
		raw, err := r.readN(n)
		if err != nil {
			return nil, err
		}
		return String(raw), nil
	default:
		return nil, r.errorAt(start, fmt.Sprintf("unknown tag %d", b))
	}
}

// decodeCompressed inflates the rest of the buffer and decodes one term from
// it. The size field is only a hint; the call's remaining inflate budget is
// what bounds memory, so nested COMPRESSED terms share one limit.
func (d *Decoder) decodeCompressed(r *reader, depth int) (Term, error) {
	if depth >= d.limits.MaxDepth {
		return nil, r.errorAt(r.pos-1, "nesting too deep")
	}
	hint, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	remaining := *r.inflateBudget
	if remaining <= 0 {
		return nil, &ResourceError{Reason: "inflate budget exhausted"}
	}
	inflated, err := inflate(r.rest(), hint, remaining)
	if err != nil {
		return nil, err
	}
	*r.inflateBudget -= int64(len(inflated))
	inner := newReader(inflated)
	inner.inflateBudget = r.inflateBudget
	t, err := d.decodeTerm(inner, depth+1)
	if err != nil {
		return nil, err
	}
	if inner.remaining() != 0 {
		return nil, inner.errorAt(inner.pos, "trailing bytes inside compressed term")
	}
	return t, nil
}

// decodeBigInt reads arity, sign and a little-endian magnitude. Values that
// do not fit in an int64 are rejected.
func (d *Decoder) decodeBigInt(r *reader) (Term, error) {
	start := r.pos - 1
	arity, err := r.readByte()
	if err != nil {
		return nil, err
	}
	sign, err := r.readByte()
	if err != nil {
		return nil, err
	}
	digits, err := r.readN(uint32(arity))
	if err != nil {
		return nil, err
	}

	var magnitude uint64
	for i, digit := range digits {
		if digit == 0 {
			continue
		}
		if i >= 8 {
			return nil, r.errorAt(start, "integer overflows 64 bits")
		}
		magnitude |= uint64(digit) << (8 * uint(i))
	}

	if sign == 0 {
		if magnitude > math.MaxInt64 {
			return nil, r.errorAt(start, "integer overflows 64 bits")
		}
		return Integer(magnitude), nil
	}
	switch {
	case magnitude > 1<<63:
		return nil, r.errorAt(start, "integer overflows 64 bits")
	case magnitude == 1<<63:
		return Integer(math.MinInt64), nil
	default:
		return Integer(-int64(magnitude)), nil
	}
}

// decodeFloatText parses the legacy fixed-width ASCII float.
func (d *Decoder) decodeFloatText(r *reader) (Term, error) {
	start := r.pos - 1
	raw, err := r.readN(floatTextLen)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(strings.TrimRight(string(raw), "\x00"))
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, r.errorAt(start, "malformed float text")
	}
	return Float(v), nil
}

func (d *Decoder) decodeAtom(r *reader, n uint32, latin1 bool) (Term, error) {
	raw, err := r.readN(n)
	if err != nil {
		return nil, err
	}
	name, err := atomName(raw, latin1)
	if err != nil {
		return nil, r.errorAt(r.pos-len(raw), "malformed latin-1 atom")
	}
	switch name {
	case atomTrue:
		return Bool(true), nil
	case atomFalse:
		return Bool(false), nil
	case atomNil:
		return Null{}, nil
	}
	return String(name), nil
}

func atomName(raw []byte, latin1 bool) (string, error) {
	if !latin1 || isASCII(raw) {
		return string(raw), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func (d *Decoder) decodeMap(r *reader, depth int) (Term, error) {
	start := r.pos - 1
	if depth >= d.limits.MaxDepth {
		return nil, r.errorAt(start, "nesting too deep")
	}
	arity, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	// Every entry takes at least two bytes, which bounds the preallocation.
	m := NewMap(boundedCap(arity, r.remaining()/2))
	for i := uint32(0); i < arity; i++ {
		keyStart := r.pos
		k, err := d.decodeTerm(r, depth+1)
		if err != nil {
			return nil, err
		}
		key, ok := mapKey(k)
		if !ok {
			return nil, r.errorAt(keyStart, fmt.Sprintf("unsupported map key %T", k))
		}
		v, err := d.decodeTerm(r, depth+1)
		if err != nil {
			return nil, err
		}
		m.Set(key, v)
	}
	return m, nil
}

func (d *Decoder) decodeList(r *reader, depth int) (Term, error) {
	start := r.pos - 1
	if depth >= d.limits.MaxDepth {
		return nil, r.errorAt(start, "nesting too deep")
	}
	n, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	out := make(List, 0, boundedCap(n, r.remaining()))
	for i := uint32(0); i < n; i++ {
		elem, err := d.decodeTerm(r, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, elem)
	}
	tailStart := r.pos
	tail, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if Tag(tail) != TagNil {
		return nil, r.errorAt(tailStart, "unexpected tail")
	}
	return out, nil
}

func boundedCap(declared uint32, available int) int {
	if available < 0 {
		return 0
	}
	if uint64(declared) < uint64(available) {
		return int(declared)
	}
	return available
}

// mapKey renders a decoded key as the string the entity layer will see.
// Atoms and binaries with the same text produce the same key.
func mapKey(t Term) (string, bool) {
	switch v := t.(type) {
	case String:
		return string(v), true
	case Bool:
		if v {
			return atomTrue, true
		}
		return atomFalse, true
	case Null:
		return atomNil, true
	case Integer:
		return strconv.FormatInt(int64(v), 10), true
	case Float:
		return strconv.FormatFloat(float64(v), 'g', -1, 64), true
	case Bytes:
		return string(v), true
	}
	return "", false
}
