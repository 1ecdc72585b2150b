package etf

import (
	"encoding/binary"
	"math"
)

// reader is a cursor over a fixed buffer. Every read is bounds-checked and
// reports a *FormatError instead of panicking when the buffer runs short.
type reader struct {
	buf []byte
	pos int
	// inflateBudget is shared by every reader of one decode call, including
	// the readers over inflated COMPRESSED bodies.
	inflateBudget *int64
}

func newReader(buf []byte) *reader {
	return &reader{buf: buf}
}

func (r *reader) remaining() int {
	return len(r.buf) - r.pos
}

// errorAt builds a FormatError at the given offset.
func (r *reader) errorAt(offset int, reason string) error {
	return &FormatError{Offset: offset, Reason: reason}
}

func (r *reader) truncated() error {
	return r.errorAt(r.pos, "unexpected end of input")
}

func (r *reader) readByte() (byte, error) {
	if r.remaining() < 1 {
		return 0, r.truncated()
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) readUint16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, r.truncated()
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) readUint32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, r.truncated()
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) readFloat64() (float64, error) {
	if r.remaining() < 8 {
		return 0, r.truncated()
	}
	v := math.Float64frombits(binary.BigEndian.Uint64(r.buf[r.pos:]))
	r.pos += 8
	return v, nil
}

// readN returns the next n bytes without copying them.
func (r *reader) readN(n uint32) ([]byte, error) {
	if uint64(n) > uint64(r.remaining()) {
		return nil, r.truncated()
	}
	start := r.pos
	r.pos += int(n)
	return r.buf[start:r.pos], nil
}

// rest consumes and returns everything left in the buffer.
func (r *reader) rest() []byte {
	b := r.buf[r.pos:]
	r.pos = len(r.buf)
	return b
}
