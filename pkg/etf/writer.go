package etf

import (
	"encoding/binary"
	"math"
)

const initialWriterSize = 64

// writer is an append-only byte buffer. When it runs out of room it grows
// to twice the size it needs, so appends are amortized O(1).
type writer struct {
	buf []byte
	pos int
}

func newWriter(sizeHint int) *writer {
	if sizeHint < initialWriterSize {
		sizeHint = initialWriterSize
	}
	return &writer{buf: make([]byte, sizeHint)}
}

// ensure makes room for n more bytes.
func (w *writer) ensure(n int) {
	if len(w.buf)-w.pos >= n {
		return
	}
	grown := make([]byte, (w.pos+n)*2)
	copy(grown, w.buf[:w.pos])
	w.buf = grown
}

func (w *writer) writeByte(b byte) {
	w.ensure(1)
	w.buf[w.pos] = b
	w.pos++
}

func (w *writer) writeTag(t Tag) {
	w.writeByte(byte(t))
}

func (w *writer) writeUint16(v uint16) {
	w.ensure(2)
	binary.BigEndian.PutUint16(w.buf[w.pos:], v)
	w.pos += 2
}

func (w *writer) writeUint32(v uint32) {
	w.ensure(4)
	binary.BigEndian.PutUint32(w.buf[w.pos:], v)
	w.pos += 4
}

func (w *writer) writeFloat64(v float64) {
	w.ensure(8)
	binary.BigEndian.PutUint64(w.buf[w.pos:], math.Float64bits(v))
	w.pos += 8
}

func (w *writer) write(p []byte) {
	w.ensure(len(p))
	w.pos += copy(w.buf[w.pos:], p)
}

func (w *writer) writeString(s string) {
	w.ensure(len(s))
	w.pos += copy(w.buf[w.pos:], s)
}

// bytes returns exactly the bytes written so far.
func (w *writer) bytes() []byte {
	return w.buf[:w.pos:w.pos]
}
