package etf

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/klauspost/compress/zlib"
)

// DefaultMaxInflateBytes caps the output of a single COMPRESSED term.
const DefaultMaxInflateBytes int64 = 16 << 20

// maxInflatePrealloc bounds how much is allocated up front from the size hint.
const maxInflatePrealloc = 1 << 20

// compressBody wraps an encoded body (version byte included) in a COMPRESSED
// term: Version, TagCompressed, uncompressed size, zlib stream.
func compressBody(body []byte, level int) ([]byte, error) {
	payload := body[1:]
	if uint64(len(payload)) > math.MaxUint32 {
		return nil, &UnsupportedTypeError{Type: "etf.Term", Detail: "encoded body longer than 4GiB"}
	}
	if level == 0 {
		level = zlib.DefaultCompression
	}

	var out bytes.Buffer
	out.Grow(len(payload)/2 + 16)
	out.WriteByte(Version)
	out.WriteByte(byte(TagCompressed))
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(payload)))
	out.Write(size[:])

	zw, err := zlib.NewWriterLevel(&out, level)
	if err != nil {
		return nil, &UnsupportedTypeError{Type: "compression level", Detail: err.Error()}
	}
	if _, err := zw.Write(payload); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// inflate decompresses a zlib stream, refusing to produce more than limit
// bytes. A non-positive limit falls back to DefaultMaxInflateBytes.
func inflate(data []byte, sizeHint uint32, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxInflateBytes
	}
	if int64(sizeHint) > limit {
		return nil, &ResourceError{Reason: "compressed term declares more than the inflate limit"}
	}

	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ResourceError{Reason: "inflate failed", Err: err}
	}
	defer zr.Close()

	prealloc := int64(sizeHint)
	if prealloc > maxInflatePrealloc {
		prealloc = maxInflatePrealloc
	}
	buf := bytes.NewBuffer(make([]byte, 0, prealloc))
	if _, err := buf.ReadFrom(io.LimitReader(zr, limit+1)); err != nil {
		return nil, &ResourceError{Reason: "inflate failed", Err: err}
	}
	if int64(buf.Len()) > limit {
		return nil, &ResourceError{Reason: "inflated size exceeds limit"}
	}
	return buf.Bytes(), nil
}
