package capture

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
	"strings"
	"time"
)

// Direction tells which way a captured frame travelled.
type Direction byte

const (
	// DirectionAny is only meaningful as a List filter.
	DirectionAny      Direction = 0
	DirectionInbound  Direction = 1
	DirectionOutbound Direction = 2
)

func (d Direction) String() string {
	switch d {
	case DirectionAny:
		return "any"
	case DirectionInbound:
		return "inbound"
	case DirectionOutbound:
		return "outbound"
	default:
		return fmt.Sprintf("direction(%d)", byte(d))
	}
}

// ParseDirection accepts "inbound"/"in", "outbound"/"out" and, for filters,
// "" or "any".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return DirectionAny, nil
	case "inbound", "in":
		return DirectionInbound, nil
	case "outbound", "out":
		return DirectionOutbound, nil
	}
	return DirectionAny, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) valid() bool {
	return d == DirectionInbound || d == DirectionOutbound
}

// headerSize is CRC32(4) + Direction(1) + Timestamp(8) + Size(4).
const headerSize = 17

// Record is one stored frame as it sits in the database.
type Record struct {
	CRC32     uint32
	Direction Direction
	Timestamp uint64 // Unix nanoseconds
	Size      uint32
	Payload   []byte
}

// NewRecord creates a record stamped with the current time.
func NewRecord(direction Direction, payload []byte) (*Record, error) {
	if uint64(len(payload)) > math.MaxUint32 {
		return nil, fmt.Errorf("payload too large: %d bytes", len(payload))
	}
	return &Record{
		Direction: direction,
		Timestamp: uint64(time.Now().UnixNano()),
		Size:      uint32(len(payload)),
		Payload:   payload,
	}, nil
}

// Time returns the capture time.
func (r *Record) Time() time.Time {
	return time.Unix(0, int64(r.Timestamp))
}

// EncodedSize returns the number of bytes Encode produces for r.
func (r *Record) EncodedSize() int {
	return headerSize + len(r.Payload)
}

// Validate checks the stored checksum against the record contents.
func (r *Record) Validate() error {
	if sum := r.checksum(); r.CRC32 != sum {
		return fmt.Errorf("%w: CRC32 mismatch: %d != %d", ErrCorruption, r.CRC32, sum)
	}
	return nil
}

// checksum covers every field after the CRC itself.
func (r *Record) checksum() uint32 {
	var hdr [headerSize - 4]byte
	hdr[0] = byte(r.Direction)
	binary.LittleEndian.PutUint64(hdr[1:9], r.Timestamp)
	binary.LittleEndian.PutUint32(hdr[9:13], r.Size)

	crc := crc32.NewIEEE()
	_, _ = crc.Write(hdr[:])
	_, _ = crc.Write(r.Payload)
	return crc.Sum32()
}

// RecordCodec serializes capture records.
//
// Format: [CRC32(4)][Direction(1)][Timestamp(8)][Size(4)][Payload], header
// fields little-endian.
type RecordCodec struct{}

// NewRecordCodec creates a new record codec instance
func NewRecordCodec() *RecordCodec {
	return &RecordCodec{}
}

// Encode fills in the checksum of r and serializes it.
func (c *RecordCodec) Encode(r *Record) ([]byte, error) {
	if int(r.Size) != len(r.Payload) {
		return nil, fmt.Errorf("record size %d does not match payload length %d", r.Size, len(r.Payload))
	}
	r.CRC32 = r.checksum()

	buf := make([]byte, r.EncodedSize())
	binary.LittleEndian.PutUint32(buf[0:4], r.CRC32)
	buf[4] = byte(r.Direction)
	binary.LittleEndian.PutUint64(buf[5:13], r.Timestamp)
	binary.LittleEndian.PutUint32(buf[13:17], r.Size)
	copy(buf[headerSize:], r.Payload)
	return buf, nil
}

// Decode parses a serialized record. The payload aliases data. Decode does
// not check the CRC; call Validate for that.
func (c *RecordCodec) Decode(data []byte) (*Record, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: data too short for record header: %d bytes", ErrCorruption, len(data))
	}

	r := &Record{
		CRC32:     binary.LittleEndian.Uint32(data[0:4]),
		Direction: Direction(data[4]),
		Timestamp: binary.LittleEndian.Uint64(data[5:13]),
		Size:      binary.LittleEndian.Uint32(data[13:17]),
	}
	if uint64(len(data)-headerSize) != uint64(r.Size) {
		return nil, fmt.Errorf("%w: payload length %d does not match size %d", ErrCorruption, len(data)-headerSize, r.Size)
	}
	r.Payload = data[headerSize:]
	return r, nil
}
