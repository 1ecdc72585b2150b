// Package capture stores raw gateway frames for later inspection.
//
// Each frame is written to a pebble database under a KSUID key, so iterating
// the keyspace yields frames in capture order. The value is a capture record:
//
//	[CRC32(4)][Direction(1)][Timestamp(8)][Size(4)][Payload]
//
// Header fields are little-endian. The CRC32 (IEEE) covers every byte after
// the CRC field. Payloads must be complete ETF buffers; Append refuses
// anything the etf decoder rejects.
//
// Reads that find a short record or a checksum mismatch return an error
// matching ErrCorruption. Missing IDs return ErrNotFound.
package capture
