package capture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
	"github.com/ssargent/gatewire/pkg/etf"
)

var (
	// ErrNotFound is returned when no frame has the requested ID.
	ErrNotFound = errors.New("capture: frame not found")
	// ErrCorruption is returned when a stored record fails its checks.
	ErrCorruption = errors.New("capture: corrupt record")
)

// Frame is a captured gateway payload.
type Frame struct {
	ID        ksuid.KSUID
	Direction Direction
	Timestamp time.Time
	Payload   []byte
}

// ListOptions filters and pages List.
type ListOptions struct {
	// Limit caps the number of frames returned. Zero means no limit.
	Limit int
	// Direction keeps only frames that travelled this way. DirectionAny keeps all.
	Direction Direction
	// After starts the listing after this ID. ksuid.Nil starts at the oldest frame.
	After ksuid.KSUID
}

// Stats summarizes the store contents.
type Stats struct {
	Frames       int       `json:"frames"`
	Inbound      int       `json:"inbound"`
	Outbound     int       `json:"outbound"`
	PayloadBytes int64     `json:"payload_bytes"`
	DiskBytes    uint64    `json:"disk_bytes"`
	Oldest       time.Time `json:"oldest"`
	Newest       time.Time `json:"newest"`
}

// Options configures Open.
type Options struct {
	// Decoder validates payloads on Append. Nil uses the default limits.
	Decoder *etf.Decoder
	Logger  zerolog.Logger
	// Sync forces every write to the WAL before returning.
	Sync bool
}

// Store keeps captured frames in a pebble database keyed by KSUID, so key
// order is capture order.
type Store struct {
	db      *pebble.DB
	codec   *RecordCodec
	decoder *etf.Decoder
	logger  zerolog.Logger
	writeOp *pebble.WriteOptions

	mu     sync.Mutex
	lastID ksuid.KSUID

	// deleteMu makes the existence check and the delete one step.
	deleteMu sync.Mutex
}

// Open opens or creates a capture store in dir with default options.
func Open(dir string) (*Store, error) {
	return OpenWithOptions(dir, Options{Logger: zerolog.Nop()})
}

// OpenWithOptions opens or creates a capture store in dir.
func OpenWithOptions(dir string, opts Options) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open capture store: %w", err)
	}

	s := &Store{
		db:      db,
		codec:   NewRecordCodec(),
		decoder: opts.Decoder,
		logger:  opts.Logger.With().Str("component", "capture").Logger(),
		writeOp: pebble.NoSync,
	}
	if s.decoder == nil {
		s.decoder = etf.NewDecoder(etf.DefaultLimits())
	}
	if opts.Sync {
		s.writeOp = pebble.Sync
	}

	if err := s.loadLastID(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) loadLastID() error {
	iter, err := s.db.NewIter(nil)
	if err != nil {
		return fmt.Errorf("failed to open iterator: %w", err)
	}
	defer iter.Close()

	if iter.Last() {
		id, err := ksuid.FromBytes(iter.Key())
		if err != nil {
			return fmt.Errorf("%w: bad key %x", ErrCorruption, iter.Key())
		}
		s.lastID = id
	}
	return iter.Error()
}

// nextID returns a KSUID strictly greater than every ID handed out before.
// Plain ksuid.New only orders by second.
func (s *Store) nextID() ksuid.KSUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ksuid.New()
	if ksuid.Compare(id, s.lastID) <= 0 {
		id = s.lastID.Next()
	}
	s.lastID = id
	return id
}

// Append stores payload as a new frame. The payload must be a complete ETF
// buffer; decode errors are returned unchanged in the chain so callers can
// match etf.ErrFormat or etf.ErrResource.
func (s *Store) Append(direction Direction, payload []byte) (Frame, error) {
	if !direction.valid() {
		return Frame{}, fmt.Errorf("invalid direction %s", direction)
	}
	if _, err := s.decoder.Unpack(payload); err != nil {
		return Frame{}, fmt.Errorf("payload is not a valid ETF term: %w", err)
	}

	record, err := NewRecord(direction, payload)
	if err != nil {
		return Frame{}, err
	}
	data, err := s.codec.Encode(record)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to encode record: %w", err)
	}

	id := s.nextID()
	if err := s.db.Set(id.Bytes(), data, s.writeOp); err != nil {
		return Frame{}, fmt.Errorf("failed to write frame: %w", err)
	}

	s.logger.Debug().
		Str("id", id.String()).
		Str("direction", direction.String()).
		Int("bytes", len(payload)).
		Msg("frame captured")

	return Frame{
		ID:        id,
		Direction: direction,
		Timestamp: record.Time(),
		Payload:   payload,
	}, nil
}

// Get returns the frame stored under id.
func (s *Store) Get(id ksuid.KSUID) (Frame, error) {
	data, closer, err := s.db.Get(id.Bytes())
	if errors.Is(err, pebble.ErrNotFound) {
		return Frame{}, ErrNotFound
	}
	if err != nil {
		return Frame{}, fmt.Errorf("failed to read frame: %w", err)
	}
	defer closer.Close()

	return s.frameFromValue(id, data)
}

// frameFromValue decodes and validates a stored value. The returned payload
// is a copy, so it stays valid after the pebble buffer is released.
func (s *Store) frameFromValue(id ksuid.KSUID, data []byte) (Frame, error) {
	record, err := s.codec.Decode(data)
	if err != nil {
		return Frame{}, fmt.Errorf("frame %s: %w", id, err)
	}
	if err := record.Validate(); err != nil {
		return Frame{}, fmt.Errorf("frame %s: %w", id, err)
	}

	payload := make([]byte, len(record.Payload))
	copy(payload, record.Payload)
	return Frame{
		ID:        id,
		Direction: record.Direction,
		Timestamp: record.Time(),
		Payload:   payload,
	}, nil
}

// Delete removes the frame stored under id. Of several concurrent deletes of
// the same frame, exactly one succeeds and the rest return ErrNotFound.
func (s *Store) Delete(id ksuid.KSUID) error {
	s.deleteMu.Lock()
	defer s.deleteMu.Unlock()

	_, closer, err := s.db.Get(id.Bytes())
	if errors.Is(err, pebble.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read frame: %w", err)
	}
	_ = closer.Close()

	if err := s.db.Delete(id.Bytes(), s.writeOp); err != nil {
		return fmt.Errorf("failed to delete frame: %w", err)
	}
	return nil
}

// List returns frames in capture order.
func (s *Store) List(opts ListOptions) ([]Frame, error) {
	iterOpts := &pebble.IterOptions{}
	if !opts.After.IsNil() {
		iterOpts.LowerBound = opts.After.Next().Bytes()
	}

	iter, err := s.db.NewIter(iterOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open iterator: %w", err)
	}
	defer iter.Close()

	var frames []Frame
	for iter.First(); iter.Valid(); iter.Next() {
		id, err := ksuid.FromBytes(iter.Key())
		if err != nil {
			return nil, fmt.Errorf("%w: bad key %x", ErrCorruption, iter.Key())
		}
		frame, err := s.frameFromValue(id, iter.Value())
		if err != nil {
			return nil, err
		}
		if opts.Direction != DirectionAny && frame.Direction != opts.Direction {
			continue
		}
		frames = append(frames, frame)
		if opts.Limit > 0 && len(frames) >= opts.Limit {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to iterate frames: %w", err)
	}
	return frames, nil
}

// Stats scans the store and summarizes it. Every record is checked the way
// Get checks it, so a corrupt frame fails Stats with ErrCorruption.
func (s *Store) Stats() (Stats, error) {
	iter, err := s.db.NewIter(nil)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to open iterator: %w", err)
	}
	defer iter.Close()

	var stats Stats
	for iter.First(); iter.Valid(); iter.Next() {
		record, err := s.codec.Decode(iter.Value())
		if err != nil {
			return Stats{}, fmt.Errorf("frame %x: %w", iter.Key(), err)
		}
		if err := record.Validate(); err != nil {
			return Stats{}, fmt.Errorf("frame %x: %w", iter.Key(), err)
		}
		stats.Frames++
		stats.PayloadBytes += int64(record.Size)
		switch record.Direction {
		case DirectionInbound:
			stats.Inbound++
		case DirectionOutbound:
			stats.Outbound++
		}
		ts := record.Time()
		if stats.Oldest.IsZero() || ts.Before(stats.Oldest) {
			stats.Oldest = ts
		}
		if ts.After(stats.Newest) {
			stats.Newest = ts
		}
	}
	if err := iter.Error(); err != nil {
		return Stats{}, fmt.Errorf("failed to iterate frames: %w", err)
	}

	stats.DiskBytes = s.db.Metrics().DiskSpaceUsage()
	return stats, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
