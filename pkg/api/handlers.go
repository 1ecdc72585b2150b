package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
	"github.com/ssargent/gatewire/pkg/capture"
	"github.com/ssargent/gatewire/pkg/etf"
)

const (
	defaultMaxBodyBytes int64 = 8 << 20
	defaultListLimit          = 100
	maxListLimit              = 1000
)

// Server holds the API server state
type Server struct {
	store   CaptureStore
	config  ServerConfig
	metrics *Metrics
	decoder *etf.Decoder
	encoder *etf.Encoder
	logger  zerolog.Logger
}

// NewServer creates a new API server
func NewServer(store CaptureStore, config ServerConfig, metrics *Metrics, logger zerolog.Logger) *Server {
	encoder := config.Encoder
	if encoder == nil {
		encoder = &etf.Encoder{}
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Server{
		store:   store,
		config:  config,
		metrics: metrics,
		decoder: etf.NewDecoder(config.Limits),
		encoder: encoder,
		logger:  logger,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleDecode turns an ETF body into its JSON term tree. ?expect=map or
// ?expect=list requires that outer type.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	start := time.Now()
	term, err := s.unpack(body, r.URL.Query().Get("expect"))
	s.metrics.RecordCodecOperation("decode", err == nil, len(body), time.Since(start))
	if err != nil {
		s.sendCodecError(w, err)
		return
	}

	doc, err := etf.ToJSON(term)
	if err != nil {
		sendError(w, fmt.Sprintf("Term has no JSON form: %v", err), http.StatusUnprocessableEntity)
		return
	}
	sendSuccess(w, json.RawMessage(doc))
}

func (s *Server) unpack(body []byte, expect string) (etf.Term, error) {
	switch expect {
	case "":
		return s.decoder.Unpack(body)
	case "map":
		m, err := s.decoder.UnpackMap(body)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "list":
		return s.decoder.UnpackList(body)
	}
	return nil, fmt.Errorf("unknown expect value %q", expect)
}

// handleEncode turns a JSON body into ETF bytes. ?compress=true forces a
// COMPRESSED term regardless of the configured threshold.
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	term, err := etf.FromJSON(body)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	compress := false
	if v := r.URL.Query().Get("compress"); v != "" {
		compress, err = strconv.ParseBool(v)
		if err != nil {
			sendError(w, "Invalid compress parameter", http.StatusBadRequest)
			return
		}
	}

	start := time.Now()
	var encoded []byte
	if compress {
		encoded, err = etf.PackCompressed(term, s.encoder.CompressionLevel)
	} else {
		encoded, err = s.encoder.Pack(term)
	}
	s.metrics.RecordCodecOperation("encode", err == nil, len(encoded), time.Since(start))
	if err != nil {
		s.sendCodecError(w, err)
		return
	}

	sendETF(w, encoded)
}

func (s *Server) handleAppendCapture(w http.ResponseWriter, r *http.Request) {
	direction, err := capture.ParseDirection(r.URL.Query().Get("direction"))
	if err != nil || direction == capture.DirectionAny {
		sendError(w, "direction must be inbound or outbound", http.StatusBadRequest)
		return
	}

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	start := time.Now()
	frame, err := s.store.Append(direction, body)
	s.metrics.RecordCodecOperation("capture", err == nil, len(body), time.Since(start))
	if err != nil {
		s.sendCodecError(w, err)
		return
	}

	s.logger.Info().
		Str("id", frame.ID.String()).
		Str("direction", direction.String()).
		Int("bytes", len(body)).
		Msg("frame captured")
	sendSuccess(w, s.frameResponse(frame))
}

func (s *Server) handleListCaptures(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := capture.ListOptions{Limit: defaultListLimit}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			sendError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}
		opts.Limit = limit
	}

	direction, err := capture.ParseDirection(q.Get("direction"))
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	opts.Direction = direction

	if v := q.Get("after"); v != "" {
		after, err := ksuid.Parse(v)
		if err != nil {
			sendError(w, "Invalid after cursor", http.StatusBadRequest)
			return
		}
		opts.After = after
	}

	frames, err := s.store.List(opts)
	if err != nil {
		s.sendStoreError(w, err)
		return
	}

	resp := ListFramesResponse{Frames: make([]FrameResponse, 0, len(frames))}
	for _, frame := range frames {
		resp.Frames = append(resp.Frames, s.frameResponse(frame))
	}
	if len(frames) == opts.Limit {
		resp.Next = frames[len(frames)-1].ID.String()
	}
	sendSuccess(w, resp)
}

// handleGetCapture returns one frame. ?format=etf returns the raw payload.
func (s *Server) handleGetCapture(w http.ResponseWriter, r *http.Request) {
	id, ok := parseFrameID(w, r)
	if !ok {
		return
	}

	frame, err := s.store.Get(id)
	if err != nil {
		s.sendStoreError(w, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		sendSuccess(w, s.frameResponse(frame))
	case "etf":
		sendETF(w, frame.Payload)
	default:
		sendError(w, fmt.Sprintf("Unknown format %q", format), http.StatusBadRequest)
	}
}

func (s *Server) handleDeleteCapture(w http.ResponseWriter, r *http.Request) {
	id, ok := parseFrameID(w, r)
	if !ok {
		return
	}

	if err := s.store.Delete(id); err != nil {
		s.sendStoreError(w, err)
		return
	}
	sendSuccess(w, map[string]string{"status": "deleted", "id": id.String()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats()
	if err != nil {
		s.sendStoreError(w, err)
		return
	}
	s.metrics.UpdateCaptureStats(stats)
	sendSuccess(w, StatsResponse{Capture: stats, Limits: s.decoder.Limits()})
}

func (s *Server) frameResponse(frame capture.Frame) FrameResponse {
	resp := FrameResponse{
		ID:        frame.ID.String(),
		Direction: frame.Direction.String(),
		Timestamp: frame.Timestamp.UTC(),
		Size:      len(frame.Payload),
	}

	term, err := s.decoder.Unpack(frame.Payload)
	if err == nil {
		var doc []byte
		doc, err = etf.ToJSON(term)
		resp.Term = doc
	}
	if err != nil {
		resp.Term = nil
		resp.DecodeError = err.Error()
	}
	return resp
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			sendError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	if len(body) == 0 {
		sendError(w, "Request body is required", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

// sendCodecError maps codec failures onto HTTP statuses.
func (s *Server) sendCodecError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, etf.ErrResource):
		sendError(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, etf.ErrFormat), errors.Is(err, etf.ErrUnsupportedType):
		sendError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		sendError(w, err.Error(), http.StatusBadRequest)
	}
}

func (s *Server) sendStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, capture.ErrNotFound):
		sendError(w, "Frame not found", http.StatusNotFound)
	default:
		s.logger.Error().Err(err).Msg("capture store failure")
		sendError(w, fmt.Sprintf("Capture store error: %v", err), http.StatusInternalServerError)
	}
}

func parseFrameID(w http.ResponseWriter, r *http.Request) (ksuid.KSUID, bool) {
	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid frame ID", http.StatusBadRequest)
		return ksuid.Nil, false
	}
	return id, true
}
