package api

import (
	"encoding/json"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/ssargent/gatewire/pkg/capture"
	"github.com/ssargent/gatewire/pkg/etf"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port   int
	Bind   string
	APIKey string
	// Limits bounds every decode the server performs.
	Limits etf.Limits
	// Encoder is used by /encode. Nil means etf defaults.
	Encoder *etf.Encoder
	// MaxBodyBytes caps request bodies. Zero uses defaultMaxBodyBytes.
	MaxBodyBytes int64
}

// FrameResponse describes a captured frame. Term is the decoded payload
// rendered as JSON; DecodeError is set instead when the payload no longer
// decodes under the server's limits.
type FrameResponse struct {
	ID          string          `json:"id"`
	Direction   string          `json:"direction"`
	Timestamp   time.Time       `json:"timestamp"`
	Size        int             `json:"size"`
	Term        json.RawMessage `json:"term,omitempty"`
	DecodeError string          `json:"decode_error,omitempty"`
}

// ListFramesResponse is one page of captured frames.
type ListFramesResponse struct {
	Frames []FrameResponse `json:"frames"`
	// Next is the cursor for the following page, empty on the last page.
	Next string `json:"next,omitempty"`
}

// StatsResponse combines capture store statistics with the codec limits in force.
type StatsResponse struct {
	Capture capture.Stats `json:"capture"`
	Limits  etf.Limits    `json:"limits"`
}

// CaptureStore is the subset of *capture.Store the API needs.
type CaptureStore interface {
	Append(direction capture.Direction, payload []byte) (capture.Frame, error)
	Get(id ksuid.KSUID) (capture.Frame, error)
	Delete(id ksuid.KSUID) error
	List(opts capture.ListOptions) ([]capture.Frame, error)
	Stats() (capture.Stats, error)
}
