// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/ssargent/gatewire/pkg/capture"
)

// StoreOpener opens the capture store the server runs against.
type StoreOpener interface {
	OpenStore(dataDir string, opts capture.Options) (*capture.Store, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves until ctx is cancelled
	StartServer(ctx context.Context, store CaptureStore, config ServerConfig, logger zerolog.Logger) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
