// Package api provides factory implementations for dependency injection
package api

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/ssargent/gatewire/pkg/capture"
)

// DefaultStoreOpener opens a pebble-backed capture store on disk.
type DefaultStoreOpener struct{}

// NewStoreOpener creates a new store opener
func NewStoreOpener() StoreOpener {
	return &DefaultStoreOpener{}
}

// OpenStore opens the capture store in dataDir
func (o *DefaultStoreOpener) OpenStore(dataDir string, opts capture.Options) (*capture.Store, error) {
	return capture.OpenWithOptions(dataDir, opts)
}

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct{}

// NewServerFactory creates a new server factory
func NewServerFactory() ServerFactory {
	return &DefaultServerFactory{}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter() ServerStarter {
	return &DefaultServerStarter{}
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct{}

// StartServer starts the API server with the process-wide metrics registry
func (s *DefaultServerStarter) StartServer(ctx context.Context, store CaptureStore, config ServerConfig, logger zerolog.Logger) error {
	return StartServer(ctx, store, config, NewMetrics(nil), logger)
}
