// Package di provides dependency injection container
package di

import (
	"github.com/ssargent/gatewire/pkg/api" //nolint:depguard
)

// Container holds all the dependencies for the application
type Container struct {
	storeOpener   api.StoreOpener
	serverFactory api.ServerFactory
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		storeOpener:   api.NewStoreOpener(),
		serverFactory: api.NewServerFactory(),
	}
}

// GetStoreOpener returns the capture store opener
func (c *Container) GetStoreOpener() api.StoreOpener {
	return c.storeOpener
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetStoreOpener allows overriding the store opener (for testing)
func (c *Container) SetStoreOpener(opener api.StoreOpener) {
	c.storeOpener = opener
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}
