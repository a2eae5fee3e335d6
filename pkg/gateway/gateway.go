// Package gateway provides the public API for embedding the routing
// gateway. This is the stable API for external consumers.
package gateway

import (
	"github.com/pillarhq/routegate/internal/runtime"
)

// Gateway is the main entry point for running the routing gateway.
// See internal/runtime.Gateway for full documentation.
type Gateway = runtime.Gateway

// Option is a functional option for configuring a Gateway.
type Option = runtime.Option

// New creates a new Gateway with the given options.
// Example:
//
//	gw, err := gateway.New(
//	    gateway.WithConfigFile("config.yaml"),
//	    gateway.WithSQLiteRegistry("./data/routes.db"),
//	    gateway.WithHandler("get_widget", getWidget),
//	)
var New = runtime.New

// Configuration options
var (
	// Config sources
	WithConfig     = runtime.WithConfig
	WithConfigFile = runtime.WithConfigFile

	// Route registry
	WithRegistry       = runtime.WithRegistry
	WithMemoryRegistry = runtime.WithMemoryRegistry
	WithSQLiteRegistry = runtime.WithSQLiteRegistry

	// Dispatch
	WithHandler     = runtime.WithHandler
	WithLegacyRoute = runtime.WithLegacyRoute

	// Middleware
	WithTenantExtractor = runtime.WithTenantExtractor
	WithTagMiddleware   = runtime.WithTagMiddleware

	// Advanced options
	WithLogger = runtime.WithLogger
)
