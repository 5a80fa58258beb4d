//go:build wireinject
// +build wireinject

//go:generate wire

// Package wire provides dependency injection using Google Wire
package wire

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/config"
)

// CoreSet contains the fix pipeline providers
var CoreSet = wire.NewSet(
	provideFileAccessor,
	provideCompletionClient,
	provideFixer,
)

// ObservabilitySet contains metrics providers
var ObservabilitySet = wire.NewSet(
	provideRegistry,
	provideMetrics,
)

// SurfaceSet contains the HTTP and MCP surfaces
var SurfaceSet = wire.NewSet(
	provideHTTPServer,
	provideToolRegistrar,
)

// InitializeApp wires the application. The returned cleanup closes the
// completion client and must run exactly once on shutdown.
func InitializeApp(cfg *config.Config, logger zerolog.Logger) (*App, func(), error) {
	wire.Build(
		CoreSet,
		ObservabilitySet,
		SurfaceSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
