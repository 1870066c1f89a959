//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
)

var CoreInfraSet = wire.NewSet(
	NewLogger,
	NewMetricsRegistry,
	NewMetrics,
	NewHealthTracker,
	NewCatalogLoader,
	NewConfigHolder,
)

var ConnectionSet = wire.NewSet(
	NewTokenStore,
	NewCredentialResolver,
	NewMCPOpener,
	NewConnectionCache,
	NewConnector,
	NewHealthChecker,
	NewConnectionPool,
	NewOrchestrator,
)

var ChatSet = wire.NewSet(
	NewModelFactory,
	NewGenerator,
	NewMultiplexer,
	NewChatHandler,
)

var AppSet = wire.NewSet(
	CoreInfraSet,
	ConnectionSet,
	ChatSet,
	wire.Struct(new(ApplicationOptions), "*"),
	NewApplication,
)
