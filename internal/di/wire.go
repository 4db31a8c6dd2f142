//go:build wireinject
// +build wireinject

package di

import (
	"BarTrader/pkg/config"
	"BarTrader/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Stores
		ProvideTickStore,
		ProvideCandleStore,
		ProvidePositionStore,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,

		// Exchange adapters
		ProvideMarketStream,
		ProvideOrderExecutor,

		// Use cases
		ProvideStrategyManager,
		ProvidePositionManager,
		ProvideHub,
		ProvideOrchestrator,
		ProvideTickPipeline,
		ProvideTickCollector,
		ProvideKafkaTicksHandler,

		// HTTP
		ProvideTradingHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
