//go:build wireinject
// +build wireinject

package di

import (
	"MineWatch/pkg/config"
	"MineWatch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideRecorder,
		ProvideMetrics,
		ProvideLimiter,
		ProvideCacheService,
		ProvideClickHouseClient,

		// Sources
		ProvideMineRegistry,
		ProvideQuandlClient,
		ProvidePriceSource,
		ProvidePriceWriter,
		ProvideVegetationSource,

		// Repositories
		ProvideMineStore,
		ProvideReportStore,
		ProvideReportReader,
		ProvideResultStore,
		ProvidePublisher,

		// Use cases
		ProvideSweep,
		ProvideMines,
		ProvideAnalysis,
		ProvideReportQuery,
		ProvidePriceSync,

		// Transport
		ProvideResultsHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
