//go:build wireinject
// +build wireinject

package di

import (
	"CourtEdge/pkg/config"
	"CourtEdge/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideClickHouseClient,
		ProvideCache,

		// Observability
		ProvideDigest,
		ProvideLogger,
		ProvideMetrics,

		// Repositories
		ProvideTeamDirectory,
		ProvideGameStore,
		ProvideArchiveQueue,
		ProvideGameLogProvider,

		// Scoring and use cases
		ProvideEngine,
		ProvideHub,
		ProvideEventPublisher,
		ProvideMatchupAnalyzer,

		// HTTP
		ProvideHandlers,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
