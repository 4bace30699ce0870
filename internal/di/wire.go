//go:build wireinject
// +build wireinject

package di

import (
	"CrossImpact/pkg/config"
	"CrossImpact/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Data sources and sinks
		ProvideSnapshotSource,
		ProvideResultSink,
		ProvideCacheService,

		// Use cases
		ProvidePipeline,
		ProvideReportStore,

		// HTTP
		ProvideResultsHandler,

		// Application
		ProvideApp,
	)
	return &server.App{}, nil
}
