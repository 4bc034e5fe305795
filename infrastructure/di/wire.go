//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/engmung/portfolio-Nat/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvidePaletteWatcher,
	ProvideDomainConfig,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideCollector,
	ProvideCloudWatchMetrics,
	ProvideMetrics,
	ProvideTracer,
	ProvideKnowledgeClient,
	ProvideEventPublisher,
	ProvideChangeBus,
	ProvideLocker,
	ProvideConnectionRepository,
	ProvideAIRateLimiter,
	ProvideJWTValidator,
	ProvideInMemoryCache,
	ProvideHookManager,
	ProvideClassifier,
	ProvideGraphRefresher,
	ProvideFileValidator,
	ProvideCommandBus,
	ProvideQueryBus,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
