//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"recruiter-backend/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet combines every provider in the application
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideEntityStore,
	ProvideSlotStore,
	ProvideEventStore,
	ProvideEventPublisher,
	ProvideDistributedLock,
	ProvideOutboxProcessor,
	ProvideRetryCoordinator,
	ProvideEngine,
	ProvideResolver,
	ProvideMetrics,
	ProvideTracer,
	ProvideJWTValidator,
	ProvideRateLimiters,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideCache,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer builds the complete dependency graph
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil
}
