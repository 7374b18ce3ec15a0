// Package di wires the application together using google/wire.
package di

import (
	"context"
	"fmt"
	"time"

	"recruiter-backend/application/commands"
	cmdbus "recruiter-backend/application/commands/bus"
	"recruiter-backend/application/ports"
	"recruiter-backend/application/queries"
	querybus "recruiter-backend/application/queries/bus"
	domainconfig "recruiter-backend/domain/config"
	"recruiter-backend/domain/versioning"
	"recruiter-backend/infrastructure/config"
	"recruiter-backend/infrastructure/messaging/eventbridge"
	dynamodbstore "recruiter-backend/infrastructure/persistence/dynamodb"
	"recruiter-backend/interfaces/http/rest"
	"recruiter-backend/pkg/auth"
	"recruiter-backend/pkg/concurrency"
	"recruiter-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

const (
	// rateLimitWindow is the refill interval for both limiter flavors
	rateLimitWindow = 1 * time.Minute

	// exactCacheTTLSeconds bounds how long a cached exact-version row is
	// kept. The rows are immutable, so the TTL only caps memory, not staleness.
	exactCacheTTLSeconds = 300
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideEntityStore creates the versioned-entity store
func ProvideEntityStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.EntityStore {
	return dynamodbstore.NewEntityStore(client, cfg.DynamoDBTable, logger)
}

// ProvideSlotStore creates the active-slot store
func ProvideSlotStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.SlotStore {
	return dynamodbstore.NewSlotStore(client, cfg.DynamoDBTable, logger)
}

// ProvideEventStore creates the outbox-backed event store
func ProvideEventStore(client *awsdynamodb.Client, cfg *config.Config) *dynamodbstore.EventStore {
	return dynamodbstore.NewEventStore(client, cfg.DynamoDBTable)
}

// ProvideEventPublisher creates the EventBridge publisher
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideDistributedLock creates the DynamoDB lock used to serialize the
// outbox relay across instances
func ProvideDistributedLock(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) *dynamodbstore.DistributedLock {
	return dynamodbstore.NewDistributedLock(client, cfg.DynamoDBTable, logger)
}

// ProvideOutboxProcessor creates the background relay that ships pending
// outbox rows to EventBridge
func ProvideOutboxProcessor(eventStore *dynamodbstore.EventStore, publisher ports.EventPublisher, lock *dynamodbstore.DistributedLock, logger *zap.Logger) *dynamodbstore.OutboxProcessor {
	return dynamodbstore.NewOutboxProcessor(eventStore, publisher, lock, logger)
}

// ProvideRetryCoordinator creates the optimistic-concurrency retry coordinator
func ProvideRetryCoordinator(cfg *config.Config, logger *zap.Logger) *concurrency.Coordinator {
	return concurrency.NewCoordinator(concurrency.RetryPolicy{
		MaxAttempts:    cfg.RetryMaxAttempts,
		InitialBackoff: cfg.RetryInitialBackoff,
		MaxBackoff:     cfg.RetryMaxBackoff,
	}, logger)
}

// ProvideEngine creates the versioning engine
func ProvideEngine(
	store ports.EntityStore,
	slots ports.SlotStore,
	eventStore *dynamodbstore.EventStore,
	retry *concurrency.Coordinator,
	cfg *config.Config,
	logger *zap.Logger,
) *versioning.Engine {
	policy := versioning.Policy{
		CascadePublishedOnly: cfg.CascadePublishedOnly,
		Limits:               domainconfig.LoadDomainConfig(cfg.Environment),
	}
	return versioning.NewEngine(store, slots, eventStore, retry, policy, logger)
}

// ProvideResolver exposes the engine's reference resolver for read paths
func ProvideResolver(engine *versioning.Engine) *versioning.Resolver {
	return engine.Resolver()
}

// ProvideMetrics creates the CloudWatch metrics publisher. With metrics
// disabled the client is left nil and publication becomes a no-op.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	namespace := fmt.Sprintf("Recruiter/%s", cfg.Environment)
	if !cfg.EnableMetrics {
		return observability.NewMetrics(namespace, nil, logger)
	}
	return observability.NewMetrics(namespace, client, logger)
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer() *observability.Tracer {
	return observability.NewTracer("recruiter-backend")
}

// ProvideJWTValidator creates the bearer-token validator
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		secret = "development-secret-change-in-production"
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
	})
}

// RateLimiters bundles the per-IP and per-user limiters the HTTP middleware
// applies in order
type RateLimiters struct {
	IP   auth.RateLimiter
	User auth.RateLimiter
}

// ProvideRateLimiters picks the limiter implementation for the runtime. In
// Lambda every invocation is a fresh process, so counters live in DynamoDB;
// on a long-lived server local token buckets are enough.
func ProvideRateLimiters(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) RateLimiters {
	if cfg.IsLambda {
		return RateLimiters{
			IP:   auth.NewDistributedRateLimiter(client, cfg.DynamoDBTable, 100, rateLimitWindow, logger),
			User: auth.NewDistributedRateLimiter(client, cfg.DynamoDBTable, 200, rateLimitWindow, logger),
		}
	}
	return RateLimiters{
		IP:   auth.NewSlidingWindowLimiter(100, rateLimitWindow),
		User: auth.NewTokenBucketLimiter(200, rateLimitWindow/200),
	}
}

// ProvideCommandBus creates the command bus with every write operation
// registered behind the logging, metrics, and tracing pipeline
func ProvideCommandBus(
	engine *versioning.Engine,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
	logger *zap.Logger,
) (*cmdbus.CommandBus, error) {
	commandBus := cmdbus.NewCommandBus()

	pipeline := cmdbus.NewPipeline(
		cmdbus.LoggingMiddleware(&zapBusLogger{logger: logger.Sugar()}),
		commandMetricsMiddleware(metrics),
		commandTracingMiddleware(tracer),
	)

	registrations := []struct {
		cmd     cmdbus.Command
		handler cmdbus.CommandHandler
	}{
		{commands.CreateVersionCommand{}, commands.NewCreateVersionHandler(engine, logger)},
		{commands.EditWithCascadeCommand{}, commands.NewEditWithCascadeHandler(engine, logger)},
		{commands.SetActiveVersionCommand{}, commands.NewSetActiveVersionHandler(engine, logger)},
		{commands.SoftDeleteCommand{}, commands.NewSoftDeleteHandler(engine, logger)},
		{commands.PurgeOrphanCommand{}, commands.NewPurgeOrphanHandler(engine, logger)},
	}
	for _, reg := range registrations {
		if err := commandBus.Register(reg.cmd, pipeline.Execute(reg.handler)); err != nil {
			return nil, err
		}
	}

	return commandBus, nil
}

// ProvideQueryBus creates the query bus. Only exact-version lookups sit
// behind the cache: those rows are immutable. Resolution and latest-version
// reads go to the store every time, so a dynamic reference always reflects
// the newest content at the moment it is read.
func ProvideQueryBus(
	store ports.EntityStore,
	slots ports.SlotStore,
	resolver *versioning.Resolver,
	cache *InMemoryCache,
	metrics *observability.Metrics,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()

	metricsMW := querybus.NewMetricsMiddleware(&queryMetricsAdapter{metrics: metrics})
	cachingMW := querybus.NewCachingMiddleware(cache, exactCacheTTLSeconds)

	entityHandler := queries.NewGetEntityHandler(store)

	registrations := []struct {
		query   querybus.Query
		handler querybus.QueryHandler
	}{
		{queries.ResolveReferenceQuery{}, queries.NewResolveReferenceHandler(resolver)},
		{queries.GetLatestQuery{}, entityHandler},
		{queries.GetExactQuery{}, cachingMW.Wrap(entityHandler)},
		{queries.GetHistoryQuery{}, queries.NewGetHistoryHandler(store)},
		{queries.CurrentActiveQuery{}, queries.NewCurrentActiveHandler(slots)},
	}
	for _, reg := range registrations {
		if err := queryBus.Register(reg.query, metricsMW.Wrap(reg.handler)); err != nil {
			return nil, err
		}
	}

	return queryBus, nil
}

// ProvideCache creates the in-memory query cache
func ProvideCache() *InMemoryCache {
	return NewInMemoryCache()
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	commandBus *cmdbus.CommandBus,
	queryBus *querybus.QueryBus,
	validator *auth.JWTValidator,
	limiters RateLimiters,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(commandBus, queryBus, validator, limiters.IP, limiters.User, logger)
}

// zapBusLogger adapts zap's sugared logger to the command bus logger
type zapBusLogger struct {
	logger *zap.SugaredLogger
}

func (l *zapBusLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Infow(msg, keysAndValues...)
}

func (l *zapBusLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, keysAndValues...)
}

// queryMetricsAdapter bridges the observability metrics type to the query
// bus metrics interface
type queryMetricsAdapter struct {
	metrics *observability.Metrics
}

func (a *queryMetricsAdapter) StartTimer(name string) querybus.Timer {
	return a.metrics.StartTimer(name)
}

func (a *queryMetricsAdapter) IncrementCounter(name string) {
	a.metrics.IncrementCounter(name)
}

// commandMetricsMiddleware records timing and outcome counts per command type
func commandMetricsMiddleware(metrics *observability.Metrics) cmdbus.Middleware {
	return func(next cmdbus.CommandHandler) cmdbus.CommandHandler {
		return cmdbus.CommandHandlerFunc(func(ctx context.Context, cmd cmdbus.Command) (interface{}, error) {
			name := fmt.Sprintf("%T", cmd)
			timer := metrics.StartTimer(name)
			defer timer.Stop()

			result, err := next.Handle(ctx, cmd)
			if err != nil {
				metrics.IncrementCounter(name + ".errors")
			} else {
				metrics.IncrementCounter(name + ".success")
			}
			return result, err
		})
	}
}

// commandTracingMiddleware opens an X-Ray subsegment per command
func commandTracingMiddleware(tracer *observability.Tracer) cmdbus.Middleware {
	return func(next cmdbus.CommandHandler) cmdbus.CommandHandler {
		return cmdbus.CommandHandlerFunc(func(ctx context.Context, cmd cmdbus.Command) (interface{}, error) {
			var result interface{}
			err := tracer.TraceFunction(ctx, fmt.Sprintf("%T", cmd), func(ctx context.Context) error {
				var innerErr error
				result, innerErr = next.Handle(ctx, cmd)
				return innerErr
			})
			return result, err
		})
	}
}
