package di

import (
	cmdbus "recruiter-backend/application/commands/bus"
	"recruiter-backend/application/ports"
	querybus "recruiter-backend/application/queries/bus"
	"recruiter-backend/domain/versioning"
	"recruiter-backend/infrastructure/config"
	dynamodbstore "recruiter-backend/infrastructure/persistence/dynamodb"
	"recruiter-backend/interfaces/http/rest"
	"recruiter-backend/pkg/auth"
	"recruiter-backend/pkg/concurrency"
	"recruiter-backend/pkg/observability"

	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// Container holds every wired component the entrypoints need
type Container struct {
	Config          *config.Config
	Logger          *zap.Logger
	DynamoDBClient  *awsdynamodb.Client
	EntityStore     ports.EntityStore
	SlotStore       ports.SlotStore
	EventStore      *dynamodbstore.EventStore
	EventPublisher  ports.EventPublisher
	OutboxProcessor *dynamodbstore.OutboxProcessor
	Retry           *concurrency.Coordinator
	Engine          *versioning.Engine
	Resolver        *versioning.Resolver
	CommandBus      *cmdbus.CommandBus
	QueryBus        *querybus.QueryBus
	Cache           *InMemoryCache
	Metrics         *observability.Metrics
	Tracer          *observability.Tracer
	JWTValidator    *auth.JWTValidator
	RateLimiters    RateLimiters
	Router          *rest.Router
}

// Shutdown flushes the logger and stops background workers
func (c *Container) Shutdown() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}
	if c.Logger != nil {
		c.Logger.Sync()
	}
}
