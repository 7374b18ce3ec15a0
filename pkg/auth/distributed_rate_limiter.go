package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// RateLimitClient is the slice of the DynamoDB API the distributed limiter
// uses. *dynamodb.Client satisfies it.
type RateLimitClient interface {
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DistributedRateLimiter counts requests in DynamoDB so limits hold across
// Lambda invocations, where every in-process counter starts from zero.
// Counters live in fixed windows keyed by the window start; expired windows
// age out through the table's TTL attribute.
type DistributedRateLimiter struct {
	client    RateLimitClient
	tableName string
	limit     int
	window    time.Duration
	logger    *zap.Logger
}

// NewDistributedRateLimiter creates a DynamoDB-backed rate limiter
func NewDistributedRateLimiter(client RateLimitClient, tableName string, limit int, window time.Duration, logger *zap.Logger) *DistributedRateLimiter {
	return &DistributedRateLimiter{
		client:    client,
		tableName: tableName,
		limit:     limit,
		window:    window,
		logger:    logger,
	}
}

// Allow atomically increments the counter for the key's current window. The
// conditional write rejects the increment once the limit is reached; that
// rejection is the only path that throttles.
//
// Counter-table failures fail open: the limiter protects capacity, and
// refusing all traffic because the counter is unreachable would cost more
// than a window without limiting. The failure is logged for monitoring.
func (r *DistributedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r.client == nil {
		// Local development without DynamoDB
		return true, nil
	}

	windowStart := time.Now().Truncate(r.window)
	windowEnd := windowStart.Add(r.window)

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 r.windowKey(key, windowStart),
		UpdateExpression:    aws.String("SET #count = if_not_exists(#count, :zero) + :incr, #ttl = :ttl"),
		ConditionExpression: aws.String("attribute_not_exists(#count) OR #count < :limit"),
		ExpressionAttributeNames: map[string]string{
			"#count": "Count",
			"#ttl":   "TTL",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero":  &types.AttributeValueMemberN{Value: "0"},
			":incr":  &types.AttributeValueMemberN{Value: "1"},
			":limit": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", r.limit)},
			":ttl":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", windowEnd.Add(time.Hour).Unix())},
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return false, nil
		}
		r.logger.Warn("Rate limit counter unavailable, failing open",
			zap.String("key", key),
			zap.Error(err),
		)
		return true, nil
	}

	return true, nil
}

// Reset drops the counter for the key's current window
func (r *DistributedRateLimiter) Reset(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}

	windowStart := time.Now().Truncate(r.window)
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       r.windowKey(key, windowStart),
	})
	return err
}

// windowKey addresses the counter row for one (key, window) pair. Keys
// already carry their scope prefix, so one partition per scoped key suffices.
func (r *DistributedRateLimiter) windowKey(key string, windowStart time.Time) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "RATELIMIT#" + key},
		"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("W#%d", windowStart.Unix())},
	}
}
