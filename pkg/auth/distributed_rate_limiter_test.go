package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRateLimitClient struct {
	updateErr   error
	updateCalls []*dynamodb.UpdateItemInput
	deleteCalls []*dynamodb.DeleteItemInput
}

func (c *fakeRateLimitClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	c.updateCalls = append(c.updateCalls, params)
	if c.updateErr != nil {
		return nil, c.updateErr
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (c *fakeRateLimitClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	c.deleteCalls = append(c.deleteCalls, params)
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDistributedAllowUnderLimit(t *testing.T) {
	client := &fakeRateLimitClient{}
	limiter := NewDistributedRateLimiter(client, "app-table", 10, time.Minute, zap.NewNop())

	allowed, err := limiter.Allow(context.Background(), "ip:203.0.113.9")
	require.NoError(t, err)
	assert.True(t, allowed)

	require.Len(t, client.updateCalls, 1)
	pk := client.updateCalls[0].Key["PK"].(*types.AttributeValueMemberS).Value
	assert.Equal(t, "RATELIMIT#ip:203.0.113.9", pk)
}

func TestDistributedAllowThrottlesOnConditionalFailure(t *testing.T) {
	client := &fakeRateLimitClient{updateErr: &types.ConditionalCheckFailedException{}}
	limiter := NewDistributedRateLimiter(client, "app-table", 10, time.Minute, zap.NewNop())

	allowed, err := limiter.Allow(context.Background(), "user:alice")
	require.NoError(t, err)
	assert.False(t, allowed, "a rejected conditional write is the limit itself")
}

func TestDistributedAllowFailsOpenOnInfrastructureError(t *testing.T) {
	client := &fakeRateLimitClient{updateErr: errors.New("throughput exceeded")}
	limiter := NewDistributedRateLimiter(client, "app-table", 10, time.Minute, zap.NewNop())

	allowed, err := limiter.Allow(context.Background(), "user:alice")
	require.NoError(t, err, "counter trouble is logged, never surfaced")
	assert.True(t, allowed, "a broken counter must not block traffic")
}

func TestDistributedAllowWithoutClient(t *testing.T) {
	limiter := NewDistributedRateLimiter(nil, "", 10, time.Minute, zap.NewNop())

	allowed, err := limiter.Allow(context.Background(), "ip:127.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestDistributedResetDropsCurrentWindow(t *testing.T) {
	client := &fakeRateLimitClient{}
	limiter := NewDistributedRateLimiter(client, "app-table", 10, time.Minute, zap.NewNop())

	require.NoError(t, limiter.Reset(context.Background(), "user:alice"))

	require.Len(t, client.deleteCalls, 1)
	pk := client.deleteCalls[0].Key["PK"].(*types.AttributeValueMemberS).Value
	assert.Equal(t, "RATELIMIT#user:alice", pk)
}
