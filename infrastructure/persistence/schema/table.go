// Package schema bootstraps the single DynamoDB table the service runs on.
package schema

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

// EnsureTable creates the content table when it does not exist yet and waits
// for it to become active. Production tables come from infrastructure as
// code; this is for development and integration environments.
//
// The table is a generic PK/SK single-table design. Entity versions,
// reference edges, active slots, activation markers, outbox events, rate
// limit counters, and relay locks all share it under distinct key prefixes.
func EnsureTable(ctx context.Context, client *dynamodb.Client, tableName string, logger *zap.Logger) error {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("describing table %s: %w", tableName, err)
	}

	logger.Info("Creating table", zap.String("table", tableName))

	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("PK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("SK"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("PK"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("SK"), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("creating table %s: %w", tableName, err)
	}

	if err := waitForActive(ctx, client, tableName); err != nil {
		return err
	}

	// Expired lock and rate-limit rows carry a TTL attribute for DynamoDB
	// to sweep. Ignore the error if TTL was already configured.
	_, err = client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			AttributeName: aws.String("TTL"),
			Enabled:       aws.Bool(true),
		},
	})
	if err != nil {
		logger.Warn("Failed to enable TTL", zap.String("table", tableName), zap.Error(err))
	}

	logger.Info("Table ready", zap.String("table", tableName))
	return nil
}

// waitForActive polls until the table reports ACTIVE
func waitForActive(ctx context.Context, client *dynamodb.Client, tableName string) error {
	deadline := time.Now().Add(2 * time.Minute)
	for time.Now().Before(deadline) {
		out, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(tableName),
		})
		if err == nil && out.Table != nil && out.Table.TableStatus == types.TableStatusActive {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	return fmt.Errorf("table %s did not become active in time", tableName)
}
