package dynamodb

import (
	"context"
	"fmt"

	"recruiter-backend/domain/core/valueobjects"
	apperrors "recruiter-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// SlotStore implements the active-slot store on DynamoDB. One row per slot
// key, so the single-active-version invariant holds by construction; the swap
// is a PutItem returning the old row.
type SlotStore struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewSlotStore creates a DynamoDB-backed slot store
func NewSlotStore(client *dynamodb.Client, tableName string, logger *zap.Logger) *SlotStore {
	return &SlotStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// slotItem is the DynamoDB item for the current occupant of one slot
type slotItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"`
	ActiveKey   string `dynamodbav:"ActiveKey"`
	ActivatedAt string `dynamodbav:"ActivatedAt"`
	ActivatedBy string `dynamodbav:"ActivatedBy"`
}

// activationItem marks a version as having been activated at least once.
// Marker rows are never removed, so "ever activated" survives deactivation.
type activationItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	Key        string `dynamodbav:"Key"`
}

func slotPK(slot valueobjects.SlotKey) string {
	return fmt.Sprintf("SLOT#%s", slot.ParentID)
}

func slotSK(slot valueobjects.SlotKey) string {
	return fmt.Sprintf("ORDER#%010d", slot.Order)
}

func activationPK(kind valueobjects.Kind, name string) string {
	return fmt.Sprintf("ACTIVATED#%s#%s", kind, name)
}

// Activate swaps the slot occupant and returns the previously active key.
// PutItem with ALL_OLD makes the swap atomic; the activation marker follows
// as an idempotent second write.
func (s *SlotStore) Activate(ctx context.Context, slot valueobjects.SlotKey, key valueobjects.EntityKey, actor string) (*valueobjects.EntityKey, error) {
	now := timeNowFormatted()

	item, err := attributevalue.MarshalMap(slotItem{
		PK:          slotPK(slot),
		SK:          slotSK(slot),
		EntityType:  "SLOT",
		ActiveKey:   key.String(),
		ActivatedAt: now,
		ActivatedBy: actor,
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("marshal slot", err)
	}

	result, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:    aws.String(s.tableName),
		Item:         item,
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("activate slot", err)
	}

	if err := s.writeActivationMarker(ctx, key); err != nil {
		return nil, err
	}

	var previous *valueobjects.EntityKey
	if len(result.Attributes) > 0 {
		var old slotItem
		if err := attributevalue.UnmarshalMap(result.Attributes, &old); err != nil {
			return nil, apperrors.NewDatabaseError("unmarshal previous slot", err)
		}
		prevKey, err := valueobjects.ParseEntityKey(old.ActiveKey)
		if err != nil {
			return nil, apperrors.NewInvariantViolation(
				fmt.Sprintf("slot %s holds malformed key %q", slot, old.ActiveKey))
		}
		previous = &prevKey
	}

	s.logger.Info("Slot activated",
		zap.String("slot", slot.String()),
		zap.String("active", key.String()),
	)
	return previous, nil
}

// CurrentActive returns the occupant of the slot, nil when never activated
func (s *SlotStore) CurrentActive(ctx context.Context, slot valueobjects.SlotKey) (*valueobjects.EntityKey, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: slotPK(slot)},
			"SK": &types.AttributeValueMemberS{Value: slotSK(slot)},
		},
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("get slot", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item slotItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, apperrors.NewDatabaseError("unmarshal slot", err)
	}
	key, err := valueobjects.ParseEntityKey(item.ActiveKey)
	if err != nil {
		return nil, apperrors.NewInvariantViolation(
			fmt.Sprintf("slot %s holds malformed key %q", slot, item.ActiveKey))
	}
	return &key, nil
}

// VersionEverActivated checks the exact marker row
func (s *SlotStore) VersionEverActivated(ctx context.Context, key valueobjects.EntityKey) (bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: activationPK(key.Kind, key.Name)},
			"SK": &types.AttributeValueMemberS{Value: versionSK(key.Version)},
		},
	})
	if err != nil {
		return false, apperrors.NewDatabaseError("get activation marker", err)
	}
	return result.Item != nil, nil
}

// EntityEverActivated checks for any marker row under the entity's name
func (s *SlotStore) EntityEverActivated(ctx context.Context, kind valueobjects.Kind, name string) (bool, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: activationPK(kind, name)},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return false, apperrors.NewDatabaseError("query activation markers", err)
	}
	return len(result.Items) > 0, nil
}

// writeActivationMarker records that the version held a slot at least once
func (s *SlotStore) writeActivationMarker(ctx context.Context, key valueobjects.EntityKey) error {
	item, err := attributevalue.MarshalMap(activationItem{
		PK:         activationPK(key.Kind, key.Name),
		SK:         versionSK(key.Version),
		EntityType: "ACTIVATION_MARKER",
		Key:        key.String(),
	})
	if err != nil {
		return apperrors.NewDatabaseError("marshal activation marker", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return apperrors.NewDatabaseError("write activation marker", err)
	}
	return nil
}
