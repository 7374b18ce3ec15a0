// Package dynamodb holds the single-table DynamoDB implementations of the
// persistence ports.
//
// Row layout:
//
//	entity version   PK=ENTITY#<kind>#<name>   SK=V#<version, zero-padded>
//	reference edge   PK=REF#<child key>        SK=OWNER#<kind>#<name>#<version, zero-padded>
//	slot occupant    PK=SLOT#<parent id>       SK=ORDER#<order, zero-padded>
//	activation mark  PK=ACTIVATED#<kind>#<name> SK=V#<version, zero-padded>
//	outbox event     PK=EVENT#<aggregate id>   SK=EVT#<timestamp>#<event id>
//
// Zero-padding keeps lexicographic SK order equal to numeric version order,
// so "latest" is a single descending query.
package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"recruiter-backend/domain/core/entities"
	"recruiter-backend/domain/core/valueobjects"
	apperrors "recruiter-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// EntityStore implements the versioned entity store on DynamoDB
type EntityStore struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewEntityStore creates a DynamoDB-backed entity store
func NewEntityStore(client *dynamodb.Client, tableName string, logger *zap.Logger) *EntityStore {
	return &EntityStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// entityItem is the DynamoDB item for one entity version
type entityItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	Kind       string `dynamodbav:"Kind"`
	Name       string `dynamodbav:"Name"`
	Version    int    `dynamodbav:"Version"`
	Content    string `dynamodbav:"Content"`
	Deleted    bool   `dynamodbav:"Deleted"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	CreatedBy  string `dynamodbav:"CreatedBy"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
	UpdatedBy  string `dynamodbav:"UpdatedBy"`
	Token      string `dynamodbav:"Token"`
}

// referenceItem is the DynamoDB item for one pinned-reference edge. It is
// written in the same transaction as the owner's entity row, so the edge set
// is always consistent with the content that produced it.
type referenceItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	EntityType   string `dynamodbav:"EntityType"`
	ChildKey     string `dynamodbav:"ChildKey"`
	OwnerKind    string `dynamodbav:"OwnerKind"`
	OwnerName    string `dynamodbav:"OwnerName"`
	OwnerVersion int    `dynamodbav:"OwnerVersion"`
}

func entityPK(kind valueobjects.Kind, name string) string {
	return fmt.Sprintf("ENTITY#%s#%s", kind, name)
}

func versionSK(version int) string {
	return fmt.Sprintf("V#%010d", version)
}

func referencePK(child valueobjects.EntityKey) string {
	return fmt.Sprintf("REF#%s", child)
}

func ownerSK(key valueobjects.EntityKey) string {
	return fmt.Sprintf("OWNER#%s#%s#%010d", key.Kind, key.Name, key.Version)
}

// GetExact fetches one version by its full key, (nil, nil) when absent
func (s *EntityStore) GetExact(ctx context.Context, key valueobjects.EntityKey) (*entities.VersionedEntity, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: entityPK(key.Kind, key.Name)},
			"SK": &types.AttributeValueMemberS{Value: versionSK(key.Version)},
		},
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("get entity version", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item entityItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, apperrors.NewDatabaseError("unmarshal entity version", err)
	}
	return itemToEntity(item)
}

// GetLatest fetches the newest non-deleted version by querying the version
// range descending and taking the first live row
func (s *EntityStore) GetLatest(ctx context.Context, kind valueobjects.Kind, name string) (*entities.VersionedEntity, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: entityPK(kind, name)},
			":sk": &types.AttributeValueMemberS{Value: "V#"},
		},
		ScanIndexForward: aws.Bool(false),
	}

	for {
		result, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, apperrors.NewDatabaseError("query latest entity version", err)
		}

		for _, raw := range result.Items {
			var item entityItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, apperrors.NewDatabaseError("unmarshal entity version", err)
			}
			if !item.Deleted {
				return itemToEntity(item)
			}
		}

		if result.LastEvaluatedKey == nil {
			return nil, nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}

// ListAllVersions returns every version newest first, soft-deleted included
func (s *EntityStore) ListAllVersions(ctx context.Context, kind valueobjects.Kind, name string) ([]*entities.VersionedEntity, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: entityPK(kind, name)},
			":sk": &types.AttributeValueMemberS{Value: "V#"},
		},
		ScanIndexForward: aws.Bool(false),
	}

	var versions []*entities.VersionedEntity
	for {
		result, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, apperrors.NewDatabaseError("query entity versions", err)
		}

		for _, raw := range result.Items {
			var item entityItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, apperrors.NewDatabaseError("unmarshal entity version", err)
			}
			entity, err := itemToEntity(item)
			if err != nil {
				return nil, err
			}
			versions = append(versions, entity)
		}

		if result.LastEvaluatedKey == nil {
			return versions, nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}

// MaxVersion returns the highest version number ever used, soft-deleted
// included, 0 when the name is unused
func (s *EntityStore) MaxVersion(ctx context.Context, kind valueobjects.Kind, name string) (int, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: entityPK(kind, name)},
			":sk": &types.AttributeValueMemberS{Value: "V#"},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, apperrors.NewDatabaseError("query max entity version", err)
	}
	if len(result.Items) == 0 {
		return 0, nil
	}

	var item entityItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return 0, apperrors.NewDatabaseError("unmarshal entity version", err)
	}
	return item.Version, nil
}

// Insert writes the version row and its reference edges in one transaction.
// The entity put is conditional on the key not existing; a lost race comes
// back as DuplicateVersion for the retry coordinator.
func (s *EntityStore) Insert(ctx context.Context, entity *entities.VersionedEntity) error {
	pinned, err := entity.PinnedReferences()
	if err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	entityAV, err := attributevalue.MarshalMap(entityToItem(entity))
	if err != nil {
		return apperrors.NewDatabaseError("marshal entity version", err)
	}

	key := entity.Key()
	transactItems := []types.TransactWriteItem{
		{
			Put: &types.Put{
				TableName:           aws.String(s.tableName),
				Item:                entityAV,
				ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
			},
		},
	}

	for _, ref := range pinned {
		child, _ := ref.PinnedKey()
		refAV, err := attributevalue.MarshalMap(referenceItem{
			PK:           referencePK(child),
			SK:           ownerSK(key),
			EntityType:   "REFERENCE_EDGE",
			ChildKey:     child.String(),
			OwnerKind:    string(key.Kind),
			OwnerName:    key.Name,
			OwnerVersion: key.Version,
		})
		if err != nil {
			return apperrors.NewDatabaseError("marshal reference edge", err)
		}
		transactItems = append(transactItems, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(s.tableName),
				Item:      refAV,
			},
		})
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		if isConditionalFailure(err) {
			return apperrors.NewDuplicateVersion(key.String())
		}
		return apperrors.NewDatabaseError("insert entity version", err)
	}

	s.logger.Debug("Inserted entity version",
		zap.String("key", key.String()),
		zap.Int("referenceEdges", len(pinned)),
	)
	return nil
}

// UpdateFlags writes the mutable fields guarded by the concurrency token
func (s *EntityStore) UpdateFlags(ctx context.Context, entity *entities.VersionedEntity, expectedToken string) error {
	key := entity.Key()

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: entityPK(key.Kind, key.Name)},
			"SK": &types.AttributeValueMemberS{Value: versionSK(key.Version)},
		},
		UpdateExpression:    aws.String("SET Deleted = :deleted, UpdatedAt = :updatedAt, UpdatedBy = :updatedBy, #tok = :token"),
		ConditionExpression: aws.String("attribute_exists(PK) AND #tok = :expected"),
		ExpressionAttributeNames: map[string]string{
			"#tok": "Token",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":deleted":   &types.AttributeValueMemberBOOL{Value: entity.Deleted},
			":updatedAt": &types.AttributeValueMemberS{Value: entity.UpdatedAt.Format(timeFormat)},
			":updatedBy": &types.AttributeValueMemberS{Value: entity.UpdatedBy},
			":token":     &types.AttributeValueMemberS{Value: entity.Token},
			":expected":  &types.AttributeValueMemberS{Value: expectedToken},
		},
	})
	if err != nil {
		if isConditionalFailure(err) {
			return apperrors.NewStaleToken(key.String())
		}
		return apperrors.NewDatabaseError("update entity flags", err)
	}
	return nil
}

// HardDelete removes the version row and its outgoing reference edges
func (s *EntityStore) HardDelete(ctx context.Context, key valueobjects.EntityKey) error {
	entity, err := s.GetExact(ctx, key)
	if err != nil {
		return err
	}
	if entity == nil {
		return nil
	}

	transactItems := []types.TransactWriteItem{
		{
			Delete: &types.Delete{
				TableName: aws.String(s.tableName),
				Key: map[string]types.AttributeValue{
					"PK": &types.AttributeValueMemberS{Value: entityPK(key.Kind, key.Name)},
					"SK": &types.AttributeValueMemberS{Value: versionSK(key.Version)},
				},
			},
		},
	}

	pinned, err := entity.PinnedReferences()
	if err == nil {
		for _, ref := range pinned {
			child, _ := ref.PinnedKey()
			transactItems = append(transactItems, types.TransactWriteItem{
				Delete: &types.Delete{
					TableName: aws.String(s.tableName),
					Key: map[string]types.AttributeValue{
						"PK": &types.AttributeValueMemberS{Value: referencePK(child)},
						"SK": &types.AttributeValueMemberS{Value: ownerSK(key)},
					},
				},
			})
		}
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		return apperrors.NewDatabaseError("hard delete entity version", err)
	}

	s.logger.Info("Purged entity version", zap.String("key", key.String()))
	return nil
}

// FindLatestReferrers queries the reference edges of the child key, reduces
// them to distinct owners, and keeps each owner whose current latest version
// is among the pinning versions
func (s *EntityStore) FindLatestReferrers(ctx context.Context, child valueobjects.EntityKey) ([]*entities.VersionedEntity, error) {
	edges, err := s.queryReferenceEdges(ctx, child)
	if err != nil {
		return nil, err
	}

	type ownerID struct {
		kind valueobjects.Kind
		name string
	}
	pinningVersions := make(map[ownerID]map[int]bool)
	for _, edge := range edges {
		id := ownerID{kind: valueobjects.Kind(edge.OwnerKind), name: edge.OwnerName}
		if pinningVersions[id] == nil {
			pinningVersions[id] = make(map[int]bool)
		}
		pinningVersions[id][edge.OwnerVersion] = true
	}

	var result []*entities.VersionedEntity
	for id, versions := range pinningVersions {
		latest, err := s.GetLatest(ctx, id.kind, id.name)
		if err != nil {
			return nil, err
		}
		if latest != nil && versions[latest.Version] {
			result = append(result, latest)
		}
	}
	return result, nil
}

// IsReferenced reports whether any reference edge targets the child key
func (s *EntityStore) IsReferenced(ctx context.Context, child valueobjects.EntityKey) (bool, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(referencePK(child)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return false, apperrors.NewDatabaseError("build reference query", err)
	}

	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return false, apperrors.NewDatabaseError("query reference edges", err)
	}
	return len(result.Items) > 0, nil
}

// queryReferenceEdges pages through every edge row of a child key
func (s *EntityStore) queryReferenceEdges(ctx context.Context, child valueobjects.EntityKey) ([]referenceItem, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: referencePK(child)},
		},
	}

	var edges []referenceItem
	for {
		result, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, apperrors.NewDatabaseError("query reference edges", err)
		}

		for _, raw := range result.Items {
			var edge referenceItem
			if err := attributevalue.UnmarshalMap(raw, &edge); err != nil {
				return nil, apperrors.NewDatabaseError("unmarshal reference edge", err)
			}
			edges = append(edges, edge)
		}

		if result.LastEvaluatedKey == nil {
			return edges, nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}

// isConditionalFailure matches both the plain conditional-check failure and
// the transactional flavor of the same thing
func isConditionalFailure(err error) bool {
	var conditional *types.ConditionalCheckFailedException
	if errors.As(err, &conditional) {
		return true
	}
	var cancelled *types.TransactionCanceledException
	if errors.As(err, &cancelled) {
		for _, reason := range cancelled.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	return false
}
