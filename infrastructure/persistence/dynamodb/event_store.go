package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"recruiter-backend/domain/events"
	apperrors "recruiter-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// PublishStatus tracks the outbox state of a stored event
type PublishStatus string

const (
	PublishStatusPending   PublishStatus = "pending"
	PublishStatusPublished PublishStatus = "published"
	PublishStatusFailed    PublishStatus = "failed"
)

// EventRecord is the outbox row for one domain event
type EventRecord struct {
	PK          string `dynamodbav:"PK"` // EVENT#<aggregate id>
	SK          string `dynamodbav:"SK"` // EVT#<timestamp>#<event id>
	EntityType  string `dynamodbav:"EntityType"`
	EventID     string `dynamodbav:"EventID"`
	EventType   string `dynamodbav:"EventType"`
	AggregateID string `dynamodbav:"AggregateID"`
	Payload     string `dynamodbav:"Payload"`
	Timestamp   string `dynamodbav:"Timestamp"`

	PublishStatus   string `dynamodbav:"PublishStatus"`
	PublishAttempts int    `dynamodbav:"PublishAttempts"`
	LastPublishTry  string `dynamodbav:"LastPublishTry,omitempty"`
	PublishedAt     string `dynamodbav:"PublishedAt,omitempty"`
	ErrorMessage    string `dynamodbav:"ErrorMessage,omitempty"`
}

// EventStore implements the outbox on DynamoDB. Events land as pending rows;
// the outbox processor relays them to the bus and flips the status.
type EventStore struct {
	client    *dynamodb.Client
	tableName string
}

// NewEventStore creates a DynamoDB-backed event outbox
func NewEventStore(client *dynamodb.Client, tableName string) *EventStore {
	return &EventStore{client: client, tableName: tableName}
}

// SaveEvent persists one domain event as a pending outbox row
func (es *EventStore) SaveEvent(ctx context.Context, event events.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return apperrors.NewDatabaseError("marshal event payload", err)
	}

	eventID := uuid.NewString()
	timestamp := event.GetTimestamp().UTC().Format(timeFormat)

	record := EventRecord{
		PK:            fmt.Sprintf("EVENT#%s", event.GetAggregateID()),
		SK:            fmt.Sprintf("EVT#%s#%s", timestamp, eventID),
		EntityType:    "DOMAIN_EVENT",
		EventID:       eventID,
		EventType:     event.GetEventType(),
		AggregateID:   event.GetAggregateID(),
		Payload:       string(payload),
		Timestamp:     timestamp,
		PublishStatus: string(PublishStatusPending),
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return apperrors.NewDatabaseError("marshal event record", err)
	}

	_, err = es.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(es.tableName),
		Item:      item,
	})
	if err != nil {
		return apperrors.NewDatabaseError("save event", err)
	}
	return nil
}

// GetEvents returns every stored event of one aggregate, oldest first
func (es *EventStore) GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(es.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("EVENT#%s", aggregateID)},
		},
		ScanIndexForward: aws.Bool(true),
	}

	var result []events.DomainEvent
	for {
		page, err := es.client.Query(ctx, input)
		if err != nil {
			return nil, apperrors.NewDatabaseError("query events", err)
		}

		for _, raw := range page.Items {
			var record EventRecord
			if err := attributevalue.UnmarshalMap(raw, &record); err != nil {
				return nil, apperrors.NewDatabaseError("unmarshal event record", err)
			}
			event, err := recordToEvent(record)
			if err != nil {
				return nil, err
			}
			result = append(result, event)
		}

		if page.LastEvaluatedKey == nil {
			return result, nil
		}
		input.ExclusiveStartKey = page.LastEvaluatedKey
	}
}

// GetPendingEvents returns up to limit unpublished outbox rows
func (es *EventStore) GetPendingEvents(ctx context.Context, limit int32) ([]*EventRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	result, err := es.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(es.tableName),
		FilterExpression: aws.String("PublishStatus = :status AND begins_with(PK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(PublishStatusPending)},
			":prefix": &types.AttributeValueMemberS{Value: "EVENT#"},
		},
		Limit: aws.Int32(limit),
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("scan pending events", err)
	}

	records := make([]*EventRecord, 0, len(result.Items))
	for _, item := range result.Items {
		var record EventRecord
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			continue
		}
		records = append(records, &record)
	}
	return records, nil
}

// MarkEventAsPublished flips a pending row to published
func (es *EventStore) MarkEventAsPublished(ctx context.Context, eventPK, eventSK string) error {
	_, err := es.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(es.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: eventPK},
			"SK": &types.AttributeValueMemberS{Value: eventSK},
		},
		UpdateExpression:    aws.String("SET PublishStatus = :published, PublishedAt = :publishedAt"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":published":   &types.AttributeValueMemberS{Value: string(PublishStatusPublished)},
			":publishedAt": &types.AttributeValueMemberS{Value: timeNowFormatted()},
		},
	})
	if err != nil {
		return apperrors.NewDatabaseError("mark event published", err)
	}
	return nil
}

// MarkEventAsFailed records a publish failure. Below maxAttempts the row stays
// pending for another relay pass; at the limit it parks as failed.
func (es *EventStore) MarkEventAsFailed(ctx context.Context, eventPK, eventSK, errorMsg string, attempts, maxAttempts int) error {
	status := string(PublishStatusFailed)
	if attempts < maxAttempts {
		status = string(PublishStatusPending)
	}

	_, err := es.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(es.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: eventPK},
			"SK": &types.AttributeValueMemberS{Value: eventSK},
		},
		UpdateExpression:    aws.String("SET PublishStatus = :status, PublishAttempts = :attempts, LastPublishTry = :lastTry, ErrorMessage = :error"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":   &types.AttributeValueMemberS{Value: status},
			":attempts": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", attempts)},
			":lastTry":  &types.AttributeValueMemberS{Value: timeNowFormatted()},
			":error":    &types.AttributeValueMemberS{Value: errorMsg},
		},
	})
	if err != nil {
		return apperrors.NewDatabaseError("mark event failed", err)
	}
	return nil
}

// recordToEvent rehydrates a stored row as a publishable envelope
func recordToEvent(record EventRecord) (events.DomainEvent, error) {
	timestamp, err := time.Parse(timeFormat, record.Timestamp)
	if err != nil {
		return nil, apperrors.NewDatabaseError("parse event timestamp", err)
	}
	return events.Envelope{
		AggregateID: record.AggregateID,
		EventType:   record.EventType,
		Timestamp:   timestamp,
		Payload:     json.RawMessage(record.Payload),
	}, nil
}
