package dynamodb

import (
	"encoding/json"
	"time"

	"recruiter-backend/domain/core/entities"
	"recruiter-backend/domain/core/valueobjects"
	apperrors "recruiter-backend/pkg/errors"
)

// timeFormat is the wire format for timestamps stored in DynamoDB
const timeFormat = time.RFC3339Nano

func timeNowFormatted() string {
	return time.Now().UTC().Format(timeFormat)
}

// entityToItem maps a domain entity to its DynamoDB row
func entityToItem(e *entities.VersionedEntity) entityItem {
	return entityItem{
		PK:         entityPK(e.Kind, e.Name),
		SK:         versionSK(e.Version),
		EntityType: "ENTITY_VERSION",
		Kind:       string(e.Kind),
		Name:       e.Name,
		Version:    e.Version,
		Content:    string(e.Content),
		Deleted:    e.Deleted,
		CreatedAt:  e.CreatedAt.Format(timeFormat),
		CreatedBy:  e.CreatedBy,
		UpdatedAt:  e.UpdatedAt.Format(timeFormat),
		UpdatedBy:  e.UpdatedBy,
		Token:      e.Token,
	}
}

// itemToEntity maps a DynamoDB row back to the domain entity
func itemToEntity(item entityItem) (*entities.VersionedEntity, error) {
	createdAt, err := time.Parse(timeFormat, item.CreatedAt)
	if err != nil {
		return nil, apperrors.NewDatabaseError("parse CreatedAt", err)
	}
	updatedAt, err := time.Parse(timeFormat, item.UpdatedAt)
	if err != nil {
		return nil, apperrors.NewDatabaseError("parse UpdatedAt", err)
	}

	return &entities.VersionedEntity{
		Kind:      valueobjects.Kind(item.Kind),
		Name:      item.Name,
		Version:   item.Version,
		Content:   json.RawMessage(item.Content),
		Deleted:   item.Deleted,
		CreatedAt: createdAt,
		CreatedBy: item.CreatedBy,
		UpdatedAt: updatedAt,
		UpdatedBy: item.UpdatedBy,
		Token:     item.Token,
	}, nil
}
