package mongodb

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IndexManager creates the document store indexes. It is only used while provisioning.
type IndexManager struct {
	db *mongo.Database
}

func NewIndexManager(db *mongo.Database) *IndexManager {
	return &IndexManager{db: db}
}

// CreateUniqueConstraint adds one unique ascending index per field, named FIELD_UNIQUE
func (m *IndexManager) CreateUniqueConstraint(ctx context.Context, collection string, fields ...string) ([]string, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	indexes := make([]mongo.IndexModel, 0, len(fields))
	for _, field := range fields {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true).SetName(strings.ToUpper(field) + "_UNIQUE"),
		})
	}

	names, err := m.db.Collection(collection).Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return nil, fmt.Errorf("unique index on %s%v: %w", collection, fields, err)
	}
	return names, nil
}

// CreateTextIndex adds the collection's text index on field, named FIELD_TEXT
func (m *IndexManager) CreateTextIndex(ctx context.Context, collection, field string) (string, error) {
	name, err := m.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: "text"}},
		Options: options.Index().SetName(strings.ToUpper(field) + "_TEXT"),
	})
	if err != nil {
		return "", fmt.Errorf("text index on %s.%s: %w", collection, field, err)
	}
	return name, nil
}

// CreateCompoundIndex adds one ascending index spanning fields in order
func (m *IndexManager) CreateCompoundIndex(ctx context.Context, collection string, fields ...string) (string, error) {
	keys := make(bson.D, 0, len(fields))
	for _, field := range fields {
		keys = append(keys, bson.E{Key: field, Value: 1})
	}

	name, err := m.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys})
	if err != nil {
		return "", fmt.Errorf("compound index on %s%v: %w", collection, fields, err)
	}
	return name, nil
}

// EnsureDefaults creates the indexes the assessment cycle relies on
func (m *IndexManager) EnsureDefaults(ctx context.Context) error {
	if _, err := m.CreateUniqueConstraint(ctx, SubscriberStateCollection, "msisdn"); err != nil {
		return err
	}
	if _, err := m.CreateCompoundIndex(ctx, SubscriberHistoryCollection, "msisdn", "recharge_time"); err != nil {
		return err
	}
	return nil
}
