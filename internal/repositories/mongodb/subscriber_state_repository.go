package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/mtn-ras-backend/internal/models"
	"github.com/ArowuTest/mtn-ras-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const SubscriberStateCollection = "subscriber_state"

// SubscriberStateRepository implements the repositories.SubscriberStateRepository interface
type SubscriberStateRepository struct {
	collection *mongo.Collection
}

// NewSubscriberStateRepository creates a new SubscriberStateRepository
func NewSubscriberStateRepository(db *mongo.Database) *SubscriberStateRepository {
	return &SubscriberStateRepository{
		collection: db.Collection(SubscriberStateCollection),
	}
}

// StateByMSISDN finds the state document of a subscriber
func (r *SubscriberStateRepository) StateByMSISDN(ctx context.Context, msisdn string) (*models.SubscriberState, error) {
	var state models.SubscriberState
	err := r.collection.FindOne(ctx, bson.M{"msisdn": msisdn}).Decode(&state)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("subscriber state %s: %w", msisdn, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("find subscriber state %s: %w", msisdn, err)
	}
	return &state, nil
}

// CreateState inserts an active prepaid state for msisdn. An existing document is
// returned untouched.
func (r *SubscriberStateRepository) CreateState(ctx context.Context, msisdn string, currentBalance float64) (*models.SubscriberState, error) {
	update := bson.M{
		"$setOnInsert": bson.M{
			"msisdn":          msisdn,
			"active_status":   true,
			"blacklisted":     false,
			"current_balance": currentBalance,
			"pay_type":        models.PayTypePrepaid,
			"last_updated":    time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var state models.SubscriberState
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"msisdn": msisdn}, update, opts).Decode(&state); err != nil {
		return nil, fmt.Errorf("create subscriber state %s: %w", msisdn, err)
	}
	return &state, nil
}

var _ repositories.SubscriberStateRepository = (*SubscriberStateRepository)(nil)
