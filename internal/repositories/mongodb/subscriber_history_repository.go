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

const SubscriberHistoryCollection = "subscriber_history"

// SubscriberHistoryRepository implements the repositories.SubscriberHistoryRepository interface
type SubscriberHistoryRepository struct {
	collection *mongo.Collection
}

// NewSubscriberHistoryRepository creates a new SubscriberHistoryRepository
func NewSubscriberHistoryRepository(db *mongo.Database) *SubscriberHistoryRepository {
	return &SubscriberHistoryRepository{
		collection: db.Collection(SubscriberHistoryCollection),
	}
}

// HistoryByMSISDN returns every recharge event of msisdn in natural order
func (r *SubscriberHistoryRepository) HistoryByMSISDN(ctx context.Context, msisdn string) ([]*models.SubscriberHistory, error) {
	return r.find(ctx, msisdn, options.Find())
}

// HistorySortedByMSISDN returns the recharge events of msisdn oldest first.
// A limit of 0 returns all of them.
func (r *SubscriberHistoryRepository) HistorySortedByMSISDN(ctx context.Context, msisdn string, limit int64) ([]*models.SubscriberHistory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "recharge_time", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return r.find(ctx, msisdn, opts)
}

func (r *SubscriberHistoryRepository) find(ctx context.Context, msisdn string, opts *options.FindOptions) ([]*models.SubscriberHistory, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"msisdn": msisdn}, opts)
	if err != nil {
		return nil, fmt.Errorf("find history %s: %w", msisdn, err)
	}
	defer cursor.Close(ctx)

	var history []*models.SubscriberHistory
	if err := cursor.All(ctx, &history); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", msisdn, err)
	}
	if history == nil {
		history = []*models.SubscriberHistory{}
	}
	return history, nil
}

// EarliestRechargeTime returns the first recharge_time on record for msisdn
func (r *SubscriberHistoryRepository) EarliestRechargeTime(ctx context.Context, msisdn string) (time.Time, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "recharge_time", Value: 1}}).
		SetProjection(bson.M{"recharge_time": 1})

	var first models.SubscriberHistory
	err := r.collection.FindOne(ctx, bson.M{"msisdn": msisdn}, opts).Decode(&first)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return time.Time{}, fmt.Errorf("history of %s: %w", msisdn, repositories.ErrNotFound)
		}
		return time.Time{}, fmt.Errorf("earliest recharge %s: %w", msisdn, err)
	}
	return first.RechargeTime, nil
}

// InsertHistory appends events to the ledger and reports how many were stored.
// The insert is unordered so one bad document does not block the rest.
func (r *SubscriberHistoryRepository) InsertHistory(ctx context.Context, docs ...*models.SubscriberHistory) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	batch := make([]interface{}, len(docs))
	for i, d := range docs {
		batch[i] = d
	}

	res, err := r.collection.InsertMany(ctx, batch, options.InsertMany().SetOrdered(false))
	if err != nil {
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) {
			return len(docs) - len(bwe.WriteErrors), fmt.Errorf("insert history: %w", err)
		}
		return 0, fmt.Errorf("insert history: %w", err)
	}
	return len(res.InsertedIDs), nil
}

var _ repositories.SubscriberHistoryRepository = (*SubscriberHistoryRepository)(nil)
