package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ArowuTest/mtn-ras-backend/internal/models"
	"github.com/ArowuTest/mtn-ras-backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const historyNS = "test.subscriber_history"

func historyDoc(msisdn string, amount float64, at time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: primitive.NewObjectID()},
		{Key: "msisdn", Value: msisdn},
		{Key: "recharge_for_prepaid", Value: amount},
		{Key: "recharge_time", Value: primitive.NewDateTimeFromTime(at)},
		{Key: "loan_indicator", Value: false},
	}
}

func TestHistoryByMSISDN(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	day := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

	mt.Run("returns every event", func(mt *mtest.T) {
		repo := NewSubscriberHistoryRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, historyNS, mtest.FirstBatch,
			historyDoc("08031234567", 100, day),
			historyDoc("08031234567", 200, day.AddDate(0, 0, 3)),
		))

		history, err := repo.HistoryByMSISDN(ctx, "08031234567")
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, 200.0, history[1].RechargeAmount())
	})

	mt.Run("empty is not nil", func(mt *mtest.T) {
		repo := NewSubscriberHistoryRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, historyNS, mtest.FirstBatch))

		history, err := repo.HistoryByMSISDN(ctx, "08031234567")
		require.NoError(t, err)
		assert.NotNil(t, history)
		assert.Empty(t, history)
	})

	mt.Run("sorted query sends sort and limit", func(mt *mtest.T) {
		repo := NewSubscriberHistoryRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, historyNS, mtest.FirstBatch,
			historyDoc("08031234567", 100, day),
		))

		_, err := repo.HistorySortedByMSISDN(ctx, "08031234567", 5)
		require.NoError(t, err)

		cmd := mt.GetStartedEvent().Command
		assert.Equal(t, int32(1), cmd.Lookup("sort", "recharge_time").Int32())
		assert.Equal(t, int64(5), cmd.Lookup("limit").Int64())
	})
}

func TestEarliestRechargeTime(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("returns first sorted", func(mt *mtest.T) {
		repo := NewSubscriberHistoryRepository(mt.DB)
		first := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, historyNS, mtest.FirstBatch,
			bson.D{{Key: "recharge_time", Value: primitive.NewDateTimeFromTime(first)}},
		))

		got, err := repo.EarliestRechargeTime(ctx, "08031234567")
		require.NoError(t, err)
		assert.True(t, first.Equal(got))
		assert.Equal(t, int32(1), mt.GetStartedEvent().Command.Lookup("sort", "recharge_time").Int32())
	})

	mt.Run("no history", func(mt *mtest.T) {
		repo := NewSubscriberHistoryRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, historyNS, mtest.FirstBatch))

		got, err := repo.EarliestRechargeTime(ctx, "08031234567")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		assert.True(t, got.IsZero())
	})

	mt.Run("failure", func(mt *mtest.T) {
		repo := NewSubscriberHistoryRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "boom"}))

		_, err := repo.EarliestRechargeTime(ctx, "08031234567")
		require.Error(t, err)
		assert.False(t, errors.Is(err, repositories.ErrNotFound))
	})
}

func TestInsertHistory(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	docs := []*models.SubscriberHistory{
		{MSISDN: "08031234567", RechargeForPrepaid: 100, RechargeTime: time.Now()},
		{MSISDN: "08031234567", RechargeForPrepaid: 200, RechargeTime: time.Now()},
		{MSISDN: "08039999999", RechargeForPrepaid: 300, RechargeTime: time.Now()},
	}

	mt.Run("all stored", func(mt *mtest.T) {
		repo := NewSubscriberHistoryRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		n, err := repo.InsertHistory(ctx, docs...)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	mt.Run("partial write", func(mt *mtest.T) {
		repo := NewSubscriberHistoryRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 1, Code: 11000, Message: "duplicate key"}))

		n, err := repo.InsertHistory(ctx, docs...)
		assert.Error(t, err)
		assert.Equal(t, 2, n)
	})

	mt.Run("nothing to do", func(mt *mtest.T) {
		repo := NewSubscriberHistoryRepository(mt.DB)
		n, err := repo.InsertHistory(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
