package services

import (
	"context"
	"testing"
	"time"

	"github.com/ArowuTest/mtn-ras-backend/internal/config"
	"github.com/ArowuTest/mtn-ras-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allToggles() config.ScoringToggles {
	return config.ScoringToggles{
		TopUpFrequency:  true,
		TopUpAmount:     true,
		AgeOnNetwork:    true,
		BlacklistStatus: true,
		TariffPlan:      true,
	}
}

func ladder(amounts ...float64) []*models.BorrowableAmount {
	out := make([]*models.BorrowableAmount, 0, len(amounts))
	for i, a := range amounts {
		out = append(out, &models.BorrowableAmount{PK: int64(i + 1), Amount: a})
	}
	return out
}

func TestRechargeScorer(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start.AddDate(0, 0, 95)
	history := []*models.SubscriberHistory{
		{RechargeForPrepaid: 100, RechargeTime: start},
		{RechargeForPrepaid: 300, RechargeTime: start.AddDate(0, 0, 4)},
		{RechargeForPrepaid: 500, RechargeTime: start.AddDate(0, 0, 6), LoanIndicator: true},
		{RechargeForPrepaid: 0, RechargeTime: start.AddDate(0, 0, 7)},
		{CardFaceValue: 200, RechargeTime: start.AddDate(0, 0, 10)},
	}
	in := ScoreInput{
		Subscriber: &models.Subscriber{PK: 1, InDebt: true},
		Assessment: &models.SubscriberAssessment{PK: 9, SubscriberPK: 1},
		State:      &models.SubscriberState{ActiveStatus: true, PayType: models.PayTypePostpaid},
		History:    history,
		Ladder:     ladder(50, 100, 200, 500),
		Now:        now,
	}

	res, err := NewRechargeScorer(allToggles()).Score(context.Background(), in)
	require.NoError(t, err)

	a := res.Assessment
	assert.Equal(t, 3, a.AgeOnNetwork)
	assert.Equal(t, 3, a.NumberOfTopUps)
	assert.Equal(t, 600.0, a.TotalTopUpValue)
	assert.Equal(t, 10, a.TopUpDuration)
	assert.Equal(t, 60, a.TopUpValueDuration)
	assert.True(t, a.InDebt)
	require.NotNil(t, a.TariffPlan)
	assert.Equal(t, models.PayTypePostpaid, *a.TariffPlan)

	require.NotNil(t, res.Tier)
	assert.Equal(t, 200.0, res.Tier.Amount)

	// input untouched
	assert.Zero(t, in.Assessment.NumberOfTopUps)
}

func TestRechargeScorerBlacklistedGetsNoTier(t *testing.T) {
	in := ScoreInput{
		Assessment: &models.SubscriberAssessment{PK: 1},
		State:      &models.SubscriberState{ActiveStatus: true, Blacklisted: true},
		History:    []*models.SubscriberHistory{{RechargeForPrepaid: 1000, RechargeTime: time.Now()}},
		Ladder:     ladder(100),
	}

	res, err := NewRechargeScorer(allToggles()).Score(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, res.Tier)
	assert.Equal(t, 1, res.Assessment.NumberOfTopUps)

	toggles := allToggles()
	toggles.BlacklistStatus = false
	res, err = NewRechargeScorer(toggles).Score(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, res.Tier)
	assert.Equal(t, 100.0, res.Tier.Amount)
}

func TestRechargeScorerDisabledCriteriaKeepStoredValues(t *testing.T) {
	in := ScoreInput{
		Assessment: &models.SubscriberAssessment{PK: 1, NumberOfTopUps: 7, TotalTopUpValue: 70, AgeOnNetwork: 2},
		History:    []*models.SubscriberHistory{{RechargeForPrepaid: 10, RechargeTime: time.Now().AddDate(-1, 0, 0)}},
	}

	res, err := NewRechargeScorer(config.ScoringToggles{}).Score(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Assessment.NumberOfTopUps)
	assert.Equal(t, 70.0, res.Assessment.TotalTopUpValue)
	assert.Equal(t, 2, res.Assessment.AgeOnNetwork)
	assert.Nil(t, res.Tier, "empty ladder")
}

func TestRechargeScorerNoHistory(t *testing.T) {
	res, err := NewRechargeScorer(allToggles()).Score(context.Background(), ScoreInput{
		Assessment: &models.SubscriberAssessment{PK: 1},
		Ladder:     ladder(50),
	})
	require.NoError(t, err)
	assert.Zero(t, res.Assessment.NumberOfTopUps)
	assert.Zero(t, res.Assessment.AgeOnNetwork)
	assert.Nil(t, res.Tier)

	_, err = NewRechargeScorer(allToggles()).Score(context.Background(), ScoreInput{})
	assert.Error(t, err)
}

func TestScorerFunc(t *testing.T) {
	var s Scorer = ScorerFunc(func(_ context.Context, in ScoreInput) (*ScoreResult, error) {
		return &ScoreResult{Assessment: in.Assessment}, nil
	})
	a := &models.SubscriberAssessment{PK: 3}
	res, err := s.Score(context.Background(), ScoreInput{Assessment: a})
	require.NoError(t, err)
	assert.Same(t, a, res.Assessment)
}
