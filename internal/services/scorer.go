package services

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/mtn-ras-backend/internal/config"
	"github.com/ArowuTest/mtn-ras-backend/internal/models"
)

// ScoreInput is everything known about one subscriber at scoring time
type ScoreInput struct {
	Subscriber *models.Subscriber
	Assessment *models.SubscriberAssessment
	// State is nil when the document store has no snapshot for the subscriber
	State *models.SubscriberState
	// History is ordered oldest first
	History       []*models.SubscriberHistory
	FirstRecharge time.Time
	Ladder        []*models.BorrowableAmount
	Now           time.Time
}

// ScoreResult carries the recomputed assessment and the tier it qualifies for, if any
type ScoreResult struct {
	Assessment *models.SubscriberAssessment
	Tier       *models.BorrowableAmount
}

// Scorer turns recharge behaviour into assessment counters
type Scorer interface {
	Score(ctx context.Context, in ScoreInput) (*ScoreResult, error)
}

// ScorerFunc adapts a function to the Scorer interface
type ScorerFunc func(ctx context.Context, in ScoreInput) (*ScoreResult, error)

func (f ScorerFunc) Score(ctx context.Context, in ScoreInput) (*ScoreResult, error) {
	return f(ctx, in)
}

const (
	daysPerPeriod = 30
	day           = 24 * time.Hour
)

// RechargeScorer is the default Scorer. Each criterion can be disabled through toggles;
// a disabled criterion leaves the stored counter as it was.
type RechargeScorer struct {
	Toggles config.ScoringToggles
}

func NewRechargeScorer(toggles config.ScoringToggles) *RechargeScorer {
	return &RechargeScorer{Toggles: toggles}
}

func (s *RechargeScorer) Score(_ context.Context, in ScoreInput) (*ScoreResult, error) {
	if in.Assessment == nil {
		return nil, errors.New("no assessment to score")
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	a := *in.Assessment
	if in.Subscriber != nil {
		a.InDebt = in.Subscriber.InDebt
	}

	first := in.FirstRecharge
	if first.IsZero() && len(in.History) > 0 {
		first = in.History[0].RechargeTime
	}
	if s.Toggles.AgeOnNetwork && !first.IsZero() && now.After(first) {
		a.AgeOnNetwork = int(now.Sub(first)/day) / daysPerPeriod
	}

	var (
		count          int
		total          float64
		earliest, last time.Time
	)
	for _, h := range in.History {
		amount := h.RechargeAmount()
		if amount <= 0 || h.LoanIndicator {
			continue
		}
		count++
		total += amount
		if earliest.IsZero() || h.RechargeTime.Before(earliest) {
			earliest = h.RechargeTime
		}
		if h.RechargeTime.After(last) {
			last = h.RechargeTime
		}
	}

	duration := 0
	if count > 1 {
		duration = int(last.Sub(earliest) / day)
	}
	if s.Toggles.TopUpFrequency {
		a.NumberOfTopUps = count
		a.TopUpDuration = duration
	}
	if s.Toggles.TopUpAmount {
		a.TotalTopUpValue = total
		a.TopUpValueDuration = int(total / float64(max(1, duration)))
	}

	if s.Toggles.TariffPlan && in.State != nil && in.State.PayType != "" {
		a.TariffPlan = in.State.PayType.Ptr()
	}

	res := &ScoreResult{Assessment: &a}
	if s.Toggles.BlacklistStatus && in.State != nil && (in.State.Blacklisted || !in.State.ActiveStatus) {
		return res, nil
	}
	if count > 0 {
		res.Tier = tierFor(in.Ladder, total/float64(count))
	}
	return res, nil
}

// tierFor picks the largest ladder amount not above value. ladder is ascending.
func tierFor(ladder []*models.BorrowableAmount, value float64) *models.BorrowableAmount {
	var tier *models.BorrowableAmount
	for _, b := range ladder {
		if b.Amount > value {
			break
		}
		tier = b
	}
	return tier
}
