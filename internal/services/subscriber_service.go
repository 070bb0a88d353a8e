package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ArowuTest/mtn-ras-backend/internal/models"
	"github.com/ArowuTest/mtn-ras-backend/internal/repositories"
)

// SubscriberAssessmentView is what the ops surface reports for one subscriber
type SubscriberAssessmentView struct {
	Subscriber    *models.Subscriber           `json:"subscriber"`
	Assessment    *models.SubscriberAssessment `json:"assessment,omitempty"`
	FirstRecharge *time.Time                   `json:"firstRecharge,omitempty"`
}

// SubscriberService handles first contact and read-back of assessed subscribers
type SubscriberService interface {
	FirstContact(ctx context.Context, req *models.CreateSubscriberRequest) (*SubscriberAssessmentView, error)
	Assessment(ctx context.Context, msisdn string) (*SubscriberAssessmentView, error)
}

// subscriberLookup is the slice of the coordinator this service needs
type subscriberLookup interface {
	AssessmentStore
	Lookup(ctx context.Context, rawMSISDN string) (*models.Subscriber, *models.SubscriberAssessment, error)
}

type subscriberService struct {
	coordinator subscriberLookup
	states      repositories.SubscriberStateRepository
	history     repositories.SubscriberHistoryRepository
}

// NewSubscriberService creates a SubscriberService. states and history may be nil
// when the document store is not configured.
func NewSubscriberService(coordinator subscriberLookup, states repositories.SubscriberStateRepository, history repositories.SubscriberHistoryRepository) SubscriberService {
	return &subscriberService{coordinator: coordinator, states: states, history: history}
}

var ErrInvalidPayType = errors.New("pay type must be PREPAID or POSTPAID")

// FirstContact registers a line seen for the first time: subscriber row, assessment
// row and state document are all created if missing and returned unchanged otherwise.
func (s *subscriberService) FirstContact(ctx context.Context, req *models.CreateSubscriberRequest) (*SubscriberAssessmentView, error) {
	var payType *models.PayType
	if req.PayType != "" {
		pt, ok := models.ParsePayType(req.PayType)
		if !ok {
			return nil, ErrInvalidPayType
		}
		payType = pt.Ptr()
	}

	sub, err := s.coordinator.GetOrCreateSubscriber(ctx, req.MSISDN)
	if err != nil {
		return nil, err
	}
	assessment, err := s.coordinator.GetOrCreateAssessment(ctx, sub, payType)
	if err != nil {
		return nil, err
	}

	if s.states != nil {
		if _, err := s.states.CreateState(ctx, sub.MSISDN, 0); err != nil {
			return nil, fmt.Errorf("create subscriber state: %w", err)
		}
	}

	return &SubscriberAssessmentView{Subscriber: sub, Assessment: assessment}, nil
}

// Assessment reads back the stored assessment without creating anything
func (s *subscriberService) Assessment(ctx context.Context, msisdn string) (*SubscriberAssessmentView, error) {
	sub, assessment, err := s.coordinator.Lookup(ctx, msisdn)
	if err != nil {
		return nil, err
	}

	view := &SubscriberAssessmentView{Subscriber: sub, Assessment: assessment}
	if s.history == nil {
		return view, nil
	}

	first, err := s.history.EarliestRechargeTime(ctx, sub.MSISDN)
	switch {
	case err == nil:
		view.FirstRecharge = &first
	case errors.Is(err, repositories.ErrNotFound):
	default:
		// the relational read already succeeded; report what we have
		slog.Warn("Failed to read first recharge time", "msisdn", sub.MSISDN, "error", err)
	}
	return view, nil
}
