package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ArowuTest/mtn-ras-backend/internal/metrics"
	"github.com/ArowuTest/mtn-ras-backend/internal/models"
	"github.com/ArowuTest/mtn-ras-backend/internal/repositories"
	"github.com/ArowuTest/mtn-ras-backend/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssessmentStore is the part of the coordinator the batch cycle depends on
type AssessmentStore interface {
	GetOrCreateSubscriber(ctx context.Context, rawMSISDN string) (*models.Subscriber, error)
	GetOrCreateAssessment(ctx context.Context, sub *models.Subscriber, payType *models.PayType) (*models.SubscriberAssessment, error)
	CommitAssessment(ctx context.Context, a *models.SubscriberAssessment) error
}

// AssessmentCoordinator is the only writer of subscriber and assessment identity.
// One instance is shared by the whole process. Lookups share its lock; the
// get-or-create paths hold it exclusively.
type AssessmentCoordinator struct {
	db      *gorm.DB
	queries repositories.SubscriberQueryRepository
	lock    *accessLock
	now     func() time.Time
}

// NewAssessmentCoordinator creates the coordinator. accessTimeout bounds how long a
// caller waits to enter it.
func NewAssessmentCoordinator(db *gorm.DB, queries repositories.SubscriberQueryRepository, accessTimeout time.Duration) *AssessmentCoordinator {
	return &AssessmentCoordinator{
		db:      db,
		queries: queries,
		lock:    newAccessLock(accessTimeout),
		now:     time.Now,
	}
}

// GetOrCreateSubscriber returns the subscriber for the normalized form of rawMSISDN,
// inserting it on first contact
func (c *AssessmentCoordinator) GetOrCreateSubscriber(ctx context.Context, rawMSISDN string) (*models.Subscriber, error) {
	if strings.TrimSpace(rawMSISDN) == "" {
		return nil, fmt.Errorf("empty msisdn")
	}
	msisdn := utils.NormalizeMSISDN(rawMSISDN)

	release, err := c.lock.exclusive(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	sub, err := c.queries.SubscriberByMSISDN(ctx, msisdn)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	// own transaction so the row is visible to every caller once we return
	var created int64
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "msisdn"}}, DoNothing: true}).
			Create(&models.Subscriber{MSISDN: msisdn})
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected
		if created == 0 {
			return revive(tx, "subscriber", &models.Subscriber{}, "msisdn", msisdn)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create subscriber %s: %w", msisdn, err)
	}
	if created > 0 {
		metrics.EntitiesCreatedTotal.WithLabelValues("subscriber").Inc()
		slog.Debug("Subscriber created", "msisdn", msisdn)
	}

	// another process may have won the insert; either way the stored row is the answer
	return c.queries.SubscriberByMSISDN(ctx, msisdn)
}

// GetOrCreateAssessment returns the live assessment of sub, creating a zeroed one
// stamped with the current time. payType is only recorded when given.
func (c *AssessmentCoordinator) GetOrCreateAssessment(ctx context.Context, sub *models.Subscriber, payType *models.PayType) (*models.SubscriberAssessment, error) {
	if sub == nil || sub.PK == 0 {
		return nil, fmt.Errorf("assessment needs a stored subscriber")
	}

	release, err := c.lock.exclusive(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	a, err := c.queries.AssessmentBySubscriber(ctx, sub.PK)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	fresh := &models.SubscriberAssessment{
		SubscriberPK:  sub.PK,
		LastProcessed: c.now().UTC().Truncate(time.Microsecond),
		InDebt:        sub.InDebt,
	}
	if payType != nil {
		pt := *payType
		fresh.TariffPlan = &pt
	}

	var created int64
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "subscriber_fk"}}, DoNothing: true}).
			Create(fresh)
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected
		if created == 0 {
			return revive(tx, "assessment", &models.SubscriberAssessment{}, "subscriber_fk", sub.PK)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create assessment for %s: %w", sub.MSISDN, err)
	}
	if created > 0 {
		metrics.EntitiesCreatedTotal.WithLabelValues("assessment").Inc()
	}

	return c.queries.AssessmentBySubscriber(ctx, sub.PK)
}

// revive clears the deleted flag of the row holding the unique key. The key index
// spans deleted rows too, so a soft-deleted row would otherwise block the insert
// and never be found again.
func revive(tx *gorm.DB, entity string, model any, column string, value any) error {
	res := tx.Model(model).
		Where(column+" = ? AND deleted = ?", value, true).
		Update("deleted", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		metrics.EntitiesRevivedTotal.WithLabelValues(entity).Inc()
		slog.Info("Soft-deleted row revived", "entity", entity, column, value)
	}
	return nil
}

// Merge saves entity by primary key in a transaction of its own
func (c *AssessmentCoordinator) Merge(ctx context.Context, entity any) error {
	release, err := c.lock.shared(ctx)
	if err != nil {
		return err
	}
	defer release()

	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return MergeIn(tx, entity)
	})
}

// MergeIn saves entity by primary key as part of the caller's transaction
func MergeIn(tx *gorm.DB, entity any) error {
	if err := tx.Save(entity).Error; err != nil {
		return fmt.Errorf("merge %T: %w", entity, err)
	}
	return nil
}

// CommitAssessment writes back a scored assessment. LastProcessed is moved forward
// so that it is always later than the stored value.
func (c *AssessmentCoordinator) CommitAssessment(ctx context.Context, a *models.SubscriberAssessment) error {
	if a == nil || a.PK == 0 {
		return fmt.Errorf("commit needs a stored assessment")
	}

	release, err := c.lock.shared(ctx)
	if err != nil {
		return err
	}
	defer release()

	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored models.SubscriberAssessment
		if err := tx.Select("pk", "last_processed").Where("pk = ?", a.PK).Take(&stored).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("assessment %d: %w", a.PK, repositories.ErrNotFound)
			}
			return fmt.Errorf("load assessment %d: %w", a.PK, err)
		}

		ts := c.now().UTC().Truncate(time.Microsecond)
		if !ts.After(stored.LastProcessed) {
			ts = stored.LastProcessed.Add(time.Microsecond)
		}
		a.LastProcessed = ts

		return MergeIn(tx, a)
	})
}

// Lookup returns the subscriber and its assessment without creating either
func (c *AssessmentCoordinator) Lookup(ctx context.Context, rawMSISDN string) (*models.Subscriber, *models.SubscriberAssessment, error) {
	release, err := c.lock.shared(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	sub, err := c.queries.SubscriberByMSISDN(ctx, utils.NormalizeMSISDN(rawMSISDN))
	if err != nil {
		return nil, nil, err
	}
	a, err := c.queries.AssessmentBySubscriber(ctx, sub.PK)
	if err != nil {
		return sub, nil, err
	}
	return sub, a, nil
}

var _ AssessmentStore = (*AssessmentCoordinator)(nil)
