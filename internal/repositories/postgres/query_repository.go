package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ArowuTest/mtn-ras-backend/internal/logger"
	"github.com/ArowuTest/mtn-ras-backend/internal/metrics"
	"github.com/ArowuTest/mtn-ras-backend/internal/models"
	"github.com/ArowuTest/mtn-ras-backend/internal/repositories"
	"github.com/ArowuTest/mtn-ras-backend/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QueryOptions names the relations and budgets used by QueryRepository
type QueryOptions struct {
	ViewName    string
	TableName   string
	PageTimeout time.Duration
}

// QueryRepository implements the relational reads of the assessment cycle on gorm
type QueryRepository struct {
	db   *gorm.DB
	opts QueryOptions
	log  *slog.Logger
}

// NewQueryRepository validates the configured relation names and returns the repository
func NewQueryRepository(db *gorm.DB, opts QueryOptions) (*QueryRepository, error) {
	if opts.ViewName == "" {
		opts.ViewName = "subscriber_ras_view"
	}
	if opts.TableName == "" {
		opts.TableName = "subscriber_eval"
	}
	if err := validIdentifier(opts.ViewName); err != nil {
		return nil, err
	}
	if err := validIdentifier(opts.TableName); err != nil {
		return nil, err
	}
	return &QueryRepository{
		db:   db,
		opts: opts,
		log:  slog.Default().With("component", "query_repository"),
	}, nil
}

// DB exposes the underlying handle for transactional callers
func (r *QueryRepository) DB() *gorm.DB {
	return r.db
}

// Normalize returns the canonical MSISDN used as the subscriber key
func (r *QueryRepository) Normalize(raw string) string {
	return utils.NormalizeMSISDN(raw)
}

// timed logs and records the elapsed time of a query when the returned func runs
func (r *QueryRepository) timed(ctx context.Context, name string) func(rows int) {
	start := time.Now()
	return func(rows int) {
		metrics.ObserveQuery(name, start)
		logger.FromContext(ctx, r.log).Debug("Query finished", "query", name, "rows", rows, "elapsed", time.Since(start))
	}
}

// NextUnassessedPage returns up to pageSize MSISDNs from the assessment view that sort
// after afterMSISDN. The whole query runs under the page timeout.
func (r *QueryRepository) NextUnassessedPage(ctx context.Context, afterMSISDN string, pageSize int) ([]string, error) {
	if r.opts.PageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.PageTimeout)
		defer cancel()
	}
	done := r.timed(ctx, "next_unassessed_page")

	msisdns := []string{}
	err := r.db.WithContext(ctx).
		Table(r.opts.ViewName).
		Where("msisdn > ?", afterMSISDN).
		Order("msisdn").
		Limit(pageSize).
		Pluck("msisdn", &msisdns).Error
	if err != nil {
		return nil, fmt.Errorf("page %s after %q: %w", r.opts.ViewName, afterMSISDN, err)
	}

	done(len(msisdns))
	return msisdns, nil
}

// SubscribersPage walks the whole subscriber table by primary key, skipping soft-deleted rows
func (r *QueryRepository) SubscribersPage(ctx context.Context, afterPK int64, pageSize int) ([]*models.Subscriber, error) {
	if r.opts.PageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.PageTimeout)
		defer cancel()
	}
	done := r.timed(ctx, "subscribers_page")

	subscribers := []*models.Subscriber{}
	err := r.db.WithContext(ctx).
		Where("pk > ? AND deleted = ?", afterPK, false).
		Order("pk").
		Limit(pageSize).
		Find(&subscribers).Error
	if err != nil {
		return nil, fmt.Errorf("subscribers after pk %d: %w", afterPK, err)
	}

	done(len(subscribers))
	return subscribers, nil
}

// EvalTablePage returns an offset page of MSISDNs from the evaluation table
func (r *QueryRepository) EvalTablePage(ctx context.Context, offset, limit int) ([]string, error) {
	done := r.timed(ctx, "eval_table_page")

	msisdns := []string{}
	err := r.db.WithContext(ctx).
		Table(r.opts.TableName).
		Order("msisdn").
		Offset(offset).
		Limit(limit).
		Pluck("msisdn", &msisdns).Error
	if err != nil {
		return nil, fmt.Errorf("page %s at %d: %w", r.opts.TableName, offset, err)
	}

	done(len(msisdns))
	return msisdns, nil
}

// SubscribersWithoutAssessment lists subscribers that have never been assessed
func (r *QueryRepository) SubscribersWithoutAssessment(ctx context.Context, offset, limit int) ([]string, error) {
	q, err := namedQuery(QuerySubscribersWithoutAssessment)
	if err != nil {
		return nil, err
	}
	done := r.timed(ctx, QuerySubscribersWithoutAssessment)

	msisdns := []string{}
	if err := r.db.WithContext(ctx).Raw(q, false, false, limit, offset).Scan(&msisdns).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", QuerySubscribersWithoutAssessment, err)
	}

	done(len(msisdns))
	return msisdns, nil
}

// SubscriberByMSISDN finds a live subscriber by its normalized MSISDN
func (r *QueryRepository) SubscriberByMSISDN(ctx context.Context, msisdn string) (*models.Subscriber, error) {
	var sub models.Subscriber
	err := r.db.WithContext(ctx).
		Where("msisdn = ? AND deleted = ?", msisdn, false).
		Take(&sub).Error
	if err != nil {
		return nil, notFound(err, "subscriber "+msisdn)
	}
	return &sub, nil
}

// AssessmentBySubscriber finds the live assessment of a subscriber
func (r *QueryRepository) AssessmentBySubscriber(ctx context.Context, subscriberPK int64) (*models.SubscriberAssessment, error) {
	var a models.SubscriberAssessment
	err := r.db.WithContext(ctx).
		Where("subscriber_fk = ? AND deleted = ?", subscriberPK, false).
		Take(&a).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("assessment of subscriber %d", subscriberPK))
	}
	return &a, nil
}

// BorrowableAmountsAscending returns the credit ladder, cheapest tier first
func (r *QueryRepository) BorrowableAmountsAscending(ctx context.Context) ([]*models.BorrowableAmount, error) {
	done := r.timed(ctx, "borrowable_amounts")

	amounts := []*models.BorrowableAmount{}
	err := r.db.WithContext(ctx).
		Where("deleted = ?", false).
		Order("amount ASC").
		Find(&amounts).Error
	if err != nil {
		return nil, fmt.Errorf("borrowable amounts: %w", err)
	}
	if amounts == nil {
		amounts = []*models.BorrowableAmount{}
	}

	done(len(amounts))
	return amounts, nil
}

// SettingByName finds a live setting
func (r *QueryRepository) SettingByName(ctx context.Context, name string) (*models.Setting, error) {
	var s models.Setting
	err := r.db.WithContext(ctx).
		Where("name = ? AND deleted = ?", name, false).
		Take(&s).Error
	if err != nil {
		return nil, notFound(err, "setting "+name)
	}
	return &s, nil
}

// CreateOrGetSetting inserts the setting unless one with that name exists and
// returns whichever row is stored
func (r *QueryRepository) CreateOrGetSetting(ctx context.Context, name, value, description string, typ models.SettingType) (*models.Setting, error) {
	s := &models.Setting{
		Name:        name,
		Value:       value,
		Description: description,
		Type:        typ,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(s).Error
	if err != nil {
		return nil, fmt.Errorf("create setting %s: %w", name, err)
	}
	return r.SettingByName(ctx, name)
}

// RefreshMaterializedView rebuilds a materialized view. ctx bounds the refresh.
func (r *QueryRepository) RefreshMaterializedView(ctx context.Context, name string) error {
	if err := validIdentifier(name); err != nil {
		return err
	}
	done := r.timed(ctx, "refresh_view")

	if err := r.db.WithContext(ctx).Exec("REFRESH MATERIALIZED VIEW " + name).Error; err != nil {
		return fmt.Errorf("refresh %s: %w", name, err)
	}

	done(0)
	return nil
}

// CountOf counts the live rows of T
func CountOf[T any](ctx context.Context, r *QueryRepository) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(new(T)).Where("deleted = ?", false).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count %T: %w", *new(T), err)
	}
	return n, nil
}

// ByPrimaryKey loads the live row of T with the given primary key
func ByPrimaryKey[T any](ctx context.Context, r *QueryRepository, pk int64) (*T, error) {
	var out T
	err := r.db.WithContext(ctx).Where("pk = ? AND deleted = ?", pk, false).Take(&out).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("%T %d", out, pk))
	}
	return &out, nil
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, repositories.ErrNotFound)
	}
	return fmt.Errorf("find %s: %w", what, err)
}

var (
	_ repositories.SubscriberQueryRepository = (*QueryRepository)(nil)
	_ repositories.SettingRepository         = (*QueryRepository)(nil)
	_ repositories.ViewRepository            = (*QueryRepository)(nil)
)
