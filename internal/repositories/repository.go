package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/mtn-ras-backend/internal/models"
)

// ErrNotFound is returned (wrapped) when a lookup matches nothing. Query failures
// are reported as other errors so callers can tell the two apart.
var ErrNotFound = errors.New("not found")

// SubscriberStateRepository defines the operations on the subscriber_state collection
type SubscriberStateRepository interface {
	StateByMSISDN(ctx context.Context, msisdn string) (*models.SubscriberState, error)
	CreateState(ctx context.Context, msisdn string, currentBalance float64) (*models.SubscriberState, error)
}

// SubscriberHistoryRepository defines the operations on the subscriber_history ledger
type SubscriberHistoryRepository interface {
	HistoryByMSISDN(ctx context.Context, msisdn string) ([]*models.SubscriberHistory, error)
	HistorySortedByMSISDN(ctx context.Context, msisdn string, limit int64) ([]*models.SubscriberHistory, error)
	EarliestRechargeTime(ctx context.Context, msisdn string) (time.Time, error)
	InsertHistory(ctx context.Context, docs ...*models.SubscriberHistory) (int, error)
}

// SubscriberQueryRepository defines the relational reads used by the batch cycle
type SubscriberQueryRepository interface {
	NextUnassessedPage(ctx context.Context, afterMSISDN string, pageSize int) ([]string, error)
	SubscribersPage(ctx context.Context, afterPK int64, pageSize int) ([]*models.Subscriber, error)
	EvalTablePage(ctx context.Context, offset, limit int) ([]string, error)
	SubscribersWithoutAssessment(ctx context.Context, offset, limit int) ([]string, error)
	SubscriberByMSISDN(ctx context.Context, msisdn string) (*models.Subscriber, error)
	AssessmentBySubscriber(ctx context.Context, subscriberPK int64) (*models.SubscriberAssessment, error)
	BorrowableAmountsAscending(ctx context.Context) ([]*models.BorrowableAmount, error)
}

// SettingRepository defines named-setting operations
type SettingRepository interface {
	SettingByName(ctx context.Context, name string) (*models.Setting, error)
	CreateOrGetSetting(ctx context.Context, name, value, description string, typ models.SettingType) (*models.Setting, error)
}

// ViewRepository refreshes precomputed relations
type ViewRepository interface {
	RefreshMaterializedView(ctx context.Context, name string) error
}

// CursorRepository persists the batch cycle position between invocations.
// Load returns "" when no cycle is in progress.
type CursorRepository interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, cursor string) error
	Reset(ctx context.Context) error
}
