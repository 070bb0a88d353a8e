package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ArowuTest/mtn-ras-backend/internal/logger"
	"github.com/ArowuTest/mtn-ras-backend/internal/metrics"
	"github.com/ArowuTest/mtn-ras-backend/internal/models"
	"github.com/ArowuTest/mtn-ras-backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrCycleRunning is returned when RunCycle is called while a cycle is in progress
	ErrCycleRunning = errors.New("assessment cycle already running")
	// ErrStoreUnavailable marks failures that mean a backing store cannot be reached
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Refresher is triggered when a cycle has walked the whole population
type Refresher interface {
	Trigger() bool
}

// BatchOptions tunes the cycle loop
type BatchOptions struct {
	PageSize  int
	BreakTime time.Duration
	// MaxPages stops a cycle after that many pages, leaving the cursor for the next
	// invocation. Zero walks until the population is exhausted.
	MaxPages int
}

// CycleReport summarises one RunCycle call
type CycleReport struct {
	ID          string        `json:"id"`
	StartCursor string        `json:"startCursor"`
	Cursor      string        `json:"cursor"`
	Pages       int           `json:"pages"`
	Processed   int           `json:"processed"`
	Failed      int           `json:"failed"`
	Completed   bool          `json:"completed"`
	Duration    time.Duration `json:"duration"`
}

// BatchService drives the assessment cycle: page the population, score each
// subscriber from its document history and commit the result.
type BatchService struct {
	source      PageSource
	queries     repositories.SubscriberQueryRepository
	states      repositories.SubscriberStateRepository
	history     repositories.SubscriberHistoryRepository
	coordinator AssessmentStore
	scorer      Scorer
	cursors     repositories.CursorRepository
	refresher   Refresher
	opts        BatchOptions

	running atomic.Bool
	wg      sync.WaitGroup
	last    atomic.Pointer[CycleReport]
	now     func() time.Time
}

// NewBatchService wires the cycle dependencies
func NewBatchService(
	source PageSource,
	queries repositories.SubscriberQueryRepository,
	states repositories.SubscriberStateRepository,
	history repositories.SubscriberHistoryRepository,
	coordinator AssessmentStore,
	scorer Scorer,
	cursors repositories.CursorRepository,
	refresher Refresher,
	opts BatchOptions,
) *BatchService {
	if opts.PageSize <= 0 {
		opts.PageSize = 25000
	}
	return &BatchService{
		source:      source,
		queries:     queries,
		states:      states,
		history:     history,
		coordinator: coordinator,
		scorer:      scorer,
		cursors:     cursors,
		refresher:   refresher,
		opts:        opts,
		now:         time.Now,
	}
}

// Running reports whether a cycle is in progress
func (s *BatchService) Running() bool {
	return s.running.Load()
}

// LastReport returns the report of the most recent finished cycle, or nil
func (s *BatchService) LastReport() *CycleReport {
	return s.last.Load()
}

// RunCycle processes pages from the persisted cursor until the population is
// exhausted (or MaxPages is reached). Single subscribers that fail are counted and
// skipped; a page query failure or an unreachable store ends the cycle with an error
// and the cursor left at the last completed page.
func (s *BatchService) RunCycle(ctx context.Context) (*CycleReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrCycleRunning
	}
	defer s.running.Store(false)
	return s.cycle(ctx)
}

// StartCycle runs a cycle in the background. It fails with ErrCycleRunning instead
// of queueing behind a cycle in progress.
func (s *BatchService) StartCycle(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrCycleRunning
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		// the outcome is logged and kept in LastReport
		_, _ = s.cycle(ctx)
	}()
	return nil
}

// Wait blocks until a cycle started by StartCycle has returned
func (s *BatchService) Wait() {
	s.wg.Wait()
}

func (s *BatchService) cycle(ctx context.Context) (*CycleReport, error) {
	start := time.Now()
	report := &CycleReport{ID: uuid.NewString()}
	ctx = logger.WithCycleID(ctx, report.ID)
	log := logger.FromContext(ctx, nil)

	err := s.run(ctx, log, report)

	report.Duration = time.Since(start)
	metrics.CycleDurationSeconds.Observe(report.Duration.Seconds())
	s.last.Store(report)

	switch {
	case err != nil:
		metrics.CyclesTotal.WithLabelValues("aborted").Inc()
		log.Error("Assessment cycle aborted", "error", err, "pages", report.Pages, "processed", report.Processed, "failed", report.Failed, "cursor", report.Cursor)
		return report, err
	case report.Completed:
		metrics.CyclesTotal.WithLabelValues("completed").Inc()
	default:
		metrics.CyclesTotal.WithLabelValues("page_limit").Inc()
	}
	log.Info("Assessment cycle finished", "completed", report.Completed, "pages", report.Pages, "processed", report.Processed, "failed", report.Failed, "elapsed", report.Duration)
	return report, nil
}

func (s *BatchService) run(ctx context.Context, log *slog.Logger, report *CycleReport) error {
	ladder, err := s.queries.BorrowableAmountsAscending(ctx)
	if err != nil {
		return fmt.Errorf("load borrowable amounts: %w", err)
	}

	cursor, err := s.cursors.Load(ctx)
	if err != nil {
		return err
	}
	report.StartCursor = cursor
	report.Cursor = cursor
	log.Info("Assessment cycle started", "cursor", cursor, "page_size", s.opts.PageSize, "tiers", len(ladder))

	for {
		page, next, err := s.source.NextPage(ctx, cursor, s.opts.PageSize)
		if err != nil {
			return fmt.Errorf("fetch page after %q: %w", cursor, err)
		}

		if len(page) == 0 {
			if err := s.cursors.Reset(ctx); err != nil {
				return err
			}
			report.Cursor = ""
			report.Completed = true
			if s.refresher != nil {
				s.refresher.Trigger()
			}
			return nil
		}

		for _, msisdn := range page {
			if err := s.assess(ctx, msisdn, ladder); err != nil {
				if isUnavailable(ctx, err) {
					return err
				}
				report.Failed++
				log.Warn("Subscriber skipped", "msisdn", msisdn, "error", err)
				continue
			}
			report.Processed++
		}

		cursor = next
		if err := s.cursors.Save(ctx, cursor); err != nil {
			return err
		}
		report.Cursor = cursor
		report.Pages++
		log.Info("Page done", "page", report.Pages, "size", len(page), "cursor", cursor)

		if s.opts.MaxPages > 0 && report.Pages >= s.opts.MaxPages {
			return nil
		}
		if err := sleepCtx(ctx, s.opts.BreakTime); err != nil {
			return err
		}
	}
}

// stageError tags a per-subscriber failure with the step that failed
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func failed(stage string, err error) error {
	metrics.RecordSubscriberFailure(stage)
	return &stageError{stage: stage, err: err}
}

func (s *BatchService) assess(ctx context.Context, msisdn string, ladder []*models.BorrowableAmount) error {
	state, err := s.states.StateByMSISDN(ctx, msisdn)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return failed("fetch_state", err)
		}
		state = nil
	}

	history, err := s.history.HistorySortedByMSISDN(ctx, msisdn, 0)
	if err != nil {
		return failed("fetch_history", err)
	}

	sub, err := s.coordinator.GetOrCreateSubscriber(ctx, msisdn)
	if err != nil {
		return failed("subscriber", err)
	}

	var payType *models.PayType
	if state != nil && state.PayType != "" {
		payType = state.PayType.Ptr()
	}
	assessment, err := s.coordinator.GetOrCreateAssessment(ctx, sub, payType)
	if err != nil {
		return failed("assessment", err)
	}

	in := ScoreInput{
		Subscriber: sub,
		Assessment: assessment,
		State:      state,
		History:    history,
		Ladder:     ladder,
		Now:        s.now(),
	}
	if len(history) > 0 {
		in.FirstRecharge = history[0].RechargeTime
	}

	res, err := s.scorer.Score(ctx, in)
	if err != nil {
		return failed("score", err)
	}
	if res == nil || res.Assessment == nil {
		return failed("score", errors.New("scorer returned no assessment"))
	}

	if err := s.coordinator.CommitAssessment(ctx, res.Assessment); err != nil {
		return failed("commit", err)
	}

	metrics.SubscribersProcessedTotal.WithLabelValues("assessed").Inc()
	if res.Tier != nil {
		logger.FromContext(ctx, nil).Debug("Subscriber assessed", "msisdn", msisdn, "tier", res.Tier.Amount)
	}
	return nil
}

// isUnavailable reports whether err means the cycle cannot make progress at all
func isUnavailable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	if errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, net.ErrClosed) ||
		mongo.IsNetworkError(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
