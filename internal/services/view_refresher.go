package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ArowuTest/mtn-ras-backend/internal/metrics"
	"github.com/ArowuTest/mtn-ras-backend/internal/repositories"
)

// ErrRefreshRunning is returned by RefreshNow while another refresh is in flight
var ErrRefreshRunning = errors.New("view refresh already running")

// ViewRefresher rebuilds the assessment materialized view, at most one refresh at a time
type ViewRefresher struct {
	views    repositories.ViewRepository
	viewName string
	timeout  time.Duration

	inFlight atomic.Bool
	wg       sync.WaitGroup
}

func NewViewRefresher(views repositories.ViewRepository, viewName string, timeout time.Duration) *ViewRefresher {
	return &ViewRefresher{
		views:    views,
		viewName: viewName,
		timeout:  timeout,
	}
}

// Trigger starts a background refresh and returns at once. It reports false
// without doing anything when a refresh is already running.
func (r *ViewRefresher) Trigger() bool {
	if !r.inFlight.CompareAndSwap(false, true) {
		metrics.ViewRefreshTotal.WithLabelValues("rejected").Inc()
		slog.Info("View refresh already in flight", "view", r.viewName)
		return false
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.inFlight.Store(false)
		// failures are only logged; the next cycle triggers again
		_ = r.refresh(context.Background())
	}()
	return true
}

// RefreshNow refreshes synchronously under the same timeout and exclusion as Trigger
func (r *ViewRefresher) RefreshNow(ctx context.Context) error {
	if !r.inFlight.CompareAndSwap(false, true) {
		metrics.ViewRefreshTotal.WithLabelValues("rejected").Inc()
		return ErrRefreshRunning
	}
	defer r.inFlight.Store(false)
	return r.refresh(ctx)
}

// InFlight reports whether a refresh is currently running
func (r *ViewRefresher) InFlight() bool {
	return r.inFlight.Load()
}

// Wait blocks until background refreshes started by Trigger have finished
func (r *ViewRefresher) Wait() {
	r.wg.Wait()
}

func (r *ViewRefresher) refresh(ctx context.Context) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	metrics.ViewRefreshInFlight.Set(1)
	defer metrics.ViewRefreshInFlight.Set(0)

	start := time.Now()
	slog.Info("Refreshing materialized view", "view", r.viewName)
	if err := r.views.RefreshMaterializedView(ctx, r.viewName); err != nil {
		metrics.ViewRefreshTotal.WithLabelValues("failed").Inc()
		slog.Error("Materialized view refresh failed", "view", r.viewName, "error", err, "elapsed", time.Since(start))
		return err
	}
	metrics.ViewRefreshTotal.WithLabelValues("ok").Inc()
	slog.Info("Materialized view refreshed", "view", r.viewName, "elapsed", time.Since(start))
	return nil
}
