package services

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/mtn-ras-backend/internal/metrics"
	"golang.org/x/sync/semaphore"
)

// ErrAccessTimeout is returned when the coordinator could not be entered within its access budget
var ErrAccessTimeout = errors.New("coordinator access timed out")

// exclusiveWeight is the semaphore size; a writer takes all of it, a reader one unit
const exclusiveWeight = 1 << 30

// accessLock is a reader/writer lock whose acquisition gives up after a timeout.
// The semaphore queues waiters in order, so a waiting writer holds back later readers.
type accessLock struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

func newAccessLock(timeout time.Duration) *accessLock {
	return &accessLock{
		sem:     semaphore.NewWeighted(exclusiveWeight),
		timeout: timeout,
	}
}

func (l *accessLock) shared(ctx context.Context) (func(), error) {
	return l.acquire(ctx, 1)
}

func (l *accessLock) exclusive(ctx context.Context) (func(), error) {
	return l.acquire(ctx, exclusiveWeight)
}

func (l *accessLock) acquire(ctx context.Context, n int64) (func(), error) {
	waitCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	if err := l.sem.Acquire(waitCtx, n); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		metrics.CoordinatorTimeoutsTotal.Inc()
		return nil, ErrAccessTimeout
	}
	return func() { l.sem.Release(n) }, nil
}
