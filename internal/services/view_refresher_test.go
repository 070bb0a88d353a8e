package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingViews struct {
	release chan struct{}
	calls   atomic.Int32
	name    atomic.Value
	err     error
}

func (v *blockingViews) RefreshMaterializedView(ctx context.Context, name string) error {
	v.calls.Add(1)
	v.name.Store(name)
	if v.release != nil {
		select {
		case <-v.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return v.err
}

func TestViewRefresherRejectsConcurrentTrigger(t *testing.T) {
	views := &blockingViews{release: make(chan struct{})}
	r := NewViewRefresher(views, "subscriber_assessment_proxy", time.Minute)

	assert.True(t, r.Trigger())
	require.Eventually(t, func() bool { return views.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	assert.True(t, r.InFlight())
	assert.False(t, r.Trigger())
	assert.ErrorIs(t, r.RefreshNow(context.Background()), ErrRefreshRunning)

	close(views.release)
	r.Wait()

	assert.False(t, r.InFlight())
	assert.Equal(t, int32(1), views.calls.Load())
	assert.Equal(t, "subscriber_assessment_proxy", views.name.Load())

	assert.True(t, r.Trigger())
	r.Wait()
	assert.Equal(t, int32(2), views.calls.Load())
}

func TestViewRefresherTimeout(t *testing.T) {
	views := &blockingViews{release: make(chan struct{})}
	r := NewViewRefresher(views, "v", 20*time.Millisecond)

	err := r.RefreshNow(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, r.InFlight())
}

func TestViewRefresherFailureIsNotRetried(t *testing.T) {
	views := &blockingViews{err: errors.New("permission denied")}
	r := NewViewRefresher(views, "v", time.Minute)

	assert.True(t, r.Trigger())
	r.Wait()
	assert.Equal(t, int32(1), views.calls.Load())
	assert.False(t, r.InFlight())

	assert.Error(t, r.RefreshNow(context.Background()))
}
