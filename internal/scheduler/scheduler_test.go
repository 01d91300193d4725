package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"subleet-admin/internal/core/lifecycle"
	"subleet-admin/internal/pkg/config"
)

type countingReconciler struct {
	calls int32
	block chan struct{}
	err   error
}

func (r *countingReconciler) Reconcile(ctx context.Context) (*lifecycle.ReconcileReport, error) {
	atomic.AddInt32(&r.calls, 1)
	if r.block != nil {
		<-r.block
	}
	if r.err != nil {
		return nil, r.err
	}
	return &lifecycle.ReconcileReport{Scanned: 1, Recovered: 1}, nil
}

func TestStartDisabled(t *testing.T) {
	s := NewScheduler(&countingReconciler{}, zap.NewNop())
	require.NoError(t, s.Start(&config.ReconcileConfig{Enabled: false}))
	assert.Empty(t, s.cronSchedules)
}

func TestStartRejectsBadCron(t *testing.T) {
	s := NewScheduler(&countingReconciler{}, zap.NewNop())
	assert.Error(t, s.Start(&config.ReconcileConfig{Enabled: true, Cron: "every minute"}))
}

func TestScheduledReconcileRuns(t *testing.T) {
	r := &countingReconciler{}
	s := NewScheduler(r, zap.NewNop())
	require.NoError(t, s.Start(&config.ReconcileConfig{Enabled: true, Cron: "* * * * * *"}))
	defer s.Stop()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&r.calls) > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestTriggerSkipsOverlappingRun(t *testing.T) {
	r := &countingReconciler{block: make(chan struct{})}
	s := NewScheduler(r, zap.NewNop())

	done := make(chan struct{})
	go func() {
		s.TriggerReconcile()
		close(done)
	}()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&r.calls) == 1 }, time.Second, 10*time.Millisecond)

	// 第一轮仍在执行, 第二次直接跳过
	s.TriggerReconcile()
	assert.Equal(t, int32(1), atomic.LoadInt32(&r.calls))

	close(r.block)
	<-done
	s.TriggerReconcile()
	assert.Equal(t, int32(2), atomic.LoadInt32(&r.calls))
}

func TestTriggerLogsError(t *testing.T) {
	r := &countingReconciler{err: errors.New("db down")}
	s := NewScheduler(r, zap.NewNop())
	s.TriggerReconcile()
	assert.Equal(t, int32(1), atomic.LoadInt32(&r.calls))
}
