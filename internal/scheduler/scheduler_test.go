package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTaskRunsPeriodically(t *testing.T) {
	var runs atomic.Int32
	s := New()
	s.Add("counter", 10*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
	})
	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool { return runs.Load() >= 3 },
		time.Second, 5*time.Millisecond)
}

func TestRunLockSkipsOverlappingTicks(t *testing.T) {
	var running atomic.Int32
	var overlapped atomic.Bool
	release := make(chan struct{})

	s := New()
	s.Add("slow", 5*time.Millisecond, func(ctx context.Context) {
		if running.Add(1) > 1 {
			overlapped.Store(true)
		}
		defer running.Add(-1)
		select {
		case <-release:
		case <-ctx.Done():
		}
	})
	s.Start(context.Background())

	// Let several ticks elapse while the first invocation is stuck.
	time.Sleep(50 * time.Millisecond)
	close(release)
	s.Stop()

	assert.False(t, overlapped.Load(), "ticks must never stack invocations")
}

func TestStopWaitsForInFlight(t *testing.T) {
	var finished atomic.Bool
	started := make(chan struct{})

	s := New()
	s.Add("slow", 5*time.Millisecond, func(ctx context.Context) {
		select {
		case started <- struct{}{}:
		default:
		}
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
	})
	s.Start(context.Background())
	<-started
	s.Stop()

	assert.True(t, finished.Load(), "Stop returns only after the task finished")
}

func TestStopWithoutStart(t *testing.T) {
	s := New()
	s.Stop()
}
