// Package scheduler owns the process-wide background tasks (payment
// polling, expiry sweeping) with an explicit start/stop lifecycle instead
// of ambient global timers.  Each task carries its own run-lock so a
// still-running previous invocation is never overlapped by the next tick.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// task is one periodic job.
type task struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context)
	mu       sync.Mutex // run-lock: held for the duration of one invocation
}

// Scheduler drives a set of periodic tasks.  Add tasks before Start; Stop
// cancels the internal context and waits for in-flight invocations.
type Scheduler struct {
	tasks  []*task
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns an empty Scheduler.
func New() *Scheduler { return &Scheduler{} }

// Add registers a periodic task under the given name.
func (s *Scheduler) Add(name string, interval time.Duration, fn func(ctx context.Context)) {
	s.tasks = append(s.tasks, &task{name: name, interval: interval, fn: fn})
}

// Start launches one goroutine per task.  Each tick attempts the task's
// run-lock; if the previous invocation is still running the tick is
// skipped and logged rather than stacked.
func (s *Scheduler) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	for _, t := range s.tasks {
		t := t
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			ticker := time.NewTicker(t.interval)
			defer ticker.Stop()
			log.Printf("scheduler: %s every %s", t.name, t.interval)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					s.runOnce(ctx, t)
				}
			}
		}()
	}
}

func (s *Scheduler) runOnce(ctx context.Context, t *task) {
	if !t.mu.TryLock() {
		log.Printf("scheduler: %s still running, skipping tick", t.name)
		return
	}
	defer t.mu.Unlock()
	t.fn(ctx)
}

// Stop cancels all tasks and blocks until in-flight invocations return.
// It is safe to call Stop without a prior Start.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
}
