// Package scheduler runs periodic and delayed work on behalf of the
// poller. Every goroutine it starts is tracked so shutdown can wait for
// in-flight work.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// Scheduler owns a set of cancellable one-shot timers and tracked
// goroutines.
type Scheduler struct {
	mu      sync.Mutex
	wg      sync.WaitGroup
	timers  map[uint64]*time.Timer
	nextID  uint64
	stopped bool
}

// New creates a new scheduler.
func New() *Scheduler {
	return &Scheduler{
		timers: map[uint64]*time.Timer{},
	}
}

// Every calls fn in a tracked goroutine on each tick of interval until
// ctx is done. It blocks. Overlap between calls is the caller's concern.
func (s *Scheduler) Every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Go(fn)
		}
	}
}

// After runs fn once after delay in a tracked goroutine. The returned
// cancel func prevents fn from running if it has not started yet.
func (s *Scheduler) After(delay time.Duration, fn func()) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return func() {}
	}

	id := s.nextID
	s.nextID++
	s.wg.Add(1)
	s.timers[id] = time.AfterFunc(delay, func() {
		if !s.claim(id) {
			return
		}
		defer s.wg.Done()
		fn()
	})

	return func() {
		if s.claim(id) {
			s.wg.Done()
		}
	}
}

// Go runs fn in a tracked goroutine. It is a no-op after Stop.
func (s *Scheduler) Go(fn func()) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		fn()
	}()
}

// Pending returns the number of one-shot tasks that have not fired.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels pending one-shots and refuses new work. Already running
// goroutines are not interrupted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	ids := make([]uint64, 0, len(s.timers))
	for id := range s.timers {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		if s.claim(id) {
			s.wg.Done()
		}
	}
}

// Wait blocks until every tracked goroutine and fired one-shot returns.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// claim removes the timer from the pending set. Exactly one of the timer
// callback and cancel wins the claim and owns the WaitGroup slot.
func (s *Scheduler) claim(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer, ok := s.timers[id]
	if !ok {
		return false
	}
	timer.Stop()
	delete(s.timers, id)
	return true
}
