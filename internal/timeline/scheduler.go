package timeline

import (
	"context"
	"sync"
	"time"
)

// Reason names what changed since the last layout pass.
type Reason string

const (
	ContainerResize Reason = "container_resize"
	AnchorResize    Reason = "anchor_resize"
	WindowResize    Reason = "window_resize"
	Scroll          Reason = "scroll"
	CountChange     Reason = "count_change"
)

// Scheduler coalesces layout triggers so at most one recompute runs per
// frame. Any number of Trigger calls between two frames produce a single
// call to the recompute func.
type Scheduler struct {
	recompute func()

	mu      sync.Mutex
	pending bool
	counts  map[Reason]int
	runs    int
}

// NewScheduler returns a scheduler that calls recompute on flush.
func NewScheduler(recompute func()) *Scheduler {
	return &Scheduler{recompute: recompute, counts: make(map[Reason]int)}
}

// Trigger marks a recompute as pending. It reports whether this call
// scheduled it; false means one was already waiting for the next frame.
func (s *Scheduler) Trigger(r Reason) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[r]++
	if s.pending {
		return false
	}
	s.pending = true
	return true
}

// Pending reports whether a recompute is waiting.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Flush runs the pending recompute, if any, and reports whether it ran.
func (s *Scheduler) Flush() bool {
	s.mu.Lock()
	if !s.pending {
		s.mu.Unlock()
		return false
	}
	s.pending = false
	s.runs++
	s.mu.Unlock()

	s.recompute()
	return true
}

// Run flushes once per frame until ctx is done or frames closes.
func (s *Scheduler) Run(ctx context.Context, frames <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-frames:
			if !ok {
				return
			}
			s.Flush()
		}
	}
}

// Stats returns how many triggers of each reason were seen and how many
// recomputes actually ran.
func (s *Scheduler) Stats() (map[Reason]int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[Reason]int, len(s.counts))
	for k, v := range s.counts {
		counts[k] = v
	}
	return counts, s.runs
}
