package ratelimit

import (
	"fmt"
	"sync"
	"time"

	errs "steamreviews/pkg/errors"
)

// Policy is the cooldown policy of a crawl: after every MaxQueriesPerWindow
// numbered queries the crawl pauses for Cooldown.
type Policy struct {
	MaxQueriesPerWindow int
	Cooldown            time.Duration
}

// NewPolicy creates a validated policy
func NewPolicy(maxQueries int, cooldown time.Duration) (Policy, error) {
	p := Policy{MaxQueriesPerWindow: maxQueries, Cooldown: cooldown}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate reports a ConfigurationError when either field is not positive.
func (p Policy) Validate() error {
	if p.MaxQueriesPerWindow <= 0 {
		return errs.NewConfigurationError("rate_limit.max_queries_per_window",
			"must be positive, got %d", p.MaxQueriesPerWindow)
	}
	if p.Cooldown <= 0 {
		return errs.NewConfigurationError("rate_limit.cooldown",
			"must be positive, got %s", p.Cooldown)
	}
	return nil
}

// Due reports whether a cooldown must be taken before query number n.
// Queries are numbered from 1.
func (p Policy) Due(n int) bool {
	return n > 0 && n%p.MaxQueriesPerWindow == 0
}

// Cooldowns returns how many cooldowns a crawl of n queries takes.
func (p Policy) Cooldowns(n int) int {
	if n <= 0 || p.MaxQueriesPerWindow <= 0 {
		return 0
	}
	return n / p.MaxQueriesPerWindow
}

func (p Policy) String() string {
	return fmt.Sprintf("%d queries / %s cooldown", p.MaxQueriesPerWindow, p.Cooldown)
}

// Waiter suspends the calling goroutine. Pauses are not cancellable.
type Waiter interface {
	Wait(d time.Duration)
}

// SleepWaiter waits with time.Sleep
type SleepWaiter struct{}

// Wait blocks for d
func (SleepWaiter) Wait(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}

// RecordingWaiter records requested pauses without sleeping. It is safe for
// concurrent use.
type RecordingWaiter struct {
	mu    sync.Mutex
	waits []time.Duration
}

// NewRecordingWaiter creates an empty RecordingWaiter
func NewRecordingWaiter() *RecordingWaiter {
	return &RecordingWaiter{}
}

// Wait records d and returns immediately
func (rw *RecordingWaiter) Wait(d time.Duration) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	rw.waits = append(rw.waits, d)
}

// Waits returns a copy of every recorded pause in order
func (rw *RecordingWaiter) Waits() []time.Duration {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	out := make([]time.Duration, len(rw.waits))
	copy(out, rw.waits)
	return out
}

// Count returns how many pauses of exactly d were recorded
func (rw *RecordingWaiter) Count(d time.Duration) int {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	n := 0
	for _, w := range rw.waits {
		if w == d {
			n++
		}
	}
	return n
}

// Total returns the sum of all recorded pauses
func (rw *RecordingWaiter) Total() time.Duration {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	var total time.Duration
	for _, w := range rw.waits {
		total += w
	}
	return total
}

// Reset clears the recorded pauses
func (rw *RecordingWaiter) Reset() {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	rw.waits = rw.waits[:0]
}
