package monitor

import (
	"sync"
	"time"
)

// Backoff adapts the delay between polling cycles to upstream pressure.
// Rate-limit signals double the delay up to the ceiling; calm cycles relax
// it stepwise back toward the floor.
type Backoff struct {
	mu   sync.Mutex
	cur  time.Duration
	min  time.Duration
	max  time.Duration
	step time.Duration
}

// NewBackoff creates a Backoff starting at the floor.
func NewBackoff(min, max, step time.Duration) *Backoff {
	if min <= 0 {
		min = 5 * time.Second
	}
	if max < min {
		max = min
	}
	if step <= 0 {
		step = min
	}
	return &Backoff{cur: min, min: min, max: max, step: step}
}

// Next returns the delay before the next cycle.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cur
}

// Harden doubles the delay, bounded by the ceiling.
func (b *Backoff) Harden() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cur *= 2
	if b.cur > b.max {
		b.cur = b.max
	}
}

// Relax shortens the delay by one step, bounded by the floor.
func (b *Backoff) Relax() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cur -= b.step
	if b.cur < b.min {
		b.cur = b.min
	}
}
