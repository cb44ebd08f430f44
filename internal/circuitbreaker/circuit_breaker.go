// Package circuitbreaker guards the external behavioral-analysis capability.
//
// The breaker opens immediately when the capability reports rate exhaustion
// and re-closes after a cooldown. This replaces a permanent lockout: once
// tripped, deep analysis resumes automatically when the cooldown elapses.
package circuitbreaker

import (
	"sync"
	"time"
)

// State is the breaker state.
type State string

const (
	// StateClosed allows calls.
	StateClosed State = "closed"
	// StateOpen blocks calls until the cooldown elapses.
	StateOpen State = "open"
)

// DefaultCooldown is how long the breaker stays open after a trip.
const DefaultCooldown = 5 * time.Minute

// Breaker is a trip-on-demand circuit breaker with timed recovery.
type Breaker struct {
	cooldown time.Duration

	mu        sync.Mutex
	state     State
	trippedAt time.Time
	tripCount int64
	now       func() time.Time
}

// New creates a closed breaker. A non-positive cooldown uses the default.
func New(cooldown time.Duration) *Breaker {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Breaker{cooldown: cooldown, state: StateClosed, now: time.Now}
}

// Allow reports whether a call may proceed. An open breaker whose cooldown
// has elapsed closes again and allows the call.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateClosed {
		return true
	}
	if b.now().Sub(b.trippedAt) >= b.cooldown {
		b.state = StateClosed
		return true
	}
	return false
}

// Trip opens the breaker, starting the cooldown. Re-tripping an open breaker
// restarts the cooldown.
func (b *Breaker) Trip() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateOpen
	b.trippedAt = b.now()
	b.tripCount++
}

// State returns the current state, accounting for an elapsed cooldown.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.trippedAt) >= b.cooldown {
		b.state = StateClosed
	}
	return b.state
}

// TripCount returns how many times the breaker has been tripped.
func (b *Breaker) TripCount() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tripCount
}

// Reset closes the breaker immediately and clears the trip counter.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.trippedAt = time.Time{}
	b.tripCount = 0
}

// SetClock overrides the breaker's time source. Used in tests.
func (b *Breaker) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}
