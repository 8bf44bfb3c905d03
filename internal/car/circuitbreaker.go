package car

import (
	"context"
	"sync"
	"time"

	"github.com/fathomworks/multicar-elevator/internal/errs"
)

// breakerState is one of the three circuit breaker states.
type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// circuitBreaker guards the car's dial loop to the dispatcher, adapted
// from the teacher's elevator operation circuit breaker: too many
// consecutive dial failures trip it open for resetTimeout before letting
// a probe dial through again.
type circuitBreaker struct {
	mu           sync.Mutex
	state        breakerState
	failureCount int
	successCount int
	nextRetry    time.Time

	maxFailures   int
	resetTimeout  time.Duration
	halfOpenLimit int
}

func newCircuitBreaker(maxFailures int, resetTimeout time.Duration) *circuitBreaker {
	return &circuitBreaker{maxFailures: maxFailures, resetTimeout: resetTimeout, halfOpenLimit: 1}
}

// Execute runs operation if the breaker allows it, tracking the outcome.
func (cb *circuitBreaker) Execute(_ context.Context, operation func() error) error {
	if !cb.allow() {
		return errs.NewUnavailable("circuit breaker open: dispatcher dial suppressed", nil)
	}

	err := operation()
	if err != nil {
		cb.recordFailure()
		return err
	}
	cb.recordSuccess()
	return nil
}

func (cb *circuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case breakerClosed:
		return true
	case breakerOpen:
		if time.Now().After(cb.nextRetry) {
			cb.state = breakerHalfOpen
			cb.successCount = 0
			return true
		}
		return false
	case breakerHalfOpen:
		return cb.successCount < cb.halfOpenLimit
	default:
		return false
	}
}

func (cb *circuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount = 0
	if cb.state == breakerHalfOpen {
		cb.successCount++
		if cb.successCount >= cb.halfOpenLimit {
			cb.state = breakerClosed
		}
	}
}

func (cb *circuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	if cb.state == breakerHalfOpen {
		cb.state = breakerOpen
		cb.nextRetry = time.Now().Add(cb.resetTimeout)
		return
	}
	if cb.failureCount >= cb.maxFailures {
		cb.state = breakerOpen
		cb.nextRetry = time.Now().Add(cb.resetTimeout)
	}
}
