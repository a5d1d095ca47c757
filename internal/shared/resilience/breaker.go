// Package resilience guards calls to flaky upstreams.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerOptions configures a Breaker. Zero values take the defaults.
type BreakerOptions struct {
	// FailThreshold consecutive failures open the breaker.
	FailThreshold int
	// Cooldown is how long the breaker stays open before one probe is allowed.
	Cooldown time.Duration
	// Ignore reports errors that should not count as upstream failures.
	Ignore func(error) bool
}

var DefaultBreakerOptions = BreakerOptions{
	FailThreshold: 5,
	Cooldown:      30 * time.Second,
}

// Breaker is a closed/open/half-open circuit breaker. Half-open admits a
// single probe.
type Breaker struct {
	mu       sync.Mutex
	opts     BreakerOptions
	state    State
	failures int
	openedAt time.Time
	probing  bool
	now      func() time.Time
}

func NewBreaker(opts BreakerOptions) *Breaker {
	if opts.FailThreshold <= 0 {
		opts.FailThreshold = DefaultBreakerOptions.FailThreshold
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultBreakerOptions.Cooldown
	}
	if opts.Ignore == nil {
		opts.Ignore = IsCallerCancellation
	}
	return &Breaker{opts: opts, now: time.Now}
}

// IsCallerCancellation matches context.Canceled, which the caller caused.
func IsCallerCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState()
}

// currentState must be called with mu held.
func (b *Breaker) currentState() State {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.opts.Cooldown {
		b.state = StateHalfOpen
		b.probing = false
	}
	return b.state
}

// Call runs f unless the breaker is open. A nil breaker always runs f.
func (b *Breaker) Call(ctx context.Context, f func(context.Context) error) error {
	if b == nil {
		return f(ctx)
	}

	b.mu.Lock()
	switch b.currentState() {
	case StateOpen:
		b.mu.Unlock()
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.probing {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.probing = true
	}
	b.mu.Unlock()

	err := f(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case err == nil:
		b.state = StateClosed
		b.failures = 0
		b.probing = false
	case b.opts.Ignore(err):
		b.probing = false
	default:
		b.failures++
		if b.state == StateHalfOpen || b.failures >= b.opts.FailThreshold {
			b.state = StateOpen
			b.openedAt = b.now()
			b.failures = 0
			b.probing = false
		}
	}
	return err
}
