package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream down")

func fail(context.Context) error { return errUpstream }
func ok(context.Context) error   { return nil }

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerOptions{FailThreshold: 2, Cooldown: time.Minute})

	for i := 0; i < 2; i++ {
		if err := b.Call(context.Background(), fail); !errors.Is(err, errUpstream) {
			t.Fatalf("call %d: expected upstream error, got %v", i, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	called := false
	err := b.Call(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("open breaker must reject without calling, err=%v called=%v", err, called)
	}
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	now := time.Unix(1000, 0)
	b := NewBreaker(BreakerOptions{FailThreshold: 1, Cooldown: 10 * time.Second})
	b.now = func() time.Time { return now }

	_ = b.Call(context.Background(), fail)
	if b.State() != StateOpen {
		t.Fatalf("expected open")
	}

	now = now.Add(11 * time.Second)
	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open, got %s", b.State())
	}

	// A failed probe reopens immediately.
	_ = b.Call(context.Background(), fail)
	if b.State() != StateOpen {
		t.Fatalf("failed probe should reopen, got %s", b.State())
	}

	now = now.Add(11 * time.Second)
	if err := b.Call(context.Background(), ok); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("successful probe should close, got %s", b.State())
	}
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	b := NewBreaker(BreakerOptions{FailThreshold: 1, Cooldown: time.Minute})

	err := b.Call(context.Background(), func(context.Context) error { return context.Canceled })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("cancellation must not trip the breaker, got %s", b.State())
	}
}

func TestNilBreakerRunsCall(t *testing.T) {
	var b *Breaker
	if err := b.Call(context.Background(), fail); !errors.Is(err, errUpstream) {
		t.Fatalf("expected passthrough, got %v", err)
	}
}

func TestSuccessResetsFailures(t *testing.T) {
	b := NewBreaker(BreakerOptions{FailThreshold: 2, Cooldown: time.Minute})
	_ = b.Call(context.Background(), fail)
	_ = b.Call(context.Background(), ok)
	_ = b.Call(context.Background(), fail)
	if b.State() != StateClosed {
		t.Fatalf("non-consecutive failures should not open, got %s", b.State())
	}
}
