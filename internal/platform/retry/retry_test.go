package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/tweetpulse/internal/platform/retry"
)

var fastPolicy = retry.Policy{
	MaxAttempts:      3,
	Unit:             1 * time.Millisecond,
	RateLimitBackoff: 5 * time.Millisecond,
}

func TestDo_SuccessFirstAttempt(t *testing.T) {
	_, err := retry.Do(context.Background(), fastPolicy, alwaysRetry, func() (struct{}, error) {
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	calls := 0
	_, err := retry.Do(context.Background(), fastPolicy, alwaysRetry, func() (struct{}, error) {
		calls++
		if calls < 3 {
			return struct{}{}, errors.New("transient")
		}
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ReturnsValue(t *testing.T) {
	calls := 0
	val, err := retry.Do(context.Background(), fastPolicy, alwaysRetry, func() (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if val != 42 {
		t.Fatalf("expected 42, got %d", val)
	}
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	_, err := retry.Do(context.Background(), fastPolicy, alwaysStop, func() (struct{}, error) {
		calls++
		return struct{}{}, permanent
	})
	var permErr *retry.PermanentError
	if !errors.As(err, &permErr) {
		t.Fatalf("expected PermanentError, got %T: %v", err, err)
	}
	if !errors.Is(err, permanent) {
		t.Fatalf("expected wrapped permanent error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDo_ExhaustedRetries(t *testing.T) {
	transient := errors.New("transient")
	calls := 0
	_, err := retry.Do(context.Background(), fastPolicy, alwaysRetry, func() (struct{}, error) {
		calls++
		return struct{}{}, transient
	})
	if !errors.Is(err, transient) {
		t.Fatalf("expected wrapped transient error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ContextErrorReturnedUnwrapped(t *testing.T) {
	calls := 0
	_, err := retry.Do(context.Background(), fastPolicy, alwaysRetry, func() (struct{}, error) {
		calls++
		return struct{}{}, context.Canceled
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	var permErr *retry.PermanentError
	if errors.As(err, &permErr) {
		t.Fatal("context errors must not be wrapped as permanent")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDo_CancelledDuringBackoff(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := retry.Policy{Unit: time.Hour, Clock: clock}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := retry.Do(ctx, p, alwaysRetry, func() (struct{}, error) {
			return struct{}{}, errors.New("transient")
		})
		errCh <- err
	}()

	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("waiting for backoff: %v", err)
	}
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestDo_UnboundedKeepsRetrying(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var waits []time.Duration
	p := retry.Policy{
		Unit:  time.Second,
		Clock: clock,
		OnRetry: func(_ int, _ error, _ retry.Action, backoff time.Duration) {
			waits = append(waits, backoff)
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := retry.Do(ctx, p, alwaysRetry, func() (struct{}, error) {
			calls++
			if calls < 6 {
				return struct{}{}, errors.New("transient")
			}
			return struct{}{}, nil
		})
		done <- err
	}()

	for i := 0; i < 5; i++ {
		if err := clock.BlockUntilContext(ctx, 1); err != nil {
			t.Fatalf("waiting for backoff %d: %v", i, err)
		}
		clock.Advance(time.Hour)
	}

	if err := <-done; err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 32 * time.Second}
	if len(waits) != len(want) {
		t.Fatalf("expected %d waits, got %v", len(want), waits)
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Fatalf("wait %d: expected %s, got %s", i, want[i], waits[i])
		}
	}
}

func TestPolicy_Backoff(t *testing.T) {
	p := retry.Policy{Unit: time.Second, MaxBackoff: 10 * time.Second, RateLimitBackoff: 30 * time.Second}

	cases := []struct {
		attempt int
		action  retry.Action
		want    time.Duration
	}{
		{0, retry.Retry, time.Second},
		{1, retry.Retry, 2 * time.Second},
		{3, retry.Retry, 8 * time.Second},
		{4, retry.Retry, 10 * time.Second},
		{200, retry.Retry, 10 * time.Second},
		{1, retry.After, 30 * time.Second},
	}
	for _, tc := range cases {
		if got := p.Backoff(tc.attempt, tc.action); got != tc.want {
			t.Errorf("Backoff(%d, %s) = %s, want %s", tc.attempt, tc.action, got, tc.want)
		}
	}
}

func TestPolicy_BackoffDefaultsUnit(t *testing.T) {
	if got := (retry.Policy{}).Backoff(2, retry.Retry); got != 4*time.Second {
		t.Fatalf("expected 4s, got %s", got)
	}
}

func TestDoVoid(t *testing.T) {
	calls := 0
	err := retry.DoVoid(context.Background(), fastPolicy, alwaysRetry, func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestDo_RateLimitUsesFloor(t *testing.T) {
	var got time.Duration
	p := fastPolicy
	p.MaxAttempts = 2
	p.OnRetry = func(_ int, _ error, _ retry.Action, backoff time.Duration) { got = backoff }

	_, _ = retry.Do(context.Background(), p, func(error) retry.Action { return retry.After }, func() (struct{}, error) {
		return struct{}{}, errors.New("429")
	})
	if got != 5*time.Millisecond {
		t.Fatalf("expected rate-limit floor of 5ms, got %s", got)
	}
}

func alwaysRetry(error) retry.Action { return retry.Retry }
func alwaysStop(error) retry.Action  { return retry.Stop }
