package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetryConfig(maxAttempts int) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = maxAttempts
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 5 * time.Millisecond
	cfg.Jitter = 0
	return cfg
}

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), fastRetryConfig(3), func() (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" || calls != 1 {
		t.Errorf("got result=%q calls=%d", result, calls)
	}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), fastRetryConfig(3), func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 42 || calls != 3 {
		t.Errorf("got result=%d calls=%d", result, calls)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := Retry(context.Background(), fastRetryConfig(3), func() (int, error) {
		calls++
		return 0, boom
	})
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if !errors.Is(err, ErrMaxAttemptsExceeded) {
		t.Errorf("expected ErrMaxAttemptsExceeded, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
}

func TestRetry_StopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("fatal")
	cfg := fastRetryConfig(5)
	cfg.RetryIf = func(err error) bool { return !errors.Is(err, fatal) }

	calls := 0
	_, err := Retry(context.Background(), cfg, func() (int, error) {
		calls++
		return 0, fatal
	})
	if calls != 1 {
		t.Errorf("expected 1 attempt, got %d", calls)
	}
	if !errors.Is(err, fatal) {
		t.Errorf("expected fatal error, got %v", err)
	}
	if errors.Is(err, ErrMaxAttemptsExceeded) {
		t.Error("non-retryable error must not be reported as exhausted")
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Retry(ctx, fastRetryConfig(3), func() (int, error) {
		return 0, errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRetry_OnRetryCallback(t *testing.T) {
	cfg := fastRetryConfig(3)
	var attempts []int
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		attempts = append(attempts, attempt)
	}

	_, _ = Retry(context.Background(), cfg, func() (int, error) {
		return 0, errors.New("transient")
	})
	if len(attempts) != 2 {
		t.Errorf("expected 2 retry callbacks, got %v", attempts)
	}
}
