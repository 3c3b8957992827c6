package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amishk599/skywatch/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// counter returns an op that calls fn with the 1-based attempt number.
func counter(calls *int, fn func(attempt int) (string, error)) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		*calls++
		return fn(*calls)
	}
}

func TestDo_SucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	r := NewRetrier(2, 10*time.Millisecond, discardLogger())

	got, err := Do(context.Background(), r, "status", counter(&calls, func(int) (string, error) {
		return "ok", nil
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Fatalf("got %q, want ok", got)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDo_RetriesOn5xx_SucceedsOnSecondAttempt(t *testing.T) {
	calls := 0
	r := NewRetrier(2, 10*time.Millisecond, discardLogger())

	got, err := Do(context.Background(), r, "history", counter(&calls, func(attempt int) (string, error) {
		if attempt == 1 {
			return "", &model.HTTPError{StatusCode: 503, Err: errors.New("service unavailable")}
		}
		return "files", nil
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "files" {
		t.Fatalf("got %q, want files", got)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestDo_DoesNotRetryOn4xx(t *testing.T) {
	calls := 0
	r := NewRetrier(2, 10*time.Millisecond, discardLogger())

	_, err := Do(context.Background(), r, "files", counter(&calls, func(int) (string, error) {
		return "", &model.HTTPError{StatusCode: 404, Err: errors.New("not found")}
	}))
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 404 {
		t.Fatalf("expected HTTPError with status 404, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", calls)
	}
}

func TestDo_DoesNotRetryAPIError(t *testing.T) {
	calls := 0
	r := NewRetrier(2, 10*time.Millisecond, discardLogger())

	_, err := Do(context.Background(), r, "status", counter(&calls, func(int) (string, error) {
		return "", &model.APIError{StatusCode: 500, Message: "boom"}
	}))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDo_GivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	r := NewRetrier(2, 10*time.Millisecond, discardLogger())

	_, err := Do(context.Background(), r, "status", counter(&calls, func(int) (string, error) {
		return "", &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}))
	if err == nil {
		t.Fatal("expected error after max retries, got nil")
	}
	// 1 initial + 2 retries = 3
	if calls != 3 {
		t.Fatalf("expected 3 calls (1 + 2 retries), got %d", calls)
	}
}

func TestDo_RespectsContextCancellation(t *testing.T) {
	calls := 0
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRetrier(2, time.Second, discardLogger())
	_, err := Do(ctx, r, "status", counter(&calls, func(int) (string, error) {
		return "", &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestDo_NilRetrierRunsOnce(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), nil, "status", counter(&calls, func(int) (string, error) {
		return "", errors.New("connection reset")
	}))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestBackoffDelay_PrefersRetryAfter(t *testing.T) {
	r := NewRetrier(2, time.Second, discardLogger())
	err := &model.HTTPError{StatusCode: 429, RetryAfter: 7 * time.Second}
	if d := r.backoffDelay(1, err); d != 7*time.Second {
		t.Errorf("backoffDelay = %v, want 7s", d)
	}
}

func TestBackoffDelay_ExponentialWithJitter(t *testing.T) {
	r := NewRetrier(3, time.Second, discardLogger())
	err := errors.New("timeout")
	for attempt, base := range map[int]time.Duration{1: time.Second, 2: 2 * time.Second, 3: 4 * time.Second} {
		d := r.backoffDelay(attempt, err)
		lo := time.Duration(float64(base) * 0.7)
		hi := time.Duration(float64(base) * 1.3)
		if d < lo || d > hi {
			t.Errorf("attempt %d: delay %v outside [%v, %v]", attempt, d, lo, hi)
		}
	}
}
