package llm

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/easyops/adqa-go/pkg/core/errors"
)

func TestRetry_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 3, 0, func() error {
		calls++
		return errors.ErrInvalidAPIKey
	})
	if !stderrors.Is(err, errors.ErrInvalidAPIKey) || calls != 1 {
		t.Fatalf("expected single attempt, got %d calls, err %v", calls, err)
	}
}

func TestRetry_RetriesRetryable(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 2, 0, func() error {
		calls++
		if calls < 3 {
			return errors.ErrRateLimited
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success after 3 calls, got %d calls, err %v", calls, err)
	}
}

func TestRetry_ZeroRetries(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 0, 0, func() error {
		calls++
		return errors.ErrTimeout
	})
	if !stderrors.Is(err, errors.ErrTimeout) || calls != 1 {
		t.Fatalf("expected single attempt, got %d calls", calls)
	}
}

func TestCalculateBackoff(t *testing.T) {
	if d := calculateBackoff(0, time.Second); d != 1100*time.Millisecond {
		t.Fatalf("unexpected first backoff %v", d)
	}
	if d := calculateBackoff(10, time.Second); d != 30*time.Second {
		t.Fatalf("expected cap of 30s, got %v", d)
	}
}
