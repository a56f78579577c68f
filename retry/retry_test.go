package retry

import (
	"errors"
	"fmt"
	"testing"
)

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	got, err := Do(10, func() (string, error) {
		calls++
		if calls <= 3 {
			return "", fmt.Errorf("transient failure %d", calls)
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if got != "ok" {
		t.Fatalf("expected %q, got %q", "ok", got)
	}
	if calls != 4 {
		t.Fatalf("expected 4 calls, got %d", calls)
	}
}

func TestDo_ExhaustsBudgetAndReturnsLastError(t *testing.T) {
	calls := 0
	_, err := Do(5, func() (int, error) {
		calls++
		return 0, fmt.Errorf("failure %d", calls)
	})
	if calls != 5 {
		t.Fatalf("expected exactly 5 attempts, got %d", calls)
	}
	if err == nil || err.Error() != "failure 5" {
		t.Fatalf("expected the final attempt's error, got %v", err)
	}
}

func TestDo_NoRetryAfterSuccess(t *testing.T) {
	calls := 0
	_, err := Do(10, func() (int, error) {
		calls++
		return 42, nil
	})
	if err != nil || calls != 1 {
		t.Fatalf("expected one call and no error, got calls=%d err=%v", calls, err)
	}
}

func TestDo_InvalidBudget(t *testing.T) {
	if _, err := Do(0, func() (int, error) { return 0, nil }); err == nil {
		t.Fatal("expected error for a zero attempt budget")
	}
}

func TestCall_UsesDefaultBudget(t *testing.T) {
	calls := 0
	sentinel := errors.New("permanent")
	_, err := Call(func() (int, error) {
		calls++
		return 0, sentinel
	})
	if calls != DefaultAttempts {
		t.Fatalf("expected %d attempts, got %d", DefaultAttempts, calls)
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected the sentinel error unmodified, got %v", err)
	}
}

func TestCallFunc(t *testing.T) {
	calls := 0
	err := CallFunc(func() error {
		calls++
		if calls < 2 {
			return errors.New("once more")
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("expected success on the second call, got calls=%d err=%v", calls, err)
	}
}
