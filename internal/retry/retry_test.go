package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Factor: 2}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	out := Do(context.Background(), fastPolicy(3), func(context.Context) error {
		calls++
		return nil
	})
	if out.Err != nil || out.Attempts != 1 || calls != 1 {
		t.Fatalf("unexpected outcome %+v (calls=%d)", out, calls)
	}
}

func TestDo_RetriesTransientFailures(t *testing.T) {
	calls := 0
	out := Do(context.Background(), fastPolicy(5), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if out.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", out.Attempts)
	}
}

func TestDo_GivesUpAfterMaxAttempts(t *testing.T) {
	boom := errors.New("timeout")
	calls := 0
	out := Do(context.Background(), fastPolicy(3), func(context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(out.Err, boom) {
		t.Fatalf("err = %v", out.Err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_StopsOnPermanent(t *testing.T) {
	missing := errors.New("no such key")
	calls := 0
	out := Do(context.Background(), fastPolicy(5), func(context.Context) error {
		calls++
		return Permanent(missing)
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !errors.Is(out.Err, missing) || !IsPermanent(out.Err) {
		t.Errorf("err = %v", out.Err)
	}
}

func TestDo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	out := Do(ctx, fastPolicy(3), func(context.Context) error {
		calls++
		return nil
	})
	if !errors.Is(out.Err, context.Canceled) || calls != 0 {
		t.Fatalf("outcome %+v calls %d", out, calls)
	}
}

func TestDo_ZeroPolicyRunsOnce(t *testing.T) {
	calls := 0
	Do(context.Background(), Policy{}, func(context.Context) error {
		calls++
		return errors.New("fail")
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoValue(t *testing.T) {
	calls := 0
	v, out := DoValue(context.Background(), fastPolicy(3), func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "partial", errors.New("retry me")
		}
		return "ok", nil
	})
	if out.Err != nil || v != "ok" {
		t.Fatalf("v=%q out=%+v", v, out)
	}
}

func TestPermanent_Nil(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
	if IsPermanent(errors.New("x")) {
		t.Error("plain error is not permanent")
	}
}
