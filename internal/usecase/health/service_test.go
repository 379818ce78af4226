package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type provider struct{ err error }

func (p provider) HealthCheck(context.Context) error { return p.err }

type indexes struct {
	exists bool
	err    error
	asked  string
}

func (i *indexes) IndexExists(_ context.Context, name string) (bool, error) {
	i.asked = name
	return i.exists, i.err
}

var errDown = errors.New("down")

func TestCheck(t *testing.T) {
	tests := []struct {
		name      string
		db        error
		embedding EmbeddingChecker
		index     *indexes
		status    Status
		checks    map[string]CheckResult
	}{
		{
			name:      "all healthy",
			embedding: provider{},
			index:     &indexes{exists: true},
			status:    Healthy,
			checks:    map[string]CheckResult{"database": CheckOK, "index": CheckOK, "embedding": CheckOK},
		},
		{
			name:   "database only",
			status: Healthy,
			checks: map[string]CheckResult{"database": CheckOK},
		},
		{
			name:      "provider down",
			embedding: provider{err: errDown},
			status:    Degraded,
			checks:    map[string]CheckResult{"database": CheckOK, "embedding": CheckError},
		},
		{
			name:   "index not created",
			index:  &indexes{},
			status: Degraded,
			checks: map[string]CheckResult{"database": CheckOK, "index": CheckMissing},
		},
		{
			name:   "index info fails",
			index:  &indexes{err: errDown},
			status: Degraded,
			checks: map[string]CheckResult{"database": CheckOK, "index": CheckError},
		},
		{
			name:      "database down skips index",
			db:        errDown,
			embedding: provider{},
			index:     &indexes{exists: true},
			status:    Unhealthy,
			checks:    map[string]CheckResult{"database": CheckError, "embedding": CheckOK},
		},
		{
			name:      "everything down",
			db:        errDown,
			embedding: provider{err: errDown},
			status:    Unhealthy,
			checks:    map[string]CheckResult{"database": CheckError, "embedding": CheckError},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := New(pinger{tc.db}, tc.embedding)
			if tc.index != nil {
				svc.WithIndex(tc.index, "croptalk:passages:idx")
			}

			r := svc.Check(context.Background())
			if r.Status != tc.status {
				t.Errorf("status = %q, want %q", r.Status, tc.status)
			}
			if len(r.Checks) != len(tc.checks) {
				t.Errorf("checks = %v, want %v", r.Checks, tc.checks)
			}
			for name, want := range tc.checks {
				if r.Checks[name] != want {
					t.Errorf("%s = %q, want %q", name, r.Checks[name], want)
				}
			}
		})
	}
}

func TestCheck_AsksForConfiguredIndex(t *testing.T) {
	idx := &indexes{exists: true}
	New(pinger{}, nil).WithIndex(idx, "croptalk:passages:idx").Check(context.Background())
	if idx.asked != "croptalk:passages:idx" {
		t.Errorf("asked for %q", idx.asked)
	}
}

type deadlineProvider struct{ deadline time.Time }

func (d *deadlineProvider) HealthCheck(ctx context.Context) error {
	d.deadline, _ = ctx.Deadline()
	return nil
}

func TestCheck_ProbesHaveDeadline(t *testing.T) {
	p := &deadlineProvider{}
	New(pinger{}, p).Check(context.Background())
	if p.deadline.IsZero() {
		t.Fatal("probe ran without a deadline")
	}
	if left := time.Until(p.deadline); left > probeTimeout {
		t.Errorf("deadline %v away, cap is %v", left, probeTimeout)
	}
}
