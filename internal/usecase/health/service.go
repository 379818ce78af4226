// Package health aggregates component probes into one report for GET /health.
package health

import (
	"context"
	"sync"
	"time"
)

// Status is the overall verdict.
type Status string

// Overall statuses. Unhealthy means the database is unreachable, so no
// retrieval can succeed; Degraded means retrieval may fail or return nothing.
const (
	Healthy   Status = "ok"
	Degraded  Status = "degraded"
	Unhealthy Status = "error"
)

// CheckResult is the outcome of one probe.
type CheckResult string

// Probe outcomes. CheckMissing is reported when the passage index has not
// been created yet.
const (
	CheckOK      CheckResult = "ok"
	CheckError   CheckResult = "error"
	CheckMissing CheckResult = "missing"
)

// Check names in Report.Checks.
const (
	checkDatabase  = "database"
	checkIndex     = "index"
	checkEmbedding = "embedding"
)

// probeTimeout caps each probe so a hung dependency cannot stall /health.
const probeTimeout = 3 * time.Second

// Report is the result of one Check.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service runs the probes.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
	index     IndexChecker
	indexName string
}

// New creates a Service. embedding may be nil.
func New(db DBPinger, embedding EmbeddingChecker) *Service {
	return &Service{db: db, embedding: embedding}
}

// WithIndex also checks that the named passage index exists.
func (s *Service) WithIndex(index IndexChecker, name string) *Service {
	s.index, s.indexName = index, name
	return s
}

// Check pings the database, then probes the index and the embedding provider
// concurrently. The index probe is skipped while the database is down.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{checkDatabase: s.probe(ctx, s.db.Ping)}
	dbUp := checks[checkDatabase] == CheckOK

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(name string, run func() CheckResult) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := run()
			mu.Lock()
			checks[name] = res
			mu.Unlock()
		}()
	}
	if s.index != nil && dbUp {
		record(checkIndex, func() CheckResult { return s.probeIndex(ctx) })
	}
	if s.embedding != nil {
		record(checkEmbedding, func() CheckResult { return s.probe(ctx, s.embedding.HealthCheck) })
	}
	wg.Wait()

	return Report{Status: verdict(dbUp, checks), Checks: checks}
}

func (s *Service) probe(ctx context.Context, fn func(context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if fn(ctx) != nil {
		return CheckError
	}
	return CheckOK
}

func (s *Service) probeIndex(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	exists, err := s.index.IndexExists(ctx, s.indexName)
	switch {
	case err != nil:
		return CheckError
	case !exists:
		return CheckMissing
	}
	return CheckOK
}

func verdict(dbUp bool, checks map[string]CheckResult) Status {
	if !dbUp {
		return Unhealthy
	}
	for _, res := range checks {
		if res != CheckOK {
			return Degraded
		}
	}
	return Healthy
}
