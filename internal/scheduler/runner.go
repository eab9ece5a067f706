// Package scheduler drives pipeline attempts under bounded retry policies.
// Retry decisions come from the explicit attempt outcome, never from
// sniffing error strings at the call site.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/piyushxpc7/LedgerlyAI/internal/config"
	"github.com/piyushxpc7/LedgerlyAI/internal/pipeline"
)

// ErrAlreadyRunning reports a second invocation for a key whose job is
// still in flight. The caller decides whether to requeue.
var ErrAlreadyRunning = errors.New("job already running")

// Attempt runs one pipeline invocation and reports its outcome.
type Attempt func(ctx context.Context) pipeline.Outcome

// Policy bounds how a job is retried.
type Policy struct {
	MaxAttempts    int
	Cooldown       time.Duration
	AttemptTimeout time.Duration
}

// Runner executes jobs with per-key single flight and policy-driven
// retries. A completed or fatal outcome ends the job immediately;
// retryable outcomes get another attempt after the cooldown until the
// policy is exhausted.
type Runner struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewRunner creates an empty runner.
func NewRunner() *Runner {
	return &Runner{inflight: make(map[string]struct{})}
}

func (r *Runner) acquire(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, running := r.inflight[key]; running {
		return false
	}
	r.inflight[key] = struct{}{}
	return true
}

func (r *Runner) release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, key)
}

// Run executes the attempt under the policy. The returned outcome is the
// last attempt's; the error is non-nil only for scheduling failures
// (single-flight rejection, context cancellation during cooldown).
func (r *Runner) Run(ctx context.Context, key string, policy Policy, attempt Attempt) (pipeline.Outcome, error) {
	if !r.acquire(key) {
		return pipeline.Outcome{}, fmt.Errorf("%w: %s", ErrAlreadyRunning, key)
	}
	defer r.release(key)

	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var outcome pipeline.Outcome
	for n := 1; n <= maxAttempts; n++ {
		outcome = r.runAttempt(ctx, policy, attempt)

		switch {
		case outcome.Succeeded():
			return outcome, nil
		case !outcome.Retryable():
			slog.Error("job failed fatally, not retrying",
				"key", key, "attempt", n, "error", outcome.Err)
			return outcome, nil
		}

		if n == maxAttempts {
			slog.Error("job failed, attempts exhausted",
				"key", key, "attempts", n, "error", outcome.Err)
			break
		}

		slog.Warn("job attempt failed, cooling down",
			"key", key, "attempt", n, "cooldown", policy.Cooldown, "error", outcome.Err)
		select {
		case <-time.After(policy.Cooldown):
		case <-ctx.Done():
			return outcome, ctx.Err()
		}
	}
	return outcome, nil
}

func (r *Runner) runAttempt(ctx context.Context, policy Policy, attempt Attempt) pipeline.Outcome {
	if policy.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, policy.AttemptTimeout)
		defer cancel()
	}
	return attempt(ctx)
}

// DocumentIngester is the ingestion pipeline surface the scheduler drives.
// *pipeline.Ingestion satisfies it.
type DocumentIngester interface {
	Run(ctx context.Context, documentID string) (pipeline.IngestionResult, pipeline.Outcome)
}

// ClientReconciler is the reconciliation pipeline surface the scheduler
// drives. *pipeline.Reconciliation satisfies it.
type ClientReconciler interface {
	Run(ctx context.Context, clientID string) (pipeline.ReconciliationResult, pipeline.Outcome)
}

// Scheduler binds the two pipelines to their retry policies. Ingestion is
// keyed per document, reconciliation per client, so a client's runs never
// overlap while documents ingest in parallel.
type Scheduler struct {
	runner          *Runner
	ingester        DocumentIngester
	reconciler      ClientReconciler
	ingestPolicy    Policy
	reconcilePolicy Policy
}

// New creates a scheduler with policies taken from the configuration.
func New(cfg config.Config, ingester DocumentIngester, reconciler ClientReconciler) *Scheduler {
	return &Scheduler{
		runner:     NewRunner(),
		ingester:   ingester,
		reconciler: reconciler,
		ingestPolicy: Policy{
			MaxAttempts:    cfg.IngestMaxAttempts,
			Cooldown:       cfg.IngestCooldown,
			AttemptTimeout: cfg.AttemptTimeout,
		},
		reconcilePolicy: Policy{
			MaxAttempts:    cfg.ReconcileMaxAttempts,
			Cooldown:       cfg.ReconcileCooldown,
			AttemptTimeout: cfg.AttemptTimeout,
		},
	}
}

// IngestDocument runs the ingestion pipeline for one document under the
// ingest retry policy. The returned result is from the last attempt.
func (s *Scheduler) IngestDocument(ctx context.Context, documentID string) (pipeline.IngestionResult, error) {
	var result pipeline.IngestionResult
	outcome, err := s.runner.Run(ctx, "ingest:"+documentID, s.ingestPolicy,
		func(ctx context.Context) pipeline.Outcome {
			var o pipeline.Outcome
			result, o = s.ingester.Run(ctx, documentID)
			return o
		})
	if err != nil {
		return result, err
	}
	if !outcome.Succeeded() {
		return result, fmt.Errorf("ingestion of document %s: %w", documentID, outcome.Err)
	}
	return result, nil
}

// ReconcileClient runs the reconciliation pipeline for one client under
// the reconcile retry policy.
func (s *Scheduler) ReconcileClient(ctx context.Context, clientID string) (pipeline.ReconciliationResult, error) {
	var result pipeline.ReconciliationResult
	outcome, err := s.runner.Run(ctx, "reconcile:"+clientID, s.reconcilePolicy,
		func(ctx context.Context) pipeline.Outcome {
			var o pipeline.Outcome
			result, o = s.reconciler.Run(ctx, clientID)
			return o
		})
	if err != nil {
		return result, err
	}
	if !outcome.Succeeded() {
		return result, fmt.Errorf("reconciliation of client %s: %w", clientID, outcome.Err)
	}
	return result, nil
}
