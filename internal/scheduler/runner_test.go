package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/piyushxpc7/LedgerlyAI/internal/config"
	"github.com/piyushxpc7/LedgerlyAI/internal/pipeline"
)

func fastPolicy(maxAttempts int) Policy {
	return Policy{MaxAttempts: maxAttempts, Cooldown: time.Millisecond}
}

func TestRunnerRetriesUntilSuccess(t *testing.T) {
	runner := NewRunner()
	attempts := 0

	outcome, err := runner.Run(context.Background(), "job-1", fastPolicy(3),
		func(ctx context.Context) pipeline.Outcome {
			attempts++
			if attempts < 3 {
				return pipeline.Failed(errors.New("transient"))
			}
			return pipeline.Completed()
		})

	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !outcome.Succeeded() {
		t.Errorf("expected success, got %s", outcome.Disposition)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRunnerStopsOnFatal(t *testing.T) {
	runner := NewRunner()
	attempts := 0

	outcome, err := runner.Run(context.Background(), "job-1", fastPolicy(3),
		func(ctx context.Context) pipeline.Outcome {
			attempts++
			return pipeline.Fatal(errors.New("invalid api key"))
		})

	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcome.Disposition != pipeline.DispositionFatal {
		t.Errorf("expected fatal outcome, got %s", outcome.Disposition)
	}
	if attempts != 1 {
		t.Errorf("fatal outcome must not be retried, got %d attempts", attempts)
	}
}

func TestRunnerExhaustsAttempts(t *testing.T) {
	runner := NewRunner()
	attempts := 0

	outcome, err := runner.Run(context.Background(), "job-1", fastPolicy(3),
		func(ctx context.Context) pipeline.Outcome {
			attempts++
			return pipeline.Failed(errors.New("still broken"))
		})

	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !outcome.Retryable() {
		t.Errorf("expected retryable outcome after exhaustion, got %s", outcome.Disposition)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRunnerSingleFlight(t *testing.T) {
	runner := NewRunner()
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		runner.Run(context.Background(), "job-1", fastPolicy(1),
			func(ctx context.Context) pipeline.Outcome {
				close(started)
				<-release
				return pipeline.Completed()
			})
	}()

	<-started
	_, err := runner.Run(context.Background(), "job-1", fastPolicy(1),
		func(ctx context.Context) pipeline.Outcome {
			return pipeline.Completed()
		})
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning for concurrent key, got %v", err)
	}

	// A different key runs unhindered.
	if _, err := runner.Run(context.Background(), "job-2", fastPolicy(1),
		func(ctx context.Context) pipeline.Outcome {
			return pipeline.Completed()
		}); err != nil {
		t.Errorf("different key should not be blocked: %v", err)
	}

	close(release)
	<-done

	// The key is free again after completion.
	if _, err := runner.Run(context.Background(), "job-1", fastPolicy(1),
		func(ctx context.Context) pipeline.Outcome {
			return pipeline.Completed()
		}); err != nil {
		t.Errorf("key should be released after the job finished: %v", err)
	}
}

func TestRunnerAttemptTimeout(t *testing.T) {
	runner := NewRunner()
	policy := Policy{MaxAttempts: 1, Cooldown: time.Millisecond, AttemptTimeout: 10 * time.Millisecond}

	outcome, err := runner.Run(context.Background(), "job-1", policy,
		func(ctx context.Context) pipeline.Outcome {
			<-ctx.Done()
			return pipeline.Failed(ctx.Err())
		})

	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !outcome.Retryable() {
		t.Errorf("expected retryable outcome for a timed-out attempt, got %s", outcome.Disposition)
	}
	if !errors.Is(outcome.Err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", outcome.Err)
	}
}

func TestRunnerCooldownCancellation(t *testing.T) {
	runner := NewRunner()
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{MaxAttempts: 2, Cooldown: time.Hour}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := runner.Run(ctx, "job-1", policy,
		func(ctx context.Context) pipeline.Outcome {
			return pipeline.Failed(errors.New("transient"))
		})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context cancellation during cooldown, got %v", err)
	}
}

type ingesterStub struct {
	attempts int
	failures int
}

func (i *ingesterStub) Run(ctx context.Context, documentID string) (pipeline.IngestionResult, pipeline.Outcome) {
	i.attempts++
	if i.attempts <= i.failures {
		return pipeline.IngestionResult{DocumentID: documentID, Status: "failed"},
			pipeline.Failed(errors.New("transient"))
	}
	return pipeline.IngestionResult{DocumentID: documentID, Status: "completed"}, pipeline.Completed()
}

type reconcilerStub struct {
	attempts int
	outcome  pipeline.Outcome
}

func (r *reconcilerStub) Run(ctx context.Context, clientID string) (pipeline.ReconciliationResult, pipeline.Outcome) {
	r.attempts++
	status := "completed"
	if !r.outcome.Succeeded() {
		status = "failed"
	}
	return pipeline.ReconciliationResult{ClientID: clientID, Status: status}, r.outcome
}

func schedulerConfig() config.Config {
	return config.Config{
		IngestMaxAttempts:    3,
		ReconcileMaxAttempts: 2,
		IngestCooldown:       time.Millisecond,
		ReconcileCooldown:    time.Millisecond,
		AttemptTimeout:       time.Second,
	}
}

func TestSchedulerIngestDocumentRetries(t *testing.T) {
	ingester := &ingesterStub{failures: 2}
	s := New(schedulerConfig(), ingester, &reconcilerStub{outcome: pipeline.Completed()})

	result, err := s.IngestDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("IngestDocument failed: %v", err)
	}
	if result.Status != "completed" {
		t.Errorf("expected completed result, got %q", result.Status)
	}
	if ingester.attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", ingester.attempts)
	}
}

func TestSchedulerReconcileClientExhaustion(t *testing.T) {
	transient := errors.New("transient")
	reconciler := &reconcilerStub{outcome: pipeline.Failed(transient)}
	s := New(schedulerConfig(), &ingesterStub{}, reconciler)

	result, err := s.ReconcileClient(context.Background(), "client-1")
	if err == nil {
		t.Fatal("expected error after exhausted attempts")
	}
	if !errors.Is(err, transient) {
		t.Errorf("expected wrapped attempt error, got %v", err)
	}
	if result.Status != "failed" {
		t.Errorf("expected failed result, got %q", result.Status)
	}
	if reconciler.attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", reconciler.attempts)
	}
}
