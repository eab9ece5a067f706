// Package pipeline implements the ingestion and reconciliation workflows
// as linear fail-fast stage chains over a shared executor.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/piyushxpc7/LedgerlyAI/internal/metrics"
)

// Common state statuses. Successful stages advance the state to their own
// status; a failing stage sets StatusFailed and halts the chain.
const (
	StatusStarted   = "started"
	StatusFailed    = "failed"
	StatusCompleted = "completed"
)

// Trackable is the contract a pipeline state offers the executor: status
// progression and a failure message slot.
type Trackable interface {
	SetStatus(status string)
	SetError(message string)
}

// Stage is one step of a pipeline. Run mutates the state; returning an
// error halts the chain with no retry and no rollback.
type Stage[S Trackable] struct {
	Name   string
	Status string
	Run    func(ctx context.Context, state S) error
}

// Executor runs stages strictly in order, stopping at the first failure.
// It holds no state between invocations; concurrent runs share only
// whatever the stages themselves touch.
type Executor[S Trackable] struct {
	pipeline  string
	stages    []Stage[S]
	collector *metrics.Collector
}

// NewExecutor creates an executor for a named pipeline.
func NewExecutor[S Trackable](pipeline string, stages []Stage[S], collector *metrics.Collector) *Executor[S] {
	return &Executor[S]{pipeline: pipeline, stages: stages, collector: collector}
}

// Execute runs the stage chain. The returned error is the first stage
// failure, wrapped with the stage name; the state carries the same
// message and a failed status.
func (e *Executor[S]) Execute(ctx context.Context, state S) error {
	state.SetStatus(StatusStarted)

	for _, stage := range e.stages {
		slog.Debug("stage starting", "pipeline", e.pipeline, "stage", stage.Name)

		start := time.Now()
		err := stage.Run(ctx, state)
		duration := time.Since(start)

		if e.collector != nil {
			e.collector.RecordTiming(metrics.OpPipelineStage, duration)
		}

		if err != nil {
			state.SetStatus(StatusFailed)
			state.SetError(fmt.Sprintf("%s: %v", stage.Name, err))
			slog.Error("stage failed",
				"pipeline", e.pipeline, "stage", stage.Name,
				"duration_ms", duration.Milliseconds(), "error", err)
			return fmt.Errorf("%s: %w", stage.Name, err)
		}

		state.SetStatus(stage.Status)
		slog.Debug("stage complete",
			"pipeline", e.pipeline, "stage", stage.Name,
			"duration_ms", duration.Milliseconds())
	}

	state.SetStatus(StatusCompleted)
	return nil
}
