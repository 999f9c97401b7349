package executor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/reporunner/containerflow/pkg/events"
	"github.com/reporunner/containerflow/pkg/metrics"
	"github.com/reporunner/containerflow/pkg/models"
	"github.com/reporunner/containerflow/pkg/protocol"
)

// runState owns one container invocation. All mutations of the execution
// state happen under mu; notifications are delivered outside the lock using
// a snapshot taken after the mutation, so subscribers always observe a
// consistent state.
type runState struct {
	executor   *Executor
	config     *models.ContainerConfig
	execCtx    models.ExecutionContext
	dispatcher protocol.ChildDispatcher
	metrics    *metrics.Aggregator
	logger     *slog.Logger

	mu    sync.Mutex
	state *models.ExecutionState
}

func (rs *runState) snapshot() models.ExecutionState {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	return rs.state.Snapshot()
}

func (rs *runState) status() models.ExecutionStatus {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	return rs.state.Status
}

func (rs *runState) isTerminal() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	return rs.state.IsTerminal()
}

// clearable reports whether the run's state may be discarded: idle,
// terminal, or paused with the run already concluded.
func (rs *runState) clearable() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	switch rs.state.Status {
	case models.ExecutionStatusIdle:
		return true
	case models.ExecutionStatusPaused:
		return rs.state.CompletedAt != nil
	default:
		return rs.state.IsTerminal()
	}
}

func (rs *runState) paused() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	return rs.state.Status == models.ExecutionStatusPaused
}

func (rs *runState) transitionRunning() {
	rs.mu.Lock()

	rs.state.Status = models.ExecutionStatusRunning
	rs.state.StartedAt = time.Now().UTC()
	snap := rs.state.Snapshot()

	rs.mu.Unlock()

	rs.executor.notify(StateChange{
		Event:    events.ContainerExecutionStartedEvent,
		State:    snap,
		Children: rs.config.Children,
	})
}

// pause requests a cooperative stop. It only applies while running;
// strategies observe it at iteration and batch boundaries.
func (rs *runState) pause() {
	rs.mu.Lock()

	if rs.state.Status != models.ExecutionStatusRunning {
		rs.mu.Unlock()
		return
	}

	rs.state.Status = models.ExecutionStatusPaused
	snap := rs.state.Snapshot()

	rs.mu.Unlock()

	rs.logger.Info("Container execution paused")

	rs.executor.notify(StateChange{
		Event: events.ContainerExecutionPausedEvent,
		State: snap,
	})
}

// finish records the terminal state once a strategy completed. A run that
// was paused mid-flight stays paused; re-invoking Run resumes the container
// with fresh state.
func (rs *runState) finish(outcome *strategyOutcome, durationMs int64) {
	rs.mu.Lock()

	now := time.Now().UTC()
	rs.state.CompletedAt = &now
	rs.state.Metrics = rs.metrics.Snapshot()

	event := events.ContainerExecutionCompletedEvent

	switch {
	case rs.state.Status == models.ExecutionStatusPaused:
		event = events.ContainerExecutionPausedEvent
	case outcome.success:
		rs.state.Status = models.ExecutionStatusCompleted
	default:
		rs.state.Status = models.ExecutionStatusFailed
		event = events.ContainerExecutionFailedEvent
	}

	snap := rs.state.Snapshot()

	rs.mu.Unlock()

	change := StateChange{
		Event:      event,
		State:      snap,
		DurationMs: durationMs,
	}

	if event == events.ContainerExecutionFailedEvent {
		change.Err = firstError(outcome.errors)
	}

	rs.executor.notify(change)
}

// finishFailed records a fatal engine-level failure. A terminal event is
// emitted even when no child was ever dispatched, so observers are never
// left waiting.
func (rs *runState) finishFailed(message string, elapsed time.Duration) {
	rs.mu.Lock()

	now := time.Now().UTC()
	rs.state.Status = models.ExecutionStatusFailed
	rs.state.CompletedAt = &now
	rs.state.Metrics = rs.metrics.Snapshot()
	snap := rs.state.Snapshot()

	rs.mu.Unlock()

	rs.logger.Error("Container execution failed", "error", message)

	change := StateChange{
		Event:      events.ContainerExecutionFailedEvent,
		State:      snap,
		Err:        message,
		DurationMs: elapsed.Milliseconds(),
	}

	rs.executor.notify(change)
}

// beginIteration resets the per-pass child sets and announces the new
// iteration. Iterations are 1-based.
func (rs *runState) beginIteration(current, total int) {
	rs.mu.Lock()

	rs.state.BeginIteration(current, total)
	snap := rs.state.Snapshot()

	rs.mu.Unlock()

	rs.executor.notify(StateChange{
		Event: events.ContainerIterationStartedEvent,
		State: snap,
	})
}

// beginBatch resets the per-pass child sets and announces the next batch.
// BatchIndex is 0-based; the state's iteration counter tracks batches
// 1-based.
func (rs *runState) beginBatch(index, totalBatches, size int) {
	rs.mu.Lock()

	rs.state.BeginIteration(index+1, totalBatches)
	snap := rs.state.Snapshot()

	rs.mu.Unlock()

	rs.executor.notify(StateChange{
		Event:        events.ContainerBatchStartedEvent,
		State:        snap,
		BatchIndex:   index,
		TotalBatches: totalBatches,
		BatchSize:    size,
	})
}

// dispatchChild runs a single child through the dispatcher, tracking it in
// the active set for the duration and recording the outcome in the metrics
// aggregator and the completed or failed set.
func (rs *runState) dispatchChild(ctx context.Context, execCtx models.ExecutionContext, childID string) (any, error) {
	rs.mu.Lock()
	rs.state.ChildStarted(childID)
	snap := rs.state.Snapshot()
	rs.mu.Unlock()

	rs.executor.notify(StateChange{
		Event:   events.ContainerChildStartedEvent,
		State:   snap,
		ChildID: childID,
	})

	start := time.Now()
	output, err := rs.dispatcher.Dispatch(ctx, childID, execCtx)
	elapsed := time.Since(start)

	rs.metrics.RecordChild(elapsed, err)

	if err != nil {
		childErr := &protocol.ChildExecutionError{ChildID: childID, Err: err}

		rs.mu.Lock()
		rs.state.ChildFailed(childID)
		rs.state.Metrics = rs.metrics.Snapshot()
		snap = rs.state.Snapshot()
		rs.mu.Unlock()

		rs.logger.Warn("Child execution failed",
			"child_id", childID,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)

		rs.executor.notify(StateChange{
			Event:      events.ContainerChildFailedEvent,
			State:      snap,
			ChildID:    childID,
			Err:        childErr.Error(),
			DurationMs: elapsed.Milliseconds(),
		})

		return nil, childErr
	}

	rs.mu.Lock()
	rs.state.ChildSucceeded(childID)
	rs.state.Metrics = rs.metrics.Snapshot()
	snap = rs.state.Snapshot()
	rs.mu.Unlock()

	rs.executor.notify(StateChange{
		Event:      events.ContainerChildFinishedEvent,
		State:      snap,
		ChildID:    childID,
		DurationMs: elapsed.Milliseconds(),
	})

	return output, nil
}

// runChildren dispatches every child sequentially in declared order,
// collecting outputs of successful children and messages of failed ones.
// Cancellation stops further dispatches but never discards what already
// completed.
func (rs *runState) runChildren(ctx context.Context, execCtx models.ExecutionContext) ([]any, []string) {
	outputs := make([]any, 0, len(rs.config.Children))

	var errs []string

	for _, childID := range rs.config.Children {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err.Error())
			break
		}

		output, err := rs.dispatchChild(ctx, execCtx, childID)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		outputs = append(outputs, output)
	}

	return outputs, errs
}

// delay sleeps for d unless the context is cancelled first.
func (rs *runState) delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
