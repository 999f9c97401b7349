package eventbus

import (
	"context"
	"log/slog"

	"github.com/reporunner/containerflow/pkg/events"
	"github.com/reporunner/containerflow/pkg/executor"
)

// Bridge forwards executor state changes to an event bus as typed events,
// keyed by container id so per-container ordering survives partitioned
// transports.
type Bridge struct {
	bus      EventBus
	logger   *slog.Logger
	workerID string
}

// NewBridge creates a bridge publishing on the given bus.
func NewBridge(bus EventBus, logger *slog.Logger, workerID string) *Bridge {
	return &Bridge{
		bus:      bus,
		logger:   logger.With("module", "eventbus_bridge"),
		workerID: workerID,
	}
}

// Attach subscribes the bridge to the executor and returns the unsubscribe
// function.
func (b *Bridge) Attach(exec *executor.Executor) func() {
	return exec.Subscribe(b.onStateChange)
}

func (b *Bridge) onStateChange(change executor.StateChange) {
	event := b.translate(change)
	if event == nil {
		return
	}

	if err := b.bus.Publish(context.Background(), change.State.ContainerID, event); err != nil {
		b.logger.Error("Failed to publish container event",
			"event", change.Event,
			"container_id", change.State.ContainerID,
			"error", err,
		)
	}
}

func (b *Bridge) translate(change executor.StateChange) Event {
	state := change.State

	base := events.NewBaseEvent(change.Event, state.ContainerID)
	base.WorkflowID = state.WorkflowID
	base.WorkerID = b.workerID

	switch change.Event {
	case events.ContainerExecutionStartedEvent:
		return events.ContainerExecutionStarted{
			BaseEvent:     base,
			ExecutionID:   state.ExecutionID,
			ContainerType: state.ContainerType,
			Children:      change.Children,
		}
	case events.ContainerExecutionCompletedEvent:
		return events.ContainerExecutionCompleted{
			BaseEvent:   base,
			ExecutionID: state.ExecutionID,
			DurationMs:  change.DurationMs,
			Iterations:  state.CurrentIteration,
			Metrics:     state.Metrics,
		}
	case events.ContainerExecutionFailedEvent:
		return events.ContainerExecutionFailed{
			BaseEvent:   base,
			ExecutionID: state.ExecutionID,
			Error:       change.Err,
			DurationMs:  change.DurationMs,
			Metrics:     state.Metrics,
		}
	case events.ContainerExecutionPausedEvent:
		return events.ContainerExecutionPaused{
			BaseEvent:   base,
			ExecutionID: state.ExecutionID,
		}
	case events.ContainerChildStartedEvent:
		return events.ContainerChildStarted{
			BaseEvent:   base,
			ExecutionID: state.ExecutionID,
			ChildID:     change.ChildID,
			Iteration:   state.CurrentIteration,
		}
	case events.ContainerChildFinishedEvent:
		return events.ContainerChildFinished{
			BaseEvent:   base,
			ExecutionID: state.ExecutionID,
			ChildID:     change.ChildID,
			DurationMs:  change.DurationMs,
		}
	case events.ContainerChildFailedEvent:
		return events.ContainerChildFailed{
			BaseEvent:   base,
			ExecutionID: state.ExecutionID,
			ChildID:     change.ChildID,
			Error:       change.Err,
			DurationMs:  change.DurationMs,
		}
	case events.ContainerIterationStartedEvent:
		return events.ContainerIterationStarted{
			BaseEvent:       base,
			ExecutionID:     state.ExecutionID,
			Iteration:       state.CurrentIteration,
			TotalIterations: state.TotalIterations,
		}
	case events.ContainerBatchStartedEvent:
		return events.ContainerBatchStarted{
			BaseEvent:    base,
			ExecutionID:  state.ExecutionID,
			BatchIndex:   change.BatchIndex,
			TotalBatches: change.TotalBatches,
			BatchSize:    change.BatchSize,
		}
	default:
		return nil
	}
}
