// Package events defines event types and structures for container execution
// lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/reporunner/containerflow/pkg/models"
)

type EventType string

// Topic carries all container execution events.
const Topic = "containerflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Container execution lifecycle events.
	ContainerExecutionStartedEvent   EventType = "container.execution.started"
	ContainerExecutionCompletedEvent EventType = "container.execution.completed"
	ContainerExecutionFailedEvent    EventType = "container.execution.failed"
	ContainerExecutionPausedEvent    EventType = "container.execution.paused"

	// Per-child events.
	ContainerChildStartedEvent  EventType = "container.child.started"
	ContainerChildFinishedEvent EventType = "container.child.finished"
	ContainerChildFailedEvent   EventType = "container.child.failed"

	// Iteration and batch boundary events.
	ContainerIterationStartedEvent EventType = "container.iteration.started"
	ContainerBatchStartedEvent     EventType = "container.batch.started"
)

type BaseEvent struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	Timestamp   time.Time      `json:"timestamp"`
	ContainerID string         `json:"container_id"`
	WorkflowID  string         `json:"workflow_id,omitempty"`
	WorkerID    string         `json:"worker_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, containerID string) BaseEvent {
	return BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		ContainerID: containerID,
		Metadata:    make(map[string]any),
	}
}

type ContainerExecutionStarted struct {
	BaseEvent

	ExecutionID   string               `json:"execution_id"`
	ContainerType models.ContainerType `json:"container_type"`
	Children      []string             `json:"children"`
}

func (e ContainerExecutionStarted) GetType() EventType {
	return ContainerExecutionStartedEvent
}

type ContainerExecutionCompleted struct {
	BaseEvent

	ExecutionID string                  `json:"execution_id"`
	DurationMs  int64                   `json:"duration_ms"`
	Iterations  int                     `json:"iterations,omitempty"`
	Errors      []string                `json:"errors,omitempty"`
	Metrics     models.ContainerMetrics `json:"metrics"`
}

func (e ContainerExecutionCompleted) GetType() EventType {
	return ContainerExecutionCompletedEvent
}

type ContainerExecutionFailed struct {
	BaseEvent

	ExecutionID string                  `json:"execution_id"`
	Error       string                  `json:"error"`
	DurationMs  int64                   `json:"duration_ms"`
	Errors      []string                `json:"errors,omitempty"`
	Metrics     models.ContainerMetrics `json:"metrics"`
}

func (e ContainerExecutionFailed) GetType() EventType {
	return ContainerExecutionFailedEvent
}

type ContainerExecutionPaused struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	PauseReason string `json:"pause_reason,omitempty"`
}

func (e ContainerExecutionPaused) GetType() EventType {
	return ContainerExecutionPausedEvent
}

type ContainerChildStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	ChildID     string `json:"child_id"`
	Iteration   int    `json:"iteration,omitempty"`
}

func (e ContainerChildStarted) GetType() EventType {
	return ContainerChildStartedEvent
}

type ContainerChildFinished struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	ChildID     string `json:"child_id"`
	DurationMs  int64  `json:"duration_ms"`
}

func (e ContainerChildFinished) GetType() EventType {
	return ContainerChildFinishedEvent
}

type ContainerChildFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	ChildID     string `json:"child_id"`
	Error       string `json:"error"`
	DurationMs  int64  `json:"duration_ms"`
}

func (e ContainerChildFailed) GetType() EventType {
	return ContainerChildFailedEvent
}

type ContainerIterationStarted struct {
	BaseEvent

	ExecutionID     string `json:"execution_id"`
	Iteration       int    `json:"iteration"`
	TotalIterations int    `json:"total_iterations,omitempty"`
}

func (e ContainerIterationStarted) GetType() EventType {
	return ContainerIterationStartedEvent
}

type ContainerBatchStarted struct {
	BaseEvent

	ExecutionID  string `json:"execution_id"`
	BatchIndex   int    `json:"batch_index"`
	TotalBatches int    `json:"total_batches"`
	BatchSize    int    `json:"batch_size"`
}

func (e ContainerBatchStarted) GetType() EventType {
	return ContainerBatchStartedEvent
}
