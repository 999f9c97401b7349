// Package executor implements the container execution engine: a single
// entry point that runs a container's children under one of five
// control-flow strategies (loop, parallel, conditional, try-catch, batch),
// owns the per-container execution state machine, and fans out state-change
// notifications to subscribers.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/reporunner/containerflow/pkg/events"
	"github.com/reporunner/containerflow/pkg/expression"
	"github.com/reporunner/containerflow/pkg/metrics"
	"github.com/reporunner/containerflow/pkg/models"
	"github.com/reporunner/containerflow/pkg/otelhelper"
	"github.com/reporunner/containerflow/pkg/protocol"
)

// Static engine errors.
var (
	// ErrUnsupportedContainerType is fatal: it surfaces immediately and no
	// children are attempted.
	ErrUnsupportedContainerType = errors.New("unsupported container type")

	// ErrNilDispatcher indicates Run was called without a child dispatcher.
	ErrNilDispatcher = errors.New("child dispatcher is required")

	// ErrContainerAlreadyRunning indicates a second Run was attempted while
	// the container's previous invocation is still running.
	ErrContainerAlreadyRunning = errors.New("container is already running")

	// ErrExecutionNotFound indicates no execution state exists for the id.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrExecutionActive indicates Clear was called outside the idle or
	// terminal states.
	ErrExecutionActive = errors.New("execution is still active")
)

// StateChange is delivered to subscribers on every execution state mutation.
// State is always a consistent snapshot taken after the mutation.
type StateChange struct {
	Event events.EventType      `json:"event"`
	State models.ExecutionState `json:"state"`

	ChildID    string   `json:"child_id,omitempty"`
	Children   []string `json:"children,omitempty"`
	Err        string   `json:"error,omitempty"`
	DurationMs int64    `json:"duration_ms,omitempty"`

	BatchIndex   int `json:"batch_index,omitempty"`
	TotalBatches int `json:"total_batches,omitempty"`
	BatchSize    int `json:"batch_size,omitempty"`
}

// Listener receives state changes. A panicking listener is recovered and
// never aborts the engine or other listeners.
type Listener func(change StateChange)

// Executor is the container execution engine. It is an explicit,
// constructible object owning its own execution table and listener set;
// callers hold and pass references rather than relying on package-level
// singletons.
type Executor struct {
	logger    *slog.Logger
	tracer    trace.Tracer
	evaluator protocol.ConditionEvaluator

	mu         sync.RWMutex
	executions map[string]*runState
	listeners  map[int]Listener
	nextID     int
}

// Option configures an Executor.
type Option func(*Executor)

// WithEvaluator overrides the condition evaluator used by the loop and
// conditional strategies.
func WithEvaluator(evaluator protocol.ConditionEvaluator) Option {
	return func(e *Executor) {
		e.evaluator = evaluator
	}
}

// WithTracer overrides the tracer used for container run spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

// NewExecutor creates an executor with the default expression evaluator.
func NewExecutor(logger *slog.Logger, opts ...Option) *Executor {
	e := &Executor{
		logger:     logger.With("module", "container_executor"),
		tracer:     otel.Tracer("containerflow/executor"),
		evaluator:  expression.NewEvaluator(),
		executions: make(map[string]*runState),
		listeners:  make(map[int]Listener),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Subscribe registers a listener for state changes and returns its
// unsubscribe function.
func (e *Executor) Subscribe(listener Listener) func() {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = listener
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

// GetState returns a snapshot of the container's execution state, if any.
func (e *Executor) GetState(containerID string) (models.ExecutionState, bool) {
	e.mu.RLock()
	rs, ok := e.executions[containerID]
	e.mu.RUnlock()

	if !ok {
		return models.ExecutionState{}, false
	}

	return rs.snapshot(), true
}

// Stop transitions a running container to paused. The transition is
// cooperative: strategies stop starting new work at the next iteration or
// batch boundary, and in-flight child dispatches are not aborted.
func (e *Executor) Stop(containerID string) error {
	e.mu.RLock()
	rs, ok := e.executions[containerID]
	e.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrExecutionNotFound, containerID)
	}

	rs.pause()

	return nil
}

// Clear discards a container's execution state. It is only safe while the
// container is idle, terminal, or paused with its run concluded.
func (e *Executor) Clear(containerID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rs, ok := e.executions[containerID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrExecutionNotFound, containerID)
	}

	if !rs.clearable() {
		return fmt.Errorf("%w: %s is %s", ErrExecutionActive, containerID, rs.status())
	}

	delete(e.executions, containerID)

	return nil
}

// Run executes the container's children under the strategy selected by the
// config type and returns a uniform result. Child-level failures are
// reported through the result's error list and success flag; the returned
// error is reserved for engine-level failures (unsupported type, invalid
// config, expression evaluation failures under the fail-closed policy).
func (e *Executor) Run(
	ctx context.Context,
	config *models.ContainerConfig,
	execCtx models.ExecutionContext,
	dispatcher protocol.ChildDispatcher,
) (*models.ExecutionResult, error) {
	if config == nil {
		return nil, errors.New("container config is required")
	}

	if dispatcher == nil {
		return nil, ErrNilDispatcher
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if execCtx.ID == "" {
		execCtx = models.NewExecutionContext(config.ID, execCtx.WorkflowID, execCtx.Input, execCtx.Variables)
	}

	rs := &runState{
		executor:   e,
		config:     config,
		execCtx:    execCtx,
		dispatcher: dispatcher,
		metrics:    metrics.NewAggregator(),
		state:      newExecutionState(config, execCtx),
		logger: e.logger.With(
			"container_id", config.ID,
			"container_type", config.Type,
			"execution_id", execCtx.ID,
		),
	}

	if err := e.register(rs); err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "container.run", trace.WithAttributes(
		attribute.String(otelhelper.ContainerIDKey, config.ID),
		attribute.String(otelhelper.ContainerTypeKey, string(config.Type)),
		attribute.String(otelhelper.ExecutionIDKey, execCtx.ID),
	))
	defer span.End()

	rs.logger.InfoContext(ctx, "Starting container execution", "children", len(config.Children))

	start := time.Now()

	rs.transitionRunning()

	strategy := e.strategyFor(config.Type)
	if strategy == nil {
		err := fmt.Errorf("%w: %q", ErrUnsupportedContainerType, config.Type)
		rs.finishFailed(err.Error(), time.Since(start))
		otelhelper.SetError(span, err)

		return nil, err
	}

	outcome, err := strategy(ctx, rs)
	if err != nil {
		rs.finishFailed(err.Error(), time.Since(start))
		otelhelper.SetError(span, err)

		return nil, err
	}

	rs.metrics.SampleResources()

	result := &models.ExecutionResult{
		Success:    outcome.success,
		Output:     outcome.output,
		DurationMs: time.Since(start).Milliseconds(),
		Iterations: outcome.iterations,
		Errors:     outcome.errors,
		Metrics:    rs.metrics.Snapshot(),
	}

	rs.finish(outcome, result.DurationMs)

	rs.logger.InfoContext(ctx, "Container execution finished",
		"success", result.Success,
		"duration_ms", result.DurationMs,
		"errors", len(result.Errors),
	)

	if !result.Success {
		otelhelper.SetError(span, errors.New(firstError(outcome.errors)))
	}

	return result, nil
}

// register installs the run in the execution table. A container whose
// previous invocation is still running cannot be started again; paused and
// terminal runs are replaced (re-invoking Run is the resume mechanism).
func (e *Executor) register(rs *runState) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.executions[rs.config.ID]; ok {
		if existing.status() == models.ExecutionStatusRunning {
			return fmt.Errorf("%w: %s", ErrContainerAlreadyRunning, rs.config.ID)
		}
	}

	e.executions[rs.config.ID] = rs

	return nil
}

type strategyFunc func(ctx context.Context, rs *runState) (*strategyOutcome, error)

func (e *Executor) strategyFor(containerType models.ContainerType) strategyFunc {
	switch containerType {
	case models.ContainerTypeLoop:
		return e.runLoop
	case models.ContainerTypeParallel:
		return e.runParallel
	case models.ContainerTypeConditional:
		return e.runConditional
	case models.ContainerTypeTryCatch:
		return e.runTryCatch
	case models.ContainerTypeBatch:
		return e.runBatch
	default:
		return nil
	}
}

// notify delivers a state change to every subscriber. Listener panics are
// logged and isolated.
func (e *Executor) notify(change StateChange) {
	e.mu.RLock()

	listeners := make([]Listener, 0, len(e.listeners))
	for _, listener := range e.listeners {
		listeners = append(listeners, listener)
	}

	e.mu.RUnlock()

	for _, listener := range listeners {
		e.deliver(listener, change)
	}
}

func (e *Executor) deliver(listener Listener, change StateChange) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Listener panicked during notification",
				"event", change.Event,
				"container_id", change.State.ContainerID,
				"panic", r,
			)
		}
	}()

	listener(change)
}

func newExecutionState(config *models.ContainerConfig, execCtx models.ExecutionContext) *models.ExecutionState {
	state := models.NewExecutionState(config.ID, execCtx.ID, execCtx.WorkflowID)
	state.ContainerType = config.Type

	return state
}

func firstError(errs []string) string {
	if len(errs) == 0 {
		return "container execution failed"
	}

	return errs[0]
}

// strategyOutcome is the uniform product of one strategy invocation.
type strategyOutcome struct {
	output     []any
	errors     []string
	iterations int
	success    bool
}
