package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reporunner/containerflow/pkg/executor"
	"github.com/reporunner/containerflow/pkg/models"
	"github.com/reporunner/containerflow/pkg/persistence"
	"github.com/reporunner/containerflow/pkg/registry"
)

// Runner executes stored container definitions and archives the results.
type Runner struct {
	executor    *executor.Executor
	registry    *registry.Registry
	persistence persistence.Persistence
	logger      *slog.Logger
}

// NewRunner creates a new runner service.
func NewRunner(
	exec *executor.Executor,
	reg *registry.Registry,
	persist persistence.Persistence,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		executor:    exec,
		registry:    reg,
		persistence: persist,
		logger:      logger.With("module", "runner"),
	}
}

// Run executes a definition by id with the given input and archives an
// execution record. Child failures are captured in the result; the record
// is archived either way.
func (r *Runner) Run(ctx context.Context, containerID string, input any) (*models.ExecutionResult, error) {
	definition, err := r.persistence.DefinitionByID(ctx, containerID)
	if err != nil {
		return nil, err
	}

	return r.RunDefinition(ctx, definition, input)
}

// RunDefinition executes an in-memory definition directly, used by the CLI
// run command for unsaved definitions.
func (r *Runner) RunDefinition(ctx context.Context, definition *models.ContainerDefinition, input any) (*models.ExecutionResult, error) {
	if err := definition.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", persistence.ErrInvalidDefinition, err)
	}

	execCtx := models.NewExecutionContext(definition.ID(), "", input, definition.Variables)
	dispatcher := r.registry.Dispatcher(definition)

	result, runErr := r.executor.Run(ctx, definition.Container, execCtx, dispatcher)

	state, ok := r.executor.GetState(definition.ID())
	if ok {
		record := models.NewExecutionRecord(state, result)

		if err := r.persistence.SaveExecution(ctx, record); err != nil {
			r.logger.ErrorContext(ctx, "Failed to archive execution record",
				"container_id", definition.ID(),
				"error", err,
			)
		}
	}

	if runErr != nil {
		return nil, runErr
	}

	return result, nil
}

// Stop requests a cooperative pause of a running container.
func (r *Runner) Stop(containerID string) error {
	return r.executor.Stop(containerID)
}

// State returns the live execution state of a container.
func (r *Runner) State(containerID string) (models.ExecutionState, bool) {
	return r.executor.GetState(containerID)
}

// Clear discards the execution state of an idle or finished container.
func (r *Runner) Clear(containerID string) error {
	return r.executor.Clear(containerID)
}
