package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	childlog "github.com/reporunner/containerflow/pkg/children/log"
	"github.com/reporunner/containerflow/pkg/children/transform"
	"github.com/reporunner/containerflow/pkg/executor"
	"github.com/reporunner/containerflow/pkg/models"
	"github.com/reporunner/containerflow/pkg/persistence"
	"github.com/reporunner/containerflow/pkg/persistence/file"
	"github.com/reporunner/containerflow/pkg/registry"
	"github.com/reporunner/containerflow/pkg/testutil"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRunner(t *testing.T) (*Runner, *Definition) {
	t.Helper()

	logger := newTestLogger()
	persist := file.NewPersistence(t.TempDir())

	reg := registry.NewRegistry(logger)
	reg.RegisterChild(childlog.NewFactory())
	reg.RegisterChild(transform.NewFactory())

	exec := executor.NewExecutor(logger)

	return NewRunner(exec, reg, persist, logger), NewDefinition(persist)
}

func TestDefinitionSaveAndGet(t *testing.T) {
	_, definitions := newTestRunner(t)
	ctx := context.Background()

	definition := testutil.CreateTestDefinition()
	require.NoError(t, definitions.Save(ctx, definition))

	loaded, err := definitions.Get(ctx, definition.ID())
	require.NoError(t, err)
	assert.Equal(t, definition.ID(), loaded.ID())
	assert.Equal(t, definition.Name, loaded.Name)
	assert.False(t, loaded.CreatedAt.IsZero())
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestDefinitionSaveRejectsInvalid(t *testing.T) {
	_, definitions := newTestRunner(t)

	definition := testutil.CreateTestDefinition()
	definition.Children = nil

	err := definitions.Save(context.Background(), definition)
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrInvalidDefinition)
}

func TestDefinitionGetUnknownReturnsNotFound(t *testing.T) {
	_, definitions := newTestRunner(t)

	_, err := definitions.Get(context.Background(), "no-such-container")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDefinitionNotFound)
}

func TestDefinitionListAndDelete(t *testing.T) {
	_, definitions := newTestRunner(t)
	ctx := context.Background()

	first := testutil.CreateTestDefinition(testutil.WithContainer(
		testutil.CreateTestContainer(func(c *models.ContainerConfig) {
			c.ID = "container-a"
		}),
	))
	second := testutil.CreateTestDefinition(testutil.WithContainer(
		testutil.CreateTestContainer(func(c *models.ContainerConfig) {
			c.ID = "container-b"
		}),
	))

	require.NoError(t, definitions.Save(ctx, first))
	require.NoError(t, definitions.Save(ctx, second))

	all, err := definitions.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, definitions.Delete(ctx, first.ID()))

	all, err = definitions.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, second.ID(), all[0].ID())
}

func TestDefinitionHealthCheck(t *testing.T) {
	_, definitions := newTestRunner(t)

	message, healthy := definitions.HealthCheck(context.Background())
	assert.True(t, healthy)
	assert.NotEmpty(t, message)

	uninitialized := NewDefinition(nil)
	message, healthy = uninitialized.HealthCheck(context.Background())
	assert.False(t, healthy)
	assert.NotEmpty(t, message)
}

func TestRunnerRunStoredDefinition(t *testing.T) {
	runner, definitions := newTestRunner(t)
	ctx := context.Background()

	definition := testutil.CreateTestDefinition()
	require.NoError(t, definitions.Save(ctx, definition))

	result, err := runner.Run(ctx, definition.ID(), map[string]any{"payload": "hello"})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Success)

	records, err := definitions.Executions(ctx, definition.ID())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, definition.ID(), records[0].ContainerID)
	assert.Equal(t, models.ExecutionStatusCompleted, records[0].Status)
}

func TestRunnerRunUnknownDefinition(t *testing.T) {
	runner, _ := newTestRunner(t)

	_, err := runner.Run(context.Background(), "no-such-container", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrDefinitionNotFound)
}

func TestRunnerRunDefinitionRejectsInvalid(t *testing.T) {
	runner, _ := newTestRunner(t)

	definition := testutil.CreateTestDefinition()
	definition.Container.Children = []string{"missing-child"}
	definition.Children = []*models.ChildSpec{{
		ID:     "other-child",
		Type:   "log",
		Config: map[string]any{"message": "hi"},
	}}

	_, err := runner.RunDefinition(context.Background(), definition, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrInvalidDefinition)
	assert.ErrorIs(t, err, models.ErrUnknownChildReference)
}

func TestRunnerArchivesFailedRuns(t *testing.T) {
	runner, definitions := newTestRunner(t)
	ctx := context.Background()

	definition := testutil.CreateTestDefinition()
	definition.Children[0].Type = "transform"
	definition.Children[0].Config = map[string]any{} // missing expression

	require.NoError(t, definitions.Save(ctx, definition))

	result, err := runner.Run(ctx, definition.ID(), nil)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Errors)

	records, err := definitions.Executions(ctx, definition.ID())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.ExecutionStatusFailed, records[0].Status)
}

func TestRunnerStateAndClear(t *testing.T) {
	runner, definitions := newTestRunner(t)
	ctx := context.Background()

	definition := testutil.CreateTestDefinition()
	require.NoError(t, definitions.Save(ctx, definition))

	_, err := runner.Run(ctx, definition.ID(), nil)
	require.NoError(t, err)

	state, ok := runner.State(definition.ID())
	require.True(t, ok)
	assert.Equal(t, models.ExecutionStatusCompleted, state.Status)

	require.NoError(t, runner.Clear(definition.ID()))

	_, ok = runner.State(definition.ID())
	assert.False(t, ok)

	err = runner.Clear(definition.ID())
	assert.True(t, errors.Is(err, executor.ErrExecutionNotFound))
}

func TestRunnerStopUnknownContainer(t *testing.T) {
	runner, _ := newTestRunner(t)

	err := runner.Stop("no-such-container")
	assert.ErrorIs(t, err, executor.ErrExecutionNotFound)
}
