package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reporunner/containerflow/pkg/models"
	"github.com/reporunner/containerflow/pkg/persistence"
	"github.com/reporunner/containerflow/pkg/testutil"
)

func TestDefinitionRoundtrip(t *testing.T) {
	ctx := context.Background()
	fp := NewPersistence(t.TempDir())

	definition := testutil.CreateTestDefinition(testutil.WithDefinitionName("roundtrip"))

	require.NoError(t, fp.SaveDefinition(ctx, definition))

	loaded, err := fp.DefinitionByID(ctx, definition.ID())
	require.NoError(t, err)

	assert.Equal(t, definition.ID(), loaded.ID())
	assert.Equal(t, "roundtrip", loaded.Name)
	assert.Equal(t, definition.Container.Type, loaded.Container.Type)
	require.Len(t, loaded.Children, len(definition.Children))
	assert.False(t, loaded.CreatedAt.IsZero())
}

func TestDefinitionByIDNotFound(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	_, err := fp.DefinitionByID(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrDefinitionNotFound)
	assert.True(t, persistence.IsNotFound(err))
}

func TestSaveDefinitionRejectsInvalid(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	definition := testutil.CreateTestDefinition()
	definition.Children = nil

	err := fp.SaveDefinition(context.Background(), definition)
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrInvalidDefinition)
}

func TestDefinitionsListsAll(t *testing.T) {
	ctx := context.Background()
	fp := NewPersistence(t.TempDir())

	for range 3 {
		require.NoError(t, fp.SaveDefinition(ctx, testutil.CreateTestDefinition()))
	}

	definitions, err := fp.Definitions(ctx)
	require.NoError(t, err)
	assert.Len(t, definitions, 3)
}

func TestDeleteDefinition(t *testing.T) {
	ctx := context.Background()
	fp := NewPersistence(t.TempDir())

	definition := testutil.CreateTestDefinition()
	require.NoError(t, fp.SaveDefinition(ctx, definition))
	require.NoError(t, fp.DeleteDefinition(ctx, definition.ID()))

	_, err := fp.DefinitionByID(ctx, definition.ID())
	assert.ErrorIs(t, err, persistence.ErrDefinitionNotFound)

	// Deleting again is a no-op.
	require.NoError(t, fp.DeleteDefinition(ctx, definition.ID()))
}

func TestExecutionRecordsByContainer(t *testing.T) {
	ctx := context.Background()
	fp := NewPersistence(t.TempDir())

	now := time.Now().UTC()

	for i := range 2 {
		record := &models.ExecutionRecord{
			ContainerID: "container-1",
			ExecutionID: "exec-000" + string(rune('1'+i)),
			Status:      models.ExecutionStatusCompleted,
			Success:     true,
			StartedAt:   now.Add(time.Duration(i) * time.Minute),
			CompletedAt: now.Add(time.Duration(i)*time.Minute + time.Second),
		}

		require.NoError(t, fp.SaveExecution(ctx, record))
		assert.NotEmpty(t, record.ID)
	}

	records, err := fp.Executions(ctx, "container-1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	assert.True(t, records[0].StartedAt.After(records[1].StartedAt))

	empty, err := fp.Executions(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestHealthCheck(t *testing.T) {
	dir := t.TempDir()

	fp := NewPersistence(dir)
	require.NoError(t, fp.HealthCheck(context.Background()))

	missing := NewPersistence(dir + "/does-not-exist")
	assert.Error(t, missing.HealthCheck(context.Background()))
}
