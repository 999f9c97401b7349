package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	childlog "github.com/reporunner/containerflow/pkg/children/log"
	"github.com/reporunner/containerflow/pkg/executor"
	"github.com/reporunner/containerflow/pkg/models"
	"github.com/reporunner/containerflow/pkg/persistence/file"
	"github.com/reporunner/containerflow/pkg/registry"
	"github.com/reporunner/containerflow/pkg/services"
	"github.com/reporunner/containerflow/pkg/testutil"
)

func newTestScheduler(t *testing.T) (*Scheduler, *services.Definition) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	persist := file.NewPersistence(t.TempDir())

	reg := registry.NewRegistry(logger)
	reg.RegisterChild(childlog.NewFactory())

	runner := services.NewRunner(executor.NewExecutor(logger), reg, persist, logger)

	return NewScheduler(runner, persist, logger), services.NewDefinition(persist)
}

func TestSchedulerAddAndRemove(t *testing.T) {
	scheduler, _ := newTestScheduler(t)

	require.NoError(t, scheduler.Add("container-a", "*/5 * * * *"))
	require.NoError(t, scheduler.Add("container-b", "0 0 * * *"))
	assert.ElementsMatch(t, []string{"container-a", "container-b"}, scheduler.Scheduled())

	scheduler.Remove("container-a")
	assert.Equal(t, []string{"container-b"}, scheduler.Scheduled())

	scheduler.Remove("container-a") // idempotent
	assert.Equal(t, []string{"container-b"}, scheduler.Scheduled())
}

func TestSchedulerAddRejectsInvalidExpression(t *testing.T) {
	scheduler, _ := newTestScheduler(t)

	err := scheduler.Add("container-a", "not a cron expr")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCronExpression)
	assert.Empty(t, scheduler.Scheduled())
}

func TestSchedulerAddReplacesExistingEntry(t *testing.T) {
	scheduler, _ := newTestScheduler(t)

	require.NoError(t, scheduler.Add("container-a", "*/5 * * * *"))
	require.NoError(t, scheduler.Add("container-a", "0 * * * *"))
	assert.Equal(t, []string{"container-a"}, scheduler.Scheduled())
}

func TestSchedulerLoadRegistersScheduledDefinitions(t *testing.T) {
	scheduler, definitions := newTestScheduler(t)
	ctx := context.Background()

	scheduled := testutil.CreateTestDefinition()
	scheduled.Schedule = "*/10 * * * *"
	require.NoError(t, definitions.Save(ctx, scheduled))

	unscheduled := testutil.CreateTestDefinition(testutil.WithContainer(
		testutil.CreateTestContainer(func(c *models.ContainerConfig) {
			c.ID = "container-unscheduled"
		}),
	))
	require.NoError(t, definitions.Save(ctx, unscheduled))

	broken := testutil.CreateTestDefinition(testutil.WithContainer(
		testutil.CreateTestContainer(func(c *models.ContainerConfig) {
			c.ID = "container-broken"
		}),
	))
	broken.Schedule = "definitely not cron"
	require.NoError(t, definitions.Save(ctx, broken))

	require.NoError(t, scheduler.Load(ctx))
	assert.Equal(t, []string{scheduled.ID()}, scheduler.Scheduled())
}

func TestSchedulerStopWaitsForShutdown(t *testing.T) {
	scheduler, _ := newTestScheduler(t)

	require.NoError(t, scheduler.Add("container-a", "* * * * *"))
	scheduler.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, scheduler.Stop(ctx))
}
