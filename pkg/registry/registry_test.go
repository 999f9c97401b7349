package registry

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logchild "github.com/reporunner/containerflow/pkg/children/log"
	"github.com/reporunner/containerflow/pkg/children/transform"
	"github.com/reporunner/containerflow/pkg/models"
	"github.com/reporunner/containerflow/pkg/testutil"
)

func newTestRegistry() *Registry {
	reg := NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	reg.RegisterChild(logchild.NewFactory())
	reg.RegisterChild(transform.NewFactory())

	return reg
}

func TestAvailableChildren(t *testing.T) {
	reg := newTestRegistry()

	assert.Equal(t, []string{"log", "transform"}, reg.AvailableChildren())
}

func TestCreateChildUnknownType(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.CreateChild(context.Background(), "nope", "c-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestSchema(t *testing.T) {
	reg := newTestRegistry()

	schema, ok := reg.Schema("log")
	require.True(t, ok)
	assert.Equal(t, "object", schema["type"])

	_, ok = reg.Schema("nope")
	assert.False(t, ok)
}

func TestDispatcherExecutesChildSpec(t *testing.T) {
	reg := newTestRegistry()

	definition := testutil.CreateTestDefinition()
	definition.Children[0].Type = "transform"
	definition.Children[0].Config = map[string]any{"expression": "{{.input.value}}"}

	dispatcher := reg.Dispatcher(definition)

	execCtx := models.NewExecutionContext(definition.ID(), "", map[string]any{"value": 5}, nil)

	output, err := dispatcher.Dispatch(context.Background(), definition.Children[0].ID, execCtx)
	require.NoError(t, err)
	assert.InEpsilon(t, 5.0, output, 0.0001)
}

func TestDispatcherUnknownChild(t *testing.T) {
	reg := newTestRegistry()

	definition := testutil.CreateTestDefinition()
	dispatcher := reg.Dispatcher(definition)

	execCtx := models.NewExecutionContext(definition.ID(), "", nil, nil)

	_, err := dispatcher.Dispatch(context.Background(), "ghost", execCtx)
	require.ErrorIs(t, err, models.ErrUnknownChildReference)
}
