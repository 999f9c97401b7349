package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reporunner/containerflow/pkg/models"
)

func TestRenderString(t *testing.T) {
	result, err := Render("hello {{.name}}", map[string]any{"name": "world"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", result)
}

func TestRenderCoercesJSON(t *testing.T) {
	result, err := Render(`{"count": {{.count}}}`, map[string]any{"count": 3})
	require.NoError(t, err)

	object, ok := result.(map[string]any)
	require.True(t, ok)
	assert.InEpsilon(t, 3.0, object["count"], 0.0001)
}

func TestRenderCoercesNumberAndBool(t *testing.T) {
	result, err := Render("{{.value}}", map[string]any{"value": 42})
	require.NoError(t, err)
	assert.InEpsilon(t, 42.0, result, 0.0001)

	result, err = Render("{{.flag}}", map[string]any{"flag": true})
	require.NoError(t, err)
	assert.Equal(t, true, result)
}

func TestRenderInvalidTemplate(t *testing.T) {
	_, err := Render("{{.unclosed", nil)
	require.Error(t, err)
}

func TestRenderWithContext(t *testing.T) {
	execCtx := models.NewExecutionContext("container-1", "wf-1",
		map[string]any{"city": "Lisbon"},
		map[string]any{"region": "eu"},
	)

	result, err := RenderWithContext("{{.input.city}} in {{.vars.region}} ({{.execution.container_id}})", &execCtx)
	require.NoError(t, err)
	assert.Equal(t, "Lisbon in eu (container-1)", result)
}
