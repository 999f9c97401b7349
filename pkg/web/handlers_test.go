package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	childlog "github.com/reporunner/containerflow/pkg/children/log"
	"github.com/reporunner/containerflow/pkg/children/transform"
	"github.com/reporunner/containerflow/pkg/executor"
	"github.com/reporunner/containerflow/pkg/models"
	"github.com/reporunner/containerflow/pkg/persistence/file"
	"github.com/reporunner/containerflow/pkg/registry"
	"github.com/reporunner/containerflow/pkg/services"
	"github.com/reporunner/containerflow/pkg/testutil"
	"github.com/reporunner/containerflow/pkg/web"
)

func setupTestApp(t *testing.T) (*fiber.App, *services.Definition) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	persist := file.NewPersistence(t.TempDir())

	reg := registry.NewRegistry(logger)
	reg.RegisterChild(childlog.NewFactory())
	reg.RegisterChild(transform.NewFactory())

	definitionService := services.NewDefinition(persist)
	runner := services.NewRunner(executor.NewExecutor(logger), reg, persist, logger)
	validate := validator.New(validator.WithRequiredStructEnabled())

	handlers := web.NewAPIHandlers(definitionService, runner, validate, reg)

	app := fiber.New()

	containers := app.Group("/containers")
	containers.Get("/", handlers.GetDefinitions)
	containers.Post("/", handlers.CreateDefinition)
	containers.Get("/:id", handlers.GetDefinition)
	containers.Delete("/:id", handlers.DeleteDefinition)
	containers.Post("/:id/run", handlers.RunContainer)
	containers.Get("/:id/state", handlers.GetContainerState)
	containers.Post("/:id/stop", handlers.StopContainer)
	containers.Delete("/:id/state", handlers.ClearContainerState)
	containers.Get("/:id/executions", handlers.GetExecutions)

	app.Get("/children", handlers.GetChildTypes)
	app.Get("/health", handlers.HealthCheck)

	return app, definitionService
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer

	if body != nil {
		if str, ok := body.(string); ok {
			buf.WriteString(str)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	return req
}

func TestAPIHandlers_CreateDefinition(t *testing.T) {
	t.Parallel()

	valid := testutil.CreateTestDefinition()

	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
	}{
		{
			name: "successful creation",
			requestBody: web.CreateDefinitionRequest{
				Container:   valid.Container,
				Children:    valid.Children,
				Name:        "Test Definition",
				Description: "a loop over one child",
				Variables:   map[string]any{"env": "test"},
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "validation error - missing container",
			requestBody: web.CreateDefinitionRequest{
				Children: valid.Children,
				Name:     "Test Definition",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "validation error - no children",
			requestBody: web.CreateDefinitionRequest{
				Container: valid.Container,
				Name:      "Test Definition",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "validation error - name too short",
			requestBody: web.CreateDefinitionRequest{
				Container: valid.Container,
				Children:  valid.Children,
				Name:      "ab",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "validation error - unresolved child reference",
			requestBody: web.CreateDefinitionRequest{
				Container: testutil.CreateTestContainer(testutil.WithChildren("ghost-child")),
				Children:  valid.Children,
				Name:      "Test Definition",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			requestBody:    "not-json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, _ := setupTestApp(t)

			resp, err := app.Test(jsonRequest(t, http.MethodPost, "/containers", tt.requestBody))
			require.NoError(t, err)

			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestAPIHandlers_GetAndDeleteDefinition(t *testing.T) {
	t.Parallel()

	app, definitions := setupTestApp(t)

	definition := testutil.CreateTestDefinition()
	require.NoError(t, definitions.Save(t.Context(), definition))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/containers/"+definition.ID(), nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loaded models.ContainerDefinition

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loaded))
	assert.Equal(t, definition.ID(), loaded.ID())
	assert.Equal(t, definition.Name, loaded.Name)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/containers/"+definition.ID(), nil))
	require.NoError(t, err)

	_ = resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/containers/"+definition.ID(), nil))
	require.NoError(t, err)

	_ = resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_ListDefinitions(t *testing.T) {
	t.Parallel()

	app, definitions := setupTestApp(t)

	for _, id := range []string{"container-a", "container-b"} {
		definition := testutil.CreateTestDefinition(testutil.WithContainer(
			testutil.CreateTestContainer(func(c *models.ContainerConfig) { c.ID = id }),
		))
		require.NoError(t, definitions.Save(t.Context(), definition))
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/containers/", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Definitions []json.RawMessage `json:"definitions"`
		TotalCount  int               `json:"total_count"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.TotalCount)
	assert.Len(t, body.Definitions, 2)
}

func TestAPIHandlers_RunContainer(t *testing.T) {
	t.Parallel()

	app, definitions := setupTestApp(t)

	definition := testutil.CreateTestDefinition()
	require.NoError(t, definitions.Save(t.Context(), definition))

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/containers/"+definition.ID()+"/run",
		web.RunContainerRequest{Input: map[string]any{"payload": "hello"}}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.ExecutionResult

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	_ = resp.Body.Close()

	assert.True(t, result.Success)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/containers/"+definition.ID()+"/state", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state models.ExecutionState

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	_ = resp.Body.Close()

	assert.Equal(t, models.ExecutionStatusCompleted, state.Status)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/containers/"+definition.ID()+"/executions", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var executions struct {
		TotalCount int `json:"total_count"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&executions))
	assert.Equal(t, 1, executions.TotalCount)
}

func TestAPIHandlers_RunUnknownContainer(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/containers/no-such-id/run", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_StateAndClear(t *testing.T) {
	t.Parallel()

	app, definitions := setupTestApp(t)

	definition := testutil.CreateTestDefinition()
	require.NoError(t, definitions.Save(t.Context(), definition))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/containers/"+definition.ID()+"/state", nil))
	require.NoError(t, err)

	_ = resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/containers/"+definition.ID()+"/run", nil))
	require.NoError(t, err)

	_ = resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/containers/"+definition.ID()+"/state", nil))
	require.NoError(t, err)

	_ = resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/containers/"+definition.ID()+"/state", nil))
	require.NoError(t, err)

	_ = resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_StopWithoutRun(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/containers/idle-container/stop", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_GetChildTypes(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/children", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Children []web.ChildTypeResponse `json:"children"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Children, 2)
	assert.Equal(t, "log", body.Children[0].Type)
	assert.Equal(t, "transform", body.Children[1].Type)
	assert.NotEmpty(t, body.Children[0].Schema)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}
