package httprequest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reporunner/containerflow/pkg/models"
)

func TestNewChildRequiresURL(t *testing.T) {
	_, err := NewChild("h-1", map[string]any{})
	require.Error(t, err)
}

func TestExecuteDecodesJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	child, err := NewChild("h-1", map[string]any{"url": server.URL})
	require.NoError(t, err)

	execCtx := models.NewExecutionContext("container-1", "", nil, nil)

	output, err := child.Execute(context.Background(), execCtx)
	require.NoError(t, err)

	result, ok := output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, result["status_code"])

	body, ok := result["body"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, body["ok"])
}

func TestExecutePostsTemplatedBody(t *testing.T) {
	var received string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(buf)
		received = string(buf)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	child, err := NewChild("h-1", map[string]any{
		"url":    server.URL,
		"method": "post",
		"body":   `{"id": "{{.input.id}}"}`,
	})
	require.NoError(t, err)

	execCtx := models.NewExecutionContext("container-1", "", map[string]any{"id": "x-9"}, nil)

	output, err := child.Execute(context.Background(), execCtx)
	require.NoError(t, err)

	result, ok := output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, http.StatusCreated, result["status_code"])
	assert.JSONEq(t, `{"id": "x-9"}`, received)
}

func TestExecuteErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	child, err := NewChild("h-1", map[string]any{"url": server.URL})
	require.NoError(t, err)

	execCtx := models.NewExecutionContext("container-1", "", nil, nil)

	output, err := child.Execute(context.Background(), execCtx)
	require.Error(t, err)

	// The response is still returned alongside the error.
	result, ok := output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, result["status_code"])
}
