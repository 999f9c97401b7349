// Package transform provides a data transformation child for container
// execution.
package transform

import (
	"context"
	"errors"
	"fmt"

	"github.com/reporunner/containerflow/pkg/models"
	"github.com/reporunner/containerflow/pkg/template"
)

// Child transforms the execution input through a Go template expression.
type Child struct {
	id         string
	expression string
}

// NewChild creates a transformation child from its config.
func NewChild(id string, config map[string]any) (*Child, error) {
	expression, ok := config["expression"].(string)
	if !ok {
		return nil, errors.New("missing required field 'expression'")
	}

	return &Child{
		id:         id,
		expression: expression,
	}, nil
}

func (c *Child) ID() string {
	return c.id
}

func (c *Child) Type() string {
	return "transform"
}

// Execute renders the expression against the execution context and returns
// the coerced result.
func (c *Child) Execute(_ context.Context, execCtx models.ExecutionContext) (any, error) {
	result, err := template.RenderWithContext(c.expression, &execCtx)
	if err != nil {
		return nil, fmt.Errorf("transformation failed: %w", err)
	}

	return result, nil
}
