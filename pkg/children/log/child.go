// Package log provides a logging child for container execution.
package log

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/reporunner/containerflow/pkg/models"
	"github.com/reporunner/containerflow/pkg/template"
)

// Child logs a templated message and passes the execution input through.
type Child struct {
	id      string
	message string
	level   string
	logger  *slog.Logger
}

// NewChild creates a logging child from its config.
func NewChild(id string, config map[string]any) (*Child, error) {
	message, ok := config["message"].(string)
	if !ok {
		return nil, errors.New("missing required field 'message'")
	}

	level := "info"
	if lvl, ok := config["level"].(string); ok {
		level = lvl
	}

	return &Child{
		id:      id,
		message: message,
		level:   level,
		logger:  slog.Default(),
	}, nil
}

func (c *Child) ID() string {
	return c.id
}

func (c *Child) Type() string {
	return "log"
}

// Execute renders and logs the message, echoing the input as output so log
// children are transparent in pipelines.
func (c *Child) Execute(ctx context.Context, execCtx models.ExecutionContext) (any, error) {
	rendered, err := template.RenderWithContext(c.message, &execCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render log message template: %w", err)
	}

	message := fmt.Sprintf("%v", rendered)

	logger := c.logger.With("child_id", c.id, "container_id", execCtx.ContainerID)

	switch c.level {
	case "debug":
		logger.DebugContext(ctx, message)
	case "warn":
		logger.WarnContext(ctx, message)
	case "error":
		logger.ErrorContext(ctx, message)
	default:
		logger.InfoContext(ctx, message)
	}

	return execCtx.Input, nil
}
