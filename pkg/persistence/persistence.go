// Package persistence provides the data storage abstraction for container
// definitions and archived execution records.
package persistence

import (
	"context"

	"github.com/reporunner/containerflow/pkg/models"
)

// Persistence is the storage contract shared by the file, PostgreSQL and
// Redis backends.
type Persistence interface {
	Definitions(ctx context.Context) ([]*models.ContainerDefinition, error)
	DefinitionByID(ctx context.Context, id string) (*models.ContainerDefinition, error)
	SaveDefinition(ctx context.Context, definition *models.ContainerDefinition) error
	DeleteDefinition(ctx context.Context, id string) error

	Executions(ctx context.Context, containerID string) ([]*models.ExecutionRecord, error)
	SaveExecution(ctx context.Context, record *models.ExecutionRecord) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
