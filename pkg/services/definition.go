// Package services provides the application layer between the transports
// (HTTP API, CLI) and the engine: definition management and container runs.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/reporunner/containerflow/pkg/models"
	"github.com/reporunner/containerflow/pkg/persistence"
)

// ErrDefinitionNotFound is returned when a definition is not found.
var ErrDefinitionNotFound = persistence.ErrDefinitionNotFound

// Definition manages stored container definitions.
type Definition struct {
	persistence persistence.Persistence
}

// NewDefinition creates a new definition service.
func NewDefinition(persistence persistence.Persistence) *Definition {
	return &Definition{
		persistence: persistence,
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Definition) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns every stored definition.
func (s *Definition) List(ctx context.Context) ([]*models.ContainerDefinition, error) {
	definitions, err := s.persistence.Definitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}

	return definitions, nil
}

// Get returns one definition by container id.
func (s *Definition) Get(ctx context.Context, id string) (*models.ContainerDefinition, error) {
	return s.persistence.DefinitionByID(ctx, id)
}

// Save validates and stores a definition.
func (s *Definition) Save(ctx context.Context, definition *models.ContainerDefinition) error {
	if err := definition.Validate(); err != nil {
		return fmt.Errorf("%w: %w", persistence.ErrInvalidDefinition, err)
	}

	now := time.Now().UTC()
	if definition.CreatedAt.IsZero() {
		definition.CreatedAt = now
	}

	definition.UpdatedAt = now

	return s.persistence.SaveDefinition(ctx, definition)
}

// Delete removes a definition by container id.
func (s *Definition) Delete(ctx context.Context, id string) error {
	return s.persistence.DeleteDefinition(ctx, id)
}

// Executions returns the archived execution records of a container, newest
// first.
func (s *Definition) Executions(ctx context.Context, containerID string) ([]*models.ExecutionRecord, error) {
	return s.persistence.Executions(ctx, containerID)
}
