// Package file provides file-based persistence for container definitions
// and execution records.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/reporunner/containerflow/pkg/models"
	"github.com/reporunner/containerflow/pkg/persistence"
)

// Persistence implements persistence.Persistence on top of a directory of
// JSON documents. It is intended for local development and tests.
type Persistence struct {
	root           string
	definitionRepo *DefinitionRepository
	executionRepo  *ExecutionRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:           cleanRoot,
		definitionRepo: NewDefinitionRepository(cleanRoot),
		executionRepo:  NewExecutionRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence there is
// nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) Definitions(ctx context.Context) ([]*models.ContainerDefinition, error) {
	return fp.definitionRepo.GetAll(ctx)
}

func (fp *Persistence) DefinitionByID(ctx context.Context, id string) (*models.ContainerDefinition, error) {
	return fp.definitionRepo.GetByID(ctx, id)
}

func (fp *Persistence) SaveDefinition(ctx context.Context, definition *models.ContainerDefinition) error {
	return fp.definitionRepo.Save(ctx, definition)
}

func (fp *Persistence) DeleteDefinition(ctx context.Context, id string) error {
	return fp.definitionRepo.Delete(ctx, id)
}

func (fp *Persistence) Executions(ctx context.Context, containerID string) ([]*models.ExecutionRecord, error) {
	return fp.executionRepo.ByContainer(ctx, containerID)
}

func (fp *Persistence) SaveExecution(ctx context.Context, record *models.ExecutionRecord) error {
	return fp.executionRepo.Save(ctx, record)
}

var _ persistence.Persistence = (*Persistence)(nil)
