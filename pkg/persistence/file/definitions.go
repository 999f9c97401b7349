package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/reporunner/containerflow/pkg/models"
	"github.com/reporunner/containerflow/pkg/persistence"
)

// DefinitionRepository handles container definition file operations.
type DefinitionRepository struct {
	root string
}

// NewDefinitionRepository creates a definition repository below root.
func NewDefinitionRepository(root string) *DefinitionRepository {
	return &DefinitionRepository{root: root}
}

func (dr *DefinitionRepository) dir() string {
	return path.Join(dr.root, "definitions")
}

// GetAll loads every stored definition, sorted by creation time descending.
func (dr *DefinitionRepository) GetAll(ctx context.Context) ([]*models.ContainerDefinition, error) {
	root := os.DirFS(dr.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list definition files: %w", err)
	}

	definitions := make([]*models.ContainerDefinition, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		id := file[:len(file)-len(".json")]

		definition, err := dr.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load definition %s: %w", id, err)
		}

		definitions = append(definitions, definition)
	}

	sort.Slice(definitions, func(i, j int) bool {
		return definitions[i].CreatedAt.After(definitions[j].CreatedAt)
	})

	return definitions, nil
}

// GetByID retrieves a definition by its container id.
func (dr *DefinitionRepository) GetByID(_ context.Context, id string) (*models.ContainerDefinition, error) {
	filePath := filepath.Clean(path.Join(dr.dir(), id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewDefinitionError("GetByID", id, persistence.ErrDefinitionNotFound)
		}

		return nil, fmt.Errorf("failed to fetch definition %s: %w", id, err)
	}

	var definition models.ContainerDefinition

	err = json.Unmarshal(body, &definition)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal definition %s: %w", id, err)
	}

	return &definition, nil
}

// Save writes a definition to disk, stamping created/updated times.
func (dr *DefinitionRepository) Save(_ context.Context, definition *models.ContainerDefinition) error {
	if err := definition.Validate(); err != nil {
		return fmt.Errorf("%w: %w", persistence.ErrInvalidDefinition, err)
	}

	err := os.MkdirAll(dr.dir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create definitions directory: %w", err)
	}

	now := time.Now().UTC()
	if definition.CreatedAt.IsZero() {
		definition.CreatedAt = now
	}

	definition.UpdatedAt = now

	data, err := json.MarshalIndent(definition, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal definition %s: %w", definition.ID(), err)
	}

	filePath := path.Join(dr.dir(), definition.ID()+".json")

	return os.WriteFile(filePath, data, 0600)
}

// Delete removes a definition by its id. Deleting a missing definition is
// not an error.
func (dr *DefinitionRepository) Delete(_ context.Context, id string) error {
	filePath := path.Join(dr.dir(), id+".json")

	err := os.Remove(filePath)
	if err != nil && os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete definition %s: %w", id, err)
	}

	return nil
}
