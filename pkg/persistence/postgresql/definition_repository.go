package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/reporunner/containerflow/pkg/models"
	"github.com/reporunner/containerflow/pkg/persistence"
)

// DefinitionRepository handles container definition database operations.
type DefinitionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDefinitionRepository creates a new definition repository.
func NewDefinitionRepository(db *sql.DB, logger *slog.Logger) *DefinitionRepository {
	return &DefinitionRepository{
		db:     db,
		logger: logger.With("module", "postgresql_definitions"),
	}
}

// Save upserts a definition, serializing the structured fields as JSONB.
func (r *DefinitionRepository) Save(ctx context.Context, definition *models.ContainerDefinition) error {
	if err := definition.Validate(); err != nil {
		return fmt.Errorf("%w: %w", persistence.ErrInvalidDefinition, err)
	}

	containerJSON, err := json.Marshal(definition.Container)
	if err != nil {
		return fmt.Errorf("failed to marshal container config: %w", err)
	}

	childrenJSON, err := json.Marshal(definition.Children)
	if err != nil {
		return fmt.Errorf("failed to marshal children: %w", err)
	}

	variablesJSON, err := json.Marshal(definition.Variables)
	if err != nil {
		return fmt.Errorf("failed to marshal variables: %w", err)
	}

	now := time.Now().UTC()
	if definition.CreatedAt.IsZero() {
		definition.CreatedAt = now
	}

	definition.UpdatedAt = now

	query := `
		INSERT INTO container_definitions (id, name, description, container, children, variables, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			container = EXCLUDED.container,
			children = EXCLUDED.children,
			variables = EXCLUDED.variables,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		definition.ID(),
		definition.Name,
		definition.Description,
		containerJSON,
		childrenJSON,
		variablesJSON,
		definition.CreatedAt,
		definition.UpdatedAt,
	)
	if err != nil {
		return persistence.NewDefinitionError("Save", definition.ID(), err)
	}

	return nil
}

// GetByID retrieves a definition by its container id.
func (r *DefinitionRepository) GetByID(ctx context.Context, id string) (*models.ContainerDefinition, error) {
	query := `
		SELECT name, description, container, children, variables, created_at, updated_at
		FROM container_definitions
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)

	definition, err := scanDefinition(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewDefinitionError("GetByID", id, persistence.ErrDefinitionNotFound)
		}

		return nil, persistence.NewDefinitionError("GetByID", id, err)
	}

	return definition, nil
}

// GetAll returns every stored definition, newest first.
func (r *DefinitionRepository) GetAll(ctx context.Context) ([]*models.ContainerDefinition, error) {
	query := `
		SELECT name, description, container, children, variables, created_at, updated_at
		FROM container_definitions
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query definitions: %w", err)
	}
	defer rows.Close()

	definitions := make([]*models.ContainerDefinition, 0)

	for rows.Next() {
		definition, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan definition: %w", err)
		}

		definitions = append(definitions, definition)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate definitions: %w", err)
	}

	return definitions, nil
}

// Delete removes a definition. Deleting a missing definition is not an
// error.
func (r *DefinitionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM container_definitions WHERE id = $1", id)
	if err != nil {
		return persistence.NewDefinitionError("Delete", id, err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row rowScanner) (*models.ContainerDefinition, error) {
	var (
		definition    models.ContainerDefinition
		containerJSON []byte
		childrenJSON  []byte
		variablesJSON []byte
	)

	err := row.Scan(
		&definition.Name,
		&definition.Description,
		&containerJSON,
		&childrenJSON,
		&variablesJSON,
		&definition.CreatedAt,
		&definition.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(containerJSON, &definition.Container); err != nil {
		return nil, fmt.Errorf("failed to unmarshal container config: %w", err)
	}

	if err := json.Unmarshal(childrenJSON, &definition.Children); err != nil {
		return nil, fmt.Errorf("failed to unmarshal children: %w", err)
	}

	if len(variablesJSON) > 0 {
		if err := json.Unmarshal(variablesJSON, &definition.Variables); err != nil {
			return nil, fmt.Errorf("failed to unmarshal variables: %w", err)
		}
	}

	return &definition, nil
}
