// Package postgresql provides PostgreSQL persistence for container
// definitions and execution records.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"github.com/reporunner/containerflow/pkg/models"
	"github.com/reporunner/containerflow/pkg/persistence"
	"github.com/reporunner/containerflow/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db             *sql.DB
	logger         *slog.Logger
	definitionRepo *DefinitionRepository
	executionRepo  *ExecutionRepository
}

// NewPersistence connects, runs migrations and returns a ready persistence
// layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	postgres := &Persistence{
		db:             database,
		logger:         logger,
		definitionRepo: NewDefinitionRepository(database, logger),
		executionRepo:  NewExecutionRepository(database, logger),
	}

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Definitions(ctx context.Context) ([]*models.ContainerDefinition, error) {
	return p.definitionRepo.GetAll(ctx)
}

func (p *Persistence) DefinitionByID(ctx context.Context, id string) (*models.ContainerDefinition, error) {
	return p.definitionRepo.GetByID(ctx, id)
}

func (p *Persistence) SaveDefinition(ctx context.Context, definition *models.ContainerDefinition) error {
	return p.definitionRepo.Save(ctx, definition)
}

func (p *Persistence) DeleteDefinition(ctx context.Context, id string) error {
	return p.definitionRepo.Delete(ctx, id)
}

func (p *Persistence) Executions(ctx context.Context, containerID string) ([]*models.ExecutionRecord, error) {
	return p.executionRepo.ByContainer(ctx, containerID)
}

func (p *Persistence) SaveExecution(ctx context.Context, record *models.ExecutionRecord) error {
	return p.executionRepo.Save(ctx, record)
}

var _ persistence.Persistence = (*Persistence)(nil)
