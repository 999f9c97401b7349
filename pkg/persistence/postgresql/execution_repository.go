package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/reporunner/containerflow/pkg/models"
)

// ExecutionRepository archives execution records in the database.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{
		db:     db,
		logger: logger.With("module", "postgresql_executions"),
	}
}

// Save inserts a record, assigning an id when missing.
func (r *ExecutionRepository) Save(ctx context.Context, record *models.ExecutionRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	outputJSON, err := json.Marshal(record.Output)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	errorsJSON, err := json.Marshal(record.Errors)
	if err != nil {
		return fmt.Errorf("failed to marshal errors: %w", err)
	}

	metricsJSON, err := json.Marshal(record.Metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	query := `
		INSERT INTO execution_records (id, container_id, execution_id, workflow_id, status, success,
			output, errors, iterations, metrics, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.db.ExecContext(ctx, query,
		record.ID,
		record.ContainerID,
		record.ExecutionID,
		record.WorkflowID,
		record.Status,
		record.Success,
		outputJSON,
		errorsJSON,
		record.Iterations,
		metricsJSON,
		record.StartedAt,
		record.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert execution record %s: %w", record.ID, err)
	}

	return nil
}

// ByContainer returns every record archived for a container, newest first.
func (r *ExecutionRepository) ByContainer(ctx context.Context, containerID string) ([]*models.ExecutionRecord, error) {
	query := `
		SELECT id, container_id, execution_id, workflow_id, status, success,
			output, errors, iterations, metrics, started_at, completed_at
		FROM execution_records
		WHERE container_id = $1
		ORDER BY started_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution records: %w", err)
	}
	defer rows.Close()

	records := make([]*models.ExecutionRecord, 0)

	for rows.Next() {
		var (
			record      models.ExecutionRecord
			outputJSON  []byte
			errorsJSON  []byte
			metricsJSON []byte
		)

		err := rows.Scan(
			&record.ID,
			&record.ContainerID,
			&record.ExecutionID,
			&record.WorkflowID,
			&record.Status,
			&record.Success,
			&outputJSON,
			&errorsJSON,
			&record.Iterations,
			&metricsJSON,
			&record.StartedAt,
			&record.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution record: %w", err)
		}

		if err := json.Unmarshal(outputJSON, &record.Output); err != nil {
			return nil, fmt.Errorf("failed to unmarshal output: %w", err)
		}

		if err := json.Unmarshal(errorsJSON, &record.Errors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal errors: %w", err)
		}

		if err := json.Unmarshal(metricsJSON, &record.Metrics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate execution records: %w", err)
	}

	return records, nil
}
