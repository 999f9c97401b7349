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

	"github.com/google/uuid"

	"github.com/reporunner/containerflow/pkg/models"
)

// ExecutionRepository archives execution records, one JSON document per
// record, grouped by container id.
type ExecutionRepository struct {
	root string
}

// NewExecutionRepository creates an execution repository below root.
func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

func (er *ExecutionRepository) dir(containerID string) string {
	return path.Join(er.root, "executions", containerID)
}

// Save writes a record to disk, assigning an id when missing.
func (er *ExecutionRepository) Save(_ context.Context, record *models.ExecutionRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	dir := er.dir(record.ContainerID)

	err := os.MkdirAll(dir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create executions directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal execution record %s: %w", record.ID, err)
	}

	return os.WriteFile(path.Join(dir, record.ID+".json"), data, 0600)
}

// ByContainer loads every record archived for a container, newest first.
func (er *ExecutionRepository) ByContainer(_ context.Context, containerID string) ([]*models.ExecutionRecord, error) {
	dir := er.dir(containerID)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []*models.ExecutionRecord{}, nil
	}

	jsonFiles, err := fs.Glob(os.DirFS(dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list execution records: %w", err)
	}

	records := make([]*models.ExecutionRecord, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		body, err := os.ReadFile(filepath.Clean(path.Join(dir, file)))
		if err != nil {
			return nil, fmt.Errorf("failed to read execution record %s: %w", file, err)
		}

		var record models.ExecutionRecord

		if err := json.Unmarshal(body, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution record %s: %w", file, err)
		}

		records = append(records, &record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})

	return records, nil
}
