// Package redis provides Redis-backed persistence for container definitions
// and execution records. Definitions live in a hash keyed by container id;
// execution records are kept per container in a list, newest first.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/reporunner/containerflow/pkg/models"
	"github.com/reporunner/containerflow/pkg/persistence"
)

const (
	definitionsKey      = "containerflow:definitions"
	executionsKeyPrefix = "containerflow:executions:"

	// maxExecutionsPerContainer bounds the archive per container.
	maxExecutionsPerContainer = 1000
)

// Persistence implements persistence.Persistence on Redis.
type Persistence struct {
	client *redis.Client
}

// NewPersistence connects to Redis at the given URL (redis://...).
func NewPersistence(ctx context.Context, redisURL string) (*Persistence, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Persistence{client: client}, nil
}

// NewPersistenceWithClient wraps an existing client, used by tests.
func NewPersistenceWithClient(client *redis.Client) *Persistence {
	return &Persistence{client: client}
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) Definitions(ctx context.Context) ([]*models.ContainerDefinition, error) {
	entries, err := p.client.HGetAll(ctx, definitionsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}

	definitions := make([]*models.ContainerDefinition, 0, len(entries))

	for id, body := range entries {
		var definition models.ContainerDefinition

		if err := json.Unmarshal([]byte(body), &definition); err != nil {
			return nil, fmt.Errorf("failed to unmarshal definition %s: %w", id, err)
		}

		definitions = append(definitions, &definition)
	}

	return definitions, nil
}

func (p *Persistence) DefinitionByID(ctx context.Context, id string) (*models.ContainerDefinition, error) {
	body, err := p.client.HGet(ctx, definitionsKey, id).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, persistence.NewDefinitionError("GetByID", id, persistence.ErrDefinitionNotFound)
		}

		return nil, persistence.NewDefinitionError("GetByID", id, err)
	}

	var definition models.ContainerDefinition

	if err := json.Unmarshal([]byte(body), &definition); err != nil {
		return nil, fmt.Errorf("failed to unmarshal definition %s: %w", id, err)
	}

	return &definition, nil
}

func (p *Persistence) SaveDefinition(ctx context.Context, definition *models.ContainerDefinition) error {
	if err := definition.Validate(); err != nil {
		return fmt.Errorf("%w: %w", persistence.ErrInvalidDefinition, err)
	}

	now := time.Now().UTC()
	if definition.CreatedAt.IsZero() {
		definition.CreatedAt = now
	}

	definition.UpdatedAt = now

	body, err := json.Marshal(definition)
	if err != nil {
		return fmt.Errorf("failed to marshal definition %s: %w", definition.ID(), err)
	}

	if err := p.client.HSet(ctx, definitionsKey, definition.ID(), body).Err(); err != nil {
		return persistence.NewDefinitionError("Save", definition.ID(), err)
	}

	return nil
}

func (p *Persistence) DeleteDefinition(ctx context.Context, id string) error {
	if err := p.client.HDel(ctx, definitionsKey, id).Err(); err != nil {
		return persistence.NewDefinitionError("Delete", id, err)
	}

	return nil
}

func (p *Persistence) Executions(ctx context.Context, containerID string) ([]*models.ExecutionRecord, error) {
	entries, err := p.client.LRange(ctx, executionsKeyPrefix+containerID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list execution records: %w", err)
	}

	records := make([]*models.ExecutionRecord, 0, len(entries))

	for _, body := range entries {
		var record models.ExecutionRecord

		if err := json.Unmarshal([]byte(body), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution record: %w", err)
		}

		records = append(records, &record)
	}

	return records, nil
}

func (p *Persistence) SaveExecution(ctx context.Context, record *models.ExecutionRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal execution record %s: %w", record.ID, err)
	}

	key := executionsKeyPrefix + record.ContainerID

	pipe := p.client.TxPipeline()
	pipe.LPush(ctx, key, body)
	pipe.LTrim(ctx, key, 0, maxExecutionsPerContainer-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to archive execution record %s: %w", record.ID, err)
	}

	return nil
}

var _ persistence.Persistence = (*Persistence)(nil)
