// Package scheduler runs stored container definitions on cron schedules.
// Definitions carry an optional standard five-field cron expression; the
// scheduler keeps one cron entry per scheduled container.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/reporunner/containerflow/pkg/persistence"
	"github.com/reporunner/containerflow/pkg/services"
)

// ErrInvalidCronExpression indicates a schedule could not be parsed.
var ErrInvalidCronExpression = errors.New("invalid cron expression")

// Scheduler triggers container runs on their configured cron schedules.
type Scheduler struct {
	runner      *services.Runner
	persistence persistence.Persistence
	logger      *slog.Logger
	cron        *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// NewScheduler creates a scheduler bound to the given runner and store.
func NewScheduler(runner *services.Runner, persist persistence.Persistence, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:      runner,
		persistence: persist,
		logger:      logger.With("module", "scheduler"),
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
			cron.Recover(cron.DefaultLogger),
		)),
		entries: make(map[string]cron.EntryID),
	}
}

// Load reads every stored definition and registers those with a schedule.
// Containers already registered keep their entry only if the expression is
// unchanged.
func (s *Scheduler) Load(ctx context.Context) error {
	definitions, err := s.persistence.Definitions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load definitions: %w", err)
	}

	loaded := 0

	for _, definition := range definitions {
		if definition.Schedule == "" {
			continue
		}

		if err := s.Add(definition.ID(), definition.Schedule); err != nil {
			s.logger.WarnContext(ctx, "Skipping container with invalid schedule",
				"container_id", definition.ID(),
				"schedule", definition.Schedule,
				"error", err,
			)

			continue
		}

		loaded++
	}

	s.logger.InfoContext(ctx, "Loaded container schedules", "count", loaded)

	return nil
}

// Add registers or replaces the cron entry for a container.
func (s *Scheduler) Add(containerID, cronExpr string) error {
	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidCronExpression, cronExpr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.entries[containerID]; ok {
		s.cron.Remove(entryID)
	}

	entryID, err := s.cron.AddFunc(cronExpr, func() {
		s.run(containerID)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron entry for container %s: %w", containerID, err)
	}

	s.entries[containerID] = entryID

	s.logger.Info("Scheduled container", "container_id", containerID, "cron", cronExpr)

	return nil
}

// Remove drops a container's cron entry if one exists.
func (s *Scheduler) Remove(containerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.entries[containerID]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, containerID)
	}
}

// Scheduled returns the ids of the containers with an active cron entry.
func (s *Scheduler) Scheduled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}

	return ids
}

// Start begins firing cron entries.
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop halts the cron loop and waits for in-flight runs to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping scheduler")

	stopped := s.cron.Stop()

	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run(containerID string) {
	ctx := context.Background()

	s.logger.InfoContext(ctx, "Scheduled run firing", "container_id", containerID)

	result, err := s.runner.Run(ctx, containerID, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Scheduled run failed",
			"container_id", containerID,
			"error", err,
		)

		return
	}

	s.logger.InfoContext(ctx, "Scheduled run finished",
		"container_id", containerID,
		"success", result.Success,
		"duration_ms", result.DurationMs,
	)
}
