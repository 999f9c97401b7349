package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/reporunner/containerflow/pkg/persistence"
	"github.com/reporunner/containerflow/pkg/persistence/file"
	"github.com/reporunner/containerflow/pkg/persistence/postgresql"
	"github.com/reporunner/containerflow/pkg/persistence/redis"
)

// NewPersistence selects the persistence backend from the database URL
// scheme: postgres/postgresql, redis, or a file path (the default).
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	case "redis":
		return redis.NewPersistence(ctx, databaseURL)
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	parts := strings.SplitN(databaseURL, "://", 2)
	if len(parts) < 2 {
		return "file"
	}

	return parts[0]
}
