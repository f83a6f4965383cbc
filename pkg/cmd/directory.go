package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/talentbase/signoff/pkg/directory"
	"github.com/talentbase/signoff/pkg/entities"
	"github.com/talentbase/signoff/pkg/persistence"
	"github.com/talentbase/signoff/pkg/persistence/postgresql"
)

const directoryCacheTTL = 5 * time.Minute

// NewDirectory builds the identity directory. With PostgreSQL persistence it
// reads the portal's users table; otherwise an empty static directory is
// returned and users must be added programmatically. A redis URL wraps the
// directory in a read-through cache.
func NewDirectory(store persistence.Persistence, redisURL string, logger *slog.Logger) (directory.Directory, error) {
	var dir directory.Directory

	if pg, ok := store.(*postgresql.Persistence); ok {
		dir = directory.NewPostgresDirectory(pg.DB())
	} else {
		logger.Warn("using empty static directory, no approvers can be resolved until users are added")

		dir = directory.NewStaticDirectory()
	}

	if redisURL == "" {
		return dir, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return directory.NewCachedDirectory(dir, redis.NewClient(opts), directoryCacheTTL, logger), nil
}

// NewStatusWriter builds the entity status writer backing terminal-outcome
// synchronization. With PostgreSQL persistence it updates the portal's entity
// tables directly.
func NewStatusWriter(store persistence.Persistence, logger *slog.Logger) entities.StatusWriter {
	if pg, ok := store.(*postgresql.Persistence); ok {
		return entities.NewPortalStore(pg.DB())
	}

	logger.Warn("using in-memory entity status store")

	return entities.NewMemoryStore()
}
