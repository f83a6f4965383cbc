// Package cmd provides shared wiring helpers for the signoff binaries.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/talentbase/signoff/pkg/persistence"
	"github.com/talentbase/signoff/pkg/persistence/memory"
	"github.com/talentbase/signoff/pkg/persistence/postgresql"
)

// NewPersistence builds a persistence layer from a database URL. A
// postgres:// URL connects to the portal database; anything else gets the
// in-memory store, which is only suitable for local development.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL persistence: %w", err)
		}

		return store, nil
	}

	logger.Warn("using in-memory persistence, state is lost on restart", "database_url", databaseURL)

	return memory.NewStore(), nil
}
