package entities

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/talentbase/signoff/pkg/models"
)

// entityTables maps entity types onto the portal tables that carry their
// status column. The tables belong to the portal schema, not this service.
var entityTables = map[models.EntityType]string{
	models.EntityTypeOffer:          "offers",
	models.EntityTypeInterview:      "interviews",
	models.EntityTypeRoleTransition: "role_transitions",
}

// PortalStore writes approval outcomes back onto the portal's business
// tables.
type PortalStore struct {
	db *sql.DB
}

func NewPortalStore(db *sql.DB) *PortalStore {
	return &PortalStore{db: db}
}

func (s *PortalStore) WriteStatus(ctx context.Context, entityType models.EntityType, entityID, status string) error {
	table, ok := entityTables[entityType]
	if !ok {
		return fmt.Errorf("no portal table for entity type %s", entityType)
	}

	query := fmt.Sprintf("UPDATE %s SET status = $1, updated_at = NOW() WHERE id = $2", table)

	result, err := s.db.ExecContext(ctx, query, status, entityID)
	if err != nil {
		return fmt.Errorf("failed to update %s %s: %w", entityType, entityID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("%s %s not found", entityType, entityID)
	}

	return nil
}
