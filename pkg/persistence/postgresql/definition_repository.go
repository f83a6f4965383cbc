package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/talentbase/signoff/pkg/models"
	"github.com/talentbase/signoff/pkg/persistence"
)

const definitionColumns = `id, name, entity_type, department, position_level, salary_min, salary_max,
	steps, sla_hours, escalation_hours, is_active, created_at, updated_at`

// DefinitionRepository stores workflow definitions.
type DefinitionRepository struct {
	q      querier
	logger *slog.Logger
}

func (r *DefinitionRepository) All(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	query := fmt.Sprintf("SELECT %s FROM workflow_definitions ORDER BY id", definitionColumns)

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow definitions: %w", err)
	}
	defer rows.Close()

	return scanDefinitions(rows)
}

func (r *DefinitionRepository) ActiveByEntityType(ctx context.Context, entityType models.EntityType) ([]*models.WorkflowDefinition, error) {
	query := fmt.Sprintf(`SELECT %s FROM workflow_definitions
		WHERE entity_type = $1 AND is_active = TRUE ORDER BY id`, definitionColumns)

	rows, err := r.q.QueryContext(ctx, query, string(entityType))
	if err != nil {
		return nil, fmt.Errorf("failed to query active workflow definitions: %w", err)
	}
	defer rows.Close()

	return scanDefinitions(rows)
}

func (r *DefinitionRepository) ByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	query := fmt.Sprintf("SELECT %s FROM workflow_definitions WHERE id = $1", definitionColumns)

	def, err := scanDefinition(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrDefinitionNotFound
		}

		return nil, fmt.Errorf("failed to get workflow definition: %w", err)
	}

	return def, nil
}

func (r *DefinitionRepository) Save(ctx context.Context, def *models.WorkflowDefinition) error {
	stepsJSON, err := json.Marshal(def.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal definition steps: %w", err)
	}

	query := `
		INSERT INTO workflow_definitions (id, name, entity_type, department, position_level,
			salary_min, salary_max, steps, sla_hours, escalation_hours, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			entity_type = EXCLUDED.entity_type,
			department = EXCLUDED.department,
			position_level = EXCLUDED.position_level,
			salary_min = EXCLUDED.salary_min,
			salary_max = EXCLUDED.salary_max,
			steps = EXCLUDED.steps,
			sla_hours = EXCLUDED.sla_hours,
			escalation_hours = EXCLUDED.escalation_hours,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.q.ExecContext(ctx, query,
		def.ID, def.Name, string(def.EntityType), def.Department, def.PositionLevel,
		def.SalaryMin, def.SalaryMax, stepsJSON, def.SLAHours, def.EscalationHours,
		def.IsActive, def.CreatedAt, def.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save workflow definition: %w", err)
	}

	return nil
}

func (r *DefinitionRepository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.q.ExecContext(ctx,
		"UPDATE workflow_definitions SET is_active = $2, updated_at = NOW() WHERE id = $1", id, active)
	if err != nil {
		return fmt.Errorf("failed to update workflow definition: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.ErrDefinitionNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row rowScanner) (*models.WorkflowDefinition, error) {
	var (
		def       models.WorkflowDefinition
		stepsJSON []byte
	)

	err := row.Scan(&def.ID, &def.Name, &def.EntityType, &def.Department, &def.PositionLevel,
		&def.SalaryMin, &def.SalaryMax, &stepsJSON, &def.SLAHours, &def.EscalationHours,
		&def.IsActive, &def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(stepsJSON, &def.Steps)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal definition steps: %w", err)
	}

	return &def, nil
}

func scanDefinitions(rows *sql.Rows) ([]*models.WorkflowDefinition, error) {
	var definitions []*models.WorkflowDefinition

	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow definition: %w", err)
		}

		definitions = append(definitions, def)
	}

	return definitions, rows.Err()
}
