package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/talentbase/signoff/pkg/models"
	"github.com/talentbase/signoff/pkg/persistence"
)

const instanceColumns = `id, workflow_id, entity_type, entity_id, total_steps, current_step,
	overall_status, initiated_by, context, initiated_at, completed_at`

// InstanceRepository stores approval instances.
type InstanceRepository struct {
	q      querier
	logger *slog.Logger
}

func (r *InstanceRepository) ByID(ctx context.Context, id string) (*models.ApprovalInstance, error) {
	query := fmt.Sprintf("SELECT %s FROM approval_instances WHERE id = $1", instanceColumns)

	instance, err := scanInstance(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrInstanceNotFound
		}

		return nil, fmt.Errorf("failed to get approval instance: %w", err)
	}

	return instance, nil
}

func (r *InstanceRepository) ByIDs(ctx context.Context, ids []string) ([]*models.ApprovalInstance, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT %s FROM approval_instances WHERE id = ANY($1) ORDER BY initiated_at, id", instanceColumns)

	rows, err := r.q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query approval instances: %w", err)
	}
	defer rows.Close()

	return scanInstances(rows)
}

// ByEntity returns the live (pending) instance for the entity, if any.
func (r *InstanceRepository) ByEntity(ctx context.Context, entityType models.EntityType, entityID string) (*models.ApprovalInstance, error) {
	query := fmt.Sprintf(`SELECT %s FROM approval_instances
		WHERE entity_type = $1 AND entity_id = $2 AND overall_status = 'pending'`, instanceColumns)

	instance, err := scanInstance(r.q.QueryRowContext(ctx, query, string(entityType), entityID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrInstanceNotFound
		}

		return nil, fmt.Errorf("failed to get approval instance by entity: %w", err)
	}

	return instance, nil
}

func (r *InstanceRepository) InitiatedBetween(ctx context.Context, from, to time.Time) ([]*models.ApprovalInstance, error) {
	query := fmt.Sprintf(`SELECT %s FROM approval_instances
		WHERE initiated_at >= $1 AND initiated_at <= $2 ORDER BY initiated_at, id`, instanceColumns)

	rows, err := r.q.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query approval instances by period: %w", err)
	}
	defer rows.Close()

	return scanInstances(rows)
}

func (r *InstanceRepository) Save(ctx context.Context, instance *models.ApprovalInstance) error {
	contextJSON, err := json.Marshal(instance.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal routing context: %w", err)
	}

	query := `
		INSERT INTO approval_instances (id, workflow_id, entity_type, entity_id, total_steps,
			current_step, overall_status, initiated_by, context, initiated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			current_step = EXCLUDED.current_step,
			overall_status = EXCLUDED.overall_status,
			completed_at = EXCLUDED.completed_at
	`

	_, err = r.q.ExecContext(ctx, query,
		instance.ID, instance.WorkflowID, string(instance.EntityType), instance.EntityID,
		instance.TotalSteps, instance.CurrentStep, string(instance.OverallStatus),
		instance.InitiatedBy, contextJSON, instance.InitiatedAt, instance.CompletedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return persistence.ErrInstanceExists
		}

		return fmt.Errorf("failed to save approval instance: %w", err)
	}

	return nil
}

func scanInstance(row rowScanner) (*models.ApprovalInstance, error) {
	var (
		instance    models.ApprovalInstance
		contextJSON []byte
		completedAt sql.NullTime
	)

	err := row.Scan(&instance.ID, &instance.WorkflowID, &instance.EntityType, &instance.EntityID,
		&instance.TotalSteps, &instance.CurrentStep, &instance.OverallStatus,
		&instance.InitiatedBy, &contextJSON, &instance.InitiatedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(contextJSON, &instance.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal routing context: %w", err)
	}

	if completedAt.Valid {
		instance.CompletedAt = &completedAt.Time
	}

	return &instance, nil
}

func scanInstances(rows *sql.Rows) ([]*models.ApprovalInstance, error) {
	var instances []*models.ApprovalInstance

	for rows.Next() {
		instance, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval instance: %w", err)
		}

		instances = append(instances, instance)
	}

	return instances, rows.Err()
}
