package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/talentbase/signoff/pkg/models"
	"github.com/talentbase/signoff/pkg/persistence"
)

const stepColumns = `id, instance_id, step_number, name, required_role, assigned_to, delegated_to,
	backup_approver_id, status, due_date, escalation_date, is_committee_vote, minimum_votes,
	decision_date, comments, escalated_to, created_at`

// StepRepository stores approval steps.
type StepRepository struct {
	q      querier
	inTx   bool
	logger *slog.Logger
}

func (r *StepRepository) ByID(ctx context.Context, id string) (*models.ApprovalStep, error) {
	query := fmt.Sprintf("SELECT %s FROM approval_steps WHERE id = $1", stepColumns)

	step, err := scanStep(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrStepNotFound
		}

		return nil, fmt.Errorf("failed to get approval step: %w", err)
	}

	return step, nil
}

// ByIDForUpdate loads the step and, inside a transaction, takes a row lock so
// concurrent decisions on the same step serialize.
func (r *StepRepository) ByIDForUpdate(ctx context.Context, id string) (*models.ApprovalStep, error) {
	query := fmt.Sprintf("SELECT %s FROM approval_steps WHERE id = $1", stepColumns)
	if r.inTx {
		query += " FOR UPDATE"
	}

	step, err := scanStep(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrStepNotFound
		}

		return nil, fmt.Errorf("failed to lock approval step: %w", err)
	}

	return step, nil
}

func (r *StepRepository) ByInstance(ctx context.Context, instanceID string) ([]*models.ApprovalStep, error) {
	query := fmt.Sprintf("SELECT %s FROM approval_steps WHERE instance_id = $1 ORDER BY step_number", stepColumns)

	rows, err := r.q.QueryContext(ctx, query, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query approval steps: %w", err)
	}
	defer rows.Close()

	return scanSteps(rows)
}

func (r *StepRepository) ByInstanceIDs(ctx context.Context, instanceIDs []string) ([]*models.ApprovalStep, error) {
	if len(instanceIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM approval_steps
		WHERE instance_id = ANY($1) ORDER BY instance_id, step_number`, stepColumns)

	rows, err := r.q.QueryContext(ctx, query, pq.Array(instanceIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query approval steps: %w", err)
	}
	defer rows.Close()

	return scanSteps(rows)
}

// PendingByApprover returns pending steps the user can act on, as assigned,
// delegated, or backup approver, ordered by due date.
func (r *StepRepository) PendingByApprover(ctx context.Context, userID string) ([]*models.ApprovalStep, error) {
	query := fmt.Sprintf(`SELECT %s FROM approval_steps
		WHERE status = 'pending' AND (assigned_to = $1 OR delegated_to = $1 OR backup_approver_id = $1)
		ORDER BY due_date, id`, stepColumns)

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending approval steps: %w", err)
	}
	defer rows.Close()

	return scanSteps(rows)
}

// Overdue returns pending steps whose SLA tracker passed its target without an
// escalation having been triggered yet.
func (r *StepRepository) Overdue(ctx context.Context, now time.Time) ([]*models.ApprovalStep, error) {
	query := fmt.Sprintf(`SELECT %s FROM approval_steps s
		JOIN sla_trackers t ON t.step_id = s.id
		WHERE s.status = 'pending'
			AND t.completed_at IS NULL
			AND t.escalation_triggered_at IS NULL
			AND t.started_at + (t.sla_target_hours * INTERVAL '1 hour') < $1
		ORDER BY s.id`, prefixColumns("s", stepColumns))

	rows, err := r.q.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue approval steps: %w", err)
	}
	defer rows.Close()

	return scanSteps(rows)
}

func (r *StepRepository) Save(ctx context.Context, step *models.ApprovalStep) error {
	query := `
		INSERT INTO approval_steps (id, instance_id, step_number, name, required_role, assigned_to,
			delegated_to, backup_approver_id, status, due_date, escalation_date, is_committee_vote,
			minimum_votes, decision_date, comments, escalated_to, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			delegated_to = EXCLUDED.delegated_to,
			status = EXCLUDED.status,
			decision_date = EXCLUDED.decision_date,
			comments = EXCLUDED.comments,
			escalated_to = EXCLUDED.escalated_to
	`

	_, err := r.q.ExecContext(ctx, query,
		step.ID, step.InstanceID, step.StepNumber, step.Name, step.RequiredRole, step.AssignedTo,
		step.DelegatedTo, step.BackupApproverID, string(step.Status), step.DueDate,
		step.EscalationDate, step.IsCommitteeVote, step.MinimumVotes, step.DecisionDate,
		step.Comments, step.EscalatedTo, step.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save approval step: %w", err)
	}

	return nil
}

// prefixColumns qualifies a column list with a table alias for joins.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}

	return strings.Join(parts, ", ")
}

func scanStep(row rowScanner) (*models.ApprovalStep, error) {
	var (
		step         models.ApprovalStep
		decisionDate sql.NullTime
	)

	err := row.Scan(&step.ID, &step.InstanceID, &step.StepNumber, &step.Name, &step.RequiredRole,
		&step.AssignedTo, &step.DelegatedTo, &step.BackupApproverID, &step.Status, &step.DueDate,
		&step.EscalationDate, &step.IsCommitteeVote, &step.MinimumVotes, &decisionDate,
		&step.Comments, &step.EscalatedTo, &step.CreatedAt)
	if err != nil {
		return nil, err
	}

	if decisionDate.Valid {
		step.DecisionDate = &decisionDate.Time
	}

	return &step, nil
}

func scanSteps(rows *sql.Rows) ([]*models.ApprovalStep, error) {
	var steps []*models.ApprovalStep

	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval step: %w", err)
		}

		steps = append(steps, step)
	}

	return steps, rows.Err()
}
