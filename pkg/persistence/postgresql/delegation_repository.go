package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/talentbase/signoff/pkg/models"
	"github.com/talentbase/signoff/pkg/persistence"
)

const delegationColumns = `id, delegator_id, delegate_id, delegation_scope, department, salary_min,
	salary_max, start_date, end_date, is_active, reason, created_at`

// DelegationRepository stores delegations of approval authority.
type DelegationRepository struct {
	q      querier
	logger *slog.Logger
}

func (r *DelegationRepository) All(ctx context.Context) ([]*models.Delegation, error) {
	query := fmt.Sprintf("SELECT %s FROM delegations ORDER BY id", delegationColumns)

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query delegations: %w", err)
	}
	defer rows.Close()

	return scanDelegations(rows)
}

func (r *DelegationRepository) Active(ctx context.Context) ([]*models.Delegation, error) {
	query := fmt.Sprintf("SELECT %s FROM delegations WHERE is_active = TRUE ORDER BY id", delegationColumns)

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active delegations: %w", err)
	}
	defer rows.Close()

	return scanDelegations(rows)
}

func (r *DelegationRepository) ByID(ctx context.Context, id string) (*models.Delegation, error) {
	query := fmt.Sprintf("SELECT %s FROM delegations WHERE id = $1", delegationColumns)

	delegation, err := scanDelegation(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrDelegationNotFound
		}

		return nil, fmt.Errorf("failed to get delegation: %w", err)
	}

	return delegation, nil
}

func (r *DelegationRepository) Save(ctx context.Context, delegation *models.Delegation) error {
	query := `
		INSERT INTO delegations (id, delegator_id, delegate_id, delegation_scope, department,
			salary_min, salary_max, start_date, end_date, is_active, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			delegation_scope = EXCLUDED.delegation_scope,
			department = EXCLUDED.department,
			salary_min = EXCLUDED.salary_min,
			salary_max = EXCLUDED.salary_max,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			is_active = EXCLUDED.is_active,
			reason = EXCLUDED.reason
	`

	_, err := r.q.ExecContext(ctx, query,
		delegation.ID, delegation.DelegatorID, delegation.DelegateID, string(delegation.Scope),
		delegation.Department, delegation.SalaryMin, delegation.SalaryMax, delegation.StartDate,
		delegation.EndDate, delegation.IsActive, delegation.Reason, delegation.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save delegation: %w", err)
	}

	return nil
}

// End deactivates a delegation and closes its window at the given time.
func (r *DelegationRepository) End(ctx context.Context, id string, at time.Time) error {
	result, err := r.q.ExecContext(ctx,
		"UPDATE delegations SET is_active = FALSE, end_date = $2 WHERE id = $1", id, at)
	if err != nil {
		return fmt.Errorf("failed to end delegation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.ErrDelegationNotFound
	}

	return nil
}

func scanDelegation(row rowScanner) (*models.Delegation, error) {
	var (
		delegation models.Delegation
		endDate    sql.NullTime
	)

	err := row.Scan(&delegation.ID, &delegation.DelegatorID, &delegation.DelegateID,
		&delegation.Scope, &delegation.Department, &delegation.SalaryMin, &delegation.SalaryMax,
		&delegation.StartDate, &endDate, &delegation.IsActive, &delegation.Reason,
		&delegation.CreatedAt)
	if err != nil {
		return nil, err
	}

	if endDate.Valid {
		delegation.EndDate = &endDate.Time
	}

	return &delegation, nil
}

func scanDelegations(rows *sql.Rows) ([]*models.Delegation, error) {
	var delegations []*models.Delegation

	for rows.Next() {
		delegation, err := scanDelegation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delegation: %w", err)
		}

		delegations = append(delegations, delegation)
	}

	return delegations, rows.Err()
}
