package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/talentbase/signoff/pkg/models"
	"github.com/talentbase/signoff/pkg/persistence"
)

const slaColumns = `id, step_id, sla_target_hours, started_at, completed_at, sla_met, hours_taken,
	escalation_triggered_at, escalated_to`

// SLARepository stores SLA trackers.
type SLARepository struct {
	q      querier
	logger *slog.Logger
}

func (r *SLARepository) ByStepID(ctx context.Context, stepID string) (*models.SLATracker, error) {
	query := fmt.Sprintf("SELECT %s FROM sla_trackers WHERE step_id = $1", slaColumns)

	tracker, err := scanTracker(r.q.QueryRowContext(ctx, query, stepID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrSLATrackerNotFound
		}

		return nil, fmt.Errorf("failed to get SLA tracker: %w", err)
	}

	return tracker, nil
}

func (r *SLARepository) ByStepIDs(ctx context.Context, stepIDs []string) ([]*models.SLATracker, error) {
	if len(stepIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT %s FROM sla_trackers WHERE step_id = ANY($1) ORDER BY id", slaColumns)

	rows, err := r.q.QueryContext(ctx, query, pq.Array(stepIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query SLA trackers: %w", err)
	}
	defer rows.Close()

	var trackers []*models.SLATracker

	for rows.Next() {
		tracker, err := scanTracker(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan SLA tracker: %w", err)
		}

		trackers = append(trackers, tracker)
	}

	return trackers, rows.Err()
}

func (r *SLARepository) Save(ctx context.Context, tracker *models.SLATracker) error {
	query := `
		INSERT INTO sla_trackers (id, step_id, sla_target_hours, started_at, completed_at,
			sla_met, hours_taken, escalation_triggered_at, escalated_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (step_id) DO UPDATE SET
			completed_at = EXCLUDED.completed_at,
			sla_met = EXCLUDED.sla_met,
			hours_taken = EXCLUDED.hours_taken,
			escalation_triggered_at = EXCLUDED.escalation_triggered_at,
			escalated_to = EXCLUDED.escalated_to
	`

	_, err := r.q.ExecContext(ctx, query,
		tracker.ID, tracker.StepID, tracker.SLATargetHours, tracker.StartedAt, tracker.CompletedAt,
		tracker.SLAMet, tracker.HoursTaken, tracker.EscalationTriggeredAt, tracker.EscalatedTo)
	if err != nil {
		return fmt.Errorf("failed to save SLA tracker: %w", err)
	}

	return nil
}

func scanTracker(row rowScanner) (*models.SLATracker, error) {
	var (
		tracker     models.SLATracker
		completedAt sql.NullTime
		slaMet      sql.NullBool
		hoursTaken  sql.NullFloat64
		escalatedAt sql.NullTime
	)

	err := row.Scan(&tracker.ID, &tracker.StepID, &tracker.SLATargetHours, &tracker.StartedAt,
		&completedAt, &slaMet, &hoursTaken, &escalatedAt, &tracker.EscalatedTo)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		tracker.CompletedAt = &completedAt.Time
	}

	if slaMet.Valid {
		tracker.SLAMet = &slaMet.Bool
	}

	if hoursTaken.Valid {
		tracker.HoursTaken = &hoursTaken.Float64
	}

	if escalatedAt.Valid {
		tracker.EscalationTriggeredAt = &escalatedAt.Time
	}

	return &tracker, nil
}
