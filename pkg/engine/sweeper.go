package engine

import (
	"context"

	"github.com/talentbase/signoff/pkg/events"
	"github.com/talentbase/signoff/pkg/models"
	"github.com/talentbase/signoff/pkg/persistence"
)

// SweepFailure records one step the sweep could not escalate.
type SweepFailure struct {
	StepID string `json:"step_id"`
	Error  string `json:"error"`
}

// SweepReport summarizes one escalation sweep run.
type SweepReport struct {
	Scanned   int            `json:"scanned"`
	Escalated int            `json:"escalated"`
	Skipped   int            `json:"skipped"`
	Failures  []SweepFailure `json:"failures,omitempty"`
}

// RunEscalationSweep scans pending steps whose SLA target has elapsed without
// a triggered escalation and reassigns each to the escalation target. Each
// step escalates in its own transaction, so one failure never blocks the
// rest; running the sweep again over the same steps is a no-op because the
// tracker's escalation timestamp is already set.
func (e *Engine) RunEscalationSweep(ctx context.Context) (*SweepReport, error) {
	now := e.now()

	overdue, err := e.store.Steps().Overdue(ctx, now)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{Scanned: len(overdue)}

	if len(overdue) == 0 {
		return report, nil
	}

	target, err := e.resolveEscalationTarget(ctx)
	if err != nil {
		return nil, err
	}

	for _, candidate := range overdue {
		escalated, hoursOpen, err := e.escalateStep(ctx, candidate.ID, target)
		if err != nil {
			if persistence.IsStaleState(err) {
				// Decided or escalated since the scan; nothing to do.
				report.Skipped++

				continue
			}

			e.logger.ErrorContext(ctx, "failed to escalate step",
				"step_id", candidate.ID,
				"error", err)
			report.Failures = append(report.Failures, SweepFailure{StepID: candidate.ID, Error: err.Error()})

			continue
		}

		report.Escalated++

		e.logger.InfoContext(ctx, "step escalated",
			"step_id", escalated.ID,
			"instance_id", escalated.InstanceID,
			"escalated_to", target,
			"hours_open", hoursOpen)

		e.publish(ctx, escalated.InstanceID, events.NewStepEscalated(escalated, hoursOpen))
	}

	return report, nil
}

// resolveEscalationTarget returns the fixed global escalation target: the
// first active admin, else the first active director. The portal this engine
// grew out of escalated to this global chain rather than to the overdue
// approver's manager; that behavior is kept deliberately.
func (e *Engine) resolveEscalationTarget(ctx context.Context) (string, error) {
	for _, role := range []string{"admin", "director"} {
		users, err := e.directory.UsersWithRole(ctx, role, "")
		if err != nil {
			return "", err
		}

		if len(users) > 0 {
			return users[0].ID, nil
		}
	}

	return "", ErrNoEscalationTarget
}

// escalateStep escalates one overdue step inside its own transaction. The
// step and tracker are re-checked under lock: a concurrent decision or an
// earlier sweep makes this a stale no-op.
func (e *Engine) escalateStep(ctx context.Context, stepID, target string) (*models.ApprovalStep, float64, error) {
	now := e.now()

	var step *models.ApprovalStep

	var hoursOpen float64

	err := e.store.Transaction(ctx, func(ctx context.Context, tx persistence.Repositories) error {
		var err error

		step, err = tx.Steps().ByIDForUpdate(ctx, stepID)
		if err != nil {
			return err
		}

		if step.Status != models.StepPending {
			return persistence.ErrStaleState
		}

		tracker, err := tx.SLAs().ByStepID(ctx, stepID)
		if err != nil {
			return err
		}

		if !tracker.Overdue(now) {
			return persistence.ErrStaleState
		}

		step.Status = models.StepEscalated
		step.EscalatedTo = target

		if err := tx.Steps().Save(ctx, step); err != nil {
			return err
		}

		tracker.EscalationTriggeredAt = &now
		tracker.EscalatedTo = target

		if err := tx.SLAs().Save(ctx, tracker); err != nil {
			return err
		}

		hoursOpen = now.Sub(tracker.StartedAt).Hours()

		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return step, hoursOpen, nil
}
