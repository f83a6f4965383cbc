package engine

import (
	"context"

	"github.com/talentbase/signoff/pkg/models"
	"github.com/talentbase/signoff/pkg/persistence"
)

// startNextStep activates the lowest-numbered pending step of the instance:
// it moves the instance's current step pointer and returns the step so the
// caller can notify its approver after commit. Returns nil when no pending
// step remains (the caller decides completion) or when the next step is
// unroutable — unroutable steps are never auto-activated and wait for manual
// intervention.
func (e *Engine) startNextStep(
	ctx context.Context,
	tx persistence.Repositories,
	instance *models.ApprovalInstance,
	steps []*models.ApprovalStep,
) (*models.ApprovalStep, error) {
	var next *models.ApprovalStep

	for _, step := range steps {
		if step.Status != models.StepPending {
			continue
		}

		if next == nil || step.StepNumber < next.StepNumber {
			next = step
		}
	}

	if next == nil {
		return nil, nil
	}

	if !next.Routable() {
		e.logger.WarnContext(ctx, "next step is unroutable, waiting for manual assignment",
			"instance_id", instance.ID,
			"step_number", next.StepNumber,
			"required_role", next.RequiredRole)

		return nil, nil
	}

	instance.CurrentStep = next.StepNumber

	if err := tx.Instances().Save(ctx, instance); err != nil {
		return nil, err
	}

	return next, nil
}
