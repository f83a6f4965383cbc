package engine

import (
	"context"

	"github.com/talentbase/signoff/pkg/events"
	"github.com/talentbase/signoff/pkg/models"
	"github.com/talentbase/signoff/pkg/persistence"
)

// decisionEffects collects what happened inside a decision transaction so
// notifications and entity synchronization run only after commit.
type decisionEffects struct {
	decided   *models.ApprovalStep
	activated *models.ApprovalStep
	completed *models.ApprovalInstance
	decision  models.Decision
	actor     string
}

// ProcessApproval records an approver's decision on a step. The step
// mutation, its SLA completion, and any instance transition commit in one
// transaction; a failure anywhere rolls everything back.
//
// An escalated step may still be decided, but only by its escalation target.
// That applies to committee steps too: escalation closes the tally and the
// target decides directly.
func (e *Engine) ProcessApproval(ctx context.Context, stepID string, decision models.Decision, comments, actor string) error {
	if !decision.Valid() {
		return ErrInvalidDecision
	}

	if actor == "" {
		return ErrUnauthorized
	}

	var fx decisionEffects

	err := e.store.Transaction(ctx, func(ctx context.Context, tx persistence.Repositories) error {
		step, err := tx.Steps().ByIDForUpdate(ctx, stepID)
		if err != nil {
			return err
		}

		if step.IsCommitteeVote && step.Status != models.StepEscalated {
			return ErrCommitteeStep
		}

		if err := authorizeDecision(step, actor); err != nil {
			return err
		}

		return e.applyDecision(ctx, tx, step, decision, comments, actor, &fx)
	})
	if err != nil {
		return persistence.NewStepError("Decide", stepID, err)
	}

	e.emitDecisionEffects(ctx, &fx)

	return nil
}

// authorizeDecision enforces who may decide a step in its current state.
// Ordering matters: an actor who is not an approver at all gets Unauthorized,
// while a legitimate approver racing a concurrent transition gets StaleState.
func authorizeDecision(step *models.ApprovalStep, actor string) error {
	switch step.Status {
	case models.StepPending:
		if !step.AuthorizedApprover(actor) {
			return ErrUnauthorized
		}

		return nil
	case models.StepEscalated:
		if actor != step.EscalatedTo {
			if step.AuthorizedApprover(actor) {
				return persistence.ErrStaleState
			}

			return ErrUnauthorized
		}

		return nil
	default:
		if !step.AuthorizedApprover(actor) {
			return ErrUnauthorized
		}

		return persistence.ErrStaleState
	}
}

// applyDecision mutates the step, completes its SLA tracker, and either
// terminates the instance or schedules the next step. Runs inside the
// caller's transaction; authorization has already been checked.
func (e *Engine) applyDecision(
	ctx context.Context,
	tx persistence.Repositories,
	step *models.ApprovalStep,
	decision models.Decision,
	comments, actor string,
	fx *decisionEffects,
) error {
	instance, err := tx.Instances().ByID(ctx, step.InstanceID)
	if err != nil {
		return err
	}

	if instance.OverallStatus.Terminal() {
		return persistence.ErrStaleState
	}

	now := e.now()

	step.Status = decision.StepStatus()
	step.DecisionDate = &now
	step.Comments = comments

	if err := tx.Steps().Save(ctx, step); err != nil {
		return err
	}

	tracker, err := tx.SLAs().ByStepID(ctx, step.ID)
	if err != nil {
		return err
	}

	tracker.Complete(now)

	if err := tx.SLAs().Save(ctx, tracker); err != nil {
		return err
	}

	fx.decided = step
	fx.decision = decision
	fx.actor = actor

	if decision == models.DecisionRejected {
		// Rejection short-circuits: remaining pending steps are abandoned.
		instance.OverallStatus = models.InstanceRejected
		instance.CompletedAt = &now

		if err := tx.Instances().Save(ctx, instance); err != nil {
			return err
		}

		fx.completed = instance

		return nil
	}

	steps, err := tx.Steps().ByInstance(ctx, instance.ID)
	if err != nil {
		return err
	}

	pending := 0

	for _, s := range steps {
		if s.Status == models.StepPending {
			pending++
		}
	}

	if pending == 0 {
		instance.OverallStatus = models.InstanceApproved
		instance.CompletedAt = &now

		if err := tx.Instances().Save(ctx, instance); err != nil {
			return err
		}

		fx.completed = instance

		return nil
	}

	activated, err := e.startNextStep(ctx, tx, instance, steps)
	if err != nil {
		return err
	}

	fx.activated = activated

	return nil
}

// emitDecisionEffects publishes post-commit notifications and, on terminal
// outcomes, synchronizes the originating entity's status. Neither path can
// undo the committed approval state.
func (e *Engine) emitDecisionEffects(ctx context.Context, fx *decisionEffects) {
	if fx.decided == nil {
		return
	}

	e.logger.InfoContext(ctx, "approval decision recorded",
		"step_id", fx.decided.ID,
		"instance_id", fx.decided.InstanceID,
		"decision", fx.decision,
		"actor", fx.actor)

	e.publish(ctx, fx.decided.InstanceID, events.NewStepDecided(fx.decided, fx.decision, fx.actor))

	if fx.activated != nil {
		e.publish(ctx, fx.activated.InstanceID, events.NewStepActivated(fx.activated))
	}

	if fx.completed != nil {
		e.publish(ctx, fx.completed.ID, events.NewInstanceCompleted(fx.completed))
		e.syncEntityStatus(ctx, fx.completed)
	}
}
