package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/talentbase/signoff/pkg/events"
	"github.com/talentbase/signoff/pkg/models"
	"github.com/talentbase/signoff/pkg/persistence"
)

// InitiateApproval matches a workflow definition, instantiates the approval
// instance with all of its steps, SLA trackers, and committee vote slots, and
// activates the first step. Nothing is created when no definition matches.
func (e *Engine) InitiateApproval(
	ctx context.Context,
	entityType models.EntityType,
	entityID string,
	rctx models.RoutingContext,
	initiatedBy string,
) (*models.ApprovalInstance, error) {
	def, err := e.matchDefinition(ctx, entityType, rctx)
	if err != nil {
		return nil, err
	}

	now := e.now()

	state, err := e.newResolverState(ctx)
	if err != nil {
		return nil, err
	}

	instanceID, err := newID()
	if err != nil {
		return nil, err
	}

	instance := &models.ApprovalInstance{
		ID:            instanceID,
		WorkflowID:    def.ID,
		EntityType:    entityType,
		EntityID:      entityID,
		TotalSteps:    len(def.Steps),
		OverallStatus: models.InstancePending,
		InitiatedBy:   initiatedBy,
		Context:       rctx,
		InitiatedAt:   now,
	}

	steps := make([]*models.ApprovalStep, 0, len(def.Steps))
	trackers := make([]*models.SLATracker, 0, len(def.Steps))
	votes := make([]*models.CommitteeVote, 0)

	for _, tmpl := range def.Steps {
		step, tracker, err := e.buildStep(ctx, state, def, tmpl, instance, now)
		if err != nil {
			return nil, err
		}

		steps = append(steps, step)
		trackers = append(trackers, tracker)

		if step.IsCommitteeVote {
			stepVotes, err := e.buildCommitteeVotes(ctx, state, step)
			if err != nil {
				return nil, err
			}

			votes = append(votes, stepVotes...)
		}
	}

	var activated *models.ApprovalStep

	err = e.store.Transaction(ctx, func(ctx context.Context, tx persistence.Repositories) error {
		existing, err := tx.Instances().ByEntity(ctx, entityType, entityID)
		if err != nil && !errors.Is(err, persistence.ErrInstanceNotFound) {
			return err
		}

		if existing != nil && existing.OverallStatus == models.InstancePending {
			return persistence.ErrInstanceExists
		}

		if err := tx.Instances().Save(ctx, instance); err != nil {
			return err
		}

		for _, step := range steps {
			if err := tx.Steps().Save(ctx, step); err != nil {
				return err
			}
		}

		for _, tracker := range trackers {
			if err := tx.SLAs().Save(ctx, tracker); err != nil {
				return err
			}
		}

		for _, vote := range votes {
			if err := tx.Votes().Save(ctx, vote); err != nil {
				return err
			}
		}

		activated, err = e.startNextStep(ctx, tx, instance, steps)

		return err
	})
	if err != nil {
		return nil, persistence.NewInstanceError("Initiate", instance.ID, err)
	}

	e.logger.InfoContext(ctx, "approval instance created",
		"instance_id", instance.ID,
		"workflow_id", def.ID,
		"entity_type", entityType,
		"entity_id", entityID,
		"total_steps", instance.TotalSteps)

	e.publish(ctx, instance.ID, events.NewApprovalRequested(instance))

	if activated != nil {
		e.publish(ctx, instance.ID, events.NewStepActivated(activated))
	}

	return instance, nil
}

// buildStep instantiates one approval step and its SLA tracker from a
// template. Resolution failure leaves the step unroutable rather than
// aborting the instance; administrators reassign such steps manually.
func (e *Engine) buildStep(
	ctx context.Context,
	state *resolverState,
	def *models.WorkflowDefinition,
	tmpl *models.StepTemplate,
	instance *models.ApprovalInstance,
	now time.Time,
) (*models.ApprovalStep, *models.SLATracker, error) {
	stepID, err := newID()
	if err != nil {
		return nil, nil, err
	}

	res, err := e.resolveApprover(ctx, state, tmpl.RequiredRole, instance.Context, now)
	if err != nil {
		if !errors.Is(err, ErrNoEligibleApprover) {
			return nil, nil, err
		}

		e.logger.WarnContext(ctx, "step created without approver",
			"instance_id", instance.ID,
			"step_number", tmpl.StepNumber,
			"required_role", tmpl.RequiredRole)
	}

	minimumVotes := tmpl.MinimumVotes
	if tmpl.IsCommittee && minimumVotes < 1 {
		minimumVotes = 1
	}

	step := &models.ApprovalStep{
		ID:               stepID,
		InstanceID:       instance.ID,
		StepNumber:       tmpl.StepNumber,
		Name:             tmpl.Name,
		RequiredRole:     tmpl.RequiredRole,
		AssignedTo:       res.assignedTo,
		DelegatedTo:      res.delegatedTo,
		BackupApproverID: res.backup,
		Status:           models.StepPending,
		DueDate:          now.Add(time.Duration(def.SLAHours * float64(time.Hour))),
		EscalationDate:   now.Add(time.Duration(def.EscalationHours * float64(time.Hour))),
		IsCommitteeVote:  tmpl.IsCommittee,
		MinimumVotes:     minimumVotes,
		CreatedAt:        now,
	}

	trackerID, err := newID()
	if err != nil {
		return nil, nil, err
	}

	tracker := &models.SLATracker{
		ID:             trackerID,
		StepID:         stepID,
		SLATargetHours: def.SLAHours,
		StartedAt:      now,
	}

	return step, tracker, nil
}

// buildCommitteeVotes creates one vote slot per eligible committee member
// with the default weight.
func (e *Engine) buildCommitteeVotes(ctx context.Context, state *resolverState, step *models.ApprovalStep) ([]*models.CommitteeVote, error) {
	members, err := e.committeeMembers(ctx, state)
	if err != nil {
		return nil, err
	}

	votes := make([]*models.CommitteeVote, 0, len(members))

	for _, member := range members {
		voteID, err := newID()
		if err != nil {
			return nil, err
		}

		votes = append(votes, &models.CommitteeVote{
			ID:       voteID,
			StepID:   step.ID,
			MemberID: member,
			Weight:   1.0,
			Vote:     models.VotePending,
		})
	}

	return votes, nil
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate ID: %w", err)
	}

	return id.String(), nil
}
