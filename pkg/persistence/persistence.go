// Package persistence provides the data storage abstraction for approval
// workflow state.
package persistence

import (
	"context"
	"time"

	"github.com/talentbase/signoff/pkg/models"
)

// Repositories groups the per-model repositories. The same interface is
// served by a store directly and by an open transaction.
type Repositories interface {
	Definitions() DefinitionRepository
	Instances() InstanceRepository
	Steps() StepRepository
	SLAs() SLARepository
	Votes() VoteRepository
	Delegations() DelegationRepository
}

// Persistence is the storage contract the engine runs against.
//
// Transaction executes fn atomically: either every write staged inside fn
// commits, or none do. Implementations must make StepRepository.ByIDForUpdate
// exclusive within a transaction so two concurrent writers cannot both act on
// the same step.
type Persistence interface {
	Repositories

	Transaction(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

type DefinitionRepository interface {
	All(ctx context.Context) ([]*models.WorkflowDefinition, error)
	ActiveByEntityType(ctx context.Context, entityType models.EntityType) ([]*models.WorkflowDefinition, error)
	ByID(ctx context.Context, id string) (*models.WorkflowDefinition, error)
	Save(ctx context.Context, def *models.WorkflowDefinition) error
	SetActive(ctx context.Context, id string, active bool) error
}

type InstanceRepository interface {
	ByID(ctx context.Context, id string) (*models.ApprovalInstance, error)
	ByIDs(ctx context.Context, ids []string) ([]*models.ApprovalInstance, error)
	ByEntity(ctx context.Context, entityType models.EntityType, entityID string) (*models.ApprovalInstance, error)
	InitiatedBetween(ctx context.Context, from, to time.Time) ([]*models.ApprovalInstance, error)
	Save(ctx context.Context, instance *models.ApprovalInstance) error
}

type StepRepository interface {
	ByID(ctx context.Context, id string) (*models.ApprovalStep, error)

	// ByIDForUpdate loads a step with exclusive ownership for the remainder
	// of the enclosing transaction. Outside a transaction it behaves as ByID.
	ByIDForUpdate(ctx context.Context, id string) (*models.ApprovalStep, error)

	// ByInstance returns the instance's steps ordered by step number.
	ByInstance(ctx context.Context, instanceID string) ([]*models.ApprovalStep, error)
	ByInstanceIDs(ctx context.Context, instanceIDs []string) ([]*models.ApprovalStep, error)

	// PendingByApprover returns pending steps where the user is the assigned,
	// delegated, or backup approver.
	PendingByApprover(ctx context.Context, userID string) ([]*models.ApprovalStep, error)

	// Overdue returns pending steps whose SLA tracker is past its target and
	// has not yet triggered an escalation.
	Overdue(ctx context.Context, now time.Time) ([]*models.ApprovalStep, error)

	Save(ctx context.Context, step *models.ApprovalStep) error
}

type SLARepository interface {
	ByStepID(ctx context.Context, stepID string) (*models.SLATracker, error)
	ByStepIDs(ctx context.Context, stepIDs []string) ([]*models.SLATracker, error)
	Save(ctx context.Context, tracker *models.SLATracker) error
}

type VoteRepository interface {
	ByStep(ctx context.Context, stepID string) ([]*models.CommitteeVote, error)
	Save(ctx context.Context, vote *models.CommitteeVote) error
}

type DelegationRepository interface {
	All(ctx context.Context) ([]*models.Delegation, error)
	Active(ctx context.Context) ([]*models.Delegation, error)
	ByID(ctx context.Context, id string) (*models.Delegation, error)
	Save(ctx context.Context, delegation *models.Delegation) error
	End(ctx context.Context, id string, at time.Time) error
}
