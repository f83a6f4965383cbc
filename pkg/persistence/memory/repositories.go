package memory

import (
	"context"
	"sort"
	"time"

	"github.com/talentbase/signoff/pkg/models"
	"github.com/talentbase/signoff/pkg/persistence"
)

// Repositories clone on both read and write so callers never alias stored
// state. Each repo reads staged transaction writes before committed state.

type definitionRepo struct {
	store   *Store
	tx      *txState
	locking bool
}

func (r *definitionRepo) All(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	defer r.store.lock(r.locking)()

	defs := make([]*models.WorkflowDefinition, 0, len(r.store.definitions))
	for _, def := range r.merged() {
		defs = append(defs, cloneDefinition(def))
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })

	return defs, nil
}

func (r *definitionRepo) ActiveByEntityType(ctx context.Context, entityType models.EntityType) ([]*models.WorkflowDefinition, error) {
	defer r.store.lock(r.locking)()

	defs := make([]*models.WorkflowDefinition, 0)

	for _, def := range r.merged() {
		if def.IsActive && def.EntityType == entityType {
			defs = append(defs, cloneDefinition(def))
		}
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })

	return defs, nil
}

func (r *definitionRepo) ByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	defer r.store.lock(r.locking)()

	if def, ok := r.merged()[id]; ok {
		return cloneDefinition(def), nil
	}

	return nil, persistence.ErrDefinitionNotFound
}

func (r *definitionRepo) Save(ctx context.Context, def *models.WorkflowDefinition) error {
	defer r.store.lock(r.locking)()

	r.put(cloneDefinition(def))

	return nil
}

func (r *definitionRepo) SetActive(ctx context.Context, id string, active bool) error {
	defer r.store.lock(r.locking)()

	def, ok := r.merged()[id]
	if !ok {
		return persistence.ErrDefinitionNotFound
	}

	updated := cloneDefinition(def)
	updated.IsActive = active
	updated.UpdatedAt = time.Now().UTC()
	r.put(updated)

	return nil
}

func (r *definitionRepo) merged() map[string]*models.WorkflowDefinition {
	if r.tx == nil {
		return r.store.definitions
	}

	merged := make(map[string]*models.WorkflowDefinition, len(r.store.definitions))
	for id, def := range r.store.definitions {
		merged[id] = def
	}

	for id, def := range r.tx.definitions {
		merged[id] = def
	}

	return merged
}

func (r *definitionRepo) put(def *models.WorkflowDefinition) {
	if r.tx != nil {
		r.tx.definitions[def.ID] = def
	} else {
		r.store.definitions[def.ID] = def
	}
}

type instanceRepo struct {
	store   *Store
	tx      *txState
	locking bool
}

func (r *instanceRepo) ByID(ctx context.Context, id string) (*models.ApprovalInstance, error) {
	defer r.store.lock(r.locking)()

	if instance, ok := r.merged()[id]; ok {
		return cloneInstance(instance), nil
	}

	return nil, persistence.ErrInstanceNotFound
}

func (r *instanceRepo) ByIDs(ctx context.Context, ids []string) ([]*models.ApprovalInstance, error) {
	defer r.store.lock(r.locking)()

	merged := r.merged()
	instances := make([]*models.ApprovalInstance, 0, len(ids))

	for _, id := range ids {
		if instance, ok := merged[id]; ok {
			instances = append(instances, cloneInstance(instance))
		}
	}

	return instances, nil
}

func (r *instanceRepo) ByEntity(ctx context.Context, entityType models.EntityType, entityID string) (*models.ApprovalInstance, error) {
	defer r.store.lock(r.locking)()

	var latest *models.ApprovalInstance

	for _, instance := range r.merged() {
		if instance.EntityType != entityType || instance.EntityID != entityID {
			continue
		}

		// A pending instance is the live one; otherwise keep the most recent.
		if instance.OverallStatus == models.InstancePending {
			return cloneInstance(instance), nil
		}

		if latest == nil || instance.InitiatedAt.After(latest.InitiatedAt) {
			latest = instance
		}
	}

	if latest != nil {
		return cloneInstance(latest), nil
	}

	return nil, persistence.ErrInstanceNotFound
}

func (r *instanceRepo) InitiatedBetween(ctx context.Context, from, to time.Time) ([]*models.ApprovalInstance, error) {
	defer r.store.lock(r.locking)()

	instances := make([]*models.ApprovalInstance, 0)

	for _, instance := range r.merged() {
		if !instance.InitiatedAt.Before(from) && !instance.InitiatedAt.After(to) {
			instances = append(instances, cloneInstance(instance))
		}
	}

	sort.Slice(instances, func(i, j int) bool { return instances[i].ID < instances[j].ID })

	return instances, nil
}

func (r *instanceRepo) Save(ctx context.Context, instance *models.ApprovalInstance) error {
	defer r.store.lock(r.locking)()

	clone := cloneInstance(instance)

	if r.tx != nil {
		r.tx.instances[clone.ID] = clone
	} else {
		r.store.instances[clone.ID] = clone
	}

	return nil
}

func (r *instanceRepo) merged() map[string]*models.ApprovalInstance {
	if r.tx == nil {
		return r.store.instances
	}

	merged := make(map[string]*models.ApprovalInstance, len(r.store.instances))
	for id, instance := range r.store.instances {
		merged[id] = instance
	}

	for id, instance := range r.tx.instances {
		merged[id] = instance
	}

	return merged
}

type stepRepo struct {
	store   *Store
	tx      *txState
	locking bool
}

func (r *stepRepo) ByID(ctx context.Context, id string) (*models.ApprovalStep, error) {
	defer r.store.lock(r.locking)()

	if step, ok := r.merged()[id]; ok {
		return cloneStep(step), nil
	}

	return nil, persistence.ErrStepNotFound
}

// ByIDForUpdate behaves as ByID: the transaction already holds the store
// mutex, which is this store's equivalent of a row lock.
func (r *stepRepo) ByIDForUpdate(ctx context.Context, id string) (*models.ApprovalStep, error) {
	return r.ByID(ctx, id)
}

func (r *stepRepo) ByInstance(ctx context.Context, instanceID string) ([]*models.ApprovalStep, error) {
	defer r.store.lock(r.locking)()

	steps := make([]*models.ApprovalStep, 0)

	for _, step := range r.merged() {
		if step.InstanceID == instanceID {
			steps = append(steps, cloneStep(step))
		}
	}

	sort.Slice(steps, func(i, j int) bool { return steps[i].StepNumber < steps[j].StepNumber })

	return steps, nil
}

func (r *stepRepo) ByInstanceIDs(ctx context.Context, instanceIDs []string) ([]*models.ApprovalStep, error) {
	defer r.store.lock(r.locking)()

	wanted := make(map[string]bool, len(instanceIDs))
	for _, id := range instanceIDs {
		wanted[id] = true
	}

	steps := make([]*models.ApprovalStep, 0)

	for _, step := range r.merged() {
		if wanted[step.InstanceID] {
			steps = append(steps, cloneStep(step))
		}
	}

	sort.Slice(steps, func(i, j int) bool {
		if steps[i].InstanceID != steps[j].InstanceID {
			return steps[i].InstanceID < steps[j].InstanceID
		}

		return steps[i].StepNumber < steps[j].StepNumber
	})

	return steps, nil
}

func (r *stepRepo) PendingByApprover(ctx context.Context, userID string) ([]*models.ApprovalStep, error) {
	defer r.store.lock(r.locking)()

	steps := make([]*models.ApprovalStep, 0)

	for _, step := range r.merged() {
		if step.Status == models.StepPending && step.AuthorizedApprover(userID) {
			steps = append(steps, cloneStep(step))
		}
	}

	sort.Slice(steps, func(i, j int) bool {
		if !steps[i].DueDate.Equal(steps[j].DueDate) {
			return steps[i].DueDate.Before(steps[j].DueDate)
		}

		return steps[i].ID < steps[j].ID
	})

	return steps, nil
}

func (r *stepRepo) Overdue(ctx context.Context, now time.Time) ([]*models.ApprovalStep, error) {
	defer r.store.lock(r.locking)()

	slas := r.mergedSLAs()
	steps := make([]*models.ApprovalStep, 0)

	for _, step := range r.merged() {
		if step.Status != models.StepPending {
			continue
		}

		tracker, ok := slas[step.ID]
		if !ok || !tracker.Overdue(now) {
			continue
		}

		steps = append(steps, cloneStep(step))
	}

	sort.Slice(steps, func(i, j int) bool { return steps[i].ID < steps[j].ID })

	return steps, nil
}

func (r *stepRepo) Save(ctx context.Context, step *models.ApprovalStep) error {
	defer r.store.lock(r.locking)()

	clone := cloneStep(step)

	if r.tx != nil {
		r.tx.steps[clone.ID] = clone
	} else {
		r.store.steps[clone.ID] = clone
	}

	return nil
}

func (r *stepRepo) merged() map[string]*models.ApprovalStep {
	if r.tx == nil {
		return r.store.steps
	}

	merged := make(map[string]*models.ApprovalStep, len(r.store.steps))
	for id, step := range r.store.steps {
		merged[id] = step
	}

	for id, step := range r.tx.steps {
		merged[id] = step
	}

	return merged
}

func (r *stepRepo) mergedSLAs() map[string]*models.SLATracker {
	if r.tx == nil {
		return r.store.slas
	}

	merged := make(map[string]*models.SLATracker, len(r.store.slas))
	for id, tracker := range r.store.slas {
		merged[id] = tracker
	}

	for id, tracker := range r.tx.slas {
		merged[id] = tracker
	}

	return merged
}

type slaRepo struct {
	store   *Store
	tx      *txState
	locking bool
}

func (r *slaRepo) ByStepID(ctx context.Context, stepID string) (*models.SLATracker, error) {
	defer r.store.lock(r.locking)()

	if tracker, ok := r.merged()[stepID]; ok {
		return cloneTracker(tracker), nil
	}

	return nil, persistence.ErrSLATrackerNotFound
}

func (r *slaRepo) ByStepIDs(ctx context.Context, stepIDs []string) ([]*models.SLATracker, error) {
	defer r.store.lock(r.locking)()

	merged := r.merged()
	trackers := make([]*models.SLATracker, 0, len(stepIDs))

	for _, stepID := range stepIDs {
		if tracker, ok := merged[stepID]; ok {
			trackers = append(trackers, cloneTracker(tracker))
		}
	}

	return trackers, nil
}

func (r *slaRepo) Save(ctx context.Context, tracker *models.SLATracker) error {
	defer r.store.lock(r.locking)()

	clone := cloneTracker(tracker)

	if r.tx != nil {
		r.tx.slas[clone.StepID] = clone
	} else {
		r.store.slas[clone.StepID] = clone
	}

	return nil
}

func (r *slaRepo) merged() map[string]*models.SLATracker {
	if r.tx == nil {
		return r.store.slas
	}

	merged := make(map[string]*models.SLATracker, len(r.store.slas))
	for id, tracker := range r.store.slas {
		merged[id] = tracker
	}

	for id, tracker := range r.tx.slas {
		merged[id] = tracker
	}

	return merged
}

type voteRepo struct {
	store   *Store
	tx      *txState
	locking bool
}

func (r *voteRepo) ByStep(ctx context.Context, stepID string) ([]*models.CommitteeVote, error) {
	defer r.store.lock(r.locking)()

	votes := make([]*models.CommitteeVote, 0)

	for _, vote := range r.merged() {
		if vote.StepID == stepID {
			votes = append(votes, cloneVote(vote))
		}
	}

	sort.Slice(votes, func(i, j int) bool { return votes[i].MemberID < votes[j].MemberID })

	return votes, nil
}

func (r *voteRepo) Save(ctx context.Context, vote *models.CommitteeVote) error {
	defer r.store.lock(r.locking)()

	clone := cloneVote(vote)

	if r.tx != nil {
		r.tx.votes[clone.ID] = clone
	} else {
		r.store.votes[clone.ID] = clone
	}

	return nil
}

func (r *voteRepo) merged() map[string]*models.CommitteeVote {
	if r.tx == nil {
		return r.store.votes
	}

	merged := make(map[string]*models.CommitteeVote, len(r.store.votes))
	for id, vote := range r.store.votes {
		merged[id] = vote
	}

	for id, vote := range r.tx.votes {
		merged[id] = vote
	}

	return merged
}

type delegationRepo struct {
	store   *Store
	tx      *txState
	locking bool
}

func (r *delegationRepo) All(ctx context.Context) ([]*models.Delegation, error) {
	defer r.store.lock(r.locking)()

	delegations := make([]*models.Delegation, 0, len(r.store.delegations))
	for _, delegation := range r.merged() {
		delegations = append(delegations, cloneDelegation(delegation))
	}

	sort.Slice(delegations, func(i, j int) bool { return delegations[i].ID < delegations[j].ID })

	return delegations, nil
}

func (r *delegationRepo) Active(ctx context.Context) ([]*models.Delegation, error) {
	defer r.store.lock(r.locking)()

	delegations := make([]*models.Delegation, 0)

	for _, delegation := range r.merged() {
		if delegation.IsActive {
			delegations = append(delegations, cloneDelegation(delegation))
		}
	}

	sort.Slice(delegations, func(i, j int) bool { return delegations[i].ID < delegations[j].ID })

	return delegations, nil
}

func (r *delegationRepo) ByID(ctx context.Context, id string) (*models.Delegation, error) {
	defer r.store.lock(r.locking)()

	if delegation, ok := r.merged()[id]; ok {
		return cloneDelegation(delegation), nil
	}

	return nil, persistence.ErrDelegationNotFound
}

func (r *delegationRepo) Save(ctx context.Context, delegation *models.Delegation) error {
	defer r.store.lock(r.locking)()

	clone := cloneDelegation(delegation)

	if r.tx != nil {
		r.tx.delegations[clone.ID] = clone
	} else {
		r.store.delegations[clone.ID] = clone
	}

	return nil
}

func (r *delegationRepo) End(ctx context.Context, id string, at time.Time) error {
	defer r.store.lock(r.locking)()

	delegation, ok := r.merged()[id]
	if !ok {
		return persistence.ErrDelegationNotFound
	}

	updated := cloneDelegation(delegation)
	updated.EndDate = &at
	updated.IsActive = false

	if r.tx != nil {
		r.tx.delegations[updated.ID] = updated
	} else {
		r.store.delegations[updated.ID] = updated
	}

	return nil
}

func (r *delegationRepo) merged() map[string]*models.Delegation {
	if r.tx == nil {
		return r.store.delegations
	}

	merged := make(map[string]*models.Delegation, len(r.store.delegations))
	for id, delegation := range r.store.delegations {
		merged[id] = delegation
	}

	for id, delegation := range r.tx.delegations {
		merged[id] = delegation
	}

	return merged
}
