package memory

import (
	"github.com/talentbase/signoff/pkg/models"
	"github.com/talentbase/signoff/pkg/persistence"
)

// txState stages writes for one unit of work. Reads through the transaction
// see staged writes before committed state.
type txState struct {
	store *Store

	definitions map[string]*models.WorkflowDefinition
	instances   map[string]*models.ApprovalInstance
	steps       map[string]*models.ApprovalStep
	slas        map[string]*models.SLATracker
	votes       map[string]*models.CommitteeVote
	delegations map[string]*models.Delegation
}

func newTx(store *Store) *txState {
	return &txState{
		store:       store,
		definitions: make(map[string]*models.WorkflowDefinition),
		instances:   make(map[string]*models.ApprovalInstance),
		steps:       make(map[string]*models.ApprovalStep),
		slas:        make(map[string]*models.SLATracker),
		votes:       make(map[string]*models.CommitteeVote),
		delegations: make(map[string]*models.Delegation),
	}
}

func (t *txState) commit() {
	for id, def := range t.definitions {
		t.store.definitions[id] = def
	}

	for id, instance := range t.instances {
		t.store.instances[id] = instance
	}

	for id, step := range t.steps {
		t.store.steps[id] = step
	}

	for stepID, tracker := range t.slas {
		t.store.slas[stepID] = tracker
	}

	for id, vote := range t.votes {
		t.store.votes[id] = vote
	}

	for id, delegation := range t.delegations {
		t.store.delegations[id] = delegation
	}
}

func (t *txState) Definitions() persistence.DefinitionRepository {
	return &definitionRepo{store: t.store, tx: t}
}

func (t *txState) Instances() persistence.InstanceRepository {
	return &instanceRepo{store: t.store, tx: t}
}

func (t *txState) Steps() persistence.StepRepository {
	return &stepRepo{store: t.store, tx: t}
}

func (t *txState) SLAs() persistence.SLARepository {
	return &slaRepo{store: t.store, tx: t}
}

func (t *txState) Votes() persistence.VoteRepository {
	return &voteRepo{store: t.store, tx: t}
}

func (t *txState) Delegations() persistence.DelegationRepository {
	return &delegationRepo{store: t.store, tx: t}
}

var _ persistence.Repositories = (*txState)(nil)
