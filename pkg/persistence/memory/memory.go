// Package memory provides an in-memory persistence implementation for tests
// and local development.
package memory

import (
	"context"
	"sync"

	"github.com/talentbase/signoff/pkg/models"
	"github.com/talentbase/signoff/pkg/persistence"
)

// Store keeps all approval workflow state in process memory. A single mutex
// guards the maps; Transaction holds it for the whole unit of work, which
// gives the same isolation the PostgreSQL implementation gets from row locks.
type Store struct {
	mu sync.Mutex

	definitions map[string]*models.WorkflowDefinition
	instances   map[string]*models.ApprovalInstance
	steps       map[string]*models.ApprovalStep
	slas        map[string]*models.SLATracker // keyed by step ID
	votes       map[string]*models.CommitteeVote
	delegations map[string]*models.Delegation
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		definitions: make(map[string]*models.WorkflowDefinition),
		instances:   make(map[string]*models.ApprovalInstance),
		steps:       make(map[string]*models.ApprovalStep),
		slas:        make(map[string]*models.SLATracker),
		votes:       make(map[string]*models.CommitteeVote),
		delegations: make(map[string]*models.Delegation),
	}
}

func (s *Store) Definitions() persistence.DefinitionRepository {
	return &definitionRepo{store: s, locking: true}
}

func (s *Store) Instances() persistence.InstanceRepository {
	return &instanceRepo{store: s, locking: true}
}

func (s *Store) Steps() persistence.StepRepository {
	return &stepRepo{store: s, locking: true}
}

func (s *Store) SLAs() persistence.SLARepository {
	return &slaRepo{store: s, locking: true}
}

func (s *Store) Votes() persistence.VoteRepository {
	return &voteRepo{store: s, locking: true}
}

func (s *Store) Delegations() persistence.DelegationRepository {
	return &delegationRepo{store: s, locking: true}
}

// Transaction runs fn while holding the store lock. Writes are staged and
// applied only when fn returns nil, so a failing unit of work leaves no
// partial state behind.
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context, tx persistence.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newTx(s)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	tx.commit()

	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}

var _ persistence.Persistence = (*Store)(nil)

// lock acquires the store mutex for repositories used outside a transaction.
// Repositories handed out by a transaction already run under the lock.
func (s *Store) lock(locking bool) func() {
	if !locking {
		return func() {}
	}

	s.mu.Lock()

	return s.mu.Unlock
}
