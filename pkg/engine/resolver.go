package engine

import (
	"context"
	"sort"
	"time"

	"github.com/talentbase/signoff/pkg/directory"
	"github.com/talentbase/signoff/pkg/models"
)

// resolution is the outcome of resolving approvers for one step.
type resolution struct {
	assignedTo  string
	delegatedTo string // set when a delegation redirected the step
	backup      string
}

// resolverState batches the reads approver resolution needs so step creation
// does not issue one directory lookup per step per role.
type resolverState struct {
	delegations []*models.Delegation
	holders     map[string][]directory.User // role -> active holders, any department
	deptHolders map[string][]directory.User // role -> active holders in the context department
}

func (e *Engine) newResolverState(ctx context.Context) (*resolverState, error) {
	delegations, err := e.store.Delegations().Active(ctx)
	if err != nil {
		return nil, err
	}

	return &resolverState{
		delegations: delegations,
		holders:     make(map[string][]directory.User),
		deptHolders: make(map[string][]directory.User),
	}, nil
}

func (s *resolverState) roleHolders(ctx context.Context, dir directory.Directory, role string) ([]directory.User, error) {
	if users, ok := s.holders[role]; ok {
		return users, nil
	}

	users, err := dir.UsersWithRole(ctx, role, "")
	if err != nil {
		return nil, err
	}

	s.holders[role] = users

	return users, nil
}

func (s *resolverState) departmentHolders(ctx context.Context, dir directory.Directory, role, department string) ([]directory.User, error) {
	if department == "" {
		return s.roleHolders(ctx, dir, role)
	}

	if users, ok := s.deptHolders[role]; ok {
		return users, nil
	}

	users, err := dir.UsersWithRole(ctx, role, department)
	if err != nil {
		return nil, err
	}

	s.deptHolders[role] = users

	return users, nil
}

// resolveApprover finds the responsible human for a required role: an active
// delegate first, otherwise the lowest-ID active role holder (department
// scoped when the context names one). When a delegation redirects the step,
// the nominal holder is kept as backup approver; otherwise the next eligible
// holder is.
//
// Returns ErrNoEligibleApprover (wrapped) when nobody can be resolved; the
// caller still creates the step, unroutable.
func (e *Engine) resolveApprover(ctx context.Context, state *resolverState, role string, rctx models.RoutingContext, at time.Time) (resolution, error) {
	nominals, err := state.departmentHolders(ctx, e.directory, role, rctx.Department)
	if err != nil {
		return resolution{}, err
	}

	delegate, found, err := e.resolveDelegate(ctx, state, role, rctx, at)
	if err != nil {
		return resolution{}, err
	}

	if found {
		res := resolution{assignedTo: delegate, delegatedTo: delegate}
		if len(nominals) > 0 {
			res.backup = nominals[0].ID
		}

		return res, nil
	}

	if len(nominals) == 0 {
		return resolution{}, &ResolutionError{Role: role, Err: ErrNoEligibleApprover}
	}

	res := resolution{assignedTo: nominals[0].ID}
	if len(nominals) > 1 {
		res.backup = nominals[1].ID
	}

	return res, nil
}

// resolveDelegate scans active delegations whose delegator currently holds
// the role and whose window and scope cover the context.
//
// When several delegations match, the most specific scope wins (salary_range
// over department over all), then the most recent start date, then the lowest
// delegation ID. The source system had no documented priority here; this rule
// makes resolution deterministic.
func (e *Engine) resolveDelegate(ctx context.Context, state *resolverState, role string, rctx models.RoutingContext, at time.Time) (string, bool, error) {
	holders, err := state.roleHolders(ctx, e.directory, role)
	if err != nil {
		return "", false, err
	}

	holderIDs := make(map[string]bool, len(holders))
	for _, holder := range holders {
		holderIDs[holder.ID] = true
	}

	matched := make([]*models.Delegation, 0)

	for _, delegation := range state.delegations {
		if holderIDs[delegation.DelegatorID] && delegation.InEffect(at, rctx) {
			matched = append(matched, delegation)
		}
	}

	if len(matched) == 0 {
		return "", false, nil
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]

		if a.Specificity() != b.Specificity() {
			return a.Specificity() > b.Specificity()
		}

		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.After(b.StartDate)
		}

		return a.ID < b.ID
	})

	return matched[0].DelegateID, true, nil
}

// committeeRoles is the membership priority for committee steps.
var committeeRoles = []string{"executive", "director", "department_head"}

// committeeMembers returns the eligible committee member IDs in role-priority
// order, deduplicated.
func (e *Engine) committeeMembers(ctx context.Context, state *resolverState) ([]string, error) {
	members := make([]string, 0)
	seen := make(map[string]bool)

	for _, role := range committeeRoles {
		users, err := state.roleHolders(ctx, e.directory, role)
		if err != nil {
			return nil, err
		}

		for _, user := range users {
			if !seen[user.ID] {
				seen[user.ID] = true
				members = append(members, user.ID)
			}
		}
	}

	return members, nil
}
