// Package engine implements the approval workflow engine: workflow matching,
// approver resolution, instance/step creation, decision processing, committee
// voting, and SLA escalation.
package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMatchingWorkflow indicates no active workflow definition matches
	// the entity type and routing context. Initiation aborts; nothing is
	// created.
	ErrNoMatchingWorkflow = errors.New("no matching workflow definition")

	// ErrNoEligibleApprover indicates no active user holds the required role
	// for a step. The step is still created but is unroutable.
	ErrNoEligibleApprover = errors.New("no eligible approver for role")

	// ErrInvalidDecision indicates a decision value outside the closed set.
	ErrInvalidDecision = errors.New("invalid decision")

	// ErrInvalidVote indicates a committee vote value outside the closed set.
	ErrInvalidVote = errors.New("invalid committee vote")

	// ErrUnauthorized indicates the actor is not an authorized approver for
	// the step. No mutation occurs.
	ErrUnauthorized = errors.New("actor is not authorized for this step")

	// ErrCommitteeStep indicates a direct decision was attempted on a
	// committee step, which is decided by member votes instead.
	ErrCommitteeStep = errors.New("committee steps are decided by member votes")

	// ErrNotCommitteeStep indicates a vote was recorded against a
	// single-approver step.
	ErrNotCommitteeStep = errors.New("step is not a committee step")

	// ErrNotCommitteeMember indicates the voter has no vote slot on the step.
	ErrNotCommitteeMember = errors.New("user is not a member of this committee step")

	// ErrAlreadyVoted indicates the member has already cast their vote.
	ErrAlreadyVoted = errors.New("member has already voted on this step")

	// ErrNoEscalationTarget indicates no active admin or director exists to
	// escalate overdue steps to.
	ErrNoEscalationTarget = errors.New("no escalation target available")
)

// ResolutionError carries the role a resolution failed for.
type ResolutionError struct {
	Role string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("approver resolution failed for role %s: %v", e.Role, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func (e *ResolutionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsAuthorizationError checks whether an error should surface as a 403.
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotCommitteeMember)
}

// IsValidationError checks whether an error is a caller input error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidDecision) ||
		errors.Is(err, ErrInvalidVote) ||
		errors.Is(err, ErrCommitteeStep) ||
		errors.Is(err, ErrNotCommitteeStep)
}

// IsConflictError checks whether an error is a state conflict the caller can
// retry after reloading.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrAlreadyVoted)
}
