package engine

import (
	"context"
	"fmt"

	"github.com/talentbase/signoff/pkg/events"
	"github.com/talentbase/signoff/pkg/models"
	"github.com/talentbase/signoff/pkg/persistence"
)

// RecordCommitteeVote records one member's vote on a committee step and, when
// the tally becomes decisive, resolves the step through the normal decision
// path with the deciding member as actor.
//
// A committee step approves when the weight of approve votes reaches the
// step's minimum; it rejects as soon as the undecided weight can no longer
// close the gap.
func (e *Engine) RecordCommitteeVote(ctx context.Context, stepID, memberID string, vote models.Vote, comments string) error {
	if vote != models.VoteApprove && vote != models.VoteReject {
		return ErrInvalidVote
	}

	if memberID == "" {
		return ErrUnauthorized
	}

	var fx decisionEffects

	var recorded *models.CommitteeVote

	var instanceID string

	err := e.store.Transaction(ctx, func(ctx context.Context, tx persistence.Repositories) error {
		step, err := tx.Steps().ByIDForUpdate(ctx, stepID)
		if err != nil {
			return err
		}

		if !step.IsCommitteeVote {
			return ErrNotCommitteeStep
		}

		if step.Status != models.StepPending {
			return persistence.ErrStaleState
		}

		votes, err := tx.Votes().ByStep(ctx, stepID)
		if err != nil {
			return err
		}

		var slot *models.CommitteeVote

		for _, v := range votes {
			if v.MemberID == memberID {
				slot = v

				break
			}
		}

		if slot == nil {
			return ErrNotCommitteeMember
		}

		if slot.Vote != models.VotePending {
			return ErrAlreadyVoted
		}

		now := e.now()

		slot.Vote = vote
		slot.Comments = comments
		slot.VotedAt = &now

		if err := tx.Votes().Save(ctx, slot); err != nil {
			return err
		}

		recorded = slot
		instanceID = step.InstanceID

		outcome, decisive := tallyVotes(votes, step.MinimumVotes)
		if !decisive {
			return nil
		}

		summary := fmt.Sprintf("committee outcome %s (%d votes required)", outcome, step.MinimumVotes)

		return e.applyDecision(ctx, tx, step, outcome, summary, memberID, &fx)
	})
	if err != nil {
		return persistence.NewStepError("Vote", stepID, err)
	}

	e.logger.InfoContext(ctx, "committee vote recorded",
		"step_id", stepID,
		"member_id", memberID,
		"vote", vote)

	e.publish(ctx, instanceID, events.NewVoteRecorded(instanceID, recorded))

	e.emitDecisionEffects(ctx, &fx)

	return nil
}

// tallyVotes computes the committee outcome. The votes slice already carries
// the vote being recorded.
func tallyVotes(votes []*models.CommitteeVote, minimumVotes int) (models.Decision, bool) {
	var approveWeight, undecidedWeight float64

	for _, vote := range votes {
		switch vote.Vote {
		case models.VoteApprove:
			approveWeight += vote.Weight
		case models.VotePending:
			undecidedWeight += vote.Weight
		}
	}

	required := float64(minimumVotes)

	if approveWeight >= required {
		return models.DecisionApproved, true
	}

	if approveWeight+undecidedWeight < required {
		return models.DecisionRejected, true
	}

	return "", false
}
