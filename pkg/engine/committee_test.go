package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentbase/signoff/pkg/models"
	"github.com/talentbase/signoff/pkg/persistence"
	"github.com/talentbase/signoff/pkg/testutil"
)

func newCommitteeEnv(t *testing.T, minimumVotes int) (*testEnv, *models.ApprovalInstance, *models.ApprovalStep) {
	t.Helper()

	ctx := context.Background()
	env := newTestEnv(t, defaultUsers()...)

	def := testutil.CreateTestDefinition(testutil.WithSteps(
		testutil.CommitteeStep(1, "Executive Committee", minimumVotes),
	))
	require.NoError(t, env.store.Definitions().Save(ctx, def))

	instance := env.mustInitiate(t, "offer-1", models.RoutingContext{Salary: 250000})
	steps := env.stepsOf(t, instance.ID)
	require.Len(t, steps, 1)

	return env, instance, steps[0]
}

func TestRecordCommitteeVote_QuorumApproves(t *testing.T) {
	ctx := context.Background()
	env, instance, step := newCommitteeEnv(t, 2)

	require.NoError(t, env.engine.RecordCommitteeVote(ctx, step.ID, "exec-1", models.VoteApprove, "supported"))

	// One approval is not yet decisive with a quorum of two.
	stored := env.instance(t, instance.ID)
	assert.Equal(t, models.InstancePending, stored.OverallStatus)

	updated := env.stepsOf(t, instance.ID)
	assert.Equal(t, models.StepPending, updated[0].Status)

	require.NoError(t, env.engine.RecordCommitteeVote(ctx, step.ID, "exec-2", models.VoteApprove, ""))

	stored = env.instance(t, instance.ID)
	assert.Equal(t, models.InstanceApproved, stored.OverallStatus)

	updated = env.stepsOf(t, instance.ID)
	assert.Equal(t, models.StepApproved, updated[0].Status)
}

func TestRecordCommitteeVote_RejectsWhenQuorumUnreachable(t *testing.T) {
	ctx := context.Background()
	env, instance, step := newCommitteeEnv(t, 2)

	// Three members, quorum of two: after two rejections only one undecided
	// vote remains and the quorum can no longer be reached.
	require.NoError(t, env.engine.RecordCommitteeVote(ctx, step.ID, "exec-1", models.VoteReject, "too expensive"))
	require.NoError(t, env.engine.RecordCommitteeVote(ctx, step.ID, "dir-1", models.VoteReject, ""))

	stored := env.instance(t, instance.ID)
	assert.Equal(t, models.InstanceRejected, stored.OverallStatus)

	updated := env.stepsOf(t, instance.ID)
	assert.Equal(t, models.StepRejected, updated[0].Status)
}

func TestRecordCommitteeVote_NonMemberIsRejected(t *testing.T) {
	ctx := context.Background()
	env, _, step := newCommitteeEnv(t, 2)

	err := env.engine.RecordCommitteeVote(ctx, step.ID, "mgr-1", models.VoteApprove, "")
	require.ErrorIs(t, err, ErrNotCommitteeMember)
}

func TestRecordCommitteeVote_DoubleVoteIsRejected(t *testing.T) {
	ctx := context.Background()
	env, _, step := newCommitteeEnv(t, 2)

	require.NoError(t, env.engine.RecordCommitteeVote(ctx, step.ID, "exec-1", models.VoteApprove, ""))

	err := env.engine.RecordCommitteeVote(ctx, step.ID, "exec-1", models.VoteReject, "changed my mind")
	require.ErrorIs(t, err, ErrAlreadyVoted)

	votes, err := env.store.Votes().ByStep(ctx, step.ID)
	require.NoError(t, err)

	for _, vote := range votes {
		if vote.MemberID == "exec-1" {
			assert.Equal(t, models.VoteApprove, vote.Vote, "the original vote stands")
		}
	}
}

func TestRecordCommitteeVote_InvalidVoteValue(t *testing.T) {
	ctx := context.Background()
	env, _, step := newCommitteeEnv(t, 2)

	err := env.engine.RecordCommitteeVote(ctx, step.ID, "exec-1", models.Vote("abstain"), "")
	require.ErrorIs(t, err, ErrInvalidVote)

	err = env.engine.RecordCommitteeVote(ctx, step.ID, "exec-1", models.VotePending, "")
	require.ErrorIs(t, err, ErrInvalidVote)
}

func TestRecordCommitteeVote_NonCommitteeStep(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, defaultUsers()...)

	def := testutil.CreateTestDefinition(testutil.WithSteps(
		&models.StepTemplate{StepNumber: 1, Name: "Manager Review", RequiredRole: "manager"},
	))
	require.NoError(t, env.store.Definitions().Save(ctx, def))

	instance := env.mustInitiate(t, "offer-1", models.RoutingContext{Salary: 50000})
	steps := env.stepsOf(t, instance.ID)

	err := env.engine.RecordCommitteeVote(ctx, steps[0].ID, "exec-1", models.VoteApprove, "")
	require.ErrorIs(t, err, ErrNotCommitteeStep)
}

func TestRecordCommitteeVote_DecidedStepIsStale(t *testing.T) {
	ctx := context.Background()
	env, _, step := newCommitteeEnv(t, 1)

	require.NoError(t, env.engine.RecordCommitteeVote(ctx, step.ID, "exec-1", models.VoteApprove, ""))

	err := env.engine.RecordCommitteeVote(ctx, step.ID, "exec-2", models.VoteApprove, "")
	require.ErrorIs(t, err, persistence.ErrStaleState)
}

func TestEscalatedCommitteeStep_TargetDecidesDirectly(t *testing.T) {
	ctx := context.Background()
	env, instance, step := newCommitteeEnv(t, 2)

	env.clock.Advance(49 * time.Hour)

	report, err := env.engine.RunEscalationSweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Escalated)

	// Escalation closes the tally.
	err = env.engine.RecordCommitteeVote(ctx, step.ID, "exec-1", models.VoteApprove, "")
	require.ErrorIs(t, err, persistence.ErrStaleState)

	// The assigned member races the escalation, an outsider is rejected
	// outright; only the escalation target decides.
	err = env.engine.ProcessApproval(ctx, step.ID, models.DecisionApproved, "", "exec-1")
	require.ErrorIs(t, err, persistence.ErrStaleState)

	err = env.engine.ProcessApproval(ctx, step.ID, models.DecisionApproved, "", "hr-1")
	require.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, env.engine.ProcessApproval(ctx, step.ID, models.DecisionApproved, "deciding after escalation", "adm-1"))

	stored := env.instance(t, instance.ID)
	assert.Equal(t, models.InstanceApproved, stored.OverallStatus)
}

func TestRecordCommitteeVote_VotedAtAndCommentsRecorded(t *testing.T) {
	ctx := context.Background()
	env, _, step := newCommitteeEnv(t, 2)

	require.NoError(t, env.engine.RecordCommitteeVote(ctx, step.ID, "exec-1", models.VoteApprove, "strong candidate"))

	votes, err := env.store.Votes().ByStep(ctx, step.ID)
	require.NoError(t, err)

	for _, vote := range votes {
		if vote.MemberID != "exec-1" {
			assert.Nil(t, vote.VotedAt)

			continue
		}

		require.NotNil(t, vote.VotedAt)
		assert.Equal(t, testStart, *vote.VotedAt)
		assert.Equal(t, "strong candidate", vote.Comments)
	}
}
