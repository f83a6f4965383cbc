package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentbase/signoff/pkg/directory"
	"github.com/talentbase/signoff/pkg/models"
	"github.com/talentbase/signoff/pkg/persistence"
	"github.com/talentbase/signoff/pkg/testutil"
)

func TestRunEscalationSweep_EscalatesOverdueSteps(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, defaultUsers()...)

	def := testutil.CreateTestDefinition(testutil.WithSLA(48, 72))
	require.NoError(t, env.store.Definitions().Save(ctx, def))

	instance := env.mustInitiate(t, "offer-1", models.RoutingContext{Salary: 50000})

	// Not yet overdue.
	env.clock.Advance(47 * time.Hour)

	report, err := env.engine.RunEscalationSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned)

	// Past the SLA target now.
	env.clock.Advance(2 * time.Hour)

	report, err = env.engine.RunEscalationSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned, "both pending steps are overdue")
	assert.Equal(t, 2, report.Escalated)
	assert.Empty(t, report.Failures)

	steps := env.stepsOf(t, instance.ID)
	for _, step := range steps {
		assert.Equal(t, models.StepEscalated, step.Status)
		assert.Equal(t, "adm-1", step.EscalatedTo, "the first active admin is the escalation target")

		tracker, err := env.store.SLAs().ByStepID(ctx, step.ID)
		require.NoError(t, err)
		require.NotNil(t, tracker.EscalationTriggeredAt)
		assert.Equal(t, "adm-1", tracker.EscalatedTo)
	}
}

func TestRunEscalationSweep_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, defaultUsers()...)

	def := testutil.CreateTestDefinition(testutil.WithSLA(24, 48))
	require.NoError(t, env.store.Definitions().Save(ctx, def))

	env.mustInitiate(t, "offer-1", models.RoutingContext{Salary: 50000})
	env.clock.Advance(25 * time.Hour)

	first, err := env.engine.RunEscalationSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Escalated)

	second, err := env.engine.RunEscalationSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Scanned, "escalated steps do not reappear in later sweeps")
	assert.Equal(t, 0, second.Escalated)
}

func TestRunEscalationSweep_FallsBackToDirector(t *testing.T) {
	ctx := context.Background()

	users := []directory.User{
		testutil.CreateTestUser("mgr-1", "manager"),
		testutil.CreateTestUser("dir-1", "director"),
	}
	env := newTestEnv(t, users...)

	def := testutil.CreateTestDefinition(
		testutil.WithSLA(24, 48),
		testutil.WithSteps(&models.StepTemplate{StepNumber: 1, Name: "Manager Review", RequiredRole: "manager"}),
	)
	require.NoError(t, env.store.Definitions().Save(ctx, def))

	instance := env.mustInitiate(t, "offer-1", models.RoutingContext{Salary: 50000})
	env.clock.Advance(25 * time.Hour)

	report, err := env.engine.RunEscalationSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Escalated)

	steps := env.stepsOf(t, instance.ID)
	assert.Equal(t, "dir-1", steps[0].EscalatedTo)
}

func TestRunEscalationSweep_NoEscalationTarget(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t, testutil.CreateTestUser("mgr-1", "manager"))

	def := testutil.CreateTestDefinition(
		testutil.WithSLA(24, 48),
		testutil.WithSteps(&models.StepTemplate{StepNumber: 1, Name: "Manager Review", RequiredRole: "manager"}),
	)
	require.NoError(t, env.store.Definitions().Save(ctx, def))

	env.mustInitiate(t, "offer-1", models.RoutingContext{Salary: 50000})
	env.clock.Advance(25 * time.Hour)

	_, err := env.engine.RunEscalationSweep(ctx)
	require.ErrorIs(t, err, ErrNoEscalationTarget)
}

func TestEscalatedStep_OnlyTargetMayDecide(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, defaultUsers()...)

	def := testutil.CreateTestDefinition(
		testutil.WithSLA(24, 48),
		testutil.WithSteps(&models.StepTemplate{StepNumber: 1, Name: "Manager Review", RequiredRole: "manager"}),
	)
	require.NoError(t, env.store.Definitions().Save(ctx, def))

	instance := env.mustInitiate(t, "offer-1", models.RoutingContext{Salary: 50000})
	env.clock.Advance(25 * time.Hour)

	_, err := env.engine.RunEscalationSweep(ctx)
	require.NoError(t, err)

	steps := env.stepsOf(t, instance.ID)
	stepID := steps[0].ID

	// The original approver lost the step to escalation.
	err = env.engine.ProcessApproval(ctx, stepID, models.DecisionApproved, "", "mgr-1")
	require.ErrorIs(t, err, persistence.ErrStaleState)

	// An outsider is still just unauthorized.
	err = env.engine.ProcessApproval(ctx, stepID, models.DecisionApproved, "", "hr-1")
	require.ErrorIs(t, err, ErrUnauthorized)

	// The escalation target decides.
	require.NoError(t, env.engine.ProcessApproval(ctx, stepID, models.DecisionApproved, "approved after escalation", "adm-1"))

	stored := env.instance(t, instance.ID)
	assert.Equal(t, models.InstanceApproved, stored.OverallStatus)
}

func TestRunEscalationSweep_DecidedStepIsSkipped(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, defaultUsers()...)

	def := testutil.CreateTestDefinition(
		testutil.WithSLA(24, 48),
		testutil.WithSteps(&models.StepTemplate{StepNumber: 1, Name: "Manager Review", RequiredRole: "manager"}),
	)
	require.NoError(t, env.store.Definitions().Save(ctx, def))

	instance := env.mustInitiate(t, "offer-1", models.RoutingContext{Salary: 50000})
	env.clock.Advance(25 * time.Hour)

	// Decide the step after it became overdue but before the sweep runs.
	steps := env.stepsOf(t, instance.ID)
	require.NoError(t, env.engine.ProcessApproval(ctx, steps[0].ID, models.DecisionApproved, "", "mgr-1"))

	report, err := env.engine.RunEscalationSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned, "a decided step has a completed tracker and is not overdue")
}
