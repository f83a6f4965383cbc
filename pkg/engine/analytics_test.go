package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentbase/signoff/pkg/models"
	"github.com/talentbase/signoff/pkg/testutil"
)

func TestAnalytics_EmptyPeriod(t *testing.T) {
	env := newTestEnv(t, defaultUsers()...)

	stats, err := env.engine.Analytics(context.Background(), testStart, testStart.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestAnalytics_AggregatesPerEntityType(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, defaultUsers()...)

	offerDef := testutil.CreateTestDefinition(testutil.WithSteps(
		&models.StepTemplate{StepNumber: 1, Name: "Manager Review", RequiredRole: "manager"},
	))
	interviewDef := testutil.CreateTestDefinition(
		testutil.WithEntityType(models.EntityTypeInterview),
		testutil.WithSteps(&models.StepTemplate{StepNumber: 1, Name: "HR Review", RequiredRole: "hr"}),
	)
	require.NoError(t, env.store.Definitions().Save(ctx, offerDef))
	require.NoError(t, env.store.Definitions().Save(ctx, interviewDef))

	// Offer 1: approved after 10 hours.
	approved := env.mustInitiate(t, "offer-1", models.RoutingContext{Salary: 50000})
	env.clock.Advance(10 * time.Hour)
	approvedSteps := env.stepsOf(t, approved.ID)
	require.NoError(t, env.engine.ProcessApproval(ctx, approvedSteps[0].ID, models.DecisionApproved, "", "mgr-1"))

	// Offer 2: rejected 20 hours after its initiation, still within the SLA.
	rejected := env.mustInitiate(t, "offer-2", models.RoutingContext{Salary: 60000})
	env.clock.Advance(20 * time.Hour)
	rejectedSteps := env.stepsOf(t, rejected.ID)
	require.NoError(t, env.engine.ProcessApproval(ctx, rejectedSteps[0].ID, models.DecisionRejected, "", "mgr-1"))

	// Offer 3: still pending.
	env.mustInitiate(t, "offer-3", models.RoutingContext{Salary: 70000})

	// Interview: pending.
	_, err := env.engine.InitiateApproval(ctx, models.EntityTypeInterview, "iv-1", models.RoutingContext{}, "recruiter-1")
	require.NoError(t, err)

	stats, err := env.engine.Analytics(ctx, testStart.Add(-time.Hour), env.clock.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, stats, 2)

	offers := stats[models.EntityTypeOffer]
	require.NotNil(t, offers)
	assert.Equal(t, 3, offers.Total)
	assert.Equal(t, 1, offers.Approved)
	assert.Equal(t, 1, offers.Rejected)
	assert.Equal(t, 1, offers.Pending)
	assert.InDelta(t, 15.0, offers.AvgCompletionHours, 0.001, "mean of 10h and 20h completions")
	assert.InDelta(t, 1.0, offers.SLAComplianceRate, 0.001, "both completed within the 48h target")

	interviews := stats[models.EntityTypeInterview]
	require.NotNil(t, interviews)
	assert.Equal(t, 1, interviews.Total)
	assert.Equal(t, 1, interviews.Pending)
	assert.Zero(t, interviews.AvgCompletionHours)
	assert.Zero(t, interviews.SLAComplianceRate)
}

func TestAnalytics_CountsEscalatedStepsAndSLAMisses(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, defaultUsers()...)

	def := testutil.CreateTestDefinition(
		testutil.WithSLA(24, 48),
		testutil.WithSteps(&models.StepTemplate{StepNumber: 1, Name: "Manager Review", RequiredRole: "manager"}),
	)
	require.NoError(t, env.store.Definitions().Save(ctx, def))

	instance := env.mustInitiate(t, "offer-1", models.RoutingContext{Salary: 50000})

	env.clock.Advance(30 * time.Hour)

	_, err := env.engine.RunEscalationSweep(ctx)
	require.NoError(t, err)

	steps := env.stepsOf(t, instance.ID)
	require.NoError(t, env.engine.ProcessApproval(ctx, steps[0].ID, models.DecisionApproved, "", "adm-1"))

	stats, err := env.engine.Analytics(ctx, testStart.Add(-time.Hour), env.clock.Now().Add(time.Hour))
	require.NoError(t, err)

	offers := stats[models.EntityTypeOffer]
	require.NotNil(t, offers)
	assert.Equal(t, 1, offers.Approved)
	assert.Equal(t, 0, offers.EscalatedSteps, "the escalated step was later approved")
	assert.InDelta(t, 0.0, offers.SLAComplianceRate, 0.001, "30 hours against a 24 hour target misses the SLA")
}

func TestAnalytics_PeriodFiltersInstances(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, defaultUsers()...)

	def := testutil.CreateTestDefinition()
	require.NoError(t, env.store.Definitions().Save(ctx, def))

	env.mustInitiate(t, "offer-1", models.RoutingContext{Salary: 50000})

	before, err := env.engine.Analytics(ctx, testStart.Add(-48*time.Hour), testStart.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, before)

	within, err := env.engine.Analytics(ctx, testStart.Add(-time.Hour), testStart.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, within, 1)
}
