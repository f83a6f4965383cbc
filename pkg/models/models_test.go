package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var anchor = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func TestWorkflowDefinitionMatches(t *testing.T) {
	def := &WorkflowDefinition{
		EntityType: EntityTypeOffer,
		Department: "Engineering",
		SalaryMin:  50000,
		SalaryMax:  100000,
		IsActive:   true,
	}

	assert.True(t, def.Matches(EntityTypeOffer, RoutingContext{Department: "Engineering", Salary: 75000}))
	assert.False(t, def.Matches(EntityTypeInterview, RoutingContext{Department: "Engineering", Salary: 75000}))
	assert.False(t, def.Matches(EntityTypeOffer, RoutingContext{Department: "Sales", Salary: 75000}))
	assert.False(t, def.Matches(EntityTypeOffer, RoutingContext{Department: "Engineering", Salary: 49999}))

	// Salary boundaries are inclusive on both ends.
	assert.True(t, def.Matches(EntityTypeOffer, RoutingContext{Department: "Engineering", Salary: 50000}))
	assert.True(t, def.Matches(EntityTypeOffer, RoutingContext{Department: "Engineering", Salary: 100000}))

	def.IsActive = false
	assert.False(t, def.Matches(EntityTypeOffer, RoutingContext{Department: "Engineering", Salary: 75000}))
}

func TestWorkflowDefinitionMatches_EmptyFiltersMatchAnything(t *testing.T) {
	def := &WorkflowDefinition{
		EntityType: EntityTypeOffer,
		SalaryMax:  1000000,
		IsActive:   true,
	}

	assert.True(t, def.Matches(EntityTypeOffer, RoutingContext{Department: "Sales", PositionLevel: "senior", Salary: 75000}))
	assert.True(t, def.Matches(EntityTypeOffer, RoutingContext{}))
}

func TestSLATrackerComplete_BoundaryCountsAsMet(t *testing.T) {
	tracker := &SLATracker{SLATargetHours: 48, StartedAt: anchor}
	tracker.Complete(anchor.Add(48 * time.Hour))

	assert.NotNil(t, tracker.CompletedAt)
	assert.Equal(t, 48.0, *tracker.HoursTaken)
	assert.True(t, *tracker.SLAMet, "hours taken equal to the target satisfies the SLA")

	over := &SLATracker{SLATargetHours: 48, StartedAt: anchor}
	over.Complete(anchor.Add(48*time.Hour + time.Minute))
	assert.False(t, *over.SLAMet)
}

func TestSLATrackerOverdue(t *testing.T) {
	tracker := &SLATracker{SLATargetHours: 24, StartedAt: anchor}

	assert.False(t, tracker.Overdue(anchor.Add(24*time.Hour)), "the boundary itself is not overdue")
	assert.True(t, tracker.Overdue(anchor.Add(24*time.Hour+time.Minute)))

	completed := anchor.Add(10 * time.Hour)
	tracker.CompletedAt = &completed
	assert.False(t, tracker.Overdue(anchor.Add(48*time.Hour)), "a completed tracker is never overdue")

	escalated := &SLATracker{SLATargetHours: 24, StartedAt: anchor}
	triggered := anchor.Add(30 * time.Hour)
	escalated.EscalationTriggeredAt = &triggered
	assert.False(t, escalated.Overdue(anchor.Add(48*time.Hour)), "an escalated tracker does not re-trigger")
}

func TestDelegationInEffect(t *testing.T) {
	end := anchor.Add(7 * 24 * time.Hour)
	delegation := &Delegation{
		Scope:      ScopeDepartment,
		Department: "Engineering",
		StartDate:  anchor,
		EndDate:    &end,
		IsActive:   true,
	}

	rctx := RoutingContext{Department: "Engineering", Salary: 50000}

	assert.True(t, delegation.InEffect(anchor.Add(time.Hour), rctx))
	assert.False(t, delegation.InEffect(anchor.Add(-time.Hour), rctx), "before the window")
	assert.False(t, delegation.InEffect(end.Add(time.Hour), rctx), "after the window")
	assert.False(t, delegation.InEffect(anchor.Add(time.Hour), RoutingContext{Department: "Sales"}))

	delegation.IsActive = false
	assert.False(t, delegation.InEffect(anchor.Add(time.Hour), rctx))
}

func TestDelegationInEffect_SalaryRangeScope(t *testing.T) {
	delegation := &Delegation{
		Scope:     ScopeSalaryRange,
		SalaryMin: 40000,
		SalaryMax: 60000,
		StartDate: anchor,
		IsActive:  true,
	}

	assert.True(t, delegation.InEffect(anchor, RoutingContext{Salary: 40000}))
	assert.True(t, delegation.InEffect(anchor, RoutingContext{Salary: 60000}))
	assert.False(t, delegation.InEffect(anchor, RoutingContext{Salary: 60001}))
}

func TestDelegationSpecificity(t *testing.T) {
	assert.Greater(t,
		(&Delegation{Scope: ScopeSalaryRange}).Specificity(),
		(&Delegation{Scope: ScopeDepartment}).Specificity())
	assert.Greater(t,
		(&Delegation{Scope: ScopeDepartment}).Specificity(),
		(&Delegation{Scope: ScopeAll}).Specificity())
}

func TestStepAuthorizedApprover(t *testing.T) {
	step := &ApprovalStep{AssignedTo: "u1", DelegatedTo: "u2", BackupApproverID: "u3"}

	assert.True(t, step.AuthorizedApprover("u1"))
	assert.True(t, step.AuthorizedApprover("u2"))
	assert.True(t, step.AuthorizedApprover("u3"))
	assert.False(t, step.AuthorizedApprover("u4"))
	assert.False(t, step.AuthorizedApprover(""))

	unroutable := &ApprovalStep{}
	assert.False(t, unroutable.Routable())
	assert.False(t, unroutable.AuthorizedApprover(""))
}

func TestDecision(t *testing.T) {
	assert.True(t, DecisionApproved.Valid())
	assert.True(t, DecisionRejected.Valid())
	assert.False(t, Decision("maybe").Valid())
	assert.False(t, Decision("").Valid())

	assert.Equal(t, StepApproved, DecisionApproved.StepStatus())
	assert.Equal(t, StepRejected, DecisionRejected.StepStatus())
}

func TestOverallStatusTerminal(t *testing.T) {
	assert.False(t, InstancePending.Terminal())
	assert.True(t, InstanceApproved.Terminal())
	assert.True(t, InstanceRejected.Terminal())
}
