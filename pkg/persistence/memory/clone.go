package memory

import "github.com/talentbase/signoff/pkg/models"

func cloneDefinition(def *models.WorkflowDefinition) *models.WorkflowDefinition {
	out := *def
	out.Steps = make([]*models.StepTemplate, len(def.Steps))

	for i, tmpl := range def.Steps {
		copied := *tmpl
		out.Steps[i] = &copied
	}

	return &out
}

func cloneInstance(instance *models.ApprovalInstance) *models.ApprovalInstance {
	out := *instance
	if instance.CompletedAt != nil {
		completedAt := *instance.CompletedAt
		out.CompletedAt = &completedAt
	}

	return &out
}

func cloneStep(step *models.ApprovalStep) *models.ApprovalStep {
	out := *step
	if step.DecisionDate != nil {
		decisionDate := *step.DecisionDate
		out.DecisionDate = &decisionDate
	}

	return &out
}

func cloneTracker(tracker *models.SLATracker) *models.SLATracker {
	out := *tracker

	if tracker.CompletedAt != nil {
		completedAt := *tracker.CompletedAt
		out.CompletedAt = &completedAt
	}

	if tracker.SLAMet != nil {
		met := *tracker.SLAMet
		out.SLAMet = &met
	}

	if tracker.HoursTaken != nil {
		hours := *tracker.HoursTaken
		out.HoursTaken = &hours
	}

	if tracker.EscalationTriggeredAt != nil {
		triggeredAt := *tracker.EscalationTriggeredAt
		out.EscalationTriggeredAt = &triggeredAt
	}

	return &out
}

func cloneVote(vote *models.CommitteeVote) *models.CommitteeVote {
	out := *vote
	if vote.VotedAt != nil {
		votedAt := *vote.VotedAt
		out.VotedAt = &votedAt
	}

	return &out
}

func cloneDelegation(delegation *models.Delegation) *models.Delegation {
	out := *delegation
	if delegation.EndDate != nil {
		endDate := *delegation.EndDate
		out.EndDate = &endDate
	}

	return &out
}
