package models

import "time"

// ApprovalInstance is one run of a workflow definition against one business
// entity. There is at most one per (entity_type, entity_id) request.
type ApprovalInstance struct {
	ID            string         `json:"id"`
	WorkflowID    string         `json:"workflow_id"`
	EntityType    EntityType     `json:"entity_type"`
	EntityID      string         `json:"entity_id"`
	TotalSteps    int            `json:"total_steps"`
	CurrentStep   int            `json:"current_step"` // 0 before the first step activates
	OverallStatus OverallStatus  `json:"overall_status"`
	InitiatedBy   string         `json:"initiated_by"`
	Context       RoutingContext `json:"context"`
	InitiatedAt   time.Time      `json:"initiated_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
}

// ApprovalStep is one approver gate within an instance, ordered by StepNumber
// (1..TotalSteps, unique within the instance). At most one step per instance
// is active at a time: the one whose StepNumber equals the instance's
// CurrentStep while its status is still pending.
type ApprovalStep struct {
	ID               string     `json:"id"`
	InstanceID       string     `json:"instance_id"`
	StepNumber       int        `json:"step_number"`
	Name             string     `json:"name"`
	RequiredRole     string     `json:"required_role"`
	AssignedTo       string     `json:"assigned_to,omitempty"` // empty = unroutable
	DelegatedTo      string     `json:"delegated_to,omitempty"`
	BackupApproverID string     `json:"backup_approver_id,omitempty"`
	Status           StepStatus `json:"status"`
	DueDate          time.Time  `json:"due_date"`
	EscalationDate   time.Time  `json:"escalation_date"`
	IsCommitteeVote  bool       `json:"is_committee_vote"`
	MinimumVotes     int        `json:"minimum_votes,omitempty"`
	DecisionDate     *time.Time `json:"decision_date,omitempty"`
	Comments         string     `json:"comments,omitempty"`
	EscalatedTo      string     `json:"escalated_to,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Routable reports whether an approver could be resolved for the step.
func (s *ApprovalStep) Routable() bool {
	return s.AssignedTo != ""
}

// AuthorizedApprover reports whether the actor may decide this step through
// the normal decision path.
func (s *ApprovalStep) AuthorizedApprover(actor string) bool {
	if actor == "" {
		return false
	}

	return actor == s.AssignedTo || actor == s.DelegatedTo || actor == s.BackupApproverID
}

// SLATracker records how long a step took against its target. One-to-one with
// an approval step; CompletedAt is set exactly once, when the step leaves
// pending.
type SLATracker struct {
	ID                    string     `json:"id"`
	StepID                string     `json:"step_id"`
	SLATargetHours        float64    `json:"sla_target_hours"`
	StartedAt             time.Time  `json:"started_at"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
	SLAMet                *bool      `json:"sla_met,omitempty"`
	HoursTaken            *float64   `json:"hours_taken,omitempty"`
	EscalationTriggeredAt *time.Time `json:"escalation_triggered_at,omitempty"`
	EscalatedTo           string     `json:"escalated_to,omitempty"`
}

// Complete closes the tracker at the given time. The boundary counts as met:
// hours taken equal to the target satisfies the SLA.
func (t *SLATracker) Complete(at time.Time) {
	hours := at.Sub(t.StartedAt).Hours()
	met := hours <= t.SLATargetHours

	t.CompletedAt = &at
	t.HoursTaken = &hours
	t.SLAMet = &met
}

// Overdue reports whether the step has breached its SLA target and has not
// yet been escalated.
func (t *SLATracker) Overdue(now time.Time) bool {
	if t.CompletedAt != nil || t.EscalationTriggeredAt != nil {
		return false
	}

	return now.Sub(t.StartedAt).Hours() > t.SLATargetHours
}

// CommitteeVote is one member's slot on a committee step, created for every
// eligible member when the step is instantiated.
type CommitteeVote struct {
	ID       string     `json:"id"`
	StepID   string     `json:"step_id"`
	MemberID string     `json:"member_id"`
	Weight   float64    `json:"weight"`
	Vote     Vote       `json:"vote"`
	Comments string     `json:"comments,omitempty"`
	VotedAt  *time.Time `json:"voted_at,omitempty"`
}
