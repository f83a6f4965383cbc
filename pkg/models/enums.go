package models

// EntityType identifies the kind of business record an approval governs.
type EntityType string

const (
	EntityTypeOffer          EntityType = "offer"
	EntityTypeInterview      EntityType = "interview"
	EntityTypeRoleTransition EntityType = "role_transition"
)

// OverallStatus is the lifecycle state of an approval instance. It leaves
// StatusPending exactly once and is never reverted.
type OverallStatus string

const (
	InstancePending  OverallStatus = "pending"
	InstanceApproved OverallStatus = "approved"
	InstanceRejected OverallStatus = "rejected"
)

// Terminal reports whether the status admits no further transitions.
func (s OverallStatus) Terminal() bool {
	return s == InstanceApproved || s == InstanceRejected
}

// StepStatus is the state of a single approval step.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepApproved  StepStatus = "approved"
	StepRejected  StepStatus = "rejected"
	StepEscalated StepStatus = "escalated"
)

// Decision is the closed set of outcomes an approver may record. Anything
// else is rejected at the boundary.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Valid reports whether the decision is one of the recognized values.
func (d Decision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// StepStatus maps the decision onto the equivalent step status.
func (d Decision) StepStatus() StepStatus {
	if d == DecisionApproved {
		return StepApproved
	}

	return StepRejected
}

// DelegationScope limits which routing contexts a delegation applies to.
type DelegationScope string

const (
	ScopeAll         DelegationScope = "all"
	ScopeDepartment  DelegationScope = "department"
	ScopeSalaryRange DelegationScope = "salary_range"
)

// Vote is a committee member's recorded position on a committee step.
type Vote string

const (
	VotePending Vote = "pending"
	VoteApprove Vote = "approve"
	VoteReject  Vote = "reject"
)
