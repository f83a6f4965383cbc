// Package web provides HTTP request and response types for the approval API.
package web

import (
	"time"

	"github.com/talentbase/signoff/pkg/engine"
	"github.com/talentbase/signoff/pkg/models"
)

// InitiateApprovalRequest represents the request body for initiating an
// approval workflow against a business entity.
type InitiateApprovalRequest struct {
	EntityType  string                `json:"entity_type"  validate:"required,oneof=offer interview role_transition"`
	EntityID    string                `json:"entity_id"    validate:"required"`
	Context     models.RoutingContext `json:"context"`
	InitiatedBy string                `json:"initiated_by" validate:"required"`
}

// DecisionRequest represents the request body for deciding an approval step.
type DecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
	Comments string `json:"comments"`
	Actor    string `json:"actor"    validate:"required"`
}

// VoteRequest represents the request body for recording a committee vote.
type VoteRequest struct {
	MemberID string `json:"member_id" validate:"required"`
	Vote     string `json:"vote"      validate:"required,oneof=approve reject"`
	Comments string `json:"comments"`
}

// CreateDelegationRequest represents the request body for creating a
// delegation of approval authority.
type CreateDelegationRequest struct {
	DelegatorID string     `json:"delegator_id"     validate:"required"`
	DelegateID  string     `json:"delegate_id"      validate:"required,nefield=DelegatorID"`
	Scope       string     `json:"delegation_scope" validate:"required,oneof=all department salary_range"`
	Department  string     `json:"department"`
	SalaryMin   float64    `json:"salary_min"`
	SalaryMax   float64    `json:"salary_max"       validate:"gtefield=SalaryMin"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Reason      string     `json:"reason"`
}

// InstanceResponse bundles an approval instance with its steps.
type InstanceResponse struct {
	Instance *models.ApprovalInstance `json:"instance"`
	Steps    []*models.ApprovalStep   `json:"steps"`
}

// StepResponse is the decision and vote endpoints' view of a step after the
// operation committed.
type StepResponse struct {
	Step  *models.ApprovalStep    `json:"step"`
	Votes []*models.CommitteeVote `json:"votes,omitempty"`
}

// AnalyticsResponse wraps per-entity-type statistics for a reporting period.
type AnalyticsResponse struct {
	From  time.Time                                     `json:"from"`
	To    time.Time                                     `json:"to"`
	Stats map[models.EntityType]*engine.EntityTypeStats `json:"stats"`
}
