// Package models defines the core domain models for the approval workflow engine.
package models

import "time"

// WorkflowDefinition is a templated approval pipeline. Instances reference it
// by ID; once referenced it is treated as immutable apart from IsActive.
type WorkflowDefinition struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"             validate:"required,min=3"`
	EntityType      EntityType      `json:"entity_type"      validate:"required"`
	Department      string          `json:"department,omitempty"`     // empty = any department
	PositionLevel   string          `json:"position_level,omitempty"` // empty = any level
	SalaryMin       float64         `json:"salary_min"`
	SalaryMax       float64         `json:"salary_max"       validate:"gtefield=SalaryMin"`
	Steps           []*StepTemplate `json:"steps"            validate:"required,min=1,dive"`
	SLAHours        float64         `json:"sla_hours"        validate:"gt=0"`
	EscalationHours float64         `json:"escalation_hours" validate:"gt=0"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// StepTemplate describes one approver gate within a definition.
type StepTemplate struct {
	StepNumber   int    `json:"step_number"   validate:"gt=0"`
	Name         string `json:"name"          validate:"required"`
	RequiredRole string `json:"required_role" validate:"required"`
	IsCommittee  bool   `json:"is_committee"`
	MinimumVotes int    `json:"minimum_votes"`
}

// Matches reports whether the definition governs the given entity type and
// routing context. Optional filters pass when unset.
func (d *WorkflowDefinition) Matches(entityType EntityType, rctx RoutingContext) bool {
	if !d.IsActive || d.EntityType != entityType {
		return false
	}

	if d.Department != "" && d.Department != rctx.Department {
		return false
	}

	if d.PositionLevel != "" && d.PositionLevel != rctx.PositionLevel {
		return false
	}

	return rctx.Salary >= d.SalaryMin && rctx.Salary <= d.SalaryMax
}

// RoutingContext carries the business attributes a workflow is matched and
// approvers are resolved against.
type RoutingContext struct {
	Department    string  `json:"department,omitempty"`
	PositionLevel string  `json:"position_level,omitempty"`
	Salary        float64 `json:"salary,omitempty"`
}
