// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/talentbase/signoff/pkg/directory"
	"github.com/talentbase/signoff/pkg/models"
)

// CreateTestDefinition creates a workflow definition with sensible defaults
// that can be overridden.
func CreateTestDefinition(overrides ...func(*models.WorkflowDefinition)) *models.WorkflowDefinition {
	now := time.Now().UTC()

	def := &models.WorkflowDefinition{
		ID:         uuid.New().String(),
		Name:       "Standard Offer Approval",
		EntityType: models.EntityTypeOffer,
		SalaryMin:  0,
		SalaryMax:  1000000,
		Steps: []*models.StepTemplate{
			{StepNumber: 1, Name: "Manager Review", RequiredRole: "manager"},
			{StepNumber: 2, Name: "HR Review", RequiredRole: "hr"},
		},
		SLAHours:        48,
		EscalationHours: 72,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for _, override := range overrides {
		override(def)
	}

	return def
}

// WithEntityType sets the definition's entity type.
func WithEntityType(entityType models.EntityType) func(*models.WorkflowDefinition) {
	return func(d *models.WorkflowDefinition) {
		d.EntityType = entityType
	}
}

// WithDepartment restricts the definition to a department.
func WithDepartment(department string) func(*models.WorkflowDefinition) {
	return func(d *models.WorkflowDefinition) {
		d.Department = department
	}
}

// WithSalaryBand restricts the definition to a salary band.
func WithSalaryBand(minSalary, maxSalary float64) func(*models.WorkflowDefinition) {
	return func(d *models.WorkflowDefinition) {
		d.SalaryMin = minSalary
		d.SalaryMax = maxSalary
	}
}

// WithSteps replaces the definition's step templates.
func WithSteps(steps ...*models.StepTemplate) func(*models.WorkflowDefinition) {
	return func(d *models.WorkflowDefinition) {
		d.Steps = steps
	}
}

// WithSLA sets the definition's SLA and escalation targets in hours.
func WithSLA(slaHours, escalationHours float64) func(*models.WorkflowDefinition) {
	return func(d *models.WorkflowDefinition) {
		d.SLAHours = slaHours
		d.EscalationHours = escalationHours
	}
}

// CommitteeStep builds a committee step template.
func CommitteeStep(stepNumber int, name string, minimumVotes int) *models.StepTemplate {
	return &models.StepTemplate{
		StepNumber:   stepNumber,
		Name:         name,
		RequiredRole: "executive",
		IsCommittee:  true,
		MinimumVotes: minimumVotes,
	}
}

// CreateTestUser creates a directory user with defaults that can be
// overridden.
func CreateTestUser(id, role string, overrides ...func(*directory.User)) directory.User {
	user := directory.User{
		ID:         id,
		Name:       "User " + id,
		Role:       role,
		Department: "Engineering",
		IsActive:   true,
	}

	for _, override := range overrides {
		override(&user)
	}

	return user
}

// InDepartment sets the user's department.
func InDepartment(department string) func(*directory.User) {
	return func(u *directory.User) {
		u.Department = department
	}
}

// CreateTestDelegation creates an active open-ended delegation with defaults
// that can be overridden. The default window opens at a fixed date in the
// past so the delegation is in effect for fake clocks as well as wall time.
func CreateTestDelegation(delegatorID, delegateID string, overrides ...func(*models.Delegation)) *models.Delegation {
	delegation := &models.Delegation{
		ID:          uuid.New().String(),
		DelegatorID: delegatorID,
		DelegateID:  delegateID,
		Scope:       models.ScopeAll,
		StartDate:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:    true,
		Reason:      "vacation cover",
		CreatedAt:   time.Now().UTC(),
	}

	for _, override := range overrides {
		override(delegation)
	}

	return delegation
}

// WithScope sets the delegation scope and its scope parameters.
func WithScope(scope models.DelegationScope, department string, minSalary, maxSalary float64) func(*models.Delegation) {
	return func(d *models.Delegation) {
		d.Scope = scope
		d.Department = department
		d.SalaryMin = minSalary
		d.SalaryMax = maxSalary
	}
}

// WithWindow sets the delegation's validity window.
func WithWindow(start time.Time, end *time.Time) func(*models.Delegation) {
	return func(d *models.Delegation) {
		d.StartDate = start
		d.EndDate = end
	}
}
