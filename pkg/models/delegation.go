package models

import "time"

// Delegation is a time-bounded, scope-limited transfer of approval authority
// from one role-holder to another. Delegations are administered outside the
// engine and read-only from its perspective.
type Delegation struct {
	ID          string          `json:"id"`
	DelegatorID string          `json:"delegator_id" validate:"required"`
	DelegateID  string          `json:"delegate_id"  validate:"required"`
	Scope       DelegationScope `json:"delegation_scope" validate:"required,oneof=all department salary_range"`
	Department  string          `json:"department,omitempty"`
	SalaryMin   float64         `json:"salary_min,omitempty"`
	SalaryMax   float64         `json:"salary_max,omitempty"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     *time.Time      `json:"end_date,omitempty"` // nil = open-ended
	IsActive    bool            `json:"is_active"`
	Reason      string          `json:"reason,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// InEffect reports whether the delegation applies at the given time for the
// given routing context: it must be active, the time must fall inside the
// delegation window, and the scope condition must hold.
func (d *Delegation) InEffect(at time.Time, rctx RoutingContext) bool {
	if !d.IsActive {
		return false
	}

	if at.Before(d.StartDate) {
		return false
	}

	if d.EndDate != nil && at.After(*d.EndDate) {
		return false
	}

	switch d.Scope {
	case ScopeAll:
		return true
	case ScopeDepartment:
		return d.Department != "" && d.Department == rctx.Department
	case ScopeSalaryRange:
		return rctx.Salary >= d.SalaryMin && rctx.Salary <= d.SalaryMax
	default:
		return false
	}
}

// Specificity ranks delegation scopes for tie-breaking when several
// delegations match the same context: a salary band beats a department match,
// which beats a blanket delegation.
func (d *Delegation) Specificity() int {
	switch d.Scope {
	case ScopeSalaryRange:
		return 2
	case ScopeDepartment:
		return 1
	default:
		return 0
	}
}
