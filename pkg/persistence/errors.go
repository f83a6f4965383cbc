// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrDefinitionNotFound indicates a workflow definition was not found.
	ErrDefinitionNotFound = errors.New("workflow definition not found")

	// ErrInstanceNotFound indicates an approval instance was not found.
	ErrInstanceNotFound = errors.New("approval instance not found")

	// ErrStepNotFound indicates an approval step was not found.
	ErrStepNotFound = errors.New("approval step not found")

	// ErrSLATrackerNotFound indicates a step has no SLA tracker.
	ErrSLATrackerNotFound = errors.New("sla tracker not found")

	// ErrVoteNotFound indicates no committee vote slot exists for a member.
	ErrVoteNotFound = errors.New("committee vote not found")

	// ErrDelegationNotFound indicates a delegation was not found.
	ErrDelegationNotFound = errors.New("delegation not found")

	// ErrInstanceExists indicates an approval instance already exists for the
	// entity.
	ErrInstanceExists = errors.New("approval instance already exists for entity")

	// ErrStaleState indicates a step had already left pending by the time a
	// writer tried to act on it. Callers should reload and retry.
	ErrStaleState = errors.New("step state is stale")
)

// StepError wraps step-related errors with operation context.
type StepError struct {
	Op     string // Operation being performed (e.g., "Decide", "Escalate")
	StepID string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s operation failed for step %s: %v", e.Op, e.StepID, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (e *StepError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStepError creates a step error with context.
func NewStepError(op, stepID string, err error) *StepError {
	return &StepError{Op: op, StepID: stepID, Err: err}
}

// InstanceError wraps instance-related errors with operation context.
type InstanceError struct {
	Op         string
	InstanceID string
	Err        error
}

func (e *InstanceError) Error() string {
	return fmt.Sprintf("%s operation failed for instance %s: %v", e.Op, e.InstanceID, e.Err)
}

func (e *InstanceError) Unwrap() error {
	return e.Err
}

func (e *InstanceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewInstanceError creates an instance error with context.
func NewInstanceError(op, instanceID string, err error) *InstanceError {
	return &InstanceError{Op: op, InstanceID: instanceID, Err: err}
}

// IsStepNotFound checks if an error indicates a step was not found.
func IsStepNotFound(err error) bool {
	return errors.Is(err, ErrStepNotFound)
}

// IsInstanceNotFound checks if an error indicates an instance was not found.
func IsInstanceNotFound(err error) bool {
	return errors.Is(err, ErrInstanceNotFound)
}

// IsDefinitionNotFound checks if an error indicates a definition was not found.
func IsDefinitionNotFound(err error) bool {
	return errors.Is(err, ErrDefinitionNotFound)
}

// IsDelegationNotFound checks if an error indicates a delegation was not found.
func IsDelegationNotFound(err error) bool {
	return errors.Is(err, ErrDelegationNotFound)
}

// IsStaleState checks if an error indicates a concurrent-modification conflict.
func IsStaleState(err error) bool {
	return errors.Is(err, ErrStaleState)
}
