// Package events defines the notification events emitted around approval
// state transitions. Delivery (email, in-app) is owned by downstream
// consumers; the engine only publishes.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/talentbase/signoff/pkg/models"
)

type EventType string

// Topic carries all approval notification events.
const Topic = "signoff.approvals"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ApprovalRequestedEvent EventType = "approval.requested"
	StepActivatedEvent     EventType = "approval.step.activated"
	StepDecidedEvent       EventType = "approval.step.decided"
	StepEscalatedEvent     EventType = "approval.step.escalated"
	VoteRecordedEvent      EventType = "approval.vote.recorded"
	InstanceCompletedEvent EventType = "approval.instance.completed"
)

type BaseEvent struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	Timestamp  time.Time         `json:"timestamp"`
	InstanceID string            `json:"instance_id"`
	EntityType models.EntityType `json:"entity_type,omitempty"`
	EntityID   string            `json:"entity_id,omitempty"`
	Metadata   map[string]any    `json:"metadata,omitempty"`
}

func newBaseEvent(eventType EventType, instanceID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		InstanceID: instanceID,
	}
}

// ApprovalRequested announces that a new approval instance was created.
type ApprovalRequested struct {
	BaseEvent

	WorkflowID  string `json:"workflow_id"`
	InitiatedBy string `json:"initiated_by"`
	TotalSteps  int    `json:"total_steps"`
}

func NewApprovalRequested(instance *models.ApprovalInstance) ApprovalRequested {
	event := ApprovalRequested{
		BaseEvent:   newBaseEvent(ApprovalRequestedEvent, instance.ID),
		WorkflowID:  instance.WorkflowID,
		InitiatedBy: instance.InitiatedBy,
		TotalSteps:  instance.TotalSteps,
	}
	event.EntityType = instance.EntityType
	event.EntityID = instance.EntityID

	return event
}

func (e ApprovalRequested) GetType() EventType {
	return ApprovalRequestedEvent
}

// StepActivated is the approval notification for a step's approver.
type StepActivated struct {
	BaseEvent

	StepID       string    `json:"step_id"`
	StepNumber   int       `json:"step_number"`
	StepName     string    `json:"step_name"`
	RequiredRole string    `json:"required_role"`
	AssignedTo   string    `json:"assigned_to"`
	DueDate      time.Time `json:"due_date"`
}

func NewStepActivated(step *models.ApprovalStep) StepActivated {
	return StepActivated{
		BaseEvent:    newBaseEvent(StepActivatedEvent, step.InstanceID),
		StepID:       step.ID,
		StepNumber:   step.StepNumber,
		StepName:     step.Name,
		RequiredRole: step.RequiredRole,
		AssignedTo:   step.AssignedTo,
		DueDate:      step.DueDate,
	}
}

func (e StepActivated) GetType() EventType {
	return StepActivatedEvent
}

// StepDecided records an approver's decision on a step.
type StepDecided struct {
	BaseEvent

	StepID     string          `json:"step_id"`
	StepNumber int             `json:"step_number"`
	Decision   models.Decision `json:"decision"`
	DecidedBy  string          `json:"decided_by"`
	Comments   string          `json:"comments,omitempty"`
}

func NewStepDecided(step *models.ApprovalStep, decision models.Decision, actor string) StepDecided {
	return StepDecided{
		BaseEvent:  newBaseEvent(StepDecidedEvent, step.InstanceID),
		StepID:     step.ID,
		StepNumber: step.StepNumber,
		Decision:   decision,
		DecidedBy:  actor,
		Comments:   step.Comments,
	}
}

func (e StepDecided) GetType() EventType {
	return StepDecidedEvent
}

// StepEscalated announces that an overdue step was reassigned to the
// escalation target.
type StepEscalated struct {
	BaseEvent

	StepID      string  `json:"step_id"`
	StepNumber  int     `json:"step_number"`
	EscalatedTo string  `json:"escalated_to"`
	HoursOpen   float64 `json:"hours_open"`
}

func NewStepEscalated(step *models.ApprovalStep, hoursOpen float64) StepEscalated {
	return StepEscalated{
		BaseEvent:   newBaseEvent(StepEscalatedEvent, step.InstanceID),
		StepID:      step.ID,
		StepNumber:  step.StepNumber,
		EscalatedTo: step.EscalatedTo,
		HoursOpen:   hoursOpen,
	}
}

func (e StepEscalated) GetType() EventType {
	return StepEscalatedEvent
}

// VoteRecorded announces a committee member's vote on a committee step.
type VoteRecorded struct {
	BaseEvent

	StepID   string      `json:"step_id"`
	MemberID string      `json:"member_id"`
	Vote     models.Vote `json:"vote"`
}

func NewVoteRecorded(instanceID string, vote *models.CommitteeVote) VoteRecorded {
	return VoteRecorded{
		BaseEvent: newBaseEvent(VoteRecordedEvent, instanceID),
		StepID:    vote.StepID,
		MemberID:  vote.MemberID,
		Vote:      vote.Vote,
	}
}

func (e VoteRecorded) GetType() EventType {
	return VoteRecordedEvent
}

// InstanceCompleted announces the terminal outcome of an approval instance.
type InstanceCompleted struct {
	BaseEvent

	Outcome     models.OverallStatus `json:"outcome"`
	CompletedAt time.Time            `json:"completed_at"`
}

func NewInstanceCompleted(instance *models.ApprovalInstance) InstanceCompleted {
	event := InstanceCompleted{
		BaseEvent: newBaseEvent(InstanceCompletedEvent, instance.ID),
		Outcome:   instance.OverallStatus,
	}
	event.EntityType = instance.EntityType
	event.EntityID = instance.EntityID

	if instance.CompletedAt != nil {
		event.CompletedAt = *instance.CompletedAt
	}

	return event
}

func (e InstanceCompleted) GetType() EventType {
	return InstanceCompletedEvent
}
