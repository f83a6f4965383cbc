// Package web provides HTTP handlers and REST API endpoints for approval
// workflow management.
package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/talentbase/signoff/pkg/engine"
	"github.com/talentbase/signoff/pkg/models"
	"github.com/talentbase/signoff/pkg/otelhelper"
	"github.com/talentbase/signoff/pkg/persistence"
)

const defaultAnalyticsWindow = 30 * 24 * time.Hour

type APIHandlers struct {
	engine    *engine.Engine
	store     persistence.Persistence
	validator *validator.Validate
	tracer    trace.Tracer
}

func NewAPIHandlers(approvalEngine *engine.Engine, store persistence.Persistence, validator *validator.Validate, tracer trace.Tracer) *APIHandlers {
	return &APIHandlers{
		engine:    approvalEngine,
		store:     store,
		validator: validator,
		tracer:    tracer,
	}
}

func (h *APIHandlers) InitiateApproval(c fiber.Ctx) error {
	var req InitiateApprovalRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, span := otelhelper.StartSpan(c.Context(), h.tracer, "approvals.initiate",
		attribute.String(otelhelper.EntityTypeKey, req.EntityType),
		attribute.String(otelhelper.EntityIDKey, req.EntityID))
	defer span.End()

	instance, err := h.engine.InitiateApproval(
		ctx,
		models.EntityType(req.EntityType),
		req.EntityID,
		req.Context,
		req.InitiatedBy,
	)
	if err != nil {
		otelhelper.SetError(span, err)

		return handleEngineError(c, err)
	}

	span.SetAttributes(
		attribute.String(otelhelper.InstanceIDKey, instance.ID),
		attribute.String(otelhelper.WorkflowIDKey, instance.WorkflowID),
	)

	steps, err := h.store.Steps().ByInstance(ctx, instance.ID)
	if err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(InstanceResponse{Instance: instance, Steps: steps})
}

func (h *APIHandlers) GetApproval(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	instance, err := h.store.Instances().ByID(c.Context(), id)
	if err != nil {
		return handleEngineError(c, err)
	}

	steps, err := h.store.Steps().ByInstance(c.Context(), instance.ID)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(InstanceResponse{Instance: instance, Steps: steps})
}

func (h *APIHandlers) ProcessDecision(c fiber.Ctx) error {
	stepID := c.Params("id")
	if stepID == "" {
		return badRequest(c, "Step ID is required")
	}

	var req DecisionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, span := otelhelper.StartSpan(c.Context(), h.tracer, "approvals.decide",
		attribute.String(otelhelper.StepIDKey, stepID),
		attribute.String(otelhelper.ApproverIDKey, req.Actor),
		attribute.String(otelhelper.DecisionKey, req.Decision))
	defer span.End()

	err := h.engine.ProcessApproval(ctx, stepID, models.Decision(req.Decision), req.Comments, req.Actor)
	if err != nil {
		otelhelper.SetError(span, err)

		return handleEngineError(c, err)
	}

	step, err := h.store.Steps().ByID(ctx, stepID)
	if err != nil {
		return internalError(c, err)
	}

	span.SetAttributes(attribute.Int(otelhelper.StepNumberKey, step.StepNumber))

	return c.JSON(StepResponse{Step: step})
}

func (h *APIHandlers) RecordVote(c fiber.Ctx) error {
	stepID := c.Params("id")
	if stepID == "" {
		return badRequest(c, "Step ID is required")
	}

	var req VoteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, span := otelhelper.StartSpan(c.Context(), h.tracer, "approvals.vote",
		attribute.String(otelhelper.StepIDKey, stepID),
		attribute.String(otelhelper.ApproverIDKey, req.MemberID))
	defer span.End()

	err := h.engine.RecordCommitteeVote(ctx, stepID, req.MemberID, models.Vote(req.Vote), req.Comments)
	if err != nil {
		otelhelper.SetError(span, err)

		return handleEngineError(c, err)
	}

	step, err := h.store.Steps().ByID(ctx, stepID)
	if err != nil {
		return internalError(c, err)
	}

	votes, err := h.store.Votes().ByStep(ctx, stepID)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(StepResponse{Step: step, Votes: votes})
}

func (h *APIHandlers) PendingApprovals(c fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return badRequest(c, "User ID is required")
	}

	steps, err := h.engine.PendingApprovals(c.Context(), userID)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"user_id":   userID,
		"approvals": steps,
		"count":     len(steps),
	})
}

func (h *APIHandlers) Analytics(c fiber.Ctx) error {
	to := time.Now().UTC()
	from := to.Add(-defaultAnalyticsWindow)

	if fromStr := c.Query("from"); fromStr != "" {
		parsed, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return badRequest(c, "Invalid 'from' timestamp, expected RFC 3339")
		}

		from = parsed
	}

	if toStr := c.Query("to"); toStr != "" {
		parsed, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return badRequest(c, "Invalid 'to' timestamp, expected RFC 3339")
		}

		to = parsed
	}

	if to.Before(from) {
		return badRequest(c, "'to' must not precede 'from'")
	}

	stats, err := h.engine.Analytics(c.Context(), from, to)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(AnalyticsResponse{From: from, To: to, Stats: stats})
}

func (h *APIHandlers) TriggerSweep(c fiber.Ctx) error {
	ctx, span := otelhelper.StartSpan(c.Context(), h.tracer, "approvals.sweep")
	defer span.End()

	report, err := h.engine.RunEscalationSweep(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return handleEngineError(c, err)
	}

	return c.JSON(report)
}

func (h *APIHandlers) ListDefinitions(c fiber.Ctx) error {
	definitions, err := h.store.Definitions().All(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"definitions": definitions,
		"count":       len(definitions),
	})
}

func (h *APIHandlers) GetDefinition(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Definition ID is required")
	}

	definition, err := h.store.Definitions().ByID(c.Context(), id)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(definition)
}

func (h *APIHandlers) CreateDefinition(c fiber.Ctx) error {
	body := c.Body()

	if err := validateDefinitionDocument(body); err != nil {
		return badRequest(c, err.Error())
	}

	var definition models.WorkflowDefinition
	if err := json.Unmarshal(body, &definition); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(definition); err != nil {
		return badRequest(c, err.Error())
	}

	id, err := uuid.NewV7()
	if err != nil {
		return internalError(c, err)
	}

	now := time.Now().UTC()

	definition.ID = id.String()
	definition.IsActive = true
	definition.CreatedAt = now
	definition.UpdatedAt = now

	if err := h.store.Definitions().Save(c.Context(), &definition); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(definition)
}

func (h *APIHandlers) DeactivateDefinition(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Definition ID is required")
	}

	if err := h.store.Definitions().SetActive(c.Context(), id, false); err != nil {
		return handleEngineError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ListDelegations(c fiber.Ctx) error {
	delegations, err := h.store.Delegations().All(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"delegations": delegations,
		"count":       len(delegations),
	})
}

func (h *APIHandlers) CreateDelegation(c fiber.Ctx) error {
	var req CreateDelegationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	id, err := uuid.NewV7()
	if err != nil {
		return internalError(c, err)
	}

	now := time.Now().UTC()

	startDate := now
	if req.StartDate != nil {
		startDate = *req.StartDate
	}

	delegation := &models.Delegation{
		ID:          id.String(),
		DelegatorID: req.DelegatorID,
		DelegateID:  req.DelegateID,
		Scope:       models.DelegationScope(req.Scope),
		Department:  req.Department,
		SalaryMin:   req.SalaryMin,
		SalaryMax:   req.SalaryMax,
		StartDate:   startDate,
		EndDate:     req.EndDate,
		IsActive:    true,
		Reason:      req.Reason,
		CreatedAt:   now,
	}

	if err := h.store.Delegations().Save(c.Context(), delegation); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(delegation)
}

func (h *APIHandlers) EndDelegation(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Delegation ID is required")
	}

	if err := h.store.Delegations().End(c.Context(), id, time.Now().UTC()); err != nil {
		return handleEngineError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "Signoff API is healthy"
	httpStatus := http.StatusOK

	err := h.store.HealthCheck(c.Context())
	if err != nil {
		status = "unhealthy"
		message = "Signoff API is unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}
