package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/talentbase/signoff/pkg/engine"
	"github.com/talentbase/signoff/pkg/persistence"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, problemType, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleEngineError maps engine and persistence errors onto problem responses.
func handleEngineError(c fiber.Ctx, err error) error {
	switch {
	case engine.IsValidationError(err):
		problem := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("validation_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	case engine.IsAuthorizationError(err):
		problem := problems.NewStatusProblem(403).
			WithInstance(c.Path()).
			WithType("forbidden").
			WithDetail(err.Error())

		return c.Status(fiber.StatusForbidden).JSON(problem)

	case errors.Is(err, engine.ErrNoMatchingWorkflow):
		return notFound(c, "no_matching_workflow", "no active workflow definition matches the entity")

	case errors.Is(err, persistence.ErrInstanceExists):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("instance_exists").
			WithDetail("an approval is already in progress for this entity")

		return c.Status(fiber.StatusConflict).JSON(problem)

	case persistence.IsStaleState(err) || engine.IsConflictError(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("conflict").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	case persistence.IsStepNotFound(err):
		return notFound(c, "step_not_found", "approval step not found")

	case persistence.IsInstanceNotFound(err):
		return notFound(c, "instance_not_found", "approval instance not found")

	case persistence.IsDefinitionNotFound(err):
		return notFound(c, "definition_not_found", "workflow definition not found")

	case persistence.IsDelegationNotFound(err):
		return notFound(c, "delegation_not_found", "delegation not found")

	default:
		return internalError(c, err)
	}
}
