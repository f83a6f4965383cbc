// Package main provides the Signoff API server implementation.
package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/talentbase/signoff/pkg/directory"
	"github.com/talentbase/signoff/pkg/engine"
	"github.com/talentbase/signoff/pkg/entities"
	"github.com/talentbase/signoff/pkg/eventbus"
	"github.com/talentbase/signoff/pkg/otelhelper"
	"github.com/talentbase/signoff/pkg/persistence"
	"github.com/talentbase/signoff/pkg/web"
)

const serviceName = "signoff-api"

type API struct {
	logger       *slog.Logger
	persistence  persistence.Persistence
	directory    directory.Directory
	statusWriter entities.StatusWriter
	eventBus     eventbus.EventBus
	validate     *validator.Validate
	tracer       trace.Tracer
}

func NewAPI(
	logger *slog.Logger,
	store persistence.Persistence,
	dir directory.Directory,
	statusWriter entities.StatusWriter,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:       logger,
		persistence:  store,
		directory:    dir,
		statusWriter: statusWriter,
		eventBus:     eventBus,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		tracer:       otel.Tracer(serviceName),
	}
}

func (a *API) App() *fiber.App {
	approvalEngine := engine.New(a.logger, a.persistence, a.directory, a.statusWriter, a.eventBus)

	handlers := web.NewAPIHandlers(approvalEngine, a.persistence, a.validate, a.tracer)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Signoff API")
	})

	approvals := app.Group("/approvals")
	approvals.Post("/", handlers.InitiateApproval)
	approvals.Get("/pending/:userId", handlers.PendingApprovals)
	approvals.Get("/analytics", handlers.Analytics)
	approvals.Get("/:id", handlers.GetApproval)
	approvals.Post("/steps/:id/decision", handlers.ProcessDecision)
	approvals.Post("/steps/:id/votes", handlers.RecordVote)

	admin := app.Group("/admin")
	admin.Post("/sweep", handlers.TriggerSweep)
	admin.Get("/definitions", handlers.ListDefinitions)
	admin.Post("/definitions", handlers.CreateDefinition)
	admin.Get("/definitions/:id", handlers.GetDefinition)
	admin.Post("/definitions/:id/deactivate", handlers.DeactivateDefinition)
	admin.Get("/delegations", handlers.ListDelegations)
	admin.Post("/delegations", handlers.CreateDelegation)
	admin.Post("/delegations/:id/end", handlers.EndDelegation)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(ctx context.Context, port int) error {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		tracer, err := otelhelper.NewTracer(ctx, serviceName)
		if err != nil {
			a.logger.WarnContext(ctx, "Failed to initialize tracing", "error", err)
		} else {
			a.tracer = tracer
		}
	}

	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
