package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/talentbase/signoff/pkg/directory"
	"github.com/talentbase/signoff/pkg/engine"
	"github.com/talentbase/signoff/pkg/entities"
	"github.com/talentbase/signoff/pkg/models"
	"github.com/talentbase/signoff/pkg/otelhelper"
	"github.com/talentbase/signoff/pkg/persistence/memory"
	"github.com/talentbase/signoff/pkg/testutil"
	"github.com/talentbase/signoff/pkg/web"
)

type testServer struct {
	app   *fiber.App
	store *memory.Store
	spans *tracetest.SpanRecorder
}

func setupTestApp(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store := memory.NewStore()
	dir := directory.NewStaticDirectory(
		testutil.CreateTestUser("mgr-1", "manager"),
		testutil.CreateTestUser("hr-1", "hr"),
		testutil.CreateTestUser("adm-1", "admin"),
	)

	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("signoff-web-test")

	approvalEngine := engine.New(logger, store, dir, entities.NewMemoryStore(), nil)
	handlers := web.NewAPIHandlers(approvalEngine, store, validator.New(validator.WithRequiredStructEnabled()), tracer)

	app := fiber.New()

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

	return &testServer{app: app, store: store, spans: recorder}
}

func (s *testServer) request(t *testing.T, method, path string, payload any) *http.Response {
	t.Helper()

	var body *bytes.Buffer

	if payload == nil {
		body = bytes.NewBuffer(nil)
	} else if raw, ok := payload.(string); ok {
		body = bytes.NewBufferString(raw)
	} else {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(encoded)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out T
	require.NoError(t, json.Unmarshal(raw, &out))

	return out
}

func (s *testServer) seedDefinition(t *testing.T) *models.WorkflowDefinition {
	t.Helper()

	def := testutil.CreateTestDefinition()
	require.NoError(t, s.store.Definitions().Save(context.Background(), def))

	return def
}

func TestInitiateApprovalEndpoint(t *testing.T) {
	server := setupTestApp(t)
	server.seedDefinition(t)

	resp := server.request(t, http.MethodPost, "/approvals/", web.InitiateApprovalRequest{
		EntityType:  "offer",
		EntityID:    "offer-1",
		Context:     models.RoutingContext{Salary: 90000},
		InitiatedBy: "recruiter-1",
	})

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	result := decodeBody[web.InstanceResponse](t, resp)
	assert.Equal(t, models.InstancePending, result.Instance.OverallStatus)
	assert.Len(t, result.Steps, 2)
	assert.Equal(t, "mgr-1", result.Steps[0].AssignedTo)
}

func TestInitiateApprovalEndpoint_Validation(t *testing.T) {
	server := setupTestApp(t)
	server.seedDefinition(t)

	// Unknown entity type.
	resp := server.request(t, http.MethodPost, "/approvals/", web.InitiateApprovalRequest{
		EntityType:  "vacation",
		EntityID:    "v-1",
		InitiatedBy: "recruiter-1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Malformed JSON.
	resp = server.request(t, http.MethodPost, "/approvals/", "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInitiateApprovalEndpoint_Conflicts(t *testing.T) {
	server := setupTestApp(t)
	server.seedDefinition(t)

	body := web.InitiateApprovalRequest{
		EntityType:  "offer",
		EntityID:    "offer-1",
		Context:     models.RoutingContext{Salary: 90000},
		InitiatedBy: "recruiter-1",
	}

	resp := server.request(t, http.MethodPost, "/approvals/", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = server.request(t, http.MethodPost, "/approvals/", body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "a live instance already exists for the entity")
}

func TestInitiateApprovalEndpoint_NoMatchingWorkflow(t *testing.T) {
	server := setupTestApp(t)

	resp := server.request(t, http.MethodPost, "/approvals/", web.InitiateApprovalRequest{
		EntityType:  "offer",
		EntityID:    "offer-1",
		InitiatedBy: "recruiter-1",
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	problem := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "no_matching_workflow", problem["type"])
}

func TestDecisionEndpoint(t *testing.T) {
	server := setupTestApp(t)
	server.seedDefinition(t)

	created := decodeBody[web.InstanceResponse](t, server.request(t, http.MethodPost, "/approvals/", web.InitiateApprovalRequest{
		EntityType:  "offer",
		EntityID:    "offer-1",
		Context:     models.RoutingContext{Salary: 90000},
		InitiatedBy: "recruiter-1",
	}))

	stepID := created.Steps[0].ID

	resp := server.request(t, http.MethodPost, "/approvals/steps/"+stepID+"/decision", web.DecisionRequest{
		Decision: "approved",
		Comments: "fine by me",
		Actor:    "mgr-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeBody[web.StepResponse](t, resp)
	assert.Equal(t, models.StepApproved, result.Step.Status)
}

func TestDecisionEndpoint_Errors(t *testing.T) {
	server := setupTestApp(t)
	server.seedDefinition(t)

	created := decodeBody[web.InstanceResponse](t, server.request(t, http.MethodPost, "/approvals/", web.InitiateApprovalRequest{
		EntityType:  "offer",
		EntityID:    "offer-1",
		Context:     models.RoutingContext{Salary: 90000},
		InitiatedBy: "recruiter-1",
	}))
	stepID := created.Steps[0].ID

	// Wrong actor.
	resp := server.request(t, http.MethodPost, "/approvals/steps/"+stepID+"/decision", web.DecisionRequest{
		Decision: "approved",
		Actor:    "hr-1",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Unknown step.
	resp = server.request(t, http.MethodPost, "/approvals/steps/missing/decision", web.DecisionRequest{
		Decision: "approved",
		Actor:    "mgr-1",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Decision outside the closed set fails request validation.
	resp = server.request(t, http.MethodPost, "/approvals/steps/"+stepID+"/decision", web.DecisionRequest{
		Decision: "maybe",
		Actor:    "mgr-1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Deciding twice conflicts.
	resp = server.request(t, http.MethodPost, "/approvals/steps/"+stepID+"/decision", web.DecisionRequest{
		Decision: "approved",
		Actor:    "mgr-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = server.request(t, http.MethodPost, "/approvals/steps/"+stepID+"/decision", web.DecisionRequest{
		Decision: "approved",
		Actor:    "mgr-1",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPendingApprovalsEndpoint(t *testing.T) {
	server := setupTestApp(t)
	server.seedDefinition(t)

	server.request(t, http.MethodPost, "/approvals/", web.InitiateApprovalRequest{
		EntityType:  "offer",
		EntityID:    "offer-1",
		Context:     models.RoutingContext{Salary: 90000},
		InitiatedBy: "recruiter-1",
	})

	resp := server.request(t, http.MethodGet, "/approvals/pending/mgr-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeBody[map[string]json.RawMessage](t, resp)

	var count int
	require.NoError(t, json.Unmarshal(result["count"], &count))
	assert.Equal(t, 1, count)
}

func TestCreateDefinitionEndpoint_SchemaValidation(t *testing.T) {
	server := setupTestApp(t)

	// Steps missing entirely.
	resp := server.request(t, http.MethodPost, "/admin/definitions", map[string]any{
		"name":             "Broken Definition",
		"entity_type":      "offer",
		"sla_hours":        48,
		"escalation_hours": 72,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Valid document.
	resp = server.request(t, http.MethodPost, "/admin/definitions", map[string]any{
		"name":             "Offer Approval",
		"entity_type":      "offer",
		"salary_max":       500000,
		"sla_hours":        48,
		"escalation_hours": 72,
		"steps": []map[string]any{
			{"step_number": 1, "name": "Manager Review", "required_role": "manager"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decodeBody[models.WorkflowDefinition](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)
}

func TestDeactivateDefinitionEndpoint(t *testing.T) {
	server := setupTestApp(t)
	def := server.seedDefinition(t)

	resp := server.request(t, http.MethodPost, "/admin/definitions/"+def.ID+"/deactivate", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	stored, err := server.store.Definitions().ByID(context.Background(), def.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	resp = server.request(t, http.MethodPost, "/admin/definitions/missing/deactivate", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDelegationEndpoints(t *testing.T) {
	server := setupTestApp(t)

	resp := server.request(t, http.MethodPost, "/admin/delegations", web.CreateDelegationRequest{
		DelegatorID: "mgr-1",
		DelegateID:  "hr-1",
		Scope:       "all",
		Reason:      "vacation cover",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decodeBody[models.Delegation](t, resp)
	assert.True(t, created.IsActive)

	resp = server.request(t, http.MethodPost, "/admin/delegations/"+created.ID+"/end", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Delegating to yourself fails validation.
	resp = server.request(t, http.MethodPost, "/admin/delegations", web.CreateDelegationRequest{
		DelegatorID: "mgr-1",
		DelegateID:  "mgr-1",
		Scope:       "all",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSweepEndpoint(t *testing.T) {
	server := setupTestApp(t)

	resp := server.request(t, http.MethodPost, "/admin/sweep", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	report := decodeBody[engine.SweepReport](t, resp)
	assert.Zero(t, report.Scanned)
}

func TestAnalyticsEndpoint_BadTimestamps(t *testing.T) {
	server := setupTestApp(t)

	resp := server.request(t, http.MethodGet, "/approvals/analytics?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = server.request(t, http.MethodGet, "/approvals/analytics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInitiateApprovalEndpoint_RecordsSpan(t *testing.T) {
	server := setupTestApp(t)
	server.seedDefinition(t)

	resp := server.request(t, http.MethodPost, "/approvals/", web.InitiateApprovalRequest{
		EntityType:  "offer",
		EntityID:    "offer-1",
		Context:     models.RoutingContext{Salary: 90000},
		InitiatedBy: "recruiter-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	spans := server.spans.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "approvals.initiate", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String(otelhelper.EntityTypeKey, "offer"))
	assert.Contains(t, spans[0].Attributes(), attribute.String(otelhelper.EntityIDKey, "offer-1"))
}

func TestDecisionEndpoint_SpanRecordsError(t *testing.T) {
	server := setupTestApp(t)
	server.seedDefinition(t)

	resp := server.request(t, http.MethodPost, "/approvals/steps/missing/decision", web.DecisionRequest{
		Decision: "approved",
		Actor:    "mgr-1",
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	spans := server.spans.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "approvals.decide", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestHealthEndpoint(t *testing.T) {
	server := setupTestApp(t)

	resp := server.request(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
