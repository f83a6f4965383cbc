package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/talentbase/signoff/pkg/directory"
	"github.com/talentbase/signoff/pkg/entities"
	"github.com/talentbase/signoff/pkg/eventbus"
	"github.com/talentbase/signoff/pkg/models"
	"github.com/talentbase/signoff/pkg/persistence"
)

// Engine drives multi-step approval workflows. All state lives in the
// persistence layer; the engine itself is stateless and safe for concurrent
// use.
type Engine struct {
	logger    *slog.Logger
	store     persistence.Persistence
	directory directory.Directory
	entities  entities.StatusWriter
	publisher eventbus.EventPublisher
	now       func() time.Time
}

// Option customizes engine construction.
type Option func(*Engine)

// WithClock overrides the engine's time source. Tests use this to drive SLA
// and escalation behavior.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func New(
	logger *slog.Logger,
	store persistence.Persistence,
	dir directory.Directory,
	statusWriter entities.StatusWriter,
	publisher eventbus.EventPublisher,
	opts ...Option,
) *Engine {
	e := &Engine{
		logger:    logger,
		store:     store,
		directory: dir,
		entities:  statusWriter,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// PendingApprovals returns the active steps the user may currently decide:
// pending steps assigned (directly, by delegation, or as backup) to the user
// whose step number is the instance's current step.
func (e *Engine) PendingApprovals(ctx context.Context, userID string) ([]*models.ApprovalStep, error) {
	candidates, err := e.store.Steps().PendingByApprover(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return []*models.ApprovalStep{}, nil
	}

	instanceIDs := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))

	for _, step := range candidates {
		if !seen[step.InstanceID] {
			seen[step.InstanceID] = true
			instanceIDs = append(instanceIDs, step.InstanceID)
		}
	}

	instances, err := e.store.Instances().ByIDs(ctx, instanceIDs)
	if err != nil {
		return nil, err
	}

	instanceByID := make(map[string]*models.ApprovalInstance, len(instances))
	for _, instance := range instances {
		instanceByID[instance.ID] = instance
	}

	active := make([]*models.ApprovalStep, 0, len(candidates))

	for _, step := range candidates {
		instance, ok := instanceByID[step.InstanceID]
		if !ok || instance.OverallStatus != models.InstancePending {
			continue
		}

		if instance.CurrentStep == step.StepNumber {
			active = append(active, step)
		}
	}

	return active, nil
}

// publish emits a notification event. Notification delivery is fire-and-forget
// relative to state transitions: failures are logged, never propagated.
func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	err := e.publisher.Publish(ctx, key, event)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to publish notification event",
			"event_type", event.GetType(),
			"key", key,
			"error", err)
	}
}
