package engine

import (
	"context"

	"github.com/talentbase/signoff/pkg/models"
)

// terminalEntityStatus maps an instance's terminal outcome onto the status
// written back to the originating business record. An approved offer moves to
// "sent" (the offer letter goes out); everything else mirrors the outcome.
var terminalEntityStatus = map[models.EntityType]map[models.OverallStatus]string{
	models.EntityTypeOffer: {
		models.InstanceApproved: "sent",
		models.InstanceRejected: "rejected",
	},
	models.EntityTypeInterview: {
		models.InstanceApproved: "approved",
		models.InstanceRejected: "rejected",
	},
	models.EntityTypeRoleTransition: {
		models.InstanceApproved: "approved",
		models.InstanceRejected: "rejected",
	},
}

// syncEntityStatus propagates a terminal outcome to the originating entity.
// The approval outcome is the source of truth: a propagation failure is
// logged and reported, never rolled back. Unknown entity types are a no-op.
func (e *Engine) syncEntityStatus(ctx context.Context, instance *models.ApprovalInstance) {
	statuses, ok := terminalEntityStatus[instance.EntityType]
	if !ok {
		e.logger.DebugContext(ctx, "no entity status mapping, skipping synchronization",
			"entity_type", instance.EntityType,
			"instance_id", instance.ID)

		return
	}

	status, ok := statuses[instance.OverallStatus]
	if !ok {
		return
	}

	err := e.entities.WriteStatus(ctx, instance.EntityType, instance.EntityID, status)
	if err != nil {
		e.logger.ErrorContext(ctx, "entity status synchronization failed",
			"entity_type", instance.EntityType,
			"entity_id", instance.EntityID,
			"status", status,
			"error", err)

		return
	}

	e.logger.InfoContext(ctx, "entity status synchronized",
		"entity_type", instance.EntityType,
		"entity_id", instance.EntityID,
		"status", status)
}
