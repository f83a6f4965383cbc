// Package entities abstracts the business records an approval outcome is
// written back to.
package entities

import (
	"context"

	"github.com/talentbase/signoff/pkg/models"
)

// StatusWriter propagates a status onto the originating business record.
type StatusWriter interface {
	WriteStatus(ctx context.Context, entityType models.EntityType, entityID, status string) error
}
