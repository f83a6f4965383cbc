package engine

import (
	"context"
	"sort"

	"github.com/talentbase/signoff/pkg/models"
)

// matchDefinition selects the single best-matching active workflow definition
// for the entity type and routing context.
//
// Tie-break order among matching definitions: a specific department beats no
// department filter, then a specific position level beats none, then the
// smallest salary ceiling (the most specific band) wins. ID breaks remaining
// ties so selection is deterministic.
func (e *Engine) matchDefinition(ctx context.Context, entityType models.EntityType, rctx models.RoutingContext) (*models.WorkflowDefinition, error) {
	definitions, err := e.store.Definitions().ActiveByEntityType(ctx, entityType)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.WorkflowDefinition, 0, len(definitions))

	for _, def := range definitions {
		if def.Matches(entityType, rctx) {
			matched = append(matched, def)
		}
	}

	if len(matched) == 0 {
		return nil, ErrNoMatchingWorkflow
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]

		if (a.Department != "") != (b.Department != "") {
			return a.Department != ""
		}

		if (a.PositionLevel != "") != (b.PositionLevel != "") {
			return a.PositionLevel != ""
		}

		if a.SalaryMax != b.SalaryMax {
			return a.SalaryMax < b.SalaryMax
		}

		return a.ID < b.ID
	})

	return matched[0], nil
}
