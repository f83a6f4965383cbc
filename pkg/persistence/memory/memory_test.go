package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentbase/signoff/pkg/models"
	"github.com/talentbase/signoff/pkg/persistence"
)

var anchor = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func pendingStep(id, instanceID string, number int) *models.ApprovalStep {
	return &models.ApprovalStep{
		ID:         id,
		InstanceID: instanceID,
		StepNumber: number,
		Name:       "Review",
		AssignedTo: "u1",
		Status:     models.StepPending,
		DueDate:    anchor.Add(48 * time.Hour),
		CreatedAt:  anchor,
	}
}

func TestTransaction_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.Transaction(ctx, func(ctx context.Context, tx persistence.Repositories) error {
		return tx.Steps().Save(ctx, pendingStep("s1", "i1", 1))
	})
	require.NoError(t, err)

	step, err := store.Steps().ByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "i1", step.InstanceID)
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	boom := errors.New("boom")

	err := store.Transaction(ctx, func(ctx context.Context, tx persistence.Repositories) error {
		if err := tx.Steps().Save(ctx, pendingStep("s1", "i1", 1)); err != nil {
			return err
		}

		if err := tx.Instances().Save(ctx, &models.ApprovalInstance{ID: "i1", OverallStatus: models.InstancePending}); err != nil {
			return err
		}

		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Steps().ByID(ctx, "s1")
	require.ErrorIs(t, err, persistence.ErrStepNotFound)

	_, err = store.Instances().ByID(ctx, "i1")
	require.ErrorIs(t, err, persistence.ErrInstanceNotFound)
}

func TestTransaction_ReadsSeeStagedWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.Transaction(ctx, func(ctx context.Context, tx persistence.Repositories) error {
		if err := tx.Steps().Save(ctx, pendingStep("s1", "i1", 1)); err != nil {
			return err
		}

		staged, err := tx.Steps().ByID(ctx, "s1")
		if err != nil {
			return err
		}

		assert.Equal(t, 1, staged.StepNumber)

		staged.Status = models.StepApproved

		return tx.Steps().Save(ctx, staged)
	})
	require.NoError(t, err)

	step, err := store.Steps().ByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StepApproved, step.Status, "the second staged write wins")
}

func TestRepositories_CloneOnRead(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Steps().Save(ctx, pendingStep("s1", "i1", 1)))

	first, err := store.Steps().ByID(ctx, "s1")
	require.NoError(t, err)

	first.Status = models.StepRejected

	second, err := store.Steps().ByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StepPending, second.Status, "mutating a read result must not touch stored state")
}

func TestStepRepo_PendingByApproverOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	late := pendingStep("s-late", "i1", 1)
	late.DueDate = anchor.Add(72 * time.Hour)
	early := pendingStep("s-early", "i2", 1)
	early.DueDate = anchor.Add(24 * time.Hour)
	decided := pendingStep("s-decided", "i3", 1)
	decided.Status = models.StepApproved

	require.NoError(t, store.Steps().Save(ctx, late))
	require.NoError(t, store.Steps().Save(ctx, early))
	require.NoError(t, store.Steps().Save(ctx, decided))

	steps, err := store.Steps().PendingByApprover(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "s-early", steps[0].ID, "earliest due date first")
	assert.Equal(t, "s-late", steps[1].ID)
}

func TestStepRepo_OverdueUsesTrackers(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Steps().Save(ctx, pendingStep("s1", "i1", 1)))
	require.NoError(t, store.SLAs().Save(ctx, &models.SLATracker{
		ID: "t1", StepID: "s1", SLATargetHours: 24, StartedAt: anchor,
	}))

	onTime, err := store.Steps().Overdue(ctx, anchor.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, onTime)

	overdue, err := store.Steps().Overdue(ctx, anchor.Add(25*time.Hour))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "s1", overdue[0].ID)
}

func TestDelegationRepo_End(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Delegations().Save(ctx, &models.Delegation{
		ID: "d1", DelegatorID: "u1", DelegateID: "u2", Scope: models.ScopeAll,
		StartDate: anchor, IsActive: true,
	}))

	require.NoError(t, store.Delegations().End(ctx, "d1", anchor.Add(time.Hour)))

	delegation, err := store.Delegations().ByID(ctx, "d1")
	require.NoError(t, err)
	assert.False(t, delegation.IsActive)
	require.NotNil(t, delegation.EndDate)

	active, err := store.Delegations().Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	err = store.Delegations().End(ctx, "missing", anchor)
	require.ErrorIs(t, err, persistence.ErrDelegationNotFound)
}
