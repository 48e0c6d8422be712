package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/billing"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWaiver(t *testing.T, tenantID, studentID uuid.UUID, validFrom time.Time, validUntil *time.Time) *billing.FeeWaiver {
	t.Helper()

	waiver, err := billing.NewFeeWaiver(tenantID, studentID, billing.WaiverTypeScholarship,
		decimal.NewFromInt(25), decimal.Zero, validFrom, validUntil)
	require.NoError(t, err)
	return waiver
}

func TestGormFeeWaiverRepository_Save(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormFeeWaiverRepository(db)
	ctx := context.Background()

	t.Run("round-trips a waiver", func(t *testing.T) {
		tenantID := uuid.New()
		waiver := newTestWaiver(t, tenantID, uuid.New(), time.Now(), nil)
		waiver.Reason = "Merit scholarship"
		require.NoError(t, repo.Save(ctx, waiver))

		found, err := repo.FindByID(ctx, waiver.ID)
		require.NoError(t, err)
		assert.Equal(t, waiver.ID, found.ID)
		assert.Equal(t, billing.WaiverTypeScholarship, found.WaiverType)
		assert.True(t, found.DiscountPercentage.Equal(decimal.NewFromInt(25)))
		assert.Equal(t, "Merit scholarship", found.Reason)
		assert.Equal(t, billing.WaiverStatusActive, found.Status)
		assert.Nil(t, found.ValidUntil)
	})

	t.Run("returns not found for unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormFeeWaiverRepository_FindByIDForTenant(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormFeeWaiverRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	waiver := newTestWaiver(t, tenantID, uuid.New(), time.Now(), nil)
	require.NoError(t, repo.Save(ctx, waiver))

	found, err := repo.FindByIDForTenant(ctx, tenantID, waiver.ID)
	require.NoError(t, err)
	assert.Equal(t, waiver.ID, found.ID)

	_, err = repo.FindByIDForTenant(ctx, uuid.New(), waiver.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormFeeWaiverRepository_FindByStudent(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormFeeWaiverRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	studentID := uuid.New()

	require.NoError(t, repo.Save(ctx, newTestWaiver(t, tenantID, studentID, time.Now(), nil)))
	require.NoError(t, repo.Save(ctx, newTestWaiver(t, tenantID, studentID, time.Now(), nil)))
	require.NoError(t, repo.Save(ctx, newTestWaiver(t, tenantID, uuid.New(), time.Now(), nil)))

	waivers, err := repo.FindByStudent(ctx, tenantID, studentID)
	require.NoError(t, err)
	assert.Len(t, waivers, 2)
}

func TestGormFeeWaiverRepository_FindActiveByStudent(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormFeeWaiverRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	studentID := uuid.New()
	now := time.Now()

	current := newTestWaiver(t, tenantID, studentID, now.AddDate(0, -1, 0), nil)
	require.NoError(t, repo.Save(ctx, current))

	expiredUntil := now.AddDate(0, 0, -1)
	expired := newTestWaiver(t, tenantID, studentID, now.AddDate(0, -2, 0), &expiredUntil)
	require.NoError(t, repo.Save(ctx, expired))

	notYet := newTestWaiver(t, tenantID, studentID, now.AddDate(0, 1, 0), nil)
	require.NoError(t, repo.Save(ctx, notYet))

	revoked := newTestWaiver(t, tenantID, studentID, now.AddDate(0, -1, 0), nil)
	require.NoError(t, revoked.Revoke())
	require.NoError(t, repo.Save(ctx, revoked))

	waivers, err := repo.FindActiveByStudent(ctx, tenantID, studentID, now)
	require.NoError(t, err)
	require.Len(t, waivers, 1)
	assert.Equal(t, current.ID, waivers[0].ID)
}
