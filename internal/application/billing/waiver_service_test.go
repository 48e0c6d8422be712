package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/billing"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestWaiverService(waiverRepo *MockFeeWaiverRepository, invoiceRepo *MockFeeInvoiceRepository) *WaiverService {
	return NewWaiverService(waiverRepo, invoiceRepo, shared.FixedClock{Instant: testNow})
}

func TestWaiverService_GrantWaiver(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	studentID := uuid.New()

	waiverRepo := new(MockFeeWaiverRepository)
	invoiceRepo := new(MockFeeInvoiceRepository)
	service := newTestWaiverService(waiverRepo, invoiceRepo)

	waiverRepo.On("Save", ctx, mock.AnythingOfType("*billing.FeeWaiver")).Return(nil)

	until := testNow.AddDate(1, 0, 0)
	waiver, err := service.GrantWaiver(ctx, GrantWaiverRequest{
		TenantID:           tenantID,
		StudentID:          studentID,
		WaiverType:         billing.WaiverTypeSibling,
		DiscountPercentage: decimal.NewFromInt(10),
		Reason:             "second child enrolled",
		ValidUntil:         &until,
	})

	require.NoError(t, err)
	assert.Equal(t, billing.WaiverStatusActive, waiver.Status)
	assert.Equal(t, testNow, waiver.ValidFrom)
	assert.Equal(t, "second child enrolled", waiver.Reason)
	assert.True(t, waiver.IsValidAt(testNow))

	waiverRepo.AssertExpectations(t)
}

func TestWaiverService_GrantWaiver_NoDiscount(t *testing.T) {
	ctx := context.Background()

	waiverRepo := new(MockFeeWaiverRepository)
	invoiceRepo := new(MockFeeInvoiceRepository)
	service := newTestWaiverService(waiverRepo, invoiceRepo)

	_, err := service.GrantWaiver(ctx, GrantWaiverRequest{
		TenantID:   uuid.New(),
		StudentID:  uuid.New(),
		WaiverType: billing.WaiverTypeHardship,
	})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)

	waiverRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestWaiverService_ApplyWaiver(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	waiverRepo := new(MockFeeWaiverRepository)
	invoiceRepo := new(MockFeeInvoiceRepository)
	service := newTestWaiverService(waiverRepo, invoiceRepo)

	invoice := createTestInvoice(t, tenantID, "800.00")
	waiver, err := billing.NewFeeWaiver(
		tenantID, invoice.StudentID, billing.WaiverTypeScholarship,
		decimal.NewFromInt(50), decimal.Zero,
		testNow.AddDate(0, -1, 0), nil,
	)
	require.NoError(t, err)

	waiverRepo.On("FindByIDForTenant", ctx, tenantID, waiver.ID).Return(waiver, nil)
	invoiceRepo.On("FindByIDForTenant", ctx, tenantID, invoice.ID).Return(invoice, nil)
	invoiceRepo.On("SaveWithLock", ctx, invoice).Return(nil)

	result, err := service.ApplyWaiver(ctx, tenantID, invoice.ID, waiver.ID)

	require.NoError(t, err)
	assert.Equal(t, "400.00", result.Discount.StringFixed(2))
	assert.Equal(t, "400.00", result.Invoice.TotalAmount.StringFixed(2))

	invoiceRepo.AssertExpectations(t)
}

func TestWaiverService_ApplyWaiver_WrongStudent(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	waiverRepo := new(MockFeeWaiverRepository)
	invoiceRepo := new(MockFeeInvoiceRepository)
	service := newTestWaiverService(waiverRepo, invoiceRepo)

	invoice := createTestInvoice(t, tenantID, "800.00")
	waiver, err := billing.NewFeeWaiver(
		tenantID, uuid.New(), billing.WaiverTypeScholarship,
		decimal.NewFromInt(50), decimal.Zero,
		testNow.AddDate(0, -1, 0), nil,
	)
	require.NoError(t, err)

	waiverRepo.On("FindByIDForTenant", ctx, tenantID, waiver.ID).Return(waiver, nil)
	invoiceRepo.On("FindByIDForTenant", ctx, tenantID, invoice.ID).Return(invoice, nil)

	_, err = service.ApplyWaiver(ctx, tenantID, invoice.ID, waiver.ID)

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)

	invoiceRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestWaiverService_ApplyWaiver_Expired(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	waiverRepo := new(MockFeeWaiverRepository)
	invoiceRepo := new(MockFeeInvoiceRepository)
	service := newTestWaiverService(waiverRepo, invoiceRepo)

	invoice := createTestInvoice(t, tenantID, "800.00")
	expiry := testNow.Add(-time.Hour)
	waiver, err := billing.NewFeeWaiver(
		tenantID, invoice.StudentID, billing.WaiverTypeScholarship,
		decimal.NewFromInt(50), decimal.Zero,
		testNow.AddDate(0, -1, 0), &expiry,
	)
	require.NoError(t, err)

	waiverRepo.On("FindByIDForTenant", ctx, tenantID, waiver.ID).Return(waiver, nil)
	invoiceRepo.On("FindByIDForTenant", ctx, tenantID, invoice.ID).Return(invoice, nil)

	_, err = service.ApplyWaiver(ctx, tenantID, invoice.ID, waiver.ID)

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
}

func TestWaiverService_RevokeWaiver(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	waiverRepo := new(MockFeeWaiverRepository)
	invoiceRepo := new(MockFeeInvoiceRepository)
	service := newTestWaiverService(waiverRepo, invoiceRepo)

	waiver, err := billing.NewFeeWaiver(
		tenantID, uuid.New(), billing.WaiverTypeStaffChild,
		decimal.NewFromInt(100), decimal.Zero,
		testNow.AddDate(0, -1, 0), nil,
	)
	require.NoError(t, err)

	waiverRepo.On("FindByIDForTenant", ctx, tenantID, waiver.ID).Return(waiver, nil)
	waiverRepo.On("Save", ctx, waiver).Return(nil)

	revoked, err := service.RevokeWaiver(ctx, tenantID, waiver.ID)

	require.NoError(t, err)
	assert.Equal(t, billing.WaiverStatusInactive, revoked.Status)
	assert.False(t, revoked.IsValidAt(testNow))

	waiverRepo.AssertExpectations(t)
}
