package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/billing"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func createTestInvoice(t *testing.T, tenantID uuid.UUID, subtotal string) *billing.FeeInvoice {
	t.Helper()
	amount, err := valueobject.NewMoneyUSDFromString(subtotal)
	require.NoError(t, err)
	inv, err := billing.NewFeeInvoice(
		tenantID,
		"INV-2026-00001",
		uuid.New(),
		uuid.New(),
		testNow.AddDate(0, -1, 0),
		testNow.AddDate(0, 0, -5),
		amount,
		valueobject.ZeroUSD(),
	)
	require.NoError(t, err)
	return inv
}

func newTestPaymentService(invoiceRepo *MockFeeInvoiceRepository, paymentRepo *MockFeePaymentRepository) *PaymentService {
	return NewPaymentService(
		invoiceRepo, paymentRepo,
		nil, shared.IdempotencyConfig{},
		shared.FixedClock{Instant: testNow}, nil,
	)
}

func TestPaymentService_RecordPayment_FullPayment(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	invoiceRepo := new(MockFeeInvoiceRepository)
	paymentRepo := new(MockFeePaymentRepository)
	service := newTestPaymentService(invoiceRepo, paymentRepo)

	invoice := createTestInvoice(t, tenantID, "1000.00")

	invoiceRepo.On("FindByIDForTenant", ctx, tenantID, invoice.ID).Return(invoice, nil)
	paymentRepo.On("FindByInvoice", ctx, tenantID, invoice.ID).Return([]billing.FeePayment{}, nil)
	invoiceRepo.On("SaveWithPayment", ctx, invoice, mock.AnythingOfType("*billing.FeePayment")).Return(nil)

	result, err := service.RecordPayment(ctx, RecordPaymentRequest{
		TenantID:  tenantID,
		InvoiceID: invoice.ID,
		Amount:    valueobject.NewMoneyUSDFromFloat(1000.00),
		Method:    billing.PaymentMethodBankTransfer,
	})

	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Equal(t, billing.PaymentStatusCompleted, result.Payment.Status)
	assert.Equal(t, billing.InvoiceStatusPaid, result.Invoice.Status)
	assert.True(t, result.Invoice.BalanceAmount.IsZero())
	require.NotNil(t, result.Invoice.PaidAt)
	assert.Equal(t, testNow, *result.Invoice.PaidAt)

	invoiceRepo.AssertExpectations(t)
	paymentRepo.AssertExpectations(t)
}

func TestPaymentService_RecordPayment_PartialPayment(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	invoiceRepo := new(MockFeeInvoiceRepository)
	paymentRepo := new(MockFeePaymentRepository)
	service := newTestPaymentService(invoiceRepo, paymentRepo)

	invoice := createTestInvoice(t, tenantID, "1000.00")

	invoiceRepo.On("FindByIDForTenant", ctx, tenantID, invoice.ID).Return(invoice, nil)
	paymentRepo.On("FindByInvoice", ctx, tenantID, invoice.ID).Return([]billing.FeePayment{}, nil)
	invoiceRepo.On("SaveWithPayment", ctx, invoice, mock.AnythingOfType("*billing.FeePayment")).Return(nil)

	result, err := service.RecordPayment(ctx, RecordPaymentRequest{
		TenantID:  tenantID,
		InvoiceID: invoice.ID,
		Amount:    valueobject.NewMoneyUSDFromFloat(400.00),
		Method:    billing.PaymentMethodCash,
	})

	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPartiallyPaid, result.Invoice.Status)
	assert.Equal(t, "600.00", result.Invoice.BalanceAmount.StringFixed(2))
	assert.Nil(t, result.Invoice.PaidAt)

	invoiceRepo.AssertExpectations(t)
}

func TestPaymentService_RecordPayment_Overpayment(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	invoiceRepo := new(MockFeeInvoiceRepository)
	paymentRepo := new(MockFeePaymentRepository)
	service := newTestPaymentService(invoiceRepo, paymentRepo)

	invoice := createTestInvoice(t, tenantID, "1000.00")

	invoiceRepo.On("FindByIDForTenant", ctx, tenantID, invoice.ID).Return(invoice, nil)

	result, err := service.RecordPayment(ctx, RecordPaymentRequest{
		TenantID:  tenantID,
		InvoiceID: invoice.ID,
		Amount:    valueobject.NewMoneyUSDFromFloat(1000.01),
		Method:    billing.PaymentMethodCash,
	})

	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "OVERPAYMENT", domainErr.Code)

	invoiceRepo.AssertNotCalled(t, "SaveWithPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_RecordPayment_RetriesOnVersionConflict(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	invoiceRepo := new(MockFeeInvoiceRepository)
	paymentRepo := new(MockFeePaymentRepository)
	service := newTestPaymentService(invoiceRepo, paymentRepo)

	invoice := createTestInvoice(t, tenantID, "1000.00")

	invoiceRepo.On("FindByIDForTenant", ctx, tenantID, invoice.ID).Return(invoice, nil)
	paymentRepo.On("FindByInvoice", ctx, tenantID, invoice.ID).Return([]billing.FeePayment{}, nil)
	invoiceRepo.On("SaveWithPayment", ctx, invoice, mock.AnythingOfType("*billing.FeePayment")).
		Return(shared.ErrConcurrencyConflict).Once()
	invoiceRepo.On("SaveWithPayment", ctx, invoice, mock.AnythingOfType("*billing.FeePayment")).
		Return(nil).Once()

	result, err := service.RecordPayment(ctx, RecordPaymentRequest{
		TenantID:  tenantID,
		InvoiceID: invoice.ID,
		Amount:    valueobject.NewMoneyUSDFromFloat(250.00),
		Method:    billing.PaymentMethodMobileMoney,
	})

	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPartiallyPaid, result.Invoice.Status)
	invoiceRepo.AssertNumberOfCalls(t, "SaveWithPayment", 2)
}

func TestPaymentService_RecordPayment_GivesUpAfterRepeatedConflicts(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	invoiceRepo := new(MockFeeInvoiceRepository)
	paymentRepo := new(MockFeePaymentRepository)
	service := newTestPaymentService(invoiceRepo, paymentRepo)

	invoice := createTestInvoice(t, tenantID, "1000.00")

	invoiceRepo.On("FindByIDForTenant", ctx, tenantID, invoice.ID).Return(invoice, nil)
	paymentRepo.On("FindByInvoice", ctx, tenantID, invoice.ID).Return([]billing.FeePayment{}, nil)
	invoiceRepo.On("SaveWithPayment", ctx, invoice, mock.AnythingOfType("*billing.FeePayment")).
		Return(shared.ErrConcurrencyConflict)

	result, err := service.RecordPayment(ctx, RecordPaymentRequest{
		TenantID:  tenantID,
		InvoiceID: invoice.ID,
		Amount:    valueobject.NewMoneyUSDFromFloat(250.00),
		Method:    billing.PaymentMethodCash,
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	invoiceRepo.AssertNumberOfCalls(t, "SaveWithPayment", 3)
}

func TestPaymentService_RecordPayment_SecondPaymentFillsBalance(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	invoiceRepo := new(MockFeeInvoiceRepository)
	paymentRepo := new(MockFeePaymentRepository)
	service := newTestPaymentService(invoiceRepo, paymentRepo)

	invoice := createTestInvoice(t, tenantID, "1000.00")

	paidAt := testNow.Add(-48 * time.Hour)
	first, err := billing.NewFeePayment(
		tenantID, invoice.ID, valueobject.NewMoneyUSDFromFloat(400.00),
		billing.PaymentMethodCash, "", billing.PaymentStatusCompleted, paidAt,
	)
	require.NoError(t, err)
	invoice.Recompute([]billing.FeePayment{*first})
	require.Equal(t, billing.InvoiceStatusPartiallyPaid, invoice.Status)

	invoiceRepo.On("FindByIDForTenant", ctx, tenantID, invoice.ID).Return(invoice, nil)
	paymentRepo.On("FindByInvoice", ctx, tenantID, invoice.ID).Return([]billing.FeePayment{*first}, nil)
	invoiceRepo.On("SaveWithPayment", ctx, invoice, mock.AnythingOfType("*billing.FeePayment")).Return(nil)

	result, err := service.RecordPayment(ctx, RecordPaymentRequest{
		TenantID:  tenantID,
		InvoiceID: invoice.ID,
		Amount:    valueobject.NewMoneyUSDFromFloat(600.00),
		Method:    billing.PaymentMethodBankTransfer,
	})

	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, result.Invoice.Status)
	assert.Equal(t, "1000.00", result.Invoice.PaidAmount.StringFixed(2))
	require.NotNil(t, result.Invoice.PaidAt)
	assert.Equal(t, testNow, *result.Invoice.PaidAt)
}

func TestPaymentService_RecordPayment_DuplicateReference(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	invoiceRepo := new(MockFeeInvoiceRepository)
	paymentRepo := new(MockFeePaymentRepository)
	store := new(MockIdempotencyStore)
	service := NewPaymentService(
		invoiceRepo, paymentRepo,
		store, shared.DefaultIdempotencyConfig(),
		shared.FixedClock{Instant: testNow}, nil,
	)

	invoice := createTestInvoice(t, tenantID, "1000.00")
	existing, err := billing.NewFeePayment(
		tenantID, invoice.ID, valueobject.NewMoneyUSDFromFloat(400.00),
		billing.PaymentMethodMobileMoney, "MM-12345", billing.PaymentStatusCompleted, testNow,
	)
	require.NoError(t, err)

	store.On("MarkProcessed", ctx, tenantID.String()+":MM-12345", 24*time.Hour).Return(false, nil)
	paymentRepo.On("FindByReference", ctx, tenantID, "MM-12345").Return(existing, nil)
	invoiceRepo.On("FindByIDForTenant", ctx, tenantID, invoice.ID).Return(invoice, nil)

	result, err := service.RecordPayment(ctx, RecordPaymentRequest{
		TenantID:  tenantID,
		InvoiceID: invoice.ID,
		Amount:    valueobject.NewMoneyUSDFromFloat(400.00),
		Method:    billing.PaymentMethodMobileMoney,
		Reference: "MM-12345",
	})

	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	assert.Equal(t, existing.ID, result.Payment.ID)

	invoiceRepo.AssertNotCalled(t, "SaveWithPayment", mock.Anything, mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestPaymentService_RecordPayment_FreshReferenceProceeds(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	invoiceRepo := new(MockFeeInvoiceRepository)
	paymentRepo := new(MockFeePaymentRepository)
	store := new(MockIdempotencyStore)
	service := NewPaymentService(
		invoiceRepo, paymentRepo,
		store, shared.DefaultIdempotencyConfig(),
		shared.FixedClock{Instant: testNow}, nil,
	)

	invoice := createTestInvoice(t, tenantID, "500.00")

	store.On("MarkProcessed", ctx, tenantID.String()+":RCPT-9", 24*time.Hour).Return(true, nil)
	invoiceRepo.On("FindByIDForTenant", ctx, tenantID, invoice.ID).Return(invoice, nil)
	paymentRepo.On("FindByInvoice", ctx, tenantID, invoice.ID).Return([]billing.FeePayment{}, nil)
	invoiceRepo.On("SaveWithPayment", ctx, invoice, mock.AnythingOfType("*billing.FeePayment")).Return(nil)

	result, err := service.RecordPayment(ctx, RecordPaymentRequest{
		TenantID:  tenantID,
		InvoiceID: invoice.ID,
		Amount:    valueobject.NewMoneyUSDFromFloat(500.00),
		Method:    billing.PaymentMethodCheque,
		Reference: "RCPT-9",
	})

	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	paymentRepo.AssertNotCalled(t, "FindByReference", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_RecordPayment_PendingDoesNotTouchInvoice(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	invoiceRepo := new(MockFeeInvoiceRepository)
	paymentRepo := new(MockFeePaymentRepository)
	service := newTestPaymentService(invoiceRepo, paymentRepo)

	invoice := createTestInvoice(t, tenantID, "1000.00")

	invoiceRepo.On("FindByIDForTenant", ctx, tenantID, invoice.ID).Return(invoice, nil)
	paymentRepo.On("Save", ctx, mock.AnythingOfType("*billing.FeePayment")).Return(nil)

	result, err := service.RecordPayment(ctx, RecordPaymentRequest{
		TenantID:  tenantID,
		InvoiceID: invoice.ID,
		Amount:    valueobject.NewMoneyUSDFromFloat(300.00),
		Method:    billing.PaymentMethodCheque,
		Pending:   true,
	})

	require.NoError(t, err)
	assert.Equal(t, billing.PaymentStatusPending, result.Payment.Status)
	assert.Equal(t, billing.InvoiceStatusPending, result.Invoice.Status)
	assert.Equal(t, "1000.00", result.Invoice.BalanceAmount.StringFixed(2))

	invoiceRepo.AssertNotCalled(t, "SaveWithPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_CompletePayment(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	invoiceRepo := new(MockFeeInvoiceRepository)
	paymentRepo := new(MockFeePaymentRepository)
	service := newTestPaymentService(invoiceRepo, paymentRepo)

	invoice := createTestInvoice(t, tenantID, "1000.00")
	pending, err := billing.NewFeePayment(
		tenantID, invoice.ID, valueobject.NewMoneyUSDFromFloat(1000.00),
		billing.PaymentMethodCheque, "CHQ-77", billing.PaymentStatusPending, time.Time{},
	)
	require.NoError(t, err)

	paymentRepo.On("FindByIDForTenant", ctx, tenantID, pending.ID).Return(pending, nil)
	invoiceRepo.On("FindByIDForTenant", ctx, tenantID, invoice.ID).Return(invoice, nil)
	paymentRepo.On("FindByInvoice", ctx, tenantID, invoice.ID).Return([]billing.FeePayment{*pending}, nil)
	invoiceRepo.On("SaveWithPayment", ctx, invoice, pending).Return(nil)

	result, err := service.CompletePayment(ctx, tenantID, pending.ID)

	require.NoError(t, err)
	assert.Equal(t, billing.PaymentStatusCompleted, result.Payment.Status)
	assert.Equal(t, billing.InvoiceStatusPaid, result.Invoice.Status)

	invoiceRepo.AssertExpectations(t)
	paymentRepo.AssertExpectations(t)
}

func TestPaymentService_FailPayment(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	invoiceRepo := new(MockFeeInvoiceRepository)
	paymentRepo := new(MockFeePaymentRepository)
	service := newTestPaymentService(invoiceRepo, paymentRepo)

	pending, err := billing.NewFeePayment(
		tenantID, uuid.New(), valueobject.NewMoneyUSDFromFloat(200.00),
		billing.PaymentMethodCard, "", billing.PaymentStatusPending, time.Time{},
	)
	require.NoError(t, err)

	paymentRepo.On("FindByIDForTenant", ctx, tenantID, pending.ID).Return(pending, nil)
	paymentRepo.On("Save", ctx, pending).Return(nil)

	payment, err := service.FailPayment(ctx, tenantID, pending.ID, "card declined")

	require.NoError(t, err)
	assert.Equal(t, billing.PaymentStatusFailed, payment.Status)
	assert.Contains(t, payment.Notes, "card declined")

	invoiceRepo.AssertNotCalled(t, "SaveWithPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_FailPayment_CompletedIsTerminal(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	invoiceRepo := new(MockFeeInvoiceRepository)
	paymentRepo := new(MockFeePaymentRepository)
	service := newTestPaymentService(invoiceRepo, paymentRepo)

	completed, err := billing.NewFeePayment(
		tenantID, uuid.New(), valueobject.NewMoneyUSDFromFloat(200.00),
		billing.PaymentMethodCash, "", billing.PaymentStatusCompleted, testNow,
	)
	require.NoError(t, err)

	paymentRepo.On("FindByIDForTenant", ctx, tenantID, completed.ID).Return(completed, nil)

	_, err = service.FailPayment(ctx, tenantID, completed.ID, "oops")

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE_TRANSITION", domainErr.Code)

	paymentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
