package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/billing"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockFeeInvoiceRepository is a mock implementation of FeeInvoiceRepository
type MockFeeInvoiceRepository struct {
	mock.Mock
}

func (m *MockFeeInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.FeeInvoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.FeeInvoice), args.Error(1)
}

func (m *MockFeeInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.FeeInvoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.FeeInvoice), args.Error(1)
}

func (m *MockFeeInvoiceRepository) FindByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*billing.FeeInvoice, error) {
	args := m.Called(ctx, tenantID, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.FeeInvoice), args.Error(1)
}

func (m *MockFeeInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) ([]billing.FeeInvoice, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]billing.FeeInvoice), args.Error(1)
}

func (m *MockFeeInvoiceRepository) FindByStudent(ctx context.Context, tenantID, studentID uuid.UUID, filter billing.InvoiceFilter) ([]billing.FeeInvoice, error) {
	args := m.Called(ctx, tenantID, studentID, filter)
	return args.Get(0).([]billing.FeeInvoice), args.Error(1)
}

func (m *MockFeeInvoiceRepository) FindOverdue(ctx context.Context, tenantID uuid.UUID, asOf time.Time, filter billing.InvoiceFilter) ([]billing.FeeInvoice, error) {
	args := m.Called(ctx, tenantID, asOf, filter)
	return args.Get(0).([]billing.FeeInvoice), args.Error(1)
}

func (m *MockFeeInvoiceRepository) Save(ctx context.Context, invoice *billing.FeeInvoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockFeeInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.FeeInvoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockFeeInvoiceRepository) SaveWithPayment(ctx context.Context, invoice *billing.FeeInvoice, payment *billing.FeePayment) error {
	args := m.Called(ctx, invoice, payment)
	return args.Error(0)
}

func (m *MockFeeInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFeeInvoiceRepository) NextSequenceForYear(ctx context.Context, tenantID uuid.UUID, year int) (int64, error) {
	args := m.Called(ctx, tenantID, year)
	return args.Get(0).(int64), args.Error(1)
}

// MockFeePaymentRepository is a mock implementation of FeePaymentRepository
type MockFeePaymentRepository struct {
	mock.Mock
}

func (m *MockFeePaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.FeePayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.FeePayment), args.Error(1)
}

func (m *MockFeePaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.FeePayment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.FeePayment), args.Error(1)
}

func (m *MockFeePaymentRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]billing.FeePayment, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	return args.Get(0).([]billing.FeePayment), args.Error(1)
}

func (m *MockFeePaymentRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*billing.FeePayment, error) {
	args := m.Called(ctx, tenantID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.FeePayment), args.Error(1)
}

func (m *MockFeePaymentRepository) Save(ctx context.Context, payment *billing.FeePayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

// MockFeeWaiverRepository is a mock implementation of FeeWaiverRepository
type MockFeeWaiverRepository struct {
	mock.Mock
}

func (m *MockFeeWaiverRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.FeeWaiver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.FeeWaiver), args.Error(1)
}

func (m *MockFeeWaiverRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.FeeWaiver, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.FeeWaiver), args.Error(1)
}

func (m *MockFeeWaiverRepository) FindByStudent(ctx context.Context, tenantID, studentID uuid.UUID) ([]billing.FeeWaiver, error) {
	args := m.Called(ctx, tenantID, studentID)
	return args.Get(0).([]billing.FeeWaiver), args.Error(1)
}

func (m *MockFeeWaiverRepository) FindActiveByStudent(ctx context.Context, tenantID, studentID uuid.UUID, asOf time.Time) ([]billing.FeeWaiver, error) {
	args := m.Called(ctx, tenantID, studentID, asOf)
	return args.Get(0).([]billing.FeeWaiver), args.Error(1)
}

func (m *MockFeeWaiverRepository) Save(ctx context.Context, waiver *billing.FeeWaiver) error {
	args := m.Called(ctx, waiver)
	return args.Error(0)
}

// MockFeeTypeRepository is a mock implementation of FeeTypeRepository
type MockFeeTypeRepository struct {
	mock.Mock
}

func (m *MockFeeTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.FeeType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.FeeType), args.Error(1)
}

func (m *MockFeeTypeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.FeeType, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.FeeType), args.Error(1)
}

func (m *MockFeeTypeRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*billing.FeeType, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.FeeType), args.Error(1)
}

func (m *MockFeeTypeRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]billing.FeeType, error) {
	args := m.Called(ctx, tenantID, activeOnly)
	return args.Get(0).([]billing.FeeType), args.Error(1)
}

func (m *MockFeeTypeRepository) Save(ctx context.Context, feeType *billing.FeeType) error {
	args := m.Called(ctx, feeType)
	return args.Error(0)
}

// MockFeeStructureRepository is a mock implementation of FeeStructureRepository
type MockFeeStructureRepository struct {
	mock.Mock
}

func (m *MockFeeStructureRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.FeeStructure, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.FeeStructure), args.Error(1)
}

func (m *MockFeeStructureRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.FeeStructure, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.FeeStructure), args.Error(1)
}

func (m *MockFeeStructureRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.FeeStructureFilter) ([]billing.FeeStructure, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]billing.FeeStructure), args.Error(1)
}

func (m *MockFeeStructureRepository) Save(ctx context.Context, structure *billing.FeeStructure) error {
	args := m.Called(ctx, structure)
	return args.Error(0)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Get(0).(bool), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(bool), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
