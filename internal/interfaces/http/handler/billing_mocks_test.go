package handler

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	billingapp "github.com/schoolerp/backend/internal/application/billing"
	"github.com/schoolerp/backend/internal/domain/billing"
	"github.com/schoolerp/backend/internal/domain/shared"
)

// In-memory repository implementations for billing handler tests

type memFeeTypeRepository struct {
	feeTypes  map[uuid.UUID]*billing.FeeType
	returnErr error
}

func newMemFeeTypeRepository() *memFeeTypeRepository {
	return &memFeeTypeRepository{feeTypes: make(map[uuid.UUID]*billing.FeeType)}
}

func (m *memFeeTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.FeeType, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if ft, ok := m.feeTypes[id]; ok {
		return ft, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memFeeTypeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.FeeType, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if ft, ok := m.feeTypes[id]; ok && ft.TenantID == tenantID {
		return ft, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memFeeTypeRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*billing.FeeType, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	for _, ft := range m.feeTypes {
		if ft.TenantID == tenantID && ft.Code == code {
			return ft, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memFeeTypeRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]billing.FeeType, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []billing.FeeType
	for _, ft := range m.feeTypes {
		if ft.TenantID != tenantID {
			continue
		}
		if activeOnly && !ft.IsActive {
			continue
		}
		result = append(result, *ft)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *memFeeTypeRepository) Save(ctx context.Context, feeType *billing.FeeType) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.feeTypes[feeType.ID] = feeType
	return nil
}

type memFeeStructureRepository struct {
	structures map[uuid.UUID]*billing.FeeStructure
	returnErr  error
}

func newMemFeeStructureRepository() *memFeeStructureRepository {
	return &memFeeStructureRepository{structures: make(map[uuid.UUID]*billing.FeeStructure)}
}

func (m *memFeeStructureRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.FeeStructure, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if fs, ok := m.structures[id]; ok {
		return fs, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memFeeStructureRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.FeeStructure, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if fs, ok := m.structures[id]; ok && fs.TenantID == tenantID {
		return fs, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memFeeStructureRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.FeeStructureFilter) ([]billing.FeeStructure, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []billing.FeeStructure
	for _, fs := range m.structures {
		if fs.TenantID != tenantID {
			continue
		}
		if filter.ActiveOnly && !fs.IsActive {
			continue
		}
		if filter.FeeTypeID != nil && fs.FeeTypeID != *filter.FeeTypeID {
			continue
		}
		if filter.GradeLevel != nil && fs.GradeLevel != *filter.GradeLevel {
			continue
		}
		if filter.AcademicYear != nil && fs.AcademicYear != *filter.AcademicYear {
			continue
		}
		result = append(result, *fs)
	}
	return result, nil
}

func (m *memFeeStructureRepository) Save(ctx context.Context, structure *billing.FeeStructure) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.structures[structure.ID] = structure
	return nil
}

type memFeeInvoiceRepository struct {
	invoices  map[uuid.UUID]*billing.FeeInvoice
	payments  *memFeePaymentRepository
	returnErr error
	lockErr   error
}

func newMemFeeInvoiceRepository() *memFeeInvoiceRepository {
	return &memFeeInvoiceRepository{invoices: make(map[uuid.UUID]*billing.FeeInvoice)}
}

func (m *memFeeInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.FeeInvoice, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if inv, ok := m.invoices[id]; ok {
		return inv, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memFeeInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.FeeInvoice, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if inv, ok := m.invoices[id]; ok && inv.TenantID == tenantID {
		return inv, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memFeeInvoiceRepository) FindByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*billing.FeeInvoice, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	for _, inv := range m.invoices {
		if inv.TenantID == tenantID && inv.InvoiceNumber == invoiceNumber {
			return inv, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memFeeInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) ([]billing.FeeInvoice, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []billing.FeeInvoice
	for _, inv := range m.invoices {
		if inv.TenantID != tenantID {
			continue
		}
		if filter.StudentID != nil && inv.StudentID != *filter.StudentID {
			continue
		}
		if filter.Status != nil && inv.Status != *filter.Status {
			continue
		}
		result = append(result, *inv)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].InvoiceNumber < result[j].InvoiceNumber })
	return result, nil
}

func (m *memFeeInvoiceRepository) FindByStudent(ctx context.Context, tenantID, studentID uuid.UUID, filter billing.InvoiceFilter) ([]billing.FeeInvoice, error) {
	filter.StudentID = &studentID
	return m.FindAllForTenant(ctx, tenantID, filter)
}

func (m *memFeeInvoiceRepository) FindOverdue(ctx context.Context, tenantID uuid.UUID, asOf time.Time, filter billing.InvoiceFilter) ([]billing.FeeInvoice, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []billing.FeeInvoice
	for _, inv := range m.invoices {
		if inv.TenantID == tenantID && inv.IsOverdue(asOf) {
			result = append(result, *inv)
		}
	}
	return result, nil
}

func (m *memFeeInvoiceRepository) Save(ctx context.Context, invoice *billing.FeeInvoice) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.invoices[invoice.ID] = invoice
	return nil
}

func (m *memFeeInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.FeeInvoice) error {
	if m.lockErr != nil {
		return m.lockErr
	}
	return m.Save(ctx, invoice)
}

func (m *memFeeInvoiceRepository) SaveWithPayment(ctx context.Context, invoice *billing.FeeInvoice, payment *billing.FeePayment) error {
	if m.lockErr != nil {
		return m.lockErr
	}
	if err := m.Save(ctx, invoice); err != nil {
		return err
	}
	// Persist the payment too, mirroring the transactional save in the
	// real repository.
	if m.payments != nil {
		return m.payments.Save(ctx, payment)
	}
	return nil
}

func (m *memFeeInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) (int64, error) {
	items, err := m.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(items)), nil
}

func (m *memFeeInvoiceRepository) NextSequenceForYear(ctx context.Context, tenantID uuid.UUID, year int) (int64, error) {
	if m.returnErr != nil {
		return 0, m.returnErr
	}
	var count int64
	for _, inv := range m.invoices {
		if inv.TenantID == tenantID && inv.IssueDate.Year() == year {
			count++
		}
	}
	return count + 1, nil
}

type memFeePaymentRepository struct {
	payments  map[uuid.UUID]*billing.FeePayment
	returnErr error
}

func newMemFeePaymentRepository() *memFeePaymentRepository {
	return &memFeePaymentRepository{payments: make(map[uuid.UUID]*billing.FeePayment)}
}

func (m *memFeePaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.FeePayment, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if p, ok := m.payments[id]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memFeePaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.FeePayment, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if p, ok := m.payments[id]; ok && p.TenantID == tenantID {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memFeePaymentRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]billing.FeePayment, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []billing.FeePayment
	for _, p := range m.payments {
		if p.TenantID == tenantID && p.InvoiceID == invoiceID {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *memFeePaymentRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*billing.FeePayment, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	for _, p := range m.payments {
		if p.TenantID == tenantID && p.Reference == reference {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memFeePaymentRepository) Save(ctx context.Context, payment *billing.FeePayment) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.payments[payment.ID] = payment
	return nil
}

type memFeeWaiverRepository struct {
	waivers   map[uuid.UUID]*billing.FeeWaiver
	returnErr error
}

func newMemFeeWaiverRepository() *memFeeWaiverRepository {
	return &memFeeWaiverRepository{waivers: make(map[uuid.UUID]*billing.FeeWaiver)}
}

func (m *memFeeWaiverRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.FeeWaiver, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if w, ok := m.waivers[id]; ok {
		return w, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memFeeWaiverRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.FeeWaiver, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if w, ok := m.waivers[id]; ok && w.TenantID == tenantID {
		return w, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memFeeWaiverRepository) FindByStudent(ctx context.Context, tenantID, studentID uuid.UUID) ([]billing.FeeWaiver, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []billing.FeeWaiver
	for _, w := range m.waivers {
		if w.TenantID == tenantID && w.StudentID == studentID {
			result = append(result, *w)
		}
	}
	return result, nil
}

func (m *memFeeWaiverRepository) FindActiveByStudent(ctx context.Context, tenantID, studentID uuid.UUID, asOf time.Time) ([]billing.FeeWaiver, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []billing.FeeWaiver
	for _, w := range m.waivers {
		if w.TenantID == tenantID && w.StudentID == studentID && w.IsValidAt(asOf) {
			result = append(result, *w)
		}
	}
	return result, nil
}

func (m *memFeeWaiverRepository) Save(ctx context.Context, waiver *billing.FeeWaiver) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.waivers[waiver.ID] = waiver
	return nil
}

// Test setup helpers

type billingTestEnv struct {
	feeTypeRepo   *memFeeTypeRepository
	structureRepo *memFeeStructureRepository
	invoiceRepo   *memFeeInvoiceRepository
	paymentRepo   *memFeePaymentRepository
	waiverRepo    *memFeeWaiverRepository
	clock         shared.FixedClock
}

func newBillingTestEnv() *billingTestEnv {
	paymentRepo := newMemFeePaymentRepository()
	invoiceRepo := newMemFeeInvoiceRepository()
	invoiceRepo.payments = paymentRepo

	return &billingTestEnv{
		feeTypeRepo:   newMemFeeTypeRepository(),
		structureRepo: newMemFeeStructureRepository(),
		invoiceRepo:   invoiceRepo,
		paymentRepo:   paymentRepo,
		waiverRepo:    newMemFeeWaiverRepository(),
		clock:         shared.FixedClock{Instant: time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)},
	}
}

func (e *billingTestEnv) catalogHandler() *FeeCatalogHandler {
	return NewFeeCatalogHandler(billingapp.NewFeeCatalogService(e.feeTypeRepo, e.structureRepo))
}

func (e *billingTestEnv) invoiceHandler() *InvoiceHandler {
	return NewInvoiceHandler(billingapp.NewInvoiceService(e.invoiceRepo, e.structureRepo, e.waiverRepo, e.clock))
}

func (e *billingTestEnv) paymentHandler() *PaymentHandler {
	service := billingapp.NewPaymentService(
		e.invoiceRepo, e.paymentRepo, nil, shared.IdempotencyConfig{}, e.clock, nil,
	)
	return NewPaymentHandler(service)
}

func (e *billingTestEnv) waiverHandler() *WaiverHandler {
	return NewWaiverHandler(billingapp.NewWaiverService(e.waiverRepo, e.invoiceRepo, e.clock))
}
