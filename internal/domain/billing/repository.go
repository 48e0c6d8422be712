package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/shared"
)

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	StudentID      *uuid.UUID     // Filter by student
	FeeStructureID *uuid.UUID     // Filter by fee structure
	Status         *InvoiceStatus // Filter by status
	DueFrom        *time.Time     // Filter by due date range start
	DueTo          *time.Time     // Filter by due date range end
	OverdueAsOf    *time.Time     // Only invoices overdue at this instant
}

// FeeStructureFilter defines filtering options for fee structure queries
type FeeStructureFilter struct {
	shared.Filter
	FeeTypeID    *uuid.UUID
	GradeLevel   *string
	AcademicYear *string
	ActiveOnly   bool
}

// FeeInvoiceRepository defines the persistence port for fee invoices
type FeeInvoiceRepository interface {
	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*FeeInvoice, error)

	// FindByIDForTenant finds an invoice by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*FeeInvoice, error)

	// FindByInvoiceNumber finds by invoice number for a tenant
	FindByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*FeeInvoice, error)

	// FindAllForTenant finds all invoices for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]FeeInvoice, error)

	// FindByStudent finds invoices for a student
	FindByStudent(ctx context.Context, tenantID, studentID uuid.UUID, filter InvoiceFilter) ([]FeeInvoice, error)

	// FindOverdue finds invoices that are past due and not fully paid as of
	// the given instant
	FindOverdue(ctx context.Context, tenantID uuid.UUID, asOf time.Time, filter InvoiceFilter) ([]FeeInvoice, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *FeeInvoice) error

	// SaveWithLock saves with optimistic locking (version check); returns
	// CONCURRENCY_CONFLICT when the stored version has moved on
	SaveWithLock(ctx context.Context, invoice *FeeInvoice) error

	// SaveWithPayment persists the invoice (version-checked) and the payment
	// in one transaction, so the overpayment guard and the ledger append are
	// serialized against concurrent payments
	SaveWithPayment(ctx context.Context, invoice *FeeInvoice, payment *FeePayment) error

	// CountForTenant counts invoices for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) (int64, error)

	// NextSequenceForYear returns the next invoice sequence number for a
	// tenant and calendar year (used for invoice number generation)
	NextSequenceForYear(ctx context.Context, tenantID uuid.UUID, year int) (int64, error)
}

// FeePaymentRepository defines the persistence port for fee payments
type FeePaymentRepository interface {
	// FindByID finds a payment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*FeePayment, error)

	// FindByIDForTenant finds a payment by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*FeePayment, error)

	// FindByInvoice lists all payments recorded against an invoice
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]FeePayment, error)

	// FindByReference finds a payment by its external reference for a tenant
	FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*FeePayment, error)

	// Save creates or updates a payment
	Save(ctx context.Context, payment *FeePayment) error
}

// FeeWaiverRepository defines the persistence port for fee waivers
type FeeWaiverRepository interface {
	// FindByID finds a waiver by ID
	FindByID(ctx context.Context, id uuid.UUID) (*FeeWaiver, error)

	// FindByIDForTenant finds a waiver by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*FeeWaiver, error)

	// FindByStudent lists waivers granted to a student
	FindByStudent(ctx context.Context, tenantID, studentID uuid.UUID) ([]FeeWaiver, error)

	// FindActiveByStudent lists waivers for a student that are valid at the
	// given instant
	FindActiveByStudent(ctx context.Context, tenantID, studentID uuid.UUID, asOf time.Time) ([]FeeWaiver, error)

	// Save creates or updates a waiver
	Save(ctx context.Context, waiver *FeeWaiver) error
}

// FeeTypeRepository defines the persistence port for fee types
type FeeTypeRepository interface {
	// FindByID finds a fee type by ID
	FindByID(ctx context.Context, id uuid.UUID) (*FeeType, error)

	// FindByIDForTenant finds a fee type by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*FeeType, error)

	// FindByCode finds a fee type by its unique code for a tenant
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*FeeType, error)

	// FindAllForTenant lists fee types for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]FeeType, error)

	// Save creates or updates a fee type
	Save(ctx context.Context, feeType *FeeType) error
}

// FeeStructureRepository defines the persistence port for fee structures
type FeeStructureRepository interface {
	// FindByID finds a fee structure by ID
	FindByID(ctx context.Context, id uuid.UUID) (*FeeStructure, error)

	// FindByIDForTenant finds a fee structure by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*FeeStructure, error)

	// FindAllForTenant lists fee structures for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter FeeStructureFilter) ([]FeeStructure, error)

	// Save creates or updates a fee structure
	Save(ctx context.Context, structure *FeeStructure) error
}
