package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/billing"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
)

// InvoiceService orchestrates invoice generation, queries and late-fee
// assessment over the billing domain.
type InvoiceService struct {
	invoiceRepo   billing.FeeInvoiceRepository
	structureRepo billing.FeeStructureRepository
	waiverRepo    billing.FeeWaiverRepository
	clock         shared.Clock
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo billing.FeeInvoiceRepository,
	structureRepo billing.FeeStructureRepository,
	waiverRepo billing.FeeWaiverRepository,
	clock shared.Clock,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:   invoiceRepo,
		structureRepo: structureRepo,
		waiverRepo:    waiverRepo,
		clock:         clock,
	}
}

// GenerateInvoiceRequest carries the inputs for invoice generation
type GenerateInvoiceRequest struct {
	TenantID       uuid.UUID
	StudentID      uuid.UUID
	FeeStructureID uuid.UUID
	IssueDate      *time.Time        // defaults to now
	Tax            valueobject.Money // zero when unset by the caller
	ApplyWaivers   bool              // apply the student's valid waivers at generation
	Remark         string
}

// GenerateInvoice creates an invoice for a student from a fee structure.
// The subtotal comes from the structure's amount; the student's valid
// waivers are applied as discounts when requested.
func (s *InvoiceService) GenerateInvoice(ctx context.Context, req GenerateInvoiceRequest) (*billing.FeeInvoice, error) {
	structure, err := s.structureRepo.FindByIDForTenant(ctx, req.TenantID, req.FeeStructureID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fee structure: %w", err)
	}
	if !structure.IsActive {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Fee structure is no longer active")
	}

	now := s.clock.Now()
	issueDate := now
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}
	dueDate := structure.DueDate
	if dueDate.Before(issueDate) {
		// Structures carry the academic-year due date; an invoice issued
		// after it falls due immediately.
		dueDate = issueDate
	}

	tax := req.Tax
	if tax.Currency() == "" {
		tax = valueobject.ZeroUSD()
	}

	number, err := s.nextInvoiceNumber(ctx, req.TenantID, issueDate)
	if err != nil {
		return nil, err
	}

	invoice, err := billing.NewFeeInvoice(
		req.TenantID,
		number,
		req.StudentID,
		structure.ID,
		issueDate,
		dueDate,
		structure.GetAmountMoney(),
		tax,
	)
	if err != nil {
		return nil, err
	}
	if req.Remark != "" {
		invoice.SetRemark(req.Remark)
	}

	if req.ApplyWaivers {
		waivers, err := s.waiverRepo.FindActiveByStudent(ctx, req.TenantID, req.StudentID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to load waivers: %w", err)
		}
		for i := range waivers {
			if invoice.IsPaid() {
				break
			}
			if _, err := invoice.ApplyWaiver(&waivers[i], now); err != nil {
				// A waiver that grants nothing here is not an error for the
				// invoice as a whole.
				continue
			}
		}
	}

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}

	return invoice, nil
}

// nextInvoiceNumber builds the INV-<year>-<seq> invoice number from the
// per-tenant sequence.
func (s *InvoiceService) nextInvoiceNumber(ctx context.Context, tenantID uuid.UUID, issueDate time.Time) (string, error) {
	seq, err := s.invoiceRepo.NextSequenceForYear(ctx, tenantID, issueDate.Year())
	if err != nil {
		return "", fmt.Errorf("failed to allocate invoice number: %w", err)
	}
	return fmt.Sprintf("INV-%d-%05d", issueDate.Year(), seq), nil
}

// GetInvoice returns one invoice by ID
func (s *InvoiceService) GetInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*billing.FeeInvoice, error) {
	return s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
}

// GetInvoiceByNumber returns one invoice by its invoice number
func (s *InvoiceService) GetInvoiceByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*billing.FeeInvoice, error) {
	return s.invoiceRepo.FindByInvoiceNumber(ctx, tenantID, number)
}

// ListInvoices lists invoices for a tenant with filtering and pagination
func (s *InvoiceService) ListInvoices(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) (shared.Paginated[billing.FeeInvoice], error) {
	items, err := s.invoiceRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[billing.FeeInvoice]{}, err
	}
	total, err := s.invoiceRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[billing.FeeInvoice]{}, err
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	return shared.NewPaginated(items, total, page, filter.Limit()), nil
}

// ListOverdueInvoices lists invoices past due and not fully paid right now
func (s *InvoiceService) ListOverdueInvoices(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) ([]billing.FeeInvoice, error) {
	return s.invoiceRepo.FindOverdue(ctx, tenantID, s.clock.Now(), filter)
}

// AssessLateFee computes and applies the late fee for an overdue invoice
// from its fee structure's per-day percentage. Re-assessment replaces the
// previous figure, so the operation can be repeated safely.
func (s *InvoiceService) AssessLateFee(ctx context.Context, tenantID, invoiceID uuid.UUID) (*billing.FeeInvoice, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !invoice.IsOverdue(now) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Invoice is not overdue")
	}

	structure, err := s.structureRepo.FindByIDForTenant(ctx, tenantID, invoice.FeeStructureID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fee structure: %w", err)
	}

	fee := structure.CalculateLateFee(invoice.DaysOverdue(now))
	if err := invoice.AssessLateFee(fee); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	return invoice, nil
}
