package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/billing"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// WaiverService grants, applies and revokes fee waivers.
type WaiverService struct {
	waiverRepo  billing.FeeWaiverRepository
	invoiceRepo billing.FeeInvoiceRepository
	clock       shared.Clock
}

// NewWaiverService creates a new WaiverService
func NewWaiverService(
	waiverRepo billing.FeeWaiverRepository,
	invoiceRepo billing.FeeInvoiceRepository,
	clock shared.Clock,
) *WaiverService {
	return &WaiverService{
		waiverRepo:  waiverRepo,
		invoiceRepo: invoiceRepo,
		clock:       clock,
	}
}

// GrantWaiverRequest carries the inputs for granting a waiver
type GrantWaiverRequest struct {
	TenantID           uuid.UUID
	StudentID          uuid.UUID
	WaiverType         billing.WaiverType
	DiscountPercentage decimal.Decimal
	DiscountAmount     decimal.Decimal
	Reason             string
	ValidFrom          *time.Time // defaults to now
	ValidUntil         *time.Time // nil = open-ended
}

// GrantWaiver creates a new waiver for a student
func (s *WaiverService) GrantWaiver(ctx context.Context, req GrantWaiverRequest) (*billing.FeeWaiver, error) {
	validFrom := s.clock.Now()
	if req.ValidFrom != nil {
		validFrom = *req.ValidFrom
	}

	waiver, err := billing.NewFeeWaiver(
		req.TenantID, req.StudentID, req.WaiverType,
		req.DiscountPercentage, req.DiscountAmount,
		validFrom, req.ValidUntil,
	)
	if err != nil {
		return nil, err
	}
	waiver.Reason = req.Reason

	if err := s.waiverRepo.Save(ctx, waiver); err != nil {
		return nil, fmt.Errorf("failed to save waiver: %w", err)
	}

	return waiver, nil
}

// ApplyWaiverResult reports the discount granted to an invoice
type ApplyWaiverResult struct {
	Invoice  *billing.FeeInvoice `json:"invoice"`
	Discount valueobject.Money   `json:"discount"`
}

// ApplyWaiver applies an existing waiver to an invoice. The waiver must be
// valid right now and must belong to the invoice's student; the discount is
// clamped to the outstanding balance.
func (s *WaiverService) ApplyWaiver(ctx context.Context, tenantID, invoiceID, waiverID uuid.UUID) (*ApplyWaiverResult, error) {
	waiver, err := s.waiverRepo.FindByIDForTenant(ctx, tenantID, waiverID)
	if err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.StudentID != waiver.StudentID {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			"Waiver was granted to a different student")
	}

	discount, err := invoice.ApplyWaiver(waiver, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	return &ApplyWaiverResult{Invoice: invoice, Discount: discount}, nil
}

// RevokeWaiver deactivates a waiver. Discounts already applied to invoices
// stay in place; the waiver just stops granting new ones.
func (s *WaiverService) RevokeWaiver(ctx context.Context, tenantID, waiverID uuid.UUID) (*billing.FeeWaiver, error) {
	waiver, err := s.waiverRepo.FindByIDForTenant(ctx, tenantID, waiverID)
	if err != nil {
		return nil, err
	}

	if err := waiver.Revoke(); err != nil {
		return nil, err
	}

	if err := s.waiverRepo.Save(ctx, waiver); err != nil {
		return nil, fmt.Errorf("failed to save waiver: %w", err)
	}

	return waiver, nil
}

// GetWaiver returns one waiver by ID
func (s *WaiverService) GetWaiver(ctx context.Context, tenantID, waiverID uuid.UUID) (*billing.FeeWaiver, error) {
	return s.waiverRepo.FindByIDForTenant(ctx, tenantID, waiverID)
}

// ListWaiversForStudent lists the waivers granted to a student
func (s *WaiverService) ListWaiversForStudent(ctx context.Context, tenantID, studentID uuid.UUID, validOnly bool) ([]billing.FeeWaiver, error) {
	if validOnly {
		return s.waiverRepo.FindActiveByStudent(ctx, tenantID, studentID, s.clock.Now())
	}
	return s.waiverRepo.FindByStudent(ctx, tenantID, studentID)
}
