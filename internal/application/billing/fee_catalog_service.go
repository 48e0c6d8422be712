package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/billing"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// FeeCatalogService manages the fee catalog: the fee types a school charges
// and the per-grade, per-year structures that price them.
type FeeCatalogService struct {
	feeTypeRepo   billing.FeeTypeRepository
	structureRepo billing.FeeStructureRepository
}

// NewFeeCatalogService creates a new FeeCatalogService
func NewFeeCatalogService(
	feeTypeRepo billing.FeeTypeRepository,
	structureRepo billing.FeeStructureRepository,
) *FeeCatalogService {
	return &FeeCatalogService{
		feeTypeRepo:   feeTypeRepo,
		structureRepo: structureRepo,
	}
}

// CreateFeeTypeRequest carries the inputs for creating a fee type
type CreateFeeTypeRequest struct {
	TenantID    uuid.UUID
	Name        string
	Code        string
	Category    billing.FeeCategory
	Description string
	IsMandatory bool
}

// CreateFeeType creates a new fee type. The code must be unique per tenant.
func (s *FeeCatalogService) CreateFeeType(ctx context.Context, req CreateFeeTypeRequest) (*billing.FeeType, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	existing, err := s.feeTypeRepo.FindByCode(ctx, req.TenantID, code)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to check fee type code: %w", err)
	}
	if existing != nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Fee type code %s is already in use", code))
	}

	feeType, err := billing.NewFeeType(req.TenantID, req.Name, code, req.Category, req.IsMandatory)
	if err != nil {
		return nil, err
	}
	feeType.Description = req.Description

	if err := s.feeTypeRepo.Save(ctx, feeType); err != nil {
		return nil, fmt.Errorf("failed to save fee type: %w", err)
	}

	return feeType, nil
}

// GetFeeType returns one fee type by ID
func (s *FeeCatalogService) GetFeeType(ctx context.Context, tenantID, feeTypeID uuid.UUID) (*billing.FeeType, error) {
	return s.feeTypeRepo.FindByIDForTenant(ctx, tenantID, feeTypeID)
}

// ListFeeTypes lists the fee types of a tenant
func (s *FeeCatalogService) ListFeeTypes(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]billing.FeeType, error) {
	return s.feeTypeRepo.FindAllForTenant(ctx, tenantID, activeOnly)
}

// SetFeeTypeActive activates or deactivates a fee type
func (s *FeeCatalogService) SetFeeTypeActive(ctx context.Context, tenantID, feeTypeID uuid.UUID, active bool) (*billing.FeeType, error) {
	feeType, err := s.feeTypeRepo.FindByIDForTenant(ctx, tenantID, feeTypeID)
	if err != nil {
		return nil, err
	}

	if active {
		feeType.Activate()
	} else {
		feeType.Deactivate()
	}

	if err := s.feeTypeRepo.Save(ctx, feeType); err != nil {
		return nil, fmt.Errorf("failed to save fee type: %w", err)
	}

	return feeType, nil
}

// CreateFeeStructureRequest carries the inputs for creating a fee structure
type CreateFeeStructureRequest struct {
	TenantID          uuid.UUID
	FeeTypeID         uuid.UUID
	GradeLevel        string
	AcademicYear      string
	Amount            valueobject.Money
	PaymentSchedule   billing.PaymentSchedule
	DueDate           time.Time
	LateFeePercentage decimal.Decimal
}

// CreateFeeStructure prices a fee type for a grade level and academic year
func (s *FeeCatalogService) CreateFeeStructure(ctx context.Context, req CreateFeeStructureRequest) (*billing.FeeStructure, error) {
	feeType, err := s.feeTypeRepo.FindByIDForTenant(ctx, req.TenantID, req.FeeTypeID)
	if err != nil {
		return nil, err
	}
	if !feeType.IsActive {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			"Cannot price an inactive fee type")
	}

	structure, err := billing.NewFeeStructure(
		req.TenantID, req.FeeTypeID, req.GradeLevel, req.AcademicYear,
		req.Amount, req.PaymentSchedule, req.DueDate, req.LateFeePercentage,
	)
	if err != nil {
		return nil, err
	}

	if err := s.structureRepo.Save(ctx, structure); err != nil {
		return nil, fmt.Errorf("failed to save fee structure: %w", err)
	}

	return structure, nil
}

// GetFeeStructure returns one fee structure by ID
func (s *FeeCatalogService) GetFeeStructure(ctx context.Context, tenantID, structureID uuid.UUID) (*billing.FeeStructure, error) {
	return s.structureRepo.FindByIDForTenant(ctx, tenantID, structureID)
}

// ListFeeStructures lists fee structures for a tenant with filtering
func (s *FeeCatalogService) ListFeeStructures(ctx context.Context, tenantID uuid.UUID, filter billing.FeeStructureFilter) ([]billing.FeeStructure, error) {
	return s.structureRepo.FindAllForTenant(ctx, tenantID, filter)
}

// DeactivateFeeStructure retires a fee structure so new invoices cannot be
// generated from it. Existing invoices are unaffected.
func (s *FeeCatalogService) DeactivateFeeStructure(ctx context.Context, tenantID, structureID uuid.UUID) (*billing.FeeStructure, error) {
	structure, err := s.structureRepo.FindByIDForTenant(ctx, tenantID, structureID)
	if err != nil {
		return nil, err
	}

	structure.Deactivate()

	if err := s.structureRepo.Save(ctx, structure); err != nil {
		return nil, fmt.Errorf("failed to save fee structure: %w", err)
	}

	return structure, nil
}
