package billing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/shared"
)

// FeeCategory classifies what a fee type charges for
type FeeCategory string

const (
	FeeCategoryTuition         FeeCategory = "tuition"
	FeeCategoryTransport       FeeCategory = "transport"
	FeeCategoryLibrary         FeeCategory = "library"
	FeeCategoryExamination     FeeCategory = "examination"
	FeeCategoryExtracurricular FeeCategory = "extracurricular"
	FeeCategoryOther           FeeCategory = "other"
)

// IsValid checks if the category is a known FeeCategory
func (c FeeCategory) IsValid() bool {
	switch c {
	case FeeCategoryTuition, FeeCategoryTransport, FeeCategoryLibrary,
		FeeCategoryExamination, FeeCategoryExtracurricular, FeeCategoryOther:
		return true
	}
	return false
}

// String returns the string representation of FeeCategory
func (c FeeCategory) String() string {
	return string(c)
}

// FeeType is a category of billable fee (tuition, transport, library, ...).
// Once referenced by a fee structure it is treated as immutable; admins
// deactivate rather than delete.
type FeeType struct {
	shared.BaseEntity
	TenantID    uuid.UUID   `json:"tenant_id"`
	Name        string      `json:"name"`
	Code        string      `json:"code"` // unique per tenant
	Category    FeeCategory `json:"category"`
	Description string      `json:"description,omitempty"`
	IsActive    bool        `json:"is_active"`
	IsMandatory bool        `json:"is_mandatory"`
}

// NewFeeType creates a new fee type
func NewFeeType(tenantID uuid.UUID, name, code string, category FeeCategory, mandatory bool) (*FeeType, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Tenant ID cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Fee type name cannot be empty")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Fee type code cannot be empty")
	}
	if len(code) > 30 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Fee type code cannot exceed 30 characters")
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Fee category is not valid")
	}

	return &FeeType{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    tenantID,
		Name:        name,
		Code:        code,
		Category:    category,
		IsActive:    true,
		IsMandatory: mandatory,
	}, nil
}

// Deactivate marks the fee type inactive so it cannot be attached to new
// fee structures. Existing structures keep their reference.
func (ft *FeeType) Deactivate() {
	ft.IsActive = false
}

// Activate re-enables the fee type.
func (ft *FeeType) Activate() {
	ft.IsActive = true
}
