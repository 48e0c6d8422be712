package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// WaiverStatus represents the status of a fee waiver
type WaiverStatus string

const (
	WaiverStatusActive   WaiverStatus = "active"
	WaiverStatusInactive WaiverStatus = "inactive"
)

// IsValid checks if the status is a known WaiverStatus
func (s WaiverStatus) IsValid() bool {
	return s == WaiverStatusActive || s == WaiverStatusInactive
}

// WaiverType classifies why the waiver was granted
type WaiverType string

const (
	WaiverTypeScholarship WaiverType = "scholarship"
	WaiverTypeSibling     WaiverType = "sibling"
	WaiverTypeStaffChild  WaiverType = "staff_child"
	WaiverTypeHardship    WaiverType = "hardship"
	WaiverTypeOther       WaiverType = "other"
)

// IsValid checks if the type is a known WaiverType
func (t WaiverType) IsValid() bool {
	switch t {
	case WaiverTypeScholarship, WaiverTypeSibling, WaiverTypeStaffChild, WaiverTypeHardship, WaiverTypeOther:
		return true
	}
	return false
}

// FeeWaiver is a discount grant for a student. Either DiscountPercentage or
// DiscountAmount describes the discount; the percentage takes precedence
// when it is greater than zero.
type FeeWaiver struct {
	shared.BaseEntity
	TenantID           uuid.UUID       `json:"tenant_id"`
	StudentID          uuid.UUID       `json:"student_id"`
	WaiverType         WaiverType      `json:"waiver_type"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"` // 0-100
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	Reason             string          `json:"reason,omitempty"`
	ValidFrom          time.Time       `json:"valid_from"`
	ValidUntil         *time.Time      `json:"valid_until"` // nil = open-ended
	Status             WaiverStatus    `json:"status"`
}

// NewFeeWaiver creates a new fee waiver
func NewFeeWaiver(
	tenantID uuid.UUID,
	studentID uuid.UUID,
	waiverType WaiverType,
	discountPercentage decimal.Decimal,
	discountAmount decimal.Decimal,
	validFrom time.Time,
	validUntil *time.Time,
) (*FeeWaiver, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Tenant ID cannot be empty")
	}
	if studentID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Student ID cannot be empty")
	}
	if !waiverType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Waiver type is not valid")
	}
	if discountPercentage.IsNegative() || discountPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Discount percentage must be between 0 and 100")
	}
	if discountAmount.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Discount amount cannot be negative")
	}
	if discountPercentage.IsZero() && discountAmount.IsZero() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Waiver must specify a discount percentage or amount")
	}
	if validUntil != nil && validUntil.Before(validFrom) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Waiver validity window cannot end before it starts")
	}

	return &FeeWaiver{
		BaseEntity:         shared.NewBaseEntity(),
		TenantID:           tenantID,
		StudentID:          studentID,
		WaiverType:         waiverType,
		DiscountPercentage: discountPercentage,
		DiscountAmount:     discountAmount,
		ValidFrom:          validFrom,
		ValidUntil:         validUntil,
		Status:             WaiverStatusActive,
	}, nil
}

// IsValidAt reports whether the waiver applies at the given instant:
// status is active, valid_from has passed, and valid_until (when set) has
// not. A nil valid_until means open-ended.
func (w *FeeWaiver) IsValidAt(now time.Time) bool {
	if w.Status != WaiverStatusActive {
		return false
	}
	if now.Before(w.ValidFrom) {
		return false
	}
	if w.ValidUntil != nil && now.After(*w.ValidUntil) {
		return false
	}
	return true
}

// CalculateDiscount computes the discount this waiver grants against the
// given amount at the given instant. An invalid waiver yields zero. When the
// percentage is greater than zero it takes precedence; otherwise the fixed
// discount amount is returned as-is. The fixed amount is deliberately not
// capped here - FeeInvoice.ApplyWaiver clamps it to the outstanding balance.
func (w *FeeWaiver) CalculateDiscount(amount valueobject.Money, now time.Time) valueobject.Money {
	if amount.IsNegative() {
		return valueobject.Zero(amount.Currency())
	}
	if !w.IsValidAt(now) {
		return valueobject.Zero(amount.Currency())
	}
	if w.DiscountPercentage.IsPositive() {
		return amount.Percentage(w.DiscountPercentage).Round(2)
	}
	return valueobject.NewMoneyUSD(w.DiscountAmount)
}

// Revoke deactivates the waiver. Already-applied discounts are not unwound.
func (w *FeeWaiver) Revoke() error {
	if w.Status == WaiverStatusInactive {
		return shared.NewDomainError("INVALID_STATE_TRANSITION", "Waiver is already inactive")
	}
	w.Status = WaiverStatusInactive
	return nil
}
