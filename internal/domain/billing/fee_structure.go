package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentSchedule describes how a fee structure is expected to be paid
type PaymentSchedule string

const (
	PaymentScheduleAnnual  PaymentSchedule = "annual"
	PaymentScheduleTermly  PaymentSchedule = "termly"
	PaymentScheduleMonthly PaymentSchedule = "monthly"
	PaymentScheduleOneTime PaymentSchedule = "one_time"
)

// IsValid checks if the schedule is a known PaymentSchedule
func (s PaymentSchedule) IsValid() bool {
	switch s {
	case PaymentScheduleAnnual, PaymentScheduleTermly, PaymentScheduleMonthly, PaymentScheduleOneTime:
		return true
	}
	return false
}

// FeeStructure is a priced fee for a grade level in an academic year.
// Many invoices reference one structure; the structure is never owned by them.
type FeeStructure struct {
	shared.BaseEntity
	TenantID          uuid.UUID       `json:"tenant_id"`
	FeeTypeID         uuid.UUID       `json:"fee_type_id"`
	GradeLevel        string          `json:"grade_level"`
	AcademicYear      string          `json:"academic_year"`
	Amount            decimal.Decimal `json:"amount"`
	PaymentSchedule   PaymentSchedule `json:"payment_schedule"`
	DueDate           time.Time       `json:"due_date"`
	LateFeePercentage decimal.Decimal `json:"late_fee_percentage"` // per day, 0-100
	IsActive          bool            `json:"is_active"`
}

// NewFeeStructure creates a new fee structure
func NewFeeStructure(
	tenantID uuid.UUID,
	feeTypeID uuid.UUID,
	gradeLevel string,
	academicYear string,
	amount valueobject.Money,
	schedule PaymentSchedule,
	dueDate time.Time,
	lateFeePercentage decimal.Decimal,
) (*FeeStructure, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Tenant ID cannot be empty")
	}
	if feeTypeID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Fee type ID cannot be empty")
	}
	if gradeLevel == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Grade level cannot be empty")
	}
	if academicYear == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Academic year cannot be empty")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Fee amount cannot be negative")
	}
	if !schedule.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment schedule is not valid")
	}
	if lateFeePercentage.IsNegative() || lateFeePercentage.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Late fee percentage must be between 0 and 100")
	}

	return &FeeStructure{
		BaseEntity:        shared.NewBaseEntity(),
		TenantID:          tenantID,
		FeeTypeID:         feeTypeID,
		GradeLevel:        gradeLevel,
		AcademicYear:      academicYear,
		Amount:            amount.Amount(),
		PaymentSchedule:   schedule,
		DueDate:           dueDate,
		LateFeePercentage: lateFeePercentage,
		IsActive:          true,
	}, nil
}

// GetAmountMoney returns the structure amount as Money
func (fs *FeeStructure) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(fs.Amount)
}

// CalculateLateFee computes the late fee accrued after daysLate days past
// the due date: amount * (late_fee_percentage / 100) * daysLate. Linear
// per-day accrual, not compounding. Zero for daysLate <= 0.
func (fs *FeeStructure) CalculateLateFee(daysLate int) valueobject.Money {
	if daysLate <= 0 {
		return valueobject.ZeroUSD()
	}
	perDay := fs.GetAmountMoney().Percentage(fs.LateFeePercentage)
	return perDay.MultiplyByInt(int64(daysLate)).Round(2)
}

// Deactivate retires the structure from new invoice generation.
func (fs *FeeStructure) Deactivate() {
	fs.IsActive = false
}
