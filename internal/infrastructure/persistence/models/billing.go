package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/billing"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// FeeTypeModel is the persistence model for fee types.
type FeeTypeModel struct {
	BaseModel
	TenantID    uuid.UUID           `gorm:"type:uuid;not null;index;uniqueIndex:idx_fee_type_tenant_code,priority:1"`
	Name        string              `gorm:"type:varchar(100);not null"`
	Code        string              `gorm:"type:varchar(30);not null;uniqueIndex:idx_fee_type_tenant_code,priority:2"`
	Category    billing.FeeCategory `gorm:"type:varchar(30);not null;index"`
	Description string              `gorm:"type:text"`
	// No default tag: GORM would skip a false value on insert and the row
	// would come back active. The column default lives in the migration.
	IsActive    bool                `gorm:"not null;index"`
	IsMandatory bool                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FeeTypeModel) TableName() string {
	return "fee_types"
}

// ToDomain converts the persistence model to a domain FeeType entity.
func (m *FeeTypeModel) ToDomain() *billing.FeeType {
	return &billing.FeeType{
		BaseEntity:  m.BaseModel.ToDomain(),
		TenantID:    m.TenantID,
		Name:        m.Name,
		Code:        m.Code,
		Category:    m.Category,
		Description: m.Description,
		IsActive:    m.IsActive,
		IsMandatory: m.IsMandatory,
	}
}

// FromDomain populates the persistence model from a domain FeeType entity.
func (m *FeeTypeModel) FromDomain(ft *billing.FeeType) {
	m.FromDomainBaseEntity(ft.BaseEntity)
	m.TenantID = ft.TenantID
	m.Name = ft.Name
	m.Code = ft.Code
	m.Category = ft.Category
	m.Description = ft.Description
	m.IsActive = ft.IsActive
	m.IsMandatory = ft.IsMandatory
}

// FeeTypeModelFromDomain creates a new persistence model from a domain FeeType.
func FeeTypeModelFromDomain(ft *billing.FeeType) *FeeTypeModel {
	m := &FeeTypeModel{}
	m.FromDomain(ft)
	return m
}

// FeeStructureModel is the persistence model for fee structures.
type FeeStructureModel struct {
	BaseModel
	TenantID          uuid.UUID               `gorm:"type:uuid;not null;index"`
	FeeTypeID         uuid.UUID               `gorm:"type:uuid;not null;index"`
	GradeLevel        string                  `gorm:"type:varchar(30);not null;index"`
	AcademicYear      string                  `gorm:"type:varchar(20);not null;index"`
	Amount            decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	PaymentSchedule   billing.PaymentSchedule `gorm:"type:varchar(20);not null"`
	DueDate           time.Time               `gorm:"not null;index"`
	LateFeePercentage decimal.Decimal         `gorm:"type:decimal(8,4);not null"`
	IsActive          bool                    `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (FeeStructureModel) TableName() string {
	return "fee_structures"
}

// ToDomain converts the persistence model to a domain FeeStructure entity.
func (m *FeeStructureModel) ToDomain() *billing.FeeStructure {
	return &billing.FeeStructure{
		BaseEntity:        m.BaseModel.ToDomain(),
		TenantID:          m.TenantID,
		FeeTypeID:         m.FeeTypeID,
		GradeLevel:        m.GradeLevel,
		AcademicYear:      m.AcademicYear,
		Amount:            m.Amount,
		PaymentSchedule:   m.PaymentSchedule,
		DueDate:           m.DueDate,
		LateFeePercentage: m.LateFeePercentage,
		IsActive:          m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain FeeStructure entity.
func (m *FeeStructureModel) FromDomain(fs *billing.FeeStructure) {
	m.FromDomainBaseEntity(fs.BaseEntity)
	m.TenantID = fs.TenantID
	m.FeeTypeID = fs.FeeTypeID
	m.GradeLevel = fs.GradeLevel
	m.AcademicYear = fs.AcademicYear
	m.Amount = fs.Amount
	m.PaymentSchedule = fs.PaymentSchedule
	m.DueDate = fs.DueDate
	m.LateFeePercentage = fs.LateFeePercentage
	m.IsActive = fs.IsActive
}

// FeeStructureModelFromDomain creates a new persistence model from a domain FeeStructure.
func FeeStructureModelFromDomain(fs *billing.FeeStructure) *FeeStructureModel {
	m := &FeeStructureModel{}
	m.FromDomain(fs)
	return m
}

// FeeInvoiceModel is the persistence model for the FeeInvoice aggregate root.
type FeeInvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber  string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_fee_invoice_tenant_number,priority:2"`
	StudentID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	FeeStructureID uuid.UUID             `gorm:"type:uuid;not null;index"`
	IssueDate      time.Time             `gorm:"not null"`
	DueDate        time.Time             `gorm:"not null;index"`
	Subtotal       decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Tax            decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Discount       decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	LateFee        decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	TotalAmount    decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	PaidAmount     decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	BalanceAmount  decimal.Decimal       `gorm:"type:decimal(18,4);not null;index"`
	Status         billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	PaidAt         *time.Time
	Remark         string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (FeeInvoiceModel) TableName() string {
	return "fee_invoices"
}

// ToDomain converts the persistence model to a domain FeeInvoice entity.
func (m *FeeInvoiceModel) ToDomain() *billing.FeeInvoice {
	return &billing.FeeInvoice{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			TenantID:  m.TenantID,
			CreatedBy: m.CreatedBy,
		},
		InvoiceNumber:  m.InvoiceNumber,
		StudentID:      m.StudentID,
		FeeStructureID: m.FeeStructureID,
		IssueDate:      m.IssueDate,
		DueDate:        m.DueDate,
		Subtotal:       m.Subtotal,
		Tax:            m.Tax,
		Discount:       m.Discount,
		LateFee:        m.LateFee,
		TotalAmount:    m.TotalAmount,
		PaidAmount:     m.PaidAmount,
		BalanceAmount:  m.BalanceAmount,
		Status:         m.Status,
		PaidAt:         m.PaidAt,
		Remark:         m.Remark,
	}
}

// FromDomain populates the persistence model from a domain FeeInvoice entity.
func (m *FeeInvoiceModel) FromDomain(inv *billing.FeeInvoice) {
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.StudentID = inv.StudentID
	m.FeeStructureID = inv.FeeStructureID
	m.IssueDate = inv.IssueDate
	m.DueDate = inv.DueDate
	m.Subtotal = inv.Subtotal
	m.Tax = inv.Tax
	m.Discount = inv.Discount
	m.LateFee = inv.LateFee
	m.TotalAmount = inv.TotalAmount
	m.PaidAmount = inv.PaidAmount
	m.BalanceAmount = inv.BalanceAmount
	m.Status = inv.Status
	m.PaidAt = inv.PaidAt
	m.Remark = inv.Remark
}

// FeeInvoiceModelFromDomain creates a new persistence model from a domain FeeInvoice.
func FeeInvoiceModelFromDomain(inv *billing.FeeInvoice) *FeeInvoiceModel {
	m := &FeeInvoiceModel{}
	m.FromDomain(inv)
	return m
}

// FeePaymentModel is the persistence model for fee payments.
type FeePaymentModel struct {
	BaseModel
	TenantID  uuid.UUID             `gorm:"type:uuid;not null;index;uniqueIndex:idx_fee_payment_tenant_reference,priority:1,where:reference <> ''"`
	InvoiceID uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Method    billing.PaymentMethod `gorm:"type:varchar(20);not null"`
	Reference string                `gorm:"type:varchar(100);uniqueIndex:idx_fee_payment_tenant_reference,priority:2,where:reference <> ''"`
	Status    billing.PaymentStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	PaidAt    *time.Time            `gorm:"index"`
	Notes     string                `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (FeePaymentModel) TableName() string {
	return "fee_payments"
}

// ToDomain converts the persistence model to a domain FeePayment entity.
func (m *FeePaymentModel) ToDomain() *billing.FeePayment {
	return &billing.FeePayment{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		InvoiceID:  m.InvoiceID,
		Amount:     m.Amount,
		Method:     m.Method,
		Reference:  m.Reference,
		Status:     m.Status,
		PaidAt:     m.PaidAt,
		Notes:      m.Notes,
	}
}

// FromDomain populates the persistence model from a domain FeePayment entity.
func (m *FeePaymentModel) FromDomain(p *billing.FeePayment) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.TenantID = p.TenantID
	m.InvoiceID = p.InvoiceID
	m.Amount = p.Amount
	m.Method = p.Method
	m.Reference = p.Reference
	m.Status = p.Status
	m.PaidAt = p.PaidAt
	m.Notes = p.Notes
}

// FeePaymentModelFromDomain creates a new persistence model from a domain FeePayment.
func FeePaymentModelFromDomain(p *billing.FeePayment) *FeePaymentModel {
	m := &FeePaymentModel{}
	m.FromDomain(p)
	return m
}

// FeeWaiverModel is the persistence model for fee waivers.
type FeeWaiverModel struct {
	BaseModel
	TenantID           uuid.UUID            `gorm:"type:uuid;not null;index"`
	StudentID          uuid.UUID            `gorm:"type:uuid;not null;index"`
	WaiverType         billing.WaiverType   `gorm:"type:varchar(30);not null"`
	DiscountPercentage decimal.Decimal      `gorm:"type:decimal(8,4);not null"`
	DiscountAmount     decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Reason             string               `gorm:"type:varchar(500)"`
	ValidFrom          time.Time            `gorm:"not null;index"`
	ValidUntil         *time.Time           `gorm:"index"`
	Status             billing.WaiverStatus `gorm:"type:varchar(20);not null;default:'active';index"`
}

// TableName returns the table name for GORM
func (FeeWaiverModel) TableName() string {
	return "fee_waivers"
}

// ToDomain converts the persistence model to a domain FeeWaiver entity.
func (m *FeeWaiverModel) ToDomain() *billing.FeeWaiver {
	return &billing.FeeWaiver{
		BaseEntity:         m.BaseModel.ToDomain(),
		TenantID:           m.TenantID,
		StudentID:          m.StudentID,
		WaiverType:         m.WaiverType,
		DiscountPercentage: m.DiscountPercentage,
		DiscountAmount:     m.DiscountAmount,
		Reason:             m.Reason,
		ValidFrom:          m.ValidFrom,
		ValidUntil:         m.ValidUntil,
		Status:             m.Status,
	}
}

// FromDomain populates the persistence model from a domain FeeWaiver entity.
func (m *FeeWaiverModel) FromDomain(w *billing.FeeWaiver) {
	m.FromDomainBaseEntity(w.BaseEntity)
	m.TenantID = w.TenantID
	m.StudentID = w.StudentID
	m.WaiverType = w.WaiverType
	m.DiscountPercentage = w.DiscountPercentage
	m.DiscountAmount = w.DiscountAmount
	m.Reason = w.Reason
	m.ValidFrom = w.ValidFrom
	m.ValidUntil = w.ValidUntil
	m.Status = w.Status
}

// FeeWaiverModelFromDomain creates a new persistence model from a domain FeeWaiver.
func FeeWaiverModelFromDomain(w *billing.FeeWaiver) *FeeWaiverModel {
	m := &FeeWaiverModel{}
	m.FromDomain(w)
	return m
}
