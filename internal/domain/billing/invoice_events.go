package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// FeeInvoiceCreatedEvent is raised when a new invoice is generated
type FeeInvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID      uuid.UUID       `json:"invoice_id"`
	InvoiceNumber  string          `json:"invoice_number"`
	StudentID      uuid.UUID       `json:"student_id"`
	FeeStructureID uuid.UUID       `json:"fee_structure_id"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	DueDate        time.Time       `json:"due_date"`
}

// EventType returns the event type name
func (e *FeeInvoiceCreatedEvent) EventType() string {
	return "FeeInvoiceCreated"
}

// NewFeeInvoiceCreatedEvent creates a new FeeInvoiceCreatedEvent
func NewFeeInvoiceCreatedEvent(inv *FeeInvoice) *FeeInvoiceCreatedEvent {
	return &FeeInvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FeeInvoiceCreated", "FeeInvoice", inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		StudentID:       inv.StudentID,
		FeeStructureID:  inv.FeeStructureID,
		TotalAmount:     inv.TotalAmount,
		DueDate:         inv.DueDate,
	}
}

// PaymentRecordedEvent is raised when a completed payment is recorded
// against an invoice
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	BalanceAmount decimal.Decimal `json:"balance_amount"`
}

// EventType returns the event type name
func (e *PaymentRecordedEvent) EventType() string {
	return "FeeInvoicePaymentRecorded"
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(inv *FeeInvoice, p *FeePayment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FeeInvoicePaymentRecorded", "FeeInvoice", inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		PaymentID:       p.ID,
		Amount:          p.Amount,
		Method:          p.Method,
		PaidAmount:      inv.PaidAmount,
		BalanceAmount:   inv.BalanceAmount,
	}
}

// FeeInvoicePaidEvent is raised when an invoice becomes fully paid
type FeeInvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	StudentID     uuid.UUID       `json:"student_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
}

// EventType returns the event type name
func (e *FeeInvoicePaidEvent) EventType() string {
	return "FeeInvoicePaid"
}

// NewFeeInvoicePaidEvent creates a new FeeInvoicePaidEvent
func NewFeeInvoicePaidEvent(inv *FeeInvoice) *FeeInvoicePaidEvent {
	return &FeeInvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FeeInvoicePaid", "FeeInvoice", inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		StudentID:       inv.StudentID,
		TotalAmount:     inv.TotalAmount,
		PaidAt:          inv.PaidAt,
	}
}

// WaiverAppliedEvent is raised when a waiver discount lands on an invoice
type WaiverAppliedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	WaiverID      uuid.UUID       `json:"waiver_id"`
	WaiverType    WaiverType      `json:"waiver_type"`
	Discount      decimal.Decimal `json:"discount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// EventType returns the event type name
func (e *WaiverAppliedEvent) EventType() string {
	return "FeeInvoiceWaiverApplied"
}

// NewWaiverAppliedEvent creates a new WaiverAppliedEvent
func NewWaiverAppliedEvent(inv *FeeInvoice, w *FeeWaiver, discount valueobject.Money) *WaiverAppliedEvent {
	return &WaiverAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FeeInvoiceWaiverApplied", "FeeInvoice", inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		WaiverID:        w.ID,
		WaiverType:      w.WaiverType,
		Discount:        discount.Amount(),
		TotalAmount:     inv.TotalAmount,
	}
}

// LateFeeAssessedEvent is raised when a late fee is assessed on an invoice
type LateFeeAssessedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	LateFee       decimal.Decimal `json:"late_fee"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// EventType returns the event type name
func (e *LateFeeAssessedEvent) EventType() string {
	return "FeeInvoiceLateFeeAssessed"
}

// NewLateFeeAssessedEvent creates a new LateFeeAssessedEvent
func NewLateFeeAssessedEvent(inv *FeeInvoice, fee valueobject.Money) *LateFeeAssessedEvent {
	return &LateFeeAssessedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FeeInvoiceLateFeeAssessed", "FeeInvoice", inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		LateFee:         fee.Amount(),
		TotalAmount:     inv.TotalAmount,
	}
}
