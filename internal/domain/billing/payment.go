package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the status of a fee payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// IsValid checks if the status is a known PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true once the payment can no longer change state
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodMobileMoney  PaymentMethod = "mobile_money"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodCheque       PaymentMethod = "cheque"
)

// IsValid checks if the method is a known PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodMobileMoney, PaymentMethodCard, PaymentMethodCheque:
		return true
	}
	return false
}

// FeePayment is one payment attempt against an invoice. It is created
// pending or completed and transitions at most once: pending -> completed
// (contributes to the invoice balance) or pending -> failed (never counted).
type FeePayment struct {
	shared.BaseEntity
	TenantID  uuid.UUID       `json:"tenant_id"`
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	Reference string          `json:"reference,omitempty"` // external receipt/transaction id
	Status    PaymentStatus   `json:"status"`
	PaidAt    *time.Time      `json:"paid_at"`
	Notes     string          `json:"notes,omitempty"`
}

// NewFeePayment creates a payment in the given initial status. Only pending
// and completed are valid starting points; a completed payment carries its
// paid-at instant.
func NewFeePayment(
	tenantID uuid.UUID,
	invoiceID uuid.UUID,
	amount valueobject.Money,
	method PaymentMethod,
	reference string,
	initial PaymentStatus,
	paidAt time.Time,
) (*FeePayment, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Tenant ID cannot be empty")
	}
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Invoice ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment method is not valid")
	}
	if initial != PaymentStatusPending && initial != PaymentStatusCompleted {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "A payment starts pending or completed")
	}

	p := &FeePayment{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		InvoiceID:  invoiceID,
		Amount:     amount.Amount(),
		Method:     method,
		Reference:  reference,
		Status:     initial,
	}
	if initial == PaymentStatusCompleted {
		p.PaidAt = &paidAt
	}
	return p, nil
}

// GetAmountMoney returns the payment amount as Money
func (p *FeePayment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(p.Amount)
}

// IsCompleted returns true if the payment has completed
func (p *FeePayment) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}

// Complete transitions a pending payment to completed. Terminal payments
// reject the transition with INVALID_STATE_TRANSITION.
func (p *FeePayment) Complete(paidAt time.Time) error {
	if p.Status != PaymentStatusPending {
		return shared.NewDomainError("INVALID_STATE_TRANSITION",
			"Cannot complete a payment in "+string(p.Status)+" status")
	}
	p.Status = PaymentStatusCompleted
	p.PaidAt = &paidAt
	p.UpdatedAt = time.Now()
	return nil
}

// Fail transitions a pending payment to failed and appends the reason to
// its notes. Failed payments never contribute to the invoice balance.
func (p *FeePayment) Fail(reason string) error {
	if p.Status != PaymentStatusPending {
		return shared.NewDomainError("INVALID_STATE_TRANSITION",
			"Cannot fail a payment in "+string(p.Status)+" status")
	}
	p.Status = PaymentStatusFailed
	if reason != "" {
		if p.Notes != "" {
			p.Notes = strings.TrimRight(p.Notes, "\n") + "\n" + reason
		} else {
			p.Notes = reason
		}
	}
	p.UpdatedAt = time.Now()
	return nil
}
