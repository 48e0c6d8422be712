package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the payment status of a fee invoice. It is a
// pure function of paid_amount vs total_amount, recomputed after every
// completed payment.
type InvoiceStatus string

const (
	InvoiceStatusPending       InvoiceStatus = "pending"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusPaid          InvoiceStatus = "paid"
)

// IsValid checks if the status is a known InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPartiallyPaid, InvoiceStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// FeeInvoice is a billable obligation for one student, derived from one fee
// structure. It owns its payments and applied waivers. The invariants:
//
//	total_amount   = subtotal - discount + tax + late_fee
//	balance_amount = total_amount - paid_amount
//	sum of completed payments <= total_amount
//
// hold after every mutation.
type FeeInvoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber  string          `json:"invoice_number"`
	StudentID      uuid.UUID       `json:"student_id"`
	FeeStructureID uuid.UUID       `json:"fee_structure_id"`
	IssueDate      time.Time       `json:"issue_date"`
	DueDate        time.Time       `json:"due_date"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Tax            decimal.Decimal `json:"tax"`
	Discount       decimal.Decimal `json:"discount"`
	LateFee        decimal.Decimal `json:"late_fee"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	BalanceAmount  decimal.Decimal `json:"balance_amount"`
	Status         InvoiceStatus   `json:"status"`
	PaidAt         *time.Time      `json:"paid_at"`
	Remark         string          `json:"remark,omitempty"`
}

// NewFeeInvoice creates a new invoice with no payments against it.
func NewFeeInvoice(
	tenantID uuid.UUID,
	invoiceNumber string,
	studentID uuid.UUID,
	feeStructureID uuid.UUID,
	issueDate time.Time,
	dueDate time.Time,
	subtotal valueobject.Money,
	tax valueobject.Money,
) (*FeeInvoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Invoice number cannot be empty")
	}
	if len(invoiceNumber) > 50 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Invoice number cannot exceed 50 characters")
	}
	if studentID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Student ID cannot be empty")
	}
	if feeStructureID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Fee structure ID cannot be empty")
	}
	if subtotal.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Subtotal cannot be negative")
	}
	if tax.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Tax cannot be negative")
	}
	if dueDate.Before(issueDate) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Due date cannot precede the issue date")
	}

	inv := &FeeInvoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       invoiceNumber,
		StudentID:           studentID,
		FeeStructureID:      feeStructureID,
		IssueDate:           issueDate,
		DueDate:             dueDate,
		Subtotal:            subtotal.Amount(),
		Tax:                 tax.Amount(),
		Discount:            decimal.Zero,
		LateFee:             decimal.Zero,
		PaidAmount:          decimal.Zero,
		Status:              InvoiceStatusPending,
	}
	inv.recalcTotal()

	inv.AddDomainEvent(NewFeeInvoiceCreatedEvent(inv))

	return inv, nil
}

// recalcTotal re-derives total and balance from the component amounts and
// refreshes the status. total_amount is fixed between adjustments; only
// waivers and late-fee assessment route through here.
func (inv *FeeInvoice) recalcTotal() {
	inv.TotalAmount = inv.Subtotal.Sub(inv.Discount).Add(inv.Tax).Add(inv.LateFee)
	inv.BalanceAmount = inv.TotalAmount.Sub(inv.PaidAmount)
	inv.Status = inv.deriveStatus()
}

// deriveStatus maps the paid/total amounts onto the invoice status.
// A negative balance can only arise if the overpayment guard was violated
// elsewhere; it is treated as paid rather than left inconsistent.
func (inv *FeeInvoice) deriveStatus() InvoiceStatus {
	switch {
	case inv.BalanceAmount.LessThanOrEqual(decimal.Zero):
		return InvoiceStatusPaid
	case inv.PaidAmount.IsPositive():
		return InvoiceStatusPartiallyPaid
	default:
		return InvoiceStatusPending
	}
}

// CanAcceptPayment checks the overpayment guard: the completed payments plus
// the candidate amount must not exceed the invoice total. The returned error
// carries the current balance so callers can surface it.
func (inv *FeeInvoice) CanAcceptPayment(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("VALIDATION_ERROR", "Payment amount must be positive")
	}
	if inv.PaidAmount.Add(amount.Amount()).GreaterThan(inv.TotalAmount) {
		return shared.NewDomainError("OVERPAYMENT",
			fmt.Sprintf("Payment of %s exceeds the outstanding balance of %s on invoice %s",
				amount.StringFixed(2), inv.BalanceAmount.StringFixed(2), inv.InvoiceNumber))
	}
	return nil
}

// Recompute re-derives paid_amount, balance_amount and status from the
// payments recorded against this invoice. Only completed payments count.
// Calling it twice with the same payments is a no-op beyond the first call.
func (inv *FeeInvoice) Recompute(payments []FeePayment) {
	paid := decimal.Zero
	var latest *time.Time
	for i := range payments {
		p := &payments[i]
		if !p.IsCompleted() {
			continue
		}
		paid = paid.Add(p.Amount)
		if p.PaidAt != nil && (latest == nil || p.PaidAt.After(*latest)) {
			latest = p.PaidAt
		}
	}

	wasPaid := inv.Status == InvoiceStatusPaid

	inv.PaidAmount = paid
	inv.BalanceAmount = inv.TotalAmount.Sub(paid)
	inv.Status = inv.deriveStatus()

	if inv.Status == InvoiceStatusPaid {
		inv.PaidAt = latest
		if !wasPaid {
			inv.AddDomainEvent(NewFeeInvoicePaidEvent(inv))
		}
	} else {
		inv.PaidAt = nil
	}

	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
}

// ApplyWaiver applies a waiver's discount to the invoice, clamped to the
// outstanding balance so the total can never go below the amount already
// paid. An invalid or zero-discount waiver is rejected.
func (inv *FeeInvoice) ApplyWaiver(w *FeeWaiver, now time.Time) (valueobject.Money, error) {
	if inv.Status == InvoiceStatusPaid {
		return valueobject.ZeroUSD(), shared.NewDomainError("INVALID_STATE_TRANSITION",
			"Cannot apply a waiver to a paid invoice")
	}

	discount := w.CalculateDiscount(valueobject.NewMoneyUSD(inv.Subtotal), now)
	if !discount.IsPositive() {
		return valueobject.ZeroUSD(), shared.NewDomainError("VALIDATION_ERROR",
			"Waiver grants no discount at this time")
	}
	if discount.Amount().GreaterThan(inv.BalanceAmount) {
		discount = valueobject.NewMoneyUSD(inv.BalanceAmount)
	}

	inv.Discount = inv.Discount.Add(discount.Amount())
	inv.recalcTotal()
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	inv.AddDomainEvent(NewWaiverAppliedEvent(inv, w, discount))

	return discount, nil
}

// AssessLateFee sets the invoice's late fee. Re-assessment replaces the
// previous figure rather than accumulating, so the operation is idempotent
// for a given days-overdue count.
func (inv *FeeInvoice) AssessLateFee(fee valueobject.Money) error {
	if fee.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Late fee cannot be negative")
	}
	if inv.Status == InvoiceStatusPaid {
		return shared.NewDomainError("INVALID_STATE_TRANSITION",
			"Cannot assess a late fee on a paid invoice")
	}

	inv.LateFee = fee.Amount()
	inv.recalcTotal()
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	inv.AddDomainEvent(NewLateFeeAssessedEvent(inv, fee))

	return nil
}

// IsOverdue reports whether the invoice is past due and not fully paid.
// Overdue is derived on read, never stored.
func (inv *FeeInvoice) IsOverdue(now time.Time) bool {
	return inv.Status != InvoiceStatusPaid && inv.DueDate.Before(now)
}

// DaysOverdue returns whole days past due at the given instant (0 if not
// overdue).
func (inv *FeeInvoice) DaysOverdue(now time.Time) int {
	if !inv.IsOverdue(now) {
		return 0
	}
	return int(now.Sub(inv.DueDate).Hours() / 24)
}

// GetTotalAmountMoney returns the total as Money
func (inv *FeeInvoice) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(inv.TotalAmount)
}

// GetPaidAmountMoney returns the paid amount as Money
func (inv *FeeInvoice) GetPaidAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(inv.PaidAmount)
}

// GetBalanceAmountMoney returns the outstanding balance as Money
func (inv *FeeInvoice) GetBalanceAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(inv.BalanceAmount)
}

// IsPaid returns true if the invoice is fully paid
func (inv *FeeInvoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}

// SetRemark sets the remark
func (inv *FeeInvoice) SetRemark(remark string) {
	inv.Remark = remark
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
}
