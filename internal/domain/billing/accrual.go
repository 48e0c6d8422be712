package billing

import (
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
)

// AccrualPolicy is the shared "grace period, then linear per-day" charge
// pattern used by both late fees on invoices and fines on library loans.
type AccrualPolicy struct {
	RatePerDay valueobject.Money
	GraceDays  int
}

// Accrue computes the charge for overdueDays days past due. Days inside the
// grace period are free; every day beyond it accrues RatePerDay.
func (p AccrualPolicy) Accrue(overdueDays int) valueobject.Money {
	chargeable := overdueDays - p.GraceDays
	if chargeable <= 0 {
		return valueobject.Zero(p.RatePerDay.Currency())
	}
	return p.RatePerDay.MultiplyByInt(int64(chargeable)).Round(2)
}

// LoanFinePolicy is the library-loan fine rule: a fixed fine per day after a
// grace period.
type LoanFinePolicy struct {
	FinePerDay      valueobject.Money
	GracePeriodDays int
}

// CalculateFine computes the fine for a loan overdue by overdueDays days.
func (p LoanFinePolicy) CalculateFine(overdueDays int) valueobject.Money {
	return AccrualPolicy{RatePerDay: p.FinePerDay, GraceDays: p.GracePeriodDays}.Accrue(overdueDays)
}
