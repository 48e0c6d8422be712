// Package billing provides the domain model for student fee billing in a
// multi-tenant school management system.
//
// This package implements the fee billing bounded context, which is
// responsible for:
//   - The fee catalog (fee types and priced fee structures per grade and
//     academic year)
//   - Student fee invoices and their balance state machine
//   - The payment ledger with a strict no-overpayment guarantee
//   - Fee waivers (percentage or fixed-amount discounts with validity windows)
//   - Late-fee and library-fine accrual policies
//
// Key Aggregates:
//   - FeeInvoice: A billable obligation for one student; owns its payments
//     and applied waivers, and derives paid/balance/status from completed
//     payments
//
// Entities:
//   - FeeType, FeeStructure: The fee catalog
//   - FeePayment: One payment attempt with a pending -> completed|failed
//     state machine
//   - FeeWaiver: A discount grant with a validity window
//
// All time-dependent logic (waiver validity, overdue derivation, late-fee
// accrual) takes an explicit instant or a shared.Clock, never the wall clock.
package billing
