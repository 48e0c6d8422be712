package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/billing"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// maxSaveAttempts bounds the retry loop around the version-checked save.
// A conflict means another payment landed between our read and write; the
// overpayment guard has to be re-evaluated against the fresh state.
const maxSaveAttempts = 3

// PaymentService records payments against invoices and keeps the invoice's
// paid amount, balance and status consistent with its completed payments.
type PaymentService struct {
	invoiceRepo      billing.FeeInvoiceRepository
	paymentRepo      billing.FeePaymentRepository
	idempotencyStore shared.IdempotencyStore
	idempotencyCfg   shared.IdempotencyConfig
	clock            shared.Clock
	logger           *zap.Logger
}

// NewPaymentService creates a new PaymentService. The idempotency store may
// be nil, in which case reference deduplication falls back to the payment
// repository alone.
func NewPaymentService(
	invoiceRepo billing.FeeInvoiceRepository,
	paymentRepo billing.FeePaymentRepository,
	idempotencyStore shared.IdempotencyStore,
	idempotencyCfg shared.IdempotencyConfig,
	clock shared.Clock,
	logger *zap.Logger,
) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		invoiceRepo:      invoiceRepo,
		paymentRepo:      paymentRepo,
		idempotencyStore: idempotencyStore,
		idempotencyCfg:   idempotencyCfg,
		clock:            clock,
		logger:           logger,
	}
}

// RecordPaymentRequest carries the inputs for recording a payment
type RecordPaymentRequest struct {
	TenantID  uuid.UUID
	InvoiceID uuid.UUID
	Amount    valueobject.Money
	Method    billing.PaymentMethod
	Reference string     // external receipt/transaction id, used for dedup
	Pending   bool       // record as pending instead of completed
	PaidAt    *time.Time // completion instant, defaults to now
	Notes     string
}

// RecordPaymentResult is the outcome of recording a payment
type RecordPaymentResult struct {
	Payment   *billing.FeePayment `json:"payment"`
	Invoice   *billing.FeeInvoice `json:"invoice"`
	Duplicate bool                `json:"duplicate,omitempty"`
}

// RecordPayment records a payment against an invoice. A completed payment
// updates the invoice's paid amount and status in the same transaction; the
// overpayment guard runs against the freshest invoice state and the whole
// read-check-write is retried when a concurrent payment wins the version
// race. Submissions with a reference seen before return the earlier payment
// instead of recording a second one.
func (s *PaymentService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*RecordPaymentResult, error) {
	if req.Reference != "" {
		dup, err := s.checkDuplicate(ctx, req.TenantID, req.Reference)
		if err != nil {
			return nil, err
		}
		if dup != nil {
			return dup, nil
		}
	}

	if req.Pending {
		return s.recordPending(ctx, req)
	}

	paidAt := s.clock.Now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}

	var lastErr error
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, req.TenantID, req.InvoiceID)
		if err != nil {
			return nil, err
		}

		if err := invoice.CanAcceptPayment(req.Amount); err != nil {
			return nil, err
		}

		payment, err := billing.NewFeePayment(
			req.TenantID, req.InvoiceID, req.Amount, req.Method,
			req.Reference, billing.PaymentStatusCompleted, paidAt,
		)
		if err != nil {
			return nil, err
		}
		if req.Notes != "" {
			payment.Notes = req.Notes
		}

		existing, err := s.paymentRepo.FindByInvoice(ctx, req.TenantID, req.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("failed to load payments: %w", err)
		}
		invoice.Recompute(append(existing, *payment))

		err = s.invoiceRepo.SaveWithPayment(ctx, invoice, payment)
		if err == nil {
			return &RecordPaymentResult{Payment: payment, Invoice: invoice}, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}

		lastErr = err
		s.logger.Warn("payment save hit a version conflict, retrying",
			zap.String("invoice_id", req.InvoiceID.String()),
			zap.Int("attempt", attempt))
	}

	return nil, fmt.Errorf("failed to record payment after %d attempts: %w", maxSaveAttempts, lastErr)
}

// recordPending saves a pending payment without touching the invoice; the
// balance only moves when the payment completes.
func (s *PaymentService) recordPending(ctx context.Context, req RecordPaymentRequest) (*RecordPaymentResult, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, req.TenantID, req.InvoiceID)
	if err != nil {
		return nil, err
	}
	if err := invoice.CanAcceptPayment(req.Amount); err != nil {
		return nil, err
	}

	payment, err := billing.NewFeePayment(
		req.TenantID, req.InvoiceID, req.Amount, req.Method,
		req.Reference, billing.PaymentStatusPending, time.Time{},
	)
	if err != nil {
		return nil, err
	}
	if req.Notes != "" {
		payment.Notes = req.Notes
	}

	if err := s.paymentRepo.Save(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	return &RecordPaymentResult{Payment: payment, Invoice: invoice}, nil
}

// checkDuplicate consults the idempotency store (and the ledger itself as a
// backstop) for a previously recorded payment with the same reference.
func (s *PaymentService) checkDuplicate(ctx context.Context, tenantID uuid.UUID, reference string) (*RecordPaymentResult, error) {
	if s.idempotencyStore != nil && s.idempotencyCfg.Enabled {
		key := fmt.Sprintf("%s:%s", tenantID, reference)
		fresh, err := s.idempotencyStore.MarkProcessed(ctx, key, s.idempotencyCfg.TTL)
		if err != nil {
			// A degraded store must not block payment intake; the ledger
			// lookup below still catches true duplicates.
			s.logger.Warn("idempotency store unavailable", zap.Error(err))
		} else if fresh {
			return nil, nil
		}
	}

	payment, err := s.paymentRepo.FindByReference(ctx, tenantID, reference)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check payment reference: %w", err)
	}

	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, payment.InvoiceID)
	if err != nil {
		return nil, err
	}
	return &RecordPaymentResult{Payment: payment, Invoice: invoice, Duplicate: true}, nil
}

// CompletePayment moves a pending payment to completed and folds it into the
// invoice's paid amount. The overpayment guard re-runs here: the balance may
// have shrunk since the payment was taken in.
func (s *PaymentService) CompletePayment(ctx context.Context, tenantID, paymentID uuid.UUID) (*RecordPaymentResult, error) {
	var lastErr error
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		payment, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, paymentID)
		if err != nil {
			return nil, err
		}

		invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, payment.InvoiceID)
		if err != nil {
			return nil, err
		}
		if err := invoice.CanAcceptPayment(payment.GetAmountMoney()); err != nil {
			return nil, err
		}

		if err := payment.Complete(s.clock.Now()); err != nil {
			return nil, err
		}

		existing, err := s.paymentRepo.FindByInvoice(ctx, tenantID, payment.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("failed to load payments: %w", err)
		}
		for i := range existing {
			if existing[i].ID == payment.ID {
				existing[i] = *payment
			}
		}
		invoice.Recompute(existing)

		err = s.invoiceRepo.SaveWithPayment(ctx, invoice, payment)
		if err == nil {
			return &RecordPaymentResult{Payment: payment, Invoice: invoice}, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}

		lastErr = err
		s.logger.Warn("payment completion hit a version conflict, retrying",
			zap.String("payment_id", paymentID.String()),
			zap.Int("attempt", attempt))
	}

	return nil, fmt.Errorf("failed to complete payment after %d attempts: %w", maxSaveAttempts, lastErr)
}

// FailPayment moves a pending payment to failed. The invoice is untouched
// since a pending payment never counted toward its balance.
func (s *PaymentService) FailPayment(ctx context.Context, tenantID, paymentID uuid.UUID, reason string) (*billing.FeePayment, error) {
	payment, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}

	if err := payment.Fail(reason); err != nil {
		return nil, err
	}

	if err := s.paymentRepo.Save(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	return payment, nil
}

// GetPayment returns one payment by ID
func (s *PaymentService) GetPayment(ctx context.Context, tenantID, paymentID uuid.UUID) (*billing.FeePayment, error) {
	return s.paymentRepo.FindByIDForTenant(ctx, tenantID, paymentID)
}

// ListPaymentsForInvoice returns the payment history of an invoice
func (s *PaymentService) ListPaymentsForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]billing.FeePayment, error) {
	if _, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID); err != nil {
		return nil, err
	}
	return s.paymentRepo.FindByInvoice(ctx, tenantID, invoiceID)
}
