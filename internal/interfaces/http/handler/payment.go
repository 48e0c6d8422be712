package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/schoolerp/backend/internal/application/billing"
	"github.com/schoolerp/backend/internal/domain/billing"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
)

// PaymentHandler handles fee payment API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *billingapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *billingapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// ===================== Request/Response DTOs =====================

// FeePaymentResponse represents a fee payment in API responses
// @Description Fee payment response
type FeePaymentResponse struct {
	ID        string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TenantID  string     `json:"tenant_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	InvoiceID string     `json:"invoice_id" example:"550e8400-e29b-41d4-a716-446655440002"`
	Amount    float64    `json:"amount" example:"400.00"`
	Method    string     `json:"method" example:"mobile_money"`
	Reference string     `json:"reference,omitempty" example:"MPESA-QX12345"`
	Status    string     `json:"status" example:"completed"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	Notes     string     `json:"notes,omitempty" example:"Paid at the school office"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RecordPaymentResponse represents the outcome of recording a payment
// @Description Record payment response
type RecordPaymentResponse struct {
	Payment   FeePaymentResponse `json:"payment"`
	Invoice   FeeInvoiceResponse `json:"invoice"`
	Duplicate bool               `json:"duplicate,omitempty" example:"false"`
}

// RecordPaymentRequest represents a request to record a payment
// @Description Request body for recording a payment against an invoice
type RecordPaymentRequest struct {
	Amount    float64 `json:"amount" binding:"required,gt=0" example:"400.00"`
	Method    string  `json:"method" binding:"required" example:"mobile_money"`
	Reference string  `json:"reference" example:"MPESA-QX12345"`
	Pending   bool    `json:"pending" example:"false"`
	PaidAt    string  `json:"paid_at" example:"2026-02-10T14:30:00Z"`
	Notes     string  `json:"notes" example:"Paid at the school office"`
}

// FailPaymentRequest represents a request to mark a payment as failed
// @Description Request body for failing a pending payment
type FailPaymentRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500" example:"Mobile money reversal"`
}

// ===================== Payment Handlers =====================

// RecordPayment godoc
// @Summary      Record a payment
// @Description  Record a payment against an invoice. A completed payment updates the invoice balance atomically; a repeated reference returns the earlier payment with the duplicate flag set.
// @Tags         billing-payments
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body RecordPaymentRequest true "Payment request"
// @Success      201 {object} dto.Response{data=RecordPaymentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/payments [post]
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := billingapp.RecordPaymentRequest{
		TenantID:  tenantID,
		InvoiceID: invoiceID,
		Amount:    valueobject.NewMoneyUSDFromFloat(req.Amount),
		Method:    billing.PaymentMethod(req.Method),
		Reference: req.Reference,
		Pending:   req.Pending,
		Notes:     req.Notes,
	}
	if req.PaidAt != "" {
		paidAt, err := parseDateTime(req.PaidAt)
		if err != nil {
			h.BadRequest(c, "Invalid paid_at format")
			return
		}
		appReq.PaidAt = &paidAt
	}

	result, err := h.paymentService.RecordPayment(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	if result.Duplicate {
		// The earlier submission already created this payment.
		h.Success(c, toRecordPaymentResponse(result))
		return
	}
	h.Created(c, toRecordPaymentResponse(result))
}

// GetPaymentByID godoc
// @Summary      Get payment by ID
// @Description  Retrieve a fee payment by its ID
// @Tags         billing-payments
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} dto.Response{data=FeePaymentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/payments/{id} [get]
func (h *PaymentHandler) GetPaymentByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFeePaymentResponse(payment))
}

// ListInvoicePayments godoc
// @Summary      List payments for an invoice
// @Description  Retrieve the payment history of an invoice in recording order
// @Tags         billing-payments
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]FeePaymentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/payments [get]
func (h *PaymentHandler) ListInvoicePayments(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	payments, err := h.paymentService.ListPaymentsForInvoice(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFeePaymentResponses(payments))
}

// CompletePayment godoc
// @Summary      Complete a pending payment
// @Description  Move a pending payment to completed and fold it into the invoice balance
// @Tags         billing-payments
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} dto.Response{data=RecordPaymentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/payments/{id}/complete [post]
func (h *PaymentHandler) CompletePayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	result, err := h.paymentService.CompletePayment(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toRecordPaymentResponse(result))
}

// FailPayment godoc
// @Summary      Fail a pending payment
// @Description  Move a pending payment to failed; the invoice balance is untouched
// @Tags         billing-payments
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Payment ID" format(uuid)
// @Param        request body FailPaymentRequest true "Failure reason"
// @Success      200 {object} dto.Response{data=FeePaymentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/payments/{id}/fail [post]
func (h *PaymentHandler) FailPayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var req FailPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payment, err := h.paymentService.FailPayment(c.Request.Context(), tenantID, paymentID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFeePaymentResponse(payment))
}

// ===================== Response Converters =====================

func toFeePaymentResponse(p *billing.FeePayment) FeePaymentResponse {
	return FeePaymentResponse{
		ID:        p.ID.String(),
		TenantID:  p.TenantID.String(),
		InvoiceID: p.InvoiceID.String(),
		Amount:    p.Amount.InexactFloat64(),
		Method:    string(p.Method),
		Reference: p.Reference,
		Status:    string(p.Status),
		PaidAt:    p.PaidAt,
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toFeePaymentResponses(payments []billing.FeePayment) []FeePaymentResponse {
	responses := make([]FeePaymentResponse, len(payments))
	for i := range payments {
		responses[i] = toFeePaymentResponse(&payments[i])
	}
	return responses
}

func toRecordPaymentResponse(r *billingapp.RecordPaymentResult) RecordPaymentResponse {
	return RecordPaymentResponse{
		Payment:   toFeePaymentResponse(r.Payment),
		Invoice:   toFeeInvoiceResponse(r.Invoice),
		Duplicate: r.Duplicate,
	}
}
