package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/schoolerp/backend/internal/application/billing"
	"github.com/schoolerp/backend/internal/domain/billing"
)

// WaiverHandler handles fee waiver API endpoints
type WaiverHandler struct {
	BaseHandler
	waiverService *billingapp.WaiverService
}

// NewWaiverHandler creates a new WaiverHandler
func NewWaiverHandler(waiverService *billingapp.WaiverService) *WaiverHandler {
	return &WaiverHandler{
		waiverService: waiverService,
	}
}

// ===================== Request/Response DTOs =====================

// FeeWaiverResponse represents a fee waiver in API responses
// @Description Fee waiver response
type FeeWaiverResponse struct {
	ID                 string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TenantID           string     `json:"tenant_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	StudentID          string     `json:"student_id" example:"550e8400-e29b-41d4-a716-446655440002"`
	WaiverType         string     `json:"waiver_type" example:"scholarship"`
	DiscountPercentage float64    `json:"discount_percentage" example:"25.00"`
	DiscountAmount     float64    `json:"discount_amount" example:"0.00"`
	Reason             string     `json:"reason,omitempty" example:"Merit scholarship 2025"`
	ValidFrom          time.Time  `json:"valid_from"`
	ValidUntil         *time.Time `json:"valid_until,omitempty"`
	Status             string     `json:"status" example:"active"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ApplyWaiverResponse represents the outcome of applying a waiver to an invoice
// @Description Apply waiver response
type ApplyWaiverResponse struct {
	Invoice  FeeInvoiceResponse `json:"invoice"`
	Discount float64            `json:"discount" example:"300.00"`
}

// GrantWaiverRequest represents a request to grant a waiver
// @Description Request body for granting a fee waiver
type GrantWaiverRequest struct {
	StudentID          string  `json:"student_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	WaiverType         string  `json:"waiver_type" binding:"required" example:"scholarship"`
	DiscountPercentage float64 `json:"discount_percentage" binding:"gte=0,lte=100" example:"25.00"`
	DiscountAmount     float64 `json:"discount_amount" binding:"gte=0" example:"0.00"`
	Reason             string  `json:"reason" binding:"max=500" example:"Merit scholarship 2025"`
	ValidFrom          string  `json:"valid_from" example:"2026-01-01"`
	ValidUntil         string  `json:"valid_until" example:"2026-12-31"`
}

// ApplyWaiverRequest represents a request to apply a waiver to an invoice
// @Description Request body for applying a waiver
type ApplyWaiverRequest struct {
	WaiverID string `json:"waiver_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// ===================== Waiver Handlers =====================

// GrantWaiver godoc
// @Summary      Grant a waiver
// @Description  Grant a fee waiver to a student, as a percentage or fixed amount discount
// @Tags         billing-waivers
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body GrantWaiverRequest true "Waiver grant request"
// @Success      201 {object} dto.Response{data=FeeWaiverResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/waivers [post]
func (h *WaiverHandler) GrantWaiver(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req GrantWaiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		h.BadRequest(c, "Invalid student ID format")
		return
	}

	appReq := billingapp.GrantWaiverRequest{
		TenantID:           tenantID,
		StudentID:          studentID,
		WaiverType:         billing.WaiverType(req.WaiverType),
		DiscountPercentage: toDecimal(req.DiscountPercentage),
		DiscountAmount:     toDecimal(req.DiscountAmount),
		Reason:             req.Reason,
	}
	if req.ValidFrom != "" {
		from, err := parseDateTime(req.ValidFrom)
		if err != nil {
			h.BadRequest(c, "Invalid valid_from date format")
			return
		}
		appReq.ValidFrom = &from
	}
	if req.ValidUntil != "" {
		until, err := parseDateTime(req.ValidUntil)
		if err != nil {
			h.BadRequest(c, "Invalid valid_until date format")
			return
		}
		appReq.ValidUntil = &until
	}

	waiver, err := h.waiverService.GrantWaiver(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toFeeWaiverResponse(waiver))
}

// GetWaiverByID godoc
// @Summary      Get waiver by ID
// @Description  Retrieve a fee waiver by its ID
// @Tags         billing-waivers
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Waiver ID" format(uuid)
// @Success      200 {object} dto.Response{data=FeeWaiverResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/waivers/{id} [get]
func (h *WaiverHandler) GetWaiverByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	waiverID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid waiver ID format")
		return
	}

	waiver, err := h.waiverService.GetWaiver(c.Request.Context(), tenantID, waiverID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFeeWaiverResponse(waiver))
}

// ListStudentWaivers godoc
// @Summary      List waivers for a student
// @Description  Retrieve the waivers granted to a student
// @Tags         billing-waivers
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        student_id path string true "Student ID" format(uuid)
// @Param        valid_only query boolean false "Only waivers valid right now"
// @Success      200 {object} dto.Response{data=[]FeeWaiverResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/students/{student_id}/waivers [get]
func (h *WaiverHandler) ListStudentWaivers(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	studentID, err := uuid.Parse(c.Param("student_id"))
	if err != nil {
		h.BadRequest(c, "Invalid student ID format")
		return
	}

	validOnly := c.Query("valid_only") == "true"

	waivers, err := h.waiverService.ListWaiversForStudent(c.Request.Context(), tenantID, studentID, validOnly)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFeeWaiverResponses(waivers))
}

// ApplyWaiver godoc
// @Summary      Apply a waiver to an invoice
// @Description  Apply a valid waiver to an invoice; the discount is clamped to the outstanding balance
// @Tags         billing-waivers
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body ApplyWaiverRequest true "Waiver application request"
// @Success      200 {object} dto.Response{data=ApplyWaiverResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/waivers [post]
func (h *WaiverHandler) ApplyWaiver(c *gin.Context) {
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

	var req ApplyWaiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	waiverID, err := uuid.Parse(req.WaiverID)
	if err != nil {
		h.BadRequest(c, "Invalid waiver ID format")
		return
	}

	result, err := h.waiverService.ApplyWaiver(c.Request.Context(), tenantID, invoiceID, waiverID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, ApplyWaiverResponse{
		Invoice:  toFeeInvoiceResponse(result.Invoice),
		Discount: result.Discount.Amount().InexactFloat64(),
	})
}

// RevokeWaiver godoc
// @Summary      Revoke a waiver
// @Description  Deactivate a waiver; discounts already applied to invoices stay in place
// @Tags         billing-waivers
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Waiver ID" format(uuid)
// @Success      200 {object} dto.Response{data=FeeWaiverResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/waivers/{id}/revoke [post]
func (h *WaiverHandler) RevokeWaiver(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	waiverID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid waiver ID format")
		return
	}

	waiver, err := h.waiverService.RevokeWaiver(c.Request.Context(), tenantID, waiverID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFeeWaiverResponse(waiver))
}

// ===================== Response Converters =====================

func toFeeWaiverResponse(w *billing.FeeWaiver) FeeWaiverResponse {
	return FeeWaiverResponse{
		ID:                 w.ID.String(),
		TenantID:           w.TenantID.String(),
		StudentID:          w.StudentID.String(),
		WaiverType:         string(w.WaiverType),
		DiscountPercentage: w.DiscountPercentage.InexactFloat64(),
		DiscountAmount:     w.DiscountAmount.InexactFloat64(),
		Reason:             w.Reason,
		ValidFrom:          w.ValidFrom,
		ValidUntil:         w.ValidUntil,
		Status:             string(w.Status),
		CreatedAt:          w.CreatedAt,
		UpdatedAt:          w.UpdatedAt,
	}
}

func toFeeWaiverResponses(waivers []billing.FeeWaiver) []FeeWaiverResponse {
	responses := make([]FeeWaiverResponse, len(waivers))
	for i := range waivers {
		responses[i] = toFeeWaiverResponse(&waivers[i])
	}
	return responses
}
