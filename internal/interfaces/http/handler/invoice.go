package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/schoolerp/backend/internal/application/billing"
	"github.com/schoolerp/backend/internal/domain/billing"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
)

// InvoiceHandler handles fee invoice API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *billingapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *billingapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

// ===================== Request/Response DTOs =====================

// FeeInvoiceResponse represents a fee invoice in API responses
// @Description Fee invoice response
type FeeInvoiceResponse struct {
	ID             string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TenantID       string     `json:"tenant_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	InvoiceNumber  string     `json:"invoice_number" example:"INV-2026-00001"`
	StudentID      string     `json:"student_id" example:"550e8400-e29b-41d4-a716-446655440002"`
	FeeStructureID string     `json:"fee_structure_id" example:"550e8400-e29b-41d4-a716-446655440003"`
	IssueDate      time.Time  `json:"issue_date"`
	DueDate        time.Time  `json:"due_date"`
	Subtotal       float64    `json:"subtotal" example:"1200.00"`
	Tax            float64    `json:"tax" example:"0.00"`
	Discount       float64    `json:"discount" example:"300.00"`
	LateFee        float64    `json:"late_fee" example:"0.00"`
	TotalAmount    float64    `json:"total_amount" example:"900.00"`
	PaidAmount     float64    `json:"paid_amount" example:"400.00"`
	BalanceAmount  float64    `json:"balance_amount" example:"500.00"`
	Status         string     `json:"status" example:"partially_paid"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	Remark         string     `json:"remark,omitempty" example:"Term 1 fees"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Version        int        `json:"version" example:"1"`
}

// GenerateInvoiceRequest represents a request to generate an invoice
// @Description Request body for invoice generation
type GenerateInvoiceRequest struct {
	StudentID      string  `json:"student_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	FeeStructureID string  `json:"fee_structure_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	IssueDate      string  `json:"issue_date" example:"2026-01-05"`
	Tax            float64 `json:"tax" binding:"gte=0" example:"0.00"`
	ApplyWaivers   bool    `json:"apply_waivers" example:"true"`
	Remark         string  `json:"remark" example:"Term 1 fees"`
}

// ListInvoicesQuery represents invoice list query parameters
type ListInvoicesQuery struct {
	StudentID      string `form:"student_id" binding:"omitempty,uuid"`
	FeeStructureID string `form:"fee_structure_id" binding:"omitempty,uuid"`
	Status         string `form:"status"`
	DueFrom        string `form:"due_from"`
	DueTo          string `form:"due_to"`
	Search         string `form:"search"`
	Page           int    `form:"page"`
	PageSize       int    `form:"page_size" binding:"omitempty,max=100"`
	OrderBy        string `form:"order_by"`
	OrderDir       string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ===================== Invoice Handlers =====================

// GenerateInvoice godoc
// @Summary      Generate an invoice
// @Description  Generate an invoice for a student from a fee structure, optionally applying the student's valid waivers
// @Tags         billing-invoices
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body GenerateInvoiceRequest true "Invoice generation request"
// @Success      201 {object} dto.Response{data=FeeInvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/invoices [post]
func (h *InvoiceHandler) GenerateInvoice(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		h.BadRequest(c, "Invalid student ID format")
		return
	}
	structureID, err := uuid.Parse(req.FeeStructureID)
	if err != nil {
		h.BadRequest(c, "Invalid fee structure ID format")
		return
	}

	appReq := billingapp.GenerateInvoiceRequest{
		TenantID:       tenantID,
		StudentID:      studentID,
		FeeStructureID: structureID,
		Tax:            valueobject.NewMoneyUSDFromFloat(req.Tax),
		ApplyWaivers:   req.ApplyWaivers,
		Remark:         req.Remark,
	}
	if req.IssueDate != "" {
		issueDate, err := parseDateTime(req.IssueDate)
		if err != nil {
			h.BadRequest(c, "Invalid issue date format")
			return
		}
		appReq.IssueDate = &issueDate
	}

	invoice, err := h.invoiceService.GenerateInvoice(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toFeeInvoiceResponse(invoice))
}

// GetInvoiceByID godoc
// @Summary      Get invoice by ID
// @Description  Retrieve a fee invoice by its ID
// @Tags         billing-invoices
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=FeeInvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoiceByID(c *gin.Context) {
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

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFeeInvoiceResponse(invoice))
}

// GetInvoiceByNumber godoc
// @Summary      Get invoice by number
// @Description  Retrieve a fee invoice by its invoice number
// @Tags         billing-invoices
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        number path string true "Invoice number"
// @Success      200 {object} dto.Response{data=FeeInvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/invoices/number/{number} [get]
func (h *InvoiceHandler) GetInvoiceByNumber(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "Invoice number is required")
		return
	}

	invoice, err := h.invoiceService.GetInvoiceByNumber(c.Request.Context(), tenantID, number)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFeeInvoiceResponse(invoice))
}

// ListInvoices godoc
// @Summary      List invoices
// @Description  Retrieve a paginated list of fee invoices with filtering
// @Tags         billing-invoices
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        student_id query string false "Student ID" format(uuid)
// @Param        fee_structure_id query string false "Fee structure ID" format(uuid)
// @Param        status query string false "Status" Enums(pending, partially_paid, paid)
// @Param        due_from query string false "Due date range start (ISO 8601)" format(date)
// @Param        due_to query string false "Due date range end (ISO 8601)" format(date)
// @Param        search query string false "Search term (invoice number)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]FeeInvoiceResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	filter, ok := h.bindInvoiceFilter(c)
	if !ok {
		return
	}

	result, err := h.invoiceService.ListInvoices(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, toFeeInvoiceResponses(result.Items), result.Total, result.Page, result.PageSize)
}

// ListOverdueInvoices godoc
// @Summary      List overdue invoices
// @Description  Retrieve invoices past due and not fully paid
// @Tags         billing-invoices
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        student_id query string false "Student ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]FeeInvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/invoices/overdue [get]
func (h *InvoiceHandler) ListOverdueInvoices(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	filter, ok := h.bindInvoiceFilter(c)
	if !ok {
		return
	}

	invoices, err := h.invoiceService.ListOverdueInvoices(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFeeInvoiceResponses(invoices))
}

// AssessLateFee godoc
// @Summary      Assess a late fee
// @Description  Compute and apply the late fee for an overdue invoice from its fee structure's per-day percentage
// @Tags         billing-invoices
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=FeeInvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/late-fee [post]
func (h *InvoiceHandler) AssessLateFee(c *gin.Context) {
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

	invoice, err := h.invoiceService.AssessLateFee(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFeeInvoiceResponse(invoice))
}

// bindInvoiceFilter binds the list query parameters into a domain filter.
// Writes the error response itself and reports ok=false on bad input.
func (h *InvoiceHandler) bindInvoiceFilter(c *gin.Context) (billing.InvoiceFilter, bool) {
	var query ListInvoicesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return billing.InvoiceFilter{}, false
	}

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}

	var filter billing.InvoiceFilter
	filter.Page = query.Page
	filter.PageSize = query.PageSize
	filter.OrderBy = query.OrderBy
	filter.OrderDir = query.OrderDir
	filter.Search = query.Search

	if query.StudentID != "" {
		id, err := uuid.Parse(query.StudentID)
		if err != nil {
			h.BadRequest(c, "Invalid student ID format")
			return billing.InvoiceFilter{}, false
		}
		filter.StudentID = &id
	}
	if query.FeeStructureID != "" {
		id, err := uuid.Parse(query.FeeStructureID)
		if err != nil {
			h.BadRequest(c, "Invalid fee structure ID format")
			return billing.InvoiceFilter{}, false
		}
		filter.FeeStructureID = &id
	}
	if query.Status != "" {
		status := billing.InvoiceStatus(query.Status)
		if !status.IsValid() {
			h.BadRequest(c, "Invalid invoice status")
			return billing.InvoiceFilter{}, false
		}
		filter.Status = &status
	}
	if query.DueFrom != "" {
		from, err := parseDateTime(query.DueFrom)
		if err != nil {
			h.BadRequest(c, "Invalid due_from date format")
			return billing.InvoiceFilter{}, false
		}
		filter.DueFrom = &from
	}
	if query.DueTo != "" {
		to, err := parseDateTime(query.DueTo)
		if err != nil {
			h.BadRequest(c, "Invalid due_to date format")
			return billing.InvoiceFilter{}, false
		}
		filter.DueTo = &to
	}

	return filter, true
}

// ===================== Response Converters =====================

func toFeeInvoiceResponse(inv *billing.FeeInvoice) FeeInvoiceResponse {
	return FeeInvoiceResponse{
		ID:             inv.ID.String(),
		TenantID:       inv.TenantID.String(),
		InvoiceNumber:  inv.InvoiceNumber,
		StudentID:      inv.StudentID.String(),
		FeeStructureID: inv.FeeStructureID.String(),
		IssueDate:      inv.IssueDate,
		DueDate:        inv.DueDate,
		Subtotal:       inv.Subtotal.InexactFloat64(),
		Tax:            inv.Tax.InexactFloat64(),
		Discount:       inv.Discount.InexactFloat64(),
		LateFee:        inv.LateFee.InexactFloat64(),
		TotalAmount:    inv.TotalAmount.InexactFloat64(),
		PaidAmount:     inv.PaidAmount.InexactFloat64(),
		BalanceAmount:  inv.BalanceAmount.InexactFloat64(),
		Status:         string(inv.Status),
		PaidAt:         inv.PaidAt,
		Remark:         inv.Remark,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
		Version:        inv.Version,
	}
}

func toFeeInvoiceResponses(invoices []billing.FeeInvoice) []FeeInvoiceResponse {
	responses := make([]FeeInvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = toFeeInvoiceResponse(&invoices[i])
	}
	return responses
}
