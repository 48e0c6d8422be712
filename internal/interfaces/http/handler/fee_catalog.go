package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/schoolerp/backend/internal/application/billing"
	"github.com/schoolerp/backend/internal/domain/billing"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
)

// FeeCatalogHandler handles fee type and fee structure API endpoints
type FeeCatalogHandler struct {
	BaseHandler
	catalogService *billingapp.FeeCatalogService
}

// NewFeeCatalogHandler creates a new FeeCatalogHandler
func NewFeeCatalogHandler(catalogService *billingapp.FeeCatalogService) *FeeCatalogHandler {
	return &FeeCatalogHandler{
		catalogService: catalogService,
	}
}

// ===================== Request/Response DTOs =====================

// FeeTypeResponse represents a fee type in API responses
// @Description Fee type response
type FeeTypeResponse struct {
	ID          string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TenantID    string    `json:"tenant_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	Name        string    `json:"name" example:"Tuition Fee"`
	Code        string    `json:"code" example:"TUITION"`
	Category    string    `json:"category" example:"tuition"`
	Description string    `json:"description,omitempty" example:"Termly tuition charges"`
	IsActive    bool      `json:"is_active" example:"true"`
	IsMandatory bool      `json:"is_mandatory" example:"true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FeeStructureResponse represents a fee structure in API responses
// @Description Fee structure response
type FeeStructureResponse struct {
	ID                string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TenantID          string    `json:"tenant_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	FeeTypeID         string    `json:"fee_type_id" example:"550e8400-e29b-41d4-a716-446655440002"`
	GradeLevel        string    `json:"grade_level" example:"Grade 7"`
	AcademicYear      string    `json:"academic_year" example:"2025-2026"`
	Amount            float64   `json:"amount" example:"1200.00"`
	PaymentSchedule   string    `json:"payment_schedule" example:"termly"`
	DueDate           time.Time `json:"due_date"`
	LateFeePercentage float64   `json:"late_fee_percentage" example:"0.5"`
	IsActive          bool      `json:"is_active" example:"true"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CreateFeeTypeRequest represents a request to create a fee type
// @Description Request body for creating a fee type
type CreateFeeTypeRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100" example:"Tuition Fee"`
	Code        string `json:"code" binding:"required,min=1,max=30" example:"TUITION"`
	Category    string `json:"category" binding:"required" example:"tuition"`
	Description string `json:"description" example:"Termly tuition charges"`
	IsMandatory bool   `json:"is_mandatory" example:"true"`
}

// SetFeeTypeActiveRequest represents a request to activate or deactivate a fee type
// @Description Request body for toggling a fee type
type SetFeeTypeActiveRequest struct {
	Active *bool `json:"active" binding:"required" example:"false"`
}

// CreateFeeStructureRequest represents a request to create a fee structure
// @Description Request body for creating a fee structure
type CreateFeeStructureRequest struct {
	FeeTypeID         string  `json:"fee_type_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	GradeLevel        string  `json:"grade_level" binding:"required,min=1,max=50" example:"Grade 7"`
	AcademicYear      string  `json:"academic_year" binding:"required,min=1,max=20" example:"2025-2026"`
	Amount            float64 `json:"amount" binding:"required,gt=0" example:"1200.00"`
	PaymentSchedule   string  `json:"payment_schedule" binding:"required" example:"termly"`
	DueDate           string  `json:"due_date" binding:"required" example:"2026-01-15"`
	LateFeePercentage float64 `json:"late_fee_percentage" binding:"gte=0,lte=100" example:"0.5"`
}

// ===================== Fee Type Handlers =====================

// CreateFeeType godoc
// @Summary      Create a fee type
// @Description  Create a new fee type with a per-tenant unique code
// @Tags         billing-fee-types
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body CreateFeeTypeRequest true "Fee type creation request"
// @Success      201 {object} dto.Response{data=FeeTypeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/fee-types [post]
func (h *FeeCatalogHandler) CreateFeeType(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req CreateFeeTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	feeType, err := h.catalogService.CreateFeeType(c.Request.Context(), billingapp.CreateFeeTypeRequest{
		TenantID:    tenantID,
		Name:        req.Name,
		Code:        req.Code,
		Category:    billing.FeeCategory(req.Category),
		Description: req.Description,
		IsMandatory: req.IsMandatory,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toFeeTypeResponse(feeType))
}

// GetFeeTypeByID godoc
// @Summary      Get fee type by ID
// @Description  Retrieve a fee type by its ID
// @Tags         billing-fee-types
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Fee Type ID" format(uuid)
// @Success      200 {object} dto.Response{data=FeeTypeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/fee-types/{id} [get]
func (h *FeeCatalogHandler) GetFeeTypeByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	feeTypeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid fee type ID format")
		return
	}

	feeType, err := h.catalogService.GetFeeType(c.Request.Context(), tenantID, feeTypeID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFeeTypeResponse(feeType))
}

// ListFeeTypes godoc
// @Summary      List fee types
// @Description  Retrieve the fee types of the tenant
// @Tags         billing-fee-types
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        active_only query boolean false "Only active fee types"
// @Success      200 {object} dto.Response{data=[]FeeTypeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/fee-types [get]
func (h *FeeCatalogHandler) ListFeeTypes(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	activeOnly := c.Query("active_only") == "true"

	feeTypes, err := h.catalogService.ListFeeTypes(c.Request.Context(), tenantID, activeOnly)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFeeTypeResponses(feeTypes))
}

// SetFeeTypeActive godoc
// @Summary      Activate or deactivate a fee type
// @Description  Toggle whether a fee type can be priced into new structures
// @Tags         billing-fee-types
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Fee Type ID" format(uuid)
// @Param        request body SetFeeTypeActiveRequest true "Activation request"
// @Success      200 {object} dto.Response{data=FeeTypeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/fee-types/{id}/active [put]
func (h *FeeCatalogHandler) SetFeeTypeActive(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	feeTypeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid fee type ID format")
		return
	}

	var req SetFeeTypeActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	feeType, err := h.catalogService.SetFeeTypeActive(c.Request.Context(), tenantID, feeTypeID, *req.Active)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFeeTypeResponse(feeType))
}

// ===================== Fee Structure Handlers =====================

// CreateFeeStructure godoc
// @Summary      Create a fee structure
// @Description  Price a fee type for a grade level and academic year
// @Tags         billing-fee-structures
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body CreateFeeStructureRequest true "Fee structure creation request"
// @Success      201 {object} dto.Response{data=FeeStructureResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/fee-structures [post]
func (h *FeeCatalogHandler) CreateFeeStructure(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req CreateFeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	feeTypeID, err := uuid.Parse(req.FeeTypeID)
	if err != nil {
		h.BadRequest(c, "Invalid fee type ID format")
		return
	}

	dueDate, err := parseDateTime(req.DueDate)
	if err != nil {
		h.BadRequest(c, "Invalid due date format")
		return
	}

	structure, err := h.catalogService.CreateFeeStructure(c.Request.Context(), billingapp.CreateFeeStructureRequest{
		TenantID:          tenantID,
		FeeTypeID:         feeTypeID,
		GradeLevel:        req.GradeLevel,
		AcademicYear:      req.AcademicYear,
		Amount:            valueobject.NewMoneyUSDFromFloat(req.Amount),
		PaymentSchedule:   billing.PaymentSchedule(req.PaymentSchedule),
		DueDate:           dueDate,
		LateFeePercentage: toDecimal(req.LateFeePercentage),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toFeeStructureResponse(structure))
}

// GetFeeStructureByID godoc
// @Summary      Get fee structure by ID
// @Description  Retrieve a fee structure by its ID
// @Tags         billing-fee-structures
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Fee Structure ID" format(uuid)
// @Success      200 {object} dto.Response{data=FeeStructureResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/fee-structures/{id} [get]
func (h *FeeCatalogHandler) GetFeeStructureByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	structureID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid fee structure ID format")
		return
	}

	structure, err := h.catalogService.GetFeeStructure(c.Request.Context(), tenantID, structureID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFeeStructureResponse(structure))
}

// ListFeeStructuresQuery represents fee structure list query parameters
type ListFeeStructuresQuery struct {
	FeeTypeID    string `form:"fee_type_id" binding:"omitempty,uuid"`
	GradeLevel   string `form:"grade_level"`
	AcademicYear string `form:"academic_year"`
	ActiveOnly   bool   `form:"active_only"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size" binding:"omitempty,max=100"`
	OrderBy      string `form:"order_by"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ListFeeStructures godoc
// @Summary      List fee structures
// @Description  Retrieve fee structures with filtering
// @Tags         billing-fee-structures
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        fee_type_id query string false "Fee type ID" format(uuid)
// @Param        grade_level query string false "Grade level"
// @Param        academic_year query string false "Academic year"
// @Param        active_only query boolean false "Only active structures"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]FeeStructureResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/fee-structures [get]
func (h *FeeCatalogHandler) ListFeeStructures(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var query ListFeeStructuresQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}

	filter := billing.FeeStructureFilter{
		ActiveOnly: query.ActiveOnly,
	}
	filter.Page = query.Page
	filter.PageSize = query.PageSize
	filter.OrderBy = query.OrderBy
	filter.OrderDir = query.OrderDir
	if query.FeeTypeID != "" {
		id, err := uuid.Parse(query.FeeTypeID)
		if err != nil {
			h.BadRequest(c, "Invalid fee type ID format")
			return
		}
		filter.FeeTypeID = &id
	}
	if query.GradeLevel != "" {
		filter.GradeLevel = &query.GradeLevel
	}
	if query.AcademicYear != "" {
		filter.AcademicYear = &query.AcademicYear
	}

	structures, err := h.catalogService.ListFeeStructures(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFeeStructureResponses(structures))
}

// DeactivateFeeStructure godoc
// @Summary      Deactivate a fee structure
// @Description  Retire a fee structure so new invoices cannot be generated from it
// @Tags         billing-fee-structures
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Fee Structure ID" format(uuid)
// @Success      200 {object} dto.Response{data=FeeStructureResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/fee-structures/{id}/deactivate [post]
func (h *FeeCatalogHandler) DeactivateFeeStructure(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	structureID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid fee structure ID format")
		return
	}

	structure, err := h.catalogService.DeactivateFeeStructure(c.Request.Context(), tenantID, structureID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFeeStructureResponse(structure))
}

// ===================== Response Converters =====================

func toFeeTypeResponse(ft *billing.FeeType) FeeTypeResponse {
	return FeeTypeResponse{
		ID:          ft.ID.String(),
		TenantID:    ft.TenantID.String(),
		Name:        ft.Name,
		Code:        ft.Code,
		Category:    string(ft.Category),
		Description: ft.Description,
		IsActive:    ft.IsActive,
		IsMandatory: ft.IsMandatory,
		CreatedAt:   ft.CreatedAt,
		UpdatedAt:   ft.UpdatedAt,
	}
}

func toFeeTypeResponses(feeTypes []billing.FeeType) []FeeTypeResponse {
	responses := make([]FeeTypeResponse, len(feeTypes))
	for i := range feeTypes {
		responses[i] = toFeeTypeResponse(&feeTypes[i])
	}
	return responses
}

func toFeeStructureResponse(fs *billing.FeeStructure) FeeStructureResponse {
	return FeeStructureResponse{
		ID:                fs.ID.String(),
		TenantID:          fs.TenantID.String(),
		FeeTypeID:         fs.FeeTypeID.String(),
		GradeLevel:        fs.GradeLevel,
		AcademicYear:      fs.AcademicYear,
		Amount:            fs.Amount.InexactFloat64(),
		PaymentSchedule:   string(fs.PaymentSchedule),
		DueDate:           fs.DueDate,
		LateFeePercentage: fs.LateFeePercentage.InexactFloat64(),
		IsActive:          fs.IsActive,
		CreatedAt:         fs.CreatedAt,
		UpdatedAt:         fs.UpdatedAt,
	}
}

func toFeeStructureResponses(structures []billing.FeeStructure) []FeeStructureResponse {
	responses := make([]FeeStructureResponse, len(structures))
	for i := range structures {
		responses[i] = toFeeStructureResponse(&structures[i])
	}
	return responses
}
