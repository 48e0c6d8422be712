package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/billing"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestInvoice(tenantID, studentID, structureID uuid.UUID, number string, dueDate time.Time) *billing.FeeInvoice {
	subtotal, _ := valueobject.NewMoneyUSDFromString("1200.00")
	inv, _ := billing.NewFeeInvoice(
		tenantID, number, studentID, structureID,
		dueDate.AddDate(0, -1, 0), dueDate,
		subtotal, valueobject.ZeroUSD(),
	)
	return inv
}

func TestInvoiceHandler_GenerateInvoice_Success(t *testing.T) {
	env := newBillingTestEnv()
	handler := env.invoiceHandler()

	feeType := createTestFeeType(billingTestTenantID)
	env.feeTypeRepo.feeTypes[feeType.ID] = feeType
	structure := createTestFeeStructure(billingTestTenantID, feeType.ID, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	env.structureRepo.structures[structure.ID] = structure

	studentID := uuid.New()
	w := postJSON(handler.GenerateInvoice, "/billing/invoices", GenerateInvoiceRequest{
		StudentID:      studentID.String(),
		FeeStructureID: structure.ID.String(),
		Remark:         "Term 1 fees",
	}, nil, billingTestTenantID)

	assert.Equal(t, http.StatusCreated, w.Code)

	data := decodeResponseData[FeeInvoiceResponse](t, w)
	assert.Equal(t, "INV-2026-00001", data.InvoiceNumber)
	assert.Equal(t, studentID.String(), data.StudentID)
	assert.InDelta(t, 1200.00, data.TotalAmount, 0.001)
	assert.InDelta(t, 1200.00, data.BalanceAmount, 0.001)
	assert.Equal(t, "pending", data.Status)
	assert.Equal(t, "Term 1 fees", data.Remark)
}

func TestInvoiceHandler_GenerateInvoice_AppliesWaivers(t *testing.T) {
	env := newBillingTestEnv()
	handler := env.invoiceHandler()

	feeType := createTestFeeType(billingTestTenantID)
	env.feeTypeRepo.feeTypes[feeType.ID] = feeType
	structure := createTestFeeStructure(billingTestTenantID, feeType.ID, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	env.structureRepo.structures[structure.ID] = structure

	studentID := uuid.New()
	waiver, err := billing.NewFeeWaiver(
		billingTestTenantID, studentID, billing.WaiverTypeScholarship,
		decimal.NewFromInt(25), decimal.Zero,
		env.clock.Instant.AddDate(0, -1, 0), nil,
	)
	require.NoError(t, err)
	env.waiverRepo.waivers[waiver.ID] = waiver

	w := postJSON(handler.GenerateInvoice, "/billing/invoices", GenerateInvoiceRequest{
		StudentID:      studentID.String(),
		FeeStructureID: structure.ID.String(),
		ApplyWaivers:   true,
	}, nil, billingTestTenantID)

	assert.Equal(t, http.StatusCreated, w.Code)

	data := decodeResponseData[FeeInvoiceResponse](t, w)
	assert.InDelta(t, 300.00, data.Discount, 0.001) // 25% of 1200
	assert.InDelta(t, 900.00, data.TotalAmount, 0.001)
}

func TestInvoiceHandler_GenerateInvoice_StructureNotFound(t *testing.T) {
	env := newBillingTestEnv()
	handler := env.invoiceHandler()

	w := postJSON(handler.GenerateInvoice, "/billing/invoices", GenerateInvoiceRequest{
		StudentID:      uuid.New().String(),
		FeeStructureID: uuid.New().String(),
	}, nil, billingTestTenantID)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvoiceHandler_GenerateInvoice_InactiveStructure(t *testing.T) {
	env := newBillingTestEnv()
	handler := env.invoiceHandler()

	feeType := createTestFeeType(billingTestTenantID)
	env.feeTypeRepo.feeTypes[feeType.ID] = feeType
	structure := createTestFeeStructure(billingTestTenantID, feeType.ID, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	structure.Deactivate()
	env.structureRepo.structures[structure.ID] = structure

	w := postJSON(handler.GenerateInvoice, "/billing/invoices", GenerateInvoiceRequest{
		StudentID:      uuid.New().String(),
		FeeStructureID: structure.ID.String(),
	}, nil, billingTestTenantID)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ERR_VALIDATION", decodeErrorCode(t, w))
}

func TestInvoiceHandler_GenerateInvoice_InvalidStudentID(t *testing.T) {
	env := newBillingTestEnv()
	handler := env.invoiceHandler()

	w := postJSON(handler.GenerateInvoice, "/billing/invoices", map[string]any{
		"student_id":       "not-a-uuid",
		"fee_structure_id": uuid.New().String(),
	}, nil, billingTestTenantID)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceHandler_GetInvoiceByID(t *testing.T) {
	env := newBillingTestEnv()
	handler := env.invoiceHandler()

	invoice := createTestInvoice(billingTestTenantID, uuid.New(), uuid.New(),
		"INV-2026-00007", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	env.invoiceRepo.invoices[invoice.ID] = invoice

	t.Run("found", func(t *testing.T) {
		w := getRequest(handler.GetInvoiceByID, "/billing/invoices/"+invoice.ID.String(),
			gin.Params{{Key: "id", Value: invoice.ID.String()}}, billingTestTenantID)

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeResponseData[FeeInvoiceResponse](t, w)
		assert.Equal(t, "INV-2026-00007", data.InvoiceNumber)
	})

	t.Run("not found", func(t *testing.T) {
		unknown := uuid.New()
		w := getRequest(handler.GetInvoiceByID, "/billing/invoices/"+unknown.String(),
			gin.Params{{Key: "id", Value: unknown.String()}}, billingTestTenantID)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("other tenant", func(t *testing.T) {
		w := getRequest(handler.GetInvoiceByID, "/billing/invoices/"+invoice.ID.String(),
			gin.Params{{Key: "id", Value: invoice.ID.String()}}, uuid.New())

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestInvoiceHandler_GetInvoiceByNumber(t *testing.T) {
	env := newBillingTestEnv()
	handler := env.invoiceHandler()

	invoice := createTestInvoice(billingTestTenantID, uuid.New(), uuid.New(),
		"INV-2026-00042", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	env.invoiceRepo.invoices[invoice.ID] = invoice

	w := getRequest(handler.GetInvoiceByNumber, "/billing/invoices/number/INV-2026-00042",
		gin.Params{{Key: "number", Value: "INV-2026-00042"}}, billingTestTenantID)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponseData[FeeInvoiceResponse](t, w)
	assert.Equal(t, invoice.ID.String(), data.ID)
}

func TestInvoiceHandler_ListInvoices(t *testing.T) {
	env := newBillingTestEnv()
	handler := env.invoiceHandler()

	studentID := uuid.New()
	for i, number := range []string{"INV-2026-00001", "INV-2026-00002", "INV-2026-00003"} {
		sid := studentID
		if i == 2 {
			sid = uuid.New()
		}
		inv := createTestInvoice(billingTestTenantID, sid, uuid.New(), number,
			time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
		env.invoiceRepo.invoices[inv.ID] = inv
	}

	w := getRequest(handler.ListInvoices, "/billing/invoices?student_id="+studentID.String(), nil, billingTestTenantID)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponseData[[]FeeInvoiceResponse](t, w)
	assert.Len(t, data, 2)
}

func TestInvoiceHandler_ListInvoices_InvalidStatus(t *testing.T) {
	env := newBillingTestEnv()
	handler := env.invoiceHandler()

	w := getRequest(handler.ListInvoices, "/billing/invoices?status=bogus", nil, billingTestTenantID)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceHandler_ListOverdueInvoices(t *testing.T) {
	env := newBillingTestEnv()
	handler := env.invoiceHandler()

	// Due before the fixed clock instant (2026-02-10)
	overdue := createTestInvoice(billingTestTenantID, uuid.New(), uuid.New(),
		"INV-2026-00001", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	env.invoiceRepo.invoices[overdue.ID] = overdue

	current := createTestInvoice(billingTestTenantID, uuid.New(), uuid.New(),
		"INV-2026-00002", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	env.invoiceRepo.invoices[current.ID] = current

	w := getRequest(handler.ListOverdueInvoices, "/billing/invoices/overdue", nil, billingTestTenantID)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponseData[[]FeeInvoiceResponse](t, w)
	require.Len(t, data, 1)
	assert.Equal(t, "INV-2026-00001", data[0].InvoiceNumber)
}

func TestInvoiceHandler_AssessLateFee_Success(t *testing.T) {
	env := newBillingTestEnv()
	handler := env.invoiceHandler()

	feeType := createTestFeeType(billingTestTenantID)
	env.feeTypeRepo.feeTypes[feeType.ID] = feeType
	structure := createTestFeeStructure(billingTestTenantID, feeType.ID, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC))
	env.structureRepo.structures[structure.ID] = structure

	// 10 days overdue at the fixed clock instant
	invoice := createTestInvoice(billingTestTenantID, uuid.New(), structure.ID,
		"INV-2026-00001", time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC))
	env.invoiceRepo.invoices[invoice.ID] = invoice

	w := postJSON(handler.AssessLateFee, "/billing/invoices/"+invoice.ID.String()+"/late-fee",
		nil, gin.Params{{Key: "id", Value: invoice.ID.String()}}, billingTestTenantID)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponseData[FeeInvoiceResponse](t, w)
	assert.Greater(t, data.LateFee, 0.0)
	assert.InDelta(t, data.TotalAmount, 1200.00+data.LateFee, 0.001)
}

func TestInvoiceHandler_AssessLateFee_NotOverdue(t *testing.T) {
	env := newBillingTestEnv()
	handler := env.invoiceHandler()

	invoice := createTestInvoice(billingTestTenantID, uuid.New(), uuid.New(),
		"INV-2026-00001", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	env.invoiceRepo.invoices[invoice.ID] = invoice

	w := postJSON(handler.AssessLateFee, "/billing/invoices/"+invoice.ID.String()+"/late-fee",
		nil, gin.Params{{Key: "id", Value: invoice.ID.String()}}, billingTestTenantID)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ERR_VALIDATION", decodeErrorCode(t, w))
}
