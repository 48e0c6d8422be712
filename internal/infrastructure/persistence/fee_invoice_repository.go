package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/billing"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// unpaidInvoiceStatuses are the invoice states that still carry a balance.
var unpaidInvoiceStatuses = []billing.InvoiceStatus{
	billing.InvoiceStatusPending,
	billing.InvoiceStatusPartiallyPaid,
}

// GormFeeInvoiceRepository implements FeeInvoiceRepository using GORM
type GormFeeInvoiceRepository struct {
	db *gorm.DB
}

// NewGormFeeInvoiceRepository creates a new GormFeeInvoiceRepository
func NewGormFeeInvoiceRepository(db *gorm.DB) *GormFeeInvoiceRepository {
	return &GormFeeInvoiceRepository{db: db}
}

// FindByID finds an invoice by its ID
func (r *GormFeeInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.FeeInvoice, error) {
	var model models.FeeInvoiceModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds an invoice by ID for a specific tenant
func (r *GormFeeInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.FeeInvoice, error) {
	var model models.FeeInvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoiceNumber finds by invoice number for a tenant
func (r *GormFeeInvoiceRepository) FindByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*billing.FeeInvoice, error) {
	var model models.FeeInvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_number = ?", tenantID, invoiceNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all invoices for a tenant with filtering
func (r *GormFeeInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) ([]billing.FeeInvoice, error) {
	var invoiceModels []models.FeeInvoiceModel
	query := r.db.WithContext(ctx).Model(&models.FeeInvoiceModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyInvoiceFilter(query, filter)

	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices := make([]billing.FeeInvoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// FindByStudent finds invoices for a student
func (r *GormFeeInvoiceRepository) FindByStudent(ctx context.Context, tenantID, studentID uuid.UUID, filter billing.InvoiceFilter) ([]billing.FeeInvoice, error) {
	var invoiceModels []models.FeeInvoiceModel
	query := r.db.WithContext(ctx).Model(&models.FeeInvoiceModel{}).
		Where("tenant_id = ? AND student_id = ?", tenantID, studentID)
	query = r.applyInvoiceFilter(query, filter)

	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices := make([]billing.FeeInvoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// FindOverdue finds invoices past due and not fully paid as of the given instant
func (r *GormFeeInvoiceRepository) FindOverdue(ctx context.Context, tenantID uuid.UUID, asOf time.Time, filter billing.InvoiceFilter) ([]billing.FeeInvoice, error) {
	var invoiceModels []models.FeeInvoiceModel
	query := r.db.WithContext(ctx).Model(&models.FeeInvoiceModel{}).
		Where("tenant_id = ? AND due_date < ? AND status IN ?", tenantID, asOf, unpaidInvoiceStatuses)
	query = r.applyInvoiceFilter(query, filter)

	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices := make([]billing.FeeInvoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// Save creates or updates an invoice
func (r *GormFeeInvoiceRepository) Save(ctx context.Context, invoice *billing.FeeInvoice) error {
	model := models.FeeInvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormFeeInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.FeeInvoice) error {
	return saveInvoiceWithLock(r.db.WithContext(ctx), invoice)
}

// SaveWithPayment persists the invoice (version-checked) and the payment in
// one transaction. A concurrent writer invalidates the version guard and the
// whole transaction rolls back, so a payment row can never land on an
// invoice state it was not computed against.
func (r *GormFeeInvoiceRepository) SaveWithPayment(ctx context.Context, invoice *billing.FeeInvoice, payment *billing.FeePayment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveInvoiceWithLock(tx, invoice); err != nil {
			return err
		}
		return tx.Save(models.FeePaymentModelFromDomain(payment)).Error
	})
}

func saveInvoiceWithLock(tx *gorm.DB, invoice *billing.FeeInvoice) error {
	model := models.FeeInvoiceModelFromDomain(invoice)
	result := tx.
		Model(model).
		Where("id = ? AND version = ?", invoice.ID, invoice.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// CountForTenant counts invoices for a tenant
func (r *GormFeeInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.FeeInvoiceModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyInvoiceFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// NextSequenceForYear returns the next invoice sequence for a tenant and year.
// Invoice numbers are INV-YYYY-XXXXX; the sequence is derived from the highest
// number already issued in that year.
func (r *GormFeeInvoiceRepository) NextSequenceForYear(ctx context.Context, tenantID uuid.UUID, year int) (int64, error) {
	prefix := fmt.Sprintf("INV-%d-", year)

	var maxNumber string
	if err := r.db.WithContext(ctx).
		Model(&models.FeeInvoiceModel{}).
		Select("invoice_number").
		Where("tenant_id = ? AND invoice_number LIKE ?", tenantID, prefix+"%").
		Order("invoice_number DESC").
		Limit(1).
		Pluck("invoice_number", &maxNumber).Error; err != nil {
		return 0, err
	}

	var lastSeq int64
	if maxNumber != "" {
		parts := strings.Split(maxNumber, "-")
		if len(parts) == 3 {
			fmt.Sscanf(parts[2], "%d", &lastSeq)
		}
	}
	return lastSeq + 1, nil
}

// applyInvoiceFilter applies filter options to the query
func (r *GormFeeInvoiceRepository) applyInvoiceFilter(query *gorm.DB, filter billing.InvoiceFilter) *gorm.DB {
	query = r.applyInvoiceFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering
	orderBy := ValidateSortField(filter.OrderBy, InvoiceSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applyInvoiceFilterWithoutPagination applies filter options without pagination
func (r *GormFeeInvoiceRepository) applyInvoiceFilterWithoutPagination(query *gorm.DB, filter billing.InvoiceFilter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("invoice_number LIKE ?", "%"+filter.Search+"%")
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.FeeStructureID != nil {
		query = query.Where("fee_structure_id = ?", *filter.FeeStructureID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	if filter.OverdueAsOf != nil {
		query = query.Where("due_date < ? AND status IN ?", *filter.OverdueAsOf, unpaidInvoiceStatuses)
	}
	return query
}
