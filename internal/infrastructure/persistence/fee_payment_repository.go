package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/billing"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormFeePaymentRepository implements FeePaymentRepository using GORM
type GormFeePaymentRepository struct {
	db *gorm.DB
}

// NewGormFeePaymentRepository creates a new GormFeePaymentRepository
func NewGormFeePaymentRepository(db *gorm.DB) *GormFeePaymentRepository {
	return &GormFeePaymentRepository{db: db}
}

// FindByID finds a payment by its ID
func (r *GormFeePaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.FeePayment, error) {
	var model models.FeePaymentModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a payment by ID for a specific tenant
func (r *GormFeePaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.FeePayment, error) {
	var model models.FeePaymentModel
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

// FindByInvoice lists all payments recorded against an invoice, oldest first
func (r *GormFeePaymentRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]billing.FeePayment, error) {
	var paymentModels []models.FeePaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Order("created_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]billing.FeePayment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}

// FindByReference finds a payment by its external reference for a tenant
func (r *GormFeePaymentRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*billing.FeePayment, error) {
	var model models.FeePaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND reference = ?", tenantID, reference).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a payment
func (r *GormFeePaymentRepository) Save(ctx context.Context, payment *billing.FeePayment) error {
	model := models.FeePaymentModelFromDomain(payment)
	return r.db.WithContext(ctx).Save(model).Error
}
