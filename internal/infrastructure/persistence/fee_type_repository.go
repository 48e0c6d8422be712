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

// GormFeeTypeRepository implements FeeTypeRepository using GORM
type GormFeeTypeRepository struct {
	db *gorm.DB
}

// NewGormFeeTypeRepository creates a new GormFeeTypeRepository
func NewGormFeeTypeRepository(db *gorm.DB) *GormFeeTypeRepository {
	return &GormFeeTypeRepository{db: db}
}

// FindByID finds a fee type by its ID
func (r *GormFeeTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.FeeType, error) {
	var model models.FeeTypeModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a fee type by ID for a specific tenant
func (r *GormFeeTypeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.FeeType, error) {
	var model models.FeeTypeModel
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

// FindByCode finds a fee type by its unique code for a tenant
func (r *GormFeeTypeRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*billing.FeeType, error) {
	var model models.FeeTypeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists fee types for a tenant, ordered by code
func (r *GormFeeTypeRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]billing.FeeType, error) {
	query := r.db.WithContext(ctx).Model(&models.FeeTypeModel{}).
		Where("tenant_id = ?", tenantID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var typeModels []models.FeeTypeModel
	if err := query.Order("code ASC").Find(&typeModels).Error; err != nil {
		return nil, err
	}
	feeTypes := make([]billing.FeeType, len(typeModels))
	for i, model := range typeModels {
		feeTypes[i] = *model.ToDomain()
	}
	return feeTypes, nil
}

// Save creates or updates a fee type
func (r *GormFeeTypeRepository) Save(ctx context.Context, feeType *billing.FeeType) error {
	model := models.FeeTypeModelFromDomain(feeType)
	return r.db.WithContext(ctx).Save(model).Error
}
