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

// GormFeeStructureRepository implements FeeStructureRepository using GORM
type GormFeeStructureRepository struct {
	db *gorm.DB
}

// NewGormFeeStructureRepository creates a new GormFeeStructureRepository
func NewGormFeeStructureRepository(db *gorm.DB) *GormFeeStructureRepository {
	return &GormFeeStructureRepository{db: db}
}

// FindByID finds a fee structure by its ID
func (r *GormFeeStructureRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.FeeStructure, error) {
	var model models.FeeStructureModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a fee structure by ID for a specific tenant
func (r *GormFeeStructureRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.FeeStructure, error) {
	var model models.FeeStructureModel
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

// FindAllForTenant lists fee structures for a tenant with filtering
func (r *GormFeeStructureRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.FeeStructureFilter) ([]billing.FeeStructure, error) {
	query := r.db.WithContext(ctx).Model(&models.FeeStructureModel{}).
		Where("tenant_id = ?", tenantID)

	if filter.FeeTypeID != nil {
		query = query.Where("fee_type_id = ?", *filter.FeeTypeID)
	}
	if filter.GradeLevel != nil {
		query = query.Where("grade_level = ?", *filter.GradeLevel)
	}
	if filter.AcademicYear != nil {
		query = query.Where("academic_year = ?", *filter.AcademicYear)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, FeeStructureSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	var structureModels []models.FeeStructureModel
	if err := query.Find(&structureModels).Error; err != nil {
		return nil, err
	}
	structures := make([]billing.FeeStructure, len(structureModels))
	for i, model := range structureModels {
		structures[i] = *model.ToDomain()
	}
	return structures, nil
}

// Save creates or updates a fee structure
func (r *GormFeeStructureRepository) Save(ctx context.Context, structure *billing.FeeStructure) error {
	model := models.FeeStructureModelFromDomain(structure)
	return r.db.WithContext(ctx).Save(model).Error
}
