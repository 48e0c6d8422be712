package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/billing"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormFeeWaiverRepository implements FeeWaiverRepository using GORM
type GormFeeWaiverRepository struct {
	db *gorm.DB
}

// NewGormFeeWaiverRepository creates a new GormFeeWaiverRepository
func NewGormFeeWaiverRepository(db *gorm.DB) *GormFeeWaiverRepository {
	return &GormFeeWaiverRepository{db: db}
}

// FindByID finds a waiver by its ID
func (r *GormFeeWaiverRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.FeeWaiver, error) {
	var model models.FeeWaiverModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a waiver by ID for a specific tenant
func (r *GormFeeWaiverRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.FeeWaiver, error) {
	var model models.FeeWaiverModel
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

// FindByStudent lists waivers granted to a student, newest first
func (r *GormFeeWaiverRepository) FindByStudent(ctx context.Context, tenantID, studentID uuid.UUID) ([]billing.FeeWaiver, error) {
	var waiverModels []models.FeeWaiverModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND student_id = ?", tenantID, studentID).
		Order("created_at DESC").
		Find(&waiverModels).Error; err != nil {
		return nil, err
	}
	waivers := make([]billing.FeeWaiver, len(waiverModels))
	for i, model := range waiverModels {
		waivers[i] = *model.ToDomain()
	}
	return waivers, nil
}

// FindActiveByStudent lists active waivers whose validity window covers the
// given instant. Open-ended waivers have a NULL valid_until.
func (r *GormFeeWaiverRepository) FindActiveByStudent(ctx context.Context, tenantID, studentID uuid.UUID, asOf time.Time) ([]billing.FeeWaiver, error) {
	var waiverModels []models.FeeWaiverModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND student_id = ? AND status = ? AND valid_from <= ? AND (valid_until IS NULL OR valid_until >= ?)",
			tenantID, studentID, billing.WaiverStatusActive, asOf, asOf).
		Order("created_at ASC").
		Find(&waiverModels).Error; err != nil {
		return nil, err
	}
	waivers := make([]billing.FeeWaiver, len(waiverModels))
	for i, model := range waiverModels {
		waivers[i] = *model.ToDomain()
	}
	return waivers, nil
}

// Save creates or updates a waiver
func (r *GormFeeWaiverRepository) Save(ctx context.Context, waiver *billing.FeeWaiver) error {
	model := models.FeeWaiverModelFromDomain(waiver)
	return r.db.WithContext(ctx).Save(model).Error
}
