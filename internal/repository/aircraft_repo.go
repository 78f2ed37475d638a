package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/vivimassa/horizon-sub000/internal/model"
	pkgerrors "github.com/vivimassa/horizon-sub000/pkg/errors"
)

// AircraftRepository 机型与机尾数据访问接口
type AircraftRepository interface {
	ListTypes(ctx context.Context) ([]model.AircraftType, error)
	GetTypeByCode(ctx context.Context, code string) (*model.AircraftType, error)
	UpdateTypeTAT(ctx context.Context, t *model.AircraftType) error
	ListRegistrations(ctx context.Context, status string) ([]model.AircraftRegistration, error)
	GetRegistration(ctx context.Context, registration string) (*model.AircraftRegistration, error)
}

type aircraftRepo struct {
	db *gorm.DB
}

// NewAircraftRepo 创建 AircraftRepository 实例
func NewAircraftRepo(db *gorm.DB) AircraftRepository {
	return &aircraftRepo{db: db}
}

func (r *aircraftRepo) ListTypes(ctx context.Context) ([]model.AircraftType, error) {
	var types []model.AircraftType
	err := r.db.WithContext(ctx).
		Order("code ASC").
		Find(&types).Error
	return types, err
}

func (r *aircraftRepo) GetTypeByCode(ctx context.Context, code string) (*model.AircraftType, error) {
	var t model.AircraftType
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTypeTAT 只更新过站覆盖列，带乐观锁
func (r *aircraftRepo) UpdateTypeTAT(ctx context.Context, t *model.AircraftType) error {
	oldVersion := t.Version
	result := r.db.WithContext(ctx).
		Model(&model.AircraftType{}).
		Where("aircraft_type_id = ? AND version = ?", t.AircraftTypeID, oldVersion).
		Updates(map[string]interface{}{
			"tat_dd_override": t.TATDDOverride,
			"tat_di_override": t.TATDIOverride,
			"tat_id_override": t.TATIDOverride,
			"tat_ii_override": t.TATIIOverride,
			"updated_by":      t.UpdatedBy,
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	t.Version = oldVersion + 1
	return nil
}

func (r *aircraftRepo) ListRegistrations(ctx context.Context, status string) ([]model.AircraftRegistration, error) {
	var regs []model.AircraftRegistration
	db := r.db.WithContext(ctx).Preload("AircraftType")
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Order("registration ASC").Find(&regs).Error
	return regs, err
}

func (r *aircraftRepo) GetRegistration(ctx context.Context, registration string) (*model.AircraftRegistration, error) {
	var reg model.AircraftRegistration
	err := r.db.WithContext(ctx).
		Preload("AircraftType").
		Where("registration = ?", registration).
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}
