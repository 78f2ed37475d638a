package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/vivimassa/horizon-sub000/internal/model"
)

// StationRepository 航站数据访问接口
type StationRepository interface {
	List(ctx context.Context) ([]model.Station, error)
	GetByCode(ctx context.Context, code string) (*model.Station, error)
}

type stationRepo struct {
	db *gorm.DB
}

// NewStationRepo 创建 StationRepository 实例
func NewStationRepo(db *gorm.DB) StationRepository {
	return &stationRepo{db: db}
}

func (r *stationRepo) List(ctx context.Context) ([]model.Station, error) {
	var stations []model.Station
	err := r.db.WithContext(ctx).Order("iata_code ASC").Find(&stations).Error
	return stations, err
}

func (r *stationRepo) GetByCode(ctx context.Context, code string) (*model.Station, error) {
	var s model.Station
	err := r.db.WithContext(ctx).Where("iata_code = ?", code).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}
