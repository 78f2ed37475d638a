package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/vivimassa/horizon-sub000/internal/model"
)

// FlightPatternRepository 航班计划数据访问接口
type FlightPatternRepository interface {
	// ListActiveInRange 返回与 [from, to] 有交集、且不处于 wip 状态的计划（含例外日期）
	ListActiveInRange(ctx context.Context, from, to time.Time) ([]model.FlightPattern, error)
	GetByID(ctx context.Context, id string) (*model.FlightPattern, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.FlightPattern, error)
}

type flightPatternRepo struct {
	db *gorm.DB
}

// NewFlightPatternRepo 创建 FlightPatternRepository 实例
func NewFlightPatternRepo(db *gorm.DB) FlightPatternRepository {
	return &flightPatternRepo{db: db}
}

func (r *flightPatternRepo) ListActiveInRange(ctx context.Context, from, to time.Time) ([]model.FlightPattern, error) {
	var patterns []model.FlightPattern
	err := r.db.WithContext(ctx).
		Preload("Exclusions", "excluded_date >= ? AND excluded_date <= ?", from, to).
		Where("status != ? AND valid_from <= ? AND valid_to >= ?", "wip", to, from).
		Order("flight_number ASC, flight_pattern_id ASC").
		Find(&patterns).Error
	return patterns, err
}

func (r *flightPatternRepo) GetByID(ctx context.Context, id string) (*model.FlightPattern, error) {
	var p model.FlightPattern
	err := r.db.WithContext(ctx).
		Preload("Exclusions").
		Where("flight_pattern_id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *flightPatternRepo) ListByIDs(ctx context.Context, ids []string) ([]model.FlightPattern, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var patterns []model.FlightPattern
	err := r.db.WithContext(ctx).
		Preload("Exclusions").
		Where("flight_pattern_id IN ?", ids).
		Find(&patterns).Error
	return patterns, err
}
