package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vivimassa/horizon-sub000/internal/dto"
	"github.com/vivimassa/horizon-sub000/internal/model"
	"github.com/vivimassa/horizon-sub000/internal/repository"
	"github.com/vivimassa/horizon-sub000/internal/rotation"
)

// ── 机队模块业务错误 ──

var (
	ErrAircraftTypeNotFound = errors.New("机型不存在")
	ErrInvalidCombo         = errors.New("过站方向组合无效")
)

// FleetService 机队业务接口
type FleetService interface {
	ListTypes(ctx context.Context) ([]dto.AircraftTypeResponse, error)
	GetType(ctx context.Context, code string) (*dto.AircraftTypeResponse, error)
	// UpdateTAT 设置或清除单个方向组合的过站覆盖值
	UpdateTAT(ctx context.Context, code string, req *dto.UpdateTATRequest, callerID string) (*dto.AircraftTypeResponse, error)
	ListRegistrations(ctx context.Context, req *dto.RegistrationListRequest) ([]dto.RegistrationResponse, error)
}

type fleetService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewFleetService 创建 FleetService 实例
func NewFleetService(repo *repository.Repository, logger *zap.Logger) FleetService {
	return &fleetService{repo: repo, logger: logger}
}

// ────────────────────── ListTypes ──────────────────────

func (s *fleetService) ListTypes(ctx context.Context) ([]dto.AircraftTypeResponse, error) {
	types, err := s.repo.Aircraft.ListTypes(ctx)
	if err != nil {
		s.logger.Error("列出机型失败", zap.Error(err))
		return nil, err
	}
	fallback := s.fallbackTAT(ctx)

	result := make([]dto.AircraftTypeResponse, 0, len(types))
	for i := range types {
		result = append(result, toAircraftTypeResponse(&types[i], fallback))
	}
	return result, nil
}

// ────────────────────── GetType ──────────────────────

func (s *fleetService) GetType(ctx context.Context, code string) (*dto.AircraftTypeResponse, error) {
	t, err := s.repo.Aircraft.GetTypeByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAircraftTypeNotFound
		}
		s.logger.Error("查询机型失败", zap.String("code", code), zap.Error(err))
		return nil, err
	}
	resp := toAircraftTypeResponse(t, s.fallbackTAT(ctx))
	return &resp, nil
}

// ────────────────────── UpdateTAT ──────────────────────

func (s *fleetService) UpdateTAT(ctx context.Context, code string, req *dto.UpdateTATRequest, callerID string) (*dto.AircraftTypeResponse, error) {
	combo, err := rotation.ParseCombo(req.Combo)
	if err != nil {
		return nil, ErrInvalidCombo
	}

	t, err := s.repo.Aircraft.GetTypeByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAircraftTypeNotFound
		}
		s.logger.Error("查询机型失败", zap.String("code", code), zap.Error(err))
		return nil, err
	}

	// 以客户端读取时的版本为准，过期则由乐观锁拒绝
	t.Version = req.Version
	*overrideField(t, combo) = req.Minutes
	t.UpdatedBy = &callerID

	if err := s.repo.Aircraft.UpdateTypeTAT(ctx, t); err != nil {
		s.logger.Warn("更新过站覆盖失败", zap.String("code", code), zap.String("combo", combo.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("更新过站覆盖",
		zap.String("code", code),
		zap.String("combo", combo.String()),
		zap.Any("minutes", req.Minutes),
		zap.String("operator", callerID),
	)
	resp := toAircraftTypeResponse(t, s.fallbackTAT(ctx))
	return &resp, nil
}

// ────────────────────── ListRegistrations ──────────────────────

func (s *fleetService) ListRegistrations(ctx context.Context, req *dto.RegistrationListRequest) ([]dto.RegistrationResponse, error) {
	regs, err := s.repo.Aircraft.ListRegistrations(ctx, req.Status)
	if err != nil {
		s.logger.Error("列出机尾失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.RegistrationResponse, 0, len(regs))
	for i := range regs {
		result = append(result, toRegistrationResponse(&regs[i]))
	}
	return result, nil
}

// ── 内部辅助方法 ──

func (s *fleetService) fallbackTAT(ctx context.Context) time.Duration {
	cfg, err := s.repo.SystemConfig.Get(ctx)
	if err != nil {
		s.logger.Warn("读取系统配置失败，使用默认过站时间", zap.Error(err))
		return rotation.DefaultFallbackTAT
	}
	return time.Duration(cfg.TATFallbackMinutes) * time.Minute
}

func overrideField(t *model.AircraftType, c rotation.Combo) **int {
	switch c {
	case rotation.ComboDI:
		return &t.TATDIOverride
	case rotation.ComboID:
		return &t.TATIDOverride
	case rotation.ComboII:
		return &t.TATIIOverride
	}
	return &t.TATDDOverride
}

// toRotationType 数据库机型 → 领域机型
func toRotationType(t *model.AircraftType) rotation.AircraftType {
	return rotation.AircraftType{
		Code:     t.Code,
		Family:   t.Family,
		Category: rotation.Category(t.Category),
		TAT: rotation.TATMatrix{
			Flat: t.TATDefault,
			Cells: [4]rotation.TATCell{
				rotation.ComboDD: {Default: t.TATDD, Override: t.TATDDOverride},
				rotation.ComboDI: {Default: t.TATDI, Override: t.TATDIOverride},
				rotation.ComboID: {Default: t.TATID, Override: t.TATIDOverride},
				rotation.ComboII: {Default: t.TATII, Override: t.TATIIOverride},
			},
		},
	}
}

func toAircraftTypeResponse(t *model.AircraftType, fallback time.Duration) dto.AircraftTypeResponse {
	rt := toRotationType(t)
	tat := rotation.NewTATModel([]rotation.AircraftType{rt}, fallback)

	cells := make(map[string]dto.TATCellResponse, 4)
	for c := rotation.ComboDD; c <= rotation.ComboII; c++ {
		cell := rt.TAT.Cells[c]
		cells[c.String()] = dto.TATCellResponse{
			Default:   cell.Default,
			Override:  cell.Override,
			Effective: int(tat.Lookup(t.Code, c) / time.Minute),
		}
	}
	return dto.AircraftTypeResponse{
		ID:       t.AircraftTypeID,
		Code:     t.Code,
		Name:     t.Name,
		Family:   t.Family,
		Category: t.Category,
		Flat:     t.TATDefault,
		TAT:      cells,
		Version:  t.Version,
	}
}

func toRegistrationResponse(r *model.AircraftRegistration) dto.RegistrationResponse {
	resp := dto.RegistrationResponse{
		ID:           r.RegistrationID,
		Registration: r.Registration,
		Status:       r.Status,
		HomeBase:     r.HomeBase,
	}
	if r.AircraftType != nil {
		resp.AircraftType = r.AircraftType.Code
	}
	return resp
}

// toRotationAircraft 数据库机尾 → 领域机尾；仅 active 状态可参与排机
func toRotationAircraft(r *model.AircraftRegistration) rotation.Aircraft {
	a := rotation.Aircraft{
		Registration: r.Registration,
		Active:       r.Status == "active",
		HomeBase:     r.HomeBase,
	}
	if r.AircraftType != nil {
		a.Type = r.AircraftType.Code
	}
	return a
}
