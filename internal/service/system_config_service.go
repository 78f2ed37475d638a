package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/vivimassa/horizon-sub000/internal/dto"
	"github.com/vivimassa/horizon-sub000/internal/model"
	"github.com/vivimassa/horizon-sub000/internal/repository"
	"github.com/vivimassa/horizon-sub000/internal/rotation"
)

// ── 系统配置模块业务错误 ──

var (
	ErrInvalidSystemConfig = errors.New("默认窗口天数不能超过窗口上限")
)

// SystemConfigService 系统配置业务接口
type SystemConfigService interface {
	Get(ctx context.Context) (*dto.SystemConfigResponse, error)
	Update(ctx context.Context, req *dto.UpdateSystemConfigRequest, callerID string) (*dto.SystemConfigResponse, error)
}

type systemConfigService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSystemConfigService 创建 SystemConfigService 实例
func NewSystemConfigService(repo *repository.Repository, logger *zap.Logger) SystemConfigService {
	return &systemConfigService{repo: repo, logger: logger}
}

// ────────────────────── Get ──────────────────────

func (s *systemConfigService) Get(ctx context.Context) (*dto.SystemConfigResponse, error) {
	cfg, err := s.repo.SystemConfig.Get(ctx)
	if err != nil {
		s.logger.Error("查询系统配置失败", zap.Error(err))
		return nil, err
	}
	return toSystemConfigResponse(cfg), nil
}

// ────────────────────── Update ──────────────────────

func (s *systemConfigService) Update(ctx context.Context, req *dto.UpdateSystemConfigRequest, callerID string) (*dto.SystemConfigResponse, error) {
	cfg, err := s.repo.SystemConfig.Get(ctx)
	if err != nil {
		s.logger.Error("查询系统配置失败", zap.Error(err))
		return nil, err
	}

	if req.TATFallbackMinutes != nil {
		cfg.TATFallbackMinutes = *req.TATFallbackMinutes
	}
	if req.TightBufferMinutes != nil {
		cfg.TightBufferMinutes = *req.TightBufferMinutes
	}
	if req.DefaultStrategy != nil {
		strategy, err := rotation.ParseStrategy(*req.DefaultStrategy)
		if err != nil {
			return nil, err
		}
		cfg.DefaultStrategy = string(strategy)
	}
	if req.DefaultWindowDays != nil {
		cfg.DefaultWindowDays = *req.DefaultWindowDays
	}
	if req.MaxWindowDays != nil {
		cfg.MaxWindowDays = *req.MaxWindowDays
	}
	if cfg.DefaultWindowDays > cfg.MaxWindowDays {
		return nil, ErrInvalidSystemConfig
	}

	cfg.UpdatedBy = &callerID

	if err := s.repo.SystemConfig.Update(ctx, cfg); err != nil {
		s.logger.Error("更新系统配置失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("更新系统配置", zap.String("operator", callerID))
	return toSystemConfigResponse(cfg), nil
}

func toSystemConfigResponse(cfg *model.SystemConfig) *dto.SystemConfigResponse {
	return &dto.SystemConfigResponse{
		TATFallbackMinutes: cfg.TATFallbackMinutes,
		TightBufferMinutes: cfg.TightBufferMinutes,
		DefaultStrategy:    cfg.DefaultStrategy,
		DefaultWindowDays:  cfg.DefaultWindowDays,
		MaxWindowDays:      cfg.MaxWindowDays,
		UpdatedAt:          cfg.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
