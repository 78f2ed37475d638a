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
)

// ── 排机规则模块业务错误 ──

var (
	ErrRotationRuleNotFound        = errors.New("排机规则不存在")
	ErrRotationRuleNotConfigurable = errors.New("该规则不可配置")
)

// RotationRuleService 排机规则业务接口
type RotationRuleService interface {
	GetByID(ctx context.Context, id string) (*dto.RotationRuleResponse, error)
	List(ctx context.Context) ([]dto.RotationRuleResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateRotationRuleRequest, callerID string) (*dto.RotationRuleResponse, error)
}

type rotationRuleService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRotationRuleService 创建 RotationRuleService 实例
func NewRotationRuleService(repo *repository.Repository, logger *zap.Logger) RotationRuleService {
	return &rotationRuleService{repo: repo, logger: logger}
}

// ────────────────────── GetByID ──────────────────────

func (s *rotationRuleService) GetByID(ctx context.Context, id string) (*dto.RotationRuleResponse, error) {
	rule, err := s.repo.RotationRule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRotationRuleNotFound
		}
		s.logger.Error("查询排机规则失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toRotationRuleResponse(rule), nil
}

// ────────────────────── List ──────────────────────

func (s *rotationRuleService) List(ctx context.Context) ([]dto.RotationRuleResponse, error) {
	rules, err := s.repo.RotationRule.List(ctx)
	if err != nil {
		s.logger.Error("列出排机规则失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.RotationRuleResponse, 0, len(rules))
	for i := range rules {
		result = append(result, *toRotationRuleResponse(&rules[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

// Update 规则变更在下一次窗口抓取时生效
func (s *rotationRuleService) Update(ctx context.Context, id string, req *dto.UpdateRotationRuleRequest, callerID string) (*dto.RotationRuleResponse, error) {
	rule, err := s.repo.RotationRule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRotationRuleNotFound
		}
		s.logger.Error("查询排机规则失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if !rule.IsConfigurable {
		return nil, ErrRotationRuleNotConfigurable
	}

	rule.IsEnabled = *req.IsEnabled
	rule.Version = req.Version
	rule.UpdatedBy = &callerID

	if err := s.repo.RotationRule.Update(ctx, rule); err != nil {
		s.logger.Warn("更新排机规则失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("更新排机规则",
		zap.String("rule_code", rule.RuleCode),
		zap.Bool("is_enabled", rule.IsEnabled),
		zap.String("operator", callerID),
	)
	rule.UpdatedAt = time.Now()
	return toRotationRuleResponse(rule), nil
}

func toRotationRuleResponse(rule *model.RotationRule) *dto.RotationRuleResponse {
	return &dto.RotationRuleResponse{
		ID:             rule.RuleID,
		RuleCode:       rule.RuleCode,
		RuleName:       rule.RuleName,
		Description:    rule.Description,
		IsEnabled:      rule.IsEnabled,
		IsConfigurable: rule.IsConfigurable,
		Version:        rule.Version,
		UpdatedAt:      rule.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
