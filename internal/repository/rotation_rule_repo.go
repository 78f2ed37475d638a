package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/vivimassa/horizon-sub000/internal/model"
	pkgerrors "github.com/vivimassa/horizon-sub000/pkg/errors"
)

// RotationRuleRepository 排机规则数据访问接口
type RotationRuleRepository interface {
	GetByID(ctx context.Context, id string) (*model.RotationRule, error)
	GetByCode(ctx context.Context, code string) (*model.RotationRule, error)
	List(ctx context.Context) ([]model.RotationRule, error)
	// EnabledMap 返回 rule_code → is_enabled
	EnabledMap(ctx context.Context) (map[string]bool, error)
	// Update 乐观锁更新启用状态，rule.Version 为读取时的版本
	Update(ctx context.Context, rule *model.RotationRule) error
}

type rotationRuleRepo struct {
	db *gorm.DB
}

// NewRotationRuleRepo 创建 RotationRuleRepository 实例
func NewRotationRuleRepo(db *gorm.DB) RotationRuleRepository {
	return &rotationRuleRepo{db: db}
}

func (r *rotationRuleRepo) GetByID(ctx context.Context, id string) (*model.RotationRule, error) {
	var rule model.RotationRule
	if err := r.db.WithContext(ctx).Where("rule_id = ?", id).First(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *rotationRuleRepo) GetByCode(ctx context.Context, code string) (*model.RotationRule, error) {
	var rule model.RotationRule
	if err := r.db.WithContext(ctx).Where("rule_code = ?", code).First(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *rotationRuleRepo) List(ctx context.Context) ([]model.RotationRule, error) {
	var rules []model.RotationRule
	err := r.db.WithContext(ctx).Order("rule_code ASC").Find(&rules).Error
	return rules, err
}

func (r *rotationRuleRepo) EnabledMap(ctx context.Context) (map[string]bool, error) {
	rules, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]bool, len(rules))
	for _, rule := range rules {
		m[rule.RuleCode] = rule.IsEnabled
	}
	return m, nil
}

func (r *rotationRuleRepo) Update(ctx context.Context, rule *model.RotationRule) error {
	result := r.db.WithContext(ctx).Model(&model.RotationRule{}).
		Where("rule_id = ? AND version = ?", rule.RuleID, rule.Version).
		Updates(map[string]interface{}{
			"is_enabled": rule.IsEnabled,
			"updated_by": rule.UpdatedBy,
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	rule.Version++
	return nil
}
