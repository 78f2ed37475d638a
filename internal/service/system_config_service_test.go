package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/vivimassa/horizon-sub000/internal/dto"
)

func setupTestSystemConfigService() (SystemConfigService, *mockRepos) {
	repo, mocks := newMockRepos()
	return NewSystemConfigService(repo, zap.NewNop()), mocks
}

func TestSystemConfigService_Get_Defaults(t *testing.T) {
	svc, _ := setupTestSystemConfigService()

	result, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if result.TATFallbackMinutes != 45 || result.DefaultStrategy != "minimize-aircraft" {
		t.Errorf("默认配置不符合预期: %+v", result)
	}
}

func TestSystemConfigService_Update_Partial(t *testing.T) {
	svc, mocks := setupTestSystemConfigService()
	fallback := 50
	strategy := "balance-hours"

	result, err := svc.Update(context.Background(), &dto.UpdateSystemConfigRequest{
		TATFallbackMinutes: &fallback,
		DefaultStrategy:    &strategy,
	}, "admin-001")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.TATFallbackMinutes != 50 || result.DefaultStrategy != "balance-hours" {
		t.Errorf("更新结果不符合预期: %+v", result)
	}
	if result.TightBufferMinutes != 10 {
		t.Errorf("期望未传字段保持 10，实际: %d", result.TightBufferMinutes)
	}
	if mocks.config.cfg.UpdatedBy == nil || *mocks.config.cfg.UpdatedBy != "admin-001" {
		t.Error("期望记录更新人")
	}
}

func TestSystemConfigService_Update_DefaultExceedsMax(t *testing.T) {
	svc, _ := setupTestSystemConfigService()
	maxDays := 5

	_, err := svc.Update(context.Background(), &dto.UpdateSystemConfigRequest{MaxWindowDays: &maxDays}, "admin-001")
	if !errors.Is(err, ErrInvalidSystemConfig) {
		t.Errorf("期望 ErrInvalidSystemConfig，实际: %v", err)
	}
}
