package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/vivimassa/horizon-sub000/internal/rotation"
)

func TestStationDirectory_Classify(t *testing.T) {
	repo := newMockStationRepo()
	dir := NewStationDirectory(repo, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		dep, arr string
		want     rotation.RouteType
	}{
		{"SHA", "PEK", rotation.RouteDomestic},
		{"sha", "hkg", rotation.RouteInternational},
		{"SHA", "XXX", rotation.RouteUnknown},
	}
	for _, tt := range tests {
		if got := dir.Classify(ctx, tt.dep, tt.arr); got != tt.want {
			t.Errorf("%s-%s 期望 %q，实际: %q", tt.dep, tt.arr, tt.want, got)
		}
	}
	// 首次查询与未知航站各加载一次，未知结果随后被缓存
	if repo.calls != 2 {
		t.Errorf("期望加载 2 次，实际: %d", repo.calls)
	}
	dir.Country(ctx, "XXX")
	if repo.calls != 2 {
		t.Errorf("期望未知航站命中缓存，实际加载: %d", repo.calls)
	}

	dir.Invalidate()
	dir.Country(ctx, "PEK")
	if repo.calls != 3 {
		t.Errorf("期望清空缓存后重新加载，实际: %d", repo.calls)
	}
}

func TestStationDirectory_LoadErrorNotCached(t *testing.T) {
	repo := newMockStationRepo()
	repo.err = errors.New("db down")
	dir := NewStationDirectory(repo, zap.NewNop())
	ctx := context.Background()

	if _, ok := dir.Country(ctx, "PEK"); ok {
		t.Fatal("加载失败时不应返回结果")
	}
	repo.err = nil
	country, ok := dir.Country(ctx, "PEK")
	if !ok || country != "CN" {
		t.Errorf("期望恢复后返回 CN，实际: %q %v", country, ok)
	}
}
