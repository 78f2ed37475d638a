package service

import (
	"context"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/vivimassa/horizon-sub000/internal/repository"
	"github.com/vivimassa/horizon-sub000/internal/rotation"
)

const (
	stationCacheTTL     = 10 * time.Minute
	stationCacheCleanup = 20 * time.Minute
)

// StationDirectory 航站查询与航段国内/国际分类
type StationDirectory interface {
	// Country 返回航站所属国家代码；未知航站返回 false
	Country(ctx context.Context, iata string) (string, bool)
	// Classify 两端同国为国内，不同国为国际，任一端未知时返回 RouteUnknown
	Classify(ctx context.Context, dep, arr string) rotation.RouteType
	// Invalidate 清空缓存，航站数据变更后调用
	Invalidate()
}

type stationDirectory struct {
	repo   repository.StationRepository
	cache  *gocache.Cache
	logger *zap.Logger

	mu sync.Mutex // 串行化整表加载
}

// NewStationDirectory 创建 StationDirectory 实例
func NewStationDirectory(repo repository.StationRepository, logger *zap.Logger) StationDirectory {
	return &stationDirectory{
		repo:   repo,
		cache:  gocache.New(stationCacheTTL, stationCacheCleanup),
		logger: logger,
	}
}

// 缓存值为国家代码；空串表示已确认不存在
func (d *stationDirectory) Country(ctx context.Context, iata string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(iata))
	if code == "" {
		return "", false
	}
	if v, ok := d.cache.Get(code); ok {
		country := v.(string)
		return country, country != ""
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if v, ok := d.cache.Get(code); ok {
		country := v.(string)
		return country, country != ""
	}

	stations, err := d.repo.List(ctx)
	if err != nil {
		// 加载失败不写入缓存，下次重试
		d.logger.Warn("加载航站列表失败", zap.Error(err))
		return "", false
	}
	for _, s := range stations {
		d.cache.Set(strings.ToUpper(s.IATACode), strings.ToUpper(s.CountryCode), gocache.DefaultExpiration)
	}
	if v, ok := d.cache.Get(code); ok {
		country := v.(string)
		return country, country != ""
	}
	d.cache.Set(code, "", gocache.DefaultExpiration)
	return "", false
}

func (d *stationDirectory) Classify(ctx context.Context, dep, arr string) rotation.RouteType {
	depCountry, ok := d.Country(ctx, dep)
	if !ok {
		return rotation.RouteUnknown
	}
	arrCountry, ok := d.Country(ctx, arr)
	if !ok {
		return rotation.RouteUnknown
	}
	if depCountry == arrCountry {
		return rotation.RouteDomestic
	}
	return rotation.RouteInternational
}

func (d *stationDirectory) Invalidate() {
	d.cache.Flush()
}
