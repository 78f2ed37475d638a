package workspace

import (
	"errors"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/vivimassa/horizon-sub000/pkg/metrics"
)

var ErrSessionNotFound = errors.New("工作区不存在或已过期")

// Factory 按会话 ID 创建工作区，实现需通过 WithID 使用该 ID，并追加 opts
type Factory func(id string, opts ...Option) *Workspace

// Manager 按会话 ID 持有工作区，空闲超时后自动关闭
type Manager struct {
	cache   *gocache.Cache
	ttl     time.Duration
	factory Factory
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewManager 创建会话管理器；ttl 为空闲过期时间
func NewManager(ttl time.Duration, factory Factory, logger *zap.Logger, m *metrics.Metrics) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	cleanup := ttl / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}
	mgr := &Manager{
		cache:   gocache.New(ttl, cleanup),
		ttl:     ttl,
		factory: factory,
		logger:  logger,
		metrics: m,
	}
	mgr.cache.OnEvicted(func(id string, v interface{}) {
		if ws, ok := v.(*Workspace); ok {
			ws.Close()
		}
		mgr.logger.Info("工作区已回收", zap.String("workspace", id))
		mgr.metrics.SetActiveWorkspaces(mgr.cache.ItemCount())
	})
	return mgr
}

// Create 新建会话，opts 透传给 Factory
func (m *Manager) Create(opts ...Option) *Workspace {
	ws := m.factory(uuid.New().String(), opts...)
	m.cache.Set(ws.ID(), ws, gocache.DefaultExpiration)
	m.metrics.SetActiveWorkspaces(m.cache.ItemCount())
	m.logger.Info("创建工作区", zap.String("workspace", ws.ID()), zap.String("owner", ws.Owner()))
	return ws
}

// Get 获取会话并续期。
// 续期与后台回收可能交错：回收关闭后又被 Set 写回的工作区在此移除，按不存在处理。
func (m *Manager) Get(id string) (*Workspace, error) {
	v, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	ws := v.(*Workspace)
	m.cache.Set(id, ws, gocache.DefaultExpiration)
	if ws.Closed() {
		m.cache.Delete(id)
		return nil, ErrSessionNotFound
	}
	return ws, nil
}

// Delete 关闭并移除会话
func (m *Manager) Delete(id string) error {
	if _, ok := m.cache.Get(id); !ok {
		return ErrSessionNotFound
	}
	m.cache.Delete(id)
	return nil
}

// Count 当前会话数
func (m *Manager) Count() int { return m.cache.ItemCount() }

// CloseAll 关闭全部会话，进程退出时调用
func (m *Manager) CloseAll() {
	for id := range m.cache.Items() {
		m.cache.Delete(id)
	}
}
