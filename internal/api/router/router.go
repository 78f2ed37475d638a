package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vivimassa/horizon-sub000/config"
	"github.com/vivimassa/horizon-sub000/internal/api/handler"
	"github.com/vivimassa/horizon-sub000/internal/api/middleware"
	"github.com/vivimassa/horizon-sub000/pkg/jwt"
	"github.com/vivimassa/horizon-sub000/pkg/metrics"
	"github.com/vivimassa/horizon-sub000/pkg/redis"
)

// Deps 路由依赖；Redis 与指标均可为空（降级运行）
type Deps struct {
	Config   *config.Config
	Handler  *handler.Handler
	JWT      *jwt.Manager
	Redis    *redis.Client
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(d Deps) *gin.Engine {
	cfg, h := d.Config, d.Handler
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger, d.Metrics))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))

	// ── 健康检查与指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	planner := middleware.RoleAuth(jwt.RolePlanner)
	admin := middleware.RoleAuth(jwt.RoleAdmin)

	// ── API v1（全部需要认证）──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(d.JWT, d.Redis, d.Logger))
	if cfg.RateLimit.Enabled {
		v1.Use(middleware.RateLimit(d.Redis, cfg.RateLimit.Requests, cfg.RateLimit.Window, d.Logger))
	}
	{
		// 机队模块
		types := v1.Group("/aircraft-types")
		{
			types.GET("", h.Fleet.ListTypes)
			types.GET("/:code", h.Fleet.GetType)
			types.PUT("/:code/tat", planner, h.Fleet.UpdateTAT)
		}
		v1.GET("/registrations", h.Fleet.ListRegistrations)
		v1.POST("/stations/reload", admin, h.Fleet.ReloadStations)

		// 排机模块（服务端权威数据）
		rot := v1.Group("/rotation")
		{
			rot.GET("/window", h.Rotation.GetWindow)
			rot.GET("/board", h.Rotation.GetBoard)
			rot.POST("/assign", planner, h.Rotation.Assign)
			rot.POST("/unassign", planner, h.Rotation.Unassign)
			rot.POST("/swap", planner, h.Rotation.Swap)
			rot.POST("/exclusions", planner, h.Rotation.ExcludeDate)
			rot.GET("/change-logs", planner, h.Rotation.ListChangeLogs)
		}

		// 排机工作区（会话内乐观修改）
		ws := v1.Group("/workspaces", planner)
		{
			ws.POST("", h.Workspace.Create)
			ws.GET("/:id", h.Workspace.Get)
			ws.DELETE("/:id", h.Workspace.Delete)
			ws.PUT("/:id/window", h.Workspace.SetWindow)
			ws.POST("/:id/refresh", h.Workspace.Refresh)
			ws.PUT("/:id/strategy", h.Workspace.SetStrategy)
			ws.POST("/:id/assign", h.Workspace.Assign)
			ws.POST("/:id/unassign", h.Workspace.Unassign)
			ws.POST("/:id/swap", h.Workspace.Swap)
			ws.POST("/:id/paste", h.Workspace.Paste)
			ws.POST("/:id/exclusions", h.Workspace.Exclude)
			ws.POST("/:id/overrides", h.Workspace.Place)
			ws.DELETE("/:id/overrides", h.Workspace.ResetOverrides)
			ws.POST("/:id/overrides/commit", h.Workspace.CommitOverrides)
			ws.DELETE("/:id/overrides/:key", h.Workspace.ClearOverride)
			ws.DELETE("/:id/notices/:notice_id", h.Workspace.DismissNotice)
		}

		// 排机规则模块
		rules := v1.Group("/rotation-rules")
		{
			rules.GET("", h.RotationRule.ListRules)
			rules.GET("/:id", h.RotationRule.GetRule)
			rules.PUT("/:id", admin, h.RotationRule.UpdateRule)
		}

		// 系统配置模块
		systemConfig := v1.Group("/system-config")
		{
			systemConfig.GET("", h.SystemConfig.GetConfig)
			systemConfig.PUT("", admin, h.SystemConfig.UpdateConfig)
		}

		// 导出模块
		export := v1.Group("/export")
		{
			export.GET("/board", h.Export.ExportBoard)
			export.GET("/registrations/:registration/calendar", h.Export.ExportTailCalendar)
		}
	}

	return r
}
