package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/vivimassa/horizon-sub000/internal/dto"
	"github.com/vivimassa/horizon-sub000/internal/service"
	pkgerrors "github.com/vivimassa/horizon-sub000/pkg/errors"
	"github.com/vivimassa/horizon-sub000/pkg/response"
)

// FleetHandler 机队模块 HTTP 处理器
type FleetHandler struct {
	fleetSvc service.FleetService
	stations service.StationDirectory
}

// NewFleetHandler 创建 FleetHandler
func NewFleetHandler(fleetSvc service.FleetService, stations service.StationDirectory) *FleetHandler {
	return &FleetHandler{fleetSvc: fleetSvc, stations: stations}
}

// ListTypes 获取机型列表（含过站时间矩阵）
// GET /api/v1/aircraft-types
func (h *FleetHandler) ListTypes(c *gin.Context) {
	types, err := h.fleetSvc.ListTypes(c.Request.Context())
	if err != nil {
		h.handleFleetError(c, err)
		return
	}

	response.OK(c, gin.H{"list": types})
}

// GetType 获取单个机型
// GET /api/v1/aircraft-types/:code
func (h *FleetHandler) GetType(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, 10001, "机型代码不能为空")
		return
	}

	t, err := h.fleetSvc.GetType(c.Request.Context(), code)
	if err != nil {
		h.handleFleetError(c, err)
		return
	}

	response.OK(c, t)
}

// UpdateTAT 设置或清除机型的过站覆盖值
// PUT /api/v1/aircraft-types/:code/tat
func (h *FleetHandler) UpdateTAT(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, 10001, "机型代码不能为空")
		return
	}

	var req dto.UpdateTATRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	t, err := h.fleetSvc.UpdateTAT(c.Request.Context(), code, &req, callerID)
	if err != nil {
		h.handleFleetError(c, err)
		return
	}

	response.OK(c, t)
}

// ListRegistrations 获取机尾列表
// GET /api/v1/registrations?status=active
func (h *FleetHandler) ListRegistrations(c *gin.Context) {
	var req dto.RegistrationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.fleetSvc.ListRegistrations(c.Request.Context(), &req)
	if err != nil {
		h.handleFleetError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ReloadStations 丢弃机场国家缓存，下次查询时重新加载
// POST /api/v1/stations/reload
func (h *FleetHandler) ReloadStations(c *gin.Context) {
	h.stations.Invalidate()
	response.OK(c, nil)
}

// handleFleetError 统一处理机队模块业务错误
func (h *FleetHandler) handleFleetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAircraftTypeNotFound):
		response.NotFound(c, 21001, "机型不存在")
	case errors.Is(err, service.ErrInvalidCombo):
		response.BadRequest(c, 21002, "过站方向组合无效")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 21003, pkgerrors.ErrOptimisticLock.Error())
	default:
		response.InternalError(c)
	}
}
