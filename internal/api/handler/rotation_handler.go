package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/vivimassa/horizon-sub000/internal/dto"
	"github.com/vivimassa/horizon-sub000/internal/rotation"
	"github.com/vivimassa/horizon-sub000/internal/service"
	pkgerrors "github.com/vivimassa/horizon-sub000/pkg/errors"
	"github.com/vivimassa/horizon-sub000/pkg/response"
)

// RotationHandler 排机模块 HTTP 处理器（无会话的直接读写）
type RotationHandler struct {
	rotationSvc service.RotationService
}

// NewRotationHandler 创建 RotationHandler
func NewRotationHandler(rotationSvc service.RotationService) *RotationHandler {
	return &RotationHandler{rotationSvc: rotationSvc}
}

// GetWindow 获取窗口内的原始航班计划、逐日安排与机尾
// GET /api/v1/rotation/window?start=2026-01-05&days=7
func (h *RotationHandler) GetWindow(c *gin.Context) {
	var q dto.WindowQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	data, err := h.rotationSvc.GetWindow(c.Request.Context(), &q)
	if err != nil {
		handleRotationError(c, err)
		return
	}

	response.OK(c, data)
}

// GetBoard 计算一次看板快照
// GET /api/v1/rotation/board?start=2026-01-05&days=7&strategy=balance-hours
func (h *RotationHandler) GetBoard(c *gin.Context) {
	var q dto.BoardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	board, err := h.rotationSvc.GetBoard(c.Request.Context(), &q)
	if err != nil {
		handleRotationError(c, err)
		return
	}

	response.OK(c, board)
}

// Assign 将航班实例安排给机尾
// POST /api/v1/rotation/assign
func (h *RotationHandler) Assign(c *gin.Context) {
	var req dto.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	keys, err := service.ParseKeys(req.Keys)
	if err != nil {
		handleRotationError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.rotationSvc.Assign(c.Request.Context(), keys, req.Registration, callerID)
	if err != nil {
		handleRotationError(c, err)
		return
	}

	response.OK(c, result)
}

// Unassign 取消航班实例的安排
// POST /api/v1/rotation/unassign
func (h *RotationHandler) Unassign(c *gin.Context) {
	var req dto.UnassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	keys, err := service.ParseKeys(req.Keys)
	if err != nil {
		handleRotationError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.rotationSvc.Unassign(c.Request.Context(), keys, callerID)
	if err != nil {
		handleRotationError(c, err)
		return
	}

	response.OK(c, result)
}

// Swap 两组航班实例互换机尾
// POST /api/v1/rotation/swap
func (h *RotationHandler) Swap(c *gin.Context) {
	var req dto.SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	sideA, err := service.ParseKeys(req.SideA)
	if err != nil {
		handleRotationError(c, err)
		return
	}
	sideB, err := service.ParseKeys(req.SideB)
	if err != nil {
		handleRotationError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.rotationSvc.Swap(c.Request.Context(), sideA, req.RegistrationA, sideB, req.RegistrationB, callerID)
	if err != nil {
		handleRotationError(c, err)
		return
	}

	response.OK(c, result)
}

// ExcludeDate 将计划的某一天标记为例外日期
// POST /api/v1/rotation/exclusions
func (h *RotationHandler) ExcludeDate(c *gin.Context) {
	var req dto.ExcludeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	date, err := rotation.ParseDate(req.Date)
	if err != nil {
		response.BadRequest(c, 22008, "日期参数无效")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.rotationSvc.ExcludeDate(c.Request.Context(), req.PatternID, date, req.Reason, callerID)
	if err != nil {
		handleRotationError(c, err)
		return
	}

	response.OK(c, result)
}

// ListChangeLogs 分页查询安排变更记录
// GET /api/v1/rotation/change-logs?pattern_id=xxx&from=2026-01-01&to=2026-01-31
func (h *RotationHandler) ListChangeLogs(c *gin.Context) {
	var req dto.ChangeLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.rotationSvc.ListChangeLogs(c.Request.Context(), &req)
	if err != nil {
		handleRotationError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// handleRotationError 统一处理排机模块业务错误，工作区处理器同样复用
func handleRotationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, rotation.ErrInvalidWindow):
		response.BadRequest(c, 22001, err.Error())
	case errors.Is(err, service.ErrInvalidOccurrenceKey):
		response.BadRequest(c, 22002, err.Error())
	case errors.Is(err, service.ErrOccurrenceNotFound):
		response.UnprocessableEntity(c, 22003, "航班实例不存在", err.Error())
	case errors.Is(err, service.ErrPatternNotFound):
		response.NotFound(c, 22004, "航班计划不存在")
	case errors.Is(err, service.ErrRegistrationNotFound):
		response.UnprocessableEntity(c, 22005, "机尾不存在", err.Error())
	case errors.Is(err, service.ErrAircraftInactive):
		response.UnprocessableEntity(c, 22006, "机尾不在役", err.Error())
	case errors.Is(err, service.ErrTypeIncompatible):
		response.UnprocessableEntity(c, 22007, "机型不兼容", err.Error())
	case errors.Is(err, service.ErrInvalidDateParam):
		response.BadRequest(c, 22008, "日期参数无效")
	case errors.Is(err, service.ErrSwapOverlap):
		response.UnprocessableEntity(c, 22009, "交换参数冲突", err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 22010, pkgerrors.ErrOptimisticLock.Error())
	default:
		response.InternalError(c)
	}
}
