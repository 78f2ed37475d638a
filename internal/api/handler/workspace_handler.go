package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vivimassa/horizon-sub000/internal/dto"
	"github.com/vivimassa/horizon-sub000/internal/service"
	"github.com/vivimassa/horizon-sub000/internal/workspace"
	"github.com/vivimassa/horizon-sub000/pkg/response"
)

// WorkspaceHandler 排机工作区 HTTP 处理器
//
// 修改类接口立即返回本地计算后的看板（202），
// 服务端写入结果通过后续 GET 的 state / notices 体现。
type WorkspaceHandler struct {
	workspaceSvc service.WorkspaceService
}

// NewWorkspaceHandler 创建 WorkspaceHandler
func NewWorkspaceHandler(workspaceSvc service.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaceSvc: workspaceSvc}
}

// Create 创建工作区会话
// POST /api/v1/workspaces
func (h *WorkspaceHandler) Create(c *gin.Context) {
	var req dto.CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	ws, err := h.workspaceSvc.Create(c.Request.Context(), &req, caller)
	if err != nil {
		handleWorkspaceError(c, err)
		return
	}

	response.Created(c, ws)
}

// Get 获取工作区状态与看板
// GET /api/v1/workspaces/:id
func (h *WorkspaceHandler) Get(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	ws, err := h.workspaceSvc.Get(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		handleWorkspaceError(c, err)
		return
	}

	response.OK(c, ws)
}

// Delete 关闭工作区
// DELETE /api/v1/workspaces/:id
func (h *WorkspaceHandler) Delete(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.workspaceSvc.Delete(c.Request.Context(), c.Param("id"), caller); err != nil {
		handleWorkspaceError(c, err)
		return
	}

	response.OK(c, nil)
}

// SetWindow 切换可视窗口
// PUT /api/v1/workspaces/:id/window
func (h *WorkspaceHandler) SetWindow(c *gin.Context) {
	var req dto.WindowQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	ws, err := h.workspaceSvc.SetWindow(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		handleWorkspaceError(c, err)
		return
	}

	response.Accepted(c, ws)
}

// Refresh 重新拉取当前窗口
// POST /api/v1/workspaces/:id/refresh
func (h *WorkspaceHandler) Refresh(c *gin.Context) {
	h.mutate(c, func(caller service.Caller) (*dto.WorkspaceResponse, error) {
		return h.workspaceSvc.Refresh(c.Request.Context(), c.Param("id"), caller)
	})
}

// SetStrategy 切换自动排班策略
// PUT /api/v1/workspaces/:id/strategy
func (h *WorkspaceHandler) SetStrategy(c *gin.Context) {
	var req dto.StrategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	ws, err := h.workspaceSvc.SetStrategy(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		handleWorkspaceError(c, err)
		return
	}

	response.OK(c, ws)
}

// Assign 安排航班实例
// POST /api/v1/workspaces/:id/assign
func (h *WorkspaceHandler) Assign(c *gin.Context) {
	var req dto.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	h.mutate(c, func(caller service.Caller) (*dto.WorkspaceResponse, error) {
		return h.workspaceSvc.Assign(c.Request.Context(), c.Param("id"), &req, caller)
	})
}

// Unassign 取消安排
// POST /api/v1/workspaces/:id/unassign
func (h *WorkspaceHandler) Unassign(c *gin.Context) {
	var req dto.UnassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	h.mutate(c, func(caller service.Caller) (*dto.WorkspaceResponse, error) {
		return h.workspaceSvc.Unassign(c.Request.Context(), c.Param("id"), &req, caller)
	})
}

// Swap 互换机尾
// POST /api/v1/workspaces/:id/swap
func (h *WorkspaceHandler) Swap(c *gin.Context) {
	var req dto.SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	h.mutate(c, func(caller service.Caller) (*dto.WorkspaceResponse, error) {
		return h.workspaceSvc.Swap(c.Request.Context(), c.Param("id"), &req, caller)
	})
}

// Paste 复制源实例的注册号
// POST /api/v1/workspaces/:id/paste
func (h *WorkspaceHandler) Paste(c *gin.Context) {
	var req dto.PasteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	h.mutate(c, func(caller service.Caller) (*dto.WorkspaceResponse, error) {
		return h.workspaceSvc.Paste(c.Request.Context(), c.Param("id"), &req, caller)
	})
}

// Exclude 标记例外日期
// POST /api/v1/workspaces/:id/exclusions
func (h *WorkspaceHandler) Exclude(c *gin.Context) {
	var req dto.ExcludeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	h.mutate(c, func(caller service.Caller) (*dto.WorkspaceResponse, error) {
		return h.workspaceSvc.Exclude(c.Request.Context(), c.Param("id"), &req, caller)
	})
}

// Place 临时放置（不写入服务端）
// POST /api/v1/workspaces/:id/overrides
func (h *WorkspaceHandler) Place(c *gin.Context) {
	var req dto.OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	ws, err := h.workspaceSvc.Place(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		handleWorkspaceError(c, err)
		return
	}

	response.OK(c, ws)
}

// ClearOverride 撤销单个临时放置
// DELETE /api/v1/workspaces/:id/overrides/:key
func (h *WorkspaceHandler) ClearOverride(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	ws, err := h.workspaceSvc.ClearOverride(c.Request.Context(), c.Param("id"), c.Param("key"), caller)
	if err != nil {
		handleWorkspaceError(c, err)
		return
	}

	response.OK(c, ws)
}

// ResetOverrides 清空全部临时放置
// DELETE /api/v1/workspaces/:id/overrides
func (h *WorkspaceHandler) ResetOverrides(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	ws, err := h.workspaceSvc.ResetOverrides(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		handleWorkspaceError(c, err)
		return
	}

	response.OK(c, ws)
}

// CommitOverrides 将临时放置按注册号分批提交
// POST /api/v1/workspaces/:id/overrides/commit
func (h *WorkspaceHandler) CommitOverrides(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.workspaceSvc.CommitOverrides(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		handleWorkspaceError(c, err)
		return
	}

	response.Accepted(c, result)
}

// DismissNotice 关闭一条提示
// DELETE /api/v1/workspaces/:id/notices/:notice_id
func (h *WorkspaceHandler) DismissNotice(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	ws, err := h.workspaceSvc.DismissNotice(c.Request.Context(), c.Param("id"), c.Param("notice_id"), caller)
	if err != nil {
		handleWorkspaceError(c, err)
		return
	}

	response.OK(c, ws)
}

// mutate 写入类操作的公共流程，成功时返回 202
func (h *WorkspaceHandler) mutate(c *gin.Context, fn func(caller service.Caller) (*dto.WorkspaceResponse, error)) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	ws, err := fn(caller)
	if err != nil {
		handleWorkspaceError(c, err)
		return
	}

	response.Accepted(c, ws)
}

// handleWorkspaceError 统一处理工作区模块业务错误
func handleWorkspaceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workspace.ErrSessionNotFound):
		response.NotFound(c, 23001, "工作区不存在或已过期")
	case errors.Is(err, service.ErrWorkspaceForbidden):
		response.Forbidden(c, 23002, "无权访问该工作区")
	case errors.Is(err, workspace.ErrClosed):
		response.Error(c, http.StatusGone, 23003, "工作区已关闭")
	case errors.Is(err, workspace.ErrNoWindow):
		response.Conflict(c, 23004, "尚未选择可视窗口")
	case errors.Is(err, workspace.ErrEmptySelection):
		response.BadRequest(c, 23005, "未选择任何航班实例")
	case errors.Is(err, workspace.ErrUnknownOccurrence):
		response.UnprocessableEntity(c, 23006, "航班实例不在当前窗口中", err.Error())
	case errors.Is(err, workspace.ErrUnknownRegistration):
		response.UnprocessableEntity(c, 23007, "注册号不存在", err.Error())
	case errors.Is(err, workspace.ErrInactiveAircraft):
		response.UnprocessableEntity(c, 23008, "机尾已停用", err.Error())
	case errors.Is(err, workspace.ErrIncompatibleType):
		response.UnprocessableEntity(c, 23009, "机型不兼容", err.Error())
	case errors.Is(err, workspace.ErrSameRegistration):
		response.BadRequest(c, 23010, "交换双方不能是同一机尾")
	case errors.Is(err, workspace.ErrNothingToPaste):
		response.UnprocessableEntity(c, 23011, "源航班没有可复制的注册号", err.Error())
	default:
		handleRotationError(c, err)
	}
}
