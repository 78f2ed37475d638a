package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/vivimassa/horizon-sub000/internal/dto"
	"github.com/vivimassa/horizon-sub000/internal/service"
	pkgerrors "github.com/vivimassa/horizon-sub000/pkg/errors"
	"github.com/vivimassa/horizon-sub000/pkg/response"
)

// RotationRuleHandler 排机规则模块 HTTP 处理器
type RotationRuleHandler struct {
	ruleSvc service.RotationRuleService
}

// NewRotationRuleHandler 创建 RotationRuleHandler
func NewRotationRuleHandler(ruleSvc service.RotationRuleService) *RotationRuleHandler {
	return &RotationRuleHandler{ruleSvc: ruleSvc}
}

// ListRules 获取排机规则列表
// GET /api/v1/rotation-rules
func (h *RotationRuleHandler) ListRules(c *gin.Context) {
	rules, err := h.ruleSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": rules})
}

// GetRule 获取排机规则详情
// GET /api/v1/rotation-rules/:id
func (h *RotationRuleHandler) GetRule(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "规则ID不能为空")
		return
	}

	rule, err := h.ruleSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleRuleError(c, err)
		return
	}

	response.OK(c, rule)
}

// UpdateRule 更新排机规则（启用/禁用）
// PUT /api/v1/rotation-rules/:id
func (h *RotationRuleHandler) UpdateRule(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "规则ID不能为空")
		return
	}

	var req dto.UpdateRotationRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	rule, err := h.ruleSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleRuleError(c, err)
		return
	}

	response.OK(c, rule)
}

// handleRuleError 统一处理排机规则模块业务错误
func (h *RotationRuleHandler) handleRuleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRotationRuleNotFound):
		response.NotFound(c, 24001, "排机规则不存在")
	case errors.Is(err, service.ErrRotationRuleNotConfigurable):
		response.BadRequest(c, 24002, "该规则不可配置")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 24003, pkgerrors.ErrOptimisticLock.Error())
	default:
		response.InternalError(c)
	}
}
