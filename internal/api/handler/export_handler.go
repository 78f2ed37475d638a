package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/vivimassa/horizon-sub000/internal/dto"
	"github.com/vivimassa/horizon-sub000/internal/service"
	"github.com/vivimassa/horizon-sub000/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportBoard 导出排机看板
// GET /api/v1/export/board?start=2026-01-05&days=7
func (h *ExportHandler) ExportBoard(c *gin.Context) {
	var q dto.BoardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportBoard(c.Request.Context(), &q)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename, contentTypeXLSX, buf.Bytes())
}

// ExportTailCalendar 导出单个机尾的日历
// GET /api/v1/export/registrations/:registration/calendar?start=2026-01-05&days=7
func (h *ExportHandler) ExportTailCalendar(c *gin.Context) {
	registration := c.Param("registration")
	if registration == "" {
		response.BadRequest(c, 10001, "注册号不能为空")
		return
	}

	var q dto.BoardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportTailCalendar(c.Request.Context(), registration, &q)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename, contentTypeICS, buf.Bytes())
}

// attachment 设置下载响应头
func attachment(c *gin.Context, filename, contentType string, data []byte) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, data)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRegistrationNotFound):
		response.NotFound(c, 26001, "机尾不存在")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		handleRotationError(c, err)
	}
}
