package dto

// ── 系统配置模块 DTO ──

// UpdateSystemConfigRequest 更新系统配置请求
type UpdateSystemConfigRequest struct {
	TATFallbackMinutes *int    `json:"tat_fallback_minutes" binding:"omitempty,min=1,max=600"`
	TightBufferMinutes *int    `json:"tight_buffer_minutes" binding:"omitempty,min=0,max=120"`
	DefaultStrategy    *string `json:"default_strategy"     binding:"omitempty,oneof=minimize-aircraft balance-hours"`
	DefaultWindowDays  *int    `json:"default_window_days"  binding:"omitempty,min=1,max=31"`
	MaxWindowDays      *int    `json:"max_window_days"      binding:"omitempty,min=1,max=62"`
}

// SystemConfigResponse 系统配置响应
type SystemConfigResponse struct {
	TATFallbackMinutes int    `json:"tat_fallback_minutes"`
	TightBufferMinutes int    `json:"tight_buffer_minutes"`
	DefaultStrategy    string `json:"default_strategy"`
	DefaultWindowDays  int    `json:"default_window_days"`
	MaxWindowDays      int    `json:"max_window_days"`
	UpdatedAt          string `json:"updated_at"`
}
