package dto

// ── 机队模块 DTO ──

// UpdateTATRequest 设置或清除单个方向组合的过站覆盖值
type UpdateTATRequest struct {
	Combo   string `json:"combo"   binding:"required,oneof=dd di id ii"`
	Minutes *int   `json:"minutes" binding:"omitempty,min=0,max=1440"` // 为空表示清除覆盖
	Version int    `json:"version" binding:"required,min=1"`
}

// RegistrationListRequest 机尾列表查询参数
type RegistrationListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=active maintenance retired"`
}

// TATCellResponse 单个方向组合
type TATCellResponse struct {
	Default   *int `json:"default,omitempty"`
	Override  *int `json:"override,omitempty"`
	Effective int  `json:"effective"` // 实际生效的分钟数（含系统兜底）
}

// AircraftTypeResponse 机型信息响应
type AircraftTypeResponse struct {
	ID       string                     `json:"id"`
	Code     string                     `json:"code"`
	Name     string                     `json:"name,omitempty"`
	Family   string                     `json:"family,omitempty"`
	Category string                     `json:"category"`
	Flat     *int                       `json:"tat_default,omitempty"`
	TAT      map[string]TATCellResponse `json:"tat"` // dd | di | id | ii
	Version  int                        `json:"version"`
}

// RegistrationResponse 机尾信息响应
type RegistrationResponse struct {
	ID           string `json:"id"`
	Registration string `json:"registration"`
	AircraftType string `json:"aircraft_type"`
	Status       string `json:"status"`
	HomeBase     string `json:"home_base,omitempty"`
}
