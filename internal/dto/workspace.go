package dto

// ── 工作区模块 DTO ──

// CreateWorkspaceRequest 创建会话，可同时选择初始窗口
type CreateWorkspaceRequest struct {
	Start    string `json:"start"`
	Days     int    `json:"days"     binding:"omitempty,min=1"`
	Strategy string `json:"strategy" binding:"omitempty,oneof=minimize-aircraft balance-hours"`
}

// PasteRequest 将源实例的注册号复制到目标实例
type PasteRequest struct {
	Source  string   `json:"source"  binding:"required"`
	Targets []string `json:"targets" binding:"required,min=1,dive,required"`
}

// OverrideRequest 仅在会话内生效的临时放置
type OverrideRequest struct {
	Key          string `json:"key"          binding:"required"`
	Registration string `json:"registration" binding:"required,max=10"`
}

// StrategyRequest 切换自动排班策略
type StrategyRequest struct {
	Strategy string `json:"strategy" binding:"required,oneof=minimize-aircraft balance-hours"`
}

// NoticeResponse 可恢复错误提示
type NoticeResponse struct {
	ID      string   `json:"id"`
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Keys    []string `json:"keys,omitempty"`
	At      string   `json:"at"`
}

// WorkspaceResponse 会话状态与当前看板
type WorkspaceResponse struct {
	ID      string           `json:"id"`
	State   string           `json:"state"`
	Version uint64           `json:"version"`
	Board   *BoardResponse   `json:"board,omitempty"`
	Notices []NoticeResponse `json:"notices"`
}

// CommitResponse 提交临时放置的结果
type CommitResponse struct {
	Committed int                `json:"committed"`
	Workspace *WorkspaceResponse `json:"workspace"`
}
