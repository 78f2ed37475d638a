package dto

// ── 排机规则模块 DTO ──

// UpdateRotationRuleRequest 更新规则启用状态
type UpdateRotationRuleRequest struct {
	IsEnabled *bool `json:"is_enabled" binding:"required"`
	Version   int   `json:"version"    binding:"required,min=1"`
}

// RotationRuleResponse 排机规则信息响应
type RotationRuleResponse struct {
	ID             string `json:"id"`
	RuleCode       string `json:"rule_code"`
	RuleName       string `json:"rule_name"`
	Description    string `json:"description,omitempty"`
	IsEnabled      bool   `json:"is_enabled"`
	IsConfigurable bool   `json:"is_configurable"`
	Version        int    `json:"version"`
	UpdatedAt      string `json:"updated_at"`
}
