package dto

// ── 排机模块 DTO ──

// BoardQuery 看板查询参数
type BoardQuery struct {
	WindowQuery
	Strategy string `form:"strategy" binding:"omitempty,oneof=minimize-aircraft balance-hours"`
}

// AssignRequest 将一组航班实例安排给指定机尾
type AssignRequest struct {
	Keys         []string `json:"keys"         binding:"required,min=1,dive,required"`
	Registration string   `json:"registration" binding:"required,max=10"`
}

// UnassignRequest 取消一组航班实例的安排
type UnassignRequest struct {
	Keys []string `json:"keys" binding:"required,min=1,dive,required"`
}

// SwapRequest 两组航班实例交换机尾：side_a → registration_b，side_b → registration_a
type SwapRequest struct {
	SideA         []string `json:"side_a"         binding:"required,min=1,dive,required"`
	RegistrationA string   `json:"registration_a" binding:"required,max=10"`
	SideB         []string `json:"side_b"         binding:"required,min=1,dive,required"`
	RegistrationB string   `json:"registration_b" binding:"required,max=10"`
}

// ExcludeRequest 将计划的某一天标记为例外日期
type ExcludeRequest struct {
	PatternID string `json:"pattern_id" binding:"required"`
	Date      string `json:"date"       binding:"required"`
	Reason    string `json:"reason"     binding:"omitempty,max=200"`
}

// ChangeLogListRequest 变更记录查询参数
type ChangeLogListRequest struct {
	PatternID    string `form:"pattern_id"`
	Registration string `form:"registration"`
	From         string `form:"from"`
	To           string `form:"to"`
	PaginationRequest
}

// ── 响应 ──

// PatternResponse 航班计划
type PatternResponse struct {
	ID                  string   `json:"id"`
	FlightNumber        string   `json:"flight_number"`
	DepStation          string   `json:"dep_station"`
	ArrStation          string   `json:"arr_station"`
	DepTime             string   `json:"dep_time"`
	ArrTime             string   `json:"arr_time"`
	Days                string   `json:"days"`
	ValidFrom           string   `json:"valid_from"`
	ValidTo             string   `json:"valid_to"`
	AircraftType        string   `json:"aircraft_type"`
	Status              string   `json:"status"`
	DefaultRegistration string   `json:"default_registration,omitempty"`
	RouteType           string   `json:"route_type,omitempty"`
	Exclusions          []string `json:"exclusions,omitempty"`
}

// AssignmentResponse 服务端已确认的逐日安排
type AssignmentResponse struct {
	Key          string `json:"key"`
	PatternID    string `json:"pattern_id"`
	Date         string `json:"date"`
	Registration string `json:"registration"`
}

// WindowResponse 窗口原始数据
type WindowResponse struct {
	Start       string                 `json:"start"`
	Days        int                    `json:"days"`
	Patterns    []PatternResponse      `json:"patterns"`
	Assignments []AssignmentResponse   `json:"assignments"`
	Aircraft    []RegistrationResponse `json:"aircraft"`
}

// OccurrenceResponse 航班实例及其解析结果
type OccurrenceResponse struct {
	Key          string `json:"key"`
	PatternID    string `json:"pattern_id"`
	Date         string `json:"date"`
	FlightNumber string `json:"flight_number"`
	DepStation   string `json:"dep_station"`
	ArrStation   string `json:"arr_station"`
	Departure    string `json:"departure"`
	Arrival      string `json:"arrival"`
	AircraftType string `json:"aircraft_type"`
	Registration string `json:"registration,omitempty"`
	Source       string `json:"source"`
	Pending      bool   `json:"pending,omitempty"`
}

// TailRowResponse 看板中一个机尾的一行
type TailRowResponse struct {
	Registration string               `json:"registration"`
	AircraftType string               `json:"aircraft_type,omitempty"`
	Active       bool                 `json:"active"`
	Legs         []OccurrenceResponse `json:"legs"`
}

// ConflictResponse 衔接冲突
type ConflictResponse struct {
	Registration    string `json:"registration"`
	Date            string `json:"date"`
	Kind            string `json:"kind"`
	Hard            bool   `json:"hard"`
	FirstKey        string `json:"first_key"`
	SecondKey       string `json:"second_key"`
	GapMinutes      int    `json:"gap_minutes"`
	RequiredMinutes int    `json:"required_minutes,omitempty"`
	Detail          string `json:"detail"`
}

// OverflowGroupResponse 按需求机型分组的未安排实例
type OverflowGroupResponse struct {
	AircraftType string               `json:"aircraft_type"`
	Occurrences  []OccurrenceResponse `json:"occurrences"`
}

// BoardResponse 看板快照
type BoardResponse struct {
	Start          string                  `json:"start"`
	Days           int                     `json:"days"`
	RequestedStart string                  `json:"requested_start,omitempty"`
	RequestedDays  int                     `json:"requested_days,omitempty"`
	Strategy       string                  `json:"strategy"`
	Rows           []TailRowResponse       `json:"rows"`
	Conflicts      []ConflictResponse      `json:"conflicts"`
	ConflictCounts map[string]int          `json:"conflict_counts"`
	Overflow       []OverflowGroupResponse `json:"overflow"`
	Pending        int                     `json:"pending"`
	Overrides      int                     `json:"overrides"`
	ComputedAt     string                  `json:"computed_at"`
}

// ChangeLogResponse 安排变更记录
type ChangeLogResponse struct {
	ID              string `json:"id"`
	BatchID         string `json:"batch_id"`
	PatternID       string `json:"pattern_id"`
	Date            string `json:"date"`
	ChangeType      string `json:"change_type"`
	OldRegistration string `json:"old_registration,omitempty"`
	NewRegistration string `json:"new_registration,omitempty"`
	OperatorID      string `json:"operator_id,omitempty"`
	CreatedAt       string `json:"created_at"`
}
