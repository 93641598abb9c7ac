package dto

// ── 教室模块 DTO ──

// CreateClassroomRequest 创建教室请求
type CreateClassroomRequest struct {
	Block   string `json:"block"    binding:"required,min=1,max=50"`
	RoomNum string `json:"room_num" binding:"required,min=1,max=20"`
}

// UpdateClassroomRequest 更新教室请求
type UpdateClassroomRequest struct {
	Block    *string `json:"block"    binding:"omitempty,min=1,max=50"`
	RoomNum  *string `json:"room_num" binding:"omitempty,min=1,max=20"`
	IsActive *bool   `json:"is_active"`
}

// SlotInput 模板时段输入
// start_time / end_time 接受分钟数或时间字符串（"9:00am" / "17:30"）
type SlotInput struct {
	StartTime any `json:"start_time" binding:"required"`
	EndTime   any `json:"end_time"   binding:"required"`
}

// SetAvailabilityRequest 设置某星期几的可用时段（整体替换）
type SetAvailabilityRequest struct {
	Slots []SlotInput `json:"slots" binding:"required,dive"`
}

// ClassroomListRequest 教室目录查询参数
// 提供 date+time 时，按该时刻标注/过滤空闲教室
type ClassroomListRequest struct {
	Block           string `form:"block"`
	Date            string `form:"date" binding:"omitempty,datetime=2006-01-02"`
	Time            string `form:"time"`
	IncludeOccupied bool   `form:"include_occupied"`
}

// SlotResponse 模板时段响应（分钟值 + 经时间编解码渲染的展示串）
type SlotResponse struct {
	ID         string  `json:"id,omitempty"`
	StartMins  int     `json:"start_mins"`
	EndMins    int     `json:"end_mins"`
	StartTime  string  `json:"start_time"` // "9:00am"
	EndTime    string  `json:"end_time"`   // "10:00am"
	Occupied   bool    `json:"occupied"`
	OccupantID *string `json:"occupant_id,omitempty"`
	// 目录查询提供 date+time 时标注该时刻是否空闲
	FreeAtInstant *bool `json:"free_at_instant,omitempty"`
}

// AvailabilityDayResponse 某星期几的可用性响应
type AvailabilityDayResponse struct {
	Weekday int            `json:"weekday"` // 0=周日..6=周六
	Slots   []SlotResponse `json:"slots"`
}

// ClassroomResponse 教室信息响应
type ClassroomResponse struct {
	ID           string                    `json:"id"`
	Block        string                    `json:"block"`
	RoomNum      string                    `json:"room_num"`
	IsActive     bool                      `json:"is_active"`
	Availability []AvailabilityDayResponse `json:"availability,omitempty"`
	CreatedAt    string                    `json:"created_at"`
	UpdatedAt    string                    `json:"updated_at"`
}

// BlockGroupResponse 按楼座分组的目录条目
type BlockGroupResponse struct {
	Block      string              `json:"block"`
	Classrooms []ClassroomResponse `json:"classrooms"`
}

// [自证通过] internal/dto/classroom.go
