package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"uniloop/backend/internal/dto"
	"uniloop/backend/internal/service"
	apperrors "uniloop/backend/pkg/errors"
	"uniloop/backend/pkg/response"
	"uniloop/backend/pkg/timecodec"
)

// BookingHandler 教室预订模块 HTTP 处理器
type BookingHandler struct {
	bookingSvc service.BookingService
}

// NewBookingHandler 创建 BookingHandler
func NewBookingHandler(bookingSvc service.BookingService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc}
}

// CreateBooking 创建预订申请
// POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	booking, err := h.bookingSvc.Create(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.Created(c, booking)
}

// GetBooking 获取预订详情
// GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "预订ID不能为空")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	booking, err := h.bookingSvc.GetByID(c.Request.Context(), id, actor)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, booking)
}

// ListMyBookings 我发起的预订
// GET /api/v1/bookings/mine?status=
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	var req dto.BookingListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	bookings, err := h.bookingSvc.ListMine(c.Request.Context(), actor, req.Status)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, gin.H{"list": bookings})
}

// ListPendingBookings 待我裁决的预订
// GET /api/v1/bookings/pending
func (h *BookingHandler) ListPendingBookings(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	bookings, err := h.bookingSvc.ListPendingForMe(c.Request.Context(), actor)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, gin.H{"list": bookings})
}

// ApproveBooking 批准预订
// PATCH /api/v1/bookings/:id/approve
func (h *BookingHandler) ApproveBooking(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "预订ID不能为空")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	booking, err := h.bookingSvc.Approve(c.Request.Context(), id, actor)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, booking)
}

// RejectBooking 驳回预订
// PATCH /api/v1/bookings/:id/reject
func (h *BookingHandler) RejectBooking(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "预订ID不能为空")
		return
	}

	var req dto.RejectBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	booking, err := h.bookingSvc.Reject(c.Request.Context(), id, req.Reason, actor)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, booking)
}

// UpdateBooking 更新预订（仅申请人本人、pending 状态）
// PUT /api/v1/bookings/:id
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "预订ID不能为空")
		return
	}

	var req dto.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	booking, err := h.bookingSvc.Update(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, booking)
}

// DeleteBooking 删除预订（仅申请人本人）
// DELETE /api/v1/bookings/:id
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "预订ID不能为空")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.bookingSvc.Delete(c.Request.Context(), id, actor); err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleBookingError 统一处理预订模块业务错误
func (h *BookingHandler) handleBookingError(c *gin.Context, err error) {
	var conflictErr *service.ConflictError

	switch {
	case errors.As(err, &conflictErr):
		// 409 + 冲突明细，便于调用方改约其他时段
		response.ErrorWithData(c, http.StatusConflict, 14001, "该时段已被其他预订占用",
			dto.ConflictResponse{Conflicts: conflictErr.Conflicts})
	case errors.Is(err, service.ErrBookingNotFound):
		response.NotFound(c, 14002, "预订不存在")
	case errors.Is(err, service.ErrClassroomNotFound):
		response.NotFound(c, 13001, "教室不存在")
	case errors.Is(err, service.ErrNotAuthorized):
		response.Forbidden(c, 14003, "无权执行该操作")
	case errors.Is(err, service.ErrInvalidState):
		response.BadRequest(c, 14004, "预订状态不允许该操作")
	case errors.Is(err, service.ErrMissingReason):
		response.BadRequest(c, 14005, "驳回理由不能为空")
	case errors.Is(err, service.ErrDeciderNotFound):
		response.BadRequest(c, 14006, "被申请人不存在")
	case errors.Is(err, timecodec.ErrInvalidFormat):
		response.BadRequest(c, 14007, "时间格式无效")
	case errors.Is(err, timecodec.ErrInvalidInterval):
		response.BadRequest(c, 14008, "时间区间无效")
	case errors.Is(err, apperrors.ErrOptimisticLock):
		response.Conflict(c, 14009, "预订已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/booking_handler.go
