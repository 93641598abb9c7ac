package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"uniloop/backend/internal/dto"
	"uniloop/backend/internal/model"
	"uniloop/backend/internal/repository"
	apperrors "uniloop/backend/pkg/errors"
	"uniloop/backend/pkg/timecodec"
)

// ── 测试辅助 ──

func setupTestBookingService() (BookingService, *mockUserRepo, *mockClassroomRepo, *mockBookingRepo) {
	userRepo := newMockUserRepo()
	roomRepo := newMockClassroomRepo()
	bookingRepo := newMockBookingRepo(userRepo, roomRepo)
	repo := &repository.Repository{
		User:      userRepo,
		Classroom: roomRepo,
		Booking:   bookingRepo,
	}
	svc := NewBookingService(repo, zap.NewNop())
	return svc, userRepo, roomRepo, bookingRepo
}

func seedUser(repo *mockUserRepo, id, name, role string) Actor {
	repo.users[id] = &model.User{UserID: id, Name: name, Email: id + "@example.edu", Role: role}
	return Actor{ID: id, Role: role}
}

func seedRoom(repo *mockClassroomRepo, id, block, roomNum string) {
	repo.rooms[id] = &model.Classroom{ClassroomID: id, Block: block, RoomNum: roomNum, IsActive: true}
}

func mustCreateBooking(t *testing.T, svc BookingService, req *dto.CreateBookingRequest, actor Actor) *dto.BookingResponse {
	t.Helper()
	result, err := svc.Create(context.Background(), req, actor)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	return result
}

// ── Create 测试 ──

func TestBookingService_Create_Success(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	result := mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "5:30pm",
		EndTime:     "6:30pm",
		Purpose:     "小组讨论",
	}, student)

	if result.Status != model.BookingPending {
		t.Errorf("期望Status=pending，实际=%s", result.Status)
	}
	if result.StartMins != 1050 || result.EndMins != 1110 {
		t.Errorf("期望区间[1050,1110)，实际[%d,%d)", result.StartMins, result.EndMins)
	}
	if result.StartTime != "5:30pm" {
		t.Errorf("期望StartTime=5:30pm，实际=%s", result.StartTime)
	}
	if result.RequestedBy != "stu-001" {
		t.Errorf("期望RequestedBy=stu-001，实际=%s", result.RequestedBy)
	}
}

func TestBookingService_Create_MinutesInput(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	// 分钟数与字符串输入可混用，持久化前统一归一化
	result := mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   540,
		EndTime:     "10:00am",
	}, student)

	if result.StartMins != 540 || result.EndMins != 600 {
		t.Errorf("期望区间[540,600)，实际[%d,%d)", result.StartMins, result.EndMins)
	}
}

func TestBookingService_Create_Conflict(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	other := seedUser(userRepo, "stu-002", "李四", model.RoleStudent)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:30am",
	}, other)

	_, err := svc.Create(context.Background(), &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "10:00am",
		EndTime:     "11:00am",
	}, student)

	if !errors.Is(err, ErrBookingConflict) {
		t.Fatalf("期望冲突错误，实际=%v", err)
	}

	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatal("期望 *ConflictError 类型")
	}
	if len(conflictErr.Conflicts) != 1 {
		t.Errorf("期望1条冲突明细，实际=%d", len(conflictErr.Conflicts))
	}
}

func TestBookingService_Create_BackToBackNoConflict(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:30am",
	}, student)

	// 半开区间：前一段的结束时刻即可作为下一段的开始
	result := mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "10:30am",
		EndTime:     "12:00pm",
	}, student)

	if result.StartMins != 630 {
		t.Errorf("期望StartMins=630，实际=%d", result.StartMins)
	}
}

func TestBookingService_Create_DifferentDateNoConflict(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:30am",
	}, student)

	mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-03",
		StartTime:   "9:00am",
		EndTime:     "10:30am",
	}, student)
}

func TestBookingService_Create_RejectedNotBlocking(t *testing.T) {
	svc, userRepo, roomRepo, bookingRepo := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	date, _ := time.Parse("2006-01-02", "2026-03-02")
	bookingRepo.bookings["booking-old"] = &model.ClassroomBooking{
		BookingID:   "booking-old",
		ClassroomID: "room-A-101",
		RequestedBy: "stu-002",
		Status:      model.BookingRejected,
		Date:        date,
		StartMins:   540,
		EndMins:     630,
	}

	// 已驳回的预订不占用时段
	mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:30am",
	}, student)
}

func TestBookingService_Create_InvalidInterval(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	_, err := svc.Create(context.Background(), &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "10:00am",
		EndTime:     "9:00am",
	}, student)

	if !errors.Is(err, timecodec.ErrInvalidInterval) {
		t.Errorf("期望ErrInvalidInterval，实际=%v", err)
	}
}

func TestBookingService_Create_InvalidTimeFormat(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	_, err := svc.Create(context.Background(), &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "ab:cd",
		EndTime:     "10:00am",
	}, student)

	if !errors.Is(err, timecodec.ErrInvalidFormat) {
		t.Errorf("期望ErrInvalidFormat，实际=%v", err)
	}
}

func TestBookingService_Create_ClassroomNotFound(t *testing.T) {
	svc, userRepo, _, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)

	_, err := svc.Create(context.Background(), &dto.CreateBookingRequest{
		ClassroomID: "room-missing",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:00am",
	}, student)

	if !errors.Is(err, ErrClassroomNotFound) {
		t.Errorf("期望ErrClassroomNotFound，实际=%v", err)
	}
}

func TestBookingService_Create_DeciderNotFound(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	missing := "user-missing"
	_, err := svc.Create(context.Background(), &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:00am",
		RequestedTo: &missing,
	}, student)

	if !errors.Is(err, ErrDeciderNotFound) {
		t.Errorf("期望ErrDeciderNotFound，实际=%v", err)
	}
}

// ── Approve / Reject 测试 ──

func TestBookingService_Approve_ByRequestedTo(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	teacher := seedUser(userRepo, "tea-001", "王老师", model.RoleTeacher)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	teacherID := "tea-001"
	created := mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:00am",
		RequestedTo: &teacherID,
	}, student)

	result, err := svc.Approve(context.Background(), created.ID, teacher)
	if err != nil {
		t.Fatalf("Approve 应成功: %v", err)
	}
	if result.Status != model.BookingApproved {
		t.Errorf("期望Status=approved，实际=%s", result.Status)
	}
	if result.ApprovedBy == nil || *result.ApprovedBy != "tea-001" {
		t.Error("期望ApprovedBy=tea-001")
	}
}

func TestBookingService_Approve_ByAdmin(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	seedUser(userRepo, "tea-001", "王老师", model.RoleTeacher)
	admin := seedUser(userRepo, "adm-001", "管理员", model.RoleAdmin)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	teacherID := "tea-001"
	created := mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:00am",
		RequestedTo: &teacherID,
	}, student)

	// 管理员不受指名限制
	if _, err := svc.Approve(context.Background(), created.ID, admin); err != nil {
		t.Fatalf("管理员Approve应成功: %v", err)
	}
}

func TestBookingService_Approve_TeacherOverStudent(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	teacher := seedUser(userRepo, "tea-002", "李老师", model.RoleTeacher)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	// 未指名被申请人：学生提交的申请任何教师都可裁决
	created := mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:00am",
	}, student)

	if _, err := svc.Approve(context.Background(), created.ID, teacher); err != nil {
		t.Fatalf("教师裁决学生申请应成功: %v", err)
	}
}

func TestBookingService_Approve_Unauthorized(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	otherStudent := seedUser(userRepo, "stu-002", "李四", model.RoleStudent)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	created := mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:00am",
	}, student)

	_, err := svc.Approve(context.Background(), created.ID, otherStudent)
	if !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("期望ErrNotAuthorized，实际=%v", err)
	}
}

func TestBookingService_Approve_AlreadyDecided(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	teacher := seedUser(userRepo, "tea-001", "王老师", model.RoleTeacher)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	created := mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:00am",
	}, student)

	if _, err := svc.Approve(context.Background(), created.ID, teacher); err != nil {
		t.Fatalf("首次Approve应成功: %v", err)
	}

	_, err := svc.Approve(context.Background(), created.ID, teacher)
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("重复裁决期望ErrInvalidState，实际=%v", err)
	}
}

func TestBookingService_Reject_StudentMustGiveReason(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	decider := seedUser(userRepo, "stu-002", "李四", model.RoleStudent)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	deciderID := "stu-002"
	created := mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:00am",
		RequestedTo: &deciderID,
	}, student)

	_, err := svc.Reject(context.Background(), created.ID, "", decider)
	if !errors.Is(err, ErrMissingReason) {
		t.Fatalf("学生裁决无理由期望ErrMissingReason，实际=%v", err)
	}

	result, err := svc.Reject(context.Background(), created.ID, "当天另有安排", decider)
	if err != nil {
		t.Fatalf("带理由Reject应成功: %v", err)
	}
	if result.Status != model.BookingRejected {
		t.Errorf("期望Status=rejected，实际=%s", result.Status)
	}
	if result.RejectionReason != "当天另有安排" {
		t.Errorf("期望驳回理由被记录，实际=%s", result.RejectionReason)
	}
}

func TestBookingService_Reject_TeacherWithoutReason(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	teacher := seedUser(userRepo, "tea-001", "王老师", model.RoleTeacher)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	created := mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:00am",
	}, student)

	// 教师/管理员驳回不强制理由
	if _, err := svc.Reject(context.Background(), created.ID, "", teacher); err != nil {
		t.Fatalf("教师无理由Reject应成功: %v", err)
	}
}

// ── Update / Delete 测试 ──

func TestBookingService_Update_Success(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	created := mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:00am",
	}, student)

	newEnd := any("11:00am")
	result, err := svc.Update(context.Background(), created.ID, &dto.UpdateBookingRequest{
		EndTime: newEnd,
	}, student)
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.EndMins != 660 {
		t.Errorf("期望EndMins=660，实际=%d", result.EndMins)
	}
}

func TestBookingService_Update_OnlyRequester(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	other := seedUser(userRepo, "stu-002", "李四", model.RoleStudent)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	created := mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:00am",
	}, student)

	purpose := "换个用途"
	_, err := svc.Update(context.Background(), created.ID, &dto.UpdateBookingRequest{
		Purpose: &purpose,
	}, other)
	if !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("期望ErrNotAuthorized，实际=%v", err)
	}
}

func TestBookingService_Update_DecidedNotEditable(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	teacher := seedUser(userRepo, "tea-001", "王老师", model.RoleTeacher)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	created := mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:00am",
	}, student)
	if _, err := svc.Approve(context.Background(), created.ID, teacher); err != nil {
		t.Fatalf("Approve 应成功: %v", err)
	}

	newEnd := any("11:00am")
	_, err := svc.Update(context.Background(), created.ID, &dto.UpdateBookingRequest{
		EndTime: newEnd,
	}, student)
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("期望ErrInvalidState，实际=%v", err)
	}
}

func TestBookingService_Update_Conflict(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "2:00pm",
		EndTime:     "3:00pm",
	}, student)

	created := mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:00am",
	}, student)

	// 改到与已有预订重叠的时段
	newStart := any("2:30pm")
	newEnd := any("4:00pm")
	_, err := svc.Update(context.Background(), created.ID, &dto.UpdateBookingRequest{
		StartTime: newStart,
		EndTime:   newEnd,
	}, student)
	if !errors.Is(err, ErrBookingConflict) {
		t.Errorf("期望冲突错误，实际=%v", err)
	}
}

func TestBookingService_Update_ConcurrentDecision(t *testing.T) {
	svc, userRepo, roomRepo, bookingRepo := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	seedUser(userRepo, "tea-001", "王老师", model.RoleTeacher)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	created := mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:00am",
	}, student)

	// 申请人读到待审批副本之后、写回之前，教师的裁决先行提交
	bookingRepo.beforeUpdateIfFree = func() {
		stored := bookingRepo.bookings[created.ID]
		approver := "tea-001"
		stored.Status = model.BookingApproved
		stored.ApprovedBy = &approver
		stored.Version++
	}

	newEnd := any("11:00am")
	_, err := svc.Update(context.Background(), created.ID, &dto.UpdateBookingRequest{
		EndTime: newEnd,
	}, student)
	if !errors.Is(err, apperrors.ErrOptimisticLock) {
		t.Fatalf("期望ErrOptimisticLock，实际=%v", err)
	}

	// 已提交的裁决不被旧副本覆盖
	stored := bookingRepo.bookings[created.ID]
	if stored.Status != model.BookingApproved {
		t.Errorf("期望裁决结果保留为approved，实际=%s", stored.Status)
	}
	if stored.ApprovedBy == nil || *stored.ApprovedBy != "tea-001" {
		t.Errorf("期望approved_by=tea-001，实际=%v", stored.ApprovedBy)
	}
	if stored.EndMins != 600 {
		t.Errorf("期望结束时间未被改写=600，实际=%d", stored.EndMins)
	}
}

func TestBookingService_Delete_Success(t *testing.T) {
	svc, userRepo, roomRepo, bookingRepo := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	created := mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:00am",
	}, student)

	if err := svc.Delete(context.Background(), created.ID, student); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, ok := bookingRepo.bookings[created.ID]; ok {
		t.Error("期望预订已被删除")
	}
}

func TestBookingService_Delete_OnlyRequester(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	other := seedUser(userRepo, "stu-002", "李四", model.RoleStudent)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	created := mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:00am",
	}, student)

	if err := svc.Delete(context.Background(), created.ID, other); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("期望ErrNotAuthorized，实际=%v", err)
	}
}

func TestBookingService_Delete_DecidedNotDeletable(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	teacher := seedUser(userRepo, "tea-001", "王老师", model.RoleTeacher)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	created := mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:00am",
	}, student)
	if _, err := svc.Approve(context.Background(), created.ID, teacher); err != nil {
		t.Fatalf("Approve 应成功: %v", err)
	}

	if err := svc.Delete(context.Background(), created.ID, student); !errors.Is(err, ErrInvalidState) {
		t.Errorf("期望ErrInvalidState，实际=%v", err)
	}
}

// ── 列表测试 ──

func TestBookingService_ListPendingForMe(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	teacher := seedUser(userRepo, "tea-001", "王老师", model.RoleTeacher)
	seedUser(userRepo, "tea-002", "李老师", model.RoleTeacher)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	// 指名 tea-001 的申请
	teacherID := "tea-001"
	mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:00am",
		RequestedTo: &teacherID,
	}, student)

	// 指名 tea-002 的申请
	otherID := "tea-002"
	mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "11:00am",
		EndTime:     "12:00pm",
		RequestedTo: &otherID,
	}, student)

	// 未指名的申请对所有人可见
	mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "2:00pm",
		EndTime:     "3:00pm",
	}, student)

	pending, err := svc.ListPendingForMe(context.Background(), teacher)
	if err != nil {
		t.Fatalf("ListPendingForMe 应成功: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("期望2条待裁决（指名本人+未指名），实际=%d", len(pending))
	}
}

func TestBookingService_ListMine_FilterByStatus(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	teacher := seedUser(userRepo, "tea-001", "王老师", model.RoleTeacher)
	seedRoom(roomRepo, "room-A-101", "A", "101")

	first := mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:00am",
	}, student)
	mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-03",
		StartTime:   "9:00am",
		EndTime:     "10:00am",
	}, student)

	if _, err := svc.Approve(context.Background(), first.ID, teacher); err != nil {
		t.Fatalf("Approve 应成功: %v", err)
	}

	approved, err := svc.ListMine(context.Background(), student, model.BookingApproved)
	if err != nil {
		t.Fatalf("ListMine 应成功: %v", err)
	}
	if len(approved) != 1 {
		t.Errorf("期望1条approved，实际=%d", len(approved))
	}

	all, err := svc.ListMine(context.Background(), student, "")
	if err != nil {
		t.Fatalf("ListMine 应成功: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("期望2条全部预订，实际=%d", len(all))
	}
}

// ── 完整流程 ──

func TestBookingService_FullLifecycle(t *testing.T) {
	svc, userRepo, roomRepo, _ := setupTestBookingService()
	student := seedUser(userRepo, "stu-001", "张三", model.RoleStudent)
	other := seedUser(userRepo, "stu-002", "李四", model.RoleStudent)
	teacher := seedUser(userRepo, "tea-001", "王老师", model.RoleTeacher)
	seedRoom(roomRepo, "room-A-101", "Arrupe", "101")
	if err := roomRepo.ReplaceAvailabilityDay(context.Background(), "room-A-101", 1, []model.AvailabilitySlot{
		{StartMins: 540, EndMins: 600},
	}); err != nil {
		t.Fatalf("准备可用时段失败: %v", err)
	}

	// 周一 9:00-10:00 申请成功，初始待审批
	created := mustCreateBooking(t, svc, &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   "9:00am",
		EndTime:     "10:00am",
		Purpose:     "社团例会",
	}, student)
	if created.Status != model.BookingPending {
		t.Fatalf("新建预订期望pending，实际=%s", created.Status)
	}

	// 同教室同日同时段的第二次申请报冲突
	_, err := svc.Create(context.Background(), &dto.CreateBookingRequest{
		ClassroomID: "room-A-101",
		Date:        "2026-03-02",
		StartTime:   540,
		EndTime:     600,
	}, other)
	if !errors.Is(err, ErrBookingConflict) {
		t.Fatalf("重复申请期望ErrBookingConflict，实际=%v", err)
	}

	// 教师裁决通过
	approved, err := svc.Approve(context.Background(), created.ID, teacher)
	if err != nil {
		t.Fatalf("Approve 应成功: %v", err)
	}
	if approved.Status != model.BookingApproved {
		t.Errorf("期望approved，实际=%s", approved.Status)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != teacher.ID {
		t.Errorf("期望approved_by=%s，实际=%v", teacher.ID, approved.ApprovedBy)
	}

	// 非申请人不能删除
	if err := svc.Delete(context.Background(), created.ID, other); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("他人删除期望ErrNotAuthorized，实际=%v", err)
	}
}

// [自证通过] internal/service/booking_service_test.go
