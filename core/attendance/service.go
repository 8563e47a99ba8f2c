package attendance

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core"
	"github.com/trezcool/checkin/core/classroom"
	"github.com/trezcool/checkin/core/roster"
)

var (
	// errors
	ErrGateClosed     = core.NewForbiddenError("签到未开始或已结束")
	ErrMissingStudent = core.NewValidationError(errors.New("缺少学号"), core.FieldError{Field: "student_id", Error: "缺少学号"})
	ErrUnknownStudent = core.NewValidationError(errors.New("学号未找到，请确认是否已导入名单"), core.FieldError{Field: "student_id", Error: "学号未找到"})
)

type (
	Repository interface {
		// UpsertEntry inserts the entry or overwrites the one of the same (student, classroom).
		UpsertEntry(ctx context.Context, e Entry) error
		QueryEntries(ctx context.Context, classroomID string) ([]Entry, error)
		// ReplaceEntries deletes every entry of the classroom and inserts entries, in one transaction.
		ReplaceEntries(ctx context.Context, classroomID string, entries []Entry) error
		DeleteEntries(ctx context.Context, classroomID string) (int, error)
	}

	Classrooms interface {
		Get(ctx context.Context, id string) (classroom.Classroom, error)
	}

	Roster interface {
		Get(ctx context.Context, studentID string) (roster.Student, error)
		ListByClass(ctx context.Context, classNames ...string) ([]roster.Student, error)
	}

	Service struct {
		repo   Repository
		rooms  Classrooms
		roster Roster
	}
)

func NewService(repo Repository, rooms Classrooms, students Roster) *Service {
	return &Service{repo: repo, rooms: rooms, roster: students}
}

// RecordScan marks the student as signed at seat. Nothing is written while the gate is closed.
func (svc *Service) RecordScan(ctx context.Context, studentID, classroomID string, seat int) (Entry, error) {
	room, err := svc.rooms.Get(ctx, classroomID)
	if err != nil {
		return Entry{}, errors.Wrap(err, "getting classroom")
	}
	if !room.CheckinOpen {
		return Entry{}, ErrGateClosed
	}

	studentID = core.CleanString(studentID)
	if studentID == "" {
		return Entry{}, ErrMissingStudent
	}
	stu, err := svc.roster.Get(ctx, studentID)
	if err != nil {
		if core.IsNotFound(err) {
			return Entry{}, ErrUnknownStudent
		}
		return Entry{}, errors.Wrap(err, "getting student")
	}

	e := Entry{
		StudentID:   stu.StudentID,
		ClassroomID: room.ID,
		Status:      StatusSigned,
		SeatNumber:  intPtr(seat),
		Name:        stu.Name,
		ClassName:   stu.ClassName,
	}
	if err := svc.repo.UpsertEntry(ctx, e); err != nil {
		return Entry{}, errors.Wrap(err, "upserting entry")
	}
	return e, nil
}

// ValidateUpdates checks every update against the classroom and returns one FieldError per bad row.
func ValidateUpdates(room classroom.Classroom, updates []EntryUpdate) []core.FieldError {
	var flds []core.FieldError
	seats := make(map[int]string)
	for _, u := range updates {
		if !u.Status.Valid() {
			flds = append(flds, core.FieldError{Field: u.StudentID, Error: fmt.Sprintf("未知状态 %q", u.Status)})
			continue
		}
		if u.Status != StatusSigned {
			continue
		}
		if u.SeatNumber == nil {
			flds = append(flds, core.FieldError{Field: u.StudentID, Error: "已签到学生必须填写座位号"})
			continue
		}
		seat := *u.SeatNumber
		if !room.ValidSeat(seat) {
			flds = append(flds, core.FieldError{
				Field: u.StudentID,
				Error: fmt.Sprintf("座位号 %d 超出范围 (1-%d)", seat, room.Capacity()),
			})
			continue
		}
		if other, taken := seats[seat]; taken {
			flds = append(flds, core.FieldError{
				Field: u.StudentID,
				Error: fmt.Sprintf("座位号 %d 已被 %s 占用", seat, other),
			})
			continue
		}
		seats[seat] = u.StudentID
	}
	return flds
}

// BulkUpdate replaces the classroom's entries with updates. Any invalid row rejects the whole batch.
// Students missing from the roster are dropped.
func (svc *Service) BulkUpdate(ctx context.Context, classroomID string, updates []EntryUpdate) (int, error) {
	room, err := svc.rooms.Get(ctx, classroomID)
	if err != nil {
		return 0, errors.Wrap(err, "getting classroom")
	}
	if flds := ValidateUpdates(room, updates); len(flds) > 0 {
		return 0, core.NewValidationError(nil, flds...)
	}

	students, err := svc.roster.ListByClass(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "listing students")
	}
	byID := make(map[string]roster.Student, len(students))
	for _, s := range students {
		byID[s.StudentID] = s
	}

	entries := make([]Entry, 0, len(updates))
	done := make(map[string]bool, len(updates))
	for _, u := range updates {
		stu, ok := byID[core.CleanString(u.StudentID)]
		if !ok || done[stu.StudentID] {
			continue
		}
		done[stu.StudentID] = true

		e := Entry{
			StudentID:   stu.StudentID,
			ClassroomID: room.ID,
			Status:      u.Status,
			Name:        stu.Name,
			ClassName:   stu.ClassName,
		}
		if u.Status == StatusSigned {
			e.SeatNumber = intPtr(*u.SeatNumber)
		}
		entries = append(entries, e)
	}

	if err := svc.repo.ReplaceEntries(ctx, room.ID, entries); err != nil {
		return 0, errors.Wrap(err, "replacing entries")
	}
	return len(entries), nil
}

func (svc *Service) Grid(ctx context.Context, classroomID string) (Grid, error) {
	room, err := svc.rooms.Get(ctx, classroomID)
	if err != nil {
		return Grid{}, errors.Wrap(err, "getting classroom")
	}
	entries, err := svc.repo.QueryEntries(ctx, room.ID)
	if err != nil {
		return Grid{}, errors.Wrap(err, "querying entries")
	}
	return BuildGrid(room, entries), nil
}

// Reset clears the classroom's entries and returns how many were removed.
func (svc *Service) Reset(ctx context.Context, classroomID string) (int, error) {
	if _, err := svc.rooms.Get(ctx, classroomID); err != nil {
		return 0, errors.Wrap(err, "getting classroom")
	}
	return svc.repo.DeleteEntries(ctx, classroomID)
}

func (svc *Service) Entries(ctx context.Context, classroomID string) ([]Entry, error) {
	return svc.repo.QueryEntries(ctx, classroomID)
}

// StudentView lists every roster student of the classes present in the classroom's entries,
// with their current status (absent when they have no entry).
func (svc *Service) StudentView(ctx context.Context, classroomID string) ([]StudentStatus, error) {
	return svc.EditSheet(ctx, classroomID, "")
}

// EditSheet returns the rows of the bulk edit form: students of className (or of the classes
// present in the classroom's entries when className is empty) merged with their current entry.
func (svc *Service) EditSheet(ctx context.Context, classroomID, className string) ([]StudentStatus, error) {
	room, err := svc.rooms.Get(ctx, classroomID)
	if err != nil {
		return nil, errors.Wrap(err, "getting classroom")
	}
	entries, err := svc.repo.QueryEntries(ctx, room.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying entries")
	}

	var classes []string
	if className = core.CleanString(className); className != "" {
		classes = []string{className}
	} else {
		seen := make(map[string]bool)
		for _, e := range entries {
			if e.ClassName != "" && !seen[e.ClassName] {
				seen[e.ClassName] = true
				classes = append(classes, e.ClassName)
			}
		}
		if len(classes) == 0 {
			return nil, nil
		}
	}

	students, err := svc.roster.ListByClass(ctx, classes...)
	if err != nil {
		return nil, errors.Wrap(err, "listing students")
	}

	byID := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byID[e.StudentID] = e
	}

	rows := make([]StudentStatus, 0, len(students))
	for _, s := range students {
		row := StudentStatus{StudentID: s.StudentID, Name: s.Name, ClassName: s.ClassName, Status: StatusAbsent}
		if e, ok := byID[s.StudentID]; ok {
			row.Status = e.Status
			row.SeatNumber = e.SeatNumber
		}
		rows = append(rows, row)
	}
	sortStudentStatuses(rows)
	return rows, nil
}
