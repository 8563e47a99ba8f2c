package attendance

import "sort"

type Status string

const (
	StatusSigned        Status = "signed"
	StatusAbsent        Status = "absent"
	StatusSickLeave     Status = "sick-leave"
	StatusPersonalLeave Status = "personal-leave"
	StatusOfficialLeave Status = "official-leave"
	StatusLate          Status = "late"
	StatusEarlyLeave    Status = "early-leave"
)

// Statuses lists every status in display order.
var Statuses = []Status{
	StatusSigned,
	StatusAbsent,
	StatusSickLeave,
	StatusPersonalLeave,
	StatusOfficialLeave,
	StatusLate,
	StatusEarlyLeave,
}

var statusLabels = map[Status]string{
	StatusSigned:        "已签到",
	StatusAbsent:        "缺勤",
	StatusSickLeave:     "病假",
	StatusPersonalLeave: "事假",
	StatusOfficialLeave: "公假",
	StatusLate:          "迟到",
	StatusEarlyLeave:    "早退",
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the text shown to instructors for s.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Entry is the current status of one student in one classroom.
type Entry struct {
	StudentID   string `json:"student_id" db:"student_id"`
	ClassroomID string `json:"classroom_id" db:"classroom_id"`
	Status      Status `json:"status" db:"status"`
	SeatNumber  *int   `json:"seat_number" db:"seat_number"`
	Name        string `json:"name" db:"name"`
	ClassName   string `json:"class_name" db:"class_name"`
}

// EntryUpdate is one row of the bulk edit form.
type EntryUpdate struct {
	StudentID  string `json:"student_id"`
	Status     Status `json:"status"`
	SeatNumber *int   `json:"seat_number"`
}

// StudentStatus is a roster student with their current status in a classroom.
type StudentStatus struct {
	StudentID  string
	Name       string
	ClassName  string
	Status     Status
	SeatNumber *int
}

func sortStudentStatuses(rows []StudentStatus) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ClassName != rows[j].ClassName {
			return rows[i].ClassName < rows[j].ClassName
		}
		return rows[i].StudentID < rows[j].StudentID
	})
}

func intPtr(i int) *int { return &i }
