package history

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core/attendance"
)

// SaveTimeLayout is the format of Record.SaveTime.
const SaveTimeLayout = "2006-01-02 15:04:05"

const keySep = "|"

var errInvalidKey = errors.New("invalid record key")

// Record is one student's status in a saved snapshot.
type Record struct {
	ID          int               `json:"id" db:"id"`
	StudentID   string            `json:"student_id" db:"student_id"`
	Status      attendance.Status `json:"status" db:"status"`
	SaveTime    string            `json:"save_time" db:"save_time"`
	ClassName   string            `json:"class_name" db:"class_name"`
	Name        string            `json:"name" db:"name"`
	Course      string            `json:"course" db:"course"`
	ClassroomID string            `json:"classroom_id" db:"classroom_id"`
	ClassTotal  int               `json:"class_total" db:"class_total"`
}

// Key identifies one saved snapshot.
type Key struct {
	Course      string `json:"course" form:"course"`
	SaveTime    string `json:"save_time" form:"save_time"`
	ClassroomID string `json:"classroom_id" form:"classroom_id"`
}

// String encodes the key for form values, see ParseKey.
func (k Key) String() string {
	return strings.Join([]string{k.Course, k.SaveTime, k.ClassroomID}, keySep)
}

func (k Key) IsZero() bool {
	return k.Course == "" || k.SaveTime == "" || k.ClassroomID == ""
}

// ParseKey decodes a "course|save_time|classroom_id" string.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, keySep)
	if len(parts) < 3 {
		return Key{}, errInvalidKey
	}
	// the course name may itself contain the separator
	n := len(parts)
	k := Key{
		Course:      strings.Join(parts[:n-2], keySep),
		SaveTime:    parts[n-2],
		ClassroomID: parts[n-1],
	}
	if k.IsZero() {
		return Key{}, errInvalidKey
	}
	return k, nil
}

// StatusCount is the number of records with a status inside a group, as returned by storage.
type StatusCount struct {
	Course      string            `db:"course"`
	SaveTime    string            `db:"save_time"`
	ClassroomID string            `db:"classroom_id"`
	ClassName   string            `db:"class_name"`
	Status      attendance.Status `db:"status"`
	Count       int               `db:"count"`
	ClassTotal  int               `db:"class_total"`
}

// Summary aggregates one (save_time, classroom, class) group of a course.
type Summary struct {
	Course      string
	SaveTime    string
	ClassroomID string
	ClassName   string
	Counts      map[attendance.Status]int
	Total       int // records in the group
	ClassTotal  int // roster size of the class when the snapshot was taken
}

func (s Summary) Key() Key {
	return Key{Course: s.Course, SaveTime: s.SaveTime, ClassroomID: s.ClassroomID}
}

func (s Summary) Signed() int { return s.Counts[attendance.StatusSigned] }

// Tally is the count of one status inside a Summary.
type Tally struct {
	Status attendance.Status
	Label  string
	Count  int
}

// Tallies returns the counts of every status, in display order.
func (s Summary) Tallies() []Tally {
	out := make([]Tally, 0, len(attendance.Statuses))
	for _, st := range attendance.Statuses {
		out = append(out, Tally{Status: st, Label: st.Label(), Count: s.Counts[st]})
	}
	return out
}

// summarize folds status counts into summaries, keeping the order groups first appear in.
func summarize(counts []StatusCount) []Summary {
	type groupKey struct{ saveTime, classroomID, className string }

	var sums []Summary
	idx := make(map[groupKey]int)
	for _, c := range counts {
		gk := groupKey{c.SaveTime, c.ClassroomID, c.ClassName}
		i, ok := idx[gk]
		if !ok {
			i = len(sums)
			idx[gk] = i
			sums = append(sums, Summary{
				Course:      c.Course,
				SaveTime:    c.SaveTime,
				ClassroomID: c.ClassroomID,
				ClassName:   c.ClassName,
				Counts:      make(map[attendance.Status]int, len(attendance.Statuses)),
			})
		}
		s := &sums[i]
		s.Counts[c.Status] += c.Count
		s.Total += c.Count
		if c.ClassTotal > s.ClassTotal {
			s.ClassTotal = c.ClassTotal
		}
	}
	return sums
}

// Block is a run of spreadsheet rows under one header row.
type Block struct {
	Header []string
	Rows   [][]string
}
