package roster

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core"
)

const utf8BOM = "\ufeff"

// ParseCSV reads `student_id,name,class_name` rows.
// A leading BOM is ignored; short rows and rows with an empty cell are skipped.
func ParseCSV(r io.Reader) ([]NewStudent, error) {
	rdr := csv.NewReader(r)
	rdr.FieldsPerRecord = -1
	rdr.TrimLeadingSpace = true

	var students []NewStudent
	first := true
	for {
		rec, err := rdr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, core.NewValidationError(errors.Wrap(err, "文件格式错误"))
		}
		if first {
			if len(rec) > 0 {
				rec[0] = strings.TrimPrefix(rec[0], utf8BOM)
			}
			first = false
		}
		if len(rec) < 3 {
			continue
		}

		ns := NewStudent{
			StudentID: core.CleanString(rec[0]),
			Name:      core.CleanString(rec[1]),
			ClassName: core.CleanString(rec[2]),
		}
		if ns.StudentID == "" || ns.Name == "" || ns.ClassName == "" {
			continue
		}
		students = append(students, ns)
	}
	return students, nil
}

// duplicateIDs returns the student ids appearing more than once, in first-seen order.
func duplicateIDs(students []NewStudent) []string {
	seen := make(map[string]int, len(students))
	var dups []string
	for _, s := range students {
		seen[s.StudentID]++
		if seen[s.StudentID] == 2 {
			dups = append(dups, s.StudentID)
		}
	}
	return dups
}
