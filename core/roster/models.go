package roster

type Student struct {
	StudentID string `json:"student_id" db:"student_id"`
	Name      string `json:"name" db:"name"`
	ClassName string `json:"class_name" db:"class_name"`
}

// NewStudent is one roster row as read from an import file.
type NewStudent struct {
	StudentID string `json:"student_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	ClassName string `json:"class_name" validate:"required"`
}

func (ns NewStudent) Student() Student {
	return Student{StudentID: ns.StudentID, Name: ns.Name, ClassName: ns.ClassName}
}

// ClassCount is the number of students enrolled in a class.
type ClassCount struct {
	ClassName string `json:"class_name" db:"class_name"`
	Count     int    `json:"count" db:"count"`
}
