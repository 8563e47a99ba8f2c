package roster

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core"
)

var (
	// errors
	ErrNotFound   = core.NewNotFoundError("student")
	ErrEmptyBatch = errors.New("文件为空或格式不正确")
)

type (
	Repository interface {
		// ExistingIDs returns which of ids are already stored.
		ExistingIDs(ctx context.Context, ids []string) ([]string, error)
		// CreateStudents inserts all students in one transaction.
		CreateStudents(ctx context.Context, students []Student) error
		GetStudent(ctx context.Context, studentID string) (Student, error)
		QueryStudents(ctx context.Context, classNames ...string) ([]Student, error)
		DeleteStudentsByClass(ctx context.Context, className string) (int, error)
		CountByClass(ctx context.Context) ([]ClassCount, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// BulkImport stores the whole batch or nothing, and returns the number of students inserted.
func (svc *Service) BulkImport(ctx context.Context, students []NewStudent) (int, error) {
	if len(students) == 0 {
		return 0, core.NewValidationError(ErrEmptyBatch)
	}

	if dups := duplicateIDs(students); len(dups) > 0 {
		fields := make([]core.FieldError, 0, len(dups))
		for _, id := range dups {
			fields = append(fields, core.FieldError{Field: id, Error: "学号重复"})
		}
		return 0, core.NewValidationError(
			errors.Errorf("导入文件中存在重复学号: %s", strings.Join(dups, ", ")),
			fields...,
		)
	}

	ids := make([]string, 0, len(students))
	batch := make([]Student, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.StudentID)
		batch = append(batch, s.Student())
	}

	existing, err := svc.repo.ExistingIDs(ctx, ids)
	if err != nil {
		return 0, errors.Wrap(err, "checking existing students")
	}
	if len(existing) > 0 {
		return 0, core.NewConflictError(
			errors.Errorf("学号已存在: %s", strings.Join(existing, ", ")),
			existing...,
		)
	}

	if err := svc.repo.CreateStudents(ctx, batch); err != nil {
		return 0, errors.Wrap(err, "creating students")
	}
	return len(batch), nil
}

// DeleteByClass removes every student of the class and returns how many were removed.
func (svc *Service) DeleteByClass(ctx context.Context, className string) (int, error) {
	className = core.CleanString(className)
	if className == "" {
		return 0, core.NewValidationError(nil, core.FieldError{Field: "class_name", Error: "班级名称不能为空"})
	}
	return svc.repo.DeleteStudentsByClass(ctx, className)
}

func (svc *Service) CountsByClass(ctx context.Context) ([]ClassCount, error) {
	return svc.repo.CountByClass(ctx)
}

func (svc *Service) Get(ctx context.Context, studentID string) (Student, error) {
	return svc.repo.GetStudent(ctx, core.CleanString(studentID))
}

// ListByClass returns the students of the given classes, or all students when none is given.
func (svc *Service) ListByClass(ctx context.Context, classNames ...string) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, classNames...)
}
