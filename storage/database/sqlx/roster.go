package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core"
	"github.com/trezcool/checkin/core/roster"
)

type rosterRepository struct {
	db core.DB
}

var _ roster.Repository = (*rosterRepository)(nil) // interface compliance check

func NewRosterRepository(db core.DB) *rosterRepository {
	return &rosterRepository{db: db}
}

func (repo rosterRepository) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	var existing []string
	for _, batch := range chunks(ids) {
		q, args, err := sqlx.In(`SELECT student_id FROM students WHERE student_id IN (?) ORDER BY student_id`, batch)
		if err != nil {
			return nil, errors.Wrap(err, "building IN query")
		}
		var found []string
		if err := sqlx.SelectContext(ctx, repo.db, &found, repo.db.Rebind(q), args...); err != nil {
			return nil, errors.Wrap(err, "querying existing students")
		}
		existing = append(existing, found...)
	}
	return existing, nil
}

func (repo rosterRepository) CreateStudents(ctx context.Context, students []roster.Student) error {
	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, tx.Rebind(`INSERT INTO students (student_id, name, class_name) VALUES (?, ?, ?)`))
		if err != nil {
			return errors.Wrap(err, "preparing insert")
		}
		defer func() { _ = stmt.Close() }()

		for _, s := range students {
			if _, err := stmt.ExecContext(ctx, s.StudentID, s.Name, s.ClassName); err != nil {
				return errors.Wrapf(err, "inserting student %s", s.StudentID)
			}
		}
		return nil
	})
}

func (repo rosterRepository) GetStudent(ctx context.Context, studentID string) (roster.Student, error) {
	var s roster.Student
	q := repo.db.Rebind(`SELECT student_id, name, class_name FROM students WHERE student_id = ?`)
	if err := sqlx.GetContext(ctx, repo.db, &s, q, studentID); err != nil {
		return roster.Student{}, trapNoRowsErr(err, roster.ErrNotFound, "getting student")
	}
	return s, nil
}

func (repo rosterRepository) QueryStudents(ctx context.Context, classNames ...string) ([]roster.Student, error) {
	var (
		q    = `SELECT student_id, name, class_name FROM students`
		args []interface{}
		err  error
	)
	if len(classNames) > 0 {
		q, args, err = sqlx.In(q+` WHERE class_name IN (?)`, classNames)
		if err != nil {
			return nil, errors.Wrap(err, "building IN query")
		}
	}
	q += ` ORDER BY class_name, student_id`

	var students []roster.Student
	if err := sqlx.SelectContext(ctx, repo.db, &students, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (repo rosterRepository) DeleteStudentsByClass(ctx context.Context, className string) (int, error) {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(`DELETE FROM students WHERE class_name = ?`), className)
	if err != nil {
		return 0, errors.Wrap(err, "deleting students")
	}
	return rowsAffected(res)
}

func (repo rosterRepository) CountByClass(ctx context.Context) ([]roster.ClassCount, error) {
	var counts []roster.ClassCount
	q := `SELECT class_name, COUNT(*) AS count FROM students GROUP BY class_name ORDER BY class_name`
	if err := sqlx.SelectContext(ctx, repo.db, &counts, q); err != nil {
		return nil, errors.Wrap(err, "counting students by class")
	}
	return counts, nil
}
