package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core"
	"github.com/trezcool/checkin/core/classroom"
)

type classroomRepository struct {
	db core.DB
}

var _ classroom.Repository = (*classroomRepository)(nil) // interface compliance check

func NewClassroomRepository(db core.DB) *classroomRepository {
	return &classroomRepository{db: db}
}

const classroomColumns = "id, num_rows, num_columns, checkin_open"

func (repo classroomRepository) CreateClassroom(ctx context.Context, c classroom.Classroom) error {
	q := repo.db.Rebind(`INSERT INTO classrooms (id, num_rows, num_columns) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING`)
	if _, err := repo.db.ExecContext(ctx, q, c.ID, c.Rows, c.Columns); err != nil {
		return errors.Wrap(err, "inserting classroom")
	}
	return nil
}

func (repo classroomRepository) GetClassroom(ctx context.Context, id string) (classroom.Classroom, error) {
	var c classroom.Classroom
	q := repo.db.Rebind(`SELECT ` + classroomColumns + ` FROM classrooms WHERE id = ?`)
	if err := sqlx.GetContext(ctx, repo.db, &c, q, id); err != nil {
		return classroom.Classroom{}, trapNoRowsErr(err, classroom.ErrNotFound, "getting classroom")
	}
	return c, nil
}

func (repo classroomRepository) QueryClassrooms(ctx context.Context) ([]classroom.Classroom, error) {
	var rooms []classroom.Classroom
	q := `SELECT ` + classroomColumns + ` FROM classrooms ORDER BY id`
	if err := sqlx.SelectContext(ctx, repo.db, &rooms, q); err != nil {
		return nil, errors.Wrap(err, "querying classrooms")
	}
	return rooms, nil
}

// DeleteClassroom removes the classroom with its session entries. History records are kept.
func (repo classroomRepository) DeleteClassroom(ctx context.Context, id string) error {
	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM session_entries WHERE classroom_id = ?`), id); err != nil {
			return errors.Wrap(err, "deleting session entries")
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM classrooms WHERE id = ?`), id)
		if err != nil {
			return errors.Wrap(err, "deleting classroom")
		}
		n, err := rowsAffected(res)
		if err != nil {
			return err
		}
		if n == 0 {
			return classroom.ErrNotFound
		}
		return nil
	})
}

func (repo classroomRepository) SetCheckinOpen(ctx context.Context, id string, open bool) error {
	q := repo.db.Rebind(`UPDATE classrooms SET checkin_open = ? WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q, open, id)
	if err != nil {
		return errors.Wrap(err, "updating checkin gate")
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return classroom.ErrNotFound
	}
	return nil
}
