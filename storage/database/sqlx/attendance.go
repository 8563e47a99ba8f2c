package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core"
	"github.com/trezcool/checkin/core/attendance"
)

type attendanceRepository struct {
	db core.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db core.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

const (
	entryColumns = "student_id, classroom_id, status, seat_number, name, class_name"
	insertEntry  = `INSERT INTO session_entries (` + entryColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
)

func (repo attendanceRepository) UpsertEntry(ctx context.Context, e attendance.Entry) error {
	q := repo.db.Rebind(insertEntry + ` ON CONFLICT (student_id, classroom_id) DO UPDATE SET
		status = excluded.status,
		seat_number = excluded.seat_number,
		name = excluded.name,
		class_name = excluded.class_name`)
	if _, err := repo.db.ExecContext(ctx, q, e.StudentID, e.ClassroomID, string(e.Status), e.SeatNumber, e.Name, e.ClassName); err != nil {
		return errors.Wrap(err, "upserting entry")
	}
	return nil
}

func (repo attendanceRepository) QueryEntries(ctx context.Context, classroomID string) ([]attendance.Entry, error) {
	var entries []attendance.Entry
	q := repo.db.Rebind(`SELECT ` + entryColumns + ` FROM session_entries WHERE classroom_id = ? ORDER BY student_id`)
	if err := sqlx.SelectContext(ctx, repo.db, &entries, q, classroomID); err != nil {
		return nil, errors.Wrap(err, "querying entries")
	}
	return entries, nil
}

func (repo attendanceRepository) ReplaceEntries(ctx context.Context, classroomID string, entries []attendance.Entry) error {
	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM session_entries WHERE classroom_id = ?`), classroomID); err != nil {
			return errors.Wrap(err, "deleting entries")
		}
		if len(entries) == 0 {
			return nil
		}

		stmt, err := tx.PreparexContext(ctx, tx.Rebind(insertEntry))
		if err != nil {
			return errors.Wrap(err, "preparing insert")
		}
		defer func() { _ = stmt.Close() }()

		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, e.StudentID, classroomID, string(e.Status), e.SeatNumber, e.Name, e.ClassName); err != nil {
				return errors.Wrapf(err, "inserting entry of %s", e.StudentID)
			}
		}
		return nil
	})
}

func (repo attendanceRepository) DeleteEntries(ctx context.Context, classroomID string) (int, error) {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(`DELETE FROM session_entries WHERE classroom_id = ?`), classroomID)
	if err != nil {
		return 0, errors.Wrap(err, "deleting entries")
	}
	return rowsAffected(res)
}
