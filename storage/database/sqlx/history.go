package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core"
	"github.com/trezcool/checkin/core/history"
)

type historyRepository struct {
	db core.DB
}

var _ history.Repository = (*historyRepository)(nil) // interface compliance check

func NewHistoryRepository(db core.DB) *historyRepository {
	return &historyRepository{db: db}
}

const keyWhere = `course = ? AND save_time = ? AND classroom_id = ?`

// Snapshot copies the session entries with the roster size of their class at this instant.
func (repo historyRepository) Snapshot(ctx context.Context, key history.Key) (int, error) {
	var n int
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var existing int
		q := tx.Rebind(`SELECT COUNT(*) FROM history_records WHERE ` + keyWhere)
		if err := sqlx.GetContext(ctx, tx, &existing, q, key.Course, key.SaveTime, key.ClassroomID); err != nil {
			return errors.Wrap(err, "checking existing records")
		}
		if existing > 0 {
			return history.ErrKeyExists
		}

		q = tx.Rebind(`INSERT INTO history_records
			(student_id, status, save_time, class_name, name, course, classroom_id, class_total)
			SELECT e.student_id, e.status, ?, e.class_name, e.name, ?, e.classroom_id,
				(SELECT COUNT(*) FROM students s WHERE s.class_name = e.class_name)
			FROM session_entries e
			WHERE e.classroom_id = ?
			ORDER BY e.student_id`)
		res, err := tx.ExecContext(ctx, q, key.SaveTime, key.Course, key.ClassroomID)
		if err != nil {
			return errors.Wrap(err, "copying entries")
		}
		if n, err = rowsAffected(res); err != nil {
			return err
		}
		if n == 0 {
			return history.ErrNoEntries
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (repo historyRepository) CountStatuses(ctx context.Context, course string, orderBy string) ([]history.StatusCount, error) {
	var counts []history.StatusCount
	q := repo.db.Rebind(`SELECT course, save_time, classroom_id, class_name, status,
			COUNT(*) AS count, MAX(class_total) AS class_total
		FROM history_records
		WHERE course = ?
		GROUP BY course, save_time, classroom_id, class_name, status ` + orderBy)
	if err := sqlx.SelectContext(ctx, repo.db, &counts, q, course); err != nil {
		return nil, errors.Wrap(err, "counting statuses")
	}
	return counts, nil
}

func (repo historyRepository) QueryRecords(ctx context.Context, key history.Key) ([]history.Record, error) {
	var records []history.Record
	q := repo.db.Rebind(`SELECT id, student_id, status, save_time, class_name, name, course, classroom_id, class_total
		FROM history_records WHERE ` + keyWhere + ` ORDER BY id`)
	if err := sqlx.SelectContext(ctx, repo.db, &records, q, key.Course, key.SaveTime, key.ClassroomID); err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	return records, nil
}

func (repo historyRepository) DeleteRecords(ctx context.Context, key history.Key) (int, error) {
	q := repo.db.Rebind(`DELETE FROM history_records WHERE ` + keyWhere)
	res, err := repo.db.ExecContext(ctx, q, key.Course, key.SaveTime, key.ClassroomID)
	if err != nil {
		return 0, errors.Wrap(err, "deleting records")
	}
	return rowsAffected(res)
}
