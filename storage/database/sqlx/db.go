package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core"
)

// inBatchSize keeps IN (...) lists under the SQLite bound variables limit.
const inBatchSize = 500

// withTx runs fn in a transaction, committed when fn returns nil.
func withTx(ctx context.Context, db core.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func rowsAffected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "getting rows affected")
	}
	return int(n), nil
}

// trapNoRowsErr maps sql "no rows" err to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func chunks(ids []string) [][]string {
	var out [][]string
	for len(ids) > inBatchSize {
		out = append(out, ids[:inBatchSize])
		ids = ids[inBatchSize:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
