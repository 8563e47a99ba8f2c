package database

import (
	"database/sql"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/trezcool/checkin/core"
	appfs "github.com/trezcool/checkin/fs"
)

// Dialect returns the goose/sqlx dialect name of the configured engine.
func Dialect(conf *core.Config) string {
	if conf.Database.IsSQLite() {
		return "sqlite"
	}
	return "postgres"
}

func sqliteDSN(path string) string {
	q := make(url.Values)
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(1)")
	return "file:" + path + "?" + q.Encode()
}

func postgresDSN(conf *core.Config) string {
	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(conf.Database.User, conf.Database.Password),
		Host:     conf.Database.Address(),
		Path:     conf.Database.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Open connects to the configured database and waits for it to answer.
func Open(conf *core.Config) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	if conf.Database.IsSQLite() {
		if dir := filepath.Dir(conf.Database.Path); dir != "" {
			if err = os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrap(err, "creating database dir")
			}
		}
		db, err = sqlx.Open("sqlite", sqliteDSN(conf.Database.Path))
		if err != nil {
			return nil, errors.Wrap(err, "opening sqlite database")
		}
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	} else {
		db, err = sqlx.Open("postgres", postgresDSN(conf))
		if err != nil {
			return nil, errors.Wrap(err, "opening postgres database")
		}
	}

	if err = ping(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sql.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// Run runs a goose command (up, down, status, version...) with the embedded migrations.
func Run(command string, db *sql.DB, dialect string, args ...string) error {
	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect(gooseDialect(dialect)); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	if err := goose.Run(command, db, appfs.MigrationsDir(dialect), args...); err != nil {
		return errors.Wrapf(err, "running goose %s", command)
	}
	return nil
}

func Migrate(db *sql.DB, dialect string) error {
	return errors.Wrap(Run("up", db, dialect), "migrating database")
}

func gooseDialect(dialect string) string {
	if dialect == "sqlite" {
		return "sqlite3"
	}
	return dialect
}
