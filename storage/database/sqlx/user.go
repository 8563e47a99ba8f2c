package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core"
	"github.com/trezcool/checkin/core/user"
)

type userRepository struct {
	db core.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DB) *userRepository {
	return &userRepository{db: db}
}

const userColumns = "id, name, username, email, is_active, is_admin, password_hash, created_at, updated_at, last_login"

// userRow stores timestamps as RFC 3339 text, which reads back the same on every engine.
type userRow struct {
	ID           int    `db:"id"`
	Name         string `db:"name"`
	Username     string `db:"username"`
	Email        string `db:"email"`
	IsActive     bool   `db:"is_active"`
	IsAdmin      bool   `db:"is_admin"`
	PasswordHash []byte `db:"password_hash"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
	LastLogin    string `db:"last_login"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func (row userRow) user() user.User {
	return user.User{
		ID:           row.ID,
		Name:         row.Name,
		Username:     row.Username,
		Email:        row.Email,
		IsActive:     row.IsActive,
		IsAdmin:      row.IsAdmin,
		PasswordHash: row.PasswordHash,
		CreatedAt:    parseTime(row.CreatedAt),
		UpdatedAt:    parseTime(row.UpdatedAt),
		LastLogin:    parseTime(row.LastLogin),
	}
}

func (repo userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var n int
	q := repo.db.Rebind(`SELECT COUNT(*) FROM users WHERE username = ?`)
	if err := sqlx.GetContext(ctx, repo.db, &n, q, username); err != nil {
		return false, errors.Wrap(err, "checking username uniqueness")
	}
	return n > 0, nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := repo.db.Rebind(`INSERT INTO users
		(name, username, email, is_active, is_admin, password_hash, created_at, updated_at, last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := sqlx.GetContext(ctx, repo.db, &usr.ID, q,
		usr.Name, usr.Username, usr.Email, usr.IsActive, usr.IsAdmin, usr.PasswordHash,
		formatTime(usr.CreatedAt), formatTime(usr.UpdatedAt), formatTime(usr.LastLogin),
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, `SELECT `+userColumns+` FROM users ORDER BY username`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.user())
	}
	return users, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	var row userRow
	q := repo.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	if err := sqlx.GetContext(ctx, repo.db, &row, q, id); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by ID")
	}
	return row.user(), nil
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, login string) (user.User, error) {
	if login == "" {
		return user.User{}, user.ErrNotFound
	}
	var row userRow
	q := repo.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE username = ? OR email = ? ORDER BY id LIMIT 1`)
	if err := sqlx.GetContext(ctx, repo.db, &row, q, login, login); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return row.user(), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := repo.db.Rebind(`UPDATE users SET
		name = ?, username = ?, email = ?, is_active = ?, is_admin = ?, password_hash = ?,
		updated_at = ?, last_login = ?
		WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q,
		usr.Name, usr.Username, usr.Email, usr.IsActive, usr.IsAdmin, usr.PasswordHash,
		formatTime(usr.UpdatedAt), formatTime(usr.LastLogin), usr.ID,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	n, err := rowsAffected(res)
	if err != nil {
		return user.User{}, err
	}
	if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
