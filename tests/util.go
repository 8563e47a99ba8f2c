package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/checkin/core"
	"github.com/trezcool/checkin/core/classroom"
	"github.com/trezcool/checkin/core/roster"
	"github.com/trezcool/checkin/core/user"
	"github.com/trezcool/checkin/storage/database"
)

// PrepareDB returns a migrated SQLite database living in a fresh temp dir, closed on cleanup.
func PrepareDB(t testing.TB) (*sqlx.DB, *core.Config) {
	t.Helper()

	conf := core.NewTestConfig(t.TempDir())
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB(): opening: %v", err)
	}
	if err = database.Migrate(db.DB, database.Dialect(conf)); err != nil {
		_ = db.Close()
		t.Fatalf("PrepareDB(): migrating: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, conf
}

func CreateUser(
	t testing.TB,
	repo user.Repository,
	name, uname, email, pwd string,
	isAdmin bool,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		IsAdmin:   isAdmin,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateClassroom(t testing.TB, repo classroom.Repository, id string, rows, cols int, open bool) classroom.Classroom {
	t.Helper()

	ctx := context.Background()
	c := classroom.Classroom{ID: id, Rows: rows, Columns: cols}
	if err := repo.CreateClassroom(ctx, c); err != nil {
		t.Fatalf("CreateClassroom() failed: %v", err)
	}
	if open {
		if err := repo.SetCheckinOpen(ctx, id, true); err != nil {
			t.Fatalf("CreateClassroom() failed: %v", err)
		}
	}
	c, err := repo.GetClassroom(ctx, id)
	if err != nil {
		t.Fatalf("CreateClassroom() failed: %v", err)
	}
	return c
}

// CreateStudents stores "id,name,class" triples.
func CreateStudents(t testing.TB, repo roster.Repository, rows ...[3]string) []roster.Student {
	t.Helper()

	students := make([]roster.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, roster.Student{StudentID: r[0], Name: r[1], ClassName: r[2]})
	}
	if err := repo.CreateStudents(context.Background(), students); err != nil {
		t.Fatalf("CreateStudents() failed: %v", err)
	}
	return students
}
