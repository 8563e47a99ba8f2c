package sqlxrepos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/checkin/core/attendance"
	"github.com/trezcool/checkin/core/classroom"
	"github.com/trezcool/checkin/core/history"
	"github.com/trezcool/checkin/core/roster"
	"github.com/trezcool/checkin/core/user"
	"github.com/trezcool/checkin/tests"
)

func seat(i int) *int { return &i }

func TestClassroomRepository(t *testing.T) {
	db, _ := testutil.PrepareDB(t)
	repo := NewClassroomRepository(db)
	ctx := context.Background()

	// seeded by the initial migration
	seeded, err := repo.GetClassroom(ctx, "0001")
	require.NoError(t, err)
	assert.Equal(t, classroom.Classroom{ID: "0001", Rows: 4, Columns: 12}, seeded)

	require.NoError(t, repo.CreateClassroom(ctx, classroom.Classroom{ID: "101", Rows: 2, Columns: 3}))
	// insert-or-ignore
	require.NoError(t, repo.CreateClassroom(ctx, classroom.Classroom{ID: "101", Rows: 9, Columns: 9}))

	c, err := repo.GetClassroom(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Rows)
	assert.Equal(t, 3, c.Columns)
	assert.False(t, c.CheckinOpen)

	rooms, err := repo.QueryClassrooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "0001", rooms[0].ID)
	assert.Equal(t, "101", rooms[1].ID)

	require.NoError(t, repo.SetCheckinOpen(ctx, "101", true))
	c, err = repo.GetClassroom(ctx, "101")
	require.NoError(t, err)
	assert.True(t, c.CheckinOpen)

	assert.Equal(t, classroom.ErrNotFound, repo.SetCheckinOpen(ctx, "999", true))
	_, err = repo.GetClassroom(ctx, "999")
	assert.Equal(t, classroom.ErrNotFound, err)

	require.NoError(t, repo.DeleteClassroom(ctx, "101"))
	assert.Equal(t, classroom.ErrNotFound, repo.DeleteClassroom(ctx, "101"))
}

func TestRosterRepository(t *testing.T) {
	db, _ := testutil.PrepareDB(t)
	repo := NewRosterRepository(db)
	ctx := context.Background()

	testutil.CreateStudents(t, repo,
		[3]string{"S2", "Bob", "C1"},
		[3]string{"S1", "Alice", "C1"},
		[3]string{"S3", "Carol", "C2"},
	)

	existing, err := repo.ExistingIDs(ctx, []string{"S1", "S9", "S3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S3"}, existing)

	stu, err := repo.GetStudent(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, roster.Student{StudentID: "S1", Name: "Alice", ClassName: "C1"}, stu)
	_, err = repo.GetStudent(ctx, "S9")
	assert.Equal(t, roster.ErrNotFound, err)

	c1, err := repo.QueryStudents(ctx, "C1")
	require.NoError(t, err)
	require.Len(t, c1, 2)
	assert.Equal(t, "S1", c1[0].StudentID)

	all, err := repo.QueryStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	counts, err := repo.CountByClass(ctx)
	require.NoError(t, err)
	assert.Equal(t, []roster.ClassCount{{ClassName: "C1", Count: 2}, {ClassName: "C2", Count: 1}}, counts)

	// a failing row rolls back the whole batch
	err = repo.CreateStudents(ctx, []roster.Student{
		{StudentID: "S4", Name: "Dan", ClassName: "C2"},
		{StudentID: "S1", Name: "Dup", ClassName: "C2"},
	})
	require.Error(t, err)
	_, err = repo.GetStudent(ctx, "S4")
	assert.Equal(t, roster.ErrNotFound, err)

	n, err := repo.DeleteStudentsByClass(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAttendanceRepository(t *testing.T) {
	db, _ := testutil.PrepareDB(t)
	repo := NewAttendanceRepository(db)
	ctx := context.Background()

	e := attendance.Entry{StudentID: "S1", ClassroomID: "0001", Status: attendance.StatusSigned, SeatNumber: seat(13), Name: "Alice", ClassName: "C1"}
	require.NoError(t, repo.UpsertEntry(ctx, e))

	// rescan overwrites
	e.SeatNumber = seat(14)
	require.NoError(t, repo.UpsertEntry(ctx, e))

	entries, err := repo.QueryEntries(ctx, "0001")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, e, entries[0])

	err = repo.ReplaceEntries(ctx, "0001", []attendance.Entry{
		{StudentID: "S2", Status: attendance.StatusSickLeave, Name: "Bob", ClassName: "C1"},
		{StudentID: "S1", Status: attendance.StatusSigned, SeatNumber: seat(1), Name: "Alice", ClassName: "C1"},
	})
	require.NoError(t, err)

	entries, err = repo.QueryEntries(ctx, "0001")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "S1", entries[0].StudentID)
	assert.Equal(t, 1, *entries[0].SeatNumber)
	assert.Equal(t, "0001", entries[1].ClassroomID)
	assert.Nil(t, entries[1].SeatNumber)
	assert.Equal(t, attendance.StatusSickLeave, entries[1].Status)

	n, err := repo.DeleteEntries(ctx, "0001")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = repo.DeleteEntries(ctx, "0001")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestHistoryRepository(t *testing.T) {
	db, _ := testutil.PrepareDB(t)
	repo := NewHistoryRepository(db)
	attRepo := NewAttendanceRepository(db)
	rosterRepo := NewRosterRepository(db)
	ctx := context.Background()

	testutil.CreateStudents(t, rosterRepo,
		[3]string{"S1", "Alice", "C1"},
		[3]string{"S2", "Bob", "C1"},
		[3]string{"S3", "Carol", "C1"},
	)
	key := history.Key{Course: "Math101", SaveTime: "2026-10-18 09:00:00", ClassroomID: "0001"}

	// nothing to copy
	_, err := repo.Snapshot(ctx, key)
	assert.Equal(t, history.ErrNoEntries, err)

	require.NoError(t, attRepo.UpsertEntry(ctx, attendance.Entry{StudentID: "S1", ClassroomID: "0001", Status: attendance.StatusSigned, SeatNumber: seat(13), Name: "Alice", ClassName: "C1"}))
	require.NoError(t, attRepo.UpsertEntry(ctx, attendance.Entry{StudentID: "S2", ClassroomID: "0001", Status: attendance.StatusLate, Name: "Bob", ClassName: "C1"}))

	n, err := repo.Snapshot(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = repo.Snapshot(ctx, key)
	assert.Equal(t, history.ErrKeyExists, err)

	records, err := repo.QueryRecords(ctx, key)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "S1", records[0].StudentID)
	assert.Equal(t, attendance.StatusSigned, records[0].Status)
	assert.Equal(t, 3, records[0].ClassTotal)

	// class totals are frozen at snapshot time
	testutil.CreateStudents(t, rosterRepo, [3]string{"S4", "Dan", "C1"})

	counts, err := repo.CountStatuses(ctx, "Math101", "ORDER BY save_time DESC")
	require.NoError(t, err)
	require.Len(t, counts, 2)
	for _, c := range counts {
		assert.Equal(t, 1, c.Count)
		assert.Equal(t, 3, c.ClassTotal)
	}

	n, err = repo.DeleteRecords(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUserRepository(t *testing.T) {
	db, _ := testutil.PrepareDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	usr := testutil.CreateUser(t, repo, "Teacher", "teacher", "teacher@test.test", "blue-Lantern-42", false, true)
	assert.NotZero(t, usr.ID)

	exists, err := repo.UsernameExists(ctx, "teacher")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := repo.GetUserByUsernameOrEmail(ctx, "teacher@test.test")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)
	assert.NoError(t, got.CheckPassword("blue-Lantern-42"))
	assert.True(t, got.CreatedAt.Equal(usr.CreatedAt))
	assert.True(t, got.LastLogin.IsZero())

	got.IsAdmin = true
	_, err = repo.UpdateUser(ctx, got)
	require.NoError(t, err)

	got, err = repo.GetUserByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)

	_, err = repo.GetUserByID(ctx, usr.ID+1)
	assert.Equal(t, user.ErrNotFound, err)

	users, err := repo.QueryUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
