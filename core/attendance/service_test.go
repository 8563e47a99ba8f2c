package attendance_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/checkin/core"
	"github.com/trezcool/checkin/core/attendance"
	"github.com/trezcool/checkin/core/classroom"
	"github.com/trezcool/checkin/core/roster"
	"github.com/trezcool/checkin/storage/database/sqlx"
	"github.com/trezcool/checkin/tests"
)

type env struct {
	svc   *attendance.Service
	rooms classroom.Repository
}

func setup(t *testing.T) env {
	db, _ := testutil.PrepareDB(t)
	roomRepo := sqlxrepos.NewClassroomRepository(db)
	rosterRepo := sqlxrepos.NewRosterRepository(db)

	testutil.CreateClassroom(t, roomRepo, "101", 2, 3, true)
	testutil.CreateClassroom(t, roomRepo, "102", 2, 3, false)
	testutil.CreateStudents(t, rosterRepo,
		[3]string{"S1", "Alice", "C1"},
		[3]string{"S2", "Bob", "C1"},
		[3]string{"S3", "Carol", "C2"},
	)

	svc := attendance.NewService(
		sqlxrepos.NewAttendanceRepository(db),
		classroom.NewService(roomRepo),
		roster.NewService(rosterRepo),
	)
	return env{svc: svc, rooms: roomRepo}
}

func seat(i int) *int { return &i }

func TestService_RecordScan(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	entry, err := e.svc.RecordScan(ctx, " S1 ", "101", 4)
	require.NoError(t, err)
	assert.Equal(t, attendance.Entry{
		StudentID:   "S1",
		ClassroomID: "101",
		Status:      attendance.StatusSigned,
		SeatNumber:  seat(4),
		Name:        "Alice",
		ClassName:   "C1",
	}, entry)

	// rescanning moves the student
	_, err = e.svc.RecordScan(ctx, "S1", "101", 2)
	require.NoError(t, err)
	entries, err := e.svc.Entries(ctx, "101")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, *entries[0].SeatNumber)

	t.Run("gate closed", func(t *testing.T) {
		_, err := e.svc.RecordScan(ctx, "S2", "102", 1)
		assert.Equal(t, attendance.ErrGateClosed, errors.Cause(err))

		entries, err := e.svc.Entries(ctx, "102")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("missing student id", func(t *testing.T) {
		_, err := e.svc.RecordScan(ctx, "  ", "101", 1)
		assert.Equal(t, attendance.ErrMissingStudent, err)
	})

	t.Run("unknown student", func(t *testing.T) {
		_, err := e.svc.RecordScan(ctx, "S9", "101", 1)
		assert.Equal(t, attendance.ErrUnknownStudent, err)
	})

	t.Run("unknown classroom", func(t *testing.T) {
		_, err := e.svc.RecordScan(ctx, "S1", "999", 1)
		assert.True(t, core.IsNotFound(err))
	})
}

func TestService_GridAndReset(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.svc.RecordScan(ctx, "S1", "101", 1)
	require.NoError(t, err)
	_, err = e.svc.RecordScan(ctx, "S3", "101", 6)
	require.NoError(t, err)

	g, err := e.svc.Grid(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, 2, g.Signed)
	c, _ := g.At(6)
	assert.Equal(t, "Carol", c.Name)

	n, err := e.svc.Reset(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	g, err = e.svc.Grid(ctx, "101")
	require.NoError(t, err)
	assert.Zero(t, g.Signed)

	// idempotent
	n, err = e.svc.Reset(ctx, "101")
	require.NoError(t, err)
	assert.Zero(t, n)
	entries, err := e.svc.Entries(ctx, "101")
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = e.svc.Reset(ctx, "999")
	assert.True(t, core.IsNotFound(err))
}

func TestService_BulkUpdate(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.svc.RecordScan(ctx, "S1", "101", 1)
	require.NoError(t, err)

	t.Run("invalid batch changes nothing", func(t *testing.T) {
		_, err := e.svc.BulkUpdate(ctx, "101", []attendance.EntryUpdate{
			{StudentID: "S1", Status: attendance.StatusSigned, SeatNumber: seat(2)},
			{StudentID: "S2", Status: attendance.StatusSigned, SeatNumber: seat(2)},
		})
		require.True(t, core.IsValidation(err))

		entries, err := e.svc.Entries(ctx, "101")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 1, *entries[0].SeatNumber)
	})

	n, err := e.svc.BulkUpdate(ctx, "101", []attendance.EntryUpdate{
		{StudentID: "S1", Status: attendance.StatusLate, SeatNumber: seat(3)},
		{StudentID: "S2", Status: attendance.StatusSigned, SeatNumber: seat(5)},
		{StudentID: "S9", Status: attendance.StatusAbsent},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := e.svc.EditSheet(ctx, "101", "C1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, attendance.StatusLate, rows[0].Status)
	assert.Nil(t, rows[0].SeatNumber)
	assert.Equal(t, attendance.StatusSigned, rows[1].Status)
	assert.Equal(t, 5, *rows[1].SeatNumber)

	// the grid shows exactly the submitted signed seats
	g, err := e.svc.Grid(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, 1, g.Signed)
	for s := 1; s <= g.Capacity; s++ {
		c, ok := g.At(s)
		require.True(t, ok)
		if s == 5 {
			assert.Equal(t, "S2", c.StudentID)
			assert.Equal(t, "Bob", c.Name)
			continue
		}
		assert.Empty(t, c.StudentID, "seat %d", s)
	}
}

func TestService_StudentView(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	rows, err := e.svc.StudentView(ctx, "101")
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = e.svc.RecordScan(ctx, "S2", "101", 3)
	require.NoError(t, err)

	rows, err = e.svc.StudentView(ctx, "101")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "S1", rows[0].StudentID)
	assert.Equal(t, attendance.StatusAbsent, rows[0].Status)
	assert.Equal(t, "S2", rows[1].StudentID)
	assert.Equal(t, attendance.StatusSigned, rows[1].Status)
}
