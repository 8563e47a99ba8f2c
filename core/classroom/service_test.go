package classroom_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/checkin/core"
	"github.com/trezcool/checkin/core/classroom"
	"github.com/trezcool/checkin/storage/database/sqlx"
	"github.com/trezcool/checkin/tests"
)

func TestClassroom_Capacity(t *testing.T) {
	tests := []struct {
		rows, cols int
		want       int
	}{
		{rows: 4, cols: 12, want: 48},
		{rows: 5, cols: 12, want: 48},
		{rows: 2, cols: 3, want: 6},
		{rows: 0, cols: 3, want: 0},
	}
	for _, tt := range tests {
		c := classroom.Classroom{Rows: tt.rows, Columns: tt.cols}
		assert.Equal(t, tt.want, c.Capacity(), "%dx%d", tt.rows, tt.cols)
	}

	c := classroom.Classroom{Rows: 2, Columns: 3}
	assert.False(t, c.ValidSeat(0))
	assert.True(t, c.ValidSeat(1))
	assert.True(t, c.ValidSeat(6))
	assert.False(t, c.ValidSeat(7))
}

func TestNewClassroom_Validate(t *testing.T) {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	tests := []struct {
		name    string
		nc      classroom.NewClassroom
		wantErr bool
	}{
		{name: "valid", nc: classroom.NewClassroom{ID: " 0101 ", Rows: 4, Columns: 12}},
		{name: "3 digits", nc: classroom.NewClassroom{ID: "101", Rows: 1, Columns: 1}},
		{name: "letters", nc: classroom.NewClassroom{ID: "A01", Rows: 4, Columns: 12}, wantErr: true},
		{name: "too long", nc: classroom.NewClassroom{ID: "10101", Rows: 4, Columns: 12}, wantErr: true},
		{name: "no rows", nc: classroom.NewClassroom{ID: "0101", Rows: 0, Columns: 12}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nc.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestService(t *testing.T) {
	db, _ := testutil.PrepareDB(t)
	svc := classroom.NewService(sqlxrepos.NewClassroomRepository(db))
	ctx := context.Background()

	c, err := svc.Add(ctx, classroom.NewClassroom{ID: "101", Rows: 2, Columns: 3})
	require.NoError(t, err)
	assert.Equal(t, classroom.Classroom{ID: "101", Rows: 2, Columns: 3}, c)

	// adding an existing id keeps the stored room
	c, err = svc.Add(ctx, classroom.NewClassroom{ID: "101", Rows: 8, Columns: 8})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Rows)

	open, err := svc.IsOpen(ctx, "101")
	require.NoError(t, err)
	assert.False(t, open)

	require.NoError(t, svc.OpenGate(ctx, "101"))
	open, err = svc.IsOpen(ctx, "101")
	require.NoError(t, err)
	assert.True(t, open)

	require.NoError(t, svc.CloseGate(ctx, "101"))
	open, err = svc.IsOpen(ctx, "101")
	require.NoError(t, err)
	assert.False(t, open)

	assert.True(t, core.IsNotFound(svc.OpenGate(ctx, "999")))

	rooms, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	require.NoError(t, svc.Delete(ctx, "101"))
	_, err = svc.Get(ctx, "101")
	assert.True(t, core.IsNotFound(err))
}
