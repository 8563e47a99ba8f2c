package echoapi

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core/attendance"
	"github.com/trezcool/checkin/core/classroom"
)

var seatPageRegex = regexp.MustCompile(`^checkin-(\d{2})\.html$`)

type scanApi struct {
	rooms      *classroom.Service
	attendance *attendance.Service
}

type scanPage struct {
	Room classroom.Classroom
	Seat int
}

func registerScanAPI(g *echo.Group, deps ServerDeps) {
	api := scanApi{
		rooms:      deps.ClassroomSvc,
		attendance: deps.AttendanceSvc,
	}

	// un-authed endpoints: `/checkin/:id/checkin-NN.html`
	g.GET("/:id/:page", api.form, classroomIDMiddleware())
	g.POST("/:id/:page", api.submit, classroomIDMiddleware())
}

// seat resolves the seat page of the request to its classroom and seat number.
func (api *scanApi) seat(ctx echo.Context) (classroom.Classroom, int, error) {
	m := seatPageRegex.FindStringSubmatch(ctx.Param("page"))
	if m == nil {
		return classroom.Classroom{}, 0, errHttpNotFound
	}
	seat, _ := strconv.Atoi(m[1])

	room, err := api.rooms.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return classroom.Classroom{}, 0, errors.Wrap(err, "getting classroom")
	}
	if !room.ValidSeat(seat) {
		return classroom.Classroom{}, 0, errHttpNotFound
	}
	return room, seat, nil
}

// Handlers

func (api *scanApi) form(ctx echo.Context) error {
	room, seat, err := api.seat(ctx)
	if err != nil {
		return err
	}
	return render(ctx, http.StatusOK, "scan", fmt.Sprintf("%s 教室 %d 号座位签到", room.ID, seat), scanPage{Room: room, Seat: seat})
}

func (api *scanApi) submit(ctx echo.Context) error {
	room, seat, err := api.seat(ctx)
	if err != nil {
		return err
	}

	var data ScanRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScanRequest")
	}

	entry, err := api.attendance.RecordScan(ctx.Request().Context(), data.ID(), room.ID, seat)
	if err != nil {
		return err
	}
	return done(ctx, message{
		Text: fmt.Sprintf("%s (%s) 签到成功，座位号 %d", entry.Name, entry.StudentID, seat),
	}, echo.Map{"student_id": entry.StudentID, "name": entry.Name, "seat": seat})
}
