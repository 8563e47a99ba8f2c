package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core"
	"github.com/trezcool/checkin/core/attendance"
	"github.com/trezcool/checkin/core/classroom"
	"github.com/trezcool/checkin/core/history"
	"github.com/trezcool/checkin/core/roster"
)

type sessionApi struct {
	rooms      *classroom.Service
	roster     *roster.Service
	attendance *attendance.Service
	history    *history.Service
	conf       *core.Config
	logger     core.Logger
}

type (
	gridPage struct {
		Room classroom.Classroom
		Grid attendance.Grid
	}

	editPage struct {
		Room      classroom.Classroom
		ClassName string
		Classes   []roster.ClassCount
		Rows      []attendance.StudentStatus
	}

	studentsPage struct {
		Room classroom.Classroom
		Rows []attendance.StudentStatus
	}
)

func registerSessionAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := sessionApi{
		rooms:      deps.ClassroomSvc,
		roster:     deps.RosterSvc,
		attendance: deps.AttendanceSvc,
		history:    deps.HistorySvc,
		conf:       deps.Conf,
		logger:     deps.Logger,
	}

	rg := g.Group("/:id", append(authed, classroomIDMiddleware())...)
	rg.GET("/admin.html", api.grid)
	rg.POST("/start-checkin", api.startCheckin)
	rg.POST("/stop-checkin", api.stopCheckin)
	rg.GET("/edit", api.editForm)
	rg.POST("/edit", api.edit)
	rg.POST("/save", api.save)
	rg.POST("/reset", api.reset)
	rg.GET("/view-by-student", api.viewByStudent)
}

// Handlers

func (api *sessionApi) grid(ctx echo.Context) error {
	c := ctx.Request().Context()
	room, err := api.rooms.Get(c, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting classroom")
	}
	grid, err := api.attendance.Grid(c, room.ID)
	if err != nil {
		return errors.Wrap(err, "building grid")
	}
	if wantsJSON(ctx) {
		return ctx.JSON(http.StatusOK, echo.Map{"checkin_open": room.CheckinOpen, "grid": grid})
	}
	return render(ctx, http.StatusOK, "admin", "教室 "+room.ID, gridPage{Room: room, Grid: grid})
}

func (api *sessionApi) startCheckin(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := api.rooms.OpenGate(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "opening gate")
	}
	return done(ctx, message{Text: fmt.Sprintf("教室 %s 开始签到", id), Back: adminPath(id)})
}

func (api *sessionApi) stopCheckin(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := api.rooms.CloseGate(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "closing gate")
	}
	return done(ctx, message{Text: fmt.Sprintf("教室 %s 停止签到", id), Back: adminPath(id)})
}

func (api *sessionApi) editForm(ctx echo.Context) error {
	c := ctx.Request().Context()
	room, err := api.rooms.Get(c, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting classroom")
	}
	className := core.CleanString(ctx.QueryParam("class_name"))
	rows, err := api.attendance.EditSheet(c, room.ID, className)
	if err != nil {
		return errors.Wrap(err, "building edit sheet")
	}
	classes, err := api.roster.CountsByClass(c)
	if err != nil {
		return errors.Wrap(err, "counting students")
	}
	return render(ctx, http.StatusOK, "edit", "编辑签到状态", editPage{
		Room:      room,
		ClassName: className,
		Classes:   classes,
		Rows:      rows,
	})
}

func (api *sessionApi) edit(ctx echo.Context) error {
	var data EditRequest
	if err := data.Bind(ctx); err != nil {
		return err
	}

	id := ctx.Param("id")
	n, err := api.attendance.BulkUpdate(ctx.Request().Context(), id, data.Updates)
	if err != nil {
		return errors.Wrap(err, "updating entries")
	}
	return done(ctx, message{Text: fmt.Sprintf("已更新 %d 名学生的状态", n), Back: adminPath(id)}, echo.Map{"count": n})
}

func (api *sessionApi) save(ctx echo.Context) error {
	var data SaveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveRequest")
	}

	c := ctx.Request().Context()
	id := ctx.Param("id")
	if _, err := api.rooms.Get(c, id); err != nil {
		return errors.Wrap(err, "getting classroom")
	}
	key, n, err := api.history.Snapshot(c, id, data.Course)
	if err != nil {
		return errors.Wrap(err, "saving snapshot")
	}

	if recipients := api.conf.Report.Recipients; len(recipients) > 0 {
		if err := api.history.MailReport(c, key, recipients); err != nil {
			api.logger.Error(fmt.Sprintf("mailing report of %s: %v", key, err), err, contextUser(ctx))
		}
	}
	return done(ctx, message{
		Text: fmt.Sprintf("已保存 %d 条签到记录 (%s %s)", n, key.Course, key.SaveTime),
		Back: adminPath(id),
	}, echo.Map{"count": n, "key": key.String()})
}

func (api *sessionApi) reset(ctx echo.Context) error {
	id := ctx.Param("id")
	n, err := api.attendance.Reset(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "resetting session")
	}
	return done(ctx, message{Text: fmt.Sprintf("已清空 %d 条签到数据", n), Back: adminPath(id)}, echo.Map{"count": n})
}

func (api *sessionApi) viewByStudent(ctx echo.Context) error {
	c := ctx.Request().Context()
	room, err := api.rooms.Get(c, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting classroom")
	}
	rows, err := api.attendance.StudentView(c, room.ID)
	if err != nil {
		return errors.Wrap(err, "building student view")
	}
	return render(ctx, http.StatusOK, "students", "按学号查看", studentsPage{Room: room, Rows: rows})
}

func adminPath(classroomID string) string {
	return "/checkin/" + classroomID + "/admin.html"
}
