package echoapi

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core"
	"github.com/trezcool/checkin/core/classroom"
	"github.com/trezcool/checkin/core/roster"
	"github.com/trezcool/checkin/core/seatcode"
)

var errNoCSVFile = core.NewValidationError(nil, core.FieldError{Field: "csv_file", Error: "请上传 CSV 文件"})

type manageApi struct {
	rooms    *classroom.Service
	roster   *roster.Service
	codes    *seatcode.Service
	validate *validator.Validate
}

type managePage struct {
	Rooms   []classroom.Classroom
	Classes []roster.ClassCount
}

func registerManageAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := manageApi{
		rooms:    deps.ClassroomSvc,
		roster:   deps.RosterSvc,
		codes:    deps.SeatcodeSvc,
		validate: deps.Validate,
	}

	ag := g.Group("", authed...)
	ag.GET("/manage.html", api.hub)
	ag.GET("/manage/list", api.listClassrooms)
	ag.GET("/manage/list-students", api.listClasses)
	ag.GET("/:id/qrcode/:file", api.downloadFile, classroomIDMiddleware())

	// admin endpoints
	admin := adminMiddleware()
	ag.POST("/manage/add", api.addClassroom, admin)
	ag.POST("/manage/delete", api.deleteClassroom, admin)
	ag.GET("/import-student.html", api.importForm, admin)
	ag.POST("/manage/import-students", api.importStudents, admin)
	ag.POST("/manage/delete-class-students", api.deleteClass, admin)
	ag.POST("/manage/generate-qrcode", api.generateCodes, admin)
	ag.POST("/manage/generate-print-file", api.generatePrintFile, admin)
}

// Handlers

func (api *manageApi) hub(ctx echo.Context) error {
	c := ctx.Request().Context()
	rooms, err := api.rooms.List(c)
	if err != nil {
		return errors.Wrap(err, "listing classrooms")
	}
	classes, err := api.roster.CountsByClass(c)
	if err != nil {
		return errors.Wrap(err, "counting students")
	}
	return render(ctx, http.StatusOK, "manage", "管理", managePage{Rooms: rooms, Classes: classes})
}

func (api *manageApi) listClassrooms(ctx echo.Context) error {
	rooms, err := api.rooms.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing classrooms")
	}
	if rooms == nil {
		rooms = []classroom.Classroom{}
	}
	return ctx.JSON(http.StatusOK, rooms)
}

func (api *manageApi) listClasses(ctx echo.Context) error {
	classes, err := api.roster.CountsByClass(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "counting students")
	}
	if classes == nil {
		classes = []roster.ClassCount{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *manageApi) addClassroom(ctx echo.Context) error {
	var data classroom.NewClassroom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassroom")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	room, err := api.rooms.Add(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding classroom")
	}
	return done(ctx, message{
		Text: fmt.Sprintf("教室 %s 已添加 (%d 行 × %d 列, %d 个座位)", room.ID, room.Rows, room.Columns, room.Capacity()),
		Back: homePath,
	}, echo.Map{"classroom": room})
}

func (api *manageApi) deleteClassroom(ctx echo.Context) error {
	var data ClassroomRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassroomRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.rooms.Delete(ctx.Request().Context(), data.ClassroomID); err != nil {
		return errors.Wrap(err, "deleting classroom")
	}
	return done(ctx, message{Text: fmt.Sprintf("教室 %s 已删除", data.ClassroomID), Back: homePath})
}

func (api *manageApi) importForm(ctx echo.Context) error {
	return render(ctx, http.StatusOK, "import_students", "导入学生名单", nil)
}

func (api *manageApi) importStudents(ctx echo.Context) error {
	fh, err := ctx.FormFile("csv_file")
	if err != nil {
		if err == http.ErrMissingFile {
			return errNoCSVFile
		}
		return errors.Wrap(err, "reading csv_file")
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".csv") {
		return errNoCSVFile
	}

	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening csv_file")
	}
	defer f.Close()

	students, err := roster.ParseCSV(f)
	if err != nil {
		return err
	}
	n, err := api.roster.BulkImport(ctx.Request().Context(), students)
	if err != nil {
		return errors.Wrap(err, "importing students")
	}
	return done(ctx, message{Text: fmt.Sprintf("成功导入 %d 名学生", n), Back: homePath}, echo.Map{"count": n})
}

func (api *manageApi) deleteClass(ctx echo.Context) error {
	var data ClassRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassRequest")
	}

	n, err := api.roster.DeleteByClass(ctx.Request().Context(), data.ClassName)
	if err != nil {
		return errors.Wrap(err, "deleting class students")
	}
	return done(ctx, message{
		Text: fmt.Sprintf("已删除班级 %s 的 %d 名学生", core.CleanString(data.ClassName), n),
		Back: homePath,
	}, echo.Map{"count": n})
}

func (api *manageApi) generateCodes(ctx echo.Context) error {
	var data ClassroomRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassroomRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	paths, err := api.codes.GenerateCodes(ctx.Request().Context(), data.ClassroomID)
	if err != nil {
		return errors.Wrap(err, "generating qr codes")
	}
	return done(ctx, message{
		Text: fmt.Sprintf("教室 %s 已生成 %d 个二维码", data.ClassroomID, len(paths)),
		Back: homePath,
	}, echo.Map{"count": len(paths)})
}

func (api *manageApi) generatePrintFile(ctx echo.Context) error {
	var data ClassroomRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassroomRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	doc, err := api.codes.GeneratePrintFile(ctx.Request().Context(), data.ClassroomID)
	if err != nil {
		return errors.Wrap(err, "generating print file")
	}
	return done(ctx, message{
		Text: fmt.Sprintf("教室 %s 的打印文件已生成", data.ClassroomID),
		Back: homePath,
		Link: fmt.Sprintf("/checkin/%s/qrcode/%s", data.ClassroomID, filepath.Base(doc)),
	})
}

func (api *manageApi) downloadFile(ctx echo.Context) error {
	fp, err := api.codes.ResolveFile(ctx.Param("id"), ctx.Param("file"))
	if err != nil {
		return err
	}
	return ctx.File(fp)
}
