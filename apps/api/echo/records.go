package echoapi

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core"
	"github.com/trezcool/checkin/core/classroom"
	"github.com/trezcool/checkin/core/history"
)

var errRecordNotFound = core.NewNotFoundError("签到记录")

type recordsApi struct {
	rooms   *classroom.Service
	history *history.Service
	dataDir string
}

type recordsPage struct {
	Room      classroom.Classroom
	Course    string
	Summaries []history.Summary
}

func registerRecordsAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := recordsApi{
		rooms:   deps.ClassroomSvc,
		history: deps.HistorySvc,
		dataDir: deps.Conf.DataDir,
	}

	ag := g.Group("", authed...)
	ag.POST("/delete-record", api.deleteRecord)

	rg := g.Group("/:id", append(authed, classroomIDMiddleware())...)
	rg.GET("/view-records", api.viewRecords)
	rg.POST("/view-records", api.viewRecords)
	rg.POST("/export", api.export)
}

// Handlers

func (api *recordsApi) viewRecords(ctx echo.Context) error {
	c := ctx.Request().Context()
	room, err := api.rooms.Get(c, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting classroom")
	}

	data := recordsPage{Room: room, Course: core.CleanString(ctx.FormValue("course"))}
	if data.Course != "" {
		var ord Ordering
		ord.Bind(ctx, history.SummaryOrderings...)
		data.Summaries, err = api.history.Summarize(c, data.Course, ord.Orderings)
		if err != nil {
			return errors.Wrap(err, "summarizing records")
		}
	}

	if wantsJSON(ctx) {
		return ctx.JSON(http.StatusOK, data)
	}
	return render(ctx, http.StatusOK, "records", "签到记录", data)
}

func (api *recordsApi) deleteRecord(ctx echo.Context) error {
	var data KeysRequest
	if err := data.Bind(ctx); err != nil {
		return err
	}
	if len(data.Keys) != 1 {
		return core.NewValidationError(nil, core.FieldError{Field: "key", Error: "请选择一条记录"})
	}

	key := data.Keys[0]
	deleted, err := api.history.Delete(ctx.Request().Context(), key)
	if err != nil {
		return errors.Wrap(err, "deleting records")
	}
	if !deleted {
		return errRecordNotFound
	}
	return done(ctx, message{
		Text: fmt.Sprintf("已删除 %s %s 的签到记录", key.Course, key.SaveTime),
		Back: "/checkin/" + key.ClassroomID + "/view-records?course=" + url.QueryEscape(key.Course),
	})
}

func (api *recordsApi) export(ctx echo.Context) error {
	var data KeysRequest
	if err := data.Bind(ctx); err != nil {
		return err
	}

	id := ctx.Param("id")
	dir := filepath.Join(api.dataDir, id, "export")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating export dir")
	}
	name := history.ExportFilename(id, time.Now().Format(history.SaveTimeLayout))
	fp := filepath.Join(dir, name)

	if err := api.writeExport(ctx, data.Keys, fp); err != nil {
		return err
	}
	return ctx.Attachment(fp, name)
}

func (api *recordsApi) writeExport(ctx echo.Context, keys []history.Key, fp string) (err error) {
	f, err := os.Create(fp)
	if err != nil {
		return errors.Wrap(err, "creating export file")
	}
	defer func() {
		if cErr := f.Close(); err == nil && cErr != nil {
			err = errors.Wrap(cErr, "closing export file")
		}
		if err != nil {
			_ = os.Remove(fp)
		}
	}()

	if err = api.history.Export(ctx.Request().Context(), keys, f); err != nil {
		return errors.Wrap(err, "exporting records")
	}
	return nil
}
