package echoapi

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core"
	"github.com/trezcool/checkin/core/attendance"
	"github.com/trezcool/checkin/core/history"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context, allowed ...string) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}
	ord.Orderings = core.ParseOrdering(val, allowed...)
}

type LoginRequest struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
	Next     string `form:"next" json:"next"`
}

func (r *LoginRequest) Validate(validate *validator.Validate) error {
	r.Username = core.CleanString(r.Username)
	return validate.Struct(r)
}

// ScanRequest is the submission of a seat check-in form. JSON clients may send `user_id`.
type ScanRequest struct {
	StudentID string `form:"student_id" json:"student_id"`
	UserID    string `json:"user_id"`
}

func (r ScanRequest) ID() string {
	if id := core.CleanString(r.StudentID); id != "" {
		return id
	}
	return core.CleanString(r.UserID)
}

type ClassroomRequest struct {
	ClassroomID string `form:"classroom_id" json:"classroom_id" validate:"required,classroom_id"`
}

func (r *ClassroomRequest) Validate(validate *validator.Validate) error {
	r.ClassroomID = core.CleanString(r.ClassroomID)
	return validate.Struct(r)
}

type ClassRequest struct {
	ClassName string `form:"class_name" json:"class_name"`
}

type SaveRequest struct {
	Course string `form:"course" json:"course"`
}

// EditRequest is the bulk edit form: parallel `student_id`, `status` and `seat_number` values,
// or a JSON `updates` list.
type EditRequest struct {
	Updates []attendance.EntryUpdate `json:"updates"`
}

func (r *EditRequest) Bind(ctx echo.Context) error {
	if wantsJSON(ctx) {
		if err := ctx.Bind(r); err != nil {
			return errors.Wrap(err, "binding to EditRequest")
		}
		return nil
	}

	form, err := ctx.FormParams()
	if err != nil {
		return errors.Wrap(err, "parsing form")
	}
	ids, statuses, seats := form["student_id"], form["status"], form["seat_number"]
	if len(statuses) != len(ids) || len(seats) != len(ids) {
		return core.NewValidationError(errors.New("表单数据不完整"))
	}

	var flds []core.FieldError
	r.Updates = make([]attendance.EntryUpdate, 0, len(ids))
	for i, id := range ids {
		u := attendance.EntryUpdate{
			StudentID: core.CleanString(id),
			Status:    attendance.Status(core.CleanString(statuses[i])),
		}
		if s := core.CleanString(seats[i]); s != "" {
			seat, err := strconv.Atoi(s)
			if err != nil {
				flds = append(flds, core.FieldError{Field: u.StudentID, Error: "座位号必须是数字"})
				continue
			}
			u.SeatNumber = &seat
		}
		r.Updates = append(r.Updates, u)
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

// KeysRequest carries history keys encoded with history.Key.String.
type KeysRequest struct {
	Keys []history.Key
}

func (r *KeysRequest) Bind(ctx echo.Context) error {
	form, err := ctx.FormParams()
	if err != nil {
		return errors.Wrap(err, "parsing form")
	}
	for _, v := range form["key"] {
		if v = strings.TrimSpace(v); v == "" {
			continue
		}
		k, err := history.ParseKey(v)
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "key", Error: "无效的记录: " + v})
		}
		r.Keys = append(r.Keys, k)
	}
	return nil
}
