package history

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core"
)

const (
	reportTemplate    = "attendance_report"
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportHeaderID    = "学号"
	exportHeaderName  = "姓名"
	defaultSummaryOrd = "save_time DESC, classroom_id ASC, class_name ASC"
)

var (
	// errors
	ErrNoEntries     = errors.New("没有签到数据")
	ErrKeyExists     = errors.New("该时间点的签到记录已保存")
	ErrNothingToSave = core.NewValidationError(ErrNoEntries)
	ErrNoKeys        = core.NewValidationError(errors.New("请选择要导出的记录"))
	ErrNoRecords     = core.NewValidationError(errors.New("所选记录中没有数据"))

	// SummaryOrderings are the fields Summarize may be ordered by.
	SummaryOrderings = []string{"save_time", "classroom_id", "class_name"}

	nowFunc = time.Now
)

type (
	Repository interface {
		// Snapshot copies the classroom's session entries into records sharing key.SaveTime,
		// in one transaction. It returns ErrKeyExists when key is already stored and
		// ErrNoEntries when the classroom has no entries.
		Snapshot(ctx context.Context, key Key) (int, error)
		CountStatuses(ctx context.Context, course string, orderBy string) ([]StatusCount, error)
		QueryRecords(ctx context.Context, key Key) ([]Record, error)
		DeleteRecords(ctx context.Context, key Key) (int, error)
	}

	// SheetWriter writes blocks of rows as one spreadsheet sheet.
	SheetWriter interface {
		WriteSheet(w io.Writer, blocks []Block) error
	}

	Service struct {
		repo    Repository
		sheets  SheetWriter
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, sheets SheetWriter, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, sheets: sheets, mailSvc: mailSvc}
}

// Snapshot saves the classroom's current entries under course. Nothing is saved when the
// classroom has no entries.
func (svc *Service) Snapshot(ctx context.Context, classroomID, course string) (Key, int, error) {
	course = core.CleanString(course)
	if course == "" {
		return Key{}, 0, core.NewValidationError(nil, core.FieldError{Field: "course", Error: "请输入课程名称"})
	}

	key := Key{Course: course, SaveTime: nowFunc().Format(SaveTimeLayout), ClassroomID: classroomID}
	n, err := svc.repo.Snapshot(ctx, key)
	if err != nil {
		switch errors.Cause(err) {
		case ErrNoEntries:
			return Key{}, 0, ErrNothingToSave
		case ErrKeyExists:
			return Key{}, 0, core.NewConflictError(ErrKeyExists, key.String())
		}
		return Key{}, 0, errors.Wrap(err, "saving snapshot")
	}
	return key, n, nil
}

// Summarize groups the course records by (save_time, classroom, class).
func (svc *Service) Summarize(ctx context.Context, course string, ordering []core.DBOrdering) ([]Summary, error) {
	course = core.CleanString(course)
	if course == "" {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "course", Error: "请输入课程名称"})
	}

	var allowed []core.DBOrdering
	for _, ord := range ordering {
		for _, f := range SummaryOrderings {
			if ord.Field == f {
				allowed = append(allowed, ord)
				break
			}
		}
	}

	counts, err := svc.repo.CountStatuses(ctx, course, core.OrderByClause(allowed, defaultSummaryOrd))
	if err != nil {
		return nil, errors.Wrap(err, "counting statuses")
	}
	return summarize(counts), nil
}

// Delete removes the records of key and reports whether any existed.
func (svc *Service) Delete(ctx context.Context, key Key) (bool, error) {
	if key.IsZero() {
		return false, core.NewValidationError(errInvalidKey)
	}
	n, err := svc.repo.DeleteRecords(ctx, key)
	if err != nil {
		return false, errors.Wrap(err, "deleting records")
	}
	return n > 0, nil
}

// Blocks returns one block per key, in order, each headed by ["学号", "姓名", save_time].
func (svc *Service) Blocks(ctx context.Context, keys []Key) ([]Block, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}

	blocks := make([]Block, 0, len(keys))
	var total int
	for _, k := range keys {
		records, err := svc.repo.QueryRecords(ctx, k)
		if err != nil {
			return nil, errors.Wrapf(err, "querying records of %s", k)
		}
		b := Block{
			Header: []string{exportHeaderID, exportHeaderName, k.SaveTime},
			Rows:   make([][]string, 0, len(records)),
		}
		for _, r := range records {
			b.Rows = append(b.Rows, []string{r.StudentID, r.Name, string(r.Status)})
		}
		total += len(records)
		blocks = append(blocks, b)
	}
	if total == 0 {
		return nil, ErrNoRecords
	}
	return blocks, nil
}

// Export writes the records of keys to w as one spreadsheet sheet.
func (svc *Service) Export(ctx context.Context, keys []Key, w io.Writer) error {
	blocks, err := svc.Blocks(ctx, keys)
	if err != nil {
		return err
	}
	if err := svc.sheets.WriteSheet(w, blocks); err != nil {
		return errors.Wrap(err, "writing sheet")
	}
	return nil
}

type reportData struct {
	Key       Key
	Summaries []Summary
}

// MailReport emails the snapshot summary to recipients with the exported spreadsheet attached.
func (svc *Service) MailReport(ctx context.Context, key Key, recipients []string) error {
	if len(recipients) == 0 || svc.mailSvc == nil {
		return nil
	}

	to := make([]mail.Address, 0, len(recipients))
	for _, r := range recipients {
		addr, err := mail.ParseAddress(r)
		if err != nil {
			return errors.Wrapf(err, "parsing recipient %q", r)
		}
		to = append(to, *addr)
	}

	all, err := svc.Summarize(ctx, key.Course, nil)
	if err != nil {
		return errors.Wrap(err, "summarizing")
	}
	var sums []Summary
	for _, s := range all {
		if s.SaveTime == key.SaveTime && s.ClassroomID == key.ClassroomID {
			sums = append(sums, s)
		}
	}

	var buff bytes.Buffer
	if err := svc.Export(ctx, []Key{key}, &buff); err != nil {
		return errors.Wrap(err, "exporting records")
	}

	msg := &core.EmailMessage{
		To:           to,
		Subject:      fmt.Sprintf("签到记录 %s %s", key.Course, key.SaveTime),
		TemplateName: reportTemplate,
		TemplateData: reportData{Key: key, Summaries: sums},
	}
	if err := msg.Attach(&buff, ExportFilename(key.ClassroomID, key.SaveTime), xlsxContentType); err != nil {
		return errors.Wrap(err, "attaching export")
	}
	svc.mailSvc.SendMessages(msg)
	return nil
}

// ExportFilename is the name of a spreadsheet exported at saveTime.
func ExportFilename(classroomID, saveTime string) string {
	ts := saveTime
	if t, err := time.ParseInLocation(SaveTimeLayout, saveTime, time.Local); err == nil {
		ts = t.Format("20060102-150405")
	}
	return fmt.Sprintf("attendance-%s-%s.xlsx", classroomID, ts)
}
