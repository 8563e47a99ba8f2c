package spreadsheetsvc

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/checkin/core/history"
)

const (
	defaultSheet = "Sheet1"
	// SheetName is the name of the exported attendance sheet.
	SheetName = "签到记录"
)

// ExcelWriter writes history blocks as an xlsx workbook with a single sheet.
type ExcelWriter struct{}

var _ history.SheetWriter = (*ExcelWriter)(nil)

func NewExcelWriter() *ExcelWriter {
	return &ExcelWriter{}
}

func (ExcelWriter) WriteSheet(w io.Writer, blocks []history.Block) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cErr := f.Close(); err == nil {
			err = cErr
		}
	}()

	if err = f.SetSheetName(defaultSheet, SheetName); err != nil {
		return errors.Wrap(err, "naming sheet")
	}
	if err = f.SetColWidth(SheetName, "A", "C", 20); err != nil {
		return errors.Wrap(err, "sizing columns")
	}

	row := 1
	writeRow := func(values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		cells := make([]interface{}, len(values))
		for i, v := range values {
			cells[i] = v
		}
		row++
		return f.SetSheetRow(SheetName, cell, &cells)
	}

	for _, b := range blocks {
		if err = writeRow(b.Header); err != nil {
			return errors.Wrap(err, "writing header")
		}
		for _, r := range b.Rows {
			if err = writeRow(r); err != nil {
				return errors.Wrap(err, "writing row")
			}
		}
	}

	return errors.Wrap(f.Write(w), "writing workbook")
}
