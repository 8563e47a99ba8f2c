package seatcodesvc

import (
	"context"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core"
	"github.com/trezcool/checkin/core/seatcode"
)

const (
	pageMargin = 10.0 // mm
	imageRatio = 0.23
	rowGap     = 4.0 // mm
)

// PDFPrinter lays the seat images out with gofpdf, 4 per line as the LaTeX document does.
type PDFPrinter struct{}

var _ seatcode.Printer = (*PDFPrinter)(nil)

func NewPDFPrinter() *PDFPrinter {
	return &PDFPrinter{}
}

func (p PDFPrinter) Print(ctx context.Context, dir, classroomID string, images []string) (string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pageW, pageH := pdf.GetPageSize()

	textWidth := pageW - 2*pageMargin
	size := imageRatio * textWidth
	hGap := (textWidth - imagesPerLine*size) / (imagesPerLine - 1)

	y := pageMargin
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		col := i % imagesPerLine
		if i == 0 || (col == 0 && y+2*size+rowGap > pageH-pageMargin) {
			pdf.AddPage()
			y = pageMargin
		} else if col == 0 {
			y += size + rowGap
		}
		x := pageMargin + float64(col)*(size+hGap)
		pdf.ImageOptions(filepath.Join(dir, img), x, y, size, size, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	fp := filepath.Join(dir, seatcode.DocumentName(classroomID)+".pdf")
	if err := pdf.OutputFileAndClose(fp); err != nil {
		return "", core.NewExternalToolError("gofpdf", errors.Wrap(err, "writing pdf").Error(), "")
	}
	return fp, nil
}
