// Package seatcode generates the per-seat QR code images of a classroom and the printable
// document gathering them.
package seatcode

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core"
	"github.com/trezcool/checkin/core/classroom"
)

var (
	// errors
	ErrCodesMissing   = core.NewNotFoundError("二维码文件 (请先生成二维码)")
	ErrFileNotFound   = core.NewNotFoundError("file")
	ErrFileType       = core.NewForbiddenError("只允许访问 png 和 pdf 文件")
	allowedExtensions = map[string]bool{".png": true, ".pdf": true}
)

type (
	// QREncoder writes a PNG image of a QR code encoding content, labelled with the seat number.
	QREncoder interface {
		EncodeSeat(w io.Writer, content string, seat int) error
	}

	// Printer assembles the seat images found in dir into one printable document and returns its path.
	Printer interface {
		Print(ctx context.Context, dir, classroomID string, images []string) (string, error)
	}

	Classrooms interface {
		Get(ctx context.Context, id string) (classroom.Classroom, error)
	}

	Service struct {
		dataDir string
		baseURL string
		rooms   Classrooms
		encoder QREncoder
		printer Printer
	}
)

func NewService(conf *core.Config, rooms Classrooms, encoder QREncoder, printer Printer) *Service {
	return &Service{
		dataDir: conf.DataDir,
		baseURL: conf.Server.PublicBaseURL,
		rooms:   rooms,
		encoder: encoder,
		printer: printer,
	}
}

// SeatURL is the check-in page URL printed on the code of seat.
func SeatURL(baseURL, classroomID string, seat int) string {
	return fmt.Sprintf("%s/checkin/%s/checkin-%02d.html", strings.TrimRight(baseURL, "/"), classroomID, seat)
}

// ImageName is the file name of the code of seat.
func ImageName(seat int) string {
	return fmt.Sprintf("qr-%02d.png", seat)
}

// DocumentName is the file name of the printable document of a classroom, without extension.
func DocumentName(classroomID string) string {
	return "qrcode-" + classroomID
}

// Dir is the directory holding the classroom's codes and printable document.
func Dir(dataDir, classroomID string) string {
	return filepath.Join(dataDir, classroomID, "qrcode")
}

// GenerateCodes writes one image per seat of the classroom and returns their paths.
func (svc *Service) GenerateCodes(ctx context.Context, classroomID string) ([]string, error) {
	room, err := svc.rooms.Get(ctx, classroomID)
	if err != nil {
		return nil, errors.Wrap(err, "getting classroom")
	}

	dir := Dir(svc.dataDir, room.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating codes dir")
	}

	paths := make([]string, 0, room.Capacity())
	for seat := 1; seat <= room.Capacity(); seat++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fp := filepath.Join(dir, ImageName(seat))
		if err := svc.writeCode(fp, SeatURL(svc.baseURL, room.ID, seat), seat); err != nil {
			return nil, errors.Wrapf(err, "writing code of seat %d", seat)
		}
		paths = append(paths, fp)
	}
	return paths, nil
}

func (svc *Service) writeCode(fp, content string, seat int) (err error) {
	f, err := os.Create(fp)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := f.Close(); err == nil {
			err = cErr
		}
	}()
	return svc.encoder.EncodeSeat(f, content, seat)
}

// GeneratePrintFile builds the printable document from previously generated codes.
func (svc *Service) GeneratePrintFile(ctx context.Context, classroomID string) (string, error) {
	room, err := svc.rooms.Get(ctx, classroomID)
	if err != nil {
		return "", errors.Wrap(err, "getting classroom")
	}

	dir := Dir(svc.dataDir, room.ID)
	images := make([]string, 0, room.Capacity())
	for seat := 1; seat <= room.Capacity(); seat++ {
		name := ImageName(seat)
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			if os.IsNotExist(err) {
				return "", ErrCodesMissing
			}
			return "", errors.Wrap(err, "checking code image")
		}
		images = append(images, name)
	}
	if len(images) == 0 {
		return "", ErrCodesMissing
	}

	doc, err := svc.printer.Print(ctx, dir, room.ID, images)
	if err != nil {
		return "", errors.Wrap(err, "printing codes")
	}
	return doc, nil
}

// ResolveFile returns the path of a generated png or pdf of the classroom.
func (svc *Service) ResolveFile(classroomID, name string) (string, error) {
	if !allowedExtensions[strings.ToLower(filepath.Ext(name))] {
		return "", ErrFileType
	}
	if !core.IsClassroomID(classroomID) || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrFileNotFound
	}

	fp := filepath.Join(Dir(svc.dataDir, classroomID), name)
	info, err := os.Stat(fp)
	if err != nil || info.IsDir() {
		return "", ErrFileNotFound
	}
	return fp, nil
}
