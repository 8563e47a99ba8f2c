package seatcodesvc

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"

	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/trezcool/checkin/core/seatcode"
)

const (
	modulePixels = 10 // pixels per QR module
	labelTop     = 5
)

// QREncoder renders seat codes with skip2/go-qrcode and prints the seat number in the top quiet zone.
type QREncoder struct {
	Level qrcode.RecoveryLevel
}

var _ seatcode.QREncoder = (*QREncoder)(nil)

func NewQREncoder() *QREncoder {
	return &QREncoder{Level: qrcode.Low}
}

func (enc QREncoder) EncodeSeat(w io.Writer, content string, seat int) error {
	q, err := qrcode.New(content, enc.Level)
	if err != nil {
		return errors.Wrap(err, "encoding qr code")
	}

	src := q.Image(-modulePixels)
	img := image.NewRGBA(src.Bounds())
	draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Src)
	drawLabel(img, fmt.Sprintf("%02d", seat))

	return errors.Wrap(png.Encode(w, img), "writing png")
}

// drawLabel writes text horizontally centered at the top of img.
func drawLabel(img draw.Image, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: face,
	}
	width := d.MeasureString(text).Ceil()
	x := (img.Bounds().Dx() - width) / 2
	y := labelTop + face.Metrics().Ascent.Ceil()
	d.Dot = fixed.P(img.Bounds().Min.X+x, img.Bounds().Min.Y+y)
	d.DrawString(text)
}
