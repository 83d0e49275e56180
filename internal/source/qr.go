package source

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	qrcode "github.com/skip2/go-qrcode"
)

// QRCard is a single generated closing slide carrying a QR code for a
// link (channel, source article, store page). It renders once at the
// requested geometry so the compositor never has to crop it.
type QRCard struct {
	img  image.Image
	link string
}

// NewQRCard builds the card at the target frame geometry with the QR code
// centered on a dark background.
func NewQRCard(link string, width, height int) (*QRCard, error) {
	if link == "" {
		return nil, fmt.Errorf("qr card: empty link")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("qr card: invalid geometry %dx%d", width, height)
	}

	code, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr card: %w", err)
	}
	code.BackgroundColor = color.RGBA{R: 18, G: 18, B: 24, A: 255}
	code.ForegroundColor = color.White

	side := width * 6 / 10
	if height < width {
		side = height * 6 / 10
	}

	card := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(card, card.Bounds(), image.NewUniform(code.BackgroundColor), image.Point{}, draw.Src)

	qrImg := code.Image(side)
	offset := image.Pt((width-side)/2, (height-side)/2)
	draw.Draw(card, qrImg.Bounds().Add(offset), qrImg, qrImg.Bounds().Min, draw.Src)

	return &QRCard{img: card, link: link}, nil
}

func (q *QRCard) Count() int {
	return 1
}

func (q *QRCard) Label(i int) string {
	return "qr:" + q.link
}

func (q *QRCard) Load(i int) (image.Image, error) {
	if i != 0 {
		return nil, fmt.Errorf("qr card has a single image, got index %d", i)
	}
	return q.img, nil
}

func (q *QRCard) Close() error {
	return nil
}
