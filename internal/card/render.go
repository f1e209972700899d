// Package card draws delivered card details onto a PNG image.
package card

import (
	"bytes"
	"errors"
	"github.com/rookgm/cardpay/internal/models"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
)

const (
	width  = 856
	height = 540
)

var (
	background = color.RGBA{R: 0x1f, G: 0x2a, B: 0x44, A: 0xff}
	foreground = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	muted      = color.RGBA{R: 0xc8, G: 0xd0, B: 0xe0, A: 0xff}
)

// Renderer draws cards over template image or plain background
type Renderer struct {
	template image.Image
}

// NewRenderer creates new Renderer. Empty path selects plain background.
func NewRenderer(templatePath string) (*Renderer, error) {
	if templatePath == "" {
		return &Renderer{}, nil
	}

	f, err := os.Open(templatePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tpl, err := png.Decode(f)
	if err != nil {
		return nil, err
	}

	return &Renderer{template: tpl}, nil
}

// Render returns PNG image of card
func (r *Renderer) Render(details *models.CardDetails) ([]byte, error) {
	if !details.Complete() {
		return nil, errors.New("incomplete card details")
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if r.template != nil {
		draw.CatmullRom.Scale(dst, dst.Bounds(), r.template, r.template.Bounds(), draw.Src, nil)
	} else {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	}

	text := newWriter(dst, basicfont.Face7x13)

	text.write(FormatNumber(details.CardNumber), 60, 300, 3, foreground)
	text.write("VALID THRU", 60, 390, 1, muted)
	text.write(details.ExpiryDate, 60, 430, 2, foreground)
	text.write("CVV", 300, 390, 1, muted)
	text.write(details.CVV, 300, 430, 2, foreground)
	text.write(strings.ToUpper(details.CardName), 60, 490, 2, foreground)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatNumber groups card number digits by four
func FormatNumber(number string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)

	var groups []string
	for len(digits) > 4 {
		groups = append(groups, digits[:4])
		digits = digits[4:]
	}
	groups = append(groups, digits)

	return strings.Join(groups, " ")
}

type writer struct {
	dst  draw.Image
	face font.Face
}

func newWriter(dst draw.Image, face font.Face) *writer {
	return &writer{dst: dst, face: face}
}

// write draws s with baseline at (x, y), scaling glyphs by an integer factor
func (w *writer) write(s string, x, y, scale int, c color.Color) {
	if scale <= 1 {
		d := &font.Drawer{
			Dst:  w.dst,
			Src:  image.NewUniform(c),
			Face: w.face,
			Dot:  fixed.P(x, y),
		}
		d.DrawString(s)
		return
	}

	metrics := w.face.Metrics()
	ascent := metrics.Ascent.Ceil()
	lineHeight := metrics.Height.Ceil()
	adv := font.MeasureString(w.face, s).Ceil()
	if adv == 0 {
		return
	}

	tmp := image.NewRGBA(image.Rect(0, 0, adv, lineHeight))
	d := &font.Drawer{
		Dst:  tmp,
		Src:  image.NewUniform(c),
		Face: w.face,
		Dot:  fixed.P(0, ascent),
	}
	d.DrawString(s)

	top := y - ascent*scale
	rect := image.Rect(x, top, x+adv*scale, top+lineHeight*scale)
	draw.NearestNeighbor.Scale(w.dst, rect, tmp, tmp.Bounds(), draw.Over, nil)
}
