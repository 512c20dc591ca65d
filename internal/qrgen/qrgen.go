// Package qrgen renders QR code images: a fixed-width matrix with a
// configurable foreground color and an optional centered logo overlay.
package qrgen

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/skip2/go-qrcode"
)

// Size is the rendered image width/height in pixels.
const Size = 500

var ErrEmptyData = errors.New("qr code data is required")

// ParseHexColor accepts #RGB and #RRGGBB. An empty string means black.
func ParseHexColor(s string) (color.RGBA, error) {
	c := color.RGBA{A: 0xff}
	if s == "" {
		return c, nil
	}
	if len(s) == 0 || s[0] != '#' {
		return c, fmt.Errorf("invalid hex color %q", s)
	}

	hexVal := func(b byte) (uint8, bool) {
		switch {
		case b >= '0' && b <= '9':
			return b - '0', true
		case b >= 'a' && b <= 'f':
			return b - 'a' + 10, true
		case b >= 'A' && b <= 'F':
			return b - 'A' + 10, true
		}
		return 0, false
	}

	switch len(s) {
	case 7:
		for i, p := range []*uint8{&c.R, &c.G, &c.B} {
			hi, ok1 := hexVal(s[1+i*2])
			lo, ok2 := hexVal(s[2+i*2])
			if !ok1 || !ok2 {
				return c, fmt.Errorf("invalid hex color %q", s)
			}
			*p = hi<<4 | lo
		}
	case 4:
		for i, p := range []*uint8{&c.R, &c.G, &c.B} {
			v, ok := hexVal(s[1+i])
			if !ok {
				return c, fmt.Errorf("invalid hex color %q", s)
			}
			*p = v<<4 | v
		}
	default:
		return c, fmt.Errorf("invalid hex color %q", s)
	}
	return c, nil
}

// Render encodes data into a 500px PNG with the given foreground color over a
// white background. A non-nil logo is alpha-composited centered over the
// matrix. The error correction level is not raised for the covered modules;
// small logos stay scannable, oversized ones will not.
func Render(data string, fg color.Color, logo image.Image) ([]byte, error) {
	if data == "" {
		return nil, ErrEmptyData
	}

	qr, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr matrix: %w", err)
	}
	qr.ForegroundColor = fg
	qr.BackgroundColor = color.White

	img := qr.Image(Size)

	if logo != nil {
		canvas := image.NewRGBA(img.Bounds())
		draw.Draw(canvas, canvas.Bounds(), img, img.Bounds().Min, draw.Src)

		lb := logo.Bounds()
		offset := image.Pt(
			canvas.Bounds().Min.X+(canvas.Bounds().Dx()-lb.Dx())/2,
			canvas.Bounds().Min.Y+(canvas.Bounds().Dy()-lb.Dy())/2,
		)
		draw.Draw(canvas, lb.Sub(lb.Min).Add(offset), logo, lb.Min, draw.Over)
		img = canvas
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}

	return buf.Bytes(), nil
}
