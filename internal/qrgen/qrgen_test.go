package qrgen

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{name: "empty defaults to black", in: "", want: color.RGBA{A: 0xff}},
		{name: "six digit", in: "#FF8800", want: color.RGBA{R: 0xff, G: 0x88, B: 0x00, A: 0xff}},
		{name: "six digit lowercase", in: "#00ff00", want: color.RGBA{G: 0xff, A: 0xff}},
		{name: "three digit", in: "#f0a", want: color.RGBA{R: 0xff, G: 0x00, B: 0xaa, A: 0xff}},
		{name: "missing hash", in: "FF8800", wantErr: true},
		{name: "bad digit", in: "#zz8800", wantErr: true},
		{name: "wrong length", in: "#ff88", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseHexColor(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRenderRejectsEmptyData(t *testing.T) {
	_, err := Render("", color.Black, nil)
	assert.ErrorIs(t, err, ErrEmptyData)
}

func TestRenderProducesFixedSizePNG(t *testing.T) {
	data, err := Render("https://example.com/menu", color.Black, nil)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, Size, img.Bounds().Dx())
	assert.Equal(t, Size, img.Bounds().Dy())
}

func TestRenderCompositesLogoAtCenter(t *testing.T) {
	logo := image.NewRGBA(image.Rect(0, 0, 80, 80))
	red := color.RGBA{R: 0xff, A: 0xff}
	for y := 0; y < 80; y++ {
		for x := 0; x < 80; x++ {
			logo.SetRGBA(x, y, red)
		}
	}

	data, err := Render("https://example.com/menu", color.Black, logo)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	r, g, b, _ := img.At(Size/2, Size/2).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0), g)
	assert.Equal(t, uint32(0), b)
}

func TestRenderUsesForegroundColor(t *testing.T) {
	blue := color.RGBA{B: 0xff, A: 0xff}
	data, err := Render("https://example.com/menu", blue, nil)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	// The finder pattern guarantees foreground pixels near the top-left
	// corner inside the quiet zone.
	foundBlue := false
	for y := 0; y < Size/2 && !foundBlue; y++ {
		for x := 0; x < Size/2; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r == 0 && g == 0 && b == 0xffff {
				foundBlue = true
				break
			}
		}
	}
	assert.True(t, foundBlue, "expected at least one blue module")
}
