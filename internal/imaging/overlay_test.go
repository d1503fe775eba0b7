package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/ironsheep/extent-mcp/internal/segment"
)

var (
	green = color.NRGBA{0, 255, 0, 255}
	red   = color.NRGBA{255, 0, 0, 255}
	black = color.NRGBA{0, 0, 0, 255}
)

func TestDrawHull(t *testing.T) {
	img := createInMemoryImage(20, 20, color.Black)
	square := []image.Point{{5, 5}, {14, 5}, {14, 14}, {5, 14}}

	result := DrawHull(img, square, HullColor, 1)

	tests := []struct {
		name string
		x, y int
		want color.NRGBA
	}{
		{"vertex", 5, 5, green},
		{"top edge", 10, 5, green},
		{"right edge", 14, 10, green},
		{"closing edge", 5, 10, green},
		{"inside", 10, 10, black},
		{"outside", 2, 2, black},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := result.NRGBAAt(tt.x, tt.y); got != tt.want {
				t.Errorf("(%d,%d): got %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}

	if r, g, b, _ := img.At(5, 5).RGBA(); r != 0 || g != 0 || b != 0 {
		t.Error("DrawHull modified the input image")
	}
}

func TestDrawHull_Thickness(t *testing.T) {
	img := createInMemoryImage(20, 20, color.Black)
	square := []image.Point{{5, 5}, {14, 5}, {14, 14}, {5, 14}}

	result := DrawHull(img, square, "#00FF00", 2)
	if got := result.NRGBAAt(10, 6); got != green {
		t.Errorf("second pen row: got %v, want green", got)
	}
	if got := result.NRGBAAt(10, 4); got != black {
		t.Errorf("above pen: got %v, want black", got)
	}
}

func TestDrawHull_InvalidColorFallsBack(t *testing.T) {
	img := createInMemoryImage(10, 10, color.Black)
	result := DrawHull(img, []image.Point{{1, 1}, {8, 1}, {8, 8}}, "not-a-color", 1)
	if got := result.NRGBAAt(4, 1); got != green {
		t.Errorf("got %v, want fallback green", got)
	}
}

func TestDrawHull_ClipsOutsideFrame(t *testing.T) {
	img := createInMemoryImage(10, 10, color.Black)
	result := DrawHull(img, []image.Point{{-5, 2}, {20, 2}, {20, 30}}, HullColor, 3)
	if got := result.NRGBAAt(0, 2); got != green {
		t.Errorf("got %v, want green", got)
	}
}

func TestDrawExtent(t *testing.T) {
	img := createInMemoryImage(100, 60, color.Black)
	extent := segment.Extent{Top: 10, Bottom: 49, Height: 40}

	result := DrawExtent(img, extent)

	for _, y := range []int{10, 30, 49} {
		if got := result.NRGBAAt(50, y); got != red {
			t.Errorf("line at (50,%d): got %v, want red", y, got)
		}
	}
	if got := result.NRGBAAt(50, 5); got != black {
		t.Errorf("above top: got %v, want black", got)
	}
	if got := result.NRGBAAt(50, 55); got != black {
		t.Errorf("below bottom: got %v, want black", got)
	}

	labelPixels := 0
	for y := 0; y < 60; y++ {
		for x := 50 + labelOffsetX; x < 100; x++ {
			if result.NRGBAAt(x, y) == red {
				labelPixels++
			}
		}
	}
	if labelPixels == 0 {
		t.Error("expected label pixels to the right of the line")
	}
}

func TestMaskToImage(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 4, 4))
	mask.SetGray(1, 2, color.Gray{Y: 255})

	img := MaskToImage(mask)
	if got := img.NRGBAAt(1, 2); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("set pixel: got %v", got)
	}
	if got := img.NRGBAAt(0, 0); got != black {
		t.Errorf("clear pixel: got %v", got)
	}
}

func TestEncodePNG(t *testing.T) {
	img := createInMemoryImage(12, 7, color.RGBA{1, 2, 3, 255})

	enc, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	if enc.Width != 12 || enc.Height != 7 || enc.MimeType != "image/png" {
		t.Errorf("got %dx%d %s", enc.Width, enc.Height, enc.MimeType)
	}

	raw, err := base64.StdEncoding.DecodeString(enc.ImageBase64)
	if err != nil {
		t.Fatalf("base64 decode failed: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("png decode failed: %v", err)
	}
	if decoded.Bounds().Dx() != 12 || decoded.Bounds().Dy() != 7 {
		t.Errorf("decoded size: %v", decoded.Bounds())
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		input   string
		want    color.NRGBA
		wantErr bool
	}{
		{"#FF0000", color.NRGBA{255, 0, 0, 255}, false},
		{"00FF00", color.NRGBA{0, 255, 0, 255}, false},
		{"#0000FF80", color.NRGBA{0, 0, 255, 128}, false},
		{"#abcdef", color.NRGBA{0xab, 0xcd, 0xef, 255}, false},
		{"", color.NRGBA{}, true},
		{"#FFF", color.NRGBA{}, true},
		{"#GGGGGG", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseHexColor(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.out")
	if err := SavePNG(createInMemoryImage(5, 3, color.White), path); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}

	l, err := LoadFrame(path)
	if err != nil {
		t.Fatalf("LoadFrame failed: %v", err)
	}
	if l.Info.Width != 5 || l.Info.Height != 3 {
		t.Errorf("size: got %dx%d", l.Info.Width, l.Info.Height)
	}

	if err := SavePNG(l.Image, filepath.Join(t.TempDir(), "missing", "x.png")); err == nil {
		t.Error("expected error for missing directory")
	}
}
