package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"strconv"

	"github.com/disintegration/imaging"
	"go.uber.org/multierr"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/extent-mcp/internal/segment"
)

// Overlay defaults used by the live preview and the measurement annotation.
const (
	HullColor        = "#00FF00"
	ExtentColor      = "#FF0000"
	OverlayThickness = 2
	labelOffsetX     = 10
)

// EncodedImage contains a PNG-encoded image.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG encodes img as base64 PNG.
func EncodePNG(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	b := img.Bounds()
	return &EncodedImage{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// SavePNG writes img to path as PNG whatever the file extension.
func SavePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	err = imaging.Encode(f, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestSpeed))
	if err != nil {
		err = fmt.Errorf("failed to encode image: %w", err)
	}
	return multierr.Combine(err, f.Close())
}

// DrawHull returns a copy of img with the closed polygon poly outlined.
//
// Parameters:
//   - img: The frame to annotate. It is not modified.
//   - poly: Polygon vertices; the last vertex connects back to the first.
//   - hex: Outline color as "#RRGGBB" or "#RRGGBBAA". Invalid values fall
//     back to HullColor.
//   - thickness: Line width in pixels. Values below 1 are treated as 1.
func DrawHull(img image.Image, poly []image.Point, hex string, thickness int) *image.NRGBA {
	c, err := parseHexColor(hex)
	if err != nil {
		c, _ = parseHexColor(HullColor)
	}

	result := imaging.Clone(img)
	off := img.Bounds().Min
	for i := range poly {
		a := poly[i].Sub(off)
		b := poly[(i+1)%len(poly)].Sub(off)
		drawThickLine(result, a, b, thickness, c)
	}
	return result
}

// DrawExtent returns a copy of img annotated with a measurement: a vertical
// line from extent.Top to extent.Bottom at the frame's center column, and the
// label "<height> px" to its right at the vertical midpoint.
func DrawExtent(img image.Image, extent segment.Extent) *image.NRGBA {
	c, _ := parseHexColor(ExtentColor)

	result := imaging.Clone(img)
	x := result.Bounds().Dx() / 2
	drawThickLine(result, image.Pt(x, extent.Top), image.Pt(x, extent.Bottom), OverlayThickness, c)

	label := fmt.Sprintf("%d px", extent.Height)
	drawText(result, x+labelOffsetX, (extent.Top+extent.Bottom)/2, label, c)
	return result
}

// MaskToImage renders a mask as an opaque white-on-black image.
func MaskToImage(mask *image.Gray) *image.NRGBA {
	return imaging.Clone(mask)
}

// drawThickLine draws a line from a to b with a square pen of the given
// width, clipped to img.
func drawThickLine(img *image.NRGBA, a, b image.Point, thickness int, c color.NRGBA) {
	if thickness < 1 {
		thickness = 1
	}
	lo := -(thickness - 1) / 2
	hi := thickness / 2
	pen := image.NewUniform(c)

	plotLine(a, b, func(x, y int) {
		r := image.Rect(x+lo, y+lo, x+hi+1, y+hi+1)
		draw.Draw(img, r.Intersect(img.Bounds()), pen, image.Point{}, draw.Over)
	})
}

// plotLine walks the Bresenham line from a to b inclusive.
func plotLine(a, b image.Point, plot func(x, y int)) {
	dx, dy := b.X-a.X, b.Y-a.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	dy = -dy
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	x, y := a.X, a.Y
	for {
		plot(x, y)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

// drawText draws text with its baseline vertically centered on y.
func drawText(img *image.NRGBA, x, y int, text string, c color.NRGBA) {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	baseline := y + (metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(text)
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}
