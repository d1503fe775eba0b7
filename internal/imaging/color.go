package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/extent-mcp/internal/segment"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSVColor represents a color in the half-turn HSV space the detector works
// in.
//
// Hue is halved so that it fits a byte:
//   - H: 0-179 (0=red, 60=green, 120=blue)
//   - S: 0-255 (0=gray, 255=vivid)
//   - V: 0-255 (0=black, 255=brightest)
type HSVColor struct {
	H uint8 `json:"h"`
	S uint8 `json:"s"`
	V uint8 `json:"v"`
}

// ColorResult contains a color value in multiple representations.
type ColorResult struct {
	Hex string   `json:"hex"` // Hex format "#RRGGBB"
	RGB RGBColor `json:"rgb"` // RGB components
	HSV HSVColor `json:"hsv"` // Half-turn HSV components
}

// HSV converts 8-bit RGB to half-turn HSV.
//
// Hue in degrees is halved and rounded, wrapping 180 back to 0. Saturation
// and value are scaled to 0-255 and rounded.
func HSV(r, g, b uint8) [3]uint8 {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, v := c.Hsv()

	hh := int(math.Round(h / 2))
	if hh >= 180 {
		hh -= 180
	}
	return [3]uint8{
		uint8(hh),
		uint8(math.Round(s * 255)),
		uint8(math.Round(v * 255)),
	}
}

// ToFrames converts img to the color and HSV frames the detector consumes.
// Alpha is ignored.
func ToFrames(img image.Image) (*segment.Frame, *segment.Frame) {
	src, ok := img.(*image.NRGBA)
	if !ok || src.Bounds().Min != (image.Point{}) {
		src = imaging.Clone(img)
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	rgb := segment.NewFrame(w, h)
	hsv := segment.NewFrame(w, h)

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			row := src.Pix[y*src.Stride:]
			for x := 0; x < w; x++ {
				r, g, b := row[x*4], row[x*4+1], row[x*4+2]
				rgb.Set(x, y, [3]uint8{r, g, b})
				hsv.Set(x, y, HSV(r, g, b))
			}
		}
	})
	return rgb, hsv
}

// FrameToImage converts a color frame back to an opaque image.
func FrameToImage(f *segment.Frame) *image.NRGBA {
	img := image.NewNRGBA(f.Bounds())
	for i := 0; i < f.Width*f.Height; i++ {
		img.Pix[i*4] = f.Pix[i*3]
		img.Pix[i*4+1] = f.Pix[i*3+1]
		img.Pix[i*4+2] = f.Pix[i*3+2]
		img.Pix[i*4+3] = 255
	}
	return img
}

// SampleColor extracts the color value at a specific pixel coordinate.
//
// Parameters:
//   - img: The source image to sample from.
//   - x: X coordinate (0-based, 0 = leftmost pixel).
//   - y: Y coordinate (0-based, 0 = topmost pixel).
//
// Returns:
//   - *ColorResult: The color at (x, y) as hex, RGB and half-turn HSV.
//   - error: Non-nil if coordinates are outside the image bounds.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	// Non-premultiplied, to match ToFrames
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	r8, g8, b8 := c.R, c.G, c.B
	hsv := HSV(r8, g8, b8)

	return &ColorResult{
		Hex: fmt.Sprintf("#%02X%02X%02X", r8, g8, b8),
		RGB: RGBColor{R: r8, G: g8, B: b8},
		HSV: HSVColor{H: hsv[0], S: hsv[1], V: hsv[2]},
	}, nil
}

// SampleCenter samples the pixel the detector seeds from, (W/2, H/2).
func SampleCenter(img image.Image) (*ColorResult, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("empty image: %w", segment.ErrInvalidInput)
	}
	return SampleColor(img, b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2)
}
