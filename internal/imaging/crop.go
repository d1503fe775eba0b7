package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/extent-mcp/internal/segment"
)

// MaskBounds returns the smallest rectangle containing every set pixel of
// mask, in mask coordinates. It is empty when no pixel is set.
func MaskBounds(mask *image.Gray) image.Rectangle {
	b := mask.Bounds()
	r := image.Rectangle{}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := mask.Pix[mask.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			if row[x] == 0 {
				continue
			}
			px := image.Rect(b.Min.X+x, y, b.Min.X+x+1, y+1)
			if r.Empty() {
				r = px
			} else {
				r = r.Union(px)
			}
		}
	}
	return r
}

// Cutout extracts the segmented object: pixels outside mask become fully
// transparent and the result is cropped to the mask's bounding box.
//
// img and mask must have the same dimensions. An all-zero mask is reported
// as segment.ErrEmptyMask.
func Cutout(img image.Image, mask *image.Gray) (*image.NRGBA, error) {
	ib, mb := img.Bounds(), mask.Bounds()
	if ib.Dx() != mb.Dx() || ib.Dy() != mb.Dy() {
		return nil, fmt.Errorf("mask %dx%d does not match image %dx%d: %w",
			mb.Dx(), mb.Dy(), ib.Dx(), ib.Dy(), segment.ErrInvalidInput)
	}
	box := MaskBounds(mask)
	if box.Empty() {
		return nil, fmt.Errorf("cutout: %w", segment.ErrEmptyMask)
	}

	masked := imaging.Clone(img)
	for y := 0; y < mb.Dy(); y++ {
		row := mask.Pix[mask.PixOffset(mb.Min.X, mb.Min.Y+y):]
		for x := 0; x < mb.Dx(); x++ {
			if row[x] == 0 {
				i := y*masked.Stride + x*4
				masked.Pix[i], masked.Pix[i+1], masked.Pix[i+2], masked.Pix[i+3] = 0, 0, 0, 0
			}
		}
	}

	return imaging.Crop(masked, box.Sub(mb.Min)), nil
}
