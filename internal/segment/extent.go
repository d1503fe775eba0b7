package segment

import (
	"fmt"
	"image"
)

// extentThreshold is the intensity a mask pixel must exceed to count as set.
const extentThreshold = 128

// Extent is the vertical span of a mask's set pixels.
type Extent struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Height int `json:"height"` // Bottom - Top
}

// Measure finds the topmost and bottommost rows of mask containing a pixel
// brighter than 128. Rows are relative to the mask's origin.
//
// It returns ErrEmptyMask when no pixel qualifies.
func Measure(mask *image.Gray) (Extent, error) {
	if err := checkMask("measure", mask); err != nil {
		return Extent{}, err
	}
	b := mask.Bounds()
	top, bottom := -1, -1
	for y := 0; y < b.Dy(); y++ {
		row := mask.Pix[mask.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < b.Dx(); x++ {
			if row[x] > extentThreshold {
				if top < 0 {
					top = y
				}
				bottom = y
				break
			}
		}
	}
	if top < 0 {
		return Extent{}, fmt.Errorf("%dx%d mask: %w", b.Dx(), b.Dy(), ErrEmptyMask)
	}
	return Extent{Top: top, Bottom: bottom, Height: bottom - top}, nil
}
