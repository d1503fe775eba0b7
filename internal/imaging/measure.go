package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/extent-mcp/internal/segment"
)

// MaskOverlap contains mask comparison information
type MaskOverlap struct {
	Intersection    int     `json:"intersection"`
	Union           int     `json:"union"`
	IoU             float64 `json:"iou"`
	PixelsDifferent int     `json:"pixels_different"`
	TotalPixels     int     `json:"total_pixels"`
}

// CompareMasks compares two same-sized binary masks. A pixel counts as set
// when it is non-zero. Two empty masks have an IoU of 1.
func CompareMasks(a, b *image.Gray) (*MaskOverlap, error) {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return nil, fmt.Errorf("mask sizes differ: %dx%d vs %dx%d: %w",
			ab.Dx(), ab.Dy(), bb.Dx(), bb.Dy(), segment.ErrInvalidInput)
	}

	var inter, union, diff int
	for y := 0; y < ab.Dy(); y++ {
		ra := a.Pix[a.PixOffset(ab.Min.X, ab.Min.Y+y):]
		rb := b.Pix[b.PixOffset(bb.Min.X, bb.Min.Y+y):]
		for x := 0; x < ab.Dx(); x++ {
			sa, sb := ra[x] != 0, rb[x] != 0
			if sa && sb {
				inter++
			}
			if sa || sb {
				union++
			}
			if sa != sb {
				diff++
			}
		}
	}

	iou := 1.0
	if union > 0 {
		iou = float64(inter) / float64(union)
	}

	return &MaskOverlap{
		Intersection:    inter,
		Union:           union,
		IoU:             math.Round(iou*1000) / 1000,
		PixelsDifferent: diff,
		TotalPixels:     ab.Dx() * ab.Dy(),
	}, nil
}

// MaskFromImage reads a mask image: a pixel is set when its red channel
// exceeds 128. Alpha is ignored.
func MaskFromImage(img image.Image) *image.Gray {
	src := imaging.Clone(img)
	b := src.Bounds()
	mask := image.NewGray(b)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if src.Pix[y*src.Stride+x*4] > 128 {
				mask.Pix[y*mask.Stride+x] = 255
			}
		}
	}
	return mask
}
